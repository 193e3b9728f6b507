package mock

import (
	"context"
	"errors"

	"github.com/weftline/weftline/pkg/domain"
	dbmock "github.com/weftline/weftline/pkg/domain/internal/db/mock"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
)

type ProductionInterface struct {
	Impl struct {
		NewRecord          func(ctx context.Context, spec kdb.NewProduction) (string, error)
		Get                func(ctx context.Context, recordId []string) (map[string]domain.ProductionRecord, error)
		Find               func(ctx context.Context, query kdb.FindQuery) ([]string, error)
		GetStageUpdates    func(ctx context.Context, recordId string) ([]domain.StageUpdate, error)
		GetQualityChecks   func(ctx context.Context, recordId string) ([]domain.QualityCheck, error)
		StartStage         func(ctx context.Context, spec kdb.StartStage) (domain.StageUpdate, domain.ProductionRecord, error)
		CompleteStage      func(ctx context.Context, spec kdb.CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error)
		RevertStage        func(ctx context.Context, spec kdb.RevertStage) (domain.StageUpdate, domain.ProductionRecord, error)
		RecordQualityCheck func(ctx context.Context, spec kdb.NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error)
		Cancel             func(ctx context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error)
	}

	Calls struct {
		NewRecord          dbmock.CallLog[kdb.NewProduction]
		Get                dbmock.CallLog[[]string]
		Find               dbmock.CallLog[kdb.FindQuery]
		GetStageUpdates    dbmock.CallLog[string]
		GetQualityChecks   dbmock.CallLog[string]
		StartStage         dbmock.CallLog[kdb.StartStage]
		CompleteStage      dbmock.CallLog[kdb.CompleteStage]
		RevertStage        dbmock.CallLog[kdb.RevertStage]
		RecordQualityCheck dbmock.CallLog[kdb.NewQualityCheck]
		Cancel             dbmock.CallLog[struct {
			RecordId   string
			OperatorId string
			Reason     string
		}]
	}
}

func NewProductionInterface() *ProductionInterface {
	return &ProductionInterface{}
}

var _ kdb.Interface = &ProductionInterface{}

func (m *ProductionInterface) NewRecord(ctx context.Context, spec kdb.NewProduction) (string, error) {
	m.Calls.NewRecord = append(m.Calls.NewRecord, spec)
	if m.Impl.NewRecord != nil {
		return m.Impl.NewRecord(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) Get(ctx context.Context, recordId []string) (map[string]domain.ProductionRecord, error) {
	m.Calls.Get = append(m.Calls.Get, recordId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, recordId)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) Find(ctx context.Context, query kdb.FindQuery) ([]string, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) GetStageUpdates(ctx context.Context, recordId string) ([]domain.StageUpdate, error) {
	m.Calls.GetStageUpdates = append(m.Calls.GetStageUpdates, recordId)
	if m.Impl.GetStageUpdates != nil {
		return m.Impl.GetStageUpdates(ctx, recordId)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) GetQualityChecks(ctx context.Context, recordId string) ([]domain.QualityCheck, error) {
	m.Calls.GetQualityChecks = append(m.Calls.GetQualityChecks, recordId)
	if m.Impl.GetQualityChecks != nil {
		return m.Impl.GetQualityChecks(ctx, recordId)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) StartStage(ctx context.Context, spec kdb.StartStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	m.Calls.StartStage = append(m.Calls.StartStage, spec)
	if m.Impl.StartStage != nil {
		return m.Impl.StartStage(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) CompleteStage(ctx context.Context, spec kdb.CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	m.Calls.CompleteStage = append(m.Calls.CompleteStage, spec)
	if m.Impl.CompleteStage != nil {
		return m.Impl.CompleteStage(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) RevertStage(ctx context.Context, spec kdb.RevertStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	m.Calls.RevertStage = append(m.Calls.RevertStage, spec)
	if m.Impl.RevertStage != nil {
		return m.Impl.RevertStage(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) RecordQualityCheck(ctx context.Context, spec kdb.NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error) {
	m.Calls.RecordQualityCheck = append(m.Calls.RecordQualityCheck, spec)
	if m.Impl.RecordQualityCheck != nil {
		return m.Impl.RecordQualityCheck(ctx, spec)
	}
	panic(errors.New("it should not be called"))
}

func (m *ProductionInterface) Cancel(ctx context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error) {
	m.Calls.Cancel = append(m.Calls.Cancel, struct {
		RecordId   string
		OperatorId string
		Reason     string
	}{RecordId: recordId, OperatorId: operatorId, Reason: reason})
	if m.Impl.Cancel != nil {
		return m.Impl.Cancel(ctx, recordId, operatorId, reason)
	}
	panic(errors.New("it should not be called"))
}
