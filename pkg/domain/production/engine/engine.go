package engine

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/weftline/weftline/pkg/domain"
	kpgerr "github.com/weftline/weftline/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
)

// Engine applies production-record mutations through the repository and
// announces each committed one to the event sink.
//
// Publication is best-effort: a sink failure is logged and never converted
// into a caller-visible error, since the domain write already succeeded.
type Engine struct {
	db   kdb.Interface
	sink domain.EventSink
	log  zerolog.Logger
}

func New(db kdb.Interface, sink domain.EventSink, logger zerolog.Logger) *Engine {
	return &Engine{db: db, sink: sink, log: logger}
}

func (e *Engine) Create(ctx context.Context, spec kdb.NewProduction, operatorId string) (domain.ProductionRecord, error) {
	recordId, err := e.db.NewRecord(ctx, spec)
	if err != nil {
		return domain.ProductionRecord{}, err
	}

	records, err := e.db.Get(ctx, []string{recordId})
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	record, ok := records[recordId]
	if !ok {
		return domain.ProductionRecord{}, kpgerr.Missing{
			Table: "production", Identity: "record_id = " + recordId,
		}
	}

	e.publish(ctx, domain.StageEvent{
		RecordId:   record.Id,
		Kind:       domain.EventProductionCreated,
		Stage:      record.CurrentStage,
		Status:     record.Status,
		Progress:   record.Progress,
		OperatorId: operatorId,
		OccurredAt: record.UpdatedAt,
	})

	return record, nil
}

func (e *Engine) StartStage(ctx context.Context, spec kdb.StartStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	entry, record, err := e.db.StartStage(ctx, spec)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	e.publish(ctx, domain.StageEvent{
		RecordId:   record.Id,
		Kind:       domain.EventStageStarted,
		Stage:      entry.Stage,
		Status:     record.Status,
		Progress:   record.Progress,
		OperatorId: spec.OperatorId,
		OccurredAt: entry.CreatedAt,
	})

	return entry, record, nil
}

func (e *Engine) CompleteStage(ctx context.Context, spec kdb.CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	entry, record, err := e.db.CompleteStage(ctx, spec)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	e.publish(ctx, domain.StageEvent{
		RecordId:   record.Id,
		Kind:       domain.EventStageCompleted,
		Stage:      entry.Stage,
		Status:     record.Status,
		Progress:   record.Progress,
		OperatorId: spec.OperatorId,
		OccurredAt: entry.CreatedAt,
	})

	return entry, record, nil
}

func (e *Engine) RevertStage(ctx context.Context, spec kdb.RevertStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	entry, record, err := e.db.RevertStage(ctx, spec)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	e.publish(ctx, domain.StageEvent{
		RecordId:   record.Id,
		Kind:       domain.EventStageReverted,
		Stage:      entry.Stage,
		Status:     record.Status,
		Progress:   record.Progress,
		OperatorId: spec.OperatorId,
		OccurredAt: entry.CreatedAt,
	})

	return entry, record, nil
}

func (e *Engine) RecordQualityCheck(ctx context.Context, spec kdb.NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error) {
	check, record, err := e.db.RecordQualityCheck(ctx, spec)
	if err != nil {
		return domain.QualityCheck{}, domain.ProductionRecord{}, err
	}

	e.publish(ctx, domain.StageEvent{
		RecordId:   record.Id,
		Kind:       domain.EventQCRecorded,
		Stage:      record.CurrentStage,
		Status:     record.Status,
		Progress:   record.Progress,
		QCResult:   check.Result,
		OperatorId: spec.InspectorId,
		OccurredAt: check.CheckedAt,
	})

	return check, record, nil
}

// StageUpdates reads the ledger of a record, oldest first.
func (e *Engine) StageUpdates(ctx context.Context, recordId string) ([]domain.StageUpdate, error) {
	return e.db.GetStageUpdates(ctx, recordId)
}

// QualityChecks reads the inspector verdicts of a record, oldest first.
func (e *Engine) QualityChecks(ctx context.Context, recordId string) ([]domain.QualityCheck, error) {
	return e.db.GetQualityChecks(ctx, recordId)
}

func (e *Engine) Cancel(ctx context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error) {
	record, err := e.db.Cancel(ctx, recordId, operatorId, reason)
	if err != nil {
		return domain.ProductionRecord{}, err
	}

	e.publish(ctx, domain.StageEvent{
		RecordId:   record.Id,
		Kind:       domain.EventProductionCancelled,
		Stage:      record.CurrentStage,
		Status:     record.Status,
		Progress:   record.Progress,
		OperatorId: operatorId,
		OccurredAt: record.UpdatedAt,
	})

	return record, nil
}

func (e *Engine) publish(ctx context.Context, event domain.StageEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, event); err != nil {
		e.log.Warn().Err(err).
			Str("record_id", event.RecordId).
			Str("kind", event.Kind.String()).
			Msg("event publish failed (non-fatal)")
	}
}
