package db

import (
	"context"
	"time"

	"github.com/weftline/weftline/pkg/domain"
)

// NewProduction is the spec to register a manufacturing run for tracking.
//
// Exactly one of OrderId and SampleId should be set.
type NewProduction struct {
	OrderId  string
	SampleId string

	EstimatedStart *time.Time
	EstimatedEnd   *time.Time

	Notes string
}

// StartStage is the spec to open (or re-report) a stage update.
type StartStage struct {
	RecordId string

	// Stage to start. It should be the record's current stage or its
	// immediate successor.
	Stage domain.Stage

	OperatorId string

	Notes         string
	Photos        []string
	EstimatedDays int

	// HasDelay marks the update as a delay report. DelayReason and
	// ExtraDays are stored on the ledger entry, and the record status
	// becomes DELAYED.
	HasDelay    bool
	DelayReason string
	ExtraDays   int
}

type CompleteStage struct {
	RecordId string

	// Stage to complete. It should be the record's current stage.
	Stage domain.Stage

	OperatorId string

	Notes  string
	Photos []string
}

type RevertStage struct {
	RecordId string

	// TargetStage should be strictly earlier than the record's current stage.
	TargetStage domain.Stage

	OperatorId string

	// Reason of the rollback, stored on the revision ledger entry.
	Reason string
}

type NewQualityCheck struct {
	RecordId    string
	InspectorId string

	Result domain.QCResult

	// 1-100 when set.
	Score *int

	DefectFlags domain.DefectFlags
	Notes       string
	Photos      []string
}

// parameter to query production records.
//
// When all dimension matches a record, this query matches the record.
type FindQuery struct {
	// match if the record tracks one of these orders.
	//
	// If it is nil or empty, it means "match any".
	OrderId []string

	// match if the record tracks one of these samples.
	//
	// If it is nil or empty, it means "match any".
	SampleId []string

	// match if the record's status is one of these statuses.
	//
	// If it is nil or empty, it means "match any".
	Status []domain.ProductionStatus

	// match if the record's current stage is one of these stages.
	//
	// If it is nil or empty, it means "match any".
	Stage []domain.Stage

	// match if the record's updated time is equal or later than this.
	UpdatedSince *time.Time

	// match if the record's updated time is earlier than this.
	UpdatedUntil *time.Time
}

// Interface is the transactional repository of production records.
//
// Each mutating operation runs as one transaction: read the record with a
// row lock, validate, append ledger row(s), update the record, commit.
// Concurrent mutations of the same record do not both succeed; the loser
// fails with domain.ErrConcurrentModification.
type Interface interface {
	// register a new production record at the first catalog stage,
	// status NOT_STARTED, progress 0.
	//
	// Returns
	//
	// - string: record id which is newly created.
	//
	// - error
	NewRecord(ctx context.Context, spec NewProduction) (string, error)

	// Retrieve records.
	//
	// Returns
	//
	// - map[string]domain.ProductionRecord: mapping recordId->record.
	// Missing ids are just omitted.
	//
	// - error
	Get(ctx context.Context, recordId []string) (map[string]domain.ProductionRecord, error)

	// find record ids which the query matches, ordered by updated time.
	Find(ctx context.Context, query FindQuery) ([]string, error)

	// read the stage-update ledger of a record, oldest first.
	//
	// This is a display read: unlocked, eventually consistent.
	GetStageUpdates(ctx context.Context, recordId string) ([]domain.StageUpdate, error)

	// read the quality checks of a record, oldest first.
	GetQualityChecks(ctx context.Context, recordId string) ([]domain.QualityCheck, error)

	// open a stage update, advancing the current stage when spec.Stage is
	// the successor of the record's current stage.
	//
	// Returns
	//
	// - domain.StageUpdate: the appended ledger entry.
	//
	// - domain.ProductionRecord: the record after the mutation.
	//
	// - error: ErrInvalidTransition (stage is neither current nor next, or
	// the record is terminal), ErrMissing, ErrConcurrentModification.
	StartStage(ctx context.Context, spec StartStage) (domain.StageUpdate, domain.ProductionRecord, error)

	// complete the current stage, recomputing progress; completing the
	// catalog's terminal stage completes the whole record.
	//
	// Returns
	//
	// - error: ErrNoOpenStage (no open ledger entry for the stage),
	// ErrQualityGateBlocked (QC stage without a passing check newer than
	// the latest open entry), ErrInvalidTransition, ErrMissing,
	// ErrConcurrentModification.
	CompleteStage(ctx context.Context, spec CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error)

	// send the record back to an earlier stage, appending a revision entry.
	// Recorded quality checks are kept for audit.
	//
	// Returns
	//
	// - error: ErrInvalidRevertTarget (target not strictly earlier, or the
	// record is terminal), ErrMissing, ErrConcurrentModification.
	RevertStage(ctx context.Context, spec RevertStage) (domain.StageUpdate, domain.ProductionRecord, error)

	// record an inspector verdict. Never mutates the record's stage or
	// status; gating is evaluated by CompleteStage.
	//
	// Returns
	//
	// - error: ErrWrongStageForQC (record is not at a QC-eligible stage),
	// ErrMissing, ErrConcurrentModification.
	RecordQualityCheck(ctx context.Context, spec NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error)

	// cancel the run. Terminal; further stage mutations are rejected.
	//
	// Returns
	//
	// - error: ErrInvalidTransition (already terminal), ErrMissing,
	// ErrConcurrentModification.
	Cancel(ctx context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error)
}
