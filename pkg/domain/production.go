package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/weftline/weftline/pkg/utils/cmp"
)

type ProductionStatus string

const (
	// No stage update has been recorded yet.
	NotStarted ProductionStatus = "NOT_STARTED"

	// At least one stage is started and work proceeds on schedule.
	InProgress ProductionStatus = "IN_PROGRESS"

	// The latest stage update reported a delay.
	InDelay ProductionStatus = "DELAYED"

	// The terminal stage has been completed. No further stage mutations.
	Completed ProductionStatus = "COMPLETED"

	// The run was cancelled explicitly. No further stage mutations.
	Cancelled ProductionStatus = "CANCELLED"
)

func (ps ProductionStatus) String() string {
	return string(ps)
}

func AsProductionStatus(status string) (ProductionStatus, error) {
	switch status {
	case string(NotStarted):
		return NotStarted, nil
	case string(InProgress):
		return InProgress, nil
	case string(InDelay):
		return InDelay, nil
	case string(Completed):
		return Completed, nil
	case string(Cancelled):
		return Cancelled, nil
	default:
		return "", fmt.Errorf("'%s' is not ProductionStatus", status)
	}
}

// Terminal statuses reject any further stage mutation.
func (ps ProductionStatus) IsTerminal() bool {
	switch ps {
	case Completed, Cancelled:
		return true
	default:
		return false
	}
}

func (ps ProductionStatus) HasStarted() bool {
	return ps != NotStarted
}

type UpdateStatus string

const (
	UpdateStarted   UpdateStatus = "STARTED"
	UpdateCompleted UpdateStatus = "COMPLETED"
	UpdateDelayed   UpdateStatus = "DELAYED"
)

func (us UpdateStatus) String() string {
	return string(us)
}

func AsUpdateStatus(status string) (UpdateStatus, error) {
	switch status {
	case string(UpdateStarted):
		return UpdateStarted, nil
	case string(UpdateCompleted):
		return UpdateCompleted, nil
	case string(UpdateDelayed):
		return UpdateDelayed, nil
	default:
		return "", fmt.Errorf("'%s' is not UpdateStatus", status)
	}
}

// Open reports whether a ledger entry with this status leaves its stage open.
// A stage stays open until a COMPLETED entry is appended for it.
func (us UpdateStatus) Open() bool {
	switch us {
	case UpdateStarted, UpdateDelayed:
		return true
	default:
		return false
	}
}

type QCResult string

const (
	QCPass        QCResult = "PASS"
	QCFail        QCResult = "FAIL"
	QCConditional QCResult = "CONDITIONAL"
)

func (r QCResult) String() string {
	return string(r)
}

func AsQCResult(result string) (QCResult, error) {
	switch result {
	case string(QCPass):
		return QCPass, nil
	case string(QCFail):
		return QCFail, nil
	case string(QCConditional):
		return QCConditional, nil
	default:
		return "", fmt.Errorf("'%s' is not QCResult", result)
	}
}

// Passing results satisfy the quality gate. FAIL and CONDITIONAL both
// block completion of the QC stage until a newer PASS exists.
func (r QCResult) Passing() bool {
	return r == QCPass
}

// ProductionRecord is the aggregate tracking one manufacturing run.
//
// Owned by exactly one order XOR one sample. CurrentStage, Status and
// Progress are derived from the stage-update ledger but persisted
// explicitly; they are mutated only through the repository operations.
type ProductionRecord struct {
	Id string

	// Exactly one of OrderId and SampleId is set.
	OrderId  string
	SampleId string

	CurrentStage Stage
	Status       ProductionStatus

	// percentage of stages completed, 0-100.
	//
	// Monotonically non-decreasing except on an explicit revert.
	Progress int

	EstimatedStart *time.Time
	EstimatedEnd   *time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time

	Notes string

	// Version is bumped on every mutation. Concurrent writers lose with
	// ErrConcurrentModification.
	Version int

	UpdatedAt time.Time
}

func (r *ProductionRecord) Equal(o *ProductionRecord) bool {
	if (r == nil) || (o == nil) {
		return (r == nil) && (o == nil)
	}
	return r.Id == o.Id &&
		r.OrderId == o.OrderId &&
		r.SampleId == o.SampleId &&
		r.CurrentStage == o.CurrentStage &&
		r.Status == o.Status &&
		r.Progress == o.Progress &&
		timePtrEq(r.EstimatedStart, o.EstimatedStart) &&
		timePtrEq(r.EstimatedEnd, o.EstimatedEnd) &&
		timePtrEq(r.ActualStart, o.ActualStart) &&
		timePtrEq(r.ActualEnd, o.ActualEnd) &&
		r.Notes == o.Notes &&
		r.Version == o.Version &&
		r.UpdatedAt.Equal(o.UpdatedAt)
}

// StageUpdate is one immutable row of the stage-update ledger.
type StageUpdate struct {
	Id       string
	RecordId string
	Stage    Stage
	Status   UpdateStatus

	// IsRevision marks entries appended by a revert.
	IsRevision bool

	EstimatedDays int

	// ExtraDays accumulates per stage across delay reports, for reporting.
	// It never auto-extends EstimatedEnd of the record.
	ExtraDays   int
	DelayReason string

	Notes  string
	Photos []string

	OperatorId string

	ActualStart *time.Time
	ActualEnd   *time.Time
	CreatedAt   time.Time
}

func (u *StageUpdate) Equal(o *StageUpdate) bool {
	if (u == nil) || (o == nil) {
		return (u == nil) && (o == nil)
	}
	return u.Id == o.Id &&
		u.RecordId == o.RecordId &&
		u.Stage == o.Stage &&
		u.Status == o.Status &&
		u.IsRevision == o.IsRevision &&
		u.EstimatedDays == o.EstimatedDays &&
		u.ExtraDays == o.ExtraDays &&
		u.DelayReason == o.DelayReason &&
		u.Notes == o.Notes &&
		cmp.SliceEq(u.Photos, o.Photos) &&
		u.OperatorId == o.OperatorId &&
		timePtrEq(u.ActualStart, o.ActualStart) &&
		timePtrEq(u.ActualEnd, o.ActualEnd) &&
		u.CreatedAt.Equal(o.CreatedAt)
}

type DefectFlags struct {
	Stitching   bool
	Fabric      bool
	Color       bool
	Measurement bool
}

func (f DefectFlags) Any() bool {
	return f.Stitching || f.Fabric || f.Color || f.Measurement
}

// QualityCheck is an inspector verdict for one production record.
//
// Recording a check never mutates the record; the gate is evaluated
// against the latest check when completing the QC stage.
type QualityCheck struct {
	Id          string
	RecordId    string
	InspectorId string
	Result      QCResult

	// 1-100 when set.
	Score *int

	DefectFlags DefectFlags
	Notes       string
	Photos      []string
	CheckedAt   time.Time
}

func (q *QualityCheck) Equal(o *QualityCheck) bool {
	if (q == nil) || (o == nil) {
		return (q == nil) && (o == nil)
	}
	scoreEq := (q.Score == nil && o.Score == nil) ||
		(q.Score != nil && o.Score != nil && *q.Score == *o.Score)
	return q.Id == o.Id &&
		q.RecordId == o.RecordId &&
		q.InspectorId == o.InspectorId &&
		q.Result == o.Result &&
		scoreEq &&
		q.DefectFlags == o.DefectFlags &&
		q.Notes == o.Notes &&
		cmp.SliceEq(q.Photos, o.Photos) &&
		q.CheckedAt.Equal(o.CheckedAt)
}

var (
	ErrInvalidTransition      = errors.New("stage transition not allowed")
	ErrNoOpenStage            = errors.New("no open stage update")
	ErrQualityGateBlocked     = errors.New("quality gate blocks completion")
	ErrInvalidRevertTarget    = errors.New("revert target is not an earlier stage")
	ErrWrongStageForQC        = errors.New("record is not at a quality-check stage")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrStoreUnavailable       = errors.New("store unavailable")
)

func NewErrInvalidTransition(from, to Stage) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func NewErrInvalidRevertTarget(current, target Stage) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidRevertTarget, current, target)
}

func NewErrNoOpenStage(stage Stage) error {
	return fmt.Errorf("%w: %s", ErrNoOpenStage, stage)
}

func NewErrWrongStageForQC(current Stage) error {
	return fmt.Errorf("%w: record is at %s", ErrWrongStageForQC, current)
}

// ValidateStartStage checks the preconditions of starting (or re-reporting)
// a stage update: the record is not terminal, and stage is the current stage
// or its immediate successor. No skipping.
func (r *ProductionRecord) ValidateStartStage(stage Stage) error {
	if !stage.Known() {
		return fmt.Errorf("%w: '%s'", ErrInvalidStage, stage)
	}
	if r.Status.IsTerminal() {
		return fmt.Errorf(
			"%w: record %s is %s", ErrInvalidTransition, r.Id, r.Status,
		)
	}
	if stage == r.CurrentStage {
		return nil
	}
	if next, ok := r.CurrentStage.Next(); ok && stage == next {
		return nil
	}
	return NewErrInvalidTransition(r.CurrentStage, stage)
}

// ValidateComplete checks that stage is the record's current stage and the
// record is not terminal. The open-ledger-entry and quality-gate
// preconditions depend on history and are verified by the repository.
func (r *ProductionRecord) ValidateComplete(stage Stage) error {
	if !stage.Known() {
		return fmt.Errorf("%w: '%s'", ErrInvalidStage, stage)
	}
	if r.Status.IsTerminal() {
		return fmt.Errorf(
			"%w: record %s is %s", ErrInvalidTransition, r.Id, r.Status,
		)
	}
	if stage != r.CurrentStage {
		return NewErrInvalidTransition(r.CurrentStage, stage)
	}
	return nil
}

// ValidateRevert checks that target is strictly earlier than the current
// stage and the record is not terminal.
func (r *ProductionRecord) ValidateRevert(target Stage) error {
	if !target.Known() {
		return fmt.Errorf("%w: '%s'", ErrInvalidStage, target)
	}
	if r.Status.IsTerminal() {
		return fmt.Errorf(
			"%w: record %s is %s", ErrInvalidRevertTarget, r.Id, r.Status,
		)
	}
	if target.Ordinal() >= r.CurrentStage.Ordinal() {
		return NewErrInvalidRevertTarget(r.CurrentStage, target)
	}
	return nil
}

// ValidateQualityCheck checks that the record stands at a QC-eligible stage.
func (r *ProductionRecord) ValidateQualityCheck() error {
	if r.Status.IsTerminal() {
		return NewErrWrongStageForQC(r.CurrentStage)
	}
	if !r.CurrentStage.QCEligible() {
		return NewErrWrongStageForQC(r.CurrentStage)
	}
	return nil
}

// QualityGateSatisfied reports whether the latest quality check clears the
// gate for a stage opened at openedAt. The check must be a PASS recorded
// after the stage was (re-)opened.
func QualityGateSatisfied(latest *QualityCheck, openedAt time.Time) bool {
	if latest == nil {
		return false
	}
	return latest.Result.Passing() && latest.CheckedAt.After(openedAt)
}

func timePtrEq(a, b *time.Time) bool {
	if (a == nil) || (b == nil) {
		return (a == nil) && (b == nil)
	}
	return a.Equal(*b)
}
