package domain

import (
	"context"
	"fmt"
	"time"
)

type EventKind string

const (
	EventStageStarted        EventKind = "STAGE_STARTED"
	EventStageCompleted      EventKind = "STAGE_COMPLETED"
	EventStageReverted       EventKind = "STAGE_REVERTED"
	EventQCRecorded          EventKind = "QC_RECORDED"
	EventProductionCreated   EventKind = "PRODUCTION_CREATED"
	EventProductionCancelled EventKind = "PRODUCTION_CANCELLED"
)

func (k EventKind) String() string {
	return string(k)
}

// StageEvent announces one committed state mutation of a production record.
type StageEvent struct {
	RecordId string    `json:"recordId"`
	Kind     EventKind `json:"kind"`

	// Stage the event relates to. For reverts, the target stage.
	Stage Stage `json:"stage,omitempty"`

	// Aggregate state after the mutation.
	Status   ProductionStatus `json:"status"`
	Progress int              `json:"progress"`

	// QCResult is set for QC_RECORDED events only.
	QCResult QCResult `json:"qcResult,omitempty"`

	OperatorId string    `json:"operatorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (e StageEvent) String() string {
	return fmt.Sprintf("%s on record %s (stage %s)", e.Kind, e.RecordId, e.Stage)
}

// EventSink receives StageEvents after each successful state mutation.
//
// Publish is called synchronously, after commit and outside any record lock.
// Failures are logged by the caller and never surfaced to API clients;
// delivery is best-effort, not transactional with the domain write.
type EventSink interface {
	Publish(ctx context.Context, event StageEvent) error
}
