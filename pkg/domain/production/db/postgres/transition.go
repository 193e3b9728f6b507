package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	kpool "github.com/weftline/weftline/pkg/conn/db/postgres/pool"
	"github.com/weftline/weftline/pkg/domain"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
)

func (p *pgProduction) StartStage(ctx context.Context, spec kdb.StartStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, wrapPgError(err)
	}
	defer tx.Rollback(ctx)

	record, err := lockRecord(ctx, tx, spec.RecordId)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	if err := record.ValidateStartStage(spec.Stage); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	now := p.now()

	status := domain.UpdateStarted
	extraDays := 0
	delayReason := ""
	if spec.HasDelay {
		status = domain.UpdateDelayed
		extraDays = spec.ExtraDays
		delayReason = spec.DelayReason
	}

	entry := domain.StageUpdate{
		Id:            p.newId(),
		RecordId:      record.Id,
		Stage:         spec.Stage,
		Status:        status,
		EstimatedDays: spec.EstimatedDays,
		ExtraDays:     extraDays,
		DelayReason:   delayReason,
		Notes:         spec.Notes,
		Photos:        spec.Photos,
		OperatorId:    spec.OperatorId,
		ActualStart:   &now,
		CreatedAt:     now,
	}

	if record.ActualStart == nil {
		record.ActualStart = &now
	}
	record.CurrentStage = spec.Stage
	if spec.HasDelay {
		record.Status = domain.InDelay
	} else {
		record.Status = domain.InProgress
	}

	if err := insertStageUpdate(ctx, tx, entry); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}
	record, err = saveRecord(ctx, tx, record, now)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, wrapPgError(err)
	}

	return entry, record, nil
}

func (p *pgProduction) CompleteStage(ctx context.Context, spec kdb.CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, wrapPgError(err)
	}
	defer tx.Rollback(ctx)

	record, err := lockRecord(ctx, tx, spec.RecordId)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	if err := record.ValidateComplete(spec.Stage); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	open, err := latestEntryForStage(ctx, tx, record.Id, spec.Stage)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}
	if open == nil || !open.Status.Open() {
		return domain.StageUpdate{}, domain.ProductionRecord{}, domain.NewErrNoOpenStage(spec.Stage)
	}

	if spec.Stage.QCGated() {
		latest, err := latestQualityCheck(ctx, tx, record.Id)
		if err != nil {
			return domain.StageUpdate{}, domain.ProductionRecord{}, err
		}
		if !domain.QualityGateSatisfied(latest, open.CreatedAt) {
			return domain.StageUpdate{}, domain.ProductionRecord{},
				domain.ErrQualityGateBlocked
		}
	}

	now := p.now()

	entry := domain.StageUpdate{
		Id:          p.newId(),
		RecordId:    record.Id,
		Stage:       spec.Stage,
		Status:      domain.UpdateCompleted,
		Notes:       spec.Notes,
		Photos:      spec.Photos,
		OperatorId:  spec.OperatorId,
		ActualStart: open.ActualStart,
		ActualEnd:   &now,
		CreatedAt:   now,
	}

	record.Progress = domain.ProgressAfterComplete(spec.Stage)
	if spec.Stage.IsTerminal() {
		record.Status = domain.Completed
		record.ActualEnd = &now
	} else {
		record.Status = domain.InProgress
	}

	if err := insertStageUpdate(ctx, tx, entry); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}
	record, err = saveRecord(ctx, tx, record, now)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, wrapPgError(err)
	}

	return entry, record, nil
}

func (p *pgProduction) RevertStage(ctx context.Context, spec kdb.RevertStage) (domain.StageUpdate, domain.ProductionRecord, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, wrapPgError(err)
	}
	defer tx.Rollback(ctx)

	record, err := lockRecord(ctx, tx, spec.RecordId)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	if err := record.ValidateRevert(spec.TargetStage); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	now := p.now()

	entry := domain.StageUpdate{
		Id:          p.newId(),
		RecordId:    record.Id,
		Stage:       spec.TargetStage,
		Status:      domain.UpdateStarted,
		IsRevision:  true,
		Notes:       spec.Reason,
		OperatorId:  spec.OperatorId,
		ActualStart: &now,
		CreatedAt:   now,
	}

	record.CurrentStage = spec.TargetStage
	record.Progress = domain.ProgressAtStage(spec.TargetStage)
	record.Status = domain.InProgress

	if err := insertStageUpdate(ctx, tx, entry); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}
	record, err = saveRecord(ctx, tx, record, now)
	if err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StageUpdate{}, domain.ProductionRecord{}, wrapPgError(err)
	}

	return entry, record, nil
}

func (p *pgProduction) Cancel(ctx context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.ProductionRecord{}, wrapPgError(err)
	}
	defer tx.Rollback(ctx)

	record, err := lockRecord(ctx, tx, recordId)
	if err != nil {
		return domain.ProductionRecord{}, err
	}

	if record.Status.IsTerminal() {
		return domain.ProductionRecord{}, domain.NewErrInvalidTransition(
			record.CurrentStage, record.CurrentStage,
		)
	}

	now := p.now()

	record.Status = domain.Cancelled
	if reason != "" {
		record.Notes = strings.TrimSpace(record.Notes + "\n[cancelled] " + reason)
	}

	record, err = saveRecord(ctx, tx, record, now)
	if err != nil {
		return domain.ProductionRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ProductionRecord{}, wrapPgError(err)
	}

	return record, nil
}

// lockRecord reads the production row, taking its lock without waiting.
// A lock held by a concurrent operation surfaces as ErrConcurrentModification.
func lockRecord(ctx context.Context, tx kpool.Tx, recordId string) (domain.ProductionRecord, error) {
	record, err := scanRecord(tx.QueryRow(
		ctx,
		`
		select
			"record_id", "order_id", "sample_id",
			"current_stage", "status", "progress",
			"estimated_start", "estimated_end",
			"actual_start", "actual_end",
			"notes", "version", "updated_at"
		from "production"
		where "record_id" = $1
		for update nowait
		`,
		recordId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProductionRecord{}, missingRecord(recordId)
		}
		return domain.ProductionRecord{}, wrapPgError(err)
	}
	return record, nil
}

// saveRecord writes the aggregate fields back, bumping the version.
//
// The version predicate is a second guard besides the row lock; a lost
// update surfaces as ErrConcurrentModification.
func saveRecord(ctx context.Context, tx kpool.Tx, record domain.ProductionRecord, now time.Time) (domain.ProductionRecord, error) {
	tag, err := tx.Exec(
		ctx,
		`
		update "production" set
			"current_stage" = $2,
			"status" = $3,
			"progress" = $4,
			"actual_start" = $5,
			"actual_end" = $6,
			"notes" = $7,
			"version" = "version" + 1,
			"updated_at" = $8
		where "record_id" = $1 and "version" = $9
		`,
		record.Id,
		record.CurrentStage.String(), record.Status.String(), record.Progress,
		record.ActualStart, record.ActualEnd, record.Notes,
		now, record.Version,
	)
	if err != nil {
		return domain.ProductionRecord{}, wrapPgError(err)
	}
	if tag.RowsAffected() != 1 {
		return domain.ProductionRecord{}, domain.ErrConcurrentModification
	}

	record.Version += 1
	record.UpdatedAt = now
	return record, nil
}

func insertStageUpdate(ctx context.Context, tx kpool.Tx, entry domain.StageUpdate) error {
	photos := entry.Photos
	if photos == nil {
		photos = []string{}
	}
	if _, err := tx.Exec(
		ctx,
		`
		insert into "stage_update" (
			"update_id", "record_id", "stage", "status", "is_revision",
			"estimated_days", "extra_days", "delay_reason",
			"notes", "photos", "operator_id",
			"actual_start", "actual_end", "created_at"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
		entry.Id, entry.RecordId, entry.Stage.String(), entry.Status.String(),
		entry.IsRevision,
		entry.EstimatedDays, entry.ExtraDays, entry.DelayReason,
		entry.Notes, photos, entry.OperatorId,
		entry.ActualStart, entry.ActualEnd, entry.CreatedAt,
	); err != nil {
		return wrapPgError(err)
	}
	return nil
}

// latestEntryForStage picks the newest ledger entry of the stage, or nil.
func latestEntryForStage(ctx context.Context, tx kpool.Tx, recordId string, stage domain.Stage) (*domain.StageUpdate, error) {
	entry, err := scanStageUpdate(tx.QueryRow(
		ctx,
		`
		select
			"update_id", "record_id", "stage", "status", "is_revision",
			"estimated_days", "extra_days", "delay_reason",
			"notes", "photos", "operator_id",
			"actual_start", "actual_end", "created_at"
		from "stage_update"
		where "record_id" = $1 and "stage" = $2
		order by "created_at" desc, "update_id" desc
		limit 1
		`,
		recordId, stage.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapPgError(err)
	}
	return &entry, nil
}
