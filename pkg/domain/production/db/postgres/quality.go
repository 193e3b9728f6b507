package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	kpool "github.com/weftline/weftline/pkg/conn/db/postgres/pool"
	"github.com/weftline/weftline/pkg/domain"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
)

func (p *pgProduction) RecordQualityCheck(ctx context.Context, spec kdb.NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.QualityCheck{}, domain.ProductionRecord{}, wrapPgError(err)
	}
	defer tx.Rollback(ctx)

	// The lock serializes checks against concurrent stage transitions,
	// so the stage precondition cannot be raced away.
	record, err := lockRecord(ctx, tx, spec.RecordId)
	if err != nil {
		return domain.QualityCheck{}, domain.ProductionRecord{}, err
	}

	if err := record.ValidateQualityCheck(); err != nil {
		return domain.QualityCheck{}, domain.ProductionRecord{}, err
	}

	now := p.now()

	check := domain.QualityCheck{
		Id:          p.newId(),
		RecordId:    record.Id,
		InspectorId: spec.InspectorId,
		Result:      spec.Result,
		Score:       spec.Score,
		DefectFlags: spec.DefectFlags,
		Notes:       spec.Notes,
		Photos:      spec.Photos,
		CheckedAt:   now,
	}

	photos := check.Photos
	if photos == nil {
		photos = []string{}
	}
	if _, err := tx.Exec(
		ctx,
		`
		insert into "quality_check" (
			"check_id", "record_id", "inspector_id", "result", "score",
			"defect_stitching", "defect_fabric", "defect_color", "defect_measurement",
			"notes", "photos", "checked_at"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
		check.Id, check.RecordId, check.InspectorId,
		check.Result.String(), check.Score,
		check.DefectFlags.Stitching, check.DefectFlags.Fabric,
		check.DefectFlags.Color, check.DefectFlags.Measurement,
		check.Notes, photos, check.CheckedAt,
	); err != nil {
		return domain.QualityCheck{}, domain.ProductionRecord{}, wrapPgError(err)
	}

	// Recording a check does not mutate the record itself; gating is
	// evaluated at CompleteStage time against the latest check.
	if err := tx.Commit(ctx); err != nil {
		return domain.QualityCheck{}, domain.ProductionRecord{}, wrapPgError(err)
	}

	return check, record, nil
}

// latestQualityCheck picks the newest check of the record, or nil.
func latestQualityCheck(ctx context.Context, tx kpool.Tx, recordId string) (*domain.QualityCheck, error) {
	check, err := scanQualityCheck(tx.QueryRow(
		ctx,
		`
		select
			"check_id", "record_id", "inspector_id", "result", "score",
			"defect_stitching", "defect_fabric", "defect_color", "defect_measurement",
			"notes", "photos", "checked_at"
		from "quality_check"
		where "record_id" = $1
		order by "checked_at" desc, "check_id" desc
		limit 1
		`,
		recordId,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapPgError(err)
	}
	return &check, nil
}
