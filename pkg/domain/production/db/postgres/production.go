package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	kpool "github.com/weftline/weftline/pkg/conn/db/postgres/pool"
	"github.com/weftline/weftline/pkg/domain"
	kpgerr "github.com/weftline/weftline/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
	xe "github.com/weftline/weftline/pkg/errors"
)

// a struct for DB operations related to production records
type pgProduction struct { // implements kdb.Interface
	pool kpool.Pool

	// now is the transaction timestamp source. Injectable for tests.
	now func() time.Time

	// newId mints entity ids. Injectable for tests.
	newId func() string
}

type Option func(*pgProduction) *pgProduction

func WithClock(now func() time.Time) Option {
	return func(p *pgProduction) *pgProduction {
		p.now = now
		return p
	}
}

func WithIdGenerator(newId func() string) Option {
	return func(p *pgProduction) *pgProduction {
		p.newId = newId
		return p
	}
}

func New(pool kpool.Pool, options ...Option) *pgProduction {
	p := &pgProduction{
		pool:  pool,
		now:   func() time.Time { return time.Now().UTC() },
		newId: uuid.NewString,
	}
	for _, o := range options {
		p = o(p)
	}
	return p
}

var _ kdb.Interface = &pgProduction{}

func (p *pgProduction) NewRecord(ctx context.Context, spec kdb.NewProduction) (string, error) {
	if (spec.OrderId == "") == (spec.SampleId == "") {
		return "", xe.New("production record should track exactly one of order or sample")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", wrapPgError(err)
	}
	defer tx.Rollback(ctx)

	recordId := p.newId()
	if _, err := tx.Exec(
		ctx,
		`
		insert into "production" (
			"record_id", "order_id", "sample_id",
			"current_stage", "status", "progress",
			"estimated_start", "estimated_end", "notes",
			"version", "updated_at"
		)
		values ($1, $2, $3, $4, $5, 0, $6, $7, $8, 1, $9)
		`,
		recordId,
		nullable(spec.OrderId), nullable(spec.SampleId),
		domain.Stages()[0].String(), domain.NotStarted.String(),
		spec.EstimatedStart, spec.EstimatedEnd, spec.Notes,
		p.now(),
	); err != nil {
		return "", wrapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", wrapPgError(err)
	}

	return recordId, nil
}

func (p *pgProduction) Get(ctx context.Context, recordId []string) (map[string]domain.ProductionRecord, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"record_id", "order_id", "sample_id",
			"current_stage", "status", "progress",
			"estimated_start", "estimated_end",
			"actual_start", "actual_end",
			"notes", "version", "updated_at"
		from "production"
		where "record_id" = any($1)
		`,
		recordId,
	)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	records := map[string]domain.ProductionRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, wrapPgError(err)
		}
		records[r.Id] = r
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}

	return records, nil
}

func (p *pgProduction) Find(ctx context.Context, query kdb.FindQuery) ([]string, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer conn.Release()

	sql := `
	select "record_id" from "production"
	where
		($1::varchar[] is null or "order_id" = any($1))
		and ($2::varchar[] is null or "sample_id" = any($2))
		and ($3::varchar[] is null or "status" = any($3))
		and ($4::varchar[] is null or "current_stage" = any($4))
		and ($5::timestamptz is null or $5 <= "updated_at")
		and ($6::timestamptz is null or "updated_at" < $6)
	order by "updated_at", "record_id"
	`

	rows, err := conn.Query(
		ctx, sql,
		emptyToNil(query.OrderId),
		emptyToNil(query.SampleId),
		emptyToNil(statusStrings(query.Status)),
		emptyToNil(stageStrings(query.Stage)),
		query.UpdatedSince, query.UpdatedUntil,
	)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	recordIds := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapPgError(err)
		}
		recordIds = append(recordIds, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}

	return recordIds, nil
}

func (p *pgProduction) GetStageUpdates(ctx context.Context, recordId string) ([]domain.StageUpdate, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer conn.Release()

	return getStageUpdates(ctx, conn, recordId)
}

func getStageUpdates(ctx context.Context, q kpool.Queryer, recordId string) ([]domain.StageUpdate, error) {
	rows, err := q.Query(
		ctx,
		`
		select
			"update_id", "record_id", "stage", "status", "is_revision",
			"estimated_days", "extra_days", "delay_reason",
			"notes", "photos", "operator_id",
			"actual_start", "actual_end", "created_at"
		from "stage_update"
		where "record_id" = $1
		order by "created_at", "update_id"
		`,
		recordId,
	)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	updates := []domain.StageUpdate{}
	for rows.Next() {
		u, err := scanStageUpdate(rows)
		if err != nil {
			return nil, wrapPgError(err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}

	return updates, nil
}

func (p *pgProduction) GetQualityChecks(ctx context.Context, recordId string) ([]domain.QualityCheck, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select
			"check_id", "record_id", "inspector_id", "result", "score",
			"defect_stitching", "defect_fabric", "defect_color", "defect_measurement",
			"notes", "photos", "checked_at"
		from "quality_check"
		where "record_id" = $1
		order by "checked_at", "check_id"
		`,
		recordId,
	)
	if err != nil {
		return nil, wrapPgError(err)
	}
	defer rows.Close()

	checks := []domain.QualityCheck{}
	for rows.Next() {
		c, err := scanQualityCheck(rows)
		if err != nil {
			return nil, wrapPgError(err)
		}
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPgError(err)
	}

	return checks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (domain.ProductionRecord, error) {
	var (
		r                 domain.ProductionRecord
		orderId, sampleId *string
		stage, status     string
	)
	if err := row.Scan(
		&r.Id, &orderId, &sampleId,
		&stage, &status, &r.Progress,
		&r.EstimatedStart, &r.EstimatedEnd,
		&r.ActualStart, &r.ActualEnd,
		&r.Notes, &r.Version, &r.UpdatedAt,
	); err != nil {
		return domain.ProductionRecord{}, err
	}

	if orderId != nil {
		r.OrderId = *orderId
	}
	if sampleId != nil {
		r.SampleId = *sampleId
	}

	var err error
	if r.CurrentStage, err = domain.AsStage(stage); err != nil {
		return domain.ProductionRecord{}, err
	}
	if r.Status, err = domain.AsProductionStatus(status); err != nil {
		return domain.ProductionRecord{}, err
	}

	return r, nil
}

func scanStageUpdate(row rowScanner) (domain.StageUpdate, error) {
	var (
		u             domain.StageUpdate
		stage, status string
		photos        pgtype.TextArray
	)
	if err := row.Scan(
		&u.Id, &u.RecordId, &stage, &status, &u.IsRevision,
		&u.EstimatedDays, &u.ExtraDays, &u.DelayReason,
		&u.Notes, &photos, &u.OperatorId,
		&u.ActualStart, &u.ActualEnd, &u.CreatedAt,
	); err != nil {
		return domain.StageUpdate{}, err
	}

	if err := photos.AssignTo(&u.Photos); err != nil {
		return domain.StageUpdate{}, err
	}

	var err error
	if u.Stage, err = domain.AsStage(stage); err != nil {
		return domain.StageUpdate{}, err
	}
	if u.Status, err = domain.AsUpdateStatus(status); err != nil {
		return domain.StageUpdate{}, err
	}

	return u, nil
}

func scanQualityCheck(row rowScanner) (domain.QualityCheck, error) {
	var (
		c      domain.QualityCheck
		result string
		photos pgtype.TextArray
	)
	if err := row.Scan(
		&c.Id, &c.RecordId, &c.InspectorId, &result, &c.Score,
		&c.DefectFlags.Stitching, &c.DefectFlags.Fabric,
		&c.DefectFlags.Color, &c.DefectFlags.Measurement,
		&c.Notes, &photos, &c.CheckedAt,
	); err != nil {
		return domain.QualityCheck{}, err
	}

	if err := photos.AssignTo(&c.Photos); err != nil {
		return domain.QualityCheck{}, err
	}

	var err error
	if c.Result, err = domain.AsQCResult(result); err != nil {
		return domain.QualityCheck{}, err
	}

	return c, nil
}

func missingRecord(recordId string) error {
	return kpgerr.Missing{
		Table:    "production",
		Identity: fmt.Sprintf("record_id = %s", recordId),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func emptyToNil(sl []string) []string {
	if len(sl) == 0 {
		return nil
	}
	return sl
}

func statusStrings(statuses []domain.ProductionStatus) []string {
	ret := make([]string, len(statuses))
	for i, s := range statuses {
		ret[i] = s.String()
	}
	return ret
}

func stageStrings(stages []domain.Stage) []string {
	ret := make([]string, len(stages))
	for i, s := range stages {
		ret[i] = s.String()
	}
	return ret
}
