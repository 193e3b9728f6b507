package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/weftline/weftline-api-types/misc/rfctime"
	apiprod "github.com/weftline/weftline-api-types/production"
	apierr "github.com/weftline/weftline/pkg/api-types-binding/errors"
	bindprod "github.com/weftline/weftline/pkg/api-types-binding/production"
	"github.com/weftline/weftline/pkg/domain"
	kerr "github.com/weftline/weftline/pkg/domain/errors"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
	"github.com/weftline/weftline/pkg/domain/production/engine"
	kstrings "github.com/weftline/weftline/pkg/utils/strings"
)

// OperatorHeader carries the authenticated operator identity, set by the
// platform gateway in front of this service.
const OperatorHeader = "X-Weftline-Operator"

func operatorId(c echo.Context) (string, error) {
	op := strings.TrimSpace(c.Request().Header.Get(OperatorHeader))
	if op == "" {
		return "", apierr.BadRequest(
			`header "`+OperatorHeader+`" is required`, nil,
		)
	}
	return op, nil
}

// translate domain errors into HTTP error responses.
func asAPIError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, kerr.ErrMissing):
		return apierr.NotFound()
	case errors.Is(err, domain.ErrInvalidStage):
		return apierr.BadRequest("unknown stage", err)
	case errors.Is(err, domain.ErrInvalidRevertTarget):
		return apierr.BadRequest(
			"revert target should be a stage earlier than the current one", err,
		)
	case errors.Is(err, domain.ErrQualityGateBlocked):
		return apierr.Conflict(
			"quality gate is not satisfied",
			apierr.WithAdvice("record a passing quality check, then complete the stage"),
			apierr.WithError(err),
		)
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNoOpenStage),
		errors.Is(err, domain.ErrWrongStageForQC):
		return apierr.Conflict("prohibited operation", apierr.WithError(err))
	case errors.Is(err, domain.ErrConcurrentModification):
		return apierr.Conflict(
			"the record was updated by someone else",
			apierr.WithAdvice("fetch the record again and retry"),
			apierr.WithError(err),
		)
	case errors.Is(err, domain.ErrStoreUnavailable):
		return apierr.ServiceUnavailable("try again later", err)
	default:
		return apierr.InternalServerError(err)
	}
}

func timeOrNil(t *rfctime.RFC3339) *time.Time {
	if t == nil {
		return nil
	}
	_t := t.Time()
	return &_t
}

func CreateProductionHandler(eng *engine.Engine) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		op, err := operatorId(c)
		if err != nil {
			return err
		}

		var req apiprod.Creation
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("can not understand the request body", err)
		}
		if (req.OrderId == "") == (req.SampleId == "") {
			return apierr.BadRequest(
				`exactly one of "orderId" and "sampleId" should be set`, nil,
			)
		}

		ctx := c.Request().Context()
		record, err := eng.Create(ctx, kdb.NewProduction{
			OrderId:        req.OrderId,
			SampleId:       req.SampleId,
			EstimatedStart: timeOrNil(req.EstimatedStart),
			EstimatedEnd:   timeOrNil(req.EstimatedEnd),
			Notes:          req.Notes,
		}, op)
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeSummary(record))
	}
}

func FindProductionHandler(dbprod kdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := kdb.FindQuery{
			OrderId:  kstrings.SplitIfNotEmpty(c.QueryParam("order"), ","),
			SampleId: kstrings.SplitIfNotEmpty(c.QueryParam("sample"), ","),
		}

		for _, s := range kstrings.SplitIfNotEmpty(c.QueryParam("status"), ",") {
			status, err := domain.AsProductionStatus(s)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "NOT_STARTED", "IN_PROGRESS", "DELAYED", "COMPLETED" or "CANCELLED"`,
					err,
				)
			}
			query.Status = append(query.Status, status)
		}

		for _, s := range kstrings.SplitIfNotEmpty(c.QueryParam("stage"), ",") {
			stage, err := domain.AsStage(s)
			if err != nil {
				return apierr.BadRequest(`"stage" is unknown`, err)
			}
			query.Stage = append(query.Stage, stage)
		}

		if since := c.QueryParam("since"); since != "" {
			t, err := rfctime.ParseRFC3339DateTime(since)
			if err != nil {
				return apierr.BadRequest(
					`"since" should be a RFC3339 date-time format`, err,
				)
			}
			_t := t.Time()
			query.UpdatedSince = &_t
		}

		if duration := c.QueryParam("duration"); duration != "" {
			if query.UpdatedSince == nil {
				return apierr.BadRequest(`"duration" requires "since"`, nil)
			}
			d, err := time.ParseDuration(duration)
			if err != nil {
				return apierr.BadRequest(
					`"duration" should be a Go duration format`, err,
				)
			}
			_t := query.UpdatedSince.Add(d)
			query.UpdatedUntil = &_t
		}

		ctx := c.Request().Context()

		recordIds, err := dbprod.Find(ctx, query)
		if err != nil {
			return asAPIError(err)
		}

		records, err := dbprod.Get(ctx, recordIds)
		if err != nil {
			return asAPIError(err)
		}

		resp := make([]apiprod.Summary, 0, len(records))
		for _, id := range recordIds {
			if r, ok := records[id]; ok {
				resp = append(resp, bindprod.ComposeSummary(r))
			}
		}

		return c.JSON(http.StatusOK, resp)
	}
}

func GetProductionHandler(dbprod kdb.Interface, paramRecordId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		recordId := c.Param(paramRecordId)
		ctx := c.Request().Context()

		records, err := dbprod.Get(ctx, []string{recordId})
		if err != nil {
			return asAPIError(err)
		}
		record, ok := records[recordId]
		if !ok {
			return apierr.NotFound()
		}

		updates, err := dbprod.GetStageUpdates(ctx, recordId)
		if err != nil {
			return asAPIError(err)
		}
		checks, err := dbprod.GetQualityChecks(ctx, recordId)
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeDetail(record, updates, checks))
	}
}

func StartStageHandler(eng *engine.Engine, paramRecordId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		op, err := operatorId(c)
		if err != nil {
			return err
		}

		var req apiprod.StartStage
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("can not understand the request body", err)
		}
		stage, err := domain.AsStage(req.Stage)
		if err != nil {
			return apierr.BadRequest(`"stage" is unknown`, err)
		}
		if req.HasDelay && req.DelayReason == "" {
			return apierr.BadRequest(
				`"delayReason" is required when "hasDelay" is set`, nil,
			)
		}
		if req.EstimatedDays < 0 {
			return apierr.BadRequest(`"estimatedDays" should not be negative`, nil)
		}
		if req.ExtraDays < 0 {
			return apierr.BadRequest(`"extraDays" should not be negative`, nil)
		}

		ctx := c.Request().Context()
		_, record, err := eng.StartStage(ctx, kdb.StartStage{
			RecordId:      c.Param(paramRecordId),
			Stage:         stage,
			OperatorId:    op,
			Notes:         req.Notes,
			Photos:        req.Photos,
			EstimatedDays: req.EstimatedDays,
			HasDelay:      req.HasDelay,
			DelayReason:   req.DelayReason,
			ExtraDays:     req.ExtraDays,
		})
		if err != nil {
			return asAPIError(err)
		}

		updates, err := eng.StageUpdates(ctx, record.Id)
		if err != nil {
			return asAPIError(err)
		}
		checks, err := eng.QualityChecks(ctx, record.Id)
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeDetail(record, updates, checks))
	}
}

func CompleteStageHandler(eng *engine.Engine, paramRecordId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		op, err := operatorId(c)
		if err != nil {
			return err
		}

		var req apiprod.CompleteStage
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("can not understand the request body", err)
		}
		stage, err := domain.AsStage(req.Stage)
		if err != nil {
			return apierr.BadRequest(`"stage" is unknown`, err)
		}

		ctx := c.Request().Context()
		_, record, err := eng.CompleteStage(ctx, kdb.CompleteStage{
			RecordId:   c.Param(paramRecordId),
			Stage:      stage,
			OperatorId: op,
			Notes:      req.Notes,
			Photos:     req.Photos,
		})
		if err != nil {
			return asAPIError(err)
		}

		updates, err := eng.StageUpdates(ctx, record.Id)
		if err != nil {
			return asAPIError(err)
		}
		checks, err := eng.QualityChecks(ctx, record.Id)
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeDetail(record, updates, checks))
	}
}

func RevertStageHandler(eng *engine.Engine, paramRecordId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		op, err := operatorId(c)
		if err != nil {
			return err
		}

		var req apiprod.RevertStage
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("can not understand the request body", err)
		}
		target, err := domain.AsStage(req.TargetStage)
		if err != nil {
			return apierr.BadRequest(`"targetStage" is unknown`, err)
		}

		ctx := c.Request().Context()
		_, record, err := eng.RevertStage(ctx, kdb.RevertStage{
			RecordId:    c.Param(paramRecordId),
			TargetStage: target,
			OperatorId:  op,
			Reason:      req.Reason,
		})
		if err != nil {
			return asAPIError(err)
		}

		updates, err := eng.StageUpdates(ctx, record.Id)
		if err != nil {
			return asAPIError(err)
		}
		checks, err := eng.QualityChecks(ctx, record.Id)
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeDetail(record, updates, checks))
	}
}

func QualityCheckHandler(eng *engine.Engine, paramRecordId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		op, err := operatorId(c)
		if err != nil {
			return err
		}

		var req apiprod.QualityCheckRequest
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("can not understand the request body", err)
		}
		result, err := domain.AsQCResult(req.Result)
		if err != nil {
			return apierr.BadRequest(
				`"result" should be one of "PASS", "FAIL" or "CONDITIONAL"`, err,
			)
		}
		if req.Score != nil && (*req.Score < 1 || 100 < *req.Score) {
			return apierr.BadRequest(`"score" should be in 1..100`, nil)
		}

		ctx := c.Request().Context()
		check, _, err := eng.RecordQualityCheck(ctx, kdb.NewQualityCheck{
			RecordId:    c.Param(paramRecordId),
			InspectorId: op,
			Result:      result,
			Score:       req.Score,
			DefectFlags: domain.DefectFlags{
				Stitching:   req.DefectFlags.Stitching,
				Fabric:      req.DefectFlags.Fabric,
				Color:       req.DefectFlags.Color,
				Measurement: req.DefectFlags.Measurement,
			},
			Notes:  req.Notes,
			Photos: req.Photos,
		})
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeQualityCheck(check))
	}
}

func CancelProductionHandler(eng *engine.Engine, paramRecordId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		op, err := operatorId(c)
		if err != nil {
			return err
		}

		var req struct {
			Reason string `json:"reason,omitempty"`
		}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("can not understand the request body", err)
		}

		ctx := c.Request().Context()
		record, err := eng.Cancel(ctx, c.Param(paramRecordId), op, req.Reason)
		if err != nil {
			return asAPIError(err)
		}

		return c.JSON(http.StatusOK, bindprod.ComposeSummary(record))
	}
}
