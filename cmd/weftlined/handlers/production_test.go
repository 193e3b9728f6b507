package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/weftline/weftline-api-types/misc/rfctime"
	apiprod "github.com/weftline/weftline-api-types/production"
	"github.com/weftline/weftline/cmd/weftlined/handlers"
	httptestutil "github.com/weftline/weftline/internal/testutils/http"
	"github.com/weftline/weftline/pkg/domain"
	kpgerr "github.com/weftline/weftline/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/weftline/weftline/pkg/domain/production/db"
	mockdb "github.com/weftline/weftline/pkg/domain/production/db/mock"
	"github.com/weftline/weftline/pkg/domain/production/engine"
	"github.com/weftline/weftline/pkg/utils/try"
)

func newEngine(mdb *mockdb.ProductionInterface) *engine.Engine {
	return engine.New(mdb, nil, zerolog.Nop())
}

func asOperator(op string) httptestutil.RequestOption {
	return httptestutil.WithHeader(handlers.OperatorHeader, op)
}

func TestFindProductionHandler(t *testing.T) {
	t.Run("it passes the query and responds summaries", func(t *testing.T) {
		updatedAt := try.To(rfctime.ParseRFC3339DateTime(
			"2025-04-01T12:00:00+00:00",
		)).OrFatal(t).Time()

		records := map[string]domain.ProductionRecord{
			"record-1": {
				Id: "record-1", OrderId: "order-1",
				CurrentStage: domain.StageSewing, Status: domain.InProgress,
				Progress: 37, Version: 4, UpdatedAt: updatedAt,
			},
			"record-2": {
				Id: "record-2", SampleId: "sample-9",
				CurrentStage: domain.StageQC, Status: domain.InDelay,
				Progress: 62, Version: 8, UpdatedAt: updatedAt.Add(time.Hour),
			},
		}

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.Find = func(_ context.Context, query kdb.FindQuery) ([]string, error) {
			return []string{"record-1", "record-2"}, nil
		}
		mdb.Impl.Get = func(_ context.Context, ids []string) (map[string]domain.ProductionRecord, error) {
			return records, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(
			e, "/api/productions?order=order-1&status=IN_PROGRESS,DELAYED&stage=SEWING,QC&since=2025-04-01T00%3A00%3A00%2B00%3A00&duration=48h",
		)

		testee := handlers.FindProductionHandler(mdb)
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		if respRec.Code != http.StatusOK {
			t.Errorf("unexpected status code: %d", respRec.Code)
		}

		if len(mdb.Calls.Find) != 1 {
			t.Fatalf("unexpected calls: %+v", mdb.Calls.Find)
		}
		query := mdb.Calls.Find[0]
		if len(query.OrderId) != 1 || query.OrderId[0] != "order-1" {
			t.Errorf("unexpected query.OrderId: %+v", query.OrderId)
		}
		if len(query.Status) != 2 ||
			query.Status[0] != domain.InProgress || query.Status[1] != domain.InDelay {
			t.Errorf("unexpected query.Status: %+v", query.Status)
		}
		if len(query.Stage) != 2 ||
			query.Stage[0] != domain.StageSewing || query.Stage[1] != domain.StageQC {
			t.Errorf("unexpected query.Stage: %+v", query.Stage)
		}
		if query.UpdatedSince == nil || query.UpdatedUntil == nil {
			t.Fatalf("unexpected query time range: %+v", query)
		}
		if !query.UpdatedUntil.Equal(query.UpdatedSince.Add(48 * time.Hour)) {
			t.Errorf(
				"unexpected query time range: %s - %s",
				query.UpdatedSince, query.UpdatedUntil,
			)
		}

		var resp []apiprod.Summary
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if len(resp) != 2 || resp[0].RecordId != "record-1" || resp[1].RecordId != "record-2" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("it responds Bad Request for an unknown status", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/productions?status=PAUSED")

		testee := handlers.FindProductionHandler(mdb)
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it responds Bad Request for duration without since", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/productions?duration=2h")

		testee := handlers.FindProductionHandler(mdb)
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})
}

func TestGetProductionHandler(t *testing.T) {
	t.Run("it responds the detail of the record", func(t *testing.T) {
		updatedAt := try.To(rfctime.ParseRFC3339DateTime(
			"2025-04-02T10:00:00+00:00",
		)).OrFatal(t).Time()

		record := domain.ProductionRecord{
			Id: "record-1", OrderId: "order-1",
			CurrentStage: domain.StageQC, Status: domain.InProgress,
			Progress: 62, Notes: "rush order", Version: 6, UpdatedAt: updatedAt,
		}
		updates := []domain.StageUpdate{
			{
				Id: "update-1", RecordId: "record-1",
				Stage: domain.StageQC, Status: domain.UpdateStarted,
				OperatorId: "operator-1", CreatedAt: updatedAt,
			},
		}
		checks := []domain.QualityCheck{
			{
				Id: "check-1", RecordId: "record-1", InspectorId: "inspector-1",
				Result: domain.QCConditional, CheckedAt: updatedAt,
			},
		}

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.Get = func(_ context.Context, ids []string) (map[string]domain.ProductionRecord, error) {
			return map[string]domain.ProductionRecord{"record-1": record}, nil
		}
		mdb.Impl.GetStageUpdates = func(_ context.Context, recordId string) ([]domain.StageUpdate, error) {
			return updates, nil
		}
		mdb.Impl.GetQualityChecks = func(_ context.Context, recordId string) ([]domain.QualityCheck, error) {
			return checks, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Get(e, "/api/productions/record-1/")
		c.SetPath("/productions/:recordId/")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.GetProductionHandler(mdb, "recordId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var resp apiprod.Detail
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.RecordId != "record-1" || resp.CurrentStage != "QC" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if len(resp.Updates) != 1 || resp.Updates[0].UpdateId != "update-1" {
			t.Errorf("unexpected updates: %+v", resp.Updates)
		}
		if len(resp.QualityChecks) != 1 || resp.QualityChecks[0].CheckId != "check-1" {
			t.Errorf("unexpected quality checks: %+v", resp.QualityChecks)
		}
	})

	t.Run("it responds Not Found for an unknown record", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()
		mdb.Impl.Get = func(_ context.Context, ids []string) (map[string]domain.ProductionRecord, error) {
			return map[string]domain.ProductionRecord{}, nil
		}

		e := echo.New()
		c, _ := httptestutil.Get(e, "/api/productions/record-none/")
		c.SetPath("/productions/:recordId/")
		c.SetParamNames("recordId")
		c.SetParamValues("record-none")

		testee := handlers.GetProductionHandler(mdb, "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusNotFound {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})
}

func TestCreateProductionHandler(t *testing.T) {
	t.Run("it registers a record for an order", func(t *testing.T) {
		updatedAt := try.To(rfctime.ParseRFC3339DateTime(
			"2025-04-03T09:00:00+00:00",
		)).OrFatal(t).Time()

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.NewRecord = func(_ context.Context, spec kdb.NewProduction) (string, error) {
			if spec.OrderId != "order-1" || spec.SampleId != "" {
				t.Errorf("unexpected spec: %+v", spec)
			}
			return "record-1", nil
		}
		mdb.Impl.Get = func(_ context.Context, ids []string) (map[string]domain.ProductionRecord, error) {
			return map[string]domain.ProductionRecord{
				"record-1": {
					Id: "record-1", OrderId: "order-1",
					CurrentStage: domain.StageDesign, Status: domain.NotStarted,
					Version: 1, UpdatedAt: updatedAt,
				},
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/productions",
			strings.NewReader(`{"orderId": "order-1", "notes": "rush order"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)

		testee := handlers.CreateProductionHandler(newEngine(mdb))
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var resp apiprod.Summary
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.RecordId != "record-1" || resp.Status != "NOT_STARTED" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("it responds Bad Request when both order and sample are set", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions",
			strings.NewReader(`{"orderId": "order-1", "sampleId": "sample-1"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)

		testee := handlers.CreateProductionHandler(newEngine(mdb))
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it responds Bad Request without the operator header", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions",
			strings.NewReader(`{"orderId": "order-1"}`),
			httptestutil.ContentType("application/json"),
		)

		testee := handlers.CreateProductionHandler(newEngine(mdb))
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})
}

func TestStartStageHandler(t *testing.T) {
	t.Run("it starts a stage and responds the detail", func(t *testing.T) {
		timestamp := time.Date(2025, 4, 4, 9, 0, 0, 0, time.UTC)

		entry := domain.StageUpdate{
			Id: "update-9", RecordId: "record-1",
			Stage: domain.StageSewing, Status: domain.UpdateStarted,
			OperatorId: "operator-1", CreatedAt: timestamp,
		}
		record := domain.ProductionRecord{
			Id: "record-1", OrderId: "order-1",
			CurrentStage: domain.StageSewing, Status: domain.InProgress,
			Progress: 37, Version: 5, UpdatedAt: timestamp,
		}

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.StartStage = func(_ context.Context, spec kdb.StartStage) (domain.StageUpdate, domain.ProductionRecord, error) {
			return entry, record, nil
		}
		mdb.Impl.GetStageUpdates = func(_ context.Context, recordId string) ([]domain.StageUpdate, error) {
			return []domain.StageUpdate{entry}, nil
		}
		mdb.Impl.GetQualityChecks = func(_ context.Context, recordId string) ([]domain.QualityCheck, error) {
			return []domain.QualityCheck{}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/productions/record-1/stages/start",
			strings.NewReader(`{"stage": "SEWING", "estimatedDays": 5}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/stages/start")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.StartStageHandler(newEngine(mdb), "recordId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		if len(mdb.Calls.StartStage) != 1 {
			t.Fatalf("unexpected calls: %+v", mdb.Calls.StartStage)
		}
		spec := mdb.Calls.StartStage[0]
		if spec.RecordId != "record-1" ||
			spec.Stage != domain.StageSewing ||
			spec.OperatorId != "operator-1" ||
			spec.EstimatedDays != 5 {
			t.Errorf("unexpected spec: %+v", spec)
		}

		var resp apiprod.Detail
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.CurrentStage != "SEWING" || resp.Progress != 37 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("it responds Bad Request when hasDelay lacks delayReason", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-1/stages/start",
			strings.NewReader(`{"stage": "SEWING", "hasDelay": true}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/stages/start")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.StartStageHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it responds Bad Request for negative day counts", func(t *testing.T) {
		for name, body := range map[string]string{
			"negative extraDays":     `{"stage": "SEWING", "hasDelay": true, "delayReason": "late fabric", "extraDays": -3}`,
			"negative estimatedDays": `{"stage": "SEWING", "estimatedDays": -1}`,
		} {
			t.Run(name, func(t *testing.T) {
				mdb := mockdb.NewProductionInterface()

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/productions/record-1/stages/start",
					strings.NewReader(body),
					httptestutil.ContentType("application/json"),
					asOperator("operator-1"),
				)
				c.SetPath("/productions/:recordId/stages/start")
				c.SetParamNames("recordId")
				c.SetParamValues("record-1")

				testee := handlers.StartStageHandler(newEngine(mdb), "recordId")
				err := testee(c)
				if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
					t.Fatalf("error is not echo.HTTPError: %+v", err)
				} else if httperr.Code != http.StatusBadRequest {
					t.Errorf("unexpected status code: %d", httperr.Code)
				}
				if len(mdb.Calls.StartStage) != 0 {
					t.Errorf("the store should not be reached: %+v", mdb.Calls.StartStage)
				}
			})
		}
	})

	t.Run("it maps domain errors to status codes", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			err        error
			statusCode int
		}{
			"Bad Request on unknown stage in the store": {
				err:        domain.ErrInvalidStage,
				statusCode: http.StatusBadRequest,
			},
			"Conflict on invalid transition": {
				err:        domain.NewErrInvalidTransition(domain.StageCutting, domain.StageFinishing),
				statusCode: http.StatusConflict,
			},
			"Conflict on concurrent modification": {
				err:        domain.ErrConcurrentModification,
				statusCode: http.StatusConflict,
			},
			"Not Found on missing record": {
				err:        kpgerr.Missing{Table: "production", Identity: "record_id = record-1"},
				statusCode: http.StatusNotFound,
			},
			"Service Unavailable on store outage": {
				err:        domain.ErrStoreUnavailable,
				statusCode: http.StatusServiceUnavailable,
			},
			"Internal Server Error on unexpected error": {
				err:        errors.New("fake error"),
				statusCode: http.StatusInternalServerError,
			},
		} {
			t.Run(name, func(t *testing.T) {
				mdb := mockdb.NewProductionInterface()
				mdb.Impl.StartStage = func(_ context.Context, spec kdb.StartStage) (domain.StageUpdate, domain.ProductionRecord, error) {
					return domain.StageUpdate{}, domain.ProductionRecord{}, testcase.err
				}

				e := echo.New()
				c, _ := httptestutil.Post(
					e, "/api/productions/record-1/stages/start",
					strings.NewReader(`{"stage": "SEWING"}`),
					httptestutil.ContentType("application/json"),
					asOperator("operator-1"),
				)
				c.SetPath("/productions/:recordId/stages/start")
				c.SetParamNames("recordId")
				c.SetParamValues("record-1")

				testee := handlers.StartStageHandler(newEngine(mdb), "recordId")
				err := testee(c)
				if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
					t.Fatalf("error is not echo.HTTPError: %+v", err)
				} else if httperr.Code != testcase.statusCode {
					t.Errorf(
						"unexpected status code: %d (expected: %d)",
						httperr.Code, testcase.statusCode,
					)
				}
			})
		}
	})
}

func TestCompleteStageHandler(t *testing.T) {
	t.Run("it responds Conflict while the quality gate blocks", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()
		mdb.Impl.CompleteStage = func(_ context.Context, spec kdb.CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error) {
			return domain.StageUpdate{}, domain.ProductionRecord{}, domain.ErrQualityGateBlocked
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-1/stages/complete",
			strings.NewReader(`{"stage": "QC"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/stages/complete")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.CompleteStageHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusConflict {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it completes the current stage", func(t *testing.T) {
		timestamp := time.Date(2025, 4, 5, 18, 0, 0, 0, time.UTC)

		entry := domain.StageUpdate{
			Id: "update-10", RecordId: "record-1",
			Stage: domain.StageQC, Status: domain.UpdateCompleted,
			OperatorId: "operator-1", CreatedAt: timestamp,
		}
		record := domain.ProductionRecord{
			Id: "record-1", OrderId: "order-1",
			CurrentStage: domain.StageQC, Status: domain.InProgress,
			Progress: 75, Version: 9, UpdatedAt: timestamp,
		}

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.CompleteStage = func(_ context.Context, spec kdb.CompleteStage) (domain.StageUpdate, domain.ProductionRecord, error) {
			if spec.Stage != domain.StageQC {
				t.Errorf("unexpected spec: %+v", spec)
			}
			return entry, record, nil
		}
		mdb.Impl.GetStageUpdates = func(_ context.Context, recordId string) ([]domain.StageUpdate, error) {
			return []domain.StageUpdate{entry}, nil
		}
		mdb.Impl.GetQualityChecks = func(_ context.Context, recordId string) ([]domain.QualityCheck, error) {
			return []domain.QualityCheck{}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/productions/record-1/stages/complete",
			strings.NewReader(`{"stage": "QC"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/stages/complete")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.CompleteStageHandler(newEngine(mdb), "recordId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var resp apiprod.Detail
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.Progress != 75 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})
}

func TestRevertStageHandler(t *testing.T) {
	t.Run("it responds Bad Request for a non-earlier target", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()
		mdb.Impl.RevertStage = func(_ context.Context, spec kdb.RevertStage) (domain.StageUpdate, domain.ProductionRecord, error) {
			return domain.StageUpdate{}, domain.ProductionRecord{}, domain.NewErrInvalidRevertTarget(
				domain.StageSewing, domain.StageQC,
			)
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-1/stages/revert",
			strings.NewReader(`{"targetStage": "QC"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/stages/revert")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.RevertStageHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it reverts and responds the detail", func(t *testing.T) {
		timestamp := time.Date(2025, 4, 6, 10, 0, 0, 0, time.UTC)

		entry := domain.StageUpdate{
			Id: "update-11", RecordId: "record-1",
			Stage: domain.StageSewing, Status: domain.UpdateStarted,
			IsRevision: true, Notes: "stitching rework",
			OperatorId: "operator-1", CreatedAt: timestamp,
		}
		record := domain.ProductionRecord{
			Id: "record-1", OrderId: "order-1",
			CurrentStage: domain.StageSewing, Status: domain.InProgress,
			Progress: 37, Version: 11, UpdatedAt: timestamp,
		}

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.RevertStage = func(_ context.Context, spec kdb.RevertStage) (domain.StageUpdate, domain.ProductionRecord, error) {
			if spec.TargetStage != domain.StageSewing || spec.Reason != "stitching rework" {
				t.Errorf("unexpected spec: %+v", spec)
			}
			return entry, record, nil
		}
		mdb.Impl.GetStageUpdates = func(_ context.Context, recordId string) ([]domain.StageUpdate, error) {
			return []domain.StageUpdate{entry}, nil
		}
		mdb.Impl.GetQualityChecks = func(_ context.Context, recordId string) ([]domain.QualityCheck, error) {
			return []domain.QualityCheck{}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/productions/record-1/stages/revert",
			strings.NewReader(`{"targetStage": "SEWING", "reason": "stitching rework"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/stages/revert")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.RevertStageHandler(newEngine(mdb), "recordId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var resp apiprod.Detail
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.CurrentStage != "SEWING" {
			t.Errorf("unexpected response: %+v", resp)
		}
		if len(resp.Updates) != 1 || !resp.Updates[0].IsRevision {
			t.Errorf("unexpected updates: %+v", resp.Updates)
		}
	})
}

func TestQualityCheckHandler(t *testing.T) {
	t.Run("it records a check and responds it", func(t *testing.T) {
		timestamp := time.Date(2025, 4, 7, 14, 0, 0, 0, time.UTC)
		score := 82

		check := domain.QualityCheck{
			Id: "check-9", RecordId: "record-1", InspectorId: "inspector-1",
			Result: domain.QCConditional, Score: &score,
			DefectFlags: domain.DefectFlags{Stitching: true},
			CheckedAt:   timestamp,
		}

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.RecordQualityCheck = func(_ context.Context, spec kdb.NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error) {
			if spec.Result != domain.QCConditional ||
				spec.Score == nil || *spec.Score != 82 ||
				!spec.DefectFlags.Stitching {
				t.Errorf("unexpected spec: %+v", spec)
			}
			return check, domain.ProductionRecord{Id: "record-1"}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/productions/record-1/quality-checks",
			strings.NewReader(`{"result": "CONDITIONAL", "score": 82, "defectFlags": {"stitching": true}}`),
			httptestutil.ContentType("application/json"),
			asOperator("inspector-1"),
		)
		c.SetPath("/productions/:recordId/quality-checks")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.QualityCheckHandler(newEngine(mdb), "recordId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var resp apiprod.QualityCheck
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.CheckId != "check-9" || resp.Result != "CONDITIONAL" || !resp.DefectFlags.Stitching {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("it responds Bad Request for an unknown result", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-1/quality-checks",
			strings.NewReader(`{"result": "MAYBE"}`),
			httptestutil.ContentType("application/json"),
			asOperator("inspector-1"),
		)
		c.SetPath("/productions/:recordId/quality-checks")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.QualityCheckHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it responds Bad Request for an out-of-range score", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-1/quality-checks",
			strings.NewReader(`{"result": "PASS", "score": 101}`),
			httptestutil.ContentType("application/json"),
			asOperator("inspector-1"),
		)
		c.SetPath("/productions/:recordId/quality-checks")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.QualityCheckHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusBadRequest {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})

	t.Run("it responds Conflict when the record is not at a QC stage", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()
		mdb.Impl.RecordQualityCheck = func(_ context.Context, spec kdb.NewQualityCheck) (domain.QualityCheck, domain.ProductionRecord, error) {
			return domain.QualityCheck{}, domain.ProductionRecord{}, domain.NewErrWrongStageForQC(domain.StageCutting)
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-1/quality-checks",
			strings.NewReader(`{"result": "PASS"}`),
			httptestutil.ContentType("application/json"),
			asOperator("inspector-1"),
		)
		c.SetPath("/productions/:recordId/quality-checks")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.QualityCheckHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusConflict {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})
}

func TestCancelProductionHandler(t *testing.T) {
	t.Run("it cancels the record", func(t *testing.T) {
		timestamp := time.Date(2025, 4, 8, 16, 0, 0, 0, time.UTC)

		mdb := mockdb.NewProductionInterface()
		mdb.Impl.Cancel = func(_ context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error) {
			if recordId != "record-1" || operatorId != "operator-1" || reason != "order withdrawn" {
				t.Errorf("unexpected call: (%s, %s, %s)", recordId, operatorId, reason)
			}
			return domain.ProductionRecord{
				Id: "record-1", OrderId: "order-1",
				CurrentStage: domain.StageCutting, Status: domain.Cancelled,
				Progress: 25, Version: 6, UpdatedAt: timestamp,
			}, nil
		}

		e := echo.New()
		c, respRec := httptestutil.Post(
			e, "/api/productions/record-1/cancel",
			strings.NewReader(`{"reason": "order withdrawn"}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/cancel")
		c.SetParamNames("recordId")
		c.SetParamValues("record-1")

		testee := handlers.CancelProductionHandler(newEngine(mdb), "recordId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var resp apiprod.Summary
		if err := json.Unmarshal(respRec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not json: %s", respRec.Body.String())
		}
		if resp.Status != "CANCELLED" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("it responds Not Found for an unknown record", func(t *testing.T) {
		mdb := mockdb.NewProductionInterface()
		mdb.Impl.Cancel = func(_ context.Context, recordId string, operatorId string, reason string) (domain.ProductionRecord, error) {
			return domain.ProductionRecord{}, kpgerr.Missing{
				Table: "production", Identity: "record_id = " + recordId,
			}
		}

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/productions/record-none/cancel",
			strings.NewReader(`{}`),
			httptestutil.ContentType("application/json"),
			asOperator("operator-1"),
		)
		c.SetPath("/productions/:recordId/cancel")
		c.SetParamNames("recordId")
		c.SetParamValues("record-none")

		testee := handlers.CancelProductionHandler(newEngine(mdb), "recordId")
		err := testee(c)
		if httperr := new(echo.HTTPError); !errors.As(err, &httperr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if httperr.Code != http.StatusNotFound {
			t.Errorf("unexpected status code: %d", httperr.Code)
		}
	})
}
