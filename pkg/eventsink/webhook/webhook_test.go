package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	testctx "github.com/weftline/weftline/internal/testutils/context"
	"github.com/weftline/weftline/pkg/domain"
	"github.com/weftline/weftline/pkg/eventsink/webhook"
	"github.com/weftline/weftline/pkg/utils/try"
)

func TestSink_Publish(t *testing.T) {
	event := domain.StageEvent{
		RecordId:   "record-1",
		Kind:       domain.EventStageCompleted,
		Stage:      domain.StageQC,
		Status:     domain.InProgress,
		Progress:   75,
		OperatorId: "operator-1",
		OccurredAt: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("it POSTs the event to every URL as JSON", func(t *testing.T) {
		received := []domain.StageEvent{}
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if ctyp := r.Header.Get("Content-Type"); ctyp != "application/json" {
				t.Errorf("unexpected content type: %s", ctyp)
			}

			payload := try.To(io.ReadAll(r.Body)).OrFatal(t)
			var ev domain.StageEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				t.Errorf("payload is not json: %s", string(payload))
			}
			received = append(received, ev)
			w.WriteHeader(http.StatusNoContent)
		})

		svr1 := httptest.NewServer(handler)
		defer svr1.Close()
		svr2 := httptest.NewServer(handler)
		defer svr2.Close()

		testee := webhook.New([]*url.URL{
			try.To(url.Parse(svr1.URL)).OrFatal(t),
			try.To(url.Parse(svr2.URL)).OrFatal(t),
		})

		ctx, cancel := testctx.WithTest(context.Background(), t)
		defer cancel()
		if err := testee.Publish(ctx, event); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		if len(received) != 2 {
			t.Fatalf("unexpected deliveries: %d", len(received))
		}
		for _, ev := range received {
			if ev.RecordId != event.RecordId || ev.Kind != event.Kind {
				t.Errorf("unexpected payload: %+v", ev)
			}
		}
	})

	t.Run("it keeps delivering when one URL fails, and reports the failure", func(t *testing.T) {
		delivered := 0
		okSvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			delivered += 1
			w.WriteHeader(http.StatusOK)
		}))
		defer okSvr.Close()
		ngSvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ngSvr.Close()

		testee := webhook.New([]*url.URL{
			try.To(url.Parse(ngSvr.URL)).OrFatal(t),
			try.To(url.Parse(okSvr.URL)).OrFatal(t),
		})

		err := testee.Publish(context.Background(), event)
		if !errors.Is(err, webhook.ErrWebhookFailed) {
			t.Errorf("unexpected error: %+v", err)
		}
		if delivered != 1 {
			t.Errorf("the healthy URL should still receive the event: %d", delivered)
		}
	})

	t.Run("no URLs means no-op", func(t *testing.T) {
		testee := webhook.New(nil)
		if err := testee.Publish(context.Background(), event); err != nil {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
