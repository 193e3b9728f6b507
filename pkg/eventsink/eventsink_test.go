package eventsink_test

import (
	"context"
	"errors"
	"testing"

	"github.com/weftline/weftline/pkg/domain"
	"github.com/weftline/weftline/pkg/eventsink"
)

type spySink struct {
	events []domain.StageEvent
	err    error
}

func (s *spySink) Publish(_ context.Context, event domain.StageEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func TestMulti(t *testing.T) {
	event := domain.StageEvent{RecordId: "record-1", Kind: domain.EventStageStarted}

	t.Run("it fans out to every sink", func(t *testing.T) {
		a, b := &spySink{}, &spySink{}
		testee := eventsink.Multi{a, b}

		if err := testee.Publish(context.Background(), event); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		if len(a.events) != 1 || len(b.events) != 1 {
			t.Errorf("not all sinks received the event: (%d, %d)", len(a.events), len(b.events))
		}
	})

	t.Run("a failing sink does not stop the others", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		ng, ok := &spySink{err: expectedErr}, &spySink{}
		testee := eventsink.Multi{ng, ok}

		err := testee.Publish(context.Background(), event)
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %+v", err)
		}
		if len(ok.events) != 1 {
			t.Errorf("the healthy sink should receive the event: %d", len(ok.events))
		}
	})
}

func TestNop(t *testing.T) {
	t.Run("it always succeeds", func(t *testing.T) {
		testee := eventsink.Nop{}
		if err := testee.Publish(
			context.Background(),
			domain.StageEvent{RecordId: "record-1"},
		); err != nil {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
