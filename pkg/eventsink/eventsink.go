package eventsink

import (
	"context"
	"errors"

	"github.com/weftline/weftline/pkg/domain"
)

// Nop is an EventSink discarding every event.
//
// Use it when no notification downstream is configured.
type Nop struct{}

var _ domain.EventSink = Nop{}

func (Nop) Publish(context.Context, domain.StageEvent) error {
	return nil
}

// Multi fans one event out to every sink.
//
// All sinks are attempted even when some fail; their errors are joined.
type Multi []domain.EventSink

var _ domain.EventSink = Multi{}

func (m Multi) Publish(ctx context.Context, event domain.StageEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
