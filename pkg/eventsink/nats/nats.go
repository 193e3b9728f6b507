// Package nats publishes stage events to a NATS subject tree for
// consumption by the notification service.
//
// Subject convention: <prefix>.<event kind, lowercased>,
// e.g. weftline.production.stage_completed .
//
// Delivery is best-effort. The caller logs publish errors and never
// propagates them; a notification outage never interrupts tracking.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	natsio "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/weftline/weftline/pkg/domain"
)

const DefaultSubjectPrefix = "weftline.production"

// Publisher is the subset of *nats.Conn this sink uses.
type Publisher interface {
	Publish(subj string, data []byte) error
}

type Sink struct {
	conn   Publisher
	prefix string
	log    zerolog.Logger
}

type Option func(*Sink) *Sink

func WithSubjectPrefix(prefix string) Option {
	return func(s *Sink) *Sink {
		s.prefix = prefix
		return s
	}
}

func New(conn Publisher, logger zerolog.Logger, options ...Option) *Sink {
	s := &Sink{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		log:    logger,
	}
	for _, o := range options {
		s = o(s)
	}
	return s
}

var _ domain.EventSink = &Sink{}

// Connect dials the NATS server at url.
func Connect(url string) (*natsio.Conn, error) {
	return natsio.Connect(url, natsio.Name("weftlined"))
}

func (s *Sink) Publish(_ context.Context, event domain.StageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s.%s", s.prefix, strings.ToLower(event.Kind.String()))
	if err := s.conn.Publish(subject, data); err != nil {
		return err
	}

	s.log.Debug().
		Str("subject", subject).
		Str("record_id", event.RecordId).
		Msg("event published")
	return nil
}
