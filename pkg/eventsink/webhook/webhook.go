// Package webhook posts stage events to configured URLs as JSON.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/weftline/weftline/pkg/domain"
)

var ErrWebhookFailed = errors.New("webhook failed")

type Sink struct {
	// URLs receive a POST per event. Every URL is attempted even when
	// some fail.
	URLs []*url.URL

	// Client for requests. http.DefaultClient when nil.
	Client *http.Client
}

func New(urls []*url.URL) *Sink {
	return &Sink{URLs: urls}
}

var _ domain.EventSink = &Sink{}

func (s *Sink) Publish(ctx context.Context, event domain.StageEvent) error {
	if len(s.URLs) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	var errs []error
	for _, u := range s.URLs {
		if err := s.send(ctx, client, u.String(), payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) send(ctx context.Context, client *http.Client, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(payload),
	)
	if err != nil {
		return errors.Join(err, ErrWebhookFailed)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Join(err, ErrWebhookFailed)
	}
	defer resp.Body.Close()

	if 200 <= resp.StatusCode && resp.StatusCode < 300 {
		return nil
	}

	return fmt.Errorf("%w (%s %d)", ErrWebhookFailed, url, resp.StatusCode)
}
