package rfctime_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/weftline/weftline-api-types/misc/rfctime"
)

func TestParseRFC3339DateTime(t *testing.T) {
	t.Run("it parses offset notation", func(t *testing.T) {
		actual, err := rfctime.ParseRFC3339DateTime("2025-04-01T12:34:56.789+09:00")
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		expected := time.Date(
			2025, 4, 1, 12, 34, 56, 789000000,
			time.FixedZone("", 9*60*60),
		)
		if !actual.Time().Equal(expected) {
			t.Errorf("unexpected time: %s (expected: %s)", actual, expected)
		}
	})

	t.Run("it parses Z notation", func(t *testing.T) {
		actual, err := rfctime.ParseRFC3339DateTime("2025-04-01T12:34:56Z")
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		expected := time.Date(2025, 4, 1, 12, 34, 56, 0, time.UTC)
		if !actual.Time().Equal(expected) {
			t.Errorf("unexpected time: %s (expected: %s)", actual, expected)
		}
	})

	t.Run("it rejects non RFC3339 expressions", func(t *testing.T) {
		if _, err := rfctime.ParseRFC3339DateTime("01 Apr 2025 12:34"); err == nil {
			t.Error("no error is caused")
		}
	})
}

func TestRFC3339_json(t *testing.T) {
	t.Run("it marshals with explicit offset", func(t *testing.T) {
		timestamp := rfctime.New(time.Date(2025, 4, 1, 12, 34, 56, 0, time.UTC))

		b, err := json.Marshal(timestamp)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if string(b) != `"2025-04-01T12:34:56+00:00"` {
			t.Errorf("unexpected json: %s", string(b))
		}
	})

	t.Run("it unmarshals what it marshals", func(t *testing.T) {
		timestamp := rfctime.New(time.Date(2025, 4, 1, 12, 34, 56, 789000000, time.UTC))

		b, err := json.Marshal(timestamp)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		var actual rfctime.RFC3339
		if err := json.Unmarshal(b, &actual); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if !actual.Equal(timestamp) {
			t.Errorf("unexpected time: %s (expected: %s)", actual, timestamp)
		}
	})

	t.Run("null keeps the value untouched", func(t *testing.T) {
		actual := rfctime.New(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
		if err := json.Unmarshal([]byte("null"), &actual); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if !actual.Time().Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("the value has been touched: %s", actual)
		}
	})
}

func TestPointerized(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		if actual := rfctime.Pointerized(nil); actual != nil {
			t.Errorf("unexpected value: %v", actual)
		}
	})

	t.Run("non-nil is converted", func(t *testing.T) {
		timestamp := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
		actual := rfctime.Pointerized(&timestamp)
		if actual == nil || !actual.Time().Equal(timestamp) {
			t.Errorf("unexpected value: %v", actual)
		}
	})
}
