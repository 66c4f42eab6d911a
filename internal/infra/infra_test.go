package infra

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/config"
)

// TestSetupLogger tests level filtering and the JSON format.
func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	log := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	log.Info("hidden")
	log.Warn("shown", "k", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line logged at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("missing JSON warn line: %q", out)
	}
}

// TestBackoffGrows tests that delays grow up to the cap.
func TestBackoffGrows(t *testing.T) {
	b := NewBackoff(10*time.Millisecond, 40*time.Millisecond, 2)

	var last time.Duration
	for i := 0; i < 6; i++ {
		d := b.Next()
		if d < 10*time.Millisecond || d > 48*time.Millisecond {
			t.Fatalf("delay %d = %v out of bounds", i, d)
		}
		last = d
	}
	if last < 32*time.Millisecond {
		t.Errorf("delay did not reach the cap: %v", last)
	}
	if b.Attempts() != 6 {
		t.Errorf("attempts = %d, want 6", b.Attempts())
	}
}

// TestRetry tests success after failures and giving up.
func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, NewBackoff(time.Millisecond, time.Millisecond, 1), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}

	boom := errors.New("boom")
	calls = 0
	err = Retry(context.Background(), 2, NewBackoff(time.Millisecond, time.Millisecond, 1), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}
