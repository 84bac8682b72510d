package util

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("Retry() made %d calls, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Retry() = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("Retry() made %d calls, want 3", calls)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
}

func TestRetryIfStopsOnRejectedError(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := RetryIf(context.Background(), 5, time.Millisecond,
		func(err error) bool { return !errors.Is(err, fatal) },
		func() error {
			calls++
			return fatal
		})
	if !errors.Is(err, fatal) {
		t.Errorf("RetryIf() = %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Errorf("RetryIf() made %d calls, want 1", calls)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line emitted at warn level: %q", buf.String())
	}

	logger.Warn("visible")
	if buf.Len() == 0 {
		t.Error("warn line not emitted at warn level")
	}
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "bogus")
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("unrecognised level did not default to info")
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unrecognised level enabled debug")
	}
}
