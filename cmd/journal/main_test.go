package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
)

// fakeSink implements EventSink for tests
type fakeSink struct {
	fail  int // number of times to fail before succeeding
	calls int
	saved []models.RideEvent
}

func (f *fakeSink) SaveEvent(ev models.RideEvent) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("archive fail")
	}
	f.saved = append(f.saved, ev)
	return nil
}

func TestSaveWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeSink{fail: 2}
	ev := models.RideEvent{RequestID: "r1", Type: models.EventCreated, OccurredAt: time.Now()}
	start := time.Now()
	if err := saveWithRetry(context.Background(), f, ev, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
	if len(f.saved) != 1 || f.saved[0].RequestID != "r1" {
		t.Fatalf("event not saved: %+v", f.saved)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestSaveWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeSink{fail: 5}
	ev := models.RideEvent{RequestID: "r1", Type: models.EventCreated, OccurredAt: time.Now()}
	if err := saveWithRetry(context.Background(), f, ev, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
	if len(f.saved) != 0 {
		t.Fatalf("exhausted retry must not save, got %+v", f.saved)
	}
}

func TestSaveWithRetry_StopsOnCancel(t *testing.T) {
	f := &fakeSink{fail: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := models.RideEvent{RequestID: "r1", Type: models.EventCreated, OccurredAt: time.Now()}
	if err := saveWithRetry(ctx, f, ev, 5, 10*time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
