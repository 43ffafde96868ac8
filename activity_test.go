package statebox

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-statebox/pkg/activity"
	"github.com/goliatone/go-statebox/pkg/storage"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMutationsEmitActivityEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	backend := storage.NewMemory()
	store := New(
		WithActivityHooks(activity.Hooks{capture}),
		WithStorage(backend),
		WithClock(fixedClock),
	)

	store.Init(map[string]any{"count": 0})
	_ = store.Set("count", 1)
	_ = store.Set("count", 2, Silent())
	_ = store.Set("a..b", 1)
	_ = store.Merge("user", map[string]any{"name": "Ada"})
	_ = store.Batch(func(set Setter) error {
		_ = set("x", 1)
		_ = set("y", 2)
		return nil
	})
	store.Undo()
	store.Persist(context.Background(), "")
	store.Hydrate(context.Background(), "")
	store.Reset(nil)

	want := []string{"state.init", "state.set", "state.merge", "state.batch", "state.undo", "state.hydrate", "state.reset"}
	if diff := cmp.Diff(want, capture.Verbs()); diff != "" {
		t.Fatalf("verbs mismatch (-want +got):\n%s", diff)
	}

	events := capture.Events()
	set := events[1]
	if set.ObjectType != activity.ObjectTypeState || set.ObjectID != "count" {
		t.Fatalf("unexpected set event object: %s/%s", set.ObjectType, set.ObjectID)
	}
	if set.Channel != DefaultActivityChannel {
		t.Fatalf("expected channel %q, got %q", DefaultActivityChannel, set.Channel)
	}
	if !set.OccurredAt.Equal(fixedClock()) {
		t.Fatalf("expected store clock timestamp, got %v", set.OccurredAt)
	}
	if set.Metadata["history_len"] != 1 {
		t.Fatalf("expected history_len 1, got %v", set.Metadata["history_len"])
	}

	batch := events[3]
	if batch.ObjectID != "*" {
		t.Fatalf("multi-path batch should target *, got %q", batch.ObjectID)
	}
	if diff := cmp.Diff([]string{"x", "y"}, batch.Metadata["paths"]); diff != "" {
		t.Fatalf("batch paths mismatch (-want +got):\n%s", diff)
	}
}

func TestActivityHookErrorsAreLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	capture := &activity.CaptureHook{Err: errors.New("sink down")}
	store := New(
		WithActivityHooks(activity.Hooks{capture, nil}),
		WithActivityChannel("audit"),
		WithLogger(zap.New(core)),
	)

	if err := store.Set("count", 1); err != nil {
		t.Fatalf("hook failure leaked into set: %v", err)
	}
	if logs.FilterMessage("state activity hook failed").Len() != 1 {
		t.Fatalf("expected hook failure to be logged, got %v", logs.All())
	}
	if got := capture.Events()[0].Channel; got != "audit" {
		t.Fatalf("expected channel audit, got %q", got)
	}
}
