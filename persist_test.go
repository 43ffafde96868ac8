package statebox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-statebox/internal/codec"
	"github.com/goliatone/go-statebox/pkg/storage"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingStorage struct {
	err error
}

func (f failingStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, f.err
}

func (f failingStorage) SetItem(context.Context, string, string) error {
	return f.err
}

type recordingTracer struct {
	noop.Tracer
	spans []string
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	r.spans = append(r.spans, name)
	return r.Tracer.Start(ctx, name, opts...)
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestPersistWritesEnvelope(t *testing.T) {
	backend := storage.NewMemory()
	store := New(WithStorage(backend), WithClock(fixedClock))
	store.Init(map[string]any{"count": 2, "user": map[string]any{"name": "Ada"}})

	if !store.Persist(context.Background(), "") {
		t.Fatalf("expected persist to succeed")
	}

	raw, ok, err := backend.GetItem(context.Background(), DefaultStorageKey)
	if err != nil || !ok {
		t.Fatalf("expected snapshot under %q: ok=%v err=%v", DefaultStorageKey, ok, err)
	}
	var decoded map[string]any
	if err := codec.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"state":     map[string]any{"count": float64(2), "user": map[string]any{"name": "Ada"}},
		"version":   float64(1),
		"timestamp": float64(fixedClock().UnixMilli()),
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("envelope mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistHydrateRoundTrip(t *testing.T) {
	backend := storage.NewMemory()
	source := New(WithStorage(backend))
	source.Init(map[string]any{"count": 3, "todos": []any{"a", "b"}})
	if !source.Persist(context.Background(), "k") {
		t.Fatalf("persist failed")
	}

	target := New(WithStorage(backend))
	target.Init(map[string]any{"count": 0})
	_ = target.Set("count", 1)

	var rootCalls []any
	_, _ = target.SubscribeFunc("*", func(v any) { rootCalls = append(rootCalls, v) })
	var countCalls int
	_, _ = target.SubscribeFunc("count", func(any) { countCalls++ })

	if !target.Hydrate(context.Background(), "k") {
		t.Fatalf("hydrate failed")
	}
	want := map[string]any{"count": float64(3), "todos": []any{"a", "b"}}
	if diff := cmp.Diff(want, target.Snapshot()); diff != "" {
		t.Fatalf("hydrated tree mismatch (-want +got):\n%s", diff)
	}
	if len(rootCalls) != 2 {
		t.Fatalf("expected bootstrap plus hydrate root notification, got %d", len(rootCalls))
	}
	if countCalls != 1 {
		t.Fatalf("hydrate must only notify root subscribers, count got %d calls", countCalls)
	}
	if target.HistoryLen() != 1 {
		t.Fatalf("hydrate must not record history, got %d", target.HistoryLen())
	}
}

func TestHydrateRejectsVersionMismatch(t *testing.T) {
	backend := storage.NewMemory()
	payload := `{"state":{"count":42},"version":999,"timestamp":1}`
	if err := backend.SetItem(context.Background(), "k", payload); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	store := New(WithStorage(backend), WithLogger(zap.New(core)))
	store.Init(map[string]any{"count": 0})

	if store.Hydrate(context.Background(), "k") {
		t.Fatalf("expected hydrate to fail on version mismatch")
	}
	if diff := cmp.Diff(map[string]any{"count": 0}, store.Snapshot()); diff != "" {
		t.Fatalf("tree changed (-want +got):\n%s", diff)
	}

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("state version mismatch, skipping hydration").All()
	if len(warnings) != 1 {
		t.Fatalf("expected one version warning, got %d (%v)", len(warnings), logs.All())
	}
	fields := warnings[0].ContextMap()
	if fields["stored_version"] != int64(999) || fields["expected_version"] != int64(1) {
		t.Fatalf("unexpected warning fields: %v", fields)
	}
}

func TestHydrateFailuresLeaveTreeUntouched(t *testing.T) {
	cases := []struct {
		name    string
		storage storage.Storage
		payload string
		level   zapcore.Level
	}{
		{name: "no storage", level: zapcore.ErrorLevel},
		{name: "missing entry", storage: storage.NewMemory(), level: zapcore.DebugLevel},
		{name: "corrupt payload", storage: storage.NewMemory(), payload: "{not json", level: zapcore.ErrorLevel},
		{name: "null state", storage: storage.NewMemory(), payload: `{"state":null,"version":1,"timestamp":1}`, level: zapcore.ErrorLevel},
		{name: "storage error", storage: failingStorage{err: errors.New("disk on fire")}, level: zapcore.ErrorLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.payload != "" {
				if err := tc.storage.SetItem(context.Background(), DefaultStorageKey, tc.payload); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			core, logs := observer.New(zapcore.DebugLevel)
			opts := []Option{WithLogger(zap.New(core))}
			if tc.storage != nil {
				opts = append(opts, WithStorage(tc.storage))
			}
			store := New(opts...)
			store.Init(map[string]any{"keep": true})

			var calls int
			_, _ = store.SubscribeFunc("*", func(any) { calls++ })

			if store.Hydrate(context.Background(), "") {
				t.Fatalf("expected hydrate to fail")
			}
			if diff := cmp.Diff(map[string]any{"keep": true}, store.Snapshot()); diff != "" {
				t.Fatalf("tree changed (-want +got):\n%s", diff)
			}
			if calls != 1 {
				t.Fatalf("failed hydrate must not notify, got %d calls", calls)
			}
			if logs.FilterLevelExact(tc.level).Len() != 1 {
				t.Fatalf("expected one %s entry, got %v", tc.level, logs.All())
			}
		})
	}
}

func TestPersistFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := New(WithStorage(failingStorage{err: errors.New("quota")}), WithLogger(zap.New(core)))

	if store.Persist(context.Background(), "k") {
		t.Fatalf("expected persist to fail")
	}
	entries := logs.FilterMessage("failed to persist state").All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error entry, got %v", logs.All())
	}

	bare := New()
	if bare.Persist(context.Background(), "") {
		t.Fatalf("expected persist without storage to fail")
	}
}

func TestWithStorageKeyOverridesDefault(t *testing.T) {
	backend := storage.NewMemory()
	store := New(WithStorage(backend), WithStorageKey("  session  "))
	if !store.Persist(context.Background(), "") {
		t.Fatalf("persist failed")
	}
	if _, ok, _ := backend.GetItem(context.Background(), "session"); !ok {
		t.Fatalf("expected snapshot under the configured key, have %v", backend.Keys())
	}
}

func TestPersistAndHydrateOpenSpans(t *testing.T) {
	tracer := &recordingTracer{}
	store := New(WithStorage(storage.NewMemory()), WithTracer(tracer))

	store.Persist(context.Background(), "")
	store.Hydrate(context.Background(), "")

	if diff := cmp.Diff([]string{"statebox.persist", "statebox.hydrate"}, tracer.spans); diff != "" {
		t.Fatalf("spans mismatch (-want +got):\n%s", diff)
	}
}

func TestHydratedNumbersAreFloat64(t *testing.T) {
	backend := storage.NewMemory()
	store := New(WithStorage(backend))
	store.Init(map[string]any{"count": 1, "at": fixedClock()})
	store.Persist(context.Background(), "")
	store.Hydrate(context.Background(), "")

	if got, _ := store.Get("count"); got != float64(1) {
		t.Fatalf("expected float64 after round trip, got %T", got)
	}
	if got, _ := store.Get("at"); got != "2024-05-01T12:00:00Z" {
		t.Fatalf("expected RFC 3339 string after round trip, got %v", got)
	}
}
