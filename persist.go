package statebox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-statebox/internal/codec"
	"github.com/goliatone/go-statebox/internal/tree"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	errNoStorage       = errors.New("statebox: no storage configured")
	errSnapshotMissing = errors.New("statebox: snapshot not found")
	errSnapshotState   = errors.New("statebox: snapshot has no state")
	errVersionMismatch = errors.New("statebox: snapshot version mismatch")
)

// envelope is the persisted wire format. Timestamp is milliseconds since the
// Unix epoch.
type envelope struct {
	State     map[string]any `json:"state"`
	Version   int            `json:"version"`
	Timestamp int64          `json:"timestamp"`
}

// Persist writes the tree to the configured storage under key (the
// configured storage key when empty). Failures are logged and reported as
// false.
//
// Persisting goes through JSON: numbers come back as float64 and times as
// RFC 3339 strings.
func (s *Store) Persist(ctx context.Context, key string) bool {
	start := time.Now()
	key = s.storageKey(key)
	ctx, span := s.startSpan(ctx, "statebox.persist", key)
	defer span.End()

	err := s.persist(ctx, key)
	s.finishSpan(span, err)
	s.observe(OpPersist, []string{key}, 0, s.HistoryLen(), start, err == nil)
	if err != nil {
		s.cfg.logger.Error("failed to persist state", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) persist(ctx context.Context, key string) error {
	if s.cfg.storage == nil {
		return errNoStorage
	}
	payload, err := codec.Marshal(envelope{
		State:     s.Snapshot(),
		Version:   s.cfg.version,
		Timestamp: s.cfg.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.cfg.storage.SetItem(ctx, key, string(payload)); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Hydrate replaces the tree with the snapshot stored under key (the
// configured storage key when empty) and notifies root subscribers. It
// reports false, leaving the tree untouched, when there is no storage, no
// snapshot, the snapshot cannot be decoded or its version differs from
// Version. Hydration never records history.
func (s *Store) Hydrate(ctx context.Context, key string) bool {
	start := time.Now()
	key = s.storageKey(key)
	ctx, span := s.startSpan(ctx, "statebox.hydrate", key)
	defer span.End()

	snapshot, err := s.load(ctx, key)
	s.finishSpan(span, err)
	if err != nil {
		s.logHydrateFailure(key, snapshot, err)
		s.observe(OpHydrate, []string{key}, 0, s.HistoryLen(), start, false)
		return false
	}

	s.mu.Lock()
	s.tree = tree.CloneMap(snapshot.State)
	deliveries := s.collectLocked(nil)
	depth := s.history.len()
	s.mu.Unlock()

	s.dispatch(deliveries)
	s.report(OpHydrate, []string{RootPath}, len(deliveries), depth, start, nil)
	return true
}

func (s *Store) load(ctx context.Context, key string) (envelope, error) {
	if s.cfg.storage == nil {
		return envelope{}, errNoStorage
	}
	raw, ok, err := s.cfg.storage.GetItem(ctx, key)
	if err != nil {
		return envelope{}, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok || raw == "" {
		return envelope{}, errSnapshotMissing
	}
	var snapshot envelope
	if err := codec.Unmarshal([]byte(raw), &snapshot); err != nil {
		return envelope{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version != s.cfg.version {
		return snapshot, errVersionMismatch
	}
	if snapshot.State == nil {
		return snapshot, errSnapshotState
	}
	return snapshot, nil
}

func (s *Store) logHydrateFailure(key string, snapshot envelope, err error) {
	switch {
	case errors.Is(err, errSnapshotMissing):
		s.cfg.logger.Debug("no state snapshot to hydrate", zap.String("key", key))
	case errors.Is(err, errVersionMismatch):
		s.cfg.logger.Warn("state version mismatch, skipping hydration",
			zap.String("key", key),
			zap.Int("stored_version", snapshot.Version),
			zap.Int("expected_version", s.cfg.version),
		)
	default:
		s.cfg.logger.Error("failed to hydrate state", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) storageKey(key string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	return s.cfg.storageKey
}

func (s *Store) startSpan(ctx context.Context, name, key string) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.cfg.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("statebox.key", key),
			attribute.Int("statebox.version", s.cfg.version),
		),
	)
}

func (s *Store) finishSpan(span trace.Span, err error) {
	span.SetAttributes(attribute.Bool("statebox.ok", err == nil))
	if err != nil && !errors.Is(err, errSnapshotMissing) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
