package statebox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-statebox/internal/tree"
	"github.com/goliatone/go-statebox/pkg/activity"
	"go.uber.org/zap"
)

// Store is an in-memory tree addressed by dotted paths. Writes record a
// bounded undo history and notify the subscribers of the written path plus
// the root subscribers. Values never alias the internal tree: every read,
// write and delivery is a deep copy.
//
// The mutex only guards the tree, the history and the subscriber registry;
// it is released before subscribers run, so callbacks may read or write the
// store.
type Store struct {
	mu      sync.Mutex
	cfg     storeConfig
	tree    map[string]any
	history *history
	subs    *registry
	emitter *activity.Emitter

	evalOnce  sync.Once
	evaluator Evaluator
}

type delivery struct {
	subscriber Subscriber
	value      any
}

// New creates a store with an empty tree.
func New(opts ...Option) *Store {
	cfg := applyOptions(opts)
	return &Store{
		cfg:     cfg,
		tree:    map[string]any{},
		history: newHistory(cfg.historyLimit),
		subs:    newRegistry(),
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.activityChannel,
		}),
	}
}

// Init replaces the tree with a copy of initial and notifies root
// subscribers. History is left as is.
func (s *Store) Init(initial map[string]any) {
	s.replace(OpInit, initial, false)
}

// Reset clears the history, then behaves like Init.
func (s *Store) Reset(initial map[string]any) {
	s.replace(OpReset, initial, true)
}

func (s *Store) replace(op string, initial map[string]any, clearHistory bool) {
	start := time.Now()
	next := tree.CloneMap(initial)

	s.mu.Lock()
	if clearHistory {
		s.history.reset()
	}
	s.tree = next
	deliveries := s.collectLocked(nil)
	depth := s.history.len()
	s.mu.Unlock()

	s.dispatch(deliveries)
	s.report(op, []string{RootPath}, len(deliveries), depth, start, nil)
}

// Get returns a copy of the value at path. "" and "*" address the whole
// tree. Missing values, leaf intermediates and malformed paths report false.
func (s *Store) Get(path string) (any, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return s.GetPath(p)
}

// GetPath is Get for a parsed path.
func (s *Store) GetPath(p Path) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(p)
}

// Snapshot returns a copy of the whole tree.
func (s *Store) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.CloneMap(s.tree)
}

func (s *Store) readLocked(p Path) (any, bool) {
	if p.IsRoot() {
		return tree.CloneMap(s.tree), true
	}
	value, ok := tree.Lookup(s.tree, p.segments)
	if !ok {
		return nil, false
	}
	return tree.Clone(value), true
}

// Set writes a copy of value at path, growing missing branches as maps.
// Writing "*" replaces the whole tree and requires a map[string]any.
//
// Unless Silent is given, the pre-write tree is pushed to the history and
// subscribers of path are notified, followed by root subscribers.
func (s *Store) Set(path string, value any, opts ...SetOption) error {
	p, err := ParsePath(path)
	if err != nil {
		s.report(OpSet, []string{path}, 0, s.HistoryLen(), time.Now(), err)
		return err
	}
	return s.SetPath(p, value, opts...)
}

// SetPath is Set for a parsed path.
func (s *Store) SetPath(p Path, value any, opts ...SetOption) error {
	start := time.Now()
	setCfg := applySetOptions(opts)

	s.mu.Lock()
	var previous map[string]any
	if !setCfg.silent {
		previous = tree.CloneMap(s.tree)
	}
	if err := s.writeLocked(p, value); err != nil {
		depth := s.history.len()
		s.mu.Unlock()
		s.report(OpSet, []string{p.String()}, 0, depth, start, err)
		return err
	}
	if setCfg.silent {
		depth := s.history.len()
		s.mu.Unlock()
		s.observe(OpSet, []string{p.String()}, 0, depth, start, true)
		return nil
	}
	s.history.push(previous)
	deliveries := s.collectLocked([]Path{p})
	depth := s.history.len()
	s.mu.Unlock()

	s.dispatch(deliveries)
	s.report(OpSet, []string{p.String()}, len(deliveries), depth, start, nil)
	return nil
}

// writeLocked assigns a copy of value at p. The tree is untouched when an
// error is returned.
func (s *Store) writeLocked(p Path, value any) error {
	if p.IsRoot() {
		root, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: got %T", ErrInvalidRoot, value)
		}
		s.tree = tree.CloneMap(root)
		return nil
	}
	if err := tree.Assign(s.tree, p.segments, tree.Clone(value)); err != nil {
		return fmt.Errorf("%w: %s", ErrPathConflict, p)
	}
	return nil
}

// Merge deep-merges partial into the map stored at path. A missing target is
// grown. Recording and notification follow Set.
func (s *Store) Merge(path string, partial map[string]any, opts ...SetOption) error {
	start := time.Now()
	p, err := ParsePath(path)
	if err != nil {
		s.report(OpMerge, []string{path}, 0, s.HistoryLen(), start, err)
		return err
	}
	setCfg := applySetOptions(opts)

	s.mu.Lock()
	var previous map[string]any
	if !setCfg.silent {
		previous = tree.CloneMap(s.tree)
	}
	if err := s.mergeLocked(p, partial); err != nil {
		depth := s.history.len()
		s.mu.Unlock()
		s.report(OpMerge, []string{p.String()}, 0, depth, start, err)
		return err
	}
	if setCfg.silent {
		depth := s.history.len()
		s.mu.Unlock()
		s.observe(OpMerge, []string{p.String()}, 0, depth, start, true)
		return nil
	}
	s.history.push(previous)
	deliveries := s.collectLocked([]Path{p})
	depth := s.history.len()
	s.mu.Unlock()

	s.dispatch(deliveries)
	s.report(OpMerge, []string{p.String()}, len(deliveries), depth, start, nil)
	return nil
}

func (s *Store) mergeLocked(p Path, partial map[string]any) error {
	if p.IsRoot() {
		tree.Merge(s.tree, partial)
		return nil
	}
	existing, ok := tree.Lookup(s.tree, p.segments)
	if ok && existing != nil {
		target, isMap := existing.(map[string]any)
		if !isMap {
			return fmt.Errorf("%w: %s holds %T", ErrPathConflict, p, existing)
		}
		tree.Merge(target, partial)
		return nil
	}
	if err := tree.Assign(s.tree, p.segments, tree.Merge(nil, partial)); err != nil {
		return fmt.Errorf("%w: %s", ErrPathConflict, p)
	}
	return nil
}

// Undo restores the most recent history entry and notifies root
// subscribers. It reports false when the history is empty.
func (s *Store) Undo() bool {
	start := time.Now()

	s.mu.Lock()
	previous, ok := s.history.pop()
	if !ok {
		s.mu.Unlock()
		s.observe(OpUndo, nil, 0, 0, start, false)
		return false
	}
	s.tree = previous
	deliveries := s.collectLocked(nil)
	depth := s.history.len()
	s.mu.Unlock()

	s.dispatch(deliveries)
	s.report(OpUndo, []string{RootPath}, len(deliveries), depth, start, nil)
	return true
}

// HistoryLen reports the number of undoable steps.
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.len()
}

// Version returns the snapshot version stamped by Persist.
func (s *Store) Version() int {
	return s.cfg.version
}

// collectLocked prepares one delivery per subscriber of each path in paths,
// then one per root subscriber. Root entries in paths are folded into the
// trailing root delivery. Every delivery carries its own copy.
func (s *Store) collectLocked(paths []Path) []delivery {
	var out []delivery
	for _, p := range paths {
		if p.IsRoot() {
			continue
		}
		subs := s.subs.list(p.Key())
		if len(subs) == 0 {
			continue
		}
		value, _ := tree.Lookup(s.tree, p.segments)
		for _, sub := range subs {
			out = append(out, delivery{subscriber: sub, value: tree.Clone(value)})
		}
	}
	for _, sub := range s.subs.list(Root().Key()) {
		out = append(out, delivery{subscriber: sub, value: tree.CloneMap(s.tree)})
	}
	return out
}

func (s *Store) dispatch(deliveries []delivery) {
	for _, d := range deliveries {
		d.subscriber.Notify(d.value)
	}
}

// report observes the operation and, when it succeeded, emits an activity
// event.
func (s *Store) report(op string, paths []string, notifications, depth int, start time.Time, err error) {
	s.observe(op, paths, notifications, depth, start, err == nil)
	if err != nil {
		s.cfg.logger.Debug("state operation rejected",
			zap.String("op", op),
			zap.Strings("paths", paths),
			zap.Error(err),
		)
		return
	}
	s.emit(op, paths, depth)
}

func (s *Store) observe(op string, paths []string, notifications, depth int, start time.Time, ok bool) {
	s.cfg.observer.ObserveOperation(OperationEvent{
		Op:            op,
		Paths:         paths,
		Notifications: notifications,
		HistoryLen:    depth,
		Duration:      time.Since(start),
		OK:            ok,
	})
}

func (s *Store) emit(op string, paths []string, depth int) {
	if !s.emitter.Enabled() {
		return
	}
	event := activity.BuildStateEvent(activity.StateEventInput{
		Op:         op,
		Paths:      paths,
		HistoryLen: depth,
		Version:    s.cfg.version,
		OccurredAt: s.cfg.now(),
	})
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.cfg.logger.Warn("state activity hook failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
