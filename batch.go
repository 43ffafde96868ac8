package statebox

import (
	"time"

	"github.com/goliatone/go-statebox/internal/tree"
)

// Setter writes one value inside a Batch. It neither records history nor
// notifies; it fails on malformed paths, conflicting branches and non-map
// root values.
type Setter func(path string, value any) error

// Batch applies several writes as one step. The pre-batch tree becomes a
// single history entry, every distinct written path is notified once in
// first-write order with its final value, and root subscribers are notified
// once with the final tree.
//
// When fn returns an error the tree is restored, nothing is recorded or
// notified, and the error is returned.
func (s *Store) Batch(fn func(set Setter) error) error {
	start := time.Now()
	if fn == nil {
		return nil
	}

	s.mu.Lock()
	previous := tree.CloneMap(s.tree)
	s.mu.Unlock()

	var touched []Path
	seen := map[string]struct{}{}
	set := func(path string, value any) error {
		p, err := ParsePath(path)
		if err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.writeLocked(p, value); err != nil {
			return err
		}
		if _, ok := seen[p.Key()]; !ok {
			seen[p.Key()] = struct{}{}
			touched = append(touched, p)
		}
		return nil
	}

	if err := s.runBatch(fn, set, previous); err != nil {
		s.mu.Lock()
		s.tree = previous
		depth := s.history.len()
		s.mu.Unlock()
		s.report(OpBatch, pathStrings(touched), 0, depth, start, err)
		return err
	}

	s.mu.Lock()
	s.history.push(previous)
	deliveries := s.collectLocked(touched)
	depth := s.history.len()
	s.mu.Unlock()

	s.dispatch(deliveries)
	s.report(OpBatch, pathStrings(touched), len(deliveries), depth, start, nil)
	return nil
}

// runBatch calls fn, restoring previous if fn panics.
func (s *Store) runBatch(fn func(set Setter) error, set Setter, previous map[string]any) error {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.tree = previous
			s.mu.Unlock()
			panic(r)
		}
	}()
	return fn(set)
}

func pathStrings(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}
