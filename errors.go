package statebox

import "errors"

var (
	// ErrInvalidPath indicates a path with empty segments.
	ErrInvalidPath = errors.New("statebox: invalid path")
	// ErrInvalidRoot indicates an attempt to replace the tree root with a
	// value that is not a map.
	ErrInvalidRoot = errors.New("statebox: root must be a map")
	// ErrPathConflict indicates a write that would have to descend through an
	// existing leaf value.
	ErrPathConflict = errors.New("statebox: path conflicts with existing value")
	// ErrPathNotFound is returned by typed accessors when nothing is stored at
	// the requested path.
	ErrPathNotFound = errors.New("statebox: path not found")
	// ErrNilSubscriber indicates Subscribe received a nil subscriber.
	ErrNilSubscriber = errors.New("statebox: subscriber is nil")
)
