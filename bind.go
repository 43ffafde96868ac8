package statebox

import (
	"fmt"

	"github.com/goliatone/go-statebox/internal/bind"
)

// BindContext identifies the sub-tree handed to bind hooks.
type BindContext = bind.Context

// BindOption configures Bind.
type BindOption[T any] = bind.Option[T]

// BindPreHook runs before decoding and may replace the payload.
func BindPreHook[T any](hook func(BindContext, any) (any, error)) BindOption[T] {
	return bind.WithPreHook[T](hook)
}

// BindPostHook runs after decoding and may adjust or validate the result.
func BindPostHook[T any](hook func(BindContext, *T) error) BindOption[T] {
	return bind.WithPostHook[T](hook)
}

// BindStrict rejects tree keys that have no matching field in T.
func BindStrict[T any]() BindOption[T] {
	return bind.WithDisallowUnknownFields[T]()
}

// BindUseNumber decodes numbers held in any-typed fields as json.Number.
func BindUseNumber[T any]() BindOption[T] {
	return bind.WithUseNumber[T]()
}

// BindDecoder replaces JSON decoding with fn.
func BindDecoder[T any](fn func(BindContext, any) (T, error)) BindOption[T] {
	return bind.WithCustomDecoder[T](fn)
}

// Bind decodes the value stored at path into T through its JSON form.
// ErrPathNotFound is returned when nothing is stored at path.
func Bind[T any](s *Store, path string, opts ...BindOption[T]) (T, error) {
	var zero T
	p, err := ParsePath(path)
	if err != nil {
		return zero, err
	}
	value, ok := s.GetPath(p)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrPathNotFound, p)
	}
	return bind.NewDecoder(opts...).Decode(bind.Context{Path: p.String()}, value)
}
