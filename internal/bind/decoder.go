// Package bind decodes store sub-trees into typed Go values.
package bind

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/goliatone/go-statebox/internal/codec"
	"github.com/goliatone/go-statebox/internal/tree"
)

// Context identifies the sub-tree being decoded.
type Context struct {
	Path string
}

// PreHook lets callers normalise the payload before decoding. Returning nil
// keeps the current payload.
type PreHook func(Context, any) (any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default JSON decoding when provided.
type CustomDecoder[T any] func(Context, any) (T, error)

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// Decoder converts tree values into T.
type Decoder[T any] struct {
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
	custom       CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) Option[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) Option[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber decodes numbers into json.Number for any-typed fields.
func WithUseNumber[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.UseNumber()
		})
	}
}

// WithDisallowUnknownFields rejects keys without a matching struct field.
func WithDisallowUnknownFields[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithCustomDecoder replaces the default JSON decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) Option[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

// NewDecoder builds a Decoder from opts.
func NewDecoder[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T. The payload is copied first, so hooks may
// mutate it freely.
func (d *Decoder[T]) Decode(ctx Context, payload any) (T, error) {
	var zero T
	current := tree.Clone(payload)

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("bind: pre-hook for %q failed: %w", ctx.Path, err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	if d.custom != nil {
		decoded, err := d.custom(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("bind: custom decoder for %q failed: %w", ctx.Path, err)
		}
		result = decoded
	} else {
		buffer, err := codec.Marshal(current)
		if err != nil {
			return zero, fmt.Errorf("bind: marshal %q: %w", ctx.Path, err)
		}
		decoder := json.NewDecoder(bytes.NewReader(buffer))
		for _, configure := range d.configureDec {
			if configure != nil {
				configure(decoder)
			}
		}
		if err := decoder.Decode(&result); err != nil {
			return zero, fmt.Errorf("bind: decode %q: %w", ctx.Path, err)
		}
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("bind: post-hook for %q failed: %w", ctx.Path, err)
		}
	}

	return result, nil
}
