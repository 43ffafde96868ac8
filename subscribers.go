package statebox

import (
	"reflect"

	"github.com/google/uuid"
)

// Subscriber receives values published for the path it is registered on.
// Root subscribers receive the whole tree. Every delivery is a private deep
// copy.
type Subscriber interface {
	Notify(value any)
}

// SubscriberFunc adapts a plain function to Subscriber. Functions have no
// identity in Go, so each registration of a SubscriberFunc is distinct.
type SubscriberFunc func(value any)

// Notify implements Subscriber.
func (fn SubscriberFunc) Notify(value any) {
	if fn != nil {
		fn(value)
	}
}

// Unsubscribe removes one registration. Calling it more than once is a no-op.
type Unsubscribe func()

type subscription struct {
	id         uuid.UUID
	subscriber Subscriber
}

// registry keeps subscribers per path key in registration order.
type registry struct {
	paths map[string][]*subscription
}

func newRegistry() *registry {
	return &registry{paths: map[string][]*subscription{}}
}

// add registers sub under key unless an identical subscriber is already
// present, in which case the existing registration is returned.
func (r *registry) add(key string, sub Subscriber) *subscription {
	for _, existing := range r.paths[key] {
		if sameSubscriber(existing.subscriber, sub) {
			return existing
		}
	}
	entry := &subscription{id: uuid.New(), subscriber: sub}
	r.paths[key] = append(r.paths[key], entry)
	return entry
}

func (r *registry) remove(key string, id uuid.UUID) bool {
	subs := r.paths[key]
	for i, entry := range subs {
		if entry.id != id {
			continue
		}
		remaining := make([]*subscription, 0, len(subs)-1)
		remaining = append(remaining, subs[:i]...)
		remaining = append(remaining, subs[i+1:]...)
		if len(remaining) == 0 {
			delete(r.paths, key)
		} else {
			r.paths[key] = remaining
		}
		return true
	}
	return false
}

// list returns the subscribers for key at call time. Dispatch iterates this
// copy so callbacks may subscribe or unsubscribe freely.
func (r *registry) list(key string) []Subscriber {
	subs := r.paths[key]
	if len(subs) == 0 {
		return nil
	}
	out := make([]Subscriber, len(subs))
	for i, entry := range subs {
		out[i] = entry.subscriber
	}
	return out
}

func (r *registry) count(key string) int {
	return len(r.paths[key])
}

func sameSubscriber(a, b Subscriber) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
