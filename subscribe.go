package statebox

// Subscribe registers sub on path and immediately calls it once with the
// current value there (nil when absent). "" and "*" subscribe to the whole
// tree. Registering the same comparable subscriber twice on one path keeps a
// single registration; the bootstrap call still happens.
func (s *Store) Subscribe(path string, sub Subscriber) (Unsubscribe, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return s.SubscribePath(p, sub)
}

// SubscribeFunc registers fn on path. See Subscribe.
func (s *Store) SubscribeFunc(path string, fn func(value any)) (Unsubscribe, error) {
	if fn == nil {
		return nil, ErrNilSubscriber
	}
	return s.Subscribe(path, SubscriberFunc(fn))
}

// SubscribePath is Subscribe for a parsed path.
func (s *Store) SubscribePath(p Path, sub Subscriber) (Unsubscribe, error) {
	if sub == nil {
		return nil, ErrNilSubscriber
	}
	key := p.Key()

	s.mu.Lock()
	entry := s.subs.add(key, sub)
	current, _ := s.readLocked(p)
	s.mu.Unlock()

	sub.Notify(current)

	return func() {
		s.mu.Lock()
		s.subs.remove(key, entry.id)
		s.mu.Unlock()
	}, nil
}

// SubscriberCount reports the registrations on path.
func (s *Store) SubscriberCount(path string) int {
	p, err := ParsePath(path)
	if err != nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs.count(p.Key())
}
