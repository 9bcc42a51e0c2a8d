package kvstore

import (
	"github.com/MrtnvM/render-engine/keypath"
	"github.com/MrtnvM/render-engine/value"
)

// Subscription is the lazy-sequence contract: C() yields the current value
// immediately, one more each subsequent change. It is restartable (calling
// Observe/ObserveMany again produces an independent subscription) and has
// no end: the channel is never closed, not even by Close. The channel is
// buffered; when the buffer is full the oldest pending value is dropped to
// make room for the newest.
type Subscription[T any] struct {
	ch     chan T
	closer func()
}

// C returns the receive channel for this subscription.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Close unsubscribes; no further values are delivered.
func (s *Subscription[T]) Close() {
	if s.closer != nil {
		s.closer()
	}
}

type pathSubscription struct {
	ch chan value.Value
}

func (p *pathSubscription) push(v value.Value) {
	select {
	case p.ch <- v:
	default:
		// slow consumer: drop oldest by draining one slot, then push.
		select {
		case <-p.ch:
		default:
		}
		p.ch <- v
	}
}

// Observe returns a Subscription over path: the current value is emitted
// immediately, then one value per subsequent change to path.
func (s *Store) Observe(path string) *Subscription[value.Value] {
	s.mu.Lock()
	cur, _ := keypath.Get(s.root, path)
	if cur == nil {
		cur = value.Null{}
	}
	sub := &pathSubscription{ch: make(chan value.Value, 32)}
	s.pathSubs[path] = append(s.pathSubs[path], sub)
	s.mu.Unlock()

	sub.ch <- cur

	return &Subscription[value.Value]{
		ch: sub.ch,
		closer: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			list := s.pathSubs[path]
			for i, sv := range list {
				if sv == sub {
					s.pathSubs[path] = append(list[:i], list[i+1:]...)
					break
				}
			}
		},
	}
}

type setSubscription struct {
	paths []string
	ch    chan value.Object
}

func (ss *setSubscription) matchesAny(touched map[string]bool) bool {
	for _, p := range ss.paths {
		if touched[p] {
			return true
		}
		for t := range touched {
			if keypath.MatchesWildcard(p, t) || keypath.MatchesWildcard(t, p) {
				return true
			}
		}
	}
	return false
}

func (ss *setSubscription) push(v value.Object) {
	select {
	case ss.ch <- v:
	default:
		select {
		case <-ss.ch:
		default:
		}
		ss.ch <- v
	}
}

// ObserveMany returns a Subscription yielding an Object mapping each of
// paths to its latest value (or Null{}) whenever any path in the set
// changes. The initial snapshot is emitted eagerly.
func (s *Store) ObserveMany(paths []string) *Subscription[value.Object] {
	s.mu.Lock()
	sub := &setSubscription{paths: append([]string(nil), paths...), ch: make(chan value.Object, 32)}
	s.setSubs = append(s.setSubs, sub)
	initial := s.snapshotForPaths(paths)
	s.mu.Unlock()

	sub.ch <- initial

	return &Subscription[value.Object]{
		ch: sub.ch,
		closer: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sv := range s.setSubs {
				if sv == sub {
					s.setSubs = append(s.setSubs[:i], s.setSubs[i+1:]...)
					break
				}
			}
		},
	}
}

type changeSubscription struct {
	ch chan value.Change
}

func (c *changeSubscription) push(change value.Change) {
	select {
	case c.ch <- change:
	default:
		select {
		case <-c.ch:
		default:
		}
		c.ch <- change
	}
}

// Changes returns a Subscription over every committed Change on this store,
// in arrival order (spec §4.4 ordering guarantee).
func (s *Store) Changes() *Subscription[value.Change] {
	s.mu.Lock()
	sub := &changeSubscription{ch: make(chan value.Change, 64)}
	s.chgSubs = append(s.chgSubs, sub)
	s.mu.Unlock()

	return &Subscription[value.Change]{
		ch: sub.ch,
		closer: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sv := range s.chgSubs {
				if sv == sub {
					s.chgSubs = append(s.chgSubs[:i], s.chgSubs[i+1:]...)
					break
				}
			}
		},
	}
}
