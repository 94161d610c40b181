// Package broadcast implements in-process per-subject fan-out used by the
// live streams. A subject is any string key (a trip id, a driver id); each
// subject carries an independent, ordered sequence of events.
package broadcast

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one item on a subject's stream.
type Event struct {
	Type    string
	Payload any
	At      time.Time
}

// Subscription is a live tap on one subject. C is closed when the subject
// terminates or the subscription is cancelled.
type Subscription struct {
	C      <-chan Event
	cancel func()
}

// Cancel detaches the subscription and closes C. Safe to call more than
// once and safe to call concurrently with Publish.
func (s *Subscription) Cancel() {
	s.cancel()
}

type subscriber struct {
	ch     chan Event
	closed bool
}

type subject struct {
	mu   sync.Mutex
	subs map[uint64]*subscriber
	done bool
}

// Broadcaster fans events out to subscribers, subject by subject.
// Publish never blocks: a subscriber that cannot keep up loses events
// rather than stalling the publisher or its sibling subscribers.
type Broadcaster struct {
	mu       sync.RWMutex
	subjects map[string]*subject
	buffer   int
	nextID   uint64
	dropped  atomic.Uint64
}

// New creates a Broadcaster whose subscriber channels hold up to buffer
// events each.
func New(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{
		subjects: make(map[string]*subject),
		buffer:   buffer,
	}
}

// Subscribe attaches a new subscriber to the subject, creating the subject
// if needed. A subscription on an already-terminated subject is returned
// pre-closed.
func (b *Broadcaster) Subscribe(subjectID string) *Subscription {
	b.mu.Lock()
	sub, ok := b.subjects[subjectID]
	if !ok {
		sub = &subject{subs: make(map[uint64]*subscriber)}
		b.subjects[subjectID] = sub
	}
	b.nextID++
	id := b.nextID
	b.mu.Unlock()

	ch := make(chan Event, b.buffer)

	sub.mu.Lock()
	if sub.done {
		sub.mu.Unlock()
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}
	entry := &subscriber{ch: ch}
	sub.subs[id] = entry
	sub.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sub.mu.Lock()
			if !entry.closed {
				entry.closed = true
				delete(sub.subs, id)
				close(entry.ch)
			}
			empty := len(sub.subs) == 0 && !sub.done
			sub.mu.Unlock()
			if empty {
				b.collect(subjectID, sub)
			}
		})
	}

	return &Subscription{C: ch, cancel: cancel}
}

// Publish delivers the event to every current subscriber of the subject,
// in subscription order per subscriber. Slow subscribers drop the event.
// Publishing to a subject nobody watches is a no-op.
func (b *Broadcaster) Publish(subjectID string, event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	sub, ok := b.subjects[subjectID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	for _, entry := range sub.subs {
		select {
		case entry.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Terminate delivers a final event (if non-nil), then closes every
// subscriber channel and removes the subject. Later Subscribe calls on the
// same id start a fresh subject.
func (b *Broadcaster) Terminate(subjectID string, last *Event) {
	b.mu.Lock()
	sub, ok := b.subjects[subjectID]
	if ok {
		delete(b.subjects, subjectID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	sub.done = true
	for _, entry := range sub.subs {
		if last != nil {
			ev := *last
			if ev.At.IsZero() {
				ev.At = time.Now().UTC()
			}
			select {
			case entry.ch <- ev:
			default:
			}
		}
		entry.closed = true
		close(entry.ch)
	}
	sub.subs = map[uint64]*subscriber{}
}

// Subscribers reports how many subscribers the subject currently has.
func (b *Broadcaster) Subscribers(subjectID string) int {
	b.mu.RLock()
	sub, ok := b.subjects[subjectID]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return len(sub.subs)
}

// Dropped reports how many events were lost to full subscriber buffers.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// collect removes a subject that lost its last subscriber. Rechecks under
// both locks because a new subscriber may have raced in.
func (b *Broadcaster) collect(subjectID string, sub *subject) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.subjects[subjectID]
	if !ok || cur != sub {
		return
	}
	sub.mu.Lock()
	empty := len(sub.subs) == 0 && !sub.done
	sub.mu.Unlock()
	if empty {
		delete(b.subjects, subjectID)
	}
}
