package results

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/precoding-evaluator/model"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("result not found")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventStored EventType = iota
	EventDeleted
	EventEvicted
)

func (t EventType) String() string {
	switch t {
	case EventStored:
		return "stored"
	case EventDeleted:
		return "deleted"
	case EventEvicted:
		return "evicted"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers when the store changes.
type Event struct {
	Type   EventType
	Record Record
}

// Record is one stored evaluation.
type Record struct {
	ID        string
	CreatedAt time.Time
	Result    *model.ScenarioResult
}

// MetricsRecorder receives the current record count after every mutation.
type MetricsRecorder interface {
	SetStoredResults(n int)
}

// Option customises a Store.
type Option func(*Store)

// WithMetrics wires a gauge recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Store) { s.metrics = m }
}

// WithCapacity bounds the store; the oldest record is evicted once full.
// Zero means unbounded.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// Store is an in-memory, thread-safe store of evaluated scenario results.
// Results are immutable, so records are shared rather than copied.
type Store struct {
	mu sync.RWMutex

	records  map[string]Record
	order    []string
	capacity int
	metrics  MetricsRecorder

	subs   map[int]func(Event)
	nextID int
}

// NewStore constructs an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]Record),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a result under a fresh ID.
func (s *Store) Put(res *model.ScenarioResult) (Record, error) {
	if res == nil {
		return Record{}, fmt.Errorf("results: cannot store a nil result")
	}
	rec := Record{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    res,
	}

	s.mu.Lock()
	events := []Event{{Type: EventStored, Record: rec}}
	if s.capacity > 0 && len(s.order) >= s.capacity {
		oldest := s.order[0]
		events = append(events, Event{Type: EventEvicted, Record: s.records[oldest]})
		s.removeLocked(oldest)
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	n := len(s.order)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(n, subs, events)
	return rec, nil
}

// Get returns the record with the given ID.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return rec, nil
}

// List returns a snapshot of every record, oldest first.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Delete removes the record with the given ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.removeLocked(id)
	n := len(s.order)
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(n, subs, []Event{{Type: EventDeleted, Record: rec}})
	return nil
}

// Subscribe registers a callback for store events. It returns an unsubscribe
// function.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) removeLocked(id string) {
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) subscribersLocked() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// notify runs outside the lock so subscribers may call back into the store.
func (s *Store) notify(n int, subs []func(Event), events []Event) {
	if s.metrics != nil {
		s.metrics.SetStoredResults(n)
	}
	for _, ev := range events {
		for _, sub := range subs {
			sub(ev)
		}
	}
}
