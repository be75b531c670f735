package livepreview

import (
	"sync"
	"time"
)

// Outcome is the last committed result: a success carrying Output, or a
// failure carrying Message. Never both.
type Outcome struct {
	Token     Token
	Output    *Output // nil on failure
	Message   string  // empty on success
	Warnings  []string
	Skipped   []string // identifiers of images left out
	Committed time.Time
}

// Success reports whether the outcome carries output.
func (o Outcome) Success() bool {
	return o.Output != nil
}

// Sink holds the one outcome shown to the user. Committing a success clears
// the error and committing a failure clears the output.
type Sink struct {
	mu      sync.RWMutex
	current Outcome
	subs    map[int]chan Outcome
	nextID  int
	now     func() time.Time
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{subs: make(map[int]chan Outcome), now: time.Now}
}

// commit replaces the outcome and notifies subscribers. Slow subscribers
// only ever see the latest outcome.
func (s *Sink) commit(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.Committed = s.now()
	s.current = o
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- o
	}
}

// Current returns the last committed outcome (the zero Outcome before the
// first commit).
func (s *Sink) Current() Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Output returns the committed output, or nil when the last commit failed.
func (s *Sink) Output() *Output {
	return s.Current().Output
}

// Error returns the committed failure message, or "" after a success.
func (s *Sink) Error() string {
	return s.Current().Message
}

// Subscribe returns a channel receiving every later commit and a function
// that ends the subscription and closes the channel.
func (s *Sink) Subscribe() (<-chan Outcome, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Outcome, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}
