package screens

import (
	"errors"
	"sync"
)

var (
	ErrBusy                 = errors.New("an action on this event is already in progress")
	ErrConfirmationRequired = errors.New("rejecting an event must be confirmed")
	ErrUnknownEvent         = errors.New("event is not on this screen")
)

// lifecycle tracks focus and fetch generations of one screen.
type lifecycle struct {
	mu     sync.Mutex
	active bool
	gen    uint64
	busy   map[int64]bool
}

// begin starts a fetch and returns its generation. The caller holds mu.
func (l *lifecycle) begin() uint64 {
	l.gen++
	return l.gen
}

// current reports whether a response of generation g may still be
// applied. The caller holds mu.
func (l *lifecycle) current(g uint64) bool {
	return l.active && g == l.gen
}

// acquire marks id in flight. The caller holds mu.
func (l *lifecycle) acquire(id int64) error {
	if l.busy == nil {
		l.busy = make(map[int64]bool)
	}
	if l.busy[id] {
		return ErrBusy
	}
	l.busy[id] = true
	return nil
}

// release clears the in-flight mark of id. The caller holds mu.
func (l *lifecycle) release(id int64) {
	delete(l.busy, id)
}

// blur marks the screen inactive and invalidates fetches in flight.
func (l *lifecycle) blur() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = false
	l.gen++
}
