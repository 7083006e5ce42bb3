package notification

import (
	"context"
	"sync"
)

// Recorder is an Emitter that keeps every emitted event in memory.
type Recorder struct {
	mutex  sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// For returns the events addressed to the given recipient, in emit order.
func (r *Recorder) For(recipient int) []Event {
	var events []Event
	for _, e := range r.Events() {
		for _, rid := range e.Recipients {
			if rid == recipient {
				events = append(events, e)
				break
			}
		}
	}
	return events
}

func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = nil
}
