package notification

import "time"

// Event is a single notification, addressed to one or more recipients.
// The actor is the user whose action caused it.
type Event struct {
	ActorID    int       `json:"actor_id"`
	Actor      string    `json:"actor"`
	Recipients []int     `json:"-"`
	Verb       string    `json:"verb"`
	Timestamp  time.Time `json:"timestamp"`
}

// Entry is an event as seen in a single recipient's inbox.
type Entry struct {
	ActorID   int       `json:"actor_id"`
	Actor     string    `json:"actor"`
	Verb      string    `json:"verb"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) entry() Entry {
	return Entry{
		ActorID:   e.ActorID,
		Actor:     e.Actor,
		Verb:      e.Verb,
		Timestamp: e.Timestamp,
	}
}
