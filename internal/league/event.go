package league

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventOpen      EventStatus = "open"
	EventPaused    EventStatus = "paused"
	EventClosed    EventStatus = "closed"
	EventCancelled EventStatus = "cancelled"
)

// Status progression is one-way except for pause/resume.
var statusTransitions = map[EventStatus][]EventStatus{
	EventDraft:  {EventOpen, EventCancelled},
	EventOpen:   {EventPaused, EventClosed, EventCancelled},
	EventPaused: {EventOpen, EventClosed, EventCancelled},
}

func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s EventStatus) Final() bool {
	return s == EventClosed || s == EventCancelled
}

type Event struct {
	ID           uuid.UUID   `db:"id"`
	Name         string      `db:"name"`
	Status       EventStatus `db:"status"`
	CurrentRound int         `db:"current_round"`
	CreatedAt    time.Time   `db:"created_at"`
}

// Round is one cycle of pairings. Completed flips once every match is
// terminal (or an administrator forced closure) and the round's rating
// updates have been applied.
type Round struct {
	ID          uuid.UUID  `db:"id"`
	EventID     uuid.UUID  `db:"event_id"`
	Number      int        `db:"number"`
	Completed   bool       `db:"completed"`
	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
}
