package domain

import "time"

type Event struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartDate       time.Time `json:"start_date"`
	MaxParticipants *int      `json:"max_participants,omitempty"`
	CreatedByID     uint      `json:"created_by_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (e Event) HasStarted(now time.Time) bool {
	return e.StartDate.Before(now)
}

// ParticipantLimit returns the event capacity. ok is false when the event
// is unlimited (nil or non-positive max).
func (e Event) ParticipantLimit() (limit int, ok bool) {
	if e.MaxParticipants == nil || *e.MaxParticipants <= 0 {
		return 0, false
	}

	return *e.MaxParticipants, true
}
