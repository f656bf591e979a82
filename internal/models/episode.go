package models

import (
	"fmt"
	"time"
)

// Episode represents one broadcast of the show
type Episode struct {
	ID uint64 `boltholdKey:"ID" json:"id"`

	// Scheduling interval. Showtime is when the broadcast starts,
	// End is when it finishes; [Showtime, End) is "in progress".
	Showtime time.Time `boltholdIndex:"Showtime" json:"showtime"`
	End      time.Time `boltholdIndex:"End" json:"end"`

	// Presentation
	Message       string `json:"message,omitempty"`
	VotingAllowed bool   `json:"voting_allowed"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the episode's scheduling interval
func (e *Episode) Validate() error {
	if e.End.Before(e.Showtime) {
		return fmt.Errorf("episode ends before it begins; %s < %s",
			e.End.Format(time.RFC3339), e.Showtime.Format(time.RFC3339))
	}
	return nil
}

// InProgressAt reports whether the given instant falls inside the
// episode's scheduling interval
func (e *Episode) InProgressAt(t time.Time) bool {
	return !t.Before(e.Showtime) && t.Before(e.End)
}
