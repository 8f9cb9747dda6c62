package fsrs

import "time"

// ReviewLog is an immutable record of one review event. The State field is
// the card's state going into the review, not the state it transitioned to.
type ReviewLog struct {
	Rating        Rating    `json:"rating"`
	ElapsedDays   int64     `json:"elapsed_days"`
	ScheduledDays int64     `json:"scheduled_days"`
	State         State     `json:"state"`
	ReviewedDate  time.Time `json:"reviewed_date"`
}
