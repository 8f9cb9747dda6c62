package fsrs

import "time"

// Card is the scheduling state of a single item. It is mutated in place by
// UpdateState and SaveLog; callers that need hypothetical outcomes work on
// clones (see ScheduledCards).
type Card struct {
	Due           time.Time  `json:"due"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   int64      `json:"elapsed_days"`
	ScheduledDays int64      `json:"scheduled_days"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	State         State      `json:"state"`
	LastReview    time.Time  `json:"last_review"`
	PreviousState State      `json:"previous_state"`
	Log           *ReviewLog `json:"log,omitempty"`
}

// NewCard returns an unreviewed card, due immediately.
func NewCard() Card {
	now := time.Now()
	return Card{
		Due:        now,
		State:      New,
		LastReview: now,
	}
}

// Clone returns a copy of the card with an independent Log.
func (c Card) Clone() Card {
	out := c
	if c.Log != nil {
		log := *c.Log
		out.Log = &log
	}
	return out
}

// Retrievability estimates the probability of successful recall right now,
// from ElapsedDays and Stability:
//
//	R = (1 + elapsed/(9*S))^-1
//
// An unreviewed card has no memory trace yet, so Stability == 0 is defined
// as retrievability 0 rather than letting the division blow up.
func (c Card) Retrievability() float64 {
	if c.Stability <= 0 {
		return 0
	}
	return 1 / (1 + float64(c.ElapsedDays)/(9*c.Stability))
}

// UpdateState advances the review state machine for the given rating,
// snapshotting PreviousState first so a later SaveLog records the state the
// card was reviewed from.
//
//	New       -> Learning (Again/Hard/Good) or Review (Easy); Again counts a lapse
//	Learning,
//	Relearning -> Review on Good/Easy, otherwise unchanged
//	Review    -> Relearning on Again (counts a lapse), otherwise unchanged
func (c *Card) UpdateState(rating Rating) {
	c.PreviousState = c.State
	switch c.State {
	case New:
		if rating == Again {
			c.Lapses++
		}
		if rating == Easy {
			c.State = Review
		} else {
			c.State = Learning
		}
	case Learning, Relearning:
		if rating == Good || rating == Easy {
			c.State = Review
		}
	case Review:
		if rating == Again {
			c.Lapses++
			c.State = Relearning
		}
	}
}

// SaveLog attaches a ReviewLog snapshot built from the pre-transition
// values: ElapsedDays and ScheduledDays as they stood going into the
// review, PreviousState, and LastReview as the review timestamp. Any
// earlier log is overwritten; accumulating history is the caller's job.
func (c *Card) SaveLog(rating Rating) {
	c.Log = &ReviewLog{
		Rating:        rating,
		ElapsedDays:   c.ElapsedDays,
		ScheduledDays: c.ScheduledDays,
		State:         c.PreviousState,
		ReviewedDate:  c.LastReview,
	}
}
