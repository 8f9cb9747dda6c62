// Package fsrs implements the FSRS-4.5 spaced repetition algorithm: the
// per-card memory model (stability, difficulty, retrievability), the review
// state machine, and the scheduler that turns a review into the card's next
// due date.
//
// The package is pure computation with no I/O. A typical review round trip:
//
//	sched := fsrs.NewScheduler(fsrs.DefaultParameters())
//	candidates := sched.Repeat(card, time.Now())
//	next, err := candidates.SelectCard(fsrs.Good)
//	// persist next and next.Log
package fsrs
