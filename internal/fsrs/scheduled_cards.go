package fsrs

import (
	"fmt"
	"time"
)

// ScheduledCards maps each rating to the hypothetical card that results
// from reviewing with it. It is request-scoped: build one per review,
// select one branch, discard the rest.
//
// NewScheduledCards only advances the state machine; stability, difficulty,
// due dates, and logs are filled in by Scheduler.Repeat.
type ScheduledCards struct {
	Cards map[Rating]Card
	Now   time.Time
}

// NewScheduledCards clones card once per rating and advances each clone's
// state machine. The source card is not mutated.
func NewScheduledCards(card Card, now time.Time) ScheduledCards {
	cards := make(map[Rating]Card, len(AllRatings))
	for _, rating := range AllRatings {
		c := card.Clone()
		c.UpdateState(rating)
		cards[rating] = c
	}
	return ScheduledCards{Cards: cards, Now: now}
}

// SelectCard returns a clone of the candidate for the given rating.
// Rating is a closed set of four values; anything else is a caller bug and
// reports ErrInvalidRating.
func (sc ScheduledCards) SelectCard(rating Rating) (Card, error) {
	c, ok := sc.Cards[rating]
	if !ok {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	return c.Clone(), nil
}

// update applies fn to the stored candidate for the given rating.
func (sc ScheduledCards) update(rating Rating, fn func(*Card)) {
	c := sc.Cards[rating]
	fn(&c)
	sc.Cards[rating] = c
}
