package fsrs

import (
	"errors"
	"testing"
	"time"
)

func TestNewScheduledCardsMatchesDirectUpdate(t *testing.T) {
	now := time.Now()
	for _, from := range []State{New, Learning, Review, Relearning} {
		base := NewCard()
		base.State = from
		base.Lapses = 2

		sc := NewScheduledCards(base, now)
		for _, rating := range AllRatings {
			direct := base.Clone()
			direct.UpdateState(rating)

			got, err := sc.SelectCard(rating)
			if err != nil {
				t.Fatalf("SelectCard(%v): %v", rating, err)
			}
			if got.State != direct.State {
				t.Errorf("from %v rated %v: batch state %v, direct state %v", from, rating, got.State, direct.State)
			}
			if got.Lapses != direct.Lapses {
				t.Errorf("from %v rated %v: batch lapses %d, direct lapses %d", from, rating, got.Lapses, direct.Lapses)
			}
		}
	}
}

func TestNewScheduledCardsDoesNotMutateSource(t *testing.T) {
	base := NewCard()
	base.State = Review
	base.Lapses = 1

	_ = NewScheduledCards(base, time.Now())

	if base.State != Review || base.Lapses != 1 || base.PreviousState != New {
		t.Errorf("source card mutated: %+v", base)
	}
}

func TestScheduledCardsBranchesAreIndependent(t *testing.T) {
	sc := NewScheduledCards(NewCard(), time.Now())

	again, _ := sc.SelectCard(Again)
	again.Stability = 99

	fresh, _ := sc.SelectCard(Again)
	if fresh.Stability == 99 {
		t.Error("SelectCard should return a clone, not the stored candidate")
	}
}

func TestSelectCardInvalidRating(t *testing.T) {
	sc := NewScheduledCards(NewCard(), time.Now())
	for _, rating := range []Rating{Rating(0), Rating(5), Rating(-1)} {
		_, err := sc.SelectCard(rating)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("SelectCard(%d) err = %v, want ErrInvalidRating", int(rating), err)
		}
	}
}

func TestScheduledCardsCoversAllRatings(t *testing.T) {
	sc := NewScheduledCards(NewCard(), time.Now())
	if len(sc.Cards) != 4 {
		t.Fatalf("candidate count = %d, want 4", len(sc.Cards))
	}
	for _, rating := range AllRatings {
		if _, ok := sc.Cards[rating]; !ok {
			t.Errorf("missing candidate for %v", rating)
		}
	}
}
