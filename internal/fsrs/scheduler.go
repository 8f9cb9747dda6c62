package fsrs

import "time"

// Scheduler turns a review into the card's next scheduling state. It owns a
// Parameters value and nothing else; all methods are pure transformations,
// so a single Scheduler is safe to share across goroutines.
type Scheduler struct {
	params Parameters
}

// NewScheduler creates a Scheduler, validating the policy fields.
func NewScheduler(params Parameters) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: params}, nil
}

// Repeat produces the four candidate outcomes of reviewing card at now: one
// fully scheduled card per rating, each with updated memory state, next due
// date, and an attached review log. The input card is not mutated; the
// caller picks the branch matching the reviewer's actual rating with
// SelectCard and persists it.
func (s *Scheduler) Repeat(card Card, now time.Time) ScheduledCards {
	c := card.Clone()
	if c.State == New {
		c.ElapsedDays = 0
	} else {
		c.ElapsedDays = int64(now.Sub(c.LastReview).Hours() / 24)
	}
	c.LastReview = now
	c.Reps++

	sc := NewScheduledCards(c, now)

	// Logs capture the pre-review interval and the state reviewed from, so
	// they are written before the new intervals land.
	for _, rating := range AllRatings {
		sc.update(rating, func(cand *Card) { cand.SaveLog(rating) })
	}

	// The scheduling branch is driven by the state the card was reviewed
	// from, not the state each candidate transitioned to.
	switch card.State {
	case New:
		s.scheduleNew(sc, now)
	case Learning, Relearning:
		s.scheduleLearning(sc, now)
	case Review:
		s.scheduleReview(sc, c, now)
	}
	return sc
}

// scheduleNew handles a card's first review: seed stability and difficulty
// from the weights, keep failed and hesitant answers on sub-day steps, and
// let Easy graduate straight to a full interval.
func (s *Scheduler) scheduleNew(sc ScheduledCards, now time.Time) {
	for _, rating := range AllRatings {
		sc.update(rating, func(c *Card) {
			c.Stability = s.params.initStability(rating)
			c.Difficulty = s.params.initDifficulty(rating)
		})
	}

	sc.update(Again, func(c *Card) {
		c.ScheduledDays = 0
		c.Due = now.Add(1 * time.Minute)
	})
	sc.update(Hard, func(c *Card) {
		c.ScheduledDays = 0
		c.Due = now.Add(5 * time.Minute)
	})
	sc.update(Good, func(c *Card) {
		c.ScheduledDays = 0
		c.Due = now.Add(10 * time.Minute)
	})
	easyInterval := s.params.nextInterval(sc.Cards[Easy].Stability)
	sc.update(Easy, func(c *Card) {
		c.ScheduledDays = easyInterval
		c.Due = now.Add(daysDuration(easyInterval))
	})
}

// scheduleLearning handles reviews from Learning or Relearning. Memory
// state was seeded when the card left New and is carried unchanged; only
// the graduation intervals are computed here.
func (s *Scheduler) scheduleLearning(sc ScheduledCards, now time.Time) {
	goodInterval := s.params.nextInterval(sc.Cards[Good].Stability)
	easyInterval := max(s.params.nextInterval(sc.Cards[Easy].Stability), goodInterval+1)
	s.assignIntervals(sc, now, 0, goodInterval, easyInterval)
}

// scheduleReview handles reviews from the Review state: full memory update
// from the forgetting curve, then intervals ordered Hard < Good < Easy.
func (s *Scheduler) scheduleReview(sc ScheduledCards, reviewed Card, now time.Time) {
	retrievability := reviewed.Retrievability()
	difficulty := reviewed.Difficulty
	stability := reviewed.Stability

	sc.update(Again, func(c *Card) {
		c.Difficulty = s.params.nextDifficulty(difficulty, Again)
		c.Stability = s.params.nextForgetStability(difficulty, stability, retrievability)
	})
	for _, rating := range []Rating{Hard, Good, Easy} {
		sc.update(rating, func(c *Card) {
			c.Difficulty = s.params.nextDifficulty(difficulty, rating)
			c.Stability = s.params.nextRecallStability(difficulty, stability, retrievability, rating)
		})
	}

	hardInterval := s.params.nextInterval(sc.Cards[Hard].Stability)
	goodInterval := s.params.nextInterval(sc.Cards[Good].Stability)
	hardInterval = min(hardInterval, goodInterval)
	goodInterval = max(goodInterval, hardInterval+1)
	easyInterval := max(s.params.nextInterval(sc.Cards[Easy].Stability), goodInterval+1)
	s.assignIntervals(sc, now, hardInterval, goodInterval, easyInterval)
}

// assignIntervals stamps ScheduledDays and Due for every candidate. Again
// always relapses to a short step; Hard falls back to a step when its
// interval collapsed to zero.
func (s *Scheduler) assignIntervals(sc ScheduledCards, now time.Time, hardInterval, goodInterval, easyInterval int64) {
	sc.update(Again, func(c *Card) {
		c.ScheduledDays = 0
		c.Due = now.Add(5 * time.Minute)
	})
	sc.update(Hard, func(c *Card) {
		c.ScheduledDays = hardInterval
		if hardInterval > 0 {
			c.Due = now.Add(daysDuration(hardInterval))
		} else {
			c.Due = now.Add(10 * time.Minute)
		}
	})
	sc.update(Good, func(c *Card) {
		c.ScheduledDays = goodInterval
		c.Due = now.Add(daysDuration(goodInterval))
	})
	sc.update(Easy, func(c *Card) {
		c.ScheduledDays = easyInterval
		c.Due = now.Add(daysDuration(easyInterval))
	})
}

func daysDuration(days int64) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
