package fsrs

import "math"

// The FSRS-4.5 memory formulas, each expressed as a method on Parameters.
// Stability is measured in days; difficulty lives on a [1, 10] scale.

// initStability returns the stability after a first review,
// S0(G) = w[G-1], floored at 0.1.
func (p Parameters) initStability(rating Rating) float64 {
	return math.Max(p.W[rating-1], 0.1)
}

// initDifficulty returns the difficulty after a first review,
// D0(G) = w[4] - w[5]*(G-3), clamped to [1, 10].
func (p Parameters) initDifficulty(rating Rating) float64 {
	return clampDifficulty(p.W[4] - p.W[5]*float64(rating-3))
}

// nextDifficulty updates difficulty after a later review. The raw delta
// -w[6]*(G-3) is pulled back toward the default-difficulty anchor w[4] by
// the mean-reversion weight w[7], then clamped.
func (p Parameters) nextDifficulty(difficulty float64, rating Rating) float64 {
	next := difficulty - p.W[6]*float64(rating-3)
	reverted := p.W[7]*p.W[4] + (1-p.W[7])*next
	return clampDifficulty(reverted)
}

// nextRecallStability grows stability after a successful recall
// (Hard, Good, or Easy):
//
//	S' = S * (1 + e^w[8] * (11-D) * S^-w[9] * (e^((1-R)*w[10]) - 1) * hard * easy)
//
// where hard = w[15] for Hard reviews and easy = w[16] for Easy reviews.
func (p Parameters) nextRecallStability(difficulty, stability, retrievability float64, rating Rating) float64 {
	hardPenalty := 1.0
	if rating == Hard {
		hardPenalty = p.W[15]
	}
	easyBonus := 1.0
	if rating == Easy {
		easyBonus = p.W[16]
	}
	return stability * (1 +
		math.Exp(p.W[8])*
			(11-difficulty)*
			math.Pow(stability, -p.W[9])*
			(math.Exp((1-retrievability)*p.W[10])-1)*
			hardPenalty*
			easyBonus)
}

// nextForgetStability computes the post-lapse stability after an Again:
//
//	S' = w[11] * D^-w[12] * ((S+1)^w[13] - 1) * e^((1-R)*w[14])
func (p Parameters) nextForgetStability(difficulty, stability, retrievability float64) float64 {
	return p.W[11] *
		math.Pow(difficulty, -p.W[12]) *
		(math.Pow(stability+1, p.W[13]) - 1) *
		math.Exp((1-retrievability)*p.W[14])
}

// nextInterval converts stability into the number of days until the card
// decays to the target retention, clamped to [1, MaximumInterval]:
//
//	I(S) = round(9 * S * (1/requestRetention - 1))
func (p Parameters) nextInterval(stability float64) int64 {
	interval := 9 * stability * (1/p.RequestRetention - 1)
	rounded := int64(math.Round(interval))
	if rounded < 1 {
		rounded = 1
	}
	if rounded > int64(p.MaximumInterval) {
		rounded = int64(p.MaximumInterval)
	}
	return rounded
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
