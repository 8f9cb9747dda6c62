package fsrs

import "fmt"

// Parameters holds the 17 FSRS-4.5 model weights and the scheduling policy
// limits. Construct once and treat as read-only; the scheduler never
// mutates it.
type Parameters struct {
	// RequestRetention is the target recall probability at review time,
	// a fraction in (0, 1].
	RequestRetention float64

	// MaximumInterval caps the number of days until a card is next due.
	MaximumInterval int

	// W are the model weights:
	//   w[0..3]   initial stability per first rating
	//   w[4..6]   initial difficulty and its rating slope
	//   w[7]      difficulty mean reversion
	//   w[8..10]  stability growth on successful recall
	//   w[11..14] stability after forgetting
	//   w[15]     hard penalty, w[16] easy bonus
	W [17]float64
}

// DefaultParameters returns the stock FSRS-4.5 weights with a 90% retention
// target and a 100-year interval cap.
func DefaultParameters() Parameters {
	return Parameters{
		RequestRetention: 0.9,
		MaximumInterval:  36500,
		W: [17]float64{
			0.4, 0.6, 2.4, 5.8, 4.93, 0.94, 0.86, 0.01, 1.49, 0.14, 0.94,
			2.18, 0.05, 0.34, 1.26, 0.29, 2.61,
		},
	}
}

// Validate checks the policy fields. The weight vector itself is accepted
// as-is: its length is enforced by the array type, and weight semantics are
// the optimizer's contract, not ours.
func (p Parameters) Validate() error {
	if p.RequestRetention <= 0 || p.RequestRetention > 1 {
		return fmt.Errorf("fsrs: request retention %v out of range (0, 1]", p.RequestRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("fsrs: maximum interval %d must be at least 1 day", p.MaximumInterval)
	}
	return nil
}
