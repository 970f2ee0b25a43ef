package match

// Feedback supplies a learned confidence penalty for items that past runs
// flagged as recurring false positives. Implementations must be safe for
// concurrent use; scoring consults them from multiple workers.
type Feedback interface {
	// Penalty returns a value in [0, 1] subtracted from the item's score
	// before clamping. Zero means no adjustment.
	Penalty(itemID string) float64
}

// NoFeedback is the neutral Feedback used when no correction history
// exists.
type NoFeedback struct{}

// Penalty always returns 0.
func (NoFeedback) Penalty(string) float64 { return 0 }

// StaticFeedback applies fixed per-item penalties, typically loaded from a
// corrections file curated by hand.
type StaticFeedback map[string]float64

// Penalty returns the configured penalty for the item, or 0.
func (f StaticFeedback) Penalty(itemID string) float64 { return f[itemID] }
