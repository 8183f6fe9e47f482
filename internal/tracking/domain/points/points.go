// Package points scores a completion against its deadline.
package points

import "time"

const (
	// GracePeriod is the lateness tolerated without any penalty.
	GracePeriod = 5 * time.Minute
	// PenaltyStep is the block of lateness that costs PenaltyPercentPerStep.
	PenaltyStep = 30 * time.Minute
	// PenaltyPercentPerStep is deducted for every full PenaltyStep late.
	PenaltyPercentPerStep = 10
	// MaxPenaltyPercent caps the deduction.
	MaxPenaltyPercent = 90
)

// Calculate returns the points earned for completing at completedAt.
// A nil deadline earns basePoints. The result is never negative.
func Calculate(basePoints int, deadline *time.Time, completedAt time.Time) int {
	if deadline == nil {
		return max(basePoints, 0)
	}
	late := completedAt.Sub(*deadline)
	if late <= GracePeriod {
		return max(basePoints, 0)
	}

	penalty := PenaltyPercent(late)
	return max(roundPercent(basePoints, 100-penalty), 0)
}

// PenaltyPercent is the deduction applied for the given lateness.
func PenaltyPercent(late time.Duration) int {
	if late <= GracePeriod {
		return 0
	}
	steps := int64(late / PenaltyStep)
	if steps*PenaltyPercentPerStep >= MaxPenaltyPercent {
		return MaxPenaltyPercent
	}
	return int(steps) * PenaltyPercentPerStep
}

// roundPercent computes round(value * percent / 100) with halves rounded away from zero.
func roundPercent(value, percent int) int {
	scaled := value * percent
	if scaled >= 0 {
		return (scaled + 50) / 100
	}
	return (scaled - 50) / 100
}
