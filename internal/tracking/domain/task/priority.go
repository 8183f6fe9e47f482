package task

import (
	"strings"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

// Priority classifies a task and fixes its base points.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var basePoints = map[Priority]int{
	PriorityHigh:   100,
	PriorityMedium: 50,
	PriorityLow:    25,
}

// ParsePriority accepts High, Medium or Low in any letter case.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", domain.Validationf(ErrInvalidPriority, "invalid priority %q: allowed values are High, Medium, Low", s)
}

// BasePoints is the score of an on-time completion.
func (p Priority) BasePoints() int { return basePoints[p] }

func (p Priority) String() string { return string(p) }
