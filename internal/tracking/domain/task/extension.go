package task

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
)

// MaxIncrementMinutes caps a single increment at 30 days.
const MaxIncrementMinutes = 30 * 24 * 60

// ExtensionType selects how Extend pushes the deadline.
type ExtensionType string

const (
	ExtensionStopwatchStart ExtensionType = "stopwatch_start"
	ExtensionIncrement      ExtensionType = "increment"
	ExtensionDeadline       ExtensionType = "deadline"
)

// ParseExtensionType accepts stopwatch_start, increment or deadline.
func ParseExtensionType(s string) (ExtensionType, error) {
	switch t := ExtensionType(strings.TrimSpace(s)); t {
	case ExtensionStopwatchStart, ExtensionIncrement, ExtensionDeadline:
		return t, nil
	}
	return "", domain.Validationf(ErrInvalidExtension,
		"invalid extension type %q: allowed values are stopwatch_start, increment, deadline", s)
}

// Extension is a request to delay a task.
// Minutes is read for increment, Deadline for deadline.
type Extension struct {
	Type      ExtensionType
	Minutes   int
	Deadline  time.Time
	UserNotes string
}

// StopwatchStart opens a delay session measured at completion.
func StopwatchStart(notes string) Extension {
	return Extension{Type: ExtensionStopwatchStart, UserNotes: notes}
}

// IncrementBy pushes the deadline by a number of minutes.
func IncrementBy(minutes int, notes string) Extension {
	return Extension{Type: ExtensionIncrement, Minutes: minutes, UserNotes: notes}
}

// MoveDeadlineTo sets an absolute new deadline.
func MoveDeadlineTo(deadline time.Time, notes string) Extension {
	return Extension{Type: ExtensionDeadline, Deadline: deadline, UserNotes: notes}
}

func (e Extension) validate() error {
	switch e.Type {
	case ExtensionStopwatchStart:
		return nil
	case ExtensionIncrement:
		if e.Minutes <= 0 {
			return domain.Validationf(ErrInvalidExtension, "increment must be a positive number of minutes, got %d", e.Minutes)
		}
		if e.Minutes > MaxIncrementMinutes {
			return domain.Validationf(ErrInvalidExtension, "increment of %d minutes exceeds the maximum of %d", e.Minutes, MaxIncrementMinutes)
		}
		return nil
	case ExtensionDeadline:
		if e.Deadline.IsZero() {
			return domain.Validationf(ErrInvalidExtension, "deadline extension requires a target time")
		}
		return nil
	}
	_, err := ParseExtensionType(string(e.Type))
	return err
}
