package task

import (
	"encoding/json"
	"time"
)

// EventType identifies a lifecycle occurrence in a task's event log.
type EventType string

const (
	EventCreated                EventType = "created"
	EventCompletedOnTime        EventType = "completed_on_time"
	EventCompletedWithExtension EventType = "completed_with_extension"
	EventBacklogged             EventType = "backlogged"
	EventReactivated            EventType = "reactivated"
	EventDelayIncrement         EventType = "delay_increment"
	EventDelayDeadline          EventType = "delay_deadline"
	EventDelayStopwatchStart    EventType = "delay_stopwatch_start"
)

// IsCompletion reports whether the type records a completion.
func (e EventType) IsCompletion() bool {
	return e == EventCompletedOnTime || e == EventCompletedWithExtension
}

// EventDetails is the type-specific payload of a log entry.
// Only the fields relevant to the entry's type are set.
type EventDetails struct {
	UserNotes          string     `json:"userNotes,omitempty"`
	IncrementMinutes   int        `json:"incrementMinutes,omitempty"`
	OldEndTime         string     `json:"oldEndTime,omitempty"`
	NewEndTime         string     `json:"newEndTime,omitempty"`
	OldDeadline        *time.Time `json:"oldDeadline,omitempty"`
	NewDeadline        *time.Time `json:"newDeadline,omitempty"`
	DelayMs            int64      `json:"delayMs,omitempty"`
	PlannedDeadline    *time.Time `json:"plannedDeadline,omitempty"`
	LateMs             int64      `json:"lateMs,omitempty"`
	TimeDifferenceMs   int64      `json:"timeDifferenceMs,omitempty"`
	StopwatchOverrunMs int64      `json:"stopwatchOverrunMs,omitempty"`
	EarnedPoints       *int       `json:"earnedPoints,omitempty"`
	FromStatus         Status     `json:"fromStatus,omitempty"`
}

// LogEntry is one immutable record in the event log.
type LogEntry struct {
	Type      EventType    `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Details   EventDetails `json:"details"`
}

// EventLog is an append-only, insertion-ordered sequence of entries.
type EventLog struct {
	entries []LogEntry
}

// NewEventLog restores a log from persisted entries, keeping their order.
func NewEventLog(entries []LogEntry) EventLog {
	return EventLog{entries: append([]LogEntry(nil), entries...)}
}

func (l *EventLog) append(entry LogEntry) {
	entry.Timestamp = entry.Timestamp.UTC()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the entries in occurrence order.
func (l EventLog) Entries() []LogEntry {
	return append([]LogEntry(nil), l.entries...)
}

// Len is the number of entries.
func (l EventLog) Len() int { return len(l.entries) }

// Last returns the most recent entry.
func (l EventLog) Last() (LogEntry, bool) {
	if len(l.entries) == 0 {
		return LogEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Count returns how many entries have the given type.
func (l EventLog) Count(t EventType) int {
	n := 0
	for _, e := range l.entries {
		if e.Type == t {
			n++
		}
	}
	return n
}

// MarshalJSON encodes the log as a JSON array.
func (l EventLog) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

// UnmarshalJSON decodes a JSON array of entries.
func (l *EventLog) UnmarshalJSON(data []byte) error {
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}
