package task

import (
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/google/uuid"
)

// Snapshot is the full persisted state of a task.
type Snapshot struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Title             string
	Description       string
	Priority          Priority
	BasePoints        int
	ScheduledDate     time.Time
	StartTime         string
	EndTime           string
	Status            Status
	EarnedPoints      int
	RewardUnlocked    bool
	CompletedAt       *time.Time
	MotivationText    string
	RewardInfo        string
	Reminder          *int
	Repeat            RepeatRule
	VoicePreference   bool
	ExtensionCount    int
	TotalDelayMs      int64
	Streak            int
	DelaySessionStart *time.Time
	EventLog          []LogEntry
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Snapshot captures the current state.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:                t.ID(),
		UserID:            t.userID,
		Title:             t.title,
		Description:       t.description,
		Priority:          t.priority,
		BasePoints:        t.basePoints,
		ScheduledDate:     t.scheduledDate,
		StartTime:         t.startTime,
		EndTime:           t.endTime,
		Status:            t.status,
		EarnedPoints:      t.earnedPoints,
		RewardUnlocked:    t.rewardUnlocked,
		CompletedAt:       copyTime(t.completedAt),
		MotivationText:    t.motivationText,
		RewardInfo:        t.rewardInfo,
		Reminder:          copyInt(t.reminder),
		Repeat:            t.repeat,
		VoicePreference:   t.voicePreference,
		ExtensionCount:    t.extensionCount,
		TotalDelayMs:      t.totalDelay.Milliseconds(),
		Streak:            t.streak,
		DelaySessionStart: copyTime(t.delaySessionStart),
		EventLog:          t.eventLog.Entries(),
		Version:           t.Version(),
		CreatedAt:         t.CreatedAt(),
		UpdatedAt:         t.UpdatedAt(),
	}
}

// Rehydrate rebuilds a task from stored state without recording events.
func Rehydrate(s Snapshot) *Task {
	repeat := s.Repeat
	if repeat == "" {
		repeat = RepeatNone
	}
	return &Task{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(
			domain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt), s.Version),
		userID:            s.UserID,
		title:             s.Title,
		description:       s.Description,
		priority:          s.Priority,
		basePoints:        s.BasePoints,
		scheduledDate:     s.ScheduledDate.UTC(),
		startTime:         s.StartTime,
		endTime:           s.EndTime,
		status:            s.Status,
		earnedPoints:      s.EarnedPoints,
		rewardUnlocked:    s.RewardUnlocked,
		completedAt:       utcPtr(s.CompletedAt),
		motivationText:    s.MotivationText,
		rewardInfo:        s.RewardInfo,
		reminder:          copyInt(s.Reminder),
		repeat:            repeat,
		voicePreference:   s.VoicePreference,
		extensionCount:    s.ExtensionCount,
		totalDelay:        time.Duration(s.TotalDelayMs) * time.Millisecond,
		streak:            s.Streak,
		delaySessionStart: utcPtr(s.DelaySessionStart),
		eventLog:          NewEventLog(s.EventLog),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
