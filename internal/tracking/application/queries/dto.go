package queries

import (
	"time"

	"github.com/felixgeelhaar/tempo/internal/tracking/domain/schedule"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// TaskDTO is the serialisable view of a task.
type TaskDTO struct {
	ID                uuid.UUID  `json:"id" yaml:"id"`
	UserID            uuid.UUID  `json:"userId" yaml:"userId"`
	Title             string     `json:"title" yaml:"title"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty"`
	Priority          string     `json:"priority" yaml:"priority"`
	BasePoints        int        `json:"basePoints" yaml:"basePoints"`
	ScheduledDate     string     `json:"scheduledDate" yaml:"scheduledDate"`
	StartTime         string     `json:"startTime" yaml:"startTime"`
	EndTime           string     `json:"endTime" yaml:"endTime"`
	Deadline          *time.Time `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Status            string     `json:"status" yaml:"status"`
	EarnedPoints      int        `json:"earnedPoints" yaml:"earnedPoints"`
	RewardUnlocked    bool       `json:"rewardUnlocked" yaml:"rewardUnlocked"`
	CompletedAt       *time.Time `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	MotivationText    string     `json:"motivationText,omitempty" yaml:"motivationText,omitempty"`
	RewardInfo        string     `json:"rewardInfo,omitempty" yaml:"rewardInfo,omitempty"`
	Reminder          *int       `json:"reminder,omitempty" yaml:"reminder,omitempty"`
	Repeat            string     `json:"repeat" yaml:"repeat"`
	VoicePreference   bool       `json:"voicePreference" yaml:"voicePreference"`
	ExtensionCount    int        `json:"extensionCount" yaml:"extensionCount"`
	TotalDelayMs      int64      `json:"totalDelayMs" yaml:"totalDelayMs"`
	Streak            int        `json:"streak" yaml:"streak"`
	DelaySessionStart *time.Time `json:"delaySessionStart,omitempty" yaml:"delaySessionStart,omitempty"`
	EventLog          []EventDTO `json:"eventLog" yaml:"eventLog"`
	Version           int        `json:"version" yaml:"version"`
	CreatedAt         time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// EventDTO is one event log entry.
type EventDTO struct {
	Type      string         `json:"type" yaml:"type"`
	Timestamp time.Time      `json:"timestamp" yaml:"timestamp"`
	Details   map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// ToTaskDTO maps a task. The deadline is resolved in loc.
func ToTaskDTO(t *task.Task, loc *time.Location) TaskDTO {
	dto := TaskDTO{
		ID:                t.ID(),
		UserID:            t.UserID(),
		Title:             t.Title(),
		Description:       t.Description(),
		Priority:          t.Priority().String(),
		BasePoints:        t.BasePoints(),
		ScheduledDate:     t.ScheduledDate().Format(schedule.DateLayout),
		StartTime:         t.StartTime(),
		EndTime:           t.EndTime(),
		Status:            t.Status().String(),
		EarnedPoints:      t.EarnedPoints(),
		RewardUnlocked:    t.RewardUnlocked(),
		CompletedAt:       t.CompletedAt(),
		MotivationText:    t.MotivationText(),
		RewardInfo:        t.RewardInfo(),
		Reminder:          t.Reminder(),
		Repeat:            t.Repeat().String(),
		VoicePreference:   t.VoicePreference(),
		ExtensionCount:    t.ExtensionCount(),
		TotalDelayMs:      t.TotalDelayMs(),
		Streak:            t.Streak(),
		DelaySessionStart: t.DelaySessionStart(),
		Version:           t.Version(),
		CreatedAt:         t.CreatedAt(),
		UpdatedAt:         t.UpdatedAt(),
	}
	if d, ok := t.Deadline(loc); ok {
		dto.Deadline = &d
	}

	entries := t.EventLog().Entries()
	dto.EventLog = make([]EventDTO, len(entries))
	for i, e := range entries {
		dto.EventLog[i] = EventDTO{
			Type:      string(e.Type),
			Timestamp: e.Timestamp,
			Details:   detailsMap(e.Details),
		}
	}
	return dto
}

// ToTaskDTOs maps a slice of tasks.
func ToTaskDTOs(tasks []*task.Task, loc *time.Location) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskDTO(t, loc)
	}
	return out
}

func detailsMap(d task.EventDetails) map[string]any {
	m := make(map[string]any)
	if d.UserNotes != "" {
		m["userNotes"] = d.UserNotes
	}
	if d.IncrementMinutes != 0 {
		m["incrementMinutes"] = d.IncrementMinutes
	}
	if d.OldEndTime != "" {
		m["oldEndTime"] = d.OldEndTime
	}
	if d.NewEndTime != "" {
		m["newEndTime"] = d.NewEndTime
	}
	if d.OldDeadline != nil {
		m["oldDeadline"] = *d.OldDeadline
	}
	if d.NewDeadline != nil {
		m["newDeadline"] = *d.NewDeadline
	}
	if d.PlannedDeadline != nil {
		m["plannedDeadline"] = *d.PlannedDeadline
	}
	if d.DelayMs != 0 {
		m["delayMs"] = d.DelayMs
	}
	if d.EarnedPoints != nil {
		m["earnedPoints"] = *d.EarnedPoints
	}
	if d.LateMs != 0 {
		m["lateMs"] = d.LateMs
	}
	if d.StopwatchOverrunMs != 0 {
		m["stopwatchOverrunMs"] = d.StopwatchOverrunMs
	}
	if d.FromStatus != "" {
		m["fromStatus"] = string(d.FromStatus)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
