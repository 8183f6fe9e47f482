package task

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/points"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/schedule"
	"github.com/google/uuid"
)

// Task is a time-boxed unit of work that earns points when completed.
// All state changes go through the lifecycle methods; each one that changes
// status or the deadline appends exactly one entry to the event log.
type Task struct {
	domain.BaseAggregateRoot
	userID          uuid.UUID
	title           string
	description     string
	priority        Priority
	basePoints      int
	scheduledDate   time.Time
	startTime       string
	endTime         string
	status          Status
	earnedPoints    int
	rewardUnlocked  bool
	completedAt     *time.Time
	motivationText  string
	rewardInfo      string
	reminder        *int
	repeat          RepeatRule
	voicePreference bool

	extensionCount    int
	totalDelay        time.Duration
	streak            int
	delaySessionStart *time.Time

	eventLog EventLog
}

// NewTaskParams holds the fields accepted at creation.
type NewTaskParams struct {
	ID              uuid.UUID // generated when zero
	UserID          uuid.UUID
	Title           string
	Description     string
	Priority        string
	ScheduledDate   time.Time
	StartTime       string
	EndTime         string
	MotivationText  string
	RewardInfo      string
	Reminder        *int
	Repeat          string
	VoicePreference bool
}

// NewTask creates an active task with a single created entry in its log.
func NewTask(p NewTaskParams, now time.Time) (*Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if p.ScheduledDate.IsZero() {
		return nil, ErrMissingScheduledDate
	}
	if err := validateTimeOfDay("startTime", p.StartTime); err != nil {
		return nil, err
	}
	if err := validateTimeOfDay("endTime", p.EndTime); err != nil {
		return nil, err
	}
	priority, err := ParsePriority(p.Priority)
	if err != nil {
		return nil, err
	}
	repeat, err := ParseRepeatRule(p.Repeat)
	if err != nil {
		return nil, err
	}
	if err := validateReminder(p.Reminder); err != nil {
		return nil, err
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRootWithID(id, now),
		userID:            p.UserID,
		title:             title,
		description:       strings.TrimSpace(p.Description),
		priority:          priority,
		basePoints:        priority.BasePoints(),
		scheduledDate:     schedule.NormalizeDate(p.ScheduledDate, time.UTC),
		startTime:         p.StartTime,
		endTime:           p.EndTime,
		status:            StatusActive,
		motivationText:    strings.TrimSpace(p.MotivationText),
		rewardInfo:        strings.TrimSpace(p.RewardInfo),
		reminder:          copyInt(p.Reminder),
		repeat:            repeat,
		voicePreference:   p.VoicePreference,
	}

	t.eventLog.append(LogEntry{Type: EventCreated, Timestamp: now})
	t.AddDomainEvent(&TaskCreated{
		BaseEvent:     t.baseEvent(RoutingKeyCreated, now),
		UserID:        t.userID,
		Title:         t.title,
		Priority:      t.priority.String(),
		ScheduledDate: t.scheduledDate,
	})

	return t, nil
}

// Getters

func (t *Task) UserID() uuid.UUID             { return t.userID }
func (t *Task) Title() string                 { return t.title }
func (t *Task) Description() string           { return t.description }
func (t *Task) Priority() Priority            { return t.priority }
func (t *Task) BasePoints() int               { return t.basePoints }
func (t *Task) ScheduledDate() time.Time      { return t.scheduledDate }
func (t *Task) StartTime() string             { return t.startTime }
func (t *Task) EndTime() string               { return t.endTime }
func (t *Task) Status() Status                { return t.status }
func (t *Task) EarnedPoints() int             { return t.earnedPoints }
func (t *Task) RewardUnlocked() bool          { return t.rewardUnlocked }
func (t *Task) CompletedAt() *time.Time       { return copyTime(t.completedAt) }
func (t *Task) MotivationText() string        { return t.motivationText }
func (t *Task) RewardInfo() string            { return t.rewardInfo }
func (t *Task) Reminder() *int                { return copyInt(t.reminder) }
func (t *Task) Repeat() RepeatRule            { return t.repeat }
func (t *Task) VoicePreference() bool         { return t.voicePreference }
func (t *Task) ExtensionCount() int           { return t.extensionCount }
func (t *Task) TotalDelay() time.Duration     { return t.totalDelay }
func (t *Task) TotalDelayMs() int64           { return t.totalDelay.Milliseconds() }
func (t *Task) Streak() int                   { return t.streak }
func (t *Task) DelaySessionStart() *time.Time { return copyTime(t.delaySessionStart) }
func (t *Task) EventLog() EventLog            { return NewEventLog(t.eventLog.entries) }
func (t *Task) OwnedBy(userID uuid.UUID) bool { return t.userID == userID }
func (t *Task) IsActive() bool                { return t.status == StatusActive }

// Deadline is the planned end instant, if scheduledDate and endTime resolve in loc.
func (t *Task) Deadline(loc *time.Location) (time.Time, bool) {
	return schedule.CombineDateAndTime(t.scheduledDate, t.endTime, loc)
}

// Start is the planned start instant, if it resolves in loc.
func (t *Task) Start(loc *time.Location) (time.Time, bool) {
	return schedule.CombineDateAndTime(t.scheduledDate, t.startTime, loc)
}

// UpdateFields are the general fields Update may change. Nil means unchanged.
type UpdateFields struct {
	Title           *string
	Description     *string
	Priority        *string
	ScheduledDate   *time.Time
	StartTime       *string
	EndTime         *string
	MotivationText  *string
	RewardInfo      *string
	Reminder        *int
	ClearReminder   bool
	Repeat          *string
	VoicePreference *bool
}

// Update merges the allow-listed fields. Status, points, completion and delay
// counters are never touched, and no log entry is appended. Every field is
// validated before any is applied.
func (t *Task) Update(f UpdateFields, now time.Time) ([]string, error) {
	var (
		title    string
		priority Priority
		repeat   RepeatRule
		err      error
	)
	if f.Title != nil {
		if title = strings.TrimSpace(*f.Title); title == "" {
			return nil, ErrEmptyTitle
		}
	}
	if f.Priority != nil {
		if priority, err = ParsePriority(*f.Priority); err != nil {
			return nil, err
		}
	}
	if f.ScheduledDate != nil && f.ScheduledDate.IsZero() {
		return nil, ErrMissingScheduledDate
	}
	if f.StartTime != nil {
		if err := validateTimeOfDay("startTime", *f.StartTime); err != nil {
			return nil, err
		}
	}
	if f.EndTime != nil {
		if err := validateTimeOfDay("endTime", *f.EndTime); err != nil {
			return nil, err
		}
	}
	if f.Repeat != nil {
		if repeat, err = ParseRepeatRule(*f.Repeat); err != nil {
			return nil, err
		}
	}
	if err := validateReminder(f.Reminder); err != nil {
		return nil, err
	}

	var changed []string
	if f.Title != nil {
		t.title = title
		changed = append(changed, "title")
	}
	if f.Description != nil {
		t.description = strings.TrimSpace(*f.Description)
		changed = append(changed, "description")
	}
	if f.Priority != nil {
		t.priority = priority
		t.basePoints = priority.BasePoints()
		changed = append(changed, "priority")
	}
	if f.ScheduledDate != nil {
		t.scheduledDate = schedule.NormalizeDate(*f.ScheduledDate, time.UTC)
		changed = append(changed, "scheduledDate")
	}
	if f.StartTime != nil {
		t.startTime = *f.StartTime
		changed = append(changed, "startTime")
	}
	if f.EndTime != nil {
		t.endTime = *f.EndTime
		changed = append(changed, "endTime")
	}
	if f.MotivationText != nil {
		t.motivationText = strings.TrimSpace(*f.MotivationText)
		changed = append(changed, "motivationText")
	}
	if f.RewardInfo != nil {
		t.rewardInfo = strings.TrimSpace(*f.RewardInfo)
		changed = append(changed, "rewardInfo")
	}
	if f.Reminder != nil || f.ClearReminder {
		t.reminder = copyInt(f.Reminder)
		changed = append(changed, "reminder")
	}
	if f.Repeat != nil {
		t.repeat = repeat
		changed = append(changed, "repeat")
	}
	if f.VoicePreference != nil {
		t.voicePreference = *f.VoicePreference
		changed = append(changed, "voicePreference")
	}

	if len(changed) == 0 {
		return nil, nil
	}
	t.Touch(now)
	t.AddDomainEvent(&TaskUpdated{
		BaseEvent: t.baseEvent(RoutingKeyUpdated, now),
		UserID:    t.userID,
		Fields:    changed,
	})
	return changed, nil
}

// Extend delays an active task. A stopwatch start opens a delay session;
// increment and deadline extensions move the deadline, add the difference to
// the total delay and rewrite scheduledDate and endTime in loc.
func (t *Task) Extend(ext Extension, now time.Time, loc *time.Location) error {
	if _, err := t.status.Next(TransitionExtend); err != nil {
		return err
	}
	if err := ext.validate(); err != nil {
		return err
	}

	if ext.Type == ExtensionStopwatchStart {
		if t.delaySessionStart != nil {
			return domain.Conflictf(ErrStopwatchRunning, "stopwatch session already open since %s",
				t.delaySessionStart.Format(time.RFC3339))
		}
		start := now.UTC()
		t.delaySessionStart = &start
		details := EventDetails{UserNotes: ext.UserNotes}
		if deadline, ok := t.Deadline(loc); ok {
			d := deadline.UTC()
			details.PlannedDeadline = &d
			details.TimeDifferenceMs = now.Sub(deadline).Milliseconds()
		}
		t.recordExtension(EventDelayStopwatchStart, ext.Type, details, 0, now)
		return nil
	}

	oldDeadline, ok := t.Deadline(loc)
	if !ok {
		return domain.Validationf(ErrNoDeadline, "cannot extend task: %s", ErrNoDeadline)
	}

	var (
		newDeadline time.Time
		entryType   EventType
	)
	switch ext.Type {
	case ExtensionIncrement:
		newDeadline = oldDeadline.Add(time.Duration(ext.Minutes) * time.Minute)
		entryType = EventDelayIncrement
	case ExtensionDeadline:
		// endTime holds minutes only, so seconds in the target would be lost on save.
		newDeadline = schedule.TruncateToMinute(ext.Deadline, loc)
		entryType = EventDelayDeadline
	}
	if !newDeadline.After(oldDeadline) {
		return domain.Validationf(ErrDeadlineNotLater, "new deadline %s must be after current deadline %s",
			newDeadline.UTC().Format(time.RFC3339), oldDeadline.UTC().Format(time.RFC3339))
	}

	delay := newDeadline.Sub(oldDeadline)
	oldEnd := t.endTime
	t.totalDelay += delay
	t.scheduledDate = schedule.NormalizeDate(newDeadline, loc)
	t.endTime = schedule.ExtractTimeString(newDeadline, loc)
	t.extensionCount++

	oldUTC, newUTC := oldDeadline.UTC(), newDeadline.UTC()
	details := EventDetails{
		UserNotes:        ext.UserNotes,
		OldEndTime:       oldEnd,
		NewEndTime:       t.endTime,
		OldDeadline:      &oldUTC,
		NewDeadline:      &newUTC,
		DelayMs:          delay.Milliseconds(),
		PlannedDeadline:  &oldUTC,
		TimeDifferenceMs: now.Sub(oldDeadline).Milliseconds(),
	}
	if ext.Type == ExtensionIncrement {
		details.IncrementMinutes = ext.Minutes
	}
	t.recordExtension(entryType, ext.Type, details, delay, now)
	return nil
}

func (t *Task) recordExtension(entryType EventType, extType ExtensionType, details EventDetails, delay time.Duration, now time.Time) {
	t.eventLog.append(LogEntry{Type: entryType, Timestamp: now, Details: details})
	t.Touch(now)
	t.AddDomainEvent(&TaskExtended{
		BaseEvent:     t.baseEvent(RoutingKeyExtended, now),
		UserID:        t.userID,
		ExtensionType: string(extType),
		DelayMs:       delay.Milliseconds(),
	})
}

// Complete finishes an active task at now. An open stopwatch session is
// closed and its elapsed time added to the total delay. The completion is
// on time only if it lands within the grace period of the planned deadline
// (or there is none) and the task was never delayed.
func (t *Task) Complete(now time.Time, loc *time.Location) error {
	next, err := t.status.Next(TransitionComplete)
	if err != nil {
		return err
	}

	details := EventDetails{}
	if t.delaySessionStart != nil {
		if overrun := now.Sub(*t.delaySessionStart); overrun > 0 {
			t.totalDelay += overrun
			details.StopwatchOverrunMs = overrun.Milliseconds()
		}
		t.delaySessionStart = nil
	}

	var deadlinePtr *time.Time
	withinGrace := true
	if deadline, ok := t.Deadline(loc); ok {
		d := deadline.UTC()
		deadlinePtr = &d
		details.PlannedDeadline = &d
		if late := now.Sub(deadline); late > 0 {
			details.LateMs = late.Milliseconds()
		}
		withinGrace = !now.After(deadline.Add(points.GracePeriod))
	}
	onTime := withinGrace && t.totalDelay == 0

	earned := points.Calculate(t.basePoints, deadlinePtr, now)
	details.EarnedPoints = &earned
	details.DelayMs = t.totalDelay.Milliseconds()

	completedAt := now.UTC()
	t.status = next
	t.earnedPoints = earned
	t.rewardUnlocked = earned > 0
	t.completedAt = &completedAt
	if onTime {
		t.streak++
	} else {
		t.streak = 0
	}

	entryType := EventCompletedWithExtension
	if onTime {
		entryType = EventCompletedOnTime
	}
	t.eventLog.append(LogEntry{Type: entryType, Timestamp: now, Details: details})
	t.Touch(now)
	t.AddDomainEvent(&TaskCompleted{
		BaseEvent:    t.baseEvent(RoutingKeyCompleted, now),
		UserID:       t.userID,
		OnTime:       onTime,
		EarnedPoints: earned,
		Streak:       t.streak,
		Repeat:       t.repeat.String(),
	})
	return nil
}

// Backlog parks an active task, forfeiting points and the streak.
// An open stopwatch session is discarded.
func (t *Task) Backlog(now time.Time) error {
	next, err := t.status.Next(TransitionBacklog)
	if err != nil {
		return err
	}

	t.status = next
	t.earnedPoints = 0
	t.rewardUnlocked = false
	t.streak = 0
	t.delaySessionStart = nil

	t.eventLog.append(LogEntry{Type: EventBacklogged, Timestamp: now})
	t.Touch(now)
	t.AddDomainEvent(&TaskBacklogged{
		BaseEvent: t.baseEvent(RoutingKeyBacklogged, now),
		UserID:    t.userID,
	})
	return nil
}

// Reactivate returns a completed or backlogged task to active, clearing the
// completion and its reward.
func (t *Task) Reactivate(now time.Time) error {
	from := t.status
	next, err := from.Next(TransitionReactivate)
	if err != nil {
		return err
	}

	t.status = next
	t.completedAt = nil
	t.earnedPoints = 0
	t.rewardUnlocked = false

	t.eventLog.append(LogEntry{Type: EventReactivated, Timestamp: now, Details: EventDetails{FromStatus: from}})
	t.Touch(now)
	t.AddDomainEvent(&TaskReactivated{
		BaseEvent:  t.baseEvent(RoutingKeyReactivated, now),
		UserID:     t.userID,
		FromStatus: from.String(),
	})
	return nil
}

// MarkDeleted records the deletion for publication. The log is not touched
// because the task ceases to exist.
func (t *Task) MarkDeleted(now time.Time) {
	t.AddDomainEvent(&TaskDeleted{
		BaseEvent: t.baseEvent(RoutingKeyDeleted, now),
		UserID:    t.userID,
	})
}

// NextOccurrence builds the following instance of a repeating task, or
// returns false when the task does not repeat. The new task's ID is derived
// from this task and the next date, so building it twice yields the same ID.
func (t *Task) NextOccurrence(now time.Time) (*Task, bool, error) {
	date, ok := t.repeat.NextDate(t.scheduledDate)
	if !ok {
		return nil, false, nil
	}
	next, err := NewTask(NewTaskParams{
		ID:              uuid.NewSHA1(t.ID(), []byte(date.Format(schedule.DateLayout))),
		UserID:          t.userID,
		Title:           t.title,
		Description:     t.description,
		Priority:        t.priority.String(),
		ScheduledDate:   date,
		StartTime:       t.startTime,
		EndTime:         t.endTime,
		MotivationText:  t.motivationText,
		RewardInfo:      t.rewardInfo,
		Reminder:        t.reminder,
		Repeat:          t.repeat.String(),
		VoicePreference: t.voicePreference,
	}, now)
	if err != nil {
		return nil, false, err
	}
	return next, true, nil
}

func validateTimeOfDay(field, value string) error {
	if !schedule.ValidTimeString(value) {
		return domain.Validationf(ErrInvalidTimeFormat, "%s must be a 24-hour HH:mm time, got %q", field, value)
	}
	return nil
}

func validateReminder(minutes *int) error {
	if minutes != nil && *minutes < 0 {
		return domain.Validationf(ErrInvalidReminder, "reminder must be zero or more minutes before start, got %d", *minutes)
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
