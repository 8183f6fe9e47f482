// Package persistence stores tasks in SQLite or PostgreSQL.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/schedule"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLTaskRepository implements task.Repository. One row holds a task and its
// whole event log, so a lifecycle change is a single-row write.
type SQLTaskRepository struct {
	conn database.Connection
}

// NewSQLTaskRepository creates a repository over conn.
func NewSQLTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn}
}

const taskColumns = `id, user_id, title, description, priority, base_points, scheduled_date,
	start_time, end_time, status, earned_points, reward_unlocked, motivation_text, reward_info,
	voice_preference, reminder_minutes, repeat_rule, extension_count, total_delay_ms, streak,
	delay_session_start, completed_at, event_log, version, created_at, updated_at`

// The conflict branch only fires for the owner at the expected version;
// otherwise no row comes back and Save reports a concurrent modification.
const upsertTask = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		priority = excluded.priority,
		base_points = excluded.base_points,
		scheduled_date = excluded.scheduled_date,
		start_time = excluded.start_time,
		end_time = excluded.end_time,
		status = excluded.status,
		earned_points = excluded.earned_points,
		reward_unlocked = excluded.reward_unlocked,
		motivation_text = excluded.motivation_text,
		reward_info = excluded.reward_info,
		voice_preference = excluded.voice_preference,
		reminder_minutes = excluded.reminder_minutes,
		repeat_rule = excluded.repeat_rule,
		extension_count = excluded.extension_count,
		total_delay_ms = excluded.total_delay_ms,
		streak = excluded.streak,
		delay_session_start = excluded.delay_session_start,
		completed_at = excluded.completed_at,
		event_log = excluded.event_log,
		version = excluded.version,
		updated_at = excluded.updated_at
	WHERE tasks.version = ? AND tasks.user_id = excluded.user_id
	RETURNING version`

// Save upserts t and advances its version.
func (r *SQLTaskRepository) Save(ctx context.Context, t *task.Task) error {
	s := t.Snapshot()
	eventLog, err := json.Marshal(s.EventLog)
	if err != nil {
		return fmt.Errorf("encode event log: %w", err)
	}
	if len(s.EventLog) == 0 {
		eventLog = []byte("[]")
	}

	var reminder any
	if s.Reminder != nil {
		reminder = *s.Reminder
	}

	next := s.Version + 1
	exec := database.ExecutorFromContext(ctx, r.conn)

	var stored int
	err = exec.QueryRow(ctx, upsertTask,
		s.ID.String(),
		s.UserID.String(),
		s.Title,
		s.Description,
		s.Priority.String(),
		s.BasePoints,
		s.ScheduledDate.Format(schedule.DateLayout),
		s.StartTime,
		s.EndTime,
		s.Status.String(),
		s.EarnedPoints,
		s.RewardUnlocked,
		s.MotivationText,
		s.RewardInfo,
		s.VoicePreference,
		reminder,
		s.Repeat.String(),
		s.ExtensionCount,
		s.TotalDelayMs,
		s.Streak,
		database.NullTimeArg(s.DelaySessionStart),
		database.NullTimeArg(s.CompletedAt),
		string(eventLog),
		next,
		database.TimeArg(s.CreatedAt),
		database.TimeArg(s.UpdatedAt),
		s.Version,
	).Scan(&stored)
	if err != nil {
		if database.IsNoRows(err) {
			return task.ErrConcurrentModification
		}
		return err
	}

	t.MarkSaved(stored)
	return nil
}

// FindByID returns the task owned by userID.
func (r *SQLTaskRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*task.Task, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		id.String(), userID.String())

	t, err := scanTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindAll lists userID's tasks matching filter, newest first.
func (r *SQLTaskRepository) FindAll(ctx context.Context, userID uuid.UUID, filter task.Filter) ([]*task.Task, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID.String()}
	)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		if r.conn.Driver() == database.DriverPostgres {
			where = append(where, "status = ANY(?)")
			args = append(args, pq.Array(statuses))
		} else {
			where = append(where, "status IN ("+placeholders(len(statuses))+")")
			for _, s := range statuses {
				args = append(args, s)
			}
		}
	}
	if filter.ScheduledFrom != nil {
		where = append(where, "scheduled_date >= ?")
		args = append(args, filter.ScheduledFrom.UTC().Format(schedule.DateLayout))
	}
	if filter.ScheduledTo != nil {
		where = append(where, "scheduled_date <= ?")
		args = append(args, filter.ScheduledTo.UTC().Format(schedule.DateLayout))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes the task owned by userID.
func (r *SQLTaskRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	res, err := exec.Exec(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// Summarize groups userID's tasks created at or after since.
func (r *SQLTaskRepository) Summarize(ctx context.Context, userID uuid.UUID, since time.Time) (task.Summary, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	args := []any{userID.String(), database.TimeArg(since)}

	var summary task.Summary

	rows, err := exec.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(earned_points), 0), COALESCE(AVG(earned_points), 0)
		FROM tasks
		WHERE user_id = ? AND created_at >= ?
		GROUP BY status
		ORDER BY status`, args...)
	if err != nil {
		return summary, err
	}
	for rows.Next() {
		var (
			row    task.StatusSummary
			status string
		)
		if err := rows.Scan(&status, &row.Count, &row.TotalPoints, &row.AvgPoints); err != nil {
			rows.Close()
			return summary, err
		}
		row.Status = task.Status(status)
		summary.ByStatus = append(summary.ByStatus, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return summary, err
	}
	rows.Close()

	rows, err = exec.Query(ctx, r.completionQuery(), append(args,
		string(task.EventCompletedOnTime), string(task.EventCompletedWithExtension))...)
	if err != nil {
		return summary, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			row       task.CompletionCount
			eventType string
		)
		if err := rows.Scan(&eventType, &row.Count); err != nil {
			return summary, err
		}
		row.Type = task.EventType(eventType)
		summary.Completions = append(summary.Completions, row)
	}
	return summary, rows.Err()
}

// completionQuery counts completion entries inside the embedded event logs.
func (r *SQLTaskRepository) completionQuery() string {
	if r.conn.Driver() == database.DriverPostgres {
		return `
		SELECT e->>'type' AS event_type, COUNT(*)
		FROM tasks t, jsonb_array_elements(t.event_log) AS e
		WHERE t.user_id = ? AND t.created_at >= ? AND e->>'type' IN (?, ?)
		GROUP BY 1
		ORDER BY 1`
	}
	return `
		SELECT json_extract(e.value, '$.type') AS event_type, COUNT(*)
		FROM tasks t, json_each(t.event_log) AS e
		WHERE t.user_id = ? AND t.created_at >= ? AND json_extract(e.value, '$.type') IN (?, ?)
		GROUP BY 1
		ORDER BY 1`
}

func scanTask(row database.Row) (*task.Task, error) {
	var (
		s                            task.Snapshot
		id, userID                   string
		priority, status, repeatRule string
		scheduledDate                string
		reminder                     *int64
		delaySessionStart            database.NullTime
		completedAt                  database.NullTime
		createdAt, updatedAt         database.NullTime
		eventLog                     string
	)
	err := row.Scan(&id, &userID, &s.Title, &s.Description, &priority, &s.BasePoints, &scheduledDate,
		&s.StartTime, &s.EndTime, &status, &s.EarnedPoints, &s.RewardUnlocked, &s.MotivationText, &s.RewardInfo,
		&s.VoicePreference, &reminder, &repeatRule, &s.ExtensionCount, &s.TotalDelayMs, &s.Streak,
		&delaySessionStart, &completedAt, &eventLog, &s.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if s.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("task id %q: %w", id, err)
	}
	if s.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("task %s user id: %w", id, err)
	}
	date, ok := schedule.ParseDate(scheduledDate)
	if !ok {
		return nil, fmt.Errorf("task %s scheduled date %q is malformed", id, scheduledDate)
	}
	if err := json.Unmarshal([]byte(eventLog), &s.EventLog); err != nil {
		return nil, fmt.Errorf("task %s event log: %w", id, err)
	}

	s.ScheduledDate = date
	s.Priority = task.Priority(priority)
	s.Status = task.Status(status)
	s.Repeat = task.RepeatRule(repeatRule)
	if reminder != nil {
		m := int(*reminder)
		s.Reminder = &m
	}
	s.DelaySessionStart = delaySessionStart.Ptr()
	s.CompletedAt = completedAt.Ptr()
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return task.Rehydrate(s), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
