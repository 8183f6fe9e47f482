package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/tempo/internal/tracking/domain/task"
	"github.com/google/uuid"
)

// Period selects the trailing window of a stats query.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts week, month or all. Empty means week.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodWeek, nil
	case PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("invalid period %q: allowed values are week, month, all", s))
}

// WindowStart returns the earliest createdAt counted for the period.
func (p Period) WindowStart(now time.Time) time.Time {
	switch p {
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodAll:
		return time.Unix(0, 0).UTC()
	}
	return now.AddDate(0, 0, -7)
}

// StatsCachePrefix is the prefix of every cached stats entry of a user.
func StatsCachePrefix(userID uuid.UUID) string {
	return "stats:" + userID.String() + ":"
}

// GetStatsQuery contains the parameters for a stats summary.
type GetStatsQuery struct {
	UserID uuid.UUID
	Period string
}

// StatsDTO summarises a user's tasks created within the period.
type StatsDTO struct {
	Period              string           `json:"period" yaml:"period"`
	Since               time.Time        `json:"since" yaml:"since"`
	Summary             []StatusStatsDTO `json:"summary" yaml:"summary"`
	CompletionBreakdown []CompletionDTO  `json:"completionBreakdown" yaml:"completionBreakdown"`
}

// StatusStatsDTO is one row per status present.
type StatusStatsDTO struct {
	Status      string  `json:"status" yaml:"status"`
	Count       int     `json:"count" yaml:"count"`
	TotalPoints int     `json:"totalPoints" yaml:"totalPoints"`
	AvgPoints   float64 `json:"avgPoints" yaml:"avgPoints"`
}

// CompletionDTO counts completion events of one type.
type CompletionDTO struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// GetStatsHandler handles the GetStatsQuery. Results are cached per user
// and period when a cache is configured.
type GetStatsHandler struct {
	taskRepo task.Repository
	cache    cache.Cache
	ttl      time.Duration
	clock    domain.Clock
	logger   *slog.Logger
}

// NewGetStatsHandler creates a new GetStatsHandler. cache may be nil.
func NewGetStatsHandler(taskRepo task.Repository, c cache.Cache, ttl time.Duration, clock domain.Clock, logger *slog.Logger) *GetStatsHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GetStatsHandler{taskRepo: taskRepo, cache: c, ttl: ttl, clock: clock, logger: logger}
}

// Handle computes or loads the summary.
func (h *GetStatsHandler) Handle(ctx context.Context, query GetStatsQuery) (*StatsDTO, error) {
	period, err := ParsePeriod(query.Period)
	if err != nil {
		return nil, err
	}

	key := StatsCachePrefix(query.UserID) + string(period)
	if cached, ok := h.load(ctx, key); ok {
		return cached, nil
	}

	since := period.WindowStart(h.clock.Now())
	summary, err := h.taskRepo.Summarize(ctx, query.UserID, since)
	if err != nil {
		return nil, domain.Classify(err)
	}

	dto := &StatsDTO{
		Period:              string(period),
		Since:               since,
		Summary:             make([]StatusStatsDTO, 0, len(summary.ByStatus)),
		CompletionBreakdown: make([]CompletionDTO, 0, len(summary.Completions)),
	}
	for _, row := range summary.ByStatus {
		dto.Summary = append(dto.Summary, StatusStatsDTO{
			Status:      row.Status.String(),
			Count:       row.Count,
			TotalPoints: row.TotalPoints,
			AvgPoints:   row.AvgPoints,
		})
	}
	for _, c := range summary.Completions {
		dto.CompletionBreakdown = append(dto.CompletionBreakdown, CompletionDTO{Type: string(c.Type), Count: c.Count})
	}

	h.store(ctx, key, dto)
	return dto, nil
}

func (h *GetStatsHandler) load(ctx context.Context, key string) (*StatsDTO, bool) {
	if h.cache == nil {
		return nil, false
	}
	data, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("stats cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var dto StatsDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		h.logger.Warn("discarding malformed stats cache entry", "key", key, "error", err)
		return nil, false
	}
	return &dto, true
}

func (h *GetStatsHandler) store(ctx context.Context, key string, dto *StatsDTO) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, data, h.ttl); err != nil {
		h.logger.Warn("stats cache write failed", "key", key, "error", err)
	}
}
