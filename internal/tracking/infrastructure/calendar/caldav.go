package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
)

// PushResult counts what a push changed on the server.
type PushResult struct {
	Created int `json:"created" yaml:"created"`
	Updated int `json:"updated" yaml:"updated"`
	Deleted int `json:"deleted" yaml:"deleted"`
	Failed  int `json:"failed" yaml:"failed"`
}

// CalDAVConfig configures a CalDAVPusher.
type CalDAVConfig struct {
	URL      string
	Username string
	Password string
	// CalendarPath selects a calendar collection. Empty means the first
	// calendar of the principal's home set.
	CalendarPath string
	// DeleteMissing removes tempo events that are no longer exported.
	DeleteMissing bool
	Timeout       time.Duration
}

// CalDAVPusher writes task events into a CalDAV calendar
// (Nextcloud, Fastmail, iCloud and the like).
type CalDAVPusher struct {
	cfg    CalDAVConfig
	client *caldav.Client
	logger *slog.Logger
}

// NewCalDAVPusher creates a pusher. No request is made until Push.
func NewCalDAVPusher(cfg CalDAVConfig, logger *slog.Logger) (*CalDAVPusher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("caldav url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	var httpClient webdav.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.Username != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, cfg.Username, cfg.Password)
	}
	client, err := caldav.NewClient(httpClient, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}
	return &CalDAVPusher{cfg: cfg, client: client, logger: logger}, nil
}

// Push upserts one calendar object per entry, named after the task id.
func (p *CalDAVPusher) Push(ctx context.Context, entries []queries.CalendarEntry) (PushResult, error) {
	var result PushResult

	calPath, err := p.calendarPath(ctx)
	if err != nil {
		return result, err
	}

	now := time.Now().UTC()
	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		objPath := objectPath(calPath, e.TaskID.String())
		keep[objPath] = struct{}{}

		cal := newCalendar()
		cal.Children = append(cal.Children, newEvent(e, now).Component)

		_, getErr := p.client.GetCalendarObject(ctx, objPath)
		if _, err := p.client.PutCalendarObject(ctx, objPath, cal); err != nil {
			p.logger.Warn("caldav put failed", "path", objPath, "error", err)
			result.Failed++
			continue
		}
		if getErr == nil {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if p.cfg.DeleteMissing {
		deleted, err := p.deleteMissing(ctx, calPath, keep)
		if err != nil {
			p.logger.Warn("caldav cleanup failed", "calendar", calPath, "error", err)
		}
		result.Deleted = deleted
	}
	return result, nil
}

func (p *CalDAVPusher) calendarPath(ctx context.Context) (string, error) {
	if p.cfg.CalendarPath != "" {
		return ensureTrailingSlash(p.cfg.CalendarPath), nil
	}

	principal, err := p.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := p.client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("find calendar home set: %w", err)
	}
	cals, err := p.client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found for %s", principal)
	}
	return ensureTrailingSlash(cals[0].Path), nil
}

func (p *CalDAVPusher) deleteMissing(ctx context.Context, calPath string, keep map[string]struct{}) (int, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:  ical.CompEvent,
				Props: []string{ical.PropUID, PropXTempo},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompEvent}},
		},
	}
	objects, err := p.client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if obj.Data == nil || !hasTempoEvent(obj.Data) {
			continue
		}
		if _, ok := keep[obj.Path]; ok {
			continue
		}
		if err := p.client.RemoveAll(ctx, obj.Path); err != nil {
			p.logger.Warn("caldav delete failed", "path", obj.Path, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func hasTempoEvent(cal *ical.Calendar) bool {
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent && isTempoEvent(child) {
			return true
		}
	}
	return false
}

func objectPath(calPath, taskID string) string {
	return ensureTrailingSlash(calPath) + taskID + ".ics"
}

func ensureTrailingSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
