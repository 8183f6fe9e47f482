// Package calendar renders tasks as iCalendar events and pushes them to CalDAV servers.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
)

// ProductID identifies the generator in exported calendars.
const ProductID = "-//Tempo//Task Export//EN"

// PropXTempo marks events created by tempo so a push only touches its own events.
const PropXTempo = "X-TEMPO"

// PropXTempoPoints carries the points earned for a completed task.
const PropXTempoPoints = "X-TEMPO-POINTS"

// NewCalendar builds one VCALENDAR holding a VEVENT per entry.
func NewCalendar(entries []queries.CalendarEntry, now time.Time) *ical.Calendar {
	cal := newCalendar()
	for _, e := range entries {
		cal.Children = append(cal.Children, newEvent(e, now).Component)
	}
	return cal
}

// Encode writes the entries as an iCalendar feed.
func Encode(w io.Writer, entries []queries.CalendarEntry, now time.Time) error {
	cal := NewCalendar(entries, now)
	if len(entries) == 0 {
		// An empty feed is written directly; there is no VEVENT to encode.
		_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:"+ProductID+"\r\nEND:VCALENDAR\r\n")
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

// Decode reads entries back from an iCalendar feed. Only events carrying
// PropXTempo are returned.
func Decode(r io.Reader) ([]queries.CalendarEntry, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	var entries []queries.CalendarEntry
	for _, ev := range cal.Events() {
		if !isTempoEvent(ev.Component) {
			continue
		}
		entry, err := entryFromEvent(ev)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	return cal
}

func newEvent(e queries.CalendarEntry, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, e.TaskID.String())
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
	event.Props.SetDateTime(ical.PropLastModified, e.UpdatedAt.UTC())
	event.Props.SetText(ical.PropSummary, e.Title)
	event.Props.SetText(ical.PropDescription, description(e))
	event.Props.SetText(ical.PropStatus, eventStatus(e.Status))
	event.Props.SetText(ical.PropCategories, e.Priority)

	if rule := recurrenceRule(e.Repeat); rule != "" {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rule
		event.Props.Set(prop)
	}

	marker := ical.NewProp(PropXTempo)
	marker.Value = "1"
	event.Props.Set(marker)

	if e.Status == "completed" {
		points := ical.NewProp(PropXTempoPoints)
		points.Value = fmt.Sprint(e.EarnedPoints)
		event.Props.Set(points)
	}

	if e.Reminder != nil {
		event.Children = append(event.Children, reminderAlarm(e, *e.Reminder))
	}
	return event
}

func reminderAlarm(e queries.CalendarEntry, minutes int) *ical.Component {
	alarm := ical.NewComponent(ical.CompAlarm)
	alarm.Props.SetText(ical.PropAction, "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, e.Title)
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", minutes)
	alarm.Props.Set(trigger)
	return alarm
}

func description(e queries.CalendarEntry) string {
	var b strings.Builder
	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Priority: %s\nStatus: %s", e.Priority, e.Status)
	if e.Status == "completed" {
		fmt.Fprintf(&b, "\nPoints: %d", e.EarnedPoints)
	}
	if e.MotivationText != "" {
		fmt.Fprintf(&b, "\nMotivation: %s", e.MotivationText)
	}
	if e.RewardInfo != "" {
		fmt.Fprintf(&b, "\nReward: %s", e.RewardInfo)
	}
	return b.String()
}

func eventStatus(status string) string {
	switch status {
	case "completed":
		return "CONFIRMED"
	case "backlog":
		return "CANCELLED"
	}
	return "TENTATIVE"
}

func recurrenceRule(repeat string) string {
	switch repeat {
	case "daily":
		return "FREQ=DAILY"
	case "weekly":
		return "FREQ=WEEKLY"
	case "monthly":
		return "FREQ=MONTHLY"
	}
	return ""
}

func isTempoEvent(c *ical.Component) bool {
	if c == nil {
		return false
	}
	prop := c.Props.Get(PropXTempo)
	return prop != nil && prop.Value == "1"
}

func entryFromEvent(ev ical.Event) (queries.CalendarEntry, error) {
	var entry queries.CalendarEntry

	uid, err := ev.Props.Text(ical.PropUID)
	if err != nil {
		return entry, err
	}
	if entry.TaskID, err = parseUID(uid); err != nil {
		return entry, err
	}
	if entry.Title, err = ev.Props.Text(ical.PropSummary); err != nil {
		return entry, err
	}
	if entry.Start, err = ev.DateTimeStart(time.UTC); err != nil {
		return entry, err
	}
	if entry.End, err = ev.DateTimeEnd(time.UTC); err != nil {
		return entry, err
	}
	if cat := ev.Props.Get(ical.PropCategories); cat != nil {
		entry.Priority = cat.Value
	}
	switch status, _ := ev.Props.Text(ical.PropStatus); status {
	case "CONFIRMED":
		entry.Status = "completed"
	case "CANCELLED":
		entry.Status = "backlog"
	default:
		entry.Status = "active"
	}
	if p := ev.Props.Get(PropXTempoPoints); p != nil {
		_, _ = fmt.Sscan(p.Value, &entry.EarnedPoints)
	}
	return entry, nil
}
