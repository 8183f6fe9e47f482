package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/tempo/internal/shared/domain"
	"github.com/felixgeelhaar/tempo/internal/tracking/application/queries"
)

// Format selects how command results are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func parseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("--output must be text, json or yaml, got %q", s))
}

// OutputFormat returns the format chosen with --output.
func OutputFormat() Format {
	f, err := parseFormat(outputFormat)
	if err != nil {
		return FormatText
	}
	return f
}

// Render writes v in the --output format. text renders the human format.
func Render(w io.Writer, v any, text func(w io.Writer) error) error {
	return RenderAs(w, OutputFormat(), v, text)
}

// RenderAs writes v as JSON or YAML, or calls text for FormatText.
func RenderAs(w io.Writer, format Format, v any, text func(w io.Writer) error) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// PrintTask writes the human summary of one task.
func PrintTask(w io.Writer, t queries.TaskDTO) {
	fmt.Fprintf(w, "%s %s %s\n", statusIcon(t.Status), t.Title, priorityBadge(t.Priority))
	fmt.Fprintf(w, "   ID:       %s\n", t.ID)
	fmt.Fprintf(w, "   When:     %s %s-%s\n", t.ScheduledDate, t.StartTime, t.EndTime)
	fmt.Fprintf(w, "   Status:   %s\n", t.Status)
	fmt.Fprintf(w, "   Points:   %d/%d", t.EarnedPoints, t.BasePoints)
	if t.RewardUnlocked {
		fmt.Fprint(w, " (reward unlocked)")
	}
	fmt.Fprintln(w)
	if t.Streak > 0 {
		fmt.Fprintf(w, "   Streak:   %d\n", t.Streak)
	}
	if t.ExtensionCount > 0 {
		fmt.Fprintf(w, "   Extended: %d time(s), %d min total\n", t.ExtensionCount, t.TotalDelayMs/60000)
	}
	if t.DelaySessionStart != nil {
		fmt.Fprintf(w, "   Stopwatch running since %s\n", t.DelaySessionStart.Format("15:04"))
	}
	if t.Repeat != "" && t.Repeat != "none" {
		fmt.Fprintf(w, "   Repeats:  %s\n", t.Repeat)
	}
}

// PrintTaskDetail adds description, motivation and the event log.
func PrintTaskDetail(w io.Writer, t queries.TaskDTO) {
	PrintTask(w, t)
	if t.Description != "" {
		fmt.Fprintf(w, "   Notes:    %s\n", t.Description)
	}
	if t.MotivationText != "" {
		fmt.Fprintf(w, "   Why:      %s\n", t.MotivationText)
	}
	if t.RewardInfo != "" {
		fmt.Fprintf(w, "   Reward:   %s\n", t.RewardInfo)
	}
	if t.Reminder != nil {
		fmt.Fprintf(w, "   Reminder: %d min before start\n", *t.Reminder)
	}
	fmt.Fprintln(w, "   History:")
	for _, e := range t.EventLog {
		fmt.Fprintf(w, "     %s  %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Type)
	}
}

func statusIcon(status string) string {
	switch status {
	case "completed":
		return "[x]"
	case "backlog":
		return "[-]"
	default:
		return "[ ]"
	}
}

func priorityBadge(priority string) string {
	switch priority {
	case "High":
		return "(!!!)"
	case "Medium":
		return "(!!)"
	default:
		return "(!)"
	}
}
