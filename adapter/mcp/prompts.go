package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common Tempo workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("daily_plan").
		Description("Plan today's time boxes from active tasks and the backlog.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Daily Planning Session", `Help me plan today. Please:

1. Read my tasks around today from the tempo://tasks/today resource
2. Check the backlog with task.list and statuses ["backlog"]

Then:
- Point out active tasks whose time boxes overlap
- Suggest which backlog tasks to reactivate and when
- Keep High priority tasks early in the day

Use task.create, task.update and task.reactivate to apply what we agree on.`), nil
		})

	srv.Prompt("weekly_review").
		Description("Review the week's points, streaks and extensions.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Weekly Review Session", `Let's review my week. Please:

1. Read tempo://stats/week for points per status
2. Read tempo://tasks and look at extension counts and total delay

Help me understand:
- How many completions were on time and how many needed extensions
- Which tasks keep getting extended, and whether their time boxes are too short
- Which long-running backlog tasks should be deleted or rescheduled`), nil
		})

	srv.Prompt("running_late").
		Description("Decide how to handle a task that is about to miss its deadline.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			taskID := args["task_id"]
			if taskID == "" {
				taskID = "the task I'm working on"
			}
			return userPrompt("Running Late", fmt.Sprintf(`I'm running late on %s.

Look it up with task.get and tell me how many points I keep if I finish
at a few realistic times. Finishing within 5 minutes of the deadline keeps
full points; every full 30 minutes late costs 10%%, up to 90%%.

Then recommend one of:
- extending by a number of minutes (task.extend, increment)
- moving the deadline (task.extend, deadline)
- starting the stopwatch if I can't estimate (task.extend, stopwatch_start)
- moving it to the backlog (task.backlog)`, taskID)), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
