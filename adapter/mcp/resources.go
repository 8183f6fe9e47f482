package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterResources registers MCP resources that expose Tempo data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.App == nil {
		return fmt.Errorf("app is required")
	}
	t := &taskTools{app: deps.App}

	srv.Resource("tempo://tasks").
		Name("Tasks").
		Description("All tasks for the current user").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := t.list(ctx, taskListInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("tempo://tasks/active").
		Name("Active Tasks").
		Description("Tasks that are still running").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := t.list(ctx, taskListInput{Statuses: []string{"active"}})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("tempo://tasks/today").
		Name("Today's Tasks").
		Description("Tasks scheduled within a week of today").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := t.list(ctx, taskListInput{Date: t.app.Today()})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	for _, period := range []string{"week", "month", "all"} {
		srv.Resource("tempo://stats/" + period).
			Name("Stats (" + period + ")").
			Description("Points and completion statistics for tasks created in the last " + period).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
				stats, err := t.stats(ctx, statsInput{Period: period})
				if err != nil {
					return nil, err
				}
				return jsonResource(uri, stats)
			})
	}

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
