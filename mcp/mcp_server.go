package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"starset-backend/handlers"
	"starset-backend/models"
	"starset-backend/storage"
)

// MCPServer exposes the task registry and submission lookups as MCP tools so
// agent tooling can browse campaigns without going through the REST surface.
type MCPServer struct {
	mcpServer   *server.MCPServer
	store       storage.Store
	adminAPIKey string
}

// NewMCPServer creates a new MCP server using the mcp-go library. adminAPIKey
// gates the create_task tool; when empty, task creation is disabled.
func NewMCPServer(store storage.Store, adminAPIKey string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"Starset MCP Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		mcpServer:   mcpServer,
		store:       store,
		adminAPIKey: adminAPIKey,
	}

	s.registerTools()
	return s
}

// GetMCPServer returns the underlying MCP server for transport setup
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *MCPServer) registerTools() {
	s.registerListTasksTool()
	s.registerGetTaskTool()
	s.registerCreateTaskTool()
	s.registerListUserSubmissionsTool()
}

// registerListTasksTool creates a tool for listing tasks
func (s *MCPServer) registerListTasksTool() {
	tool := mcp.NewTool("list_tasks",
		mcp.WithDescription("List task campaigns, optionally restricted to what contributors can see"),
		mcp.WithBoolean("contributor_only", mcp.Description("Only return tasks visible to contributors")),
		mcp.WithString("type", mcp.Description("Filter by task type, e.g. audio_collection")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tasks to return")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		contributorOnly := false
		if v, ok := args["contributor_only"].(bool); ok {
			contributorOnly = v
		}

		var tasks []models.Task
		var err error
		if contributorOnly {
			tasks, err = s.store.ListContributorTasks(ctx)
		} else {
			tasks, err = s.store.ListTasks(ctx)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list tasks: %v", err)), nil
		}

		if taskType, ok := args["type"].(string); ok && taskType != "" {
			filtered := tasks[:0]
			for _, t := range tasks {
				if string(t.Type) == taskType {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}

		if limit := toInt64(args["limit"]); limit > 0 && int64(len(tasks)) > limit {
			tasks = tasks[:limit]
		}

		return jsonToolResult(map[string]any{
			"tasks":       tasks,
			"total_count": len(tasks),
		})
	})
}

// registerGetTaskTool creates a tool for getting a specific task
func (s *MCPServer) registerGetTaskTool() {
	tool := mcp.NewTool("get_task",
		mcp.WithDescription("Get details of a specific task"),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("ID of task to retrieve")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		taskID, err := request.RequireString("task_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		task, err := s.store.GetTask(ctx, taskID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get task: %v", err)), nil
		}

		return jsonToolResult(task)
	})
}

// registerCreateTaskTool creates a tool for creating a task campaign
func (s *MCPServer) registerCreateTaskTool() {
	tool := mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task campaign (requires the admin API key)"),
		mcp.WithString("api_key", mcp.Required(), mcp.Description("Admin API key")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Task type: audio_collection, image_collection, text_annotation, image_labeling, survey")),
		mcp.WithNumber("compensation", mcp.Description("Compensation in minor currency units")),
		mcp.WithString("currency", mcp.Description("Compensation currency, default INR")),
		mcp.WithString("prompt", mcp.Description("Prompt text shown to contributors")),
		mcp.WithString("instructions", mcp.Description("Free-text instructions")),
		mcp.WithString("language", mcp.Description("Task language")),
		mcp.WithString("project", mcp.Description("Project or campaign name")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		apiKey, err := request.RequireString("api_key")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if s.adminAPIKey == "" || apiKey != s.adminAPIKey {
			return mcp.NewToolResultError("invalid admin API key"), nil
		}

		args := request.GetArguments()
		body := handlers.TaskCreateBody{
			Title:        toString(args["title"]),
			Type:         toString(args["type"]),
			Compensation: toInt64(args["compensation"]),
			Currency:     toString(args["currency"]),
			Prompt:       toString(args["prompt"]),
			Instructions: toString(args["instructions"]),
			Language:     toString(args["language"]),
			Project:      toString(args["project"]),
		}

		task, err := body.Validate()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		stored, err := s.store.CreateTask(ctx, task)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create task: %v", err)), nil
		}

		return jsonToolResult(stored)
	})
}

// registerListUserSubmissionsTool creates a tool for listing a user's submissions
func (s *MCPServer) registerListUserSubmissionsTool() {
	tool := mcp.NewTool("list_user_submissions",
		mcp.WithDescription("List all submissions made by a user"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("ID of the user")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		submissions, err := s.store.ListUserSubmissions(ctx, userID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list submissions: %v", err)), nil
		}

		return jsonToolResult(map[string]any{
			"submissions": submissions,
			"total_count": len(submissions),
		})
	})
}

func jsonToolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
