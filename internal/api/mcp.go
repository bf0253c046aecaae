package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kalambet/jobassist/internal/analytics"
	"github.com/kalambet/jobassist/internal/apperr"
	"github.com/kalambet/jobassist/internal/assistant"
	"github.com/kalambet/jobassist/internal/logger"
	"github.com/kalambet/jobassist/internal/matching"
	"github.com/kalambet/jobassist/internal/storage"
)

// activeJobsResourceLimit caps the postings listed by jobs://active.
const activeJobsResourceLimit = 50

// JobReader lists postings for the aggregate tools. *storage.Store implements it.
type JobReader interface {
	AllJobs(ctx context.Context) ([]storage.Job, error)
	ActiveJobs(ctx context.Context, limit int) ([]storage.Job, error)
}

// MCPDeps holds dependencies for the MCP server. The stdio transport has no
// per-call identity, so every call runs as Subject.
type MCPDeps struct {
	Assistant Chatter
	Matcher   Matcher
	Jobs      JobReader
	Subject   assistant.Subject
	Version   string
	Logger    *zap.Logger
}

// NewMCPServer creates an MCP server with the assistant tools and the active
// postings resource registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	deps.Logger = logger.OrNop(deps.Logger)
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := server.NewMCPServer(
		"jobassist",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("jobassist answers job portal questions and matches resumes to open postings."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("chat",
			mcp.WithDescription("Ask the job portal assistant a question, e.g. \"remote Go jobs in Austin\"."),
			mcp.WithString("message", mcp.Description("The question or request"), mcp.Required()),
		),
		mcpChat(deps),
	)

	s.AddTool(
		mcp.NewTool("match_jobs",
			mcp.WithDescription("Rank active job postings against one of your resumes by semantic similarity."),
			mcp.WithString("resume_id", mcp.Description("Resume id"), mcp.Required()),
		),
		mcpMatchJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("skill_trends",
			mcp.WithDescription("List the skills most requested across all postings."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of skills (default %d)", analytics.DefaultTopSkills))),
		),
		mcpSkillTrends(deps),
	)

	s.AddTool(
		mcp.NewTool("salary_insight",
			mcp.WithDescription("Average salary range of postings, optionally narrowed by skill and location."),
			mcp.WithString("skill", mcp.Description("Exact skill name, case insensitive")),
			mcp.WithString("location", mcp.Description("Location substring, case insensitive")),
		),
		mcpSalaryInsight(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"jobs://active",
			"Active Jobs",
			mcp.WithResourceDescription(fmt.Sprintf("The %d newest active postings as JSON", activeJobsResourceLimit)),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceActiveJobs(deps),
	)

	return s
}

func mcpChat(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		reply, err := deps.Assistant.Chat(ctx, deps.Subject, message)
		if err != nil {
			return mcpAppError(deps.Logger, err), nil
		}
		return mcpJSON(reply)
	}
}

func mcpMatchJobs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resumeID, err := req.RequireString("resume_id")
		if err != nil {
			return mcpError("resume_id is required"), nil
		}

		results, err := deps.Matcher.MatchJobs(ctx, resumeID, deps.Subject.ID)
		if err != nil {
			return mcpAppError(deps.Logger, err), nil
		}
		if results == nil {
			results = []matching.MatchResult{}
		}
		return mcpJSON(results)
	}
}

func mcpSkillTrends(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", analytics.DefaultTopSkills)
		if limit <= 0 {
			return mcpError("limit must be positive"), nil
		}

		jobs, err := deps.Jobs.AllJobs(ctx)
		if err != nil {
			return mcpAppError(deps.Logger, err), nil
		}
		return mcpJSON(analytics.TopSkills(jobs, limit))
	}
}

func mcpSalaryInsight(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := analytics.SalaryFilter{
			Skill:    req.GetString("skill", ""),
			Location: req.GetString("location", ""),
		}

		jobs, err := deps.Jobs.AllJobs(ctx)
		if err != nil {
			return mcpAppError(deps.Logger, err), nil
		}
		return mcpJSON(analytics.Salary(jobs, filter))
	}
}

func mcpResourceActiveJobs(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jobs, err := deps.Jobs.ActiveJobs(ctx, activeJobsResourceLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list active jobs: %w", err)
		}

		b, err := json.Marshal(assistant.JobViews(jobs))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal jobs: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

// mcpAppError reports a classified failure as a tool error, mirroring the
// HTTP status mapping.
func mcpAppError(log *zap.Logger, err error) *mcp.CallToolResult {
	switch apperr.KindOf(err) {
	case apperr.RateLimited:
		return mcpError("Too many requests. Please slow down.")
	case apperr.DataMissing:
		return mcpError(publicMessage(err, "not found"))
	case apperr.PermissionDenied:
		return mcpError(publicMessage(err, "permission denied"))
	case apperr.UpstreamUnavailable, apperr.UpstreamInvalid:
		log.Warn("upstream failure", zap.Error(err))
		return mcpError("upstream service failed")
	default:
		log.Error("tool call failed", zap.Error(err))
		return mcpError("internal error")
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
