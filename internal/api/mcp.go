package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/identity"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/tracker"
)

// MCPDeps holds dependencies for the MCP server. Every call acts as Identity.
type MCPDeps struct {
	Store    tracker.Gateway
	Identity identity.Identity
	Advisor  *advisor.Advisor
	Logger   *slog.Logger // optional
}

func (d MCPDeps) session(ctx context.Context) *tracker.Session {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := tracker.NewSession(d.Store, d.Identity, tracker.WithLogger(logger))
	s.Refresh(ctx)
	return s
}

// NewMCPServer creates an MCP server with all careerpath tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"careerpath",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("careerpath: career profile, skill progress, learning roadmap and advisor for one student."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("get_dashboard",
			mcp.WithDescription("Summarize profile completion, average skill mastery, next step and unlocked opportunities."),
		),
		mcpGetDashboard(deps),
	)

	s.AddTool(
		mcp.NewTool("get_roadmap",
			mcp.WithDescription("Return the learning roadmap for the user's career track with per-phase progress."),
		),
		mcpGetRoadmap(deps),
	)

	s.AddTool(
		mcp.NewTool("update_profile",
			mcp.WithDescription("Update profile fields. Omitted fields are left unchanged; current_skills replaces the tracked skill set."),
			mcp.WithString("full_name", mcp.Description("Display name")),
			mcp.WithNumber("age", mcp.Description("Age in years; 0 clears it")),
			mcp.WithString("education", mcp.Description("high-school, associate, bachelor, master or phd")),
			mcp.WithString("timeline", mcp.Description("6-months, 1-year, 2-years or 3-years")),
			mcp.WithArray("current_skills", mcp.Description("Skill names")),
			mcp.WithArray("career_interests", mcp.Description("Career interests, e.g. Machine Learning")),
		),
		mcpUpdateProfile(deps),
	)

	s.AddTool(
		mcp.NewTool("log_progress",
			mcp.WithDescription("Record a progress event; the skill's mastery becomes the logged amount."),
			mcp.WithString("skill_name", mcp.Description("Skill the progress applies to"), mcp.Required()),
			mcp.WithNumber("progress_amount", mcp.Description("New mastery level, 0-100"), mcp.Required()),
			mcp.WithString("notes", mcp.Description("Optional notes")),
		),
		mcpLogProgress(deps),
	)

	s.AddTool(
		mcp.NewTool("set_mastery",
			mcp.WithDescription("Set the mastery level of a tracked skill without logging an event."),
			mcp.WithString("skill_name", mcp.Description("Skill name"), mcp.Required()),
			mcp.WithNumber("mastery_level", mcp.Description("Mastery level, 0-100"), mcp.Required()),
		),
		mcpSetMastery(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_advisor",
			mcp.WithDescription("Ask the career advisor a question."),
			mcp.WithString("message", mcp.Description("Question for the advisor"), mcp.Required()),
		),
		mcpAskAdvisor(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current career profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://skills",
			"Tracked Skills",
			mcp.WithResourceDescription("Tracked skills with mastery levels"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSkills(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://progress",
			"Recent Progress",
			mcp.WithResourceDescription("The 50 most recent progress logs, newest first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProgress(deps),
	)

	return s
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpGetDashboard(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := deps.session(ctx).Snapshot()
		return mcpJSON(roadmap.BuildDashboard(snap.Completion(), snap.Interests(), snap.RoadmapSkills())), nil
	}
}

func mcpGetRoadmap(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap := deps.session(ctx).Snapshot()
		return mcpJSON(roadmap.Build(snap.Interests(), snap.RoadmapSkills())), nil
	}
}

func mcpUpdateProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		var patch tracker.ProfilePatch
		if _, ok := args["full_name"]; ok {
			v := req.GetString("full_name", "")
			patch.FullName = &v
		}
		if _, ok := args["age"]; ok {
			v := req.GetInt("age", 0)
			patch.Age = &v
		}
		if _, ok := args["education"]; ok {
			v := req.GetString("education", "")
			patch.Education = &v
		}
		if _, ok := args["timeline"]; ok {
			v := req.GetString("timeline", "")
			patch.Timeline = &v
		}
		if _, ok := args["current_skills"]; ok {
			patch.CurrentSkills = req.GetStringSlice("current_skills", []string{})
		}
		if _, ok := args["career_interests"]; ok {
			patch.CareerInterests = req.GetStringSlice("career_interests", []string{})
		}
		if patch.Empty() {
			return mcpError("no profile fields to update"), nil
		}

		saved, err := deps.session(ctx).UpdateProfile(ctx, patch)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to update profile: %v", err)), nil
		}
		return mcpJSON(saved), nil
	}
}

func mcpLogProgress(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("skill_name")
		if err != nil {
			return mcpError("skill_name is required"), nil
		}
		if _, ok := req.GetArguments()["progress_amount"]; !ok {
			return mcpError("progress_amount is required"), nil
		}
		amount := req.GetInt("progress_amount", 0)
		notes := req.GetString("notes", "")

		saved, err := deps.session(ctx).LogProgress(ctx, name, amount, notes)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to log progress: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Logged %s at %d%%", saved.SkillName, saved.ProgressAmount)), nil
	}
}

func mcpSetMastery(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("skill_name")
		if err != nil {
			return mcpError("skill_name is required"), nil
		}
		if _, ok := req.GetArguments()["mastery_level"]; !ok {
			return mcpError("mastery_level is required"), nil
		}
		level := tracker.Clamp(req.GetInt("mastery_level", 0))

		if err := deps.session(ctx).UpdateSkillProgress(ctx, name, level); err != nil {
			return mcpError(fmt.Sprintf("failed to set mastery: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Set %s = %d%%", name, level)), nil
	}
}

func mcpAskAdvisor(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		msg, err := req.RequireString("message")
		if err != nil || msg == "" {
			return mcpError("message is required"), nil
		}
		snap := deps.session(ctx).Snapshot()
		return mcpText(deps.Advisor.Respond(msg, advisorContext(snap))), nil
	}
}

func resourceJSON(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap := deps.session(ctx).Snapshot()
		if snap.Profile == nil {
			return nil, errors.New("profile not found")
		}
		return resourceJSON(req.Params.URI, snap.Profile)
	}
}

func mcpResourceSkills(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return resourceJSON(req.Params.URI, deps.session(ctx).Snapshot().Skills)
	}
}

func mcpResourceProgress(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return resourceJSON(req.Params.URI, deps.session(ctx).Snapshot().ProgressLogs)
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
