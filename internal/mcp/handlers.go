package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gemstage/gemstage/internal/projects"
	"github.com/gemstage/gemstage/internal/prompts"
)

// handleListProjects returns the project history, newest first.
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	offset := request.GetInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := s.projects.List(ctx, limit, offset)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing projects failed: %v", err)), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No saved projects yet. Run a shoot with `gemstage shoot` or through the API first."), nil
	}

	var b strings.Builder
	for _, p := range list {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&b, "- %s — %s (%d images, created %s)\n",
			p.ID, title, len(p.Images), p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGetProject renders one project as readable markdown.
func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project %q not found: %v", id, err)), nil
	}

	return mcp.NewToolResultText(formatProject(p)), nil
}

// handleGetAnalysis returns the stored analysis JSON untouched.
func (s *Server) handleGetAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project_id"), nil
	}

	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("project %q not found: %v", id, err)), nil
	}
	if len(p.Analysis) == 0 || string(p.Analysis) == "{}" {
		return mcp.NewToolResultText("This project has no stored analysis."), nil
	}

	return mcp.NewToolResultText(string(p.Analysis)), nil
}

// handleListScenes lists the built-in scene catalog.
func (s *Server) handleListScenes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, sc := range prompts.DefaultScenes {
		fmt.Fprintf(&b, "- %s: %s\n", sc.ID, sc.Label)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatProject(p *projects.Project) string {
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "ID: %s\nCreated: %s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04"))
	if p.ItemSize != "" {
		fmt.Fprintf(&b, "Item size: %s\n", p.ItemSize)
	}
	if p.ModelImage != "" {
		b.WriteString("Has model photo for try-on.\n")
	}

	if len(p.Images) > 0 {
		b.WriteString("\n## Generated images\n\n")
		for _, img := range p.Images {
			label := img.Label
			if label == "" {
				label = string(img.Kind)
			}
			fmt.Fprintf(&b, "- %s [%s] %s", img.ID, img.Status, label)
			if img.Error != "" {
				fmt.Fprintf(&b, " — %s", img.Error)
			}
			b.WriteString("\n")
		}
	}

	if len(p.Analysis) > 0 && string(p.Analysis) != "{}" {
		b.WriteString("\n## Analysis\n\n```json\n")
		b.Write(p.Analysis)
		if !strings.HasSuffix(string(p.Analysis), "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	return b.String()
}
