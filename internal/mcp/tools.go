package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listProjectsTool defines the list_projects MCP tool.
var listProjectsTool = mcp.NewTool("list_projects",
	mcp.WithDescription("List saved photo shoot projects, newest first, with their titles and image counts."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of projects to return (default 20)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of projects to skip, for paging"),
	),
)

// getProjectTool defines the get_project MCP tool.
var getProjectTool = mcp.NewTool("get_project",
	mcp.WithDescription("Get one project: its uploads, analysis summary, and every generated image with its status."),
	mcp.WithString("project_id",
		mcp.Required(),
		mcp.Description("Project identifier as returned by list_projects"),
	),
)

// getAnalysisTool defines the get_analysis MCP tool.
var getAnalysisTool = mcp.NewTool("get_analysis",
	mcp.WithDescription("Get the structured jewelry analysis of a project as JSON: item type, materials, gemstones, style, and marketing line."),
	mcp.WithString("project_id",
		mcp.Required(),
		mcp.Description("Project identifier as returned by list_projects"),
	),
)

// listScenesTool defines the list_scenes MCP tool.
var listScenesTool = mcp.NewTool("list_scenes",
	mcp.WithDescription("List the staged scene catalog available for photo shoots."),
)
