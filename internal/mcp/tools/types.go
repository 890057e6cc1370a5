// Package tools implements the read-only MCP tools over the published portfolio content.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

// Tool exposes the capabilities required by the MCP server registration lifecycle.
type Tool interface {
	Definition() mcp.Tool
	Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// ContentService is the read side of the portfolio the tools need
type ContentService interface {
	PublishedProjects() []model.Project
	SearchPublishedBlogPosts(term string) []model.BlogPost
	FindBlogPost(slugOrID string) (model.BlogPost, error)
	Profile() model.ProfileInfo
}
