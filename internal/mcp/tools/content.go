package tools

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/model"
)

// ListProjectsTool implements the list_projects MCP tool.
type ListProjectsTool struct {
	svc ContentService
}

// NewListProjectsTool constructs a ListProjectsTool.
func NewListProjectsTool(svc ContentService) (*ListProjectsTool, error) {
	if svc == nil {
		return nil, errors.New("content service is required")
	}
	return &ListProjectsTool{svc: svc}, nil
}

// Definition returns the MCP metadata for list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"list_projects",
		mcp.WithDescription("List the published portfolio projects, newest first as shown on the site."),
		mcp.WithString("category", mcp.Description("Optional category filter, e.g. \"AI/ML\".")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of projects to return.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

// Handle executes the list_projects tool logic.
func (t *ListProjectsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := strings.TrimSpace(readStringArg(req, "category"))
	limit := listLimit(req)

	projects := []model.Project{}
	for _, p := range t.svc.PublishedProjects() {
		if category != "" && !strings.EqualFold(string(p.Category), category) {
			continue
		}
		projects = append(projects, p)
		if len(projects) == limit {
			break
		}
	}

	return jsonResult(map[string]any{"projects": projects}), nil
}

// ListBlogPostsTool implements the list_blog_posts MCP tool.
type ListBlogPostsTool struct {
	svc ContentService
}

// NewListBlogPostsTool constructs a ListBlogPostsTool.
func NewListBlogPostsTool(svc ContentService) (*ListBlogPostsTool, error) {
	if svc == nil {
		return nil, errors.New("content service is required")
	}
	return &ListBlogPostsTool{svc: svc}, nil
}

// Definition returns the MCP metadata for list_blog_posts.
func (t *ListBlogPostsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"list_blog_posts",
		mcp.WithDescription("List published blog posts without their content. Use get_blog_post to read one."),
		mcp.WithString("query", mcp.Description("Optional search over title, category and excerpt.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of posts to return.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

type postSummary struct {
	ID       int                `json:"id"`
	Slug     string             `json:"slug"`
	Title    string             `json:"title"`
	Excerpt  string             `json:"excerpt"`
	Category model.BlogCategory `json:"category"`
	Date     string             `json:"date"`
	ReadTime string             `json:"readTime"`
	Views    int                `json:"views"`
}

// Handle executes the list_blog_posts tool logic.
func (t *ListBlogPostsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts := t.svc.SearchPublishedBlogPosts(readStringArg(req, "query"))
	posts = posts[:min(len(posts), listLimit(req))]

	summaries := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, postSummary{
			ID:       p.ID,
			Slug:     p.Slug,
			Title:    p.Title,
			Excerpt:  p.Excerpt,
			Category: p.Category,
			Date:     p.Date,
			ReadTime: p.ReadTime,
			Views:    p.Views,
		})
	}

	return jsonResult(map[string]any{"posts": summaries}), nil
}

// GetBlogPostTool implements the get_blog_post MCP tool.
// Reads through this tool are not counted as views.
type GetBlogPostTool struct {
	svc ContentService
}

// NewGetBlogPostTool constructs a GetBlogPostTool.
func NewGetBlogPostTool(svc ContentService) (*GetBlogPostTool, error) {
	if svc == nil {
		return nil, errors.New("content service is required")
	}
	return &GetBlogPostTool{svc: svc}, nil
}

// Definition returns the MCP metadata for get_blog_post.
func (t *GetBlogPostTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_blog_post",
		mcp.WithDescription("Read one published blog post, including its markdown content."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug or numeric id.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

// Handle executes the get_blog_post tool logic.
func (t *GetBlogPostTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	post, err := t.svc.FindBlogPost(strings.TrimSpace(slug))
	if err != nil || post.Status != model.StatusPublished {
		return mcp.NewToolResultError("blog post not found"), nil
	}

	return jsonResult(map[string]any{"post": post}), nil
}

// GetProfileTool implements the get_profile MCP tool.
type GetProfileTool struct {
	svc ContentService
}

// NewGetProfileTool constructs a GetProfileTool.
func NewGetProfileTool(svc ContentService) (*GetProfileTool, error) {
	if svc == nil {
		return nil, errors.New("content service is required")
	}
	return &GetProfileTool{svc: svc}, nil
}

// Definition returns the MCP metadata for get_profile.
func (t *GetProfileTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_profile",
		mcp.WithDescription("Return the site owner's public profile and CV link."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

// Handle executes the get_profile tool logic.
func (t *GetProfileTool) Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"profile": t.svc.Profile()}), nil
}
