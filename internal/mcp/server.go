// Package mcp serves the published portfolio content to MCP clients.
package mcp

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/laisky-portfolio/internal/mcp/tools"
	"github.com/Laisky/laisky-portfolio/library/log"
)

const (
	serverName    = "laisky-portfolio"
	serverVersion = "1.0.0"
)

// Server wraps the MCP server state for the HTTP transport.
type Server struct {
	handler http.Handler
	tools   []tools.Tool
	logger  logSDK.Logger
}

// NewServer constructs a read-only MCP server over content.
func NewServer(content tools.ContentService, logger logSDK.Logger) (*Server, error) {
	if content == nil {
		return nil, errors.New("content service is required")
	}
	if logger == nil {
		logger = log.Logger
	}

	s := &Server{logger: logger.Named("mcp")}
	listProjects, err := tools.NewListProjectsTool(content)
	if err != nil {
		return nil, errors.Wrap(err, "new list_projects tool")
	}
	listPosts, err := tools.NewListBlogPostsTool(content)
	if err != nil {
		return nil, errors.Wrap(err, "new list_blog_posts tool")
	}
	getPost, err := tools.NewGetBlogPostTool(content)
	if err != nil {
		return nil, errors.Wrap(err, "new get_blog_post tool")
	}
	getProfile, err := tools.NewGetProfileTool(content)
	if err != nil {
		return nil, errors.Wrap(err, "new get_profile tool")
	}
	s.tools = []tools.Tool{listProjects, listPosts, getPost, getProfile}

	mcpServer := srv.NewMCPServer(
		serverName,
		serverVersion,
		srv.WithToolCapabilities(true),
		srv.WithInstructions("Browse the published projects, blog posts and profile of this portfolio. "+
			"Use list_blog_posts to find a post and get_blog_post to read it."),
		srv.WithRecovery(),
		srv.WithHooks(newMCPHooks(s.logger.Named("hooks"))),
	)
	for _, tool := range s.tools {
		mcpServer.AddTool(tool.Definition(), tool.Handle)
	}

	s.handler = srv.NewStreamableHTTPServer(mcpServer)
	return s, nil
}

// Handler returns the HTTP handler that should be mounted to serve MCP traffic.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ToolNames lists the registered tools in registration order
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for _, tool := range s.tools {
		names = append(names, tool.Definition().Name)
	}
	return names
}
