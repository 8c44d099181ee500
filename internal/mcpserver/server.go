// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Mimir index for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/models"
)

// Server wraps the MCP server with Mimir index tools. The tools are
// read-only: documents enter the index through the watcher and the reindex
// command, never through MCP.
type Server struct {
	mcp   *server.MCPServer
	store metastore.Store
	docs  docstore.Provider
}

// New creates a new MCP server with all index tools registered.
func New(store metastore.Store, docs docstore.Provider) *Server {
	s := &Server{store: store, docs: docs}

	s.mcp = server.NewMCPServer(
		"Mimir",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("query_by_tag",
		mcp.WithDescription("List the paths of documents carrying a tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name without the # prefix")),
	), s.queryByTag)

	s.mcp.AddTool(mcp.NewTool("query_by_classification",
		mcp.WithDescription("List documents with a classification label. "+
			"Valid labels: meeting, idea, reference, journal, project."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Classification label")),
	), s.queryByClassification)

	s.mcp.AddTool(mcp.NewTool("query_by_entity",
		mcp.WithDescription("List documents mentioning a named entity. "+
			"Entity names are matched case-insensitively."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Entity type: people, organizations, concepts, or locations")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Entity name")),
	), s.queryByEntity)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a Markdown document by path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. notes/sync.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("recent_activity",
		mcp.WithDescription("List recently modified documents with their index metadata."),
		mcp.WithString("since", mcp.Description("RFC 3339 lower bound (default: last 24 hours)")),
	), s.recentActivity)

	// Resource: metadata conventions.
	s.mcp.AddResource(
		mcp.NewResource("mimir://metadata-format", "Metadata Format",
			mcp.WithResourceDescription("Frontmatter and inline metadata conventions the index understands."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMetadataFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) queryByTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := s.store.QueryByTag(strings.TrimPrefix(tag, "#"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents carry this tag"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) queryByClassification(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label, err := req.RequireString("label")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !models.ValidClassification(label) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown label %q; valid labels: %s",
			label, strings.Join(models.Classifications, ", "))), nil
	}
	recs, err := s.store.QueryByClassification(label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText("no documents with this classification"), nil
	}
	out, _ := json.MarshalIndent(recs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) queryByEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityType, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := s.store.QueryByEntity(entityType, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents mention this entity"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.docs.Get(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) recentActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	since := ""
	if v, err := req.RequireString("since"); err == nil {
		since = v
	}
	if since == "" {
		since = time.Now().UTC().Add(-24 * time.Hour).Format(time.RFC3339)
	} else if _, err := time.Parse(time.RFC3339, since); err != nil {
		return mcp.NewToolResultError("since must be RFC 3339"), nil
	}

	recs, err := s.store.ScanModifiedSince(since, 50)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(recs) == 0 {
		return mcp.NewToolResultText("no activity since " + since), nil
	}
	out, _ := json.MarshalIndent(recs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readMetadataFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mimir://metadata-format",
			MIMEType: "text/markdown",
			Text:     MetadataFormat,
		},
	}, nil
}
