package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	libraryURI     = "gamebooks://library"
	bookNodesURI   = "gamebooks://book/{bookId}/nodes"
	bookURIPrefix  = "gamebooks://book/"
	bookNodesTrail = "/nodes"
)

func (s *Server) registerResources() {
	// ── gamebooks://library ────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		libraryURI,
		"Library",
		mcp.WithResourceDescription("Every book in the library"),
		mcp.WithMIMEType("application/json"),
	), s.handleLibraryResource)

	// ── gamebooks://book/{bookId}/nodes ────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			bookNodesURI,
			"Nodes of a Book",
		),
		s.handleBookNodesResource,
	)
}

func (s *Server) handleLibraryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if err := s.library.InitializeLibrary(ctx); err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(s.library.Books(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      libraryURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleBookNodesResource serves the node summaries of a book. Reading a
// book other than the open one opens it.
func (s *Server) handleBookNodesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	bookID := bookIDFromURI(uri)
	if bookID == "" {
		return nil, fmt.Errorf("could not extract bookId from URI: %s", uri)
	}
	if bookID != s.books.ActiveBookID() {
		if err := s.openBook(ctx, bookID); err != nil {
			return nil, err
		}
	}

	g := s.books.Graph()
	edges := g.Edges()
	nodes := g.Nodes()
	summaries := make([]nodeSummary, len(nodes))
	for i, n := range nodes {
		summaries[i] = summarizeNode(n, edges)
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// bookIDFromURI extracts the id from "gamebooks://book/{id}/nodes".
func bookIDFromURI(uri string) string {
	if !strings.HasPrefix(uri, bookURIPrefix) || !strings.HasSuffix(uri, bookNodesTrail) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, bookURIPrefix), bookNodesTrail)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
