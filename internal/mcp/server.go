package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gamebooks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for gamebooks. It exposes the library and the
// story graph of the open book so AI agents can draft and restructure books.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine

	library *service.LibraryService
	books   *service.BookService
}

// Deps holds the services passed from the app layer to the MCP server.
type Deps struct {
	Emitter EventEmitter
	Library *service.LibraryService
	Books   *service.BookService
	// RequireApproval routes destructive tools through the approval queue.
	// Only the desktop app can answer approvals.
	RequireApproval bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = noopEmitter{}
	}
	s := &Server{
		emitter: emitter,
		layout:  NewLayoutEngine(),
		library: deps.Library,
		books:   deps.Books,
	}
	if deps.RequireApproval {
		s.approval = NewApprovalQueue(ctx, emitter)
	}

	s.mcp = server.NewMCPServer(
		"gamebooks-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerLibraryTools()
	s.registerGraphTools()
	s.registerEventTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	if s.approval != nil {
		s.approval.Approve(actionID)
	}
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	if s.approval != nil {
		s.approval.Reject(actionID)
	}
}

// ── Helpers ────────────────────────────────────────────────

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, any) {}

// emitGraphChanged tells the frontend the open book was edited by an agent.
func (s *Server) emitGraphChanged(ctx context.Context, bookID string) {
	s.emitter.Emit(ctx, "mcp:graph-changed", map[string]string{"bookId": bookID})
}

// confirm asks the user before a destructive action. Without an approval
// queue every action is allowed.
func (s *Server) confirm(ctx context.Context, tool, description string, metadata ...string) error {
	if s.approval == nil {
		return nil
	}
	_, err := s.approval.Request(ctx, tool, description, metadata...)
	return err
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveBook returns the book a tool operates on: the bookId argument,
// opened first if it is not the active book, or else the active book.
func (s *Server) resolveBook(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	if id := req.GetString("bookId", ""); id != "" {
		if id != s.books.ActiveBookID() {
			if err := s.openBook(ctx, id); err != nil {
				return "", err
			}
		}
		return id, nil
	}
	if id := s.books.ActiveBookID(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no bookId provided and no book open (use open_book first)")
}

// openBook writes pending changes of the current book before switching.
func (s *Server) openBook(ctx context.Context, id string) error {
	if err := s.books.Flush(ctx); err != nil {
		return fmt.Errorf("save current book: %w", err)
	}
	if err := s.books.LoadBookByID(ctx, id); err != nil {
		return fmt.Errorf("open book: %w", err)
	}
	return nil
}
