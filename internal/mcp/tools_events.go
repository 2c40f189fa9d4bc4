package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gamebooks/internal/domain"
	"gamebooks/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerEventTools() {
	// ── list_events ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List the global story flags of a book"),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleListEvents)

	// ── add_event ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_event",
		mcp.WithDescription("Define a story flag. Its id is derived from the name."),
		mcp.WithString("name", mcp.Description("Flag name, e.g. \"Found Key\""), mcp.Required()),
		mcp.WithString("initialValue", mcp.Description("Initial value as JSON: false, 0, \"text\" (optional, default false)")),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleAddEvent)

	// ── delete_event ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_event",
		mcp.WithDescription("Delete a story flag. Refused while any node or edge still uses it."),
		mcp.WithString("eventId", mcp.Description("Event ID"), mcp.Required()),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleDeleteEvent)
}

func (s *Server) handleListEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.resolveBook(ctx, req); err != nil {
		return nil, err
	}
	return jsonResult(s.books.Events())
}

// parseInitialValue reads a JSON scalar; anything that is not valid JSON is
// taken as a plain string.
func parseInitialValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw, nil
	}
	switch v.(type) {
	case bool, float64, string:
		return v, nil
	default:
		return nil, fmt.Errorf("initialValue must be a boolean, number or string")
	}
}

func (s *Server) handleAddEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	value, err := parseInitialValue(req.GetString("initialValue", ""))
	if err != nil {
		return nil, err
	}
	ev, err := s.books.AddEvent(name, value)
	if errors.Is(err, service.ErrDuplicateEvent) {
		return nil, fmt.Errorf("an event with id %q already exists", domain.EventIDFromName(name))
	}
	if err != nil {
		return nil, err
	}
	s.emitGraphChanged(ctx, bookID)
	return jsonResult(ev)
}

func (s *Server) handleDeleteEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	id := req.GetString("eventId", "")
	if id == "" {
		return nil, fmt.Errorf("eventId is required")
	}
	known := false
	for _, ev := range s.books.Events() {
		if ev.ID == id {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("event %s not found", id)
	}
	if !s.books.DeleteEventIfUnused(id) {
		return nil, fmt.Errorf("event %s is still used by nodes or edges", id)
	}
	s.emitGraphChanged(ctx, bookID)
	return textResult(fmt.Sprintf("Deleted event %s", id)), nil
}
