package mcpserver

import (
	"context"
	"fmt"

	"gamebooks/internal/domain"
	"gamebooks/internal/validate"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerLibraryTools() {
	// ── list_books ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_books",
		mcp.WithDescription("List all books in the library"),
	), s.handleListBooks)

	// ── create_book ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_book",
		mcp.WithDescription("Create a new, empty book in the library"),
		mcp.WithString("name", mcp.Description("Title of the book"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Short description (optional)")),
	), s.handleCreateBook)

	// ── open_book ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_book",
		mcp.WithDescription("Open a book. Tools that accept bookId default to the open book."),
		mcp.WithString("bookId", mcp.Description("ID of the book to open"), mcp.Required()),
	), s.handleOpenBook)

	// ── book_summary ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("book_summary",
		mcp.WithDescription("Summarize a book: metadata, node counts by type, edges, events and save state"),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleBookSummary)

	// ── validate_book ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("validate_book",
		mcp.WithDescription("Check the story graph for a missing start, dangling links, unreachable nodes, undefined events and duplicate paragraph numbers"),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleValidateBook)

	// ── save_book ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_book",
		mcp.WithDescription("Write the open book to disk now instead of waiting for autosave"),
	), s.handleSaveBook)
}

func (s *Server) handleListBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.library.InitializeLibrary(ctx); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return jsonResult(s.library.Books())
}

func (s *Server) handleCreateBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := s.library.InitializeLibrary(ctx); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	entry, err := s.library.AddBook(ctx, domain.BookFields{
		Name:        name,
		Description: req.GetString("description", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return jsonResult(entry)
}

func (s *Server) handleOpenBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("bookId", "")
	if id == "" {
		return nil, fmt.Errorf("bookId is required")
	}
	if err := s.openBook(ctx, id); err != nil {
		return nil, err
	}
	meta := s.books.Meta()
	return textResult(fmt.Sprintf("Opened %q (%s)", meta.Title, id)), nil
}

type bookSummary struct {
	ID         string                  `json:"id"`
	Meta       domain.BookMeta         `json:"meta"`
	Nodes      map[domain.NodeType]int `json:"nodes"`
	Edges      int                     `json:"edges"`
	Events     int                     `json:"events"`
	Assets     int                     `json:"assets"`
	HasSheet   bool                    `json:"hasCharacterSheet"`
	State      string                  `json:"state"`
	Errors     int                     `json:"validationErrors"`
	Warnings   int                     `json:"validationWarnings"`
	StartNodes []string                `json:"startNodes"`
}

func (s *Server) handleBookSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	book, err := s.books.Document()
	if err != nil {
		return nil, err
	}

	sum := bookSummary{
		ID:         id,
		Meta:       book.Meta,
		Nodes:      map[domain.NodeType]int{},
		Edges:      len(book.Edges),
		Events:     len(book.Events),
		Assets:     len(book.Assets),
		HasSheet:   book.CharacterSheetSchema != nil,
		State:      string(s.books.State()),
		StartNodes: []string{},
	}
	for _, n := range book.Nodes {
		sum.Nodes[n.Type]++
		if n.Type == domain.NodeTypeStart {
			sum.StartNodes = append(sum.StartNodes, n.ID)
		}
	}
	report := validate.Run(book)
	sum.Errors = len(report.Errors())
	sum.Warnings = len(report.Warnings())
	return jsonResult(sum)
}

func (s *Server) handleValidateBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.resolveBook(ctx, req); err != nil {
		return nil, err
	}
	book, err := s.books.Document()
	if err != nil {
		return nil, err
	}
	report := validate.Run(book)
	if len(report.Issues) == 0 {
		return textResult("No issues found."), nil
	}
	return jsonResult(report)
}

func (s *Server) handleSaveBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.books.ActiveBookID()
	if id == "" {
		return nil, fmt.Errorf("no book open")
	}
	if err := s.books.SaveCurrentBook(ctx, true); err != nil {
		return nil, fmt.Errorf("save book: %w", err)
	}
	return textResult(fmt.Sprintf("Saved %s", id)), nil
}
