package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_book",
		mcp.WithPromptDescription("Draft the skeleton of a new gamebook: start, branches and endings"),
		mcp.WithArgument("premise",
			mcp.ArgumentDescription("What the story is about"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("endings",
			mcp.ArgumentDescription("How many endings to aim for (optional)"),
		),
	), s.handleOutlinePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_book",
		mcp.WithPromptDescription("Find and fix structural problems in the open book"),
	), s.handleReviewPrompt)
}

func (s *Server) handleOutlinePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	premise := req.Params.Arguments["premise"]
	endings := req.Params.Arguments["endings"]
	if endings == "" {
		endings = "3"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline a gamebook: %s", premise),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Outline a gamebook about "%s". Follow these steps:

1. Use create_book, then open_book with the new id
2. Create exactly one start node (create_node type=start) with an opening passage
3. Add story nodes for the main branches, linking each with connectFrom
4. Finish every branch with an end node; aim for about %s endings
5. Define any story flags the branches depend on with add_event
6. Run validate_book and fix every error before calling save_book

Keep each passage short; the author will expand them later.`, premise, endings),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Review the open book",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Review the open book's structure:

1. Call book_summary and validate_book
2. For unreachable nodes, connect them from a sensible earlier node with connect_nodes
3. For dead ends that are not end nodes, add a link or turn them into endings
4. Report unused or undefined events; only delete events nobody references
5. Call save_book when done and summarize what changed`,
				},
			},
		},
	}, nil
}
