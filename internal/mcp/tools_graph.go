package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"gamebooks/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerGraphTools() {
	// ── list_nodes ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List the nodes of a book with their paragraph numbers and outgoing links, optionally filtered by type"),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
		mcp.WithString("type", mcp.Description("Filter by node type: start, story, end, location (optional)")),
	), s.handleListNodes)

	// ── create_node ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a node. Position is auto-calculated if not provided. A book can only have one start node."),
		mcp.WithString("type",
			mcp.Description("Node type: start, story, end, location"),
			mcp.Required(),
		),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
		mcp.WithString("label", mcp.Description("Node title (optional)")),
		mcp.WithString("description", mcp.Description("Passage text (optional)")),
		mcp.WithString("connectFrom", mcp.Description("ID of a node to link to the new node (optional)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
	), s.handleCreateNode)

	// ── connect_nodes ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_nodes",
		mcp.WithDescription("Link two nodes with an edge"),
		mcp.WithString("source", mcp.Description("Source node ID"), mcp.Required()),
		mcp.WithString("target", mcp.Description("Target node ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Edge label (optional)")),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleConnectNodes)

	// ── update_node_text ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_node_text",
		mcp.WithDescription("Replace the label and/or passage text of a node"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("New label (optional)")),
		mcp.WithString("description", mcp.Description("New passage text (optional)")),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
	), s.handleUpdateNodeText)

	// ── delete_node (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a node, its edges, and clear every choice pointing at it. May require user approval."),
		mcp.WithString("nodeId", mcp.Description("Node ID to delete"), mcp.Required()),
		mcp.WithString("bookId", mcp.Description("Book ID (optional, defaults to the open book)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteNode)
}

func boolPtr(v bool) *bool { return &v }

// ── Handlers ───────────────────────────────────────────────

type nodeSummary struct {
	ID        string          `json:"id"`
	Type      domain.NodeType `json:"type"`
	Label     string          `json:"label"`
	Paragraph int             `json:"paragraphNumber,omitempty"`
	Text      string          `json:"text,omitempty"`
	Choices   int             `json:"choices"`
	LinksTo   []string        `json:"linksTo"`
}

const summaryTextLimit = 160

func summarizeNode(n domain.Node, edges []domain.Edge) nodeSummary {
	text := n.Data.Description
	if r := []rune(text); len(r) > summaryTextLimit {
		text = string(r[:summaryTextLimit]) + "…"
	}
	links := []string{}
	for _, e := range edges {
		if e.Source == n.ID {
			links = append(links, e.Target)
		}
	}
	for _, t := range n.Data.Choices.Targets() {
		if t != "" {
			links = append(links, t)
		}
	}
	return nodeSummary{
		ID:        n.ID,
		Type:      n.Type,
		Label:     n.Label,
		Paragraph: n.Data.ParagraphNumber,
		Text:      text,
		Choices:   len(n.Data.Choices),
		LinksTo:   links,
	}
}

func (s *Server) handleListNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.resolveBook(ctx, req); err != nil {
		return nil, err
	}
	filter := domain.NodeType(req.GetString("type", ""))
	g := s.books.Graph()
	edges := g.Edges()

	out := []nodeSummary{}
	for _, n := range g.Nodes() {
		if filter != "" && n.Type != filter {
			continue
		}
		out = append(out, summarizeNode(n, edges))
	}
	return jsonResult(out)
}

func (s *Server) handleCreateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	typ := domain.NodeType(strings.ToLower(req.GetString("type", "")))
	switch typ {
	case domain.NodeTypeStart, domain.NodeTypeStory, domain.NodeTypeEnd, domain.NodeTypeLocation:
	default:
		return nil, fmt.Errorf("type must be one of start, story, end, location")
	}

	g := s.books.Graph()
	args := req.GetArguments()
	var pos domain.Position
	if _, hasX := args["x"]; hasX {
		pos = domain.Position{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}
	} else {
		pos = s.layout.NextPosition(g.Nodes())
	}

	node, ok := g.CreateNode(pos, typ)
	if !ok {
		return nil, fmt.Errorf("create node: a %s node cannot be added to this book", typ)
	}

	label, hasLabel := args["label"].(string)
	desc, hasDesc := args["description"].(string)
	if hasLabel || hasDesc {
		patch := domain.NodePatch{}
		if hasLabel {
			patch.Label = &label
		}
		data := node.Data
		if hasDesc {
			data.Description = desc
		}
		patch.Data = &data
		g.UpdateNode(node.ID, patch)
	}

	if from := req.GetString("connectFrom", ""); from != "" {
		if _, ok := g.AddConnection(domain.Connection{Source: from, Target: node.ID}); !ok {
			return nil, fmt.Errorf("node %s created but connectFrom %q is not a node", node.ID, from)
		}
	}

	s.emitGraphChanged(ctx, bookID)
	created, _ := g.Node(node.ID)
	return jsonResult(summarizeNode(created, g.Edges()))
}

func (s *Server) handleConnectNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	source := req.GetString("source", "")
	target := req.GetString("target", "")
	if source == "" || target == "" {
		return nil, fmt.Errorf("source and target are required")
	}

	g := s.books.Graph()
	edge, ok := g.AddConnection(domain.Connection{Source: source, Target: target})
	if !ok {
		return nil, fmt.Errorf("connect nodes: %s or %s is not a node", source, target)
	}
	if label := req.GetString("label", ""); label != "" {
		g.UpdateEdge(edge.ID, domain.EdgePatch{Label: &label})
		edge, _ = g.Edge(edge.ID)
	}
	s.emitGraphChanged(ctx, bookID)
	return jsonResult(edge)
}

func (s *Server) handleUpdateNodeText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	nodeID := req.GetString("nodeId", "")
	if nodeID == "" {
		return nil, fmt.Errorf("nodeId is required")
	}
	g := s.books.Graph()
	node, ok := g.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}

	args := req.GetArguments()
	patch := domain.NodePatch{}
	if label, ok := args["label"].(string); ok {
		patch.Label = &label
	}
	if desc, ok := args["description"].(string); ok {
		data := node.Data
		data.Description = desc
		patch.Data = &data
	}
	if patch.Label == nil && patch.Data == nil {
		return nil, fmt.Errorf("label or description is required")
	}
	g.UpdateNode(nodeID, patch)
	s.emitGraphChanged(ctx, bookID)

	updated, _ := g.Node(nodeID)
	return jsonResult(summarizeNode(updated, g.Edges()))
}

func (s *Server) handleDeleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bookID, err := s.resolveBook(ctx, req)
	if err != nil {
		return nil, err
	}
	nodeID := req.GetString("nodeId", "")
	g := s.books.Graph()
	node, ok := g.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}

	desc := fmt.Sprintf("Delete node %q and every link to it", node.Label)
	if err := s.confirm(ctx, "delete_node", desc, fmt.Sprintf(`{"nodeIds":[%q]}`, nodeID)); err != nil {
		return nil, err
	}
	if !g.DeleteNode(nodeID) {
		return nil, fmt.Errorf("node %s not found", nodeID)
	}
	s.emitGraphChanged(ctx, bookID)
	return textResult(fmt.Sprintf("Deleted node %s", nodeID)), nil
}
