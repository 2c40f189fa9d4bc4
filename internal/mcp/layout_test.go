package mcpserver

import (
	"testing"

	"gamebooks/internal/domain"
)

func TestNextPosition_EmptyGraph(t *testing.T) {
	le := NewLayoutEngine()
	if p := le.NextPosition(nil); p.X != 0 || p.Y != 0 {
		t.Errorf("expected (0, 0) for an empty graph, got (%.0f, %.0f)", p.X, p.Y)
	}
}

func TestNextPosition_AvoidsExistingNodes(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Node{
		{Position: domain.Position{X: 0, Y: 0}},
		{Position: domain.Position{X: 400, Y: 0}, Data: domain.NodeData{Width: 400, Height: 300}},
	}
	p := le.NextPosition(existing)

	candidate := rect{p.X, p.Y, DefaultNodeWidth, DefaultNodeHeight}
	for _, n := range existing {
		r := nodeRect(n)
		if candidate.intersects(r) {
			t.Fatalf("position (%.0f, %.0f) overlaps node at (%.0f, %.0f)", p.X, p.Y, r.x, r.y)
		}
	}
	if p.X != le.snap(p.X) || p.Y != le.snap(p.Y) {
		t.Errorf("position (%.0f, %.0f) is not on the grid", p.X, p.Y)
	}
}

func TestNextPosition_FillsRowBeforeWrapping(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Node{{Position: domain.Position{X: 0, Y: 0}}}
	p := le.NextPosition(existing)
	if p.Y != 0 {
		t.Errorf("expected the first row to be used, got y=%.0f", p.Y)
	}
	if p.X < DefaultNodeWidth+Padding {
		t.Errorf("expected x past the existing node, got %.0f", p.X)
	}
}
