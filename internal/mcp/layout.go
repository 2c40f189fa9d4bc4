package mcpserver

import (
	"math"

	"gamebooks/internal/domain"
)

const (
	GridSize = 20.0
	Padding  = 60.0
	MaxRowW  = 2400.0

	// Nodes without stored dimensions are assumed to be this big.
	DefaultNodeWidth  = 250.0
	DefaultNodeHeight = 150.0
)

// LayoutEngine picks positions for agent-created nodes so they don't land on
// top of existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func nodeRect(n domain.Node) rect {
	w, h := n.Data.Width, n.Data.Height
	if w <= 0 {
		w = DefaultNodeWidth
	}
	if h <= 0 {
		h = DefaultNodeHeight
	}
	return rect{n.Position.X, n.Position.Y, w, h}
}

// NextPosition finds the first free grid position, scanning rows top to
// bottom, for a node of the default size.
func (le *LayoutEngine) NextPosition(existing []domain.Node) domain.Position {
	if len(existing) == 0 {
		return domain.Position{}
	}

	occupied := make([]rect, len(existing))
	for i, n := range existing {
		occ := nodeRect(n)
		occupied[i] = rect{
			x: occ.x - le.padding,
			y: occ.y - le.padding,
			w: occ.w + le.padding*2,
			h: occ.h + le.padding*2,
		}
	}

	candidate := rect{w: DefaultNodeWidth, h: DefaultNodeHeight}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x < le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return domain.Position{X: candidate.x, Y: candidate.y}
			}
		}
	}

	maxY := 0.0
	for _, n := range existing {
		r := nodeRect(n)
		if r.y+r.h > maxY {
			maxY = r.y + r.h
		}
	}
	return domain.Position{X: 0, Y: le.snap(maxY + le.padding)}
}
