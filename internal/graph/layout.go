package graph

import (
	"hash/fnv"

	"gamebooks/internal/domain"
)

const (
	defaultNodeWidth  = 200
	defaultNodeHeight = 100
	gapX              = 100
	gapY              = 80
	branchSpread      = 120
)

// Handle ids used by the editor. Every node has one source and one target
// handle per side.
const (
	HandleRightSource  = "right-source"
	HandleLeftSource   = "left-source"
	HandleTopSource    = "top-source"
	HandleBottomSource = "bottom-source"
	HandleLeftTarget   = "left-target"
	HandleRightTarget  = "right-target"
	HandleTopTarget    = "top-target"
	HandleBottomTarget = "bottom-target"
)

// placeNext computes where a node created from a choice of src goes, and the
// handles the connecting edge uses. Unknown handles are treated as bottom.
func placeNext(src domain.Node, handle, branch string) (domain.Position, string, string) {
	w, h := src.Data.Width, src.Data.Height
	if w <= 0 {
		w = defaultNodeWidth
	}
	if h <= 0 {
		h = defaultNodeHeight
	}
	dx, dy := w+gapX, h+gapY
	pos := src.Position
	spread := branchOffset(branch)

	switch handle {
	case HandleRightSource:
		pos.X += dx
		pos.Y += spread
		return pos, HandleRightSource, HandleLeftTarget
	case HandleLeftSource:
		pos.X -= dx
		pos.Y += spread
		return pos, HandleLeftSource, HandleRightTarget
	case HandleTopSource:
		pos.Y -= dy
		pos.X += spread
		return pos, HandleTopSource, HandleBottomTarget
	default:
		pos.Y += dy
		pos.X += spread
		return pos, HandleBottomSource, HandleTopTarget
	}
}

// branchOffset spreads sibling branches of one choice apart. It has no
// meaning beyond keeping new nodes from stacking on each other.
func branchOffset(branch string) float64 {
	switch branch {
	case "":
		return 0
	case "success":
		return -branchSpread
	case "failure":
		return branchSpread
	}
	h := fnv.New32a()
	h.Write([]byte(branch))
	return float64(int(h.Sum32()%5)-2) * branchSpread / 2
}
