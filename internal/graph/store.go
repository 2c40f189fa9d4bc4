// Package graph holds the authoritative in-memory copy of a book's story
// graph: nodes, edges and the editor viewport.
package graph

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"gamebooks/internal/domain"
)

// DirtyMarker is notified after every change the store makes. The book
// orchestrator implements it.
type DirtyMarker interface {
	// MarkDirty is called after a structural change to nodes or edges.
	MarkDirty()
	// ScheduleViewportSave is called after the camera moved. It must not mark
	// the book dirty.
	ScheduleViewportSave()
}

type noopMarker struct{}

func (noopMarker) MarkDirty()            {}
func (noopMarker) ScheduleViewportSave() {}

// Store is safe for concurrent use. It never calls its DirtyMarker while
// holding its own lock.
type Store struct {
	mu       sync.RWMutex
	nodes    []domain.Node
	edges    []domain.Edge
	viewport domain.Viewport
	filters  Filters

	marker DirtyMarker
	newID  func() string
}

// New creates an empty store. A nil marker discards notifications.
func New(marker DirtyMarker) *Store {
	if marker == nil {
		marker = noopMarker{}
	}
	return &Store{
		nodes:    []domain.Node{},
		edges:    []domain.Edge{},
		viewport: domain.DefaultViewport(),
		marker:   marker,
		newID:    uuid.NewString,
	}
}

// mutate runs fn under the write lock and marks the book dirty afterwards if
// fn reports a change.
func (s *Store) mutate(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.marker.MarkDirty()
	}
	return changed
}

// ── Bulk load ────────────────────────────────────────────────

// SetElements replaces the whole graph. It is only used when a book is loaded
// and does not mark anything dirty.
func (s *Store) SetElements(nodes []domain.Node, edges []domain.Edge, viewport domain.Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		n = n.Clone()
		n.Style = sizeStyle(n)
		s.nodes = append(s.nodes, n)
	}
	s.edges = make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		s.edges = append(s.edges, e.Clone())
	}
	s.viewport = viewport
	s.applyFiltersLocked()
}

// Clear empties the store and resets the viewport and filters.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = []domain.Node{}
	s.edges = []domain.Edge{}
	s.viewport = domain.DefaultViewport()
	s.filters = Filters{}
}

// ── Readers ─────────────────────────────────────────────────

func (s *Store) Nodes() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out
}

func (s *Store) Edges() []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Edge, len(s.edges))
	for i, e := range s.edges {
		out[i] = e.Clone()
	}
	return out
}

func (s *Store) Viewport() domain.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

func (s *Store) Node(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.nodeIndex(id); i >= 0 {
		return s.nodes[i].Clone(), true
	}
	return domain.Node{}, false
}

func (s *Store) Edge(id string) (domain.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.edgeIndex(id); i >= 0 {
		return s.edges[i].Clone(), true
	}
	return domain.Edge{}, false
}

// Snapshot returns the graph in its persisted shape: view state is stripped
// from nodes and edges.
func (s *Store) Snapshot() ([]domain.Node, []domain.Edge, domain.Viewport) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]domain.Node, len(s.nodes))
	for i, n := range s.nodes {
		nodes[i] = n.Clone().Persistable()
	}
	edges := make([]domain.Edge, len(s.edges))
	for i, e := range s.edges {
		edges[i] = e.Persistable()
	}
	return nodes, edges, s.viewport
}

// NewParagraphNumber returns the smallest positive paragraph number not in use.
func (s *Store) NewParagraphNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newParagraphNumberLocked()
}

func (s *Store) newParagraphNumberLocked() int {
	used := make(map[int]bool, len(s.nodes))
	for _, n := range s.nodes {
		used[n.Data.ParagraphNumber] = true
	}
	p := 1
	for used[p] {
		p++
	}
	return p
}

// ── Viewport ────────────────────────────────────────────────

// UpdateViewport moves the camera. The change is persisted through the
// viewport save path and never marks the book dirty.
func (s *Store) UpdateViewport(v domain.Viewport) {
	s.mu.Lock()
	s.viewport = v
	s.mu.Unlock()
	s.marker.ScheduleViewportSave()
}

// ── Nodes ───────────────────────────────────────────────────

// CreateNode adds a node of type typ at pos. A second start node is refused.
func (s *Store) CreateNode(pos domain.Position, typ domain.NodeType) (domain.Node, bool) {
	var created domain.Node
	ok := s.mutate(func() bool {
		if err := s.checkNodeTypeLocked(typ, ""); err != nil {
			log.Printf("graph: create node: %v", err)
			return false
		}
		created = s.newNodeLocked(pos, typ)
		s.nodes = append(s.nodes, created)
		return true
	})
	return created.Clone(), ok
}

// CreateNodeAndConnect creates a story node next to sourceID, on the side the
// choice leaves from, and connects the two. branch names the choice branch
// (success, failure or a dice outcome) and only nudges the position.
func (s *Store) CreateNodeAndConnect(sourceID string, choice domain.Choice, branch string) (domain.Node, bool) {
	handle := ""
	if choice != nil {
		handle = choice.Handle()
	}

	var created domain.Node
	ok := s.mutate(func() bool {
		i := s.nodeIndex(sourceID)
		if i < 0 {
			log.Printf("graph: create and connect: unknown source node %q", sourceID)
			return false
		}
		pos, sourceHandle, targetHandle := placeNext(s.nodes[i], handle, branch)
		created = s.newNodeLocked(pos, domain.NodeTypeStory)
		created.Data.Description = ""
		s.nodes = append(s.nodes, created)
		s.edges = append(s.edges, s.newEdgeLocked(domain.Connection{
			Source:       sourceID,
			Target:       created.ID,
			SourceHandle: sourceHandle,
			TargetHandle: targetHandle,
		}))
		return true
	})
	return created.Clone(), ok
}

// UpdateNode applies a partial update. Changing a node into a second start
// node is refused.
func (s *Store) UpdateNode(id string, patch domain.NodePatch) bool {
	return s.mutate(func() bool {
		i := s.nodeIndex(id)
		if i < 0 {
			log.Printf("graph: update node: unknown node %q", id)
			return false
		}
		n := &s.nodes[i]
		if patch.Type != nil {
			if err := s.checkNodeTypeLocked(*patch.Type, id); err != nil {
				log.Printf("graph: update node: %v", err)
				return false
			}
			n.Type = *patch.Type
		}
		if patch.Label != nil {
			n.Label = *patch.Label
		}
		if patch.Position != nil {
			n.Position = *patch.Position
		}
		if patch.Data != nil {
			n.Data = patch.Data.Clone()
		}
		n.Style = sizeStyle(*n)
		s.applyFiltersLocked()
		return true
	})
}

// MoveNode repositions a node. Moving is a structural edit and marks the book
// dirty.
func (s *Store) MoveNode(id string, pos domain.Position) bool {
	return s.UpdateNode(id, domain.NodePatch{Position: &pos})
}

// UpdateNodeDimensions stores a user-resized box size in the node data.
func (s *Store) UpdateNodeDimensions(id string, width, height float64) bool {
	return s.mutate(func() bool {
		i := s.nodeIndex(id)
		if i < 0 {
			log.Printf("graph: update dimensions: unknown node %q", id)
			return false
		}
		s.nodes[i].Data.Width = width
		s.nodes[i].Data.Height = height
		s.nodes[i].Style = sizeStyle(s.nodes[i])
		return true
	})
}

// DeleteNode removes a node, every edge touching it, and clears every choice
// or dice outcome target elsewhere in the graph that pointed at it.
func (s *Store) DeleteNode(id string) bool {
	return s.mutate(func() bool {
		i := s.nodeIndex(id)
		if i < 0 {
			log.Printf("graph: delete node: unknown node %q", id)
			return false
		}
		s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)

		kept := s.edges[:0]
		for _, e := range s.edges {
			if !e.Touches(id) {
				kept = append(kept, e)
			}
		}
		s.edges = kept

		for j := range s.nodes {
			s.nodes[j].Data.Choices.ClearTarget(id)
			s.nodes[j].Data.Actions.ClearTarget(id)
		}
		for j := range s.edges {
			if s.edges[j].Data != nil {
				s.edges[j].Data.Actions.ClearTarget(id)
			}
		}
		return true
	})
}

// ── Edges ───────────────────────────────────────────────────

// AddConnection creates an edge between two existing nodes.
func (s *Store) AddConnection(c domain.Connection) (domain.Edge, bool) {
	var created domain.Edge
	ok := s.mutate(func() bool {
		if c.Source == "" || c.Target == "" {
			log.Printf("graph: add connection: invalid connection %+v", c)
			return false
		}
		if s.nodeIndex(c.Source) < 0 || s.nodeIndex(c.Target) < 0 {
			log.Printf("graph: add connection: unknown endpoint in %+v", c)
			return false
		}
		created = s.newEdgeLocked(c)
		s.edges = append(s.edges, created)
		return true
	})
	return created.Clone(), ok
}

// UpdateEdge applies a partial update. Data fields are merged one by one.
func (s *Store) UpdateEdge(id string, patch domain.EdgePatch) bool {
	return s.mutate(func() bool {
		i := s.edgeIndex(id)
		if i < 0 {
			log.Printf("graph: update edge: unknown edge %q", id)
			return false
		}
		e := &s.edges[i]
		if patch.Label != nil {
			e.Label = *patch.Label
		}
		if patch.SourceHandle != nil {
			e.SourceHandle = *patch.SourceHandle
		}
		if patch.TargetHandle != nil {
			e.TargetHandle = *patch.TargetHandle
		}
		if patch.Data != nil {
			if e.Data == nil {
				e.Data = &domain.EdgeData{}
			}
			if patch.Data.Description != nil {
				e.Data.Description = *patch.Data.Description
			}
			if patch.Data.Actions != nil {
				e.Data.Actions = patch.Data.Actions.Clone()
			}
		}
		return true
	})
}

// UpdateEdgeSourceHandle moves the start of the edge between source and target
// to another handle of the source node.
func (s *Store) UpdateEdgeSourceHandle(source, target, handle string) bool {
	if source == "" || target == "" || handle == "" {
		return false
	}
	return s.mutate(func() bool {
		for i := range s.edges {
			e := &s.edges[i]
			if e.Source == source && e.Target == target {
				if e.SourceHandle == handle {
					return false
				}
				e.SourceHandle = handle
				return true
			}
		}
		return false
	})
}

func (s *Store) DeleteEdge(id string) bool {
	return s.mutate(func() bool {
		i := s.edgeIndex(id)
		if i < 0 {
			log.Printf("graph: delete edge: unknown edge %q", id)
			return false
		}
		s.edges = append(s.edges[:i], s.edges[i+1:]...)
		return true
	})
}

// ── Helpers (callers hold the lock) ─────────────────────────

func (s *Store) nodeIndex(id string) int {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) edgeIndex(id string) int {
	for i := range s.edges {
		if s.edges[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) checkNodeTypeLocked(typ domain.NodeType, self string) error {
	switch typ {
	case domain.NodeTypeStart:
		for _, n := range s.nodes {
			if n.Type == domain.NodeTypeStart && n.ID != self {
				return fmt.Errorf("book already has a start node (%s)", n.ID)
			}
		}
	case domain.NodeTypeStory, domain.NodeTypeEnd, domain.NodeTypeLocation:
	default:
		return fmt.Errorf("unknown node type %q", typ)
	}
	return nil
}

func (s *Store) newNodeLocked(pos domain.Position, typ domain.NodeType) domain.Node {
	n := domain.Node{
		ID:       s.newID(),
		Type:     typ,
		Position: pos,
		Label:    defaultLabel(typ),
		Data: domain.NodeData{
			Description: "Write the passage here...",
			Color:       defaultColor(typ),
			Tags:        []string{},
		},
	}
	if typ != domain.NodeTypeLocation {
		n.Data.ParagraphNumber = s.newParagraphNumberLocked()
	}
	if s.filters.hides(n) {
		n.Hidden = true
	}
	return n
}

func (s *Store) newEdgeLocked(c domain.Connection) domain.Edge {
	return domain.Edge{
		ID:           s.newID(),
		Source:       c.Source,
		Target:       c.Target,
		SourceHandle: c.SourceHandle,
		TargetHandle: c.TargetHandle,
		MarkerEnd:    domain.MarkerArrowClosed,
		Data:         &domain.EdgeData{Actions: domain.ActionList{}},
	}
}

func defaultLabel(typ domain.NodeType) string {
	switch typ {
	case domain.NodeTypeStart:
		return "Start"
	case domain.NodeTypeEnd:
		return "New Ending"
	case domain.NodeTypeLocation:
		return "New Location"
	default:
		return "New Paragraph"
	}
}

func defaultColor(typ domain.NodeType) string {
	switch typ {
	case domain.NodeTypeStart:
		return "#2e7d32"
	case domain.NodeTypeEnd:
		return "#d32f2f"
	case domain.NodeTypeLocation:
		return "#1565c0"
	default:
		return "#455a64"
	}
}

// sizeStyle derives the CSS box size of resizable nodes from their stored
// dimensions.
func sizeStyle(n domain.Node) map[string]string {
	if !n.Type.Resizable() {
		return nil
	}
	style := map[string]string{}
	if n.Data.Width > 0 {
		style["width"] = fmt.Sprintf("%gpx", n.Data.Width)
	}
	if n.Data.Height > 0 {
		style["height"] = fmt.Sprintf("%gpx", n.Data.Height)
	}
	if len(style) == 0 {
		return nil
	}
	return style
}
