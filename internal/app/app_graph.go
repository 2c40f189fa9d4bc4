package app

import (
	"fmt"

	"gamebooks/internal/domain"
	"gamebooks/internal/graph"
)

// ============================================================
// Story Graph — thin delegates to the graph store
// ============================================================

// refused turns a store's "nothing changed" result into an error the
// frontend can show. The store logs the reason.
func refused(op, id string, ok bool) error {
	if ok {
		return nil
	}
	if id == "" {
		return fmt.Errorf("%s refused", op)
	}
	return fmt.Errorf("%s %s refused", op, id)
}

func (a *App) graphStore() (*graph.Store, error) {
	ws, err := a.ready()
	if err != nil {
		return nil, err
	}
	return ws.Books.Graph(), nil
}

func (a *App) CreateNode(nodeType string, x, y float64) (domain.Node, error) {
	g, err := a.graphStore()
	if err != nil {
		return domain.Node{}, err
	}
	n, ok := g.CreateNode(domain.Position{X: x, Y: y}, domain.NodeType(nodeType))
	return n, refused("create node", "", ok)
}

// CreateNodeAndConnect creates a story node next to sourceID and links it.
// choiceJSON is the choice the link belongs to, or "" for a plain link.
func (a *App) CreateNodeAndConnect(sourceID, choiceJSON, branch string) (domain.Node, error) {
	g, err := a.graphStore()
	if err != nil {
		return domain.Node{}, err
	}
	var choice domain.Choice
	if choiceJSON != "" {
		if choice, err = domain.DecodeChoice([]byte(choiceJSON)); err != nil {
			return domain.Node{}, err
		}
	}
	n, ok := g.CreateNodeAndConnect(sourceID, choice, branch)
	return n, refused("create node from", sourceID, ok)
}

func (a *App) UpdateNode(id string, patch domain.NodePatch) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	return refused("update node", id, g.UpdateNode(id, patch))
}

func (a *App) MoveNode(id string, x, y float64) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	return refused("move node", id, g.MoveNode(id, domain.Position{X: x, Y: y}))
}

func (a *App) ResizeNode(id string, width, height float64) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	return refused("resize node", id, g.UpdateNodeDimensions(id, width, height))
}

func (a *App) DeleteNode(id string) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	if a.editor != nil {
		if editing, ok := a.editor.Editing(); ok && editing == id {
			a.editor.Close()
		}
	}
	return refused("delete node", id, g.DeleteNode(id))
}

func (a *App) AddConnection(c domain.Connection) (domain.Edge, error) {
	g, err := a.graphStore()
	if err != nil {
		return domain.Edge{}, err
	}
	e, ok := g.AddConnection(c)
	return e, refused("connect", c.Source, ok)
}

func (a *App) UpdateEdge(id string, patch domain.EdgePatch) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	return refused("update edge", id, g.UpdateEdge(id, patch))
}

// UpdateEdgeSourceHandle reports false when no edge links source to target
// or it already leaves from handle.
func (a *App) UpdateEdgeSourceHandle(source, target, handle string) (bool, error) {
	g, err := a.graphStore()
	if err != nil {
		return false, err
	}
	return g.UpdateEdgeSourceHandle(source, target, handle), nil
}

func (a *App) DeleteEdge(id string) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	return refused("delete edge", id, g.DeleteEdge(id))
}

// UpdateViewport stores the camera. It is saved on its own timer and never
// marks the book dirty.
func (a *App) UpdateViewport(x, y, zoom float64) error {
	g, err := a.graphStore()
	if err != nil {
		return err
	}
	g.UpdateViewport(domain.Viewport{X: x, Y: y, Zoom: zoom})
	return nil
}

func (a *App) ApplyFilters(filters graph.Filters) ([]domain.Node, error) {
	g, err := a.graphStore()
	if err != nil {
		return nil, err
	}
	g.ApplyFilters(filters)
	return g.Nodes(), nil
}

func (a *App) NewParagraphNumber() (int, error) {
	g, err := a.graphStore()
	if err != nil {
		return 0, err
	}
	return g.NewParagraphNumber(), nil
}
