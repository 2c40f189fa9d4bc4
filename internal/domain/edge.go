package domain

// MarkerArrowClosed is the arrow head drawn at the end of new connections.
const MarkerArrowClosed = "arrowclosed"

// Edge is a directed structural transition between two nodes.
// Selected and Hidden are editor state and are dropped when persisting.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Label        string    `json:"label"`
	MarkerEnd    string    `json:"markerEnd,omitempty"`
	Data         *EdgeData `json:"data,omitempty"`
	Selected     bool      `json:"selected,omitempty"`
	Hidden       bool      `json:"hidden,omitempty"`
}

type EdgeData struct {
	Description string     `json:"description,omitempty"`
	Actions     ActionList `json:"actions,omitempty"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Persistable returns the stable serialized shape of the edge.
func (e Edge) Persistable() Edge {
	e.Selected = false
	e.Hidden = false
	return e.Clone()
}

func (e Edge) Clone() Edge {
	if e.Data != nil {
		d := *e.Data
		d.Actions = d.Actions.Clone()
		e.Data = &d
	}
	return e
}

// EdgePatch is a partial edge update. Data is merged key by key.
type EdgePatch struct {
	Label        *string        `json:"label,omitempty"`
	SourceHandle *string        `json:"sourceHandle,omitempty"`
	TargetHandle *string        `json:"targetHandle,omitempty"`
	Data         *EdgeDataPatch `json:"data,omitempty"`
}

type EdgeDataPatch struct {
	Description *string     `json:"description,omitempty"`
	Actions     *ActionList `json:"actions,omitempty"`
}

// Connection describes a new edge to create.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}
