package domain

type NodeType string

const (
	NodeTypeStart    NodeType = "start"
	NodeTypeStory    NodeType = "story"
	NodeTypeEnd      NodeType = "end"
	NodeTypeLocation NodeType = "location"
)

// Resizable reports whether the editor lets the user resize nodes of this type.
func (t NodeType) Resizable() bool {
	return t == NodeTypeStart || t == NodeTypeStory || t == NodeTypeEnd
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a story unit in the graph.
// Hidden and Style are view state derived at runtime and are never persisted.
type Node struct {
	ID       string            `json:"id"`
	Type     NodeType          `json:"type"`
	Position Position          `json:"position"`
	Label    string            `json:"label"`
	Selected bool              `json:"selected"`
	Hidden   bool              `json:"hidden,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Data     NodeData          `json:"data"`
}

type NodeData struct {
	ParagraphNumber int        `json:"paragraphNumber,omitempty"`
	Description     string     `json:"description,omitempty"`
	ImageID         string     `json:"imageId,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Color           string     `json:"color,omitempty"`
	Width           float64    `json:"width,omitempty"`
	Height          float64    `json:"height,omitempty"`
	Actions         ActionList `json:"actions,omitempty"`
	Choices         ChoiceList `json:"choices,omitempty"`
	MapID           string     `json:"mapId,omitempty"`
	MapPosition     *Position  `json:"mapPosition,omitempty"`
	TargetMapID     string     `json:"targetMapId,omitempty"`
}

// HasTag reports whether the node carries tag.
func (n Node) HasTag(tag string) bool {
	for _, t := range n.Data.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Persistable returns a copy without view state.
func (n Node) Persistable() Node {
	n.Hidden = false
	n.Style = nil
	return n
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (n Node) Clone() Node {
	if n.Style != nil {
		style := make(map[string]string, len(n.Style))
		for k, v := range n.Style {
			style[k] = v
		}
		n.Style = style
	}
	n.Data = n.Data.Clone()
	return n
}

func (d NodeData) Clone() NodeData {
	if d.Tags != nil {
		d.Tags = append([]string(nil), d.Tags...)
	}
	if d.MapPosition != nil {
		p := *d.MapPosition
		d.MapPosition = &p
	}
	d.Actions = d.Actions.Clone()
	d.Choices = d.Choices.Clone()
	return d
}

// NodePatch is a partial node update. Nil fields are left untouched;
// a non-nil Data replaces the whole payload.
type NodePatch struct {
	Label    *string   `json:"label,omitempty"`
	Type     *NodeType `json:"type,omitempty"`
	Position *Position `json:"position,omitempty"`
	Data     *NodeData `json:"data,omitempty"`
}
