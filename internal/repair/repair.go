// Package repair turns untrusted, possibly outdated book documents into the
// current typed model. It is the only place that handles untyped document
// data: everything it returns is a domain.Book.
package repair

import (
	"encoding/json"
	"fmt"
	"log"

	"gamebooks/internal/domain"
)

// JSON parses and repairs a stored document. Text that is not valid JSON
// yields an empty book.
func JSON(data []byte) domain.Book {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("repair: document is not valid JSON: %v", err)
		return domain.NewBook()
	}
	return Document(raw)
}

// Document repairs a decoded JSON value. It never fails: anything missing or
// malformed is replaced by its default. Nodes, edges and assets are dropped
// only when they are not objects or have no string id.
func Document(raw any) domain.Book {
	book := domain.NewBook()
	obj, ok := raw.(map[string]any)
	if !ok {
		return book
	}

	book.Meta = repairMeta(obj["meta"])
	book.Nodes = repairNodes(obj["nodes"])
	book.Edges = repairEdges(obj["edges"])
	book.Assets = repairAssets(obj["assets"])
	book.Events = repairEvents(obj["events"])
	book.Viewport = repairViewport(obj["viewport"])
	book.CharacterSheetSchema = repairSchema(obj["characterSheetSchema"])
	book.CharacterSheet = repairSheet(obj["characterSheet"])
	return book
}

func repairMeta(v any) domain.BookMeta {
	meta := domain.NewBook().Meta
	m, ok := v.(map[string]any)
	if !ok {
		return meta
	}
	if s, ok := m["title"].(string); ok {
		meta.Title = s
	}
	if s, ok := m["description"].(string); ok {
		meta.Description = s
	}
	if s, ok := m["author"].(string); ok {
		meta.Author = s
	}
	if s, ok := m["imageId"].(string); ok {
		meta.ImageID = s
	}
	return meta
}

// nodeKeys are the fields that stay on a node when a legacy flattened node is
// folded into the nested data shape.
var nodeKeys = map[string]bool{
	"id": true, "type": true, "position": true, "label": true, "selected": true,
}

func repairNodes(v any) []domain.Node {
	items, _ := v.([]any)
	nodes := make([]domain.Node, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			log.Printf("repair: dropping node %d: not an object", i)
			continue
		}

		node := make(map[string]any, len(m))
		for k, val := range m {
			if k == "style" || k == "hidden" {
				continue
			}
			node[k] = val
		}

		if _, nested := node["data"].(map[string]any); !nested {
			data := make(map[string]any)
			for k, val := range node {
				if !nodeKeys[k] {
					data[k] = val
					delete(node, k)
				}
			}
			node["data"] = data
		}
		node["selected"] = truthy(node["selected"])

		id, ok := node["id"].(string)
		if !ok {
			log.Printf("repair: dropping node %d: no string id", i)
			continue
		}
		data := node["data"].(map[string]any)
		node["data"] = lenient[domain.NodeData](data, "node "+id+" data")
		nodes = append(nodes, lenient[domain.Node](node, "node "+id))
	}
	return nodes
}

func repairEdges(v any) []domain.Edge {
	items, _ := v.([]any)
	edges := make([]domain.Edge, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			log.Printf("repair: dropping edge %d: not an object", i)
			continue
		}
		edge := make(map[string]any, len(m))
		for k, val := range m {
			if k == "selected" || k == "hidden" {
				continue
			}
			edge[k] = val
		}
		// Older documents store the marker as {"type": "arrowclosed"}.
		if marker, ok := edge["markerEnd"].(map[string]any); ok {
			edge["markerEnd"], _ = marker["type"].(string)
		}

		id, ok := edge["id"].(string)
		if !ok {
			log.Printf("repair: dropping edge %d: no string id", i)
			continue
		}
		if data, ok := edge["data"].(map[string]any); ok {
			edge["data"] = lenient[domain.EdgeData](data, "edge "+id+" data")
		}
		edges = append(edges, lenient[domain.Edge](edge, "edge "+id))
	}
	return edges
}

func repairAssets(v any) []domain.Asset {
	items, _ := v.([]any)
	assets := make([]domain.Asset, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			log.Printf("repair: dropping asset %d: not an object", i)
			continue
		}
		id, ok := m["id"].(string)
		if !ok {
			log.Printf("repair: dropping asset %d: no string id", i)
			continue
		}
		assets = append(assets, lenient[domain.Asset](m, "asset "+id))
	}
	return assets
}

// repairEvents keeps only objects with a non-empty name. Ids come from the
// stored id or are derived from the name; derived ids never collide with an
// id already in use, and later duplicates of an explicit id are dropped.
func repairEvents(v any) []domain.Event {
	items, _ := v.([]any)

	type candidate struct {
		id, name string
		derived  bool
		initial  any
	}
	var candidates []candidate
	explicit := make(map[string]bool)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		c := candidate{name: name, initial: false}
		if id, ok := m["id"].(string); ok && id != "" {
			c.id = id
			explicit[id] = true
		} else {
			c.id = domain.EventIDFromName(name)
			c.derived = true
		}
		switch iv := m["initialValue"].(type) {
		case bool, float64, string:
			c.initial = iv
		}
		candidates = append(candidates, c)
	}

	events := make([]domain.Event, 0, len(candidates))
	used := make(map[string]bool)
	for _, c := range candidates {
		id := c.id
		if c.derived {
			for n := 2; used[id] || explicit[id]; n++ {
				id = fmt.Sprintf("%s_%d", c.id, n)
			}
		} else if used[id] {
			log.Printf("repair: dropping event %q: duplicate id %q", c.name, id)
			continue
		}
		used[id] = true
		events = append(events, domain.Event{ID: id, Name: c.name, InitialValue: c.initial})
	}
	return events
}

func repairViewport(v any) domain.Viewport {
	vp := domain.DefaultViewport()
	m, ok := v.(map[string]any)
	if !ok {
		return vp
	}
	if inner, ok := m["flowTransform"].(map[string]any); ok {
		m = inner
	}
	if x, ok := m["x"].(float64); ok {
		vp.X = x
	}
	if y, ok := m["y"].(float64); ok {
		vp.Y = y
	}
	if z, ok := m["zoom"].(float64); ok && z > 0 {
		vp.Zoom = z
	}
	return vp
}

func repairSchema(v any) *domain.CharacterSheetSchema {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	schema := lenient[domain.CharacterSheetSchema](m, "character sheet schema")
	if schema.Layout == nil {
		schema.Layout = []domain.SectionSchema{}
	}
	return &schema
}

func repairSheet(v any) domain.CharacterSheet {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	sheet := make(domain.CharacterSheet, len(m))
	for key, val := range m {
		data, err := domain.NewSectionData(val)
		if err != nil {
			log.Printf("repair: dropping character sheet section %q: %v", key, err)
			continue
		}
		sheet[key] = data
	}
	return sheet
}
