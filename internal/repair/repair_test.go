package repair_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"gamebooks/internal/domain"
	"gamebooks/internal/repair"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

// ─────────────────────────────────────────────────────────────
// Defaults
// ─────────────────────────────────────────────────────────────

func TestDocument_NonObjectYieldsDefaults(t *testing.T) {
	for _, raw := range []any{nil, "book", 3.0, []any{}, true} {
		book := repair.Document(raw)
		if book.Meta.Title != domain.DefaultTitle {
			t.Errorf("%v: title %q", raw, book.Meta.Title)
		}
		if book.Nodes == nil || book.Edges == nil || book.Assets == nil || book.Events == nil {
			t.Errorf("%v: expected initialized collections", raw)
		}
		if book.Viewport != domain.DefaultViewport() {
			t.Errorf("%v: viewport %+v", raw, book.Viewport)
		}
	}
}

func TestDocument_EmptyObjectIsComplete(t *testing.T) {
	got := marshal(t, repair.Document(map[string]any{}))
	want := `{"meta":{"title":"Untitled","description":"","author":""},"nodes":[],"edges":[],"assets":[],"events":[],"viewport":{"x":0,"y":0,"zoom":1}}`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestJSON_InvalidTextYieldsDefaults(t *testing.T) {
	book := repair.JSON([]byte("{not json"))
	if book.Meta.Title != domain.DefaultTitle || len(book.Nodes) != 0 {
		t.Fatalf("unexpected book %+v", book)
	}
}

func TestDocument_MetaMergesOntoDefaults(t *testing.T) {
	book := repair.Document(decode(t, `{"meta":{"author":"Ann","title":7}}`))
	if book.Meta.Author != "Ann" {
		t.Errorf("author %q", book.Meta.Author)
	}
	if book.Meta.Title != domain.DefaultTitle {
		t.Errorf("non-string title should keep default, got %q", book.Meta.Title)
	}
}

// ─────────────────────────────────────────────────────────────
// Nodes
// ─────────────────────────────────────────────────────────────

func TestDocument_FlattenedNodeMovesIntoData(t *testing.T) {
	book := repair.Document(decode(t, `{"nodes":[{"id":"n1","type":"story","position":{"x":0,"y":0},"label":"L","color":"#fff"}]}`))
	got := marshal(t, book.Nodes)
	want := `[{"id":"n1","type":"story","position":{"x":0,"y":0},"label":"L","selected":false,"data":{"color":"#fff"}}]`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestDocument_NestedNodePassesThrough(t *testing.T) {
	book := repair.Document(decode(t, `{"nodes":[{"id":"n1","type":"start","position":{"x":5,"y":6},"label":"S","selected":1,
		"style":{"width":"200px"},"hidden":true,
		"data":{"paragraphNumber":1,"description":"Intro","choices":[{"id":"c","type":"simple","label":"on","targetNodeId":"n2"}]}}]}`))
	if len(book.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(book.Nodes))
	}
	n := book.Nodes[0]
	if !n.Selected {
		t.Error("expected selected to be coerced to true")
	}
	if n.Hidden || n.Style != nil {
		t.Error("expected view state to be discarded")
	}
	if n.Data.ParagraphNumber != 1 || n.Data.Description != "Intro" || len(n.Data.Choices) != 1 {
		t.Errorf("unexpected data %+v", n.Data)
	}
}

func TestDocument_DropsUnrepresentableNodes(t *testing.T) {
	book := repair.Document(decode(t, `{"nodes":[null,"x",{"type":"story"},{"id":"bad","position":"here","label":"Kept"},{"id":"ok","type":"story","position":{"x":1,"y":1}}]}`))
	if len(book.Nodes) != 2 || book.Nodes[0].ID != "bad" || book.Nodes[1].ID != "ok" {
		t.Fatalf("expected nodes bad and ok, got %+v", book.Nodes)
	}
	if book.Nodes[0].Position != (domain.Position{}) || book.Nodes[0].Label != "Kept" {
		t.Fatalf("expected malformed position reset and label kept, got %+v", book.Nodes[0])
	}
}

func TestDocument_MistypedFieldsFallBackToDefaults(t *testing.T) {
	book := repair.Document(decode(t, `{
		"nodes":[
			{"id":"n1","type":"story","position":{"x":1,"y":2},"label":"One","data":{"paragraphNumber":"3","description":"Keep me"}},
			{"id":"n2","type":"story","position":{"x":0,"y":0},"label":"Two","data":{"width":"200px","height":80,"tags":["a",4,"b"]}},
			{"id":"n3","type":"end","position":{"x":0,"y":0},"label":7,"data":{"description":"The end"}}
		],
		"edges":[{"id":"e1","source":"n1","target":"n2","label":5,"data":{"description":9,"actions":[]}}]
	}`))
	if len(book.Nodes) != 3 || len(book.Edges) != 1 {
		t.Fatalf("expected 3 nodes and 1 edge, got %d and %d", len(book.Nodes), len(book.Edges))
	}

	n1 := book.Nodes[0]
	if n1.Data.ParagraphNumber != 0 || n1.Data.Description != "Keep me" || n1.Label != "One" || n1.Position.Y != 2 {
		t.Errorf("n1: %+v", n1)
	}
	n2 := book.Nodes[1]
	if n2.Data.Width != 0 || n2.Data.Height != 80 {
		t.Errorf("n2 size: %v x %v", n2.Data.Width, n2.Data.Height)
	}
	if !reflect.DeepEqual(n2.Data.Tags, []string{"a", "b"}) {
		t.Errorf("n2 tags: %v", n2.Data.Tags)
	}
	n3 := book.Nodes[2]
	if n3.Label != "" || n3.Type != domain.NodeTypeEnd || n3.Data.Description != "The end" {
		t.Errorf("n3: %+v", n3)
	}

	e := book.Edges[0]
	if e.Label != "" || e.Source != "n1" || e.Target != "n2" || e.Data == nil || e.Data.Description != "" {
		t.Errorf("edge: %+v", e)
	}
}

func TestDocument_MalformedSchemaSectionIsDropped(t *testing.T) {
	book := repair.Document(decode(t, `{"characterSheetSchema":{"layout":[{"type":"stats","title":"Stats","dataKey":"stats"},{"type":"events","title":3,"dataKey":"ev"}]}}`))
	if book.CharacterSheetSchema == nil || len(book.CharacterSheetSchema.Layout) != 1 {
		t.Fatalf("expected the valid section to survive, got %+v", book.CharacterSheetSchema)
	}
}

// ─────────────────────────────────────────────────────────────
// Edges, events, viewport
// ─────────────────────────────────────────────────────────────

func TestDocument_EdgeMarkerObjectIsFlattened(t *testing.T) {
	book := repair.Document(decode(t, `{"edges":[{"id":"e1","source":"a","target":"b","markerEnd":{"type":"arrowclosed"},"selected":true}]}`))
	if len(book.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(book.Edges))
	}
	if book.Edges[0].MarkerEnd != domain.MarkerArrowClosed || book.Edges[0].Selected {
		t.Fatalf("unexpected edge %+v", book.Edges[0])
	}
}

func TestDocument_EventNormalization(t *testing.T) {
	book := repair.Document(decode(t, `{"events":[{"name":"Found Key"},"legacy_string_event",{"id":"x","name":"Y","initialValue":true}]}`))
	want := []domain.Event{
		{ID: "found_key", Name: "Found Key", InitialValue: false},
		{ID: "x", Name: "Y", InitialValue: true},
	}
	if !reflect.DeepEqual(book.Events, want) {
		t.Fatalf("got %+v, want %+v", book.Events, want)
	}
}

func TestDocument_EventIDCollisions(t *testing.T) {
	book := repair.Document(decode(t, `{"events":[
		{"name":"Found Key"},
		{"name":"found  key"},
		{"id":"found_key_2","name":"Explicit"},
		{"id":"x","name":"First"},
		{"id":"x","name":"Second"}
	]}`))
	var ids []string
	for _, e := range book.Events {
		ids = append(ids, e.ID)
	}
	want := []string{"found_key", "found_key_3", "found_key_2", "x"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ids %v, want %v", ids, want)
	}
	if book.Events[3].Name != "First" {
		t.Fatalf("expected first explicit x to win, got %q", book.Events[3].Name)
	}
}

func TestDocument_Viewport(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want domain.Viewport
	}{
		{"wrapped", `{"viewport":{"flowTransform":{"x":10,"y":20,"zoom":2}}}`, domain.Viewport{X: 10, Y: 20, Zoom: 2}},
		{"partial", `{"viewport":{"x":3}}`, domain.Viewport{X: 3, Y: 0, Zoom: 1}},
		{"missing", `{}`, domain.DefaultViewport()},
		{"zero zoom", `{"viewport":{"zoom":0}}`, domain.DefaultViewport()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := repair.Document(decode(t, tc.raw)).Viewport; got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestDocument_CharacterSheetPassesThrough(t *testing.T) {
	book := repair.Document(decode(t, `{"characterSheetSchema":{"layout":[{"type":"stats","title":"Stats","dataKey":"stats"}]},
		"characterSheet":{"stats":{"hp":{"current":5,"max":10}}}}`))
	if book.CharacterSheetSchema == nil || len(book.CharacterSheetSchema.Layout) != 1 {
		t.Fatalf("schema lost: %+v", book.CharacterSheetSchema)
	}
	stats, err := book.CharacterSheet[domain.StatsKey].Stats()
	if err != nil || stats["hp"].Max != 10 {
		t.Fatalf("sheet lost: %+v (err %v)", stats, err)
	}

	none := repair.Document(map[string]any{})
	if none.CharacterSheetSchema != nil || none.CharacterSheet != nil {
		t.Fatal("expected absent character sheet to stay absent")
	}
}

// ─────────────────────────────────────────────────────────────
// Idempotence
// ─────────────────────────────────────────────────────────────

func TestJSON_Idempotent(t *testing.T) {
	fixtures := []string{
		`{}`,
		`[]`,
		`{"meta":{"title":"T","imageId":""},"nodes":[{"id":"n1","type":"story","position":{"x":0,"y":0},"label":"L","color":"#fff","tags":["a"]}]}`,
		`{"nodes":[{"id":"n2","type":"story","position":{"x":1,"y":2},"label":"L","data":{"actions":[{"id":"a","type":"conditional","condition":{"source":"flag","subject":"f","operator":"==","value":true}}],
			"choices":[{"id":"c","type":"diceRoll","label":"r","dice":"1d6"},{"id":"z","type":"unknown"}]}}],
			"edges":[{"id":"e","source":"n1","target":"n2","sourceHandle":null,"data":{"actions":[]}}],
			"events":[{"name":"A b"},{"name":"a B"},{"id":"q","name":"Q","initialValue":null}],
			"viewport":{"flowTransform":{"x":1,"y":1,"zoom":-1}},
			"characterSheet":{"stats":{},"inv":[{"id":"i","name":"Rope","effects":[]}]},
			"characterSheetSchema":{"layout":null}}`,
		`{"nodes":[{"id":"m","type":"story","position":{"x":"1","y":2},"label":3,"data":{"paragraphNumber":"3","width":"200px","description":"d","tags":[1,"t"]}}],
			"edges":[{"id":"e","source":"m","target":"m","label":5,"data":{"description":false}}],
			"assets":[{"id":"a","name":7,"category":"image","filename":"1-a.png"}]}`,
	}
	for i, f := range fixtures {
		first := repair.Document(decode(t, f))
		once := marshal(t, first)
		twice := marshal(t, repair.JSON([]byte(once)))
		if once != twice {
			t.Errorf("fixture %d not idempotent:\nonce  %s\ntwice %s", i, once, twice)
		}
	}
}
