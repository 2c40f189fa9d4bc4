package validate_test

import (
	"testing"

	"gamebooks/internal/domain"
	"gamebooks/internal/validate"
)

func node(id string, typ domain.NodeType, choices ...domain.Choice) domain.Node {
	return domain.Node{ID: id, Type: typ, Label: id, Data: domain.NodeData{Choices: choices}}
}

func edge(id, src, dst string) domain.Edge {
	return domain.Edge{ID: id, Source: src, Target: dst}
}

// ─────────────────────────────────────────────────────────────
// Clean book
// ─────────────────────────────────────────────────────────────

func TestRun_CleanBook(t *testing.T) {
	book := domain.NewBook()
	book.Nodes = []domain.Node{
		node("start", domain.NodeTypeStart, &domain.SimpleChoice{ID: "c1", TargetNodeID: "hall"}),
		node("hall", domain.NodeTypeStory),
		node("end", domain.NodeTypeEnd),
		node("pin", domain.NodeTypeLocation),
	}
	book.Edges = []domain.Edge{edge("e1", "hall", "end")}

	r := validate.Run(book)
	if len(r.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", r.Issues)
	}
	if r.HasErrors() {
		t.Error("clean book should have no errors")
	}
}

// ─────────────────────────────────────────────────────────────
// Start node
// ─────────────────────────────────────────────────────────────

func TestRun_MissingStart(t *testing.T) {
	book := domain.NewBook()
	book.Nodes = []domain.Node{node("a", domain.NodeTypeStory)}

	r := validate.Run(book)
	if r.Count(validate.CodeMissingStart) != 1 {
		t.Fatalf("expected missing_start, got %+v", r.Issues)
	}
	if r.Count(validate.CodeUnreachableNode) != 0 {
		t.Error("reachability is not checked without a start node")
	}
	if !r.HasErrors() {
		t.Error("missing start should be an error")
	}
}

func TestRun_MultipleStart(t *testing.T) {
	book := domain.NewBook()
	book.Nodes = []domain.Node{
		node("s1", domain.NodeTypeStart),
		node("s2", domain.NodeTypeStart),
	}

	r := validate.Run(book)
	if r.Count(validate.CodeMultipleStart) != 1 {
		t.Fatalf("expected one multiple_start, got %+v", r.Issues)
	}
	if r.Issues[0].NodeID != "s2" {
		t.Errorf("expected the second start to be reported, got %q", r.Issues[0].NodeID)
	}
}

// ─────────────────────────────────────────────────────────────
// References
// ─────────────────────────────────────────────────────────────

func TestRun_DanglingReferences(t *testing.T) {
	book := domain.NewBook()
	book.Nodes = []domain.Node{
		node("start", domain.NodeTypeStart,
			&domain.SimpleChoice{ID: "c1", TargetNodeID: "gone"},
			&domain.ConditionalChoice{ID: "c2", SuccessTargetNodeID: "start"},
		),
	}
	book.Edges = []domain.Edge{edge("e1", "start", "nowhere")}

	r := validate.Run(book)
	if r.Count(validate.CodeDanglingEdge) != 1 {
		t.Errorf("expected dangling_edge, got %+v", r.Issues)
	}
	if r.Count(validate.CodeDanglingChoiceTarget) != 1 {
		t.Errorf("expected dangling_choice_target, got %+v", r.Issues)
	}
	if r.Count(validate.CodeUnsetChoiceTarget) != 1 {
		t.Errorf("expected unset_choice_target for the blank failure target, got %+v", r.Issues)
	}
	for _, is := range r.Warnings() {
		if is.Code != validate.CodeUnsetChoiceTarget {
			t.Errorf("unexpected warning %+v", is)
		}
	}
}

func TestRun_UnknownEvent(t *testing.T) {
	book := domain.NewBook()
	book.Events = []domain.Event{{ID: "found_key", Name: "Found Key", InitialValue: false}}
	start := node("start", domain.NodeTypeStart)
	start.Data.Actions = domain.ActionList{
		&domain.SetFlagAction{ID: "a1", Flag: "found_key", Value: true},
		&domain.SetFlagAction{ID: "a2", Flag: "lost_map", Value: true},
	}
	book.Nodes = []domain.Node{start}

	r := validate.Run(book)
	if r.Count(validate.CodeUnknownEvent) != 1 {
		t.Fatalf("expected one unknown_event, got %+v", r.Issues)
	}
	if got := r.Issues[0]; got.Severity != validate.SeverityWarn || got.NodeID != "start" {
		t.Errorf("unexpected issue %+v", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Paragraphs and reachability
// ─────────────────────────────────────────────────────────────

func TestRun_DuplicateParagraph(t *testing.T) {
	book := domain.NewBook()
	a := node("start", domain.NodeTypeStart)
	a.Data.ParagraphNumber = 1
	b := node("b", domain.NodeTypeStory)
	b.Data.ParagraphNumber = 7
	c := node("c", domain.NodeTypeStory)
	c.Data.ParagraphNumber = 7
	book.Nodes = []domain.Node{a, b, c}
	book.Edges = []domain.Edge{edge("e1", "start", "b"), edge("e2", "b", "c")}

	r := validate.Run(book)
	if r.Count(validate.CodeDuplicateParagraph) != 1 {
		t.Fatalf("expected one duplicate_paragraph, got %+v", r.Issues)
	}
	if r.Errors()[0].NodeID != "c" {
		t.Errorf("expected the later node to be reported, got %+v", r.Errors()[0])
	}
}

func TestRun_Unreachable(t *testing.T) {
	book := domain.NewBook()
	roll := node("roll", domain.NodeTypeStory)
	roll.Data.Actions = domain.ActionList{
		&domain.DiceRollAction{ID: "d1", Outcomes: []domain.DiceRollOutcome{{ID: "o1", TargetNodeID: "lucky"}}},
	}
	book.Nodes = []domain.Node{
		node("start", domain.NodeTypeStart, &domain.SkillCheckChoice{ID: "c1", SuccessTargetNodeID: "roll", FailureTargetNodeID: "roll"}),
		roll,
		node("lucky", domain.NodeTypeEnd),
		node("orphan", domain.NodeTypeStory),
		node("pin", domain.NodeTypeLocation),
	}

	r := validate.Run(book)
	if r.Count(validate.CodeUnreachableNode) != 1 {
		t.Fatalf("expected only orphan to be unreachable, got %+v", r.Issues)
	}
	if r.Warnings()[0].NodeID != "orphan" {
		t.Errorf("unexpected node %q", r.Warnings()[0].NodeID)
	}
	if r.HasErrors() {
		t.Errorf("unreachable nodes are warnings, got %+v", r.Errors())
	}
}
