package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"gamebooks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Choice / Action JSON
// ─────────────────────────────────────────────────────────────

func TestChoiceList_DecodesEveryVariant(t *testing.T) {
	raw := `[
		{"id":"c1","type":"simple","label":"Go","targetNodeId":"n2","sourceHandle":"right"},
		{"id":"c2","type":"conditional","label":"Key?","condition":{"id":"k","type":"event","subject":"found_key","operator":"==","value":true},"successTargetNodeId":"n3","failureTargetNodeId":"n4"},
		{"id":"c3","type":"diceRoll","label":"Roll","dice":"1d6","outcomes":[{"id":"o1","range":"1-3","label":"low","targetNodeId":"n5"}]},
		{"id":"c4","type":"skillCheck","label":"Climb","successTargetNodeId":"n6","failureTargetNodeId":"","rollConfig":{"baseDifficulty":12,"skill":"agility","diceType":"1d20","conditionalModifiers":[]}}
	]`
	var l domain.ChoiceList
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(l) != 4 {
		t.Fatalf("expected 4 choices, got %d", len(l))
	}
	want := []domain.ChoiceType{domain.ChoiceSimple, domain.ChoiceConditional, domain.ChoiceDiceRoll, domain.ChoiceSkillCheck}
	for i, c := range l {
		if c.ChoiceType() != want[i] {
			t.Errorf("choice %d: type %q, want %q", i, c.ChoiceType(), want[i])
		}
	}
	if l[0].Handle() != "right" {
		t.Errorf("expected sourceHandle right, got %q", l[0].Handle())
	}
}

func TestChoiceList_DropsUnknownAndMalformed(t *testing.T) {
	raw := `[{"id":"a","type":"teleport"},"nope",{"id":"b","type":"simple","targetNodeId":"x"}]`
	var l domain.ChoiceList
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(l) != 1 || l[0].ChoiceID() != "b" {
		t.Fatalf("expected only choice b to survive, got %+v", l)
	}
}

func TestChoiceList_NonArrayIsEmpty(t *testing.T) {
	var data domain.NodeData
	if err := json.Unmarshal([]byte(`{"choices":"oops","actions":{"a":1}}`), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(data.Choices) != 0 || len(data.Actions) != 0 {
		t.Fatalf("expected empty lists, got %d choices %d actions", len(data.Choices), len(data.Actions))
	}
}

func TestChoice_MarshalCarriesType(t *testing.T) {
	l := domain.ChoiceList{&domain.SimpleChoice{ID: "c1", TargetNodeID: "n2"}}
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"type":"simple"`) {
		t.Fatalf("expected type tag in %s", b)
	}

	var back domain.ChoiceList
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	sc, ok := back[0].(*domain.SimpleChoice)
	if !ok || sc.TargetNodeID != "n2" {
		t.Fatalf("round trip lost data: %+v", back[0])
	}
}

func TestActionList_NestedConditional(t *testing.T) {
	raw := `[{"id":"a1","type":"conditional","condition":{"source":"flag","subject":"door_open","operator":"==","value":true},
		"successActions":[{"id":"a2","type":"setFlag","flag":"gate","value":true}],
		"failureActions":[{"id":"a3","type":"diceRoll","dice":"1d6","description":"","outcomes":[{"id":"o1","range":"1-6","description":"","targetNodeId":"n9"}]}]}]`
	var l domain.ActionList
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ca, ok := l[0].(*domain.ConditionalAction)
	if !ok {
		t.Fatalf("expected conditional action, got %T", l[0])
	}
	if len(ca.SuccessActions) != 1 || len(ca.FailureActions) != 1 {
		t.Fatalf("nested actions not decoded: %+v", ca)
	}

	events := l.ReferencedEvents()
	if len(events) != 2 {
		t.Fatalf("expected door_open and gate, got %v", events)
	}
	if targets := l.Targets(); len(targets) != 1 || targets[0] != "n9" {
		t.Fatalf("expected nested dice target n9, got %v", targets)
	}
}

func TestChoiceList_CloneIsDeep(t *testing.T) {
	orig := domain.ChoiceList{&domain.DiceRollChoice{
		ID:       "d",
		Outcomes: []domain.DiceOutcome{{ID: "o", TargetNodeID: "n1"}},
	}}
	cp := orig.Clone()
	cp.ClearTarget("n1")

	if orig[0].(*domain.DiceRollChoice).Outcomes[0].TargetNodeID != "n1" {
		t.Fatal("clearing the clone changed the original")
	}
	if cp[0].(*domain.DiceRollChoice).Outcomes[0].TargetNodeID != "" {
		t.Fatal("expected clone target to be cleared")
	}
}

func TestNode_ReferencesEvent(t *testing.T) {
	n := domain.Node{ID: "n", Data: domain.NodeData{
		Choices: domain.ChoiceList{&domain.SkillCheckChoice{
			ID: "s",
			RollConfig: domain.SkillCheckConfig{ConditionalModifiers: []domain.ConditionalModifier{
				{RuleID: "r", Trigger: domain.ModifierTrigger{CheckType: "flag", TargetID: "torch_lit"}},
			}},
		}},
	}}
	if !n.ReferencesEvent("torch_lit") {
		t.Fatal("expected skill check modifier to reference torch_lit")
	}
	if n.ReferencesEvent("other") {
		t.Fatal("unexpected reference to other")
	}
}

func TestEventIDFromName(t *testing.T) {
	cases := map[string]string{
		"Found Key":         "found_key",
		"  Dragon \t Slain": "_dragon_slain",
		"ok":                "ok",
	}
	for in, want := range cases {
		if got := domain.EventIDFromName(in); got != want {
			t.Errorf("EventIDFromName(%q) = %q, want %q", in, got, want)
		}
	}
}
