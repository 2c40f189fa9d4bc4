package charsheet_test

import (
	"encoding/json"
	"testing"

	"gamebooks/internal/charsheet"
	"gamebooks/internal/domain"
)

func sheetJSON(t *testing.T, s domain.CharacterSheet) string {
	t.Helper()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func parseSheet(t *testing.T, s string) domain.CharacterSheet {
	t.Helper()
	var sheet domain.CharacterSheet
	if err := json.Unmarshal([]byte(s), &sheet); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return sheet
}

func TestReconcile_PreservesOverlapDropsRemovedDefaultsNew(t *testing.T) {
	oldSchema := &domain.CharacterSheetSchema{Layout: []domain.SectionSchema{
		{Type: domain.SectionStats, Title: "Stats", DataKey: "stats"},
		{Type: domain.SectionItemSection, Title: "Items", DataKey: "items", Mode: domain.SectionModeList},
	}}
	oldSheet := parseSheet(t, `{"stats":{"hp":{"current":5,"max":10}},"items":[{"id":"x"}]}`)
	newSchema := domain.CharacterSheetSchema{Layout: []domain.SectionSchema{
		{Type: domain.SectionStats, Title: "Stats", DataKey: "stats"},
		{Type: domain.SectionEvents, Title: "Events", DataKey: "events"},
	}}

	got := sheetJSON(t, charsheet.Reconcile(oldSchema, oldSheet, newSchema))
	want := `{"events":[],"stats":{"hp":{"current":5,"max":10}}}`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestReconcile_StatsAlwaysPresent(t *testing.T) {
	newSchema := domain.CharacterSheetSchema{Layout: []domain.SectionSchema{
		{Type: domain.SectionItemSection, Title: "Gear", DataKey: "gear", Mode: domain.SectionModeSlots},
	}}

	got := sheetJSON(t, charsheet.Reconcile(nil, nil, newSchema))
	if got != `{"gear":{},"stats":{}}` {
		t.Fatalf("unexpected sheet %s", got)
	}

	kept := sheetJSON(t, charsheet.Reconcile(nil, parseSheet(t, `{"stats":{"str":{"current":1,"max":2}}}`), newSchema))
	if kept != `{"gear":{},"stats":{"str":{"current":1,"max":2}}}` {
		t.Fatalf("expected legacy stats to be kept, got %s", kept)
	}
}

func TestReconcile_RemovedStatsSectionResetsStats(t *testing.T) {
	oldSchema := &domain.CharacterSheetSchema{Layout: []domain.SectionSchema{
		{Type: domain.SectionStats, Title: "Stats", DataKey: "stats"},
		{Type: domain.SectionEvents, Title: "Events", DataKey: "ev"},
	}}
	oldSheet := parseSheet(t, `{"stats":{"hp":{"current":5,"max":10}},"ev":[]}`)
	newSchema := domain.CharacterSheetSchema{Layout: []domain.SectionSchema{
		{Type: domain.SectionEvents, Title: "Events", DataKey: "ev"},
	}}

	got := sheetJSON(t, charsheet.Reconcile(oldSchema, oldSheet, newSchema))
	if got != `{"ev":[],"stats":{}}` {
		t.Fatalf("expected stats to reset, got %s", got)
	}
}

func TestReconcile_KeyOnlyInSheetIsNotTrusted(t *testing.T) {
	// Data stored under a key the old schema never declared is treated as new.
	newSchema := domain.CharacterSheetSchema{Layout: []domain.SectionSchema{
		{Type: domain.SectionEvents, Title: "Events", DataKey: "log"},
	}}
	got := sheetJSON(t, charsheet.Reconcile(&domain.CharacterSheetSchema{}, parseSheet(t, `{"log":{"stale":true}}`), newSchema))
	if got != `{"log":[],"stats":{}}` {
		t.Fatalf("unexpected sheet %s", got)
	}
}

func TestEmptyValue(t *testing.T) {
	cases := []struct {
		section domain.SectionSchema
		want    string
	}{
		{domain.SectionSchema{Type: domain.SectionStats}, `{}`},
		{domain.SectionSchema{Type: domain.SectionItemSection, Mode: domain.SectionModeList}, `[]`},
		{domain.SectionSchema{Type: domain.SectionItemSection, Mode: domain.SectionModeSlots}, `{}`},
		{domain.SectionSchema{Type: domain.SectionItemSection}, `{}`},
		{domain.SectionSchema{Type: domain.SectionEvents}, `[]`},
		{domain.SectionSchema{Type: "portrait"}, `null`},
	}
	for _, tc := range cases {
		if got := string(charsheet.EmptyValue(tc.section).Raw()); got != tc.want {
			t.Errorf("%s/%s: got %s, want %s", tc.section.Type, tc.section.Mode, got, tc.want)
		}
	}
}

func TestDefaultSheet_FromSeedSchema(t *testing.T) {
	seed := charsheet.SeedSchema()
	if len(seed.Layout) != 1 || seed.Layout[0].Type != domain.SectionStats || seed.Layout[0].DataKey != domain.StatsKey {
		t.Fatalf("unexpected seed schema %+v", seed)
	}
	if got := sheetJSON(t, charsheet.DefaultSheet(seed)); got != `{"stats":{}}` {
		t.Fatalf("unexpected default sheet %s", got)
	}
}
