package domain

import (
	"encoding/json"
	"fmt"
)

type SectionType string

const (
	SectionStats       SectionType = "stats"
	SectionItemSection SectionType = "itemSection"
	SectionEvents      SectionType = "events"
)

type SectionMode string

const (
	SectionModeSlots SectionMode = "slots"
	SectionModeList  SectionMode = "list"
)

// StatsKey is always present in a character sheet, whatever the schema says.
const StatsKey = "stats"

// SectionSchema describes one user-defined section of the character sheet.
// Mode only applies to item sections.
type SectionSchema struct {
	Type    SectionType `json:"type"`
	Title   string      `json:"title"`
	Icon    string      `json:"icon,omitempty"`
	DataKey string      `json:"dataKey"`
	Mode    SectionMode `json:"mode,omitempty"`
}

type CharacterSheetSchema struct {
	Layout []SectionSchema `json:"layout"`
}

func (s *CharacterSheetSchema) Clone() *CharacterSheetSchema {
	if s == nil {
		return nil
	}
	return &CharacterSheetSchema{Layout: append([]SectionSchema{}, s.Layout...)}
}

// DataKeys returns the set of data keys declared by the layout.
func (s *CharacterSheetSchema) DataKeys() map[string]bool {
	keys := make(map[string]bool)
	if s == nil {
		return keys
	}
	for _, sec := range s.Layout {
		keys[sec.DataKey] = true
	}
	return keys
}

type Stat struct {
	Current float64  `json:"current"`
	Max     float64  `json:"max"`
	Min     *float64 `json:"min,omitempty"`
}

type ItemEffect struct {
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

type Item struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Quantity    *float64     `json:"quantity,omitempty"`
	Effects     []ItemEffect `json:"effects"`
}

// SheetEvent is an entry of an events section (a flag the reader has hit).
type SheetEvent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Happened bool   `json:"happened"`
}

// SectionData is the stored value of one character sheet section. The value
// is kept verbatim; its shape depends on the section type and is only
// interpreted through the typed accessors.
type SectionData struct {
	raw json.RawMessage
}

// NewSectionData encodes v as section data.
func NewSectionData(v any) (SectionData, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return SectionData{}, fmt.Errorf("encode section data: %w", err)
	}
	return SectionData{raw: b}, nil
}

// RawSection wraps an already encoded JSON value.
func RawSection(raw []byte) SectionData {
	return SectionData{raw: append(json.RawMessage(nil), raw...)}
}

func (d SectionData) Raw() json.RawMessage { return d.raw }

func (d SectionData) IsZero() bool { return len(d.raw) == 0 }

func (d SectionData) MarshalJSON() ([]byte, error) {
	if len(d.raw) == 0 {
		return []byte("null"), nil
	}
	return d.raw, nil
}

func (d *SectionData) UnmarshalJSON(b []byte) error {
	d.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (d SectionData) decode(v any) error {
	if len(d.raw) == 0 {
		return nil
	}
	return json.Unmarshal(d.raw, v)
}

func (d SectionData) Stats() (map[string]Stat, error) {
	stats := map[string]Stat{}
	if err := d.decode(&stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

func (d SectionData) Items() ([]Item, error) {
	var items []Item
	if err := d.decode(&items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

// Slots decodes a slot-mode item section; empty slots decode as nil.
func (d SectionData) Slots() (map[string]*Item, error) {
	slots := map[string]*Item{}
	if err := d.decode(&slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return slots, nil
}

func (d SectionData) Events() ([]SheetEvent, error) {
	var events []SheetEvent
	if err := d.decode(&events); err != nil {
		return nil, fmt.Errorf("decode sheet events: %w", err)
	}
	return events, nil
}

// CharacterSheet maps section data keys to their stored values.
type CharacterSheet map[string]SectionData

func (s CharacterSheet) Clone() CharacterSheet {
	if s == nil {
		return nil
	}
	out := make(CharacterSheet, len(s))
	for k, v := range s {
		out[k] = RawSection(v.raw)
	}
	return out
}
