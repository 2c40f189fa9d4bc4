// Package charsheet keeps a book's character sheet data in step with its
// user-defined section layout.
package charsheet

import "gamebooks/internal/domain"

var (
	emptyMapping  = domain.RawSection([]byte("{}"))
	emptySequence = domain.RawSection([]byte("[]"))
	nullValue     = domain.RawSection([]byte("null"))
)

// SeedSchema is the layout a book gets when its first character sheet is
// created: a single stats section.
func SeedSchema() domain.CharacterSheetSchema {
	return domain.CharacterSheetSchema{
		Layout: []domain.SectionSchema{{
			Type:    domain.SectionStats,
			Title:   "Main Stats",
			Icon:    "analytics",
			DataKey: domain.StatsKey,
		}},
	}
}

// EmptyValue is the initial data of a freshly added section. Item sections
// default to slots unless they are in list mode. Unknown section types get null.
func EmptyValue(section domain.SectionSchema) domain.SectionData {
	switch section.Type {
	case domain.SectionStats:
		return emptyMapping
	case domain.SectionItemSection:
		if section.Mode == domain.SectionModeList {
			return emptySequence
		}
		return emptyMapping
	case domain.SectionEvents:
		return emptySequence
	default:
		return nullValue
	}
}

// DefaultSheet builds an all-empty sheet for schema.
func DefaultSheet(schema domain.CharacterSheetSchema) domain.CharacterSheet {
	sheet := make(domain.CharacterSheet, len(schema.Layout)+1)
	for _, section := range schema.Layout {
		sheet[section.DataKey] = EmptyValue(section)
	}
	if _, ok := sheet[domain.StatsKey]; !ok {
		sheet[domain.StatsKey] = emptyMapping
	}
	return sheet
}

// Reconcile produces the sheet for newSchema from the data stored under
// oldSchema. Sections whose data key survives keep their value verbatim, new
// sections start empty and data of removed sections is dropped. The stats key
// is always present; stats data the old schema did not declare is carried
// over, while a removed stats section resets it to empty.
func Reconcile(oldSchema *domain.CharacterSheetSchema, oldSheet domain.CharacterSheet, newSchema domain.CharacterSheetSchema) domain.CharacterSheet {
	oldKeys := oldSchema.DataKeys()
	sheet := make(domain.CharacterSheet, len(newSchema.Layout)+1)

	for _, section := range newSchema.Layout {
		if old, ok := oldSheet[section.DataKey]; ok && oldKeys[section.DataKey] {
			sheet[section.DataKey] = domain.RawSection(old.Raw())
			continue
		}
		sheet[section.DataKey] = EmptyValue(section)
	}

	if _, ok := sheet[domain.StatsKey]; !ok {
		if old, ok := oldSheet[domain.StatsKey]; ok && !old.IsZero() && !oldKeys[domain.StatsKey] {
			sheet[domain.StatsKey] = domain.RawSection(old.Raw())
		} else {
			sheet[domain.StatsKey] = emptyMapping
		}
	}
	return sheet
}
