package domain

import (
	"regexp"
	"strings"
	"time"
)

// Book is the persisted aggregate for one story (one book.json document).
type Book struct {
	Meta                 BookMeta              `json:"meta"`
	Nodes                []Node                `json:"nodes"`
	Edges                []Edge                `json:"edges"`
	Assets               []Asset               `json:"assets"`
	Events               []Event               `json:"events"`
	Viewport             Viewport              `json:"viewport"`
	CharacterSheetSchema *CharacterSheetSchema `json:"characterSheetSchema,omitempty"`
	CharacterSheet       CharacterSheet        `json:"characterSheet,omitempty"`
}

type BookMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	ImageID     string `json:"imageId,omitempty"`
}

// DefaultTitle is used for books whose document carries no title.
const DefaultTitle = "Untitled"

// NewBook returns an empty book with every collection initialized, so it
// serializes with [] rather than null.
func NewBook() Book {
	return Book{
		Meta:     BookMeta{Title: DefaultTitle},
		Nodes:    []Node{},
		Edges:    []Edge{},
		Assets:   []Asset{},
		Events:   []Event{},
		Viewport: DefaultViewport(),
	}
}

// Viewport is the graph editor camera. It never affects story logic.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

func DefaultViewport() Viewport {
	return Viewport{X: 0, Y: 0, Zoom: 1}
}

// Event is a global flag definition referenced by node logic.
// InitialValue holds a bool, float64 or string.
type Event struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	InitialValue any    `json:"initialValue"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// EventIDFromName derives the id used for events stored without one:
// whitespace runs become underscores and the result is lowercased.
func EventIDFromName(name string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(name, "_"))
}

type AssetType string

const AssetTypeImage AssetType = "image"

// Asset is catalog metadata; the bytes live in per-book asset storage keyed
// by Filename.
type Asset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Type         AssetType `json:"type"`
	Filename     string    `json:"filename"`
	CreationDate string    `json:"creationDate"`
}

// AssetFields are the user-editable parts of an asset.
type AssetFields struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Revision is a checkpoint of a saved book document.
type Revision struct {
	ID        string    `json:"id"`
	BookID    string    `json:"bookId"`
	Label     string    `json:"label"`
	Document  []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
