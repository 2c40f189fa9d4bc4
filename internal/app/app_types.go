package app

import (
	"gamebooks/internal/domain"
	"gamebooks/internal/service"
)

// BookView is the whole open book as the frontend renders it.
type BookView struct {
	ID                   string                       `json:"id"`
	State                service.BookState            `json:"state"`
	Meta                 domain.BookMeta              `json:"meta"`
	Nodes                []domain.Node                `json:"nodes"`
	Edges                []domain.Edge                `json:"edges"`
	Viewport             domain.Viewport              `json:"viewport"`
	Assets               []AssetView                  `json:"assets"`
	Events               []domain.Event               `json:"events"`
	CharacterSheetSchema *domain.CharacterSheetSchema `json:"characterSheetSchema,omitempty"`
	CharacterSheet       domain.CharacterSheet        `json:"characterSheet,omitempty"`
}

// AssetView is an asset plus the URL the webview loads it from.
type AssetView struct {
	domain.Asset
	URL string `json:"url"`
}

// EditorStatus reports the node open in the external editor, if any.
type EditorStatus struct {
	Editing bool   `json:"editing"`
	NodeID  string `json:"nodeId,omitempty"`
}
