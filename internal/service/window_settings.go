package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"gamebooks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Settings Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the main window size and the last opened book
// between sessions, as key-value rows in the catalog's settings.

// SettingsStore is the key-value part of the catalog. storage.Catalog
// satisfies it.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsService persists UI settings between sessions.
type SettingsService struct {
	store SettingsStore
}

// NewSettingsService creates a SettingsService. A nil store yields defaults.
func NewSettingsService(store SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingLastBook     = "last_book_id"
	defaultWindowWidth  = 1280
	defaultWindowHeight = 800
	minWindowWidth      = 800
	minWindowHeight     = 600
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *SettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	w := s.intSetting(ctx, settingWindowWidth, defaultWindowWidth)
	h := s.intSetting(ctx, settingWindowHeight, defaultWindowHeight)
	if w < minWindowWidth {
		w = defaultWindowWidth
	}
	if h < minWindowHeight {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *SettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if s.store == nil {
		return fmt.Errorf("settings: no store")
	}
	if err := s.store.SetSetting(ctx, settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.store.SetSetting(ctx, settingWindowHeight, strconv.Itoa(height))
}

// LastBookID returns the book opened most recently, or "".
func (s *SettingsService) LastBookID(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	v, err := s.store.GetSetting(ctx, settingLastBook)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("settings: read last book: %v", err)
		}
		return ""
	}
	return v
}

func (s *SettingsService) SetLastBookID(ctx context.Context, id string) error {
	if s.store == nil {
		return fmt.Errorf("settings: no store")
	}
	return s.store.SetSetting(ctx, settingLastBook, id)
}

func (s *SettingsService) intSetting(ctx context.Context, key string, def int) int {
	if s.store == nil {
		return def
	}
	v, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
