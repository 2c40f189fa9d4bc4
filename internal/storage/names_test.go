package storage_test

import (
	"testing"
	"time"

	"gamebooks/internal/storage"
)

func TestAssetFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	cases := []struct {
		original string
		want     string
	}{
		{"map.png", "1700000000123-map.png"},
		{"My Map (v2).jpeg", "1700000000123-My_Map__v2_.jpeg"},
		{"/tmp/uploads/héroe.png", "1700000000123-h_roe.png"},
		{"noext", "1700000000123-noext"},
	}
	for _, c := range cases {
		if got := storage.AssetFilename(c.original, now); got != c.want {
			t.Errorf("AssetFilename(%q) = %q, want %q", c.original, got, c.want)
		}
	}
}

func TestAssetReference(t *testing.T) {
	if got := storage.AssetReference("b1", "1-map.png"); got != "gbooks-asset://b1/1-map.png" {
		t.Errorf("got %q", got)
	}
	if got := storage.AssetReference("", "1-map.png"); got != "" {
		t.Errorf("no book: got %q", got)
	}
	if got := storage.AssetReference("b1", ""); got != "" {
		t.Errorf("no filename: got %q", got)
	}
}

func TestParseAssetReference(t *testing.T) {
	book, file, ok := storage.ParseAssetReference("gbooks-asset://b1/1-map.png")
	if !ok || book != "b1" || file != "1-map.png" {
		t.Errorf("got %q %q %v", book, file, ok)
	}
	for _, bad := range []string{"http://b1/x.png", "gbooks-asset://b1", "gbooks-asset:///x.png"} {
		if _, _, ok := storage.ParseAssetReference(bad); ok {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestValidBookID(t *testing.T) {
	for _, id := range []string{"abc", "3f1c-22_x"} {
		if !storage.ValidBookID(id) {
			t.Errorf("%q should be valid", id)
		}
	}
	for _, id := range []string{"", "..", "a/b", `a\b`, "a b"} {
		if storage.ValidBookID(id) {
			t.Errorf("%q should be invalid", id)
		}
	}
}
