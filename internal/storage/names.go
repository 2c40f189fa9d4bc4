package storage

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AssetScheme prefixes asset references handed to the UI.
const AssetScheme = "gbooks-asset://"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

var bookIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// AssetFilename builds the on-disk name of an uploaded asset:
// <unix ms>-<base with non-alphanumerics replaced by _><ext>.
func AssetFilename(original string, now time.Time) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	safe := unsafeNameChars.ReplaceAllString(strings.TrimSuffix(base, ext), "_")
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + safe + ext
}

// AssetReference returns the URL the UI uses to display an asset, or "" when
// either part is missing.
func AssetReference(bookID, filename string) string {
	if bookID == "" || filename == "" {
		return ""
	}
	return AssetScheme + bookID + "/" + filename
}

// ParseAssetReference splits a reference produced by AssetReference.
func ParseAssetReference(ref string) (bookID, filename string, ok bool) {
	rest, found := strings.CutPrefix(ref, AssetScheme)
	if !found {
		return "", "", false
	}
	bookID, filename, found = strings.Cut(rest, "/")
	if !found || bookID == "" || filename == "" {
		return "", "", false
	}
	return bookID, filename, true
}

// ValidBookID reports whether id is safe to use as a directory name.
func ValidBookID(id string) bool {
	return bookIDPattern.MatchString(id)
}

// validFilename rejects names that would escape the asset directory.
func validFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
