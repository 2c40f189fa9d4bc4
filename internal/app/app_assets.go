package app

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"gamebooks/internal/domain"
	"gamebooks/internal/storage"
)

// ============================================================
// Assets — images stored next to the book document
// ============================================================

// memFile is an uploaded file held in memory.
type memFile struct {
	*bytes.Reader
	name string
}

func (f memFile) Name() string { return f.name }

// PickAssetFile lets the user choose an image and adds it to the open book.
// It returns a zero asset when the dialog is cancelled.
func (a *App) PickAssetFile(category string) (AssetView, error) {
	ws, err := a.ready()
	if err != nil {
		return AssetView{}, err
	}
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Add Image",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.gif;*.webp;*.svg"},
			{DisplayName: "All Files", Pattern: "*.*"},
		},
	})
	if err != nil || path == "" {
		return AssetView{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return AssetView{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	asset, err := ws.Books.Assets().AddAsset(a.ctx, f, "", category)
	if err != nil {
		return AssetView{}, err
	}
	return AssetView{Asset: asset, URL: assetWebPath(ws.Books.ActiveBookID(), asset.Filename)}, nil
}

// AddAssetData adds an image pasted or dropped into the webview, sent as a
// base64 data URL.
func (a *App) AddAssetData(name, category, filename, dataURL string) (AssetView, error) {
	ws, err := a.ready()
	if err != nil {
		return AssetView{}, err
	}
	data, ext, err := decodeDataURL(dataURL)
	if err != nil {
		return AssetView{}, err
	}
	if filename == "" {
		filename = "image" + ext
	}
	asset, err := ws.Books.Assets().AddAsset(a.ctx, memFile{Reader: bytes.NewReader(data), name: filename}, name, category)
	if err != nil {
		return AssetView{}, err
	}
	return AssetView{Asset: asset, URL: assetWebPath(ws.Books.ActiveBookID(), asset.Filename)}, nil
}

func (a *App) UpdateAsset(assetID, name, category string) (domain.Asset, error) {
	ws, err := a.ready()
	if err != nil {
		return domain.Asset{}, err
	}
	return ws.Books.Assets().UpdateAsset(a.ctx, assetID, domain.AssetFields{Name: name, Category: category})
}

func (a *App) DeleteAsset(assetID string) error {
	ws, err := a.ready()
	if err != nil {
		return err
	}
	return ws.Books.Assets().DeleteAsset(a.ctx, assetID)
}

// ResolveAssetURL maps a gbooks-asset:// reference, as stored in node data,
// to the path the webview loads. Other values are returned unchanged.
func (a *App) ResolveAssetURL(ref string) string {
	bookID, filename, ok := storage.ParseAssetReference(ref)
	if !ok {
		return ref
	}
	return assetWebPath(bookID, filename)
}

// decodeDataURL parses "data:image/png;base64,iVBOR..." and returns the bytes
// and a file extension for the mime type.
func decodeDataURL(dataURL string) ([]byte, string, error) {
	header, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(header, "data:") {
		return nil, "", fmt.Errorf("invalid data URL")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("data URL is not base64 encoded")
	}

	ext := ".png"
	switch {
	case strings.Contains(header, "image/jpeg"):
		ext = ".jpg"
	case strings.Contains(header, "image/webp"):
		ext = ".webp"
	case strings.Contains(header, "image/gif"):
		ext = ".gif"
	case strings.Contains(header, "image/svg+xml"):
		ext = ".svg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	return data, ext, nil
}
