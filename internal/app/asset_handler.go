package app

import (
	"net/http"
	"net/url"
	"strings"
)

// assetPathPrefix is where the asset server exposes book assets to the
// webview.
const assetPathPrefix = "/gbooks-asset/"

// AssetLocator maps an asset to its file. storage.Host satisfies it.
type AssetLocator interface {
	AssetPath(bookID, filename string) (string, error)
}

func assetWebPath(bookID, filename string) string {
	if bookID == "" || filename == "" {
		return ""
	}
	return assetPathPrefix + url.PathEscape(bookID) + "/" + url.PathEscape(filename)
}

// assetHandler serves GET /gbooks-asset/<bookId>/<filename>.
type assetHandler struct {
	locate func() AssetLocator
}

func (h assetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, assetPathPrefix)
	if !ok || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}
	locator := h.locate()
	if locator == nil {
		http.Error(w, errNotReady.Error(), http.StatusServiceUnavailable)
		return
	}
	bookID, filename, ok := strings.Cut(rest, "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	path, err := locator.AssetPath(bookID, filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// NewAssetHandler returns the handler the Wails asset server falls back to
// for paths not found in the embedded frontend.
func NewAssetHandler(a *App) http.Handler {
	return assetHandler{locate: func() AssetLocator {
		if a.ws == nil {
			return nil
		}
		return a.ws.Host
	}}
}
