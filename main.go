package main

import (
	"embed"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	gamebooksApp "gamebooks/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// `gamebooks mcp` serves the library to MCP clients over stdio, no window.
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		if err := gamebooksApp.ServeMCP(""); err != nil {
			log.Fatalf("mcp: %v", err)
		}
		return
	}

	app := gamebooksApp.New("")

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	err := wails.Run(&options.App{
		Title:     "Gamebooks",
		Width:     1280,
		Height:    800,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: gamebooksApp.NewAssetHandler(app),
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
				UseToolbar:                 true,
				HideToolbarSeparator:       true,
			},
			About: &mac.AboutInfo{
				Title:   "Gamebooks",
				Message: "Story graph editor for interactive gamebooks",
			},
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
