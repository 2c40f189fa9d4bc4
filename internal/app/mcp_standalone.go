package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamebooks/internal/config"
	mcpserver "gamebooks/internal/mcp"
	"gamebooks/internal/secret"
	"gamebooks/internal/workspace"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// Destructive tools run without approval since no window can answer one.
// Pending changes are written when the client disconnects or on interrupt.
func ServeMCP(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ws, err := workspace.Open(ctx, cfg, noopEmitter{}, secret.NewKeychainStore())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := ws.Close(closeCtx); err != nil {
			log.Printf("[MCP] close workspace: %v", err)
		}
	}()

	if err := ws.Library.InitializeLibrary(ctx); err != nil {
		return err
	}

	srv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter: noopEmitter{},
		Library: ws.Library,
		Books:   ws.Books,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	log.Println("[MCP] Starting standalone stdio server...")
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
