package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"gamebooks/internal/config"
	"gamebooks/internal/secret"
	"gamebooks/internal/workspace"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:           "gbctl",
		Short:         "Manage gamebooks from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file (default ~/.config/gamebooks/config.toml)")

	ctx := newCommandContext(&configFlag)
	root.AddCommand(newRepairCommand())
	root.AddCommand(newLibraryCommand(ctx))
	root.AddCommand(newValidateCommand(ctx))
	root.AddCommand(newExportCommand(ctx))
	root.AddCommand(newConfigCommand(ctx))
	root.AddCommand(newMCPCommand(ctx))
	return root
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withWorkspace opens the catalog and the library, runs fn and closes them.
// Nothing is emitted since there is no UI.
func (c *commandContext) withWorkspace(ctx context.Context, fn func(*workspace.Workspace) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ws, err := workspace.Open(ctx, cfg, nil, secret.NewKeychainStore())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.Close(ctx); err == nil {
			err = closeErr
		}
	}()
	if err := ws.Library.InitializeLibrary(ctx); err != nil {
		return err
	}
	return fn(ws)
}
