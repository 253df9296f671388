package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphummel/crowpanel/internal/config"
	"github.com/tphummel/crowpanel/internal/db"
	"github.com/tphummel/crowpanel/internal/profiles"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "crowpanel",
		Short:         "Machine profile selection for a CNC touch panel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCommand(),
		newServeCommand(),
		newSlotsCommand(),
		newVersionCommand(),
	)
	return root
}

// loadConfig loads and validates configuration.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the database named by cfg and the profile store in its
// namespace. The caller closes the returned DB.
func openStore(cfg config.Config) (*db.DB, *profiles.Store, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return database, profiles.New(database.Prefs(cfg.Prefs.Namespace)), nil
}
