// Package cli implements recipectl, the operator tool for the recipe service.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageza/recipeforge/backend/config"
	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/service"
)

// app holds what the subcommands share. The constructors are swapped out in tests.
type app struct {
	configFile string

	loadConfig func(path string) (*config.Config, error)
	newLLM     func(cfg *config.Config) (service.TextGenerator, error)
}

func newApp() *app {
	return &app{
		loadConfig: config.Load,
		newLLM: func(cfg *config.Config) (service.TextGenerator, error) {
			return service.NewLLMService(cfg)
		},
	}
}

// NewRootCommand builds the recipectl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "recipectl",
		Short: "Operate the recipe service from the command line",
		Long: `recipectl runs the recipe recovery pipeline outside the HTTP server.

Configuration is read from the environment (and .env), optionally layered
over a config file given with --config.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml, json, toml or .env)")

	root.AddCommand(
		newFormatCmd(a),
		newGenerateCmd(a),
		newSlugCmd(),
		newMigrateCmd(a),
		newSeedCmd(a),
	)
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup() (*config.Config, *logger.Logger, error) {
	cfg, err := a.loadConfig(a.configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
