package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iraikov/dmosopt/config"
	"github.com/iraikov/dmosopt/storage"
)

var (
	flagFilePath string
	flagOptID    string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dmosoptctl",
		Short: "Auxiliary driver for the distributed surrogate optimizer",
	}
	cmd.PersistentFlags().StringVar(&flagFilePath, "file-path", "", "path to the evaluation log (overrides the config's file_path)")
	cmd.PersistentFlags().StringVar(&flagOptID, "opt-id", "", "optimization run id (overrides the config's opt_id)")

	cmd.AddCommand(runCmd(), analyzeCmd(), onestepCmd())
	return cmd
}

// loadConfig reads a JSON config document (spec section 6 leaves the file
// format to the embedding CLI) and decodes it, applying the --file-path and
// --opt-id overrides.
func loadConfig(path string) (*config.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dmosoptctl: read config %s: %w", path, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("dmosoptctl: parse config %s: %w", path, err)
	}
	cfg, err := config.Decode(doc)
	if err != nil {
		return nil, err
	}
	if flagFilePath != "" {
		cfg.FilePath = flagFilePath
	}
	if flagOptID != "" {
		cfg.OptID = flagOptID
	}
	if cfg.OptID == "" {
		cfg.OptID = storage.NewOptID()
	}
	return cfg, nil
}
