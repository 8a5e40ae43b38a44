// Init command for the wastebin CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/wastebin/internal/paths"
	"github.com/mesh-intelligence/wastebin/internal/storage"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// configFile holds the structure written to config.yaml by init.
type configFile struct {
	Backend             string `yaml:"backend"`
	DataDir             string `yaml:"data_dir,omitempty"`
	CollectionThreshold int    `yaml:"collection_threshold"`
	FillLevelPolicy     string `yaml:"fill_level_policy"`
	StrictLoad          bool   `yaml:"strict_load"`
	LogLevel            string `yaml:"log_level"`
}

func newInitCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration and data directories, write config.yaml if it\n" +
			"is missing, and create an empty data file for the selected backend.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, backend)
		},
	}
	cmd.Flags().StringVar(&backend, "backend", types.BackendJSONL, "storage backend written to a new config.yaml (jsonl, csv, sqlite)")
	return cmd
}

func runInit(cmd *cobra.Command, backend string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, loadDataDirFromConfig(configDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{Backend: backend, DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid backend %q: %w", backend, err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	configPath := filepath.Join(configDir, configFileExt)
	if err := writeConfigIfMissing(configPath, cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// The backend may differ from the requested one if config.yaml existed.
	s, err := loadSettings()
	if err != nil {
		return err
	}
	b, err := storage.NewBackend(s.store, storage.Options{})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer b.Close()

	if _, err := os.Stat(b.Path()); os.IsNotExist(err) {
		if err := b.Save(nil); err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wastebin initialized\nconfig: %s\ndata:   %s\n", configPath, b.Path())
	return nil
}

// writeConfigIfMissing creates config.yaml from cfg if the file does not
// exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path string, cfg types.Config) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(&configFile{
		Backend:             cfg.Backend,
		DataDir:             cfg.DataDir,
		CollectionThreshold: cfg.GetCollectionThreshold(),
		FillLevelPolicy:     cfg.GetFillLevelPolicy(),
		LogLevel:            "info",
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// loadDataDirFromConfig reads data_dir from an existing config.yaml.
// Returns empty string if the file does not exist or cannot be read.
func loadDataDirFromConfig(configDir string) string {
	data, err := os.ReadFile(filepath.Join(configDir, configFileExt))
	if err != nil {
		return ""
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.DataDir
}
