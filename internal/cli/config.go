// Configuration loading for the wastebin CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/wastebin/internal/paths"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "WASTEBIN"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyThreshold       = "collection_threshold"
	cfgKeyFillLevelPolicy = "fill_level_policy"
	cfgKeyStrictLoad      = "strict_load"
	cfgKeyLogLevel        = "log_level"
	cfgKeyLogFile         = "log_file"

	logFileName = "wastebin.log"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# wastebin configuration

# Storage backend: jsonl, csv, or sqlite
backend: jsonl

# Fill level at or above which a bin needs collection
collection_threshold: 80

# Out-of-range fill levels: reject or clamp
fill_level_policy: reject

# Fail instead of skipping malformed records on load
strict_load: false

# Log level (debug, info, warn, error, off)
log_level: info

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Log file (optional; default <data_dir>/wastebin.log)
# log_file:
`

// settings is the resolved configuration for one command run.
type settings struct {
	store    types.Config
	logLevel string
	logFile  string
}

// loadSettings resolves directories, reads config.yaml, and validates the
// result.
func loadSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	s := settings{
		store: types.Config{
			Backend:             strings.ToLower(v.GetString(cfgKeyBackend)),
			DataDir:             dataDir,
			CollectionThreshold: v.GetInt(cfgKeyThreshold),
			FillLevelPolicy:     strings.ToLower(v.GetString(cfgKeyFillLevelPolicy)),
			StrictLoad:          v.GetBool(cfgKeyStrictLoad),
		},
		logLevel: v.GetString(cfgKeyLogLevel),
		logFile:  v.GetString(cfgKeyLogFile),
	}
	if s.logFile == "" {
		s.logFile = filepath.Join(dataDir, logFileName)
	}

	if err := s.store.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run. Environment
// variables prefixed WASTEBIN_ override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendJSONL)
	v.SetDefault(cfgKeyThreshold, types.DefaultCollectionThreshold)
	v.SetDefault(cfgKeyFillLevelPolicy, types.FillPolicyReject)
	v.SetDefault(cfgKeyStrictLoad, false)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
