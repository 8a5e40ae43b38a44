// Package paths resolves the configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "wastebin"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".wastebin-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "WASTEBIN_CONFIG_DIR"
	EnvDataDir   = "WASTEBIN_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory:
// $XDG_CONFIG_HOME/wastebin or ~/.config/wastebin on Linux, and
// os.UserConfigDir()/wastebin elsewhere.
func DefaultConfigDir() (string, error) {
	var (
		base string
		err  error
	)
	switch xdg := os.Getenv("XDG_CONFIG_HOME"); {
	case runtime.GOOS != "linux":
		base, err = platformDir.userConfigDir()
	case xdg != "":
		base = xdg
	default:
		base, err = platformDir.homeDir()
		base = filepath.Join(base, ".config")
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// firstAbs returns the absolute form of the first non-empty candidate and
// whether one was found.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		dir, err := filepath.Abs(c)
		return dir, true, err
	}
	return "", false, nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// WASTEBIN_CONFIG_DIR, then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory: flag, then WASTEBIN_DATA_DIR,
// then the config file value, then .wastebin-db under the working directory.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvDataDir), configValue); ok {
		return dir, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
