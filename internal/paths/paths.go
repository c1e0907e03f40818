// Package paths resolves where stager keeps its configuration, its records
// and its generated images.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "stager"

// Names of files and directories stager creates.
const (
	DefaultDataDirName = ".stager-db"
	ConfigFileName     = "config.yaml"
	LockFileName       = ".stager.lock"
	OutputsDirName     = "outputs"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STAGER_CONFIG_DIR"
	EnvDataDir   = "STAGER_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/stager (fallback ~/.config/stager)
// macOS:   ~/Library/Application Support/stager
// Windows: %APPDATA%/stager
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultUserDataDir returns the per-user data directory. ResolveDataDir
// prefers the working-directory default; this is offered by `stager init
// --user`.
//
// Linux:   $XDG_DATA_HOME/stager (fallback ~/.local/share/stager)
// macOS and Windows: same as DefaultConfigDir
func DefaultUserDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func userDir(xdgVar, homeFallback string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, AppName), nil
}

// ResolveConfigDir picks the configuration directory:
// flag > STAGER_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory:
// flag > config.yaml data_dir > STAGER_DATA_DIR > $(CWD)/.stager-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, candidate := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

// LockFile returns the lock file guarding a data directory.
func LockFile(dataDir string) string {
	return filepath.Join(dataDir, LockFileName)
}

// OutputsDir returns where generated images for a data directory live.
func OutputsDir(dataDir string) string {
	return filepath.Join(dataDir, OutputsDirName)
}
