package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultDBName = "journal.db"
	configName    = "config.yaml"
)

// UserConfig is the persisted user choice of where the journal lives.
type UserConfig struct {
	DBName        string `yaml:"db_name"`
	DataDir       string `yaml:"data_dir"`
	SetupComplete bool   `yaml:"setup_complete"`
}

var runtimeDataDir string
var runtimePort = 8000

func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

func IsWindows() bool {
	return runtime.GOOS == "windows"
}

func SetRuntimeDataDir(dir string) {
	runtimeDataDir = dir
}

func SetRuntimePort(port int) {
	if port > 0 {
		runtimePort = port
	}
}

func GetRuntimePort() int {
	return runtimePort
}

func appConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if IsMacOS() {
		return filepath.Join(home, "Library", "Application Support", "TradeJournal"), nil
	}
	if IsWindows() {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = home
		}
		return filepath.Join(appData, "TradeJournal"), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "trade-journal"), nil
	}
	return filepath.Join(home, ".config", "trade-journal"), nil
}

// ConfigPath returns the location of the user config file.
func ConfigPath() (string, error) {
	dir, err := appConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName), nil
}

func IsFirstRun() bool {
	path, err := ConfigPath()
	if err != nil {
		return true
	}
	_, err = os.Stat(path)
	return err != nil
}

// LoadUserConfig reads the user config file. A missing or unreadable file
// yields the defaults.
func LoadUserConfig() UserConfig {
	defaults := UserConfig{DBName: defaultDBName}
	path, err := ConfigPath()
	if err != nil {
		return defaults
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults
	}
	cfg := defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults
	}
	if strings.TrimSpace(cfg.DBName) == "" {
		cfg.DBName = defaultDBName
	}
	return cfg
}

func SaveUserConfig(cfg UserConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, srcFile); err != nil {
		return err
	}
	return out.Sync()
}

// CompleteSetup records where the journal lives and returns the data dir.
// An existing database is copied into customDataDir when one is given and
// used in place otherwise.
func CompleteSetup(customDataDir, existingDBPath, dbName string) (string, error) {
	cfg := LoadUserConfig()
	selectedName := strings.TrimSpace(dbName)
	if selectedName == "" {
		selectedName = cfg.DBName
	}

	dataDir := ""
	if existingDBPath != "" {
		existingDBPath = filepath.Clean(existingDBPath)
		info, err := os.Stat(existingDBPath)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", errors.New("database path is a directory")
		}
		selectedName = filepath.Base(existingDBPath)
		if customDataDir != "" {
			dataDir = filepath.Clean(customDataDir)
			if err := copyFile(existingDBPath, filepath.Join(dataDir, selectedName)); err != nil {
				return "", fmt.Errorf("copy database: %w", err)
			}
		} else {
			dataDir = filepath.Dir(existingDBPath)
		}
	} else if customDataDir != "" {
		dataDir = filepath.Clean(customDataDir)
	} else {
		dir, err := appConfigDir()
		if err != nil {
			return "", err
		}
		dataDir = dir
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	cfg.DataDir = dataDir
	cfg.DBName = selectedName
	cfg.SetupComplete = true
	if err := SaveUserConfig(cfg); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDataDir resolves the data dir: runtime flag, then
// TRADE_JOURNAL_DATA_DIR, then the user config, then the OS default.
func GetDataDir() (string, error) {
	dir := runtimeDataDir
	if dir == "" {
		dir = os.Getenv("TRADE_JOURNAL_DATA_DIR")
	}
	if dir == "" {
		dir = LoadUserConfig().DataDir
	}
	if dir == "" {
		def, err := appConfigDir()
		if err != nil {
			return "", err
		}
		dir = def
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// GetDBPath returns TRADE_JOURNAL_DB_PATH or the db name inside the data dir.
func GetDBPath() (string, error) {
	if envPath := os.Getenv("TRADE_JOURNAL_DB_PATH"); envPath != "" {
		return envPath, nil
	}
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, LoadUserConfig().DBName), nil
}
