// Package config loads DeltaTask configuration from file and environment.
//
// Lookup order: explicit values in ~/.deltatask/config.yaml (or ./config.yaml),
// then DELTATASK_* environment variables, then defaults. Paths default under
// the user's home directory.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type VaultCfg struct {
	// Path is the vault root directory.
	Path string
}

type StoreCfg struct {
	// Path is the SQLite database file.
	Path string
}

type LogCfg struct {
	// File is the log destination; empty logs to stderr.
	File string
	// MaxSizeMB, MaxBackups, MaxAgeDays configure log rotation.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type DaemonCfg struct {
	DebounceInterval time.Duration
	ResyncInterval   time.Duration
}

type DashboardCfg struct {
	Port int
}

type Config struct {
	Vault     VaultCfg
	Store     StoreCfg
	Log       LogCfg
	Daemon    DaemonCfg
	Dashboard DashboardCfg
}

// Load reads configuration from config.yaml and DELTATASK_* environment
// variables. A missing config file is fine; defaults cover everything.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(defaultDir())
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("DELTATASK") // e.g. DELTATASK_VAULT_PATH -> vault.path

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Only a parse failure is fatal; no file at all is fine.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	dir := defaultDir()
	v.SetDefault("vault.path", filepath.Join(dir, "vault"))
	v.SetDefault("store.path", filepath.Join(dir, "deltatask.db"))
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 10)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("log.maxAgeDays", 28)
	v.SetDefault("daemon.debounceInterval", 500*time.Millisecond)
	v.SetDefault("daemon.resyncInterval", 5*time.Minute)
	v.SetDefault("dashboard.port", 8080)
}

// defaultDir is ~/.deltatask, falling back to the working directory when the
// home directory cannot be resolved.
func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deltatask"
	}
	return filepath.Join(home, ".deltatask")
}
