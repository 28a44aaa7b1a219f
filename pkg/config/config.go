// Package config loads application configuration from an optional
// config file and RETROHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir   string
	DBPath    string
	BackupDir string
	ImagesDir string
	KeyPath   string

	ListenAddr    string // HTTP API
	EventFeedAddr string // TCP event feed
	NotifyAddr    string // UDP maintenance reminders

	AuthURL      string // client-credentials token endpoint of the metadata API
	ClientID     string // default credentials; user-saved ones take precedence
	ClientSecret string

	LogLevel  string // debug, info, warn, error
	LogFormat string // json, console
}

// Load reads config.yaml from the data dir when present, then applies
// environment overrides. Missing files are fine; defaults cover a
// zero-config start.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	dataDir := filepath.Join(home, ".retrohub")

	v := viper.New()
	v.SetEnvPrefix("RETROHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("event_feed_addr", ":7070")
	v.SetDefault("notify_addr", ":7071")
	v.SetDefault("auth_url", "https://id.twitch.tv/oauth2/token")
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	dd := v.GetString("data_dir")
	cfg := &Config{
		DataDir:       dd,
		DBPath:        stringOr(v.GetString("db_path"), filepath.Join(dd, "data.db")),
		BackupDir:     stringOr(v.GetString("backup_dir"), filepath.Join(dd, "backups")),
		ImagesDir:     stringOr(v.GetString("images_dir"), filepath.Join(dd, "images")),
		KeyPath:       stringOr(v.GetString("key_path"), filepath.Join(dd, "secure.key")),
		ListenAddr:    v.GetString("listen_addr"),
		EventFeedAddr: v.GetString("event_feed_addr"),
		NotifyAddr:    v.GetString("notify_addr"),
		AuthURL:       v.GetString("auth_url"),
		ClientID:      v.GetString("client_id"),
		ClientSecret:  v.GetString("client_secret"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
	}
	return cfg, nil
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
