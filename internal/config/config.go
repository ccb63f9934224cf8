package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Path string `envconfig:"COMPACTD_DB_PATH" default:"compactd.db"`
}

type svcConfig struct {
	Address      string   `envconfig:"COMPACTD_ADDRESS" default:"127.0.0.1:8085"`
	LogLevel     string   `envconfig:"COMPACTD_LOG_LEVEL" default:"info"`
	SettingsFile string   `envconfig:"COMPACTD_SETTINGS_FILE" default:"settings.yaml"`
	Engine       string   `envconfig:"COMPACTD_ENGINE" default:"sim"`
	UIOrigins    []string `envconfig:"COMPACTD_UI_ORIGINS" default:"http://localhost:5173,tauri://localhost"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
