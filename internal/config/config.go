package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret       string `yaml:"jwt_secret"`
		TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	} `yaml:"auth"`
	Training struct {
		FeatureCap           int     `yaml:"feature_cap"`
		HoldoutFraction      float64 `yaml:"holdout_fraction"`
		ForestTrees          int     `yaml:"forest_trees"`
		Seed                 int64   `yaml:"seed"`
		TrainOnStart         bool    `yaml:"train_on_start"`
		RetrainIntervalHours int     `yaml:"retrain_interval_hours"`
	} `yaml:"training"`
	Bootstrap struct {
		CSVPath string `yaml:"csv_path"`
	} `yaml:"bootstrap"`
	Notifications struct {
		TelegramEnabled  bool   `yaml:"telegram_enabled"`
		TelegramBotToken string `yaml:"telegram_bot_token"`
		TelegramChatID   int64  `yaml:"telegram_chat_id"`
	} `yaml:"notifications"`
	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// LoadConfig reads configuration from the specified YAML file.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return config, nil
}
