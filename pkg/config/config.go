// Package config loads the bridge configuration from a JSON file with
// OBRIDGE_* environment variable overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	SelfID       int64  `env:"OBRIDGE_SELF_ID"       json:"self_id"`
	CoreSocket   string `env:"OBRIDGE_CORE_SOCKET"   json:"core_socket"`
	StoragePath  string `env:"OBRIDGE_STORAGE_PATH"  json:"storage_path"`
	AccessToken  string `env:"OBRIDGE_ACCESS_TOKEN"  json:"access_token"`

	WS        WSConfig        `json:"ws"`
	ReverseWS ReverseWSConfig `json:"reverse_ws"`
	HTTPPost  HTTPPostConfig  `json:"http_post"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`

	ReportSelfMessage bool `env:"OBRIDGE_REPORT_SELF_MESSAGE" json:"report_self_message"`
	Debug             bool `env:"OBRIDGE_DEBUG"               json:"debug"`
}

type WSConfig struct {
	Enabled bool   `env:"OBRIDGE_WS_ENABLED" json:"enabled"`
	Host    string `env:"OBRIDGE_WS_HOST"    json:"host"`
	Port    int    `env:"OBRIDGE_WS_PORT"    json:"port"`
}

type ReverseWSConfig struct {
	Enabled           bool     `env:"OBRIDGE_REVERSE_WS_ENABLED"            json:"enabled"`
	URLs              []string `env:"OBRIDGE_REVERSE_WS_URLS"               json:"urls"`
	ReconnectInterval int      `env:"OBRIDGE_REVERSE_WS_RECONNECT_INTERVAL" json:"reconnect_interval"` // seconds
}

type HTTPPostConfig struct {
	Enabled bool     `env:"OBRIDGE_HTTP_POST_ENABLED" json:"enabled"`
	URLs    []string `env:"OBRIDGE_HTTP_POST_URLS"    json:"urls"`
	Secret  string   `env:"OBRIDGE_HTTP_POST_SECRET"  json:"secret"`
	Timeout int      `env:"OBRIDGE_HTTP_POST_TIMEOUT" json:"timeout"` // seconds
}

type HeartbeatConfig struct {
	Enabled  bool `env:"OBRIDGE_HEARTBEAT_ENABLED"  json:"enabled"`
	Interval int  `env:"OBRIDGE_HEARTBEAT_INTERVAL" json:"interval"` // seconds
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		CoreSocket:  filepath.Join(home, ".obridge", "core.sock"),
		StoragePath: filepath.Join(home, ".obridge", "messages.db"),
		WS: WSConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    3001,
		},
		ReverseWS: ReverseWSConfig{
			ReconnectInterval: 3,
		},
		HTTPPost: HTTPPostConfig{
			Timeout: 5,
		},
		Heartbeat: HeartbeatConfig{
			Interval: 30,
		},
	}
}

// LoadConfig reads the file at path, falling back to defaults when it does
// not exist, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
