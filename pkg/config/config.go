// Package config loads waclaw's configuration: a JSON file overlaid with
// WACLAW_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Gateway        GatewayConfig        `json:"gateway"`
	Bridge         BridgeConfig         `json:"bridge"`
	Providers      ProvidersConfig      `json:"providers"`
	Chat           ChatConfig           `json:"chat"`
	Transcriber    TranscriberConfig    `json:"transcriber"`
	SessionMonitor SessionMonitorConfig `json:"session_monitor"`
}

type GatewayConfig struct {
	Host        string `env:"WACLAW_GATEWAY_HOST"         json:"host"`
	Port        int    `env:"WACLAW_GATEWAY_PORT"         json:"port"`
	StaticDir   string `env:"WACLAW_GATEWAY_STATIC_DIR"   json:"static_dir"`
	CaptureFile string `env:"WACLAW_GATEWAY_CAPTURE_FILE" json:"capture_file,omitempty"`
}

type BridgeConfig struct {
	BaseURL string `env:"WACLAW_BRIDGE_BASE_URL" json:"base_url"`
	APIKey  string `env:"WACLAW_BRIDGE_API_KEY"  json:"api_key"`
	Session string `env:"WACLAW_BRIDGE_SESSION"  json:"session"`
}

type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base,omitempty"`
}

// ChatConfig seeds the default settings table of newly created chats.
type ChatConfig struct {
	Model           string  `env:"WACLAW_CHAT_MODEL"            json:"model"`
	Temperature     float64 `env:"WACLAW_CHAT_TEMPERATURE"      json:"temperature"`
	MaxTokens       int     `env:"WACLAW_CHAT_MAX_TOKENS"       json:"max_tokens"`
	PresencePenalty float64 `env:"WACLAW_CHAT_PRESENCE_PENALTY" json:"presence_penalty"`
	MaxContexts     int     `env:"WACLAW_CHAT_MAX_CONTEXTS"     json:"max_contexts"`
	StateDir        string  `env:"WACLAW_CHAT_STATE_DIR"        json:"state_dir"`
}

type TranscriberConfig struct {
	Enabled   bool   `env:"WACLAW_TRANSCRIBER_ENABLED"    json:"enabled"`
	Binary    string `env:"WACLAW_TRANSCRIBER_BINARY"     json:"binary"`
	ModelName string `env:"WACLAW_TRANSCRIBER_MODEL_NAME" json:"model_name"`
	TmpDir    string `env:"WACLAW_TRANSCRIBER_TMP_DIR"    json:"tmp_dir"`
}

type SessionMonitorConfig struct {
	Enabled  bool   `env:"WACLAW_SESSION_MONITOR_ENABLED"  json:"enabled"`
	Schedule string `env:"WACLAW_SESSION_MONITOR_SCHEDULE" json:"schedule"`
}

// LoadConfig reads the config file and applies environment overrides. A
// missing file yields the defaults.
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
		return nil, fmt.Errorf("error parsing config %s: %w", path, err)
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

// StateDirPath returns the chat state directory with ~ expanded.
func (c *Config) StateDirPath() string {
	return expandHome(c.Chat.StateDir)
}

// StaticDirPath returns the static page directory with ~ expanded.
func (c *Config) StaticDirPath() string {
	return expandHome(c.Gateway.StaticDir)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
