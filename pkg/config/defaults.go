package config

// DefaultConfig returns the configuration template new installs start
// from. The chat section mirrors the default per-chat settings table.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:      "0.0.0.0",
			Port:      5093,
			StaticDir: "~/.waclaw/static",
		},
		Bridge: BridgeConfig{
			BaseURL: "http://localhost:3000",
			Session: "test",
		},
		Chat: ChatConfig{
			Model:           "gpt-4",
			Temperature:     0.5,
			MaxTokens:       2000,
			PresencePenalty: 0.6,
			MaxContexts:     100,
			StateDir:        "~/.waclaw/conversations",
		},
		Transcriber: TranscriberConfig{
			Binary:    "insanely-fast-whisper",
			ModelName: "distil-whisper/large-v2",
			TmpDir:    "/tmp/audio",
		},
		SessionMonitor: SessionMonitorConfig{
			Enabled:  true,
			Schedule: "* * * * *",
		},
	}
}
