package config

// DefaultConfig returns the configuration used when no config file is found.
// Mock providers are always registered last so a fresh checkout works offline.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8000,
			Path: "/ws",
			Auth: AuthConfig{
				Enabled: false,
			},
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Session: SessionConfig{
			IdleTimeoutSec:   300,
			SweepIntervalSec: 60,
		},
		Audio: AudioConfig{
			SilenceThresholdBytes: 200,
			MinSegmentBytes:       8192,
			FlushIntervalMs:       1800,
		},
		Pipeline: PipelineConfig{
			STTTimeoutSec:       15,
			TranslateTimeoutSec: 10,
			TTSTimeoutSec:       15,
		},
		Context: ContextConfig{
			MaxExchanges: 10,
		},
		Selected: SelectedConfig{
			STT:         []string{"openai", "mock"},
			Translation: []string{"openai", "mock"},
			TTS:         []string{"openai", "edge", "mock"},
		},
		STT: map[string]STTConfig{
			"openai": {
				Type:      "openai",
				ModelName: "whisper-1",
			},
			"mock": {
				Type: "mock",
			},
		},
		Translation: map[string]TranslationConfig{
			"openai": {
				Type:        "openai",
				ModelName:   "gpt-4o-mini",
				Temperature: 0.2,
				MaxTokens:   512,
			},
			"mock": {
				Type: "mock",
			},
		},
		TTS: map[string]TTSConfig{
			"openai": {
				Type:      "openai",
				ModelName: "tts-1",
				Voice:     "alloy",
				Format:    "mp3",
			},
			"edge": {
				Type:   "edge",
				Format: "mp3",
			},
			"mock": {
				Type: "mock",
			},
		},
		Glossary: GlossaryConfig{
			Type: "memory",
		},
		Voice: VoiceConfig{
			DSN: "data/voices.db",
		},
	}
}
