package config

import "time"

type Config struct {
	Server      ServerConfig                 `yaml:"server"`
	Web         WebConfig                    `yaml:"web"`
	Log         LogConfig                    `yaml:"log"`
	Session     SessionConfig                `yaml:"session"`
	Audio       AudioConfig                  `yaml:"audio"`
	Pipeline    PipelineConfig               `yaml:"pipeline"`
	Context     ContextConfig                `yaml:"context"`
	Selected    SelectedConfig               `yaml:"selected_providers"`
	STT         map[string]STTConfig         `yaml:"STT"`
	Translation map[string]TranslationConfig `yaml:"Translation"`
	TTS         map[string]TTSConfig         `yaml:"TTS"`
	Glossary    GlossaryConfig               `yaml:"glossary"`
	Voice       VoiceConfig                  `yaml:"voice"`
}

// ServerConfig covers the websocket transport endpoint.
type ServerConfig struct {
	IP   string     `yaml:"ip"`
	Port int        `yaml:"port"`
	Path string     `yaml:"path"`
	Auth AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// WebConfig covers the REST API endpoint.
type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// SessionConfig controls session lifecycle housekeeping.
type SessionConfig struct {
	IdleTimeoutSec   int `yaml:"idle_timeout_sec"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSec) * time.Second
}

func (c SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// AudioConfig controls the segmenter thresholds. SilenceThresholdBytes is the
// frame size at or below which a frame counts as silence (~0.1s of near-silent
// PCM/opus). MinSegmentBytes is the minimum viable audio for a timer flush.
type AudioConfig struct {
	SilenceThresholdBytes int `yaml:"silence_threshold_bytes"`
	MinSegmentBytes       int `yaml:"min_segment_bytes"`
	FlushIntervalMs       int `yaml:"flush_interval_ms"`
}

func (c AudioConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}

// PipelineConfig bounds each upstream provider call.
type PipelineConfig struct {
	STTTimeoutSec       int `yaml:"stt_timeout_sec"`
	TranslateTimeoutSec int `yaml:"translate_timeout_sec"`
	TTSTimeoutSec       int `yaml:"tts_timeout_sec"`
}

func (c PipelineConfig) STTTimeout() time.Duration {
	return time.Duration(c.STTTimeoutSec) * time.Second
}

func (c PipelineConfig) TranslateTimeout() time.Duration {
	return time.Duration(c.TranslateTimeoutSec) * time.Second
}

func (c PipelineConfig) TTSTimeout() time.Duration {
	return time.Duration(c.TTSTimeoutSec) * time.Second
}

// ContextConfig bounds the per-session conversation history.
type ContextConfig struct {
	MaxExchanges int `yaml:"max_exchanges"`
}

// SelectedConfig lists the adapter preference order per capability.
type SelectedConfig struct {
	STT         []string `yaml:"STT"`
	Translation []string `yaml:"Translation"`
	TTS         []string `yaml:"TTS"`
}

type STTConfig struct {
	Type      string `yaml:"type"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"url"`
	ModelName string `yaml:"model_name"`
}

type TranslationConfig struct {
	Type        string  `yaml:"type"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"url"`
	ModelName   string  `yaml:"model_name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type TTSConfig struct {
	Type      string `yaml:"type"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"url"`
	ModelName string `yaml:"model_name"`
	Voice     string `yaml:"voice"`
	Format    string `yaml:"format"`
}

// GlossaryConfig selects the glossary store backend.
type GlossaryConfig struct {
	Type  string              `yaml:"type"`
	Redis GlossaryRedisConfig `yaml:"redis,omitempty"`
}

type GlossaryRedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// VoiceConfig locates the voice profile database.
type VoiceConfig struct {
	DSN string `yaml:"dsn"`
}
