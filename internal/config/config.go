// Package config loads tutorboard settings from ~/.tutorboard/config.yaml and
// the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"tutorboard/internal/engine"
	"tutorboard/internal/gateway"
	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "TUTORBOARD"

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Voice     string          `mapstructure:"voice"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Narration NarrationConfig `mapstructure:"narration"`
	IPC       IPCConfig       `mapstructure:"ipc"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
}

// APIConfig configures the Gemini gateway. Key is only ever read.
type APIConfig struct {
	Key         string  `mapstructure:"key"`
	TextModel   string  `mapstructure:"text_model"`
	SpeechModel string  `mapstructure:"speech_model"`
	Temperature float32 `mapstructure:"temperature"`
}

type PlaybackConfig struct {
	AdvancePause       time.Duration `mapstructure:"advance_pause"`
	FallbackTimeout    time.Duration `mapstructure:"fallback_timeout"`
	AwaitFirstAudio    bool          `mapstructure:"await_first_audio"`
	TypewriterInterval time.Duration `mapstructure:"typewriter_interval"`
	VolumeDB           float64       `mapstructure:"volume_db"`
}

type NarrationConfig struct {
	Workers int `mapstructure:"workers"`
}

type IPCConfig struct {
	Network string `mapstructure:"network"`
	Address string `mapstructure:"address"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

var defaults = map[string]any{
	"api.key":                      "",
	"api.text_model":               gateway.DefaultTextModel,
	"api.speech_model":             gateway.DefaultSpeechModel,
	"api.temperature":              gateway.DefaultTemperature,
	"voice":                        format.DefaultVoice,
	"playback.advance_pause":       format.AdvancePause,
	"playback.fallback_timeout":    format.FallbackTimeout,
	"playback.await_first_audio":   true,
	"playback.typewriter_interval": format.TypewriterInterval,
	"playback.volume_db":           0.0,
	"narration.workers":            3,
	"ipc.network":                  "unix",
	"ipc.address":                  "/tmp/tutorboard.sock",
	"http.addr":                    "127.0.0.1:8765",
	"log.level":                    "info",
	"log.file":                     "",
}

// Dir is where the default config file lives.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	return filepath.Join(home, ".tutorboard"), nil
}

// Load reads path, or ~/.tutorboard/config.yaml when path is empty. A missing
// default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if cfg.API.Key == "" {
		cfg.API.Key = firstEnv("GEMINI_API_KEY", "API_KEY")
	}
	cfg.Voice = format.VoiceOrDefault(cfg.Voice)
	if cfg.Narration.Workers < 1 {
		cfg.Narration.Workers = 1
	}
	return cfg, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Engine maps playback settings onto the session config.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		AdvancePause:    c.Playback.AdvancePause,
		FallbackTimeout: c.Playback.FallbackTimeout,
		AwaitFirstAudio: c.Playback.AwaitFirstAudio,
		Workers:         c.Narration.Workers,
		Voice:           c.Voice,
		VolumeDB:        c.Playback.VolumeDB,
	}
}

// Gateway maps API settings onto gateway options; the logger is left to the caller.
func (c *Config) Gateway() gateway.Options {
	return gateway.Options{
		APIKey:      c.API.Key,
		TextModel:   c.API.TextModel,
		SpeechModel: c.API.SpeechModel,
		Temperature: c.API.Temperature,
	}
}
