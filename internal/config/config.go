// Package config loads user settings from the config file, the
// environment and the command line, in rising order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"webmfit/internal/dirs"
	"webmfit/internal/util/bitrate"
)

// Settings are the values webmfit reads from its configuration.
type Settings struct {
	FFmpeg            string  `mapstructure:"ffmpeg"`
	MPV               string  `mapstructure:"mpv"`
	DefaultLimitMiB   float64 `mapstructure:"default_limit"`
	ContainerOverhead float64 `mapstructure:"container_overhead"`
	CopyAudioKbps     int     `mapstructure:"copy_audio_kbps"`
	LogFile           string  `mapstructure:"log_file"`
	LogLevel          string  `mapstructure:"log_level"`
}

// Policy returns the size-fit constants.
func (s Settings) Policy() bitrate.Policy {
	return bitrate.Policy{
		ContainerOverhead:     s.ContainerOverhead,
		CopyAudioFallbackKbps: s.CopyAudioKbps,
	}
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"ffmpeg":    "ffmpeg",
	"mpv":       "mpv",
	"log-file":  "log_file",
	"log-level": "log_level",
}

// Load reads the settings. file names an explicit config file; when empty
// config.{yaml,toml,json} is looked up in the user config directory and a
// missing file is not an error. Flags in fs that the user set win over
// everything else.
func Load(fs *pflag.FlagSet, file string) (Settings, error) {
	v := viper.New()
	def := bitrate.DefaultPolicy()
	v.SetDefault("ffmpeg", "")
	v.SetDefault("mpv", "")
	v.SetDefault("default_limit", 8.0)
	v.SetDefault("container_overhead", def.ContainerOverhead)
	v.SetDefault("copy_audio_kbps", def.CopyAudioFallbackKbps)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "warn")

	// WEBMFIT_* for every key; the executables also honour the short
	// WEBM_FFMPEG and WEBM_MPV names.
	v.SetEnvPrefix("WEBMFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("ffmpeg", "WEBMFIT_FFMPEG", "WEBM_FFMPEG")
	_ = v.BindEnv("mpv", "WEBMFIT_MPV", "WEBM_MPV")

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			v.AddConfigPath(cfgDir)
		}
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, s.validate()
}

func (s Settings) validate() error {
	if s.DefaultLimitMiB <= 0 {
		return fmt.Errorf("config: default_limit must be positive, got %g", s.DefaultLimitMiB)
	}
	if s.ContainerOverhead < 0 || s.ContainerOverhead >= 1 {
		return fmt.Errorf("config: container_overhead must be in [0, 1), got %g", s.ContainerOverhead)
	}
	if s.CopyAudioKbps <= 0 {
		return fmt.Errorf("config: copy_audio_kbps must be positive, got %d", s.CopyAudioKbps)
	}
	return nil
}
