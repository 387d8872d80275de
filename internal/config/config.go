// Package config loads vidquiz settings from an optional YAML file,
// VIDQUIZ_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Quiz    QuizConfig    `mapstructure:"quiz"`
	Emitter EmitterConfig `mapstructure:"emitter"`
}

type DBConfig struct {
	// Path is empty when the store should pick its default location.
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Mode        string        `mapstructure:"mode"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	SessionIdle time.Duration `mapstructure:"session_idle"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type RedisConfig struct {
	// Addr enables the Redis event bus when set.
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

type QuizConfig struct {
	PassThreshold float64 `mapstructure:"pass_threshold"`
}

type EmitterConfig struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"db":        "db.path",
	"addr":      "server.addr",
	"log-level": "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.session_idle", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", "vidquiz:events")
	v.SetDefault("quiz.pass_threshold", 0.6)
	v.SetDefault("emitter.write_timeout", 5*time.Second)
	v.SetDefault("emitter.drain_timeout", 10*time.Second)
}

// Load reads configuration. file may be empty, in which case vidquiz.yaml
// is looked up in the working directory and the user config directory and
// is optional. flags may be nil; flags that were set override every other
// source.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VIDQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("vidquiz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "vidquiz"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the quiz cannot run with.
func (c *Config) Validate() error {
	if c.Quiz.PassThreshold <= 0 || c.Quiz.PassThreshold > 1 {
		return fmt.Errorf("quiz.pass_threshold must be in (0, 1], got %v", c.Quiz.PassThreshold)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Server.SessionIdle <= 0 {
		return fmt.Errorf("server.session_idle must be positive")
	}
	return nil
}
