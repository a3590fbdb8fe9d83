// Package config loads daemon configuration from an optional YAML file and VKMOD_* environment variables, and validates it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("configuration error")

const (
	EnvPrefix = "VKMOD"

	DefaultAPIHost         = "https://api.vk.com"
	DefaultAPIVersion      = "5.199"
	DefaultStickerCooldown = 60 * time.Second
	DefaultLongPollWait    = 25
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultMetricsListen   = ":3989"
)

type Config struct {
	AccessToken string `mapstructure:"access_token" validate:"required"`
	GroupID     int64  `mapstructure:"group_id" validate:"gt=0"`
	APIHost     string `mapstructure:"api_host" validate:"required,url"`
	APIVersion  string `mapstructure:"api_version" validate:"required"`

	// regular expressions, applied in order
	BannedPatterns []string `mapstructure:"banned_patterns" validate:"dive,required"`
	// positive community ids
	BannedRepostGroups []int64 `mapstructure:"banned_repost_groups" validate:"dive,gt=0"`

	StickerCooldown StickerCooldownConfig `mapstructure:"sticker_cooldown"`
	LongPoll        LongPollConfig        `mapstructure:"longpoll"`
	Log             LogConfig             `mapstructure:"log"`

	// decide, but never delete
	ReadOnly      bool   `mapstructure:"readonly"`
	MetricsListen string `mapstructure:"metrics_listen"`
}

type StickerCooldownConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Window  time.Duration `mapstructure:"window" validate:"gt=0"`
}

type LongPollConfig struct {
	// seconds
	Wait int `mapstructure:"wait" validate:"min=1,max=90"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// regexes may contain commas, so this is read separately from the other keys (see patternsFromEnv)
const patternsEnv = EnvPrefix + "_BANNED_PATTERNS"

// every other key which may be set from the environment, eg "sticker_cooldown.window" is VKMOD_STICKER_COOLDOWN_WINDOW
var keys = []string{
	"access_token",
	"group_id",
	"api_host",
	"api_version",
	"banned_repost_groups",
	"sticker_cooldown.enabled",
	"sticker_cooldown.window",
	"longpoll.wait",
	"log.level",
	"log.format",
	"readonly",
	"metrics_listen",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_host", DefaultAPIHost)
	v.SetDefault("api_version", DefaultAPIVersion)
	v.SetDefault("sticker_cooldown.enabled", false)
	v.SetDefault("sticker_cooldown.window", DefaultStickerCooldown)
	v.SetDefault("longpoll.wait", DefaultLongPollWait)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("readonly", false)
	v.SetDefault("metrics_listen", DefaultMetricsListen)
}

// Load reads configuration from defaults, then the YAML file at path (if non-empty and present), then VKMOD_* environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRules is like Load, but only validates the moderation rule settings, so credentials may be absent. For offline rule checks.
func LoadRules(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	err = validator.New().StructPartial(cfg,
		"BannedPatterns",
		"BannedRepostGroups",
		"StickerCooldown.Window",
		"Log.Level",
		"Log.Format",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("%w: binding env for %s: %w", ErrConfiguration, k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			// a missing file is fine; viper reports an explicit path as a plain fs error
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: reading %s: %w", ErrConfiguration, path, err)
			}
		}
	}

	if patterns, ok := patternsFromEnv(); ok {
		v.Set("banned_patterns", patterns)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrConfiguration, err)
	}
	return &cfg, nil
}

// VKMOD_BANNED_PATTERNS is either a JSON array of strings, eg `["a{1,3}", "b"]`, or one pattern per line. It is never split on commas. A value which isn't a JSON string array (eg the character class `[,.]`) is read line by line.
func patternsFromEnv() ([]string, bool) {
	raw, ok := os.LookupEnv(patternsEnv)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	var list []string
	if strings.HasPrefix(strings.TrimSpace(raw), "[") {
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			return list, true
		}
	}
	list = nil
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		list = append(list, line)
	}
	return list, true
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}
