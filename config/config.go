package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Development bool       `mapstructure:"development"`
	API         APIConfig  `mapstructure:"api"`
	Auth        AuthConfig `mapstructure:"auth"`
	Log         LogConfig  `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type AuthConfig struct {
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	LoginPath        string        `mapstructure:"login_path"`
	UnauthorizedPath string        `mapstructure:"unauthorized_path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

const envPrefix = "PORTAL"

// Load reads configuration from the optional file at path, with
// environment variables (PORTAL_API_BASE_URL, ...) taking precedence.
// A missing file is fine; a malformed one is not.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if cfg.Development {
		// Development tolerates flakier backends than production does.
		// IsSet would report true for the registered defaults, so only an
		// explicit file or env value pins these.
		if !explicitlySet(v, "api.retry_attempts") {
			cfg.API.RetryAttempts = 3
		}
		if !explicitlySet(v, "api.timeout") {
			cfg.API.Timeout = 30 * time.Second
		}
	}
	return cfg, nil
}

func explicitlySet(v *viper.Viper, key string) bool {
	if v.InConfig(key) {
		return true
	}
	envKey := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	_, ok := os.LookupEnv(envKey)
	return ok
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("development", false)
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "60s")
	v.SetDefault("api.retry_attempts", 2)
	v.SetDefault("api.retry_delay", "2s")
	v.SetDefault("auth.access_token_ttl", "1h")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.idle_timeout", "30m")
	v.SetDefault("auth.login_path", "/auth/login")
	v.SetDefault("auth.unauthorized_path", "/unauthorized")
	v.SetDefault("log.level", "info")
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}
