package config

// Package config loads weather-mcp configuration from defaults, an optional
// YAML file, an optional .env file and WEATHER_MCP_* environment variables.

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/Denis-Chistyakov/weather-mcp/pkg/types"
)

const (
	configName = "weather-mcp"
	envPrefix  = "WEATHER_MCP"

	// DefaultEnvFile is read from the working directory when present
	DefaultEnvFile = ".env"
)

// setDefaults registers a default for every key so AutomaticEnv can
// override any of them during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", types.DefaultServerName)
	v.SetDefault("server.version", types.DefaultServerVersion)
	v.SetDefault("server.protocol_version", types.DefaultProtocolVersion)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.body_limit", 1024*1024)
	v.SetDefault("http.rate_limit_rps", 0)
	v.SetDefault("http.rate_limit_burst", 20)

	v.SetDefault("analytics.enabled", true)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "console")

	v.SetDefault("weather.api_key", types.DefaultAPIKey)
}

// Load builds the configuration. An explicit configFile must exist; without
// one the usual locations are searched and a missing file is not an error.
// envFiles default to DefaultEnvFile; missing env files are skipped and
// variables already set in the environment win.
func Load(configFile string, envFiles ...string) (*types.Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/weather-mcp")
	}

	// Allow environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("weather.api_key", envPrefix+"_WEATHER_API_KEY", "WEATHER_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Msg("No config file found, using defaults")
	} else {
		log.Debug().Str("config", v.ConfigFileUsed()).Msg("Configuration loaded")
	}

	var config types.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks field constraints declared in struct tags
func Validate(config *types.Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat env file %s: %w", f, err)
		}
		if err := gotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
		log.Debug().Str("file", f).Msg("Environment file loaded")
	}
	return nil
}
