package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// EnvPrefix namespaces environment overrides, e.g. TOURISM_LLM_ENABLED.
const EnvPrefix = "TOURISM"

var replacer = strings.NewReplacer(".", "_")

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		AllowedOrigins  []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	Geocode struct {
		BaseURL     string        `mapstructure:"baseURL"`
		UserAgent   string        `mapstructure:"userAgent"`
		Timeout     time.Duration `mapstructure:"timeout"`
		MinInterval time.Duration `mapstructure:"minInterval"`
	} `mapstructure:"geocode"`
	Weather struct {
		BaseURL string        `mapstructure:"baseURL"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"weather"`
	Places struct {
		BaseURL      string        `mapstructure:"baseURL"`
		Timeout      time.Duration `mapstructure:"timeout"`
		RadiusMeters int           `mapstructure:"radiusMeters"`
		Limit        int           `mapstructure:"limit"`
	} `mapstructure:"places"`
	LLM struct {
		Enabled             bool          `mapstructure:"enabled"`
		Provider            string        `mapstructure:"provider"`
		BaseURL             string        `mapstructure:"baseURL"`
		APIKey              string        `mapstructure:"apiKey"`
		Models              []string      `mapstructure:"models"`
		Priority            string        `mapstructure:"priority"`
		Timeout             time.Duration `mapstructure:"timeout"`
		AnalysisTemperature float32       `mapstructure:"analysisTemperature"`
		ResponseTemperature float32       `mapstructure:"responseTemperature"`
		TopP                float32       `mapstructure:"topP"`
		MaxTokens           int           `mapstructure:"maxTokens"`
	} `mapstructure:"llm"`
	Cache struct {
		Backend   string `mapstructure:"backend"`
		RedisURL  string `mapstructure:"redisURL"`
		KeyPrefix string `mapstructure:"keyPrefix"`
	} `mapstructure:"cache"`
	Favorites struct {
		Backend  string `mapstructure:"backend"`
		FilePath string `mapstructure:"filePath"`
	} `mapstructure:"favorites"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMODE  string `mapstructure:"SSLMODE"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Nats struct {
		Enabled bool          `mapstructure:"enabled"`
		URL     string        `mapstructure:"url"`
		Subject string        `mapstructure:"subject"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"nats"`
	Telemetry struct {
		ServiceName string `mapstructure:"serviceName"`
	} `mapstructure:"telemetry"`
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	ProviderOllama  = "ollama"
	ProviderGemini  = "gemini"
)

// InitConfig reads config.yml from the usual locations, falling back to the
// embedded copy, then applies TOURISM_* environment overrides.
func InitConfig() (Config, error) {
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		slog.Warn("File-based config not found, falling back to embedded config", slog.Any("error", err))
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	// Unmarshal only sees env values for bound keys.
	for _, key := range v.AllKeys() {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects backend and provider names the container cannot build.
func (c Config) Validate() error {
	var errs []error
	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend))
	}
	switch c.Favorites.Backend {
	case BackendFile, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("favorites.backend must be %q or %q, got %q", BackendFile, BackendPostgres, c.Favorites.Backend))
	}
	switch c.LLM.Provider {
	case ProviderOllama, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOllama, ProviderGemini, c.LLM.Provider))
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		errs = append(errs, errors.New("cache.redisURL is required for the redis backend"))
	}
	return errors.Join(errs...)
}
