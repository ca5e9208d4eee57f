// Package config loads CLI and server settings from flags, environment,
// an optional YAML file and a local .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rkirkendall/prompt-perfect/internal/ai"
	"github.com/rkirkendall/prompt-perfect/internal/promptbuilder"
)

const (
	EnvPrefix      = "PROMPT_PERFECT"
	configName     = ".prompt-perfect"
	DefaultTimeout = 60 * time.Second
	DefaultAddr    = ":8188"
)

// Keys read from viper.
const (
	KeyProvider    = "provider"
	KeyModel       = "model"
	KeyTemperature = "temperature"
	KeyAPIKey      = "api_key"
	KeyBaseURL     = "base_url"
	KeyTimeout     = "timeout"
	KeyDebug       = "debug"
	KeyAddr        = "addr"
)

// Config is the resolved runtime configuration.
type Config struct {
	Provider    ai.Provider
	Model       string
	Temperature float64
	// APIKey is only the explicitly configured key; the provider env var is
	// consulted later by promptbuilder.ResolveCredential.
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Debug   bool
	Addr    string
}

// LoadDotEnv loads .env files without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// SetDefaults registers defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProvider, string(ai.ProviderOpenAI))
	v.SetDefault(KeyTemperature, promptbuilder.DefaultTemperature)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyAddr, DefaultAddr)
}

// Init wires environment lookup and reads cfgFile, or $HOME/.prompt-perfect.yaml
// when cfgFile is empty. A missing default file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// FromViper resolves a Config. The base URL falls back to the provider's
// endpoint variable (OPENAI_BASE_URL and friends).
func FromViper(v *viper.Viper) (Config, error) {
	provider, err := ai.ParseProvider(v.GetString(KeyProvider))
	if err != nil {
		return Config{}, err
	}
	c := Config{
		Provider:    provider,
		Model:       strings.TrimSpace(v.GetString(KeyModel)),
		Temperature: v.GetFloat64(KeyTemperature),
		APIKey:      v.GetString(KeyAPIKey),
		BaseURL:     strings.TrimSpace(v.GetString(KeyBaseURL)),
		Timeout:     v.GetDuration(KeyTimeout),
		Debug:       v.GetBool(KeyDebug),
		Addr:        v.GetString(KeyAddr),
	}
	if c.BaseURL == "" {
		c.BaseURL = strings.TrimSpace(os.Getenv(provider.BaseURLEnv()))
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return Config{}, fmt.Errorf("%w: got %v", promptbuilder.ErrInvalidTemperature, c.Temperature)
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c, nil
}

// RequestConfig converts c for promptbuilder.Builder.Build.
func (c Config) RequestConfig() promptbuilder.RequestConfig {
	return promptbuilder.RequestConfig{
		APIKey:      c.APIKey,
		Model:       c.Model,
		Temperature: c.Temperature,
		Provider:    c.Provider,
		BaseURL:     c.BaseURL,
	}
}
