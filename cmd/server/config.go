package main

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration. It satisfies auth.Config so it
// can be handed straight to the authenticator.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Token    TokenConfig    `mapstructure:"token"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TokenConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	Method     string `mapstructure:"method"`
	// ExpirationMS is the token lifetime in milliseconds.
	ExpirationMS int      `mapstructure:"expiration_ms"`
	Issuer       string   `mapstructure:"issuer"`
	Audience     []string `mapstructure:"audience"`
	ContextKey   string   `mapstructure:"context_key"`
	TokenLookup  string   `mapstructure:"lookup"`
	AuthScheme   string   `mapstructure:"scheme"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func (c *Config) GetSigningKey() string    { return c.Token.SigningKey }
func (c *Config) GetSigningMethod() string { return c.Token.Method }
func (c *Config) GetContextKey() string    { return c.Token.ContextKey }

// GetTokenExpiration returns the token lifetime in milliseconds.
func (c *Config) GetTokenExpiration() int { return c.Token.ExpirationMS }

func (c *Config) GetTokenLookup() string { return c.Token.TokenLookup }
func (c *Config) GetAuthScheme() string  { return c.Token.AuthScheme }
func (c *Config) GetIssuer() string      { return c.Token.Issuer }
func (c *Config) GetAudience() []string  { return c.Token.Audience }

// LoadConfig builds the configuration from defaults, an optional config
// file, an optional .env file, and AUTH_* environment variables, in
// increasing order of precedence.
func LoadConfig(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load env file").
				WithMetadata(map[string]any{"path": envPath})
		}
	} else if _, err := os.Stat(".env"); err == nil {
		// Best effort: a local .env is a dev convenience, not a requirement.
		_ = godotenv.Load(".env")
	}

	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.dsn", "file:auth.db?cache=shared&mode=rwc")
	// Registered with an empty default so the env override is visible to
	// Unmarshal; viper only considers keys it knows about.
	v.SetDefault("token.signing_key", "")
	v.SetDefault("token.method", "HS256")
	v.SetDefault("token.expiration_ms", 86400000)
	v.SetDefault("token.issuer", "auth-service")
	v.SetDefault("token.audience", []string{})
	v.SetDefault("token.context_key", "identity")
	v.SetDefault("token.lookup", "header:Authorization")
	v.SetDefault("token.scheme", "Bearer")
	v.SetDefault("logging.level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read config file").
				WithMetadata(map[string]any{"path": configPath})
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read config file")
			}
		}
	}

	v.SetEnvPrefix("AUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to unmarshal config")
	}

	if cfg.Token.SigningKey == "" {
		return nil, errors.New("token signing key is required", errors.CategoryOperation).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	return cfg, nil
}
