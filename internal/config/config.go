// Package config loads compound.yaml and the COMPOUND_* environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conduit-lang/compound/internal/orm/schema"
	"github.com/conduit-lang/compound/internal/orm/store"
)

// EnvPrefix prefixes environment overrides (COMPOUND_SERVER_PORT)
const EnvPrefix = "COMPOUND"

// Config represents the compound configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Redis     RedisConfig      `mapstructure:"redis"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Document  DocumentConfig   `mapstructure:"document"`
	Resources []ResourceConfig `mapstructure:"resources"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	APIPrefix       string        `mapstructure:"api_prefix"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig configures the cross-request record cache. An empty Addr
// disables it.
type RedisConfig struct {
	Addr   string        `mapstructure:"addr"`
	TTL    time.Duration `mapstructure:"ttl"`
	Prefix string        `mapstructure:"prefix"`
}

// Enabled reports whether a redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoggingConfig represents logger configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DocumentConfig holds the defaults applied to every document request
type DocumentConfig struct {
	Compound         bool `mapstructure:"compound"`
	SelfLink         bool `mapstructure:"self_link"`
	AbsoluteURLs     bool `mapstructure:"absolute_urls"`
	Cache            bool `mapstructure:"cache"`
	PathTokens       bool `mapstructure:"path_tokens"`
	ShowErrorDetails bool `mapstructure:"show_error_details"`
}

// ResourceConfig declares one resource type
type ResourceConfig struct {
	Type       string       `mapstructure:"type"`
	PrimaryKey string       `mapstructure:"primary_key"`
	Collection string       `mapstructure:"collection"`
	Attributes []string     `mapstructure:"attributes"`
	Links      []LinkConfig `mapstructure:"links"`
}

// LinkConfig declares one relationship of a resource
type LinkConfig struct {
	Name        string `mapstructure:"name"`
	Kind        string `mapstructure:"kind"`
	Type        string `mapstructure:"type"`
	Model       string `mapstructure:"model"`
	Attribute   string `mapstructure:"attribute"`
	IDAttribute string `mapstructure:"id_attribute"`
	Prefetched  bool   `mapstructure:"prefetched"`
	NoCache     bool   `mapstructure:"no_cache"`
}

// Load loads the configuration from compound.yml or compound.yaml in the
// working directory
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads the configuration from path, or from the working
// directory when path is empty
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("compound")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.api_prefix", "")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", "5m")
	v.SetDefault("redis.prefix", "compound:")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("document.compound", false)
	v.SetDefault("document.self_link", false)
	v.SetDefault("document.absolute_urls", false)
	v.SetDefault("document.cache", true)
	v.SetDefault("document.path_tokens", false)
	v.SetDefault("document.show_error_details", false)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.APIPrefix != "" {
		if !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must start with '/', got: %s", cfg.Server.APIPrefix)
		}
		if strings.HasSuffix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must not end with '/', got: %s", cfg.Server.APIPrefix)
		}
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	if _, err := store.DialectForDriver(cfg.Database.Driver); err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Resources))
	for i, res := range cfg.Resources {
		if res.Type == "" {
			return fmt.Errorf("resources[%d]: type is required", i)
		}
		if seen[res.Type] {
			return fmt.Errorf("resources[%d]: duplicate resource type %q", i, res.Type)
		}
		seen[res.Type] = true

		for j, link := range res.Links {
			if link.Name == "" {
				return fmt.Errorf("%s.links[%d]: name is required", res.Type, j)
			}
			if _, err := schema.ParseRelationKind(link.Kind); err != nil {
				return fmt.Errorf("%s.links[%d]: %w", res.Type, j, err)
			}
		}
	}

	return nil
}

// BuildRegistry turns the resources section into a frozen schema registry
func (c *Config) BuildRegistry() (*schema.Registry, error) {
	registry := schema.NewRegistry()

	for _, res := range c.Resources {
		rs := schema.NewResourceSchema(res.Type).WithAttributes(res.Attributes...)
		if res.PrimaryKey != "" {
			rs.WithPrimaryKey(res.PrimaryKey)
		}
		if res.Collection != "" {
			rs.WithCollection(res.Collection)
		}

		for _, link := range res.Links {
			field, err := link.field()
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", res.Type, link.Name, err)
			}
			rs.WithLink(link.Name, field)
		}

		if err := registry.Register(rs); err != nil {
			return nil, fmt.Errorf("registering %s: %w", res.Type, err)
		}
	}

	if err := registry.Freeze(); err != nil {
		return nil, err
	}
	return registry, nil
}

func (l LinkConfig) field() (*schema.RelationshipField, error) {
	kind, err := schema.ParseRelationKind(l.Kind)
	if err != nil {
		return nil, err
	}

	relType := l.Type
	if relType == "" {
		relType = l.Name
	}

	var field *schema.RelationshipField
	if kind == schema.ToMany {
		field = schema.ToManyField(relType)
	} else {
		field = schema.ToOneField(relType)
	}

	if l.Model != "" {
		field.WithModel(l.Model)
	}
	if l.Attribute != "" {
		field.FromAttribute(l.Attribute)
	}
	if l.IDAttribute != "" {
		field.WithIDAttribute(l.IDAttribute)
	}
	if l.Prefetched {
		field.Prefetched()
	}
	if l.NoCache {
		field.WithoutCache()
	}
	return field, nil
}
