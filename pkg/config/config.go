// Package config loads the YAML configuration shared by the graphbulk
// binaries: which container to write to, how elements are encoded, where logs
// go and, for the HTTP API, how callers are authenticated.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/url"
	"os"

	"github.com/natefinch/lumberjack"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/yaml.v3"

	"github.com/uswitch/graphbulk/pkg/authnz"
	"github.com/uswitch/graphbulk/pkg/bulk"
	"github.com/uswitch/graphbulk/pkg/encoding"
	"github.com/uswitch/graphbulk/pkg/middleware"
	"github.com/uswitch/graphbulk/pkg/store"
	"github.com/uswitch/graphbulk/pkg/store/badger"
	"github.com/uswitch/graphbulk/pkg/store/gremlin"
	"github.com/uswitch/graphbulk/pkg/store/inmem"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	BackendMemory  = "memory"
	BackendBadger  = "badger"
	BackendGremlin = "gremlin"
)

type StoreConfig struct {
	Backend          string `yaml:"backend"`
	PartitionKeyPath string `yaml:"partitionKeyPath"`

	// badger
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"inMemory"`

	// gremlin
	URL string `yaml:"url"`
}

type ImportConfig struct {
	Mode                    string `yaml:"mode"`
	Upsert                  bool   `yaml:"upsert"`
	VertexPartitionProperty string `yaml:"vertexPartitionProperty"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Prefix     string `yaml:"prefix"`
}

type ServerConfig struct {
	Addr string                `yaml:"addr"`
	CORS middleware.CORSConfig `yaml:"cors"`
}

// ProviderConfig is an OIDC provider. Keys is an optional path to a JWKS file
// used instead of discovery.
type ProviderConfig struct {
	URL       string `yaml:"url"`
	ClientID  string `yaml:"clientID"`
	UserClaim string `yaml:"userClaim"`
	Keys      string `yaml:"keys"`
}

type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Import ImportConfig `yaml:"import"`
	Log    LogConfig    `yaml:"log"`

	Api                 ServerConfig     `yaml:"api"`
	Ops                 ServerConfig     `yaml:"ops"`
	GracefulTimeoutSecs int              `yaml:"gracefulTimeoutSecs"`
	Providers           []ProviderConfig `yaml:"providers"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:          BackendMemory,
			PartitionKeyPath: "/pk",
		},
		Import: ImportConfig{
			Mode: encoding.MultiValued.String(),
		},
		Log: LogConfig{
			MaxSizeMB:  100,
			MaxAgeDays: 28,
		},
		Api:                 ServerConfig{Addr: ":8080"},
		Ops:                 ServerConfig{Addr: ":8081"},
		GracefulTimeoutSecs: 10,
	}
}

// FromPath reads a YAML file over the defaults and validates the result.
func FromPath(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	config := Default()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfig)
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendBadger:
		if c.Store.Dir == "" && !c.Store.InMemory {
			return invalid("badger needs a dir unless inMemory is set")
		}
	case BackendGremlin:
		if c.Store.URL == "" {
			return invalid("gremlin needs a url")
		}
		if _, err := url.Parse(c.Store.URL); err != nil {
			return invalid("gremlin url '%s' is invalid: %v", c.Store.URL, err)
		}
	default:
		return invalid("unknown store backend '%s'", c.Store.Backend)
	}

	if _, err := encoding.ResolvePartitionKeyPath(c.Store.PartitionKeyPath, c.Import.VertexPartitionProperty); err != nil {
		return invalid("%v", err)
	}

	if _, err := encoding.ParseMode(c.Import.Mode); err != nil {
		return invalid("%v", err)
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxAgeDays < 0 {
		return invalid("log sizes can't be negative")
	}

	return nil
}

// ValidateAPI checks what the HTTP API needs on top of Validate.
func (c *Config) ValidateAPI() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if len(c.Providers) < 1 {
		return invalid("you need at least one provider")
	}

	for idx, provider := range c.Providers {
		if _, err := url.Parse(provider.URL); provider.URL == "" || err != nil {
			return invalid("provider[%d].url '%s' is invalid", idx, provider.URL)
		}
		if provider.ClientID == "" {
			return invalid("provider[%d].clientID must not be empty", idx)
		}
	}

	if len(c.Api.CORS.AllowedOrigins) < 1 {
		return invalid("you need at least one allowed origin for CORS")
	}

	return nil
}

// SetLogger sends the standard logger to a rotating file when one is
// configured, and returns a logger for components that take one.
func (c *LogConfig) SetLogger() *log.Logger {
	if c == nil || c.File == "" {
		return log.New(os.Stderr, c.prefix(), log.LstdFlags)
	}

	l := &lumberjack.Logger{
		Filename: c.File,
		MaxSize:  c.MaxSizeMB,  // megabytes
		MaxAge:   c.MaxAgeDays, // days
	}
	log.SetOutput(l)

	return log.New(l, c.prefix(), log.LstdFlags)
}

func (c *LogConfig) prefix() string {
	if c == nil {
		return ""
	}
	return c.Prefix
}

// OpenContainer connects to the configured backend.
func (c *StoreConfig) OpenContainer(logger *log.Logger) (store.Container, error) {
	switch c.Backend {
	case BackendMemory, "":
		return inmem.NewContainer(c.PartitionKeyPath), nil
	case BackendBadger:
		container, err := badger.Open(badger.Options{
			Dir:              c.Dir,
			InMemory:         c.InMemory,
			PartitionKeyPath: c.PartitionKeyPath,
			Logger:           logger,
		})
		if err != nil {
			return nil, err
		}
		return container, nil
	case BackendGremlin:
		container, err := gremlin.NewContainer(c.URL, c.PartitionKeyPath, logger)
		if err != nil {
			return nil, err
		}
		return container, nil
	}

	return nil, invalid("unknown store backend '%s'", c.Backend)
}

func (c *ImportConfig) ExecutorOptions(logger *log.Logger) ([]bulk.Option, error) {
	mode, err := encoding.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	return []bulk.Option{
		bulk.WithMode(mode),
		bulk.WithUpsert(c.Upsert),
		bulk.WithVertexPartitionProperty(c.VertexPartitionProperty),
		bulk.WithLogger(logger),
	}, nil
}

// NewExecutor opens the container and builds an executor over it. Closing the
// executor closes the container.
func (c *Config) NewExecutor(logger *log.Logger) (*bulk.Executor, error) {
	opts, err := c.Import.ExecutorOptions(logger)
	if err != nil {
		return nil, err
	}

	container, err := c.Store.OpenContainer(logger)
	if err != nil {
		return nil, err
	}

	return bulk.NewExecutor(container, opts...), nil
}

func (p ProviderConfig) OIDC() (authnz.OIDCConfig, error) {
	config := authnz.OIDCConfig{
		URL:       p.URL,
		ClientID:  p.ClientID,
		UserClaim: p.UserClaim,
	}

	if config.UserClaim == "" {
		config.UserClaim = "sub"
	}

	if p.Keys == "" {
		return config, nil
	}

	data, err := ioutil.ReadFile(p.Keys)
	if err != nil {
		return config, err
	}

	var keySet jose.JSONWebKeySet
	if err := json.Unmarshal(data, &keySet); err != nil {
		return config, fmt.Errorf("keys in '%s': %v: %w", p.Keys, err, ErrInvalidConfig)
	}
	config.Keys = keySet.Keys

	return config, nil
}

func (c *Config) OIDCConfigs() ([]authnz.OIDCConfig, error) {
	configs := make([]authnz.OIDCConfig, len(c.Providers))

	for idx, provider := range c.Providers {
		config, err := provider.OIDC()
		if err != nil {
			return nil, err
		}
		configs[idx] = config
	}

	return configs, nil
}
