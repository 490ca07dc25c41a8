package config

import (
	"fmt"
	"os"
	"time"

	"github.com/nappernick/mcp-wrapper/pkg/cache"
	cachememory "github.com/nappernick/mcp-wrapper/pkg/cache/memory"
	cacheredis "github.com/nappernick/mcp-wrapper/pkg/cache/redis"
	"github.com/nappernick/mcp-wrapper/pkg/chain/agent"
	"github.com/nappernick/mcp-wrapper/pkg/provider"
	"github.com/nappernick/mcp-wrapper/pkg/tool"
	toolresource "github.com/nappernick/mcp-wrapper/pkg/tool/resource"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	Completer provider.Completer

	Tools []tool.Provider

	Cache cache.Provider

	Resources *toolresource.Provider

	MaxRounds int
}

type configFile struct {
	Address string `yaml:"address"`

	Provider providerConfig `yaml:"provider"`

	Cache cacheConfig `yaml:"cache"`

	Tools toolsConfig `yaml:"tools"`

	MaxRounds int `yaml:"max_rounds"`
}

type providerConfig struct {
	Type  string `yaml:"type"`
	Token string `yaml:"token"`
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

type cacheConfig struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
	TTL  string `yaml:"ttl"`
}

type toolsConfig struct {
	Resources bool `yaml:"resources"`
}

func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	var file configFile

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, err
	}

	c := &Config{
		Address: ":8080",

		MaxRounds: agent.DefaultMaxRounds,
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if file.MaxRounds > 0 {
		c.MaxRounds = file.MaxRounds
	}

	completer, err := NewCompleter(provider.Provider(file.Provider.Type), file.Provider.Token,
		WithModel(file.Provider.Model),
		WithURL(file.Provider.URL),
	)

	if err != nil {
		return nil, err
	}

	c.Completer = completer

	if err := c.registerCache(file.Cache); err != nil {
		return nil, err
	}

	c.registerTools(file.Tools)

	return c, nil
}

func (c *Config) registerCache(cfg cacheConfig) error {
	var ttl time.Duration

	if cfg.TTL != "" {
		val, err := time.ParseDuration(cfg.TTL)

		if err != nil {
			return fmt.Errorf("invalid cache ttl %q: %w", cfg.TTL, err)
		}

		ttl = val
	}

	switch cfg.Type {
	case "", "none":
		return nil

	case "memory":
		c.Cache = cachememory.New(ttl)
		return nil

	case "redis":
		p, err := cacheredis.New(cfg.URL, ttl)

		if err != nil {
			return err
		}

		c.Cache = p
		return nil

	default:
		return fmt.Errorf("unsupported cache type %q", cfg.Type)
	}
}

func (c *Config) registerTools(cfg toolsConfig) {
	if !cfg.Resources {
		return
	}

	var options []toolresource.Option

	if c.Cache != nil {
		options = append(options, toolresource.WithCache(c.Cache))
	}

	c.Resources = toolresource.New(options...)
	c.Tools = append(c.Tools, c.Resources)
}
