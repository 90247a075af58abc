// Package config loads graphpage settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults
//  2. a TOML file ($XDG_CONFIG_HOME/graphpage/config.toml, or --config)
//  3. GRAPHPAGE_* environment variables, including those from a .env file
//     in the working directory
//  4. command-line flags, applied by the caller
//
// Example config.toml:
//
//	[pipeline]
//	engine = "exec"
//	layout_program = "dot"
//
//	[cache]
//	backend = "redis"
//
//	[cache.redis]
//	addr = "localhost:6379"
//	prefix = "graphpage:"
//
//	[s3]
//	endpoint = "localhost:9000"
//	access_key = "minio"
//	secret_key = "minio123"
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/graphpage/pkg/cache"
	"github.com/matzehuels/graphpage/pkg/errors"
	"github.com/matzehuels/graphpage/pkg/pipeline"
	"github.com/matzehuels/graphpage/pkg/render"
	"github.com/matzehuels/graphpage/pkg/sink"
)

const (
	// AppName names the config and cache directories.
	AppName = "graphpage"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GRAPHPAGE_"

	fileName = "config.toml"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 10 << 20
)

// Config is the merged configuration.
type Config struct {
	Pipeline pipeline.Options `toml:"pipeline"`
	Cache    Cache            `toml:"cache"`
	S3       sink.S3Config    `toml:"s3"`
	Server   Server           `toml:"server"`
}

// Cache selects and configures the layout cache.
type Cache struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// Server configures the serve command.
type Server struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Cache:  Cache{Backend: CacheFile},
		Server: Server{Addr: DefaultAddr, MaxBodyBytes: DefaultMaxBodyBytes},
	}
	cfg.Pipeline.SetDefaults()
	return cfg
}

// Load builds the configuration from defaults, the TOML file at path and the
// environment. An empty path means DefaultPath, which may be missing; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path, explicit); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overlays GRAPHPAGE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ENGINE":         &c.Pipeline.Engine,
		"LAYOUT_PROGRAM": &c.Pipeline.LayoutProgram,
		"TEMPLATE_DIR":   &c.Pipeline.TemplateDir,
		"CACHE_BACKEND":  &c.Cache.Backend,
		"CACHE_DIR":      &c.Cache.Dir,
		"REDIS_ADDR":     &c.Cache.Redis.Addr,
		"REDIS_PASSWORD": &c.Cache.Redis.Password,
		"REDIS_PREFIX":   &c.Cache.Redis.Prefix,
		"S3_ENDPOINT":    &c.S3.Endpoint,
		"S3_REGION":      &c.S3.Region,
		"S3_ACCESS_KEY":  &c.S3.AccessKey,
		"S3_SECRET_KEY":  &c.S3.SecretKey,
		"ADDR":           &c.Server.Addr,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sREDIS_DB", EnvPrefix)
		}
		c.Cache.Redis.DB = db
	}
	if v, ok := lookup(EnvPrefix + "S3_USE_SSL"); ok {
		ssl, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sS3_USE_SSL", EnvPrefix)
		}
		c.S3.UseSSL = ssl
	}
	if v, ok := lookup(EnvPrefix + "MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sMAX_BODY_BYTES", EnvPrefix)
		}
		c.Server.MaxBodyBytes = n
	}
	return nil
}

// Validate checks option values and fills defaults that depend on others.
func (c *Config) Validate() error {
	c.Pipeline.SetDefaults()
	switch c.Pipeline.Engine {
	case render.EngineExec, render.EngineGraphviz:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown layout engine %q (want %s or %s)",
			c.Pipeline.Engine, render.EngineExec, render.EngineGraphviz)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache backend redis requires cache.redis.addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/graphpage/config.toml, falling back to
// ~/.config.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, fileName), nil
}

// CacheDir returns the file cache directory: the configured one, else
// $XDG_CACHE_HOME/graphpage, else ~/.cache/graphpage.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
