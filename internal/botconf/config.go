package botconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the boot configuration of the bot process, read from
// conf/<env>/bot.yaml. Staff-editable runtime settings live in the data
// store instead.
type Config struct {
	Env           string              `yaml:"-"`
	Discord       DiscordConfig       `yaml:"discord"`
	Store         StoreConfig         `yaml:"store"`
	Admin         AdminConfig         `yaml:"admin"`
	Observability ObservabilityConfig `yaml:"observability"`
	Events        EventsConfig        `yaml:"events"`
	// RawPath records the loaded file path for diagnostics.
	RawPath string `yaml:"-"`
}

type DiscordConfig struct {
	Token string `yaml:"token"`
	AppID string `yaml:"app_id"`
	// GuildID registers commands to one guild; empty registers globally.
	GuildID string `yaml:"guild_id"`
	OwnerID string `yaml:"owner_id"`
	// AllowedGuilds gates product and ticket-new commands; empty allows all.
	AllowedGuilds    []string      `yaml:"allowed_guilds"`
	CommandTimeout   time.Duration `yaml:"command_timeout"`
	PlaceholderImage string        `yaml:"placeholder_image"`
}

type StoreConfig struct {
	Backend      string      `yaml:"backend"` // file | redis
	DataDir      string      `yaml:"data_dir"`
	SettingsFile string      `yaml:"settings_file"`
	Redis        RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type AdminConfig struct {
	Address string `yaml:"address"`
}

type ObservabilityConfig struct {
	Service     string `yaml:"service"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFileName string `yaml:"log_file_name"`
}

type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// KafkaEnabled reports whether events go to kafka.
func (e EventsConfig) KafkaEnabled() bool { return len(e.Brokers) > 0 && e.Topic != "" }

var (
	loaded    *Config
	loadOnce  sync.Once
	loadError error
)

// Load reads the boot config once. Precedence:
//  1. Explicit CONF_FILE (absolute or relative path)
//  2. conf/<GO_ENV>/bot.yaml, GO_ENV defaulting to test
//  3. conf/test/bot.yaml
//  4. defaults plus environment only, when DISCORD_TOKEN is set
func Load() (*Config, error) {
	loadOnce.Do(func() {
		loaded, loadError = loadInternal("conf")
	})
	return loaded, loadError
}

func loadInternal(root string) (*Config, error) {
	if explicit := os.Getenv("CONF_FILE"); explicit != "" {
		cfg, err := parseFile(explicit)
		if err != nil {
			return nil, fmt.Errorf("load explicit CONF_FILE failed: %w", err)
		}
		cfg.Env = envValue()
		cfg.RawPath = explicit
		postProcess(cfg)
		return cfg, nil
	}
	env := envValue()
	candidate := filepath.Join(root, env, "bot.yaml")
	if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
		fallback := filepath.Join(root, "test", "bot.yaml")
		if _, ferr := os.Stat(fallback); ferr == nil {
			candidate = fallback
			env = "test"
		} else if os.Getenv("DISCORD_TOKEN") != "" {
			cfg := &Config{Env: env}
			postProcess(cfg)
			return cfg, nil
		} else {
			return nil, fmt.Errorf("config file not found: %s (no fallback)", candidate)
		}
	}
	cfg, err := parseFile(candidate)
	if err != nil {
		return nil, err
	}
	cfg.Env = env
	cfg.RawPath = candidate
	postProcess(cfg)
	return cfg, nil
}

func envValue() string {
	if v := os.Getenv("GO_ENV"); v != "" {
		return v
	}
	return "test"
}

func parseFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// postProcess applies defaults and environment overrides.
func postProcess(c *Config) {
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("OWNER_ID"); v != "" {
		c.Discord.OwnerID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Observability.LogLevel = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v, ok := os.LookupEnv("ADMIN_ADDR"); ok {
		c.Admin.Address = v
	}
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		c.Observability.MetricsAddr = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Address = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.Redis.DB = n
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = splitList(v)
	}

	if c.Observability.Service == "" {
		c.Observability.Service = "storefront-bot"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Discord.CommandTimeout <= 0 {
		c.Discord.CommandTimeout = 10 * time.Second
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	c.Store.Backend = strings.ToLower(c.Store.Backend)
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	if c.Store.SettingsFile == "" {
		c.Store.SettingsFile = "config.json"
	}
	if c.Store.Redis.Address == "" {
		c.Store.Redis.Address = "127.0.0.1:6379"
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "storefront:"
	}
	if c.Events.Topic == "" && len(c.Events.Brokers) > 0 {
		c.Events.Topic = "storefront-events"
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("discord token is required (discord.token or DISCORD_TOKEN)")
	}
	switch c.Store.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
