package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/claude/wodscribe/internal/parse"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Parser    ParserConfig    `yaml:"parser"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// LogConfig selects the log handler. Format is "text" or "json"; Level is
// debug, info, warn, or error.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// ParserConfig tunes the parsing pipeline. Zero values keep the parser
// defaults.
type ParserConfig struct {
	MaxInputChars int    `yaml:"max_input_chars"`
	TitleMax      int    `yaml:"title_max"`
	Grouping      string `yaml:"grouping"`
	LexiconPath   string `yaml:"lexicon_path"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// NewParser builds a parser from the lexicon file (or the embedded default)
// and the configured limits.
func (p ParserConfig) NewParser() (*parse.Parser, error) {
	lex, err := parse.DefaultLexicon()
	if p.LexiconPath != "" {
		lex, err = parse.LoadLexiconFile(p.LexiconPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading lexicon: %w", err)
	}
	grouping, err := parse.ParseGroupingPolicy(p.Grouping)
	if err != nil {
		return nil, err
	}
	opts := []parse.Option{parse.WithGrouping(grouping)}
	if p.MaxInputChars > 0 {
		opts = append(opts, parse.WithMaxInput(p.MaxInputChars))
	}
	if p.TitleMax > 0 {
		opts = append(opts, parse.WithTitleMax(p.TitleMax))
	}
	return parse.New(lex, opts...), nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix WODSCRIBE_ and underscore-separated paths:
//
//	WODSCRIBE_SERVER_HOST, WODSCRIBE_SERVER_PORT,
//	WODSCRIBE_DB_HOST, WODSCRIBE_DB_PORT, WODSCRIBE_DB_NAME,
//	WODSCRIBE_DB_USER, WODSCRIBE_DB_PASSWORD, WODSCRIBE_DB_SSLMODE,
//	WODSCRIBE_LOG_FORMAT, WODSCRIBE_LOG_LEVEL,
//	WODSCRIBE_PARSER_MAX_INPUT_CHARS, WODSCRIBE_PARSER_GROUPING,
//	WODSCRIBE_PARSER_LEXICON_PATH,
//	WODSCRIBE_TAILSCALE_ENABLED, WODSCRIBE_TAILSCALE_HOSTNAME
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "WODSCRIBE_SERVER_HOST")
	setInt(&cfg.Server.Port, "WODSCRIBE_SERVER_PORT")
	setString(&cfg.Database.Host, "WODSCRIBE_DB_HOST")
	setInt(&cfg.Database.Port, "WODSCRIBE_DB_PORT")
	setString(&cfg.Database.Name, "WODSCRIBE_DB_NAME")
	setString(&cfg.Database.User, "WODSCRIBE_DB_USER")
	setString(&cfg.Database.Password, "WODSCRIBE_DB_PASSWORD")
	setString(&cfg.Database.SSLMode, "WODSCRIBE_DB_SSLMODE")
	setInt(&cfg.Database.MaxConns, "WODSCRIBE_DB_MAX_CONNS")
	setString(&cfg.Log.Format, "WODSCRIBE_LOG_FORMAT")
	setString(&cfg.Log.Level, "WODSCRIBE_LOG_LEVEL")
	setInt(&cfg.Parser.MaxInputChars, "WODSCRIBE_PARSER_MAX_INPUT_CHARS")
	setString(&cfg.Parser.Grouping, "WODSCRIBE_PARSER_GROUPING")
	setString(&cfg.Parser.LexiconPath, "WODSCRIBE_PARSER_LEXICON_PATH")
	setString(&cfg.Tailscale.Hostname, "WODSCRIBE_TAILSCALE_HOSTNAME")
	if v := os.Getenv("WODSCRIBE_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Parser.MaxInputChars < 0 {
		return fmt.Errorf("parser.max_input_chars must not be negative")
	}
	if _, err := parse.ParseGroupingPolicy(c.Parser.Grouping); err != nil {
		return fmt.Errorf("parser.grouping: %w", err)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
