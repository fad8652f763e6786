package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/payroll-console/internal/api"
	"github.com/garyjia/payroll-console/internal/lark"
	"github.com/garyjia/payroll-console/pkg/database"
	"github.com/garyjia/payroll-console/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. PAYROLL_API_BASE_URL
const EnvPrefix = "PAYROLL"

// Config holds all application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Console  ConsoleConfig  `mapstructure:"console"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Export   ExportConfig   `mapstructure:"export"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// APIConfig points at the payroll REST API
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConsoleConfig tunes the view-state owner
type ConsoleConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // 0 falls back to the worker default
	Debounce        time.Duration `mapstructure:"debounce"`
	DegradedAfter   int           `mapstructure:"degraded_after"`
	HistorySize     int           `mapstructure:"history_size"`
}

// ServerConfig holds the local web console configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds local store configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ExportConfig holds export output configuration
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LarkConfig holds the optional chat notification sink
type LarkConfig struct {
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
	ChatID    string `mapstructure:"chat_id"`
	Prefix    string `mapstructure:"prefix"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file, dotenv files and the environment.
// An empty configPath skips the file. Dotenv files that do not exist are ignored; values
// already present in the environment win over dotenv values.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := gotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", api.DefaultBaseURL)
	v.SetDefault("api.timeout", api.DefaultTimeout)

	v.SetDefault("console.refresh_interval", 30*time.Second)
	v.SetDefault("console.debounce", 300*time.Millisecond)
	v.SetDefault("console.degraded_after", 3)
	v.SetDefault("console.history_size", 50)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "data/payroll-console.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	v.SetDefault("export.dir", "exports")

	v.SetDefault("lark.prefix", "payroll")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds the short names people tend to export by hand
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("api.base_url", EnvPrefix+"_API_BASE_URL", EnvPrefix+"_API_URL")
	_ = v.BindEnv("lark.app_id", EnvPrefix+"_LARK_APP_ID", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", EnvPrefix+"_LARK_APP_SECRET", "LARK_APP_SECRET")
	_ = v.BindEnv("lark.chat_id", EnvPrefix+"_LARK_CHAT_ID", "LARK_CHAT_ID")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if c.Console.RefreshInterval < 0 {
		return fmt.Errorf("console.refresh_interval must not be negative")
	}
	if c.Console.Debounce < 0 {
		return fmt.Errorf("console.debounce must not be negative")
	}
	if c.Console.DegradedAfter < 1 {
		return fmt.Errorf("console.degraded_after must be at least 1")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Export.Dir == "" {
		return fmt.Errorf("export.dir is required")
	}

	// Lark is optional, but half a configuration is a mistake
	if (c.Lark.AppID != "" || c.Lark.AppSecret != "" || c.Lark.ChatID != "") && !c.LarkClient().Enabled() {
		return fmt.Errorf("lark.app_id, lark.app_secret and lark.chat_id must be set together")
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}

	return nil
}

// APIClient returns the REST client settings
func (c *Config) APIClient() api.Config {
	return api.Config{BaseURL: c.API.BaseURL, Timeout: c.API.Timeout}
}

// DatabaseSettings returns the local store settings
func (c *Config) DatabaseSettings() database.Config {
	return database.Config{
		Path:            c.Database.Path,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// LarkClient returns the Lark sink settings
func (c *Config) LarkClient() lark.Config {
	return lark.Config{AppID: c.Lark.AppID, AppSecret: c.Lark.AppSecret, ChatID: c.Lark.ChatID}
}

// LoggerSettings returns the logger settings
func (c *Config) LoggerSettings() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
