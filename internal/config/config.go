// Package config handles configuration loading for futuresagent.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// FUTURESAGENT_REPORT_DIR.
const EnvPrefix = "FUTURESAGENT"

// Config represents the complete application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	Search  SearchConfig  `mapstructure:"search"  yaml:"search"`
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	Report  ReportConfig  `mapstructure:"report"  yaml:"report"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	Watch   WatchConfig   `mapstructure:"watch"   yaml:"watch"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig holds chat model settings.
type LLMConfig struct {
	APIKey        string  `mapstructure:"api_key"        yaml:"api_key"`
	BaseURL       string  `mapstructure:"base_url"       yaml:"base_url"`
	Model         string  `mapstructure:"model"          yaml:"model"`
	Temperature   float64 `mapstructure:"temperature"    yaml:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"     yaml:"max_tokens"`
	TimeoutSec    int     `mapstructure:"timeout_sec"    yaml:"timeout_sec"`
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations"` // tool loop rounds per agent
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	ZhipuKey   string `mapstructure:"zhipu_key"   yaml:"zhipu_key"`
	ZhipuURL   string `mapstructure:"zhipu_url"   yaml:"zhipu_url"`
	Engine     string `mapstructure:"engine"      yaml:"engine"`  // search_std, search_pro ...
	Recency    string `mapstructure:"recency"     yaml:"recency"` // oneDay, oneWeek, oneMonth, oneYear, noLimit
	MaxResults int    `mapstructure:"max_results" yaml:"max_results"`
	RSSURL     string `mapstructure:"rss_url"     yaml:"rss_url"` // fallback when no Zhipu key
}

// MarketConfig holds market data settings.
type MarketConfig struct {
	Lookback    int    `mapstructure:"lookback"     yaml:"lookback"`  // daily sessions
	CacheTTL    int    `mapstructure:"cache_ttl"    yaml:"cache_ttl"` // seconds, API paths only
	CatalogFile string `mapstructure:"catalog_file" yaml:"catalog_file"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Dir   string `mapstructure:"dir"   yaml:"dir"`
	Split bool   `mapstructure:"split" yaml:"split"` // also write per-block files
	HTML  bool   `mapstructure:"html"  yaml:"html"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// HistoryConfig holds the run archive settings. An empty Path disables it.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// WatchConfig holds scheduled report settings.
type WatchConfig struct {
	Cron    string   `mapstructure:"cron"    yaml:"cron"`
	Symbols []string `mapstructure:"symbols" yaml:"symbols"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./futuresagent.yaml
//  2. ~/.futuresagent/futuresagent.yaml
//  3. /etc/futuresagent/futuresagent.yaml
//
// Environment variables override config file values.
// Format: FUTURESAGENT_<SECTION>_<KEY>, e.g., FUTURESAGENT_REPORT_DIR.
// The API keys are also read from DEEPSEEK_API_KEY and ZHIPU_API_KEY,
// either in the environment or in a .env file in the working directory.
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("futuresagent")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(homeDir(), ".futuresagent"))
	v.AddConfigPath("/etc/futuresagent")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := applyDotEnv(&cfg, DotEnvFile); err != nil {
		return nil, err
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// DotEnvFile is the optional KEY=VALUE file holding the API keys.
var DotEnvFile = ".env"

// applyDotEnv fills the API keys from a .env file. A missing file is not
// an error; keys set in the process environment still take precedence.
func applyDotEnv(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	if key := v.GetString(EnvDeepSeekKey); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := v.GetString(EnvZhipuKey); key != "" {
		cfg.Search.ZhipuKey = key
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.deepseek.com")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout_sec", 180)
	v.SetDefault("llm.max_iterations", 5)

	// Search defaults
	v.SetDefault("search.zhipu_url", "https://open.bigmodel.cn/api/paas/v4/web_search")
	v.SetDefault("search.engine", "search_std")
	v.SetDefault("search.recency", "oneWeek")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.rss_url", "https://news.google.com/rss/search?hl=zh-CN&gl=CN&ceid=CN:zh-Hans&q=%s")

	// Market defaults
	v.SetDefault("market.lookback", 30)
	v.SetDefault("market.cache_ttl", 60)

	// Report defaults
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.split", false)
	v.SetDefault("report.html", false)

	// API defaults
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// History defaults
	v.SetDefault("history.path", filepath.Join(homeDir(), ".futuresagent", "history.db"))

	// Watch defaults: 15:30 on weekdays, after the day session closes.
	v.SetDefault("watch.cron", "0 30 15 * * 1-5")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads the API keys from the environment.
// The bare provider variables win over the prefixed ones.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv(EnvDeepSeekKey); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv(EnvPrefix + "_SEARCH_ZHIPU_KEY"); key != "" {
		cfg.Search.ZhipuKey = key
	}
	if key := os.Getenv(EnvZhipuKey); key != "" {
		cfg.Search.ZhipuKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
