package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sichef/sichef/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Apify     ApifyConfig     `yaml:"apify" mapstructure:"apify"`
	TikTok    TikTokConfig    `yaml:"tiktok" mapstructure:"tiktok"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Nominatim NominatimConfig `yaml:"nominatim" mapstructure:"nominatim"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ApifyConfig holds the managed scraping provider settings.
type ApifyConfig struct {
	Token              string `yaml:"token" mapstructure:"token"`
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	TikTokProfileActor string `yaml:"tiktok_profile_actor" mapstructure:"tiktok_profile_actor"`
	TikTokVideoActor   string `yaml:"tiktok_video_actor" mapstructure:"tiktok_video_actor"`
	InstagramProfile   string `yaml:"instagram_profile_actor" mapstructure:"instagram_profile_actor"`
	InstagramPost      string `yaml:"instagram_post_actor" mapstructure:"instagram_post_actor"`
	PollIntervalMs     int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollCapMs          int    `yaml:"poll_cap_ms" mapstructure:"poll_cap_ms"`
	PollTimeoutSecs    int    `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
}

// TikTokConfig configures the direct scrape path.
type TikTokConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxAttempts  int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelayMs int    `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// OpenAIConfig holds speech-to-text settings.
type OpenAIConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	PrimaryModel  string `yaml:"primary_model" mapstructure:"primary_model"`
	FallbackModel string `yaml:"fallback_model" mapstructure:"fallback_model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GoogleConfig holds Google Places API credentials.
type GoogleConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// NominatimConfig configures the free geocoding provider.
type NominatimConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
}

// GeocodeConfig selects the geocoding provider.
type GeocodeConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// RedisConfig configures the optional geocode cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// StoreConfig configures the dataset backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PipelineConfig configures the scrape pipeline.
type PipelineConfig struct {
	DefaultLimit   int `yaml:"default_limit" mapstructure:"default_limit"`
	MaxLimit       int `yaml:"max_limit" mapstructure:"max_limit"`
	TimeoutSecs    int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRestaurants int `yaml:"max_restaurants" mapstructure:"max_restaurants"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SICHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credentials get empty defaults so AutomaticEnv can bind them.
	for _, key := range []string{"apify.token", "openai.key", "anthropic.key", "google.key", "redis.addr", "redis.password"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.tiktok_profile_actor", "0FXVyOXXEmdGcV88a")
	v.SetDefault("apify.tiktok_video_actor", "clockworks~tiktok-video-scraper")
	v.SetDefault("apify.instagram_profile_actor", "apify~instagram-profile-scraper")
	v.SetDefault("apify.instagram_post_actor", "apify~instagram-scraper")
	v.SetDefault("apify.poll_interval_ms", 2000)
	v.SetDefault("apify.poll_cap_ms", 10000)
	v.SetDefault("apify.poll_timeout_secs", 240)
	v.SetDefault("tiktok.base_url", "https://www.tiktok.com")
	v.SetDefault("tiktok.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("tiktok.max_attempts", 3)
	v.SetDefault("tiktok.retry_delay_ms", 1500)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.primary_model", "gpt-4o-transcribe")
	v.SetDefault("openai.fallback_model", "whisper-1")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "SiChefApp/1.0 (contact@sichef.com)")
	v.SetDefault("nominatim.rps", 1.0)
	v.SetDefault("geocode.provider", "google")
	v.SetDefault("geocode.cache_ttl_hours", 24*30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sichef.db")
	v.SetDefault("pipeline.default_limit", 10)
	v.SetDefault("pipeline.max_limit", 200)
	v.SetDefault("pipeline.timeout_secs", 300)
	v.SetDefault("pipeline.max_restaurants", 15)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings a command mode depends on are present.
// Missing credentials wrap model.ErrNotConfigured.
func (c *Config) Validate(mode string) error {
	var missing, invalid []string

	switch mode {
	case "scrape":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Pipeline.MaxLimit < 1 {
			invalid = append(invalid, "pipeline.max_limit must be > 0")
		}
		if c.Pipeline.TimeoutSecs < 1 {
			invalid = append(invalid, "pipeline.timeout_secs must be > 0")
		}
	case "profile":
		if c.Apify.Token == "" {
			missing = append(missing, "apify.token is required")
		}
	case "geocode":
		switch c.Geocode.Provider {
		case "google":
			if c.Google.Key == "" {
				missing = append(missing, "google.key is required for geocode.provider=google")
			}
		case "nominatim":
			if c.Nominatim.RPS <= 0 {
				invalid = append(invalid, "nominatim.rps must be > 0")
			}
		default:
			invalid = append(invalid, "geocode.provider must be google or nominatim")
		}
	case "serve":
		if c.Server.Port <= 0 {
			invalid = append(invalid, "server.port must be > 0")
		}
	case "store":
		if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
			invalid = append(invalid, "store.driver must be sqlite or postgres")
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(invalid) > 0 {
		return eris.Errorf("config: %s", strings.Join(append(invalid, missing...), "; "))
	}
	if len(missing) > 0 {
		return eris.Wrapf(model.ErrNotConfigured, "config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
