package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Enrich  EnrichConfig  `yaml:"enrich" mapstructure:"enrich"`
	AI      AIConfig      `yaml:"ai" mapstructure:"ai"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the shared result cache. An empty RedisURL
// selects the in-memory backend.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// SearchConfig configures the web search client.
type SearchConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	MaxResults     int     `yaml:"max_results" mapstructure:"max_results"`
	Retries        int     `yaml:"retries" mapstructure:"retries"`
	BaseDelaySecs  float64 `yaml:"base_delay_secs" mapstructure:"base_delay_secs"`
	DelayIncrement float64 `yaml:"delay_increment_secs" mapstructure:"delay_increment_secs"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnrichConfig configures the People Data Labs enrichment provider.
type EnrichConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AIConfig configures the AI provider adapter.
type AIConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	HaikuModel    string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel   string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	OpusModel     string `yaml:"opus_model" mapstructure:"opus_model"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ScoringConfig holds the trust score weights and match thresholds.
type ScoringConfig struct {
	RegistryWeight int `yaml:"registry_weight" mapstructure:"registry_weight"`
	EmailWeight    int `yaml:"email_weight" mapstructure:"email_weight"`
	HRWeight       int `yaml:"hr_weight" mapstructure:"hr_weight"`
	OptionalWeight int `yaml:"optional_weight" mapstructure:"optional_weight"`

	VerifiedThreshold float64 `yaml:"verified_threshold" mapstructure:"verified_threshold"`
	ApprovalThreshold float64 `yaml:"approval_threshold" mapstructure:"approval_threshold"`
	ReviewThreshold   float64 `yaml:"review_threshold" mapstructure:"review_threshold"`

	NameMatchThreshold         int     `yaml:"name_match_threshold" mapstructure:"name_match_threshold"`
	StrictIDNameThreshold      int     `yaml:"strict_id_name_threshold" mapstructure:"strict_id_name_threshold"`
	AssociationEntityThreshold int     `yaml:"association_entity_threshold" mapstructure:"association_entity_threshold"`
	AssociationPairThreshold   float64 `yaml:"association_pair_threshold" mapstructure:"association_pair_threshold"`
	OwnershipThreshold         int     `yaml:"ownership_threshold" mapstructure:"ownership_threshold"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	XLSXPath string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LEGIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "legitimacy.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.base_url", "https://html.duckduckgo.com/html/")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.retries", 3)
	v.SetDefault("search.base_delay_secs", 2)
	v.SetDefault("search.delay_increment_secs", 1.5)
	v.SetDefault("search.rate_per_sec", 0.5)
	v.SetDefault("search.timeout_secs", 20)
	v.SetDefault("enrich.base_url", "https://api.peopledatalabs.com")
	v.SetDefault("ai.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("ai.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ai.opus_model", "claude-opus-4-6")
	v.SetDefault("ai.timeout_secs", 15)
	v.SetDefault("ai.cache_ttl_hours", 24)
	v.SetDefault("scoring.registry_weight", 40)
	v.SetDefault("scoring.email_weight", 10)
	v.SetDefault("scoring.hr_weight", 15)
	v.SetDefault("scoring.optional_weight", 10)
	v.SetDefault("scoring.verified_threshold", 60)
	v.SetDefault("scoring.approval_threshold", 70)
	v.SetDefault("scoring.review_threshold", 40)
	v.SetDefault("scoring.name_match_threshold", 70)
	v.SetDefault("scoring.strict_id_name_threshold", 60)
	v.SetDefault("scoring.association_entity_threshold", 80)
	v.SetDefault("scoring.association_pair_threshold", 75)
	v.SetDefault("scoring.ownership_threshold", 70)
	v.SetDefault("report.dir", "reports")
	v.SetDefault("report.xlsx_path", "verification_log.xlsx")

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

// CollectAIKeys returns the configured API key pool: the primary key from
// cfg plus any LEGIT_AI_KEY_2 .. LEGIT_AI_KEY_16 environment slots, in
// order, with empties skipped.
func CollectAIKeys(cfg AIConfig) []string {
	var keys []string
	if cfg.Key != "" {
		keys = append(keys, cfg.Key)
	}
	for i := 2; i <= 16; i++ {
		if k := os.Getenv(fmt.Sprintf("LEGIT_AI_KEY_%d", i)); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
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
