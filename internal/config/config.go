// Package config loads settings from config.yaml and FACILITIES_* environment
// variables, and sets up the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the upstream pages and files.
type SourcesConfig struct {
	ICEBaseURL      string `yaml:"ice_base_url" mapstructure:"ice_base_url"`
	SheetPageURL    string `yaml:"sheet_page_url" mapstructure:"sheet_page_url"`
	FacilitiesURL   string `yaml:"facilities_url" mapstructure:"facilities_url"`
	FieldOfficesURL string `yaml:"field_offices_url" mapstructure:"field_offices_url"`
	VeraURL         string `yaml:"vera_url" mapstructure:"vera_url"`
	PageDelayMS     int    `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	// SheetFiscalYear pins the workbook edition (two digits, 0 = newest).
	SheetFiscalYear int `yaml:"sheet_fiscal_year" mapstructure:"sheet_fiscal_year"`
}

// PageDelay returns the inter-page delay.
func (c SourcesConfig) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMS) * time.Millisecond
}

// FetchConfig configures the shared HTTP client.
type FetchConfig struct {
	UserAgent      string     `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int        `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int        `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffMS int        `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	HostRates      []HostRate `yaml:"host_rates" mapstructure:"host_rates"`
}

// HostRate caps requests per second to one host.
type HostRate struct {
	Host string  `yaml:"host" mapstructure:"host"`
	RPS  float64 `yaml:"rps" mapstructure:"rps"`
}

// ReconcileConfig tunes record matching.
type ReconcileConfig struct {
	FuzzyThreshold int `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
}

// EnrichConfig configures the enrichment lookups.
type EnrichConfig struct {
	Workers          int    `yaml:"workers" mapstructure:"workers"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	WikipediaURL     string `yaml:"wikipedia_url" mapstructure:"wikipedia_url"`
	WikidataURL      string `yaml:"wikidata_url" mapstructure:"wikidata_url"`
	NominatimURL     string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	OSMURL           string `yaml:"osm_url" mapstructure:"osm_url"`
	WikipediaDelayMS int    `yaml:"wikipedia_delay_ms" mapstructure:"wikipedia_delay_ms"`
	WikidataDelayMS  int    `yaml:"wikidata_delay_ms" mapstructure:"wikidata_delay_ms"`
	NominatimDelayMS int    `yaml:"nominatim_delay_ms" mapstructure:"nominatim_delay_ms"`
}

// OutputConfig names the export files.
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Filename string `yaml:"filename" mapstructure:"filename"`
	FileType string `yaml:"file_type" mapstructure:"file_type"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	MaxConns int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the read-only API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("FACILITIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.ice_base_url", "https://www.ice.gov")
	v.SetDefault("sources.sheet_page_url", "https://www.ice.gov/detain/detention-management")
	v.SetDefault("sources.facilities_url", "https://www.ice.gov/detention-facilities")
	v.SetDefault("sources.field_offices_url", "https://www.ice.gov/contact/field-offices")
	v.SetDefault("sources.vera_url", "https://raw.githubusercontent.com/vera-institute/ice-detention-trends/refs/heads/main/metadata/facilities.csv")
	v.SetDefault("sources.page_delay_ms", 1000)
	v.SetDefault("sources.sheet_fiscal_year", 0)
	v.SetDefault("fetch.user_agent", "detention-cli/1.0 (+https://github.com/facility-watch/detention-cli)")
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_backoff_ms", 1000)
	v.SetDefault("reconcile.fuzzy_threshold", 80)
	v.SetDefault("enrich.workers", 3)
	v.SetDefault("enrich.timeout_secs", 15)
	v.SetDefault("enrich.wikipedia_url", "https://en.wikipedia.org")
	v.SetDefault("enrich.wikidata_url", "https://www.wikidata.org")
	v.SetDefault("enrich.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("enrich.osm_url", "https://www.openstreetmap.org")
	v.SetDefault("enrich.wikipedia_delay_ms", 500)
	v.SetDefault("enrich.wikidata_delay_ms", 500)
	v.SetDefault("enrich.nominatim_delay_ms", 1000)
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.filename", "ice_detention_facilities")
	v.SetDefault("output.file_type", "csv")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
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
