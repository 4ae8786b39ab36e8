package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. RETAIL_PATHS_INPUT.
const EnvPrefix = "RETAIL"

type Config struct {
	Paths    PathsConfig    `envconfig:"PATHS"`
	Report   ReportConfig   `envconfig:"REPORT"`
	Logger   LoggerConfig   `envconfig:"LOG"`
	Server   ServerConfig   `envconfig:"SERVER"`
	Security SecurityConfig `envconfig:"SECURITY"`
}

// PathsConfig holds the fixed artifact locations of a run.
type PathsConfig struct {
	Input      string `envconfig:"INPUT" default:"data/Online_Retail.csv" validate:"required"`
	CleanedCSV string `envconfig:"CLEANED_CSV" default:"data/cleaned_retail.csv" validate:"required"`
	FiguresDir string `envconfig:"FIGURES_DIR" default:"output/figures" validate:"required"`
	Workbook   string `envconfig:"WORKBOOK" default:"output/retail_metrics.xlsx" validate:"required"`
}

type ReportConfig struct {
	TopProducts       int           `envconfig:"TOP_PRODUCTS" default:"10" validate:"min=1"`
	HistogramBins     int           `envconfig:"HISTOGRAM_BINS" default:"30" validate:"min=1"`
	Quantiles         int           `envconfig:"QUANTILES" default:"5" validate:"min=2,max=9"`
	TopShare          float64       `envconfig:"TOP_SHARE" default:"0.2" validate:"gt=0,lte=1"`
	CompletenessMonth int           `envconfig:"COMPLETENESS_MONTH" default:"12" validate:"min=1,max=12"`
	LoadTimeout       time.Duration `envconfig:"LOAD_TIMEOUT" default:"5m" validate:"gt=0"`
}

type LoggerConfig struct {
	Level  string `envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"text" validate:"oneof=json text"`
}

type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"8084" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s" validate:"gt=0"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s" validate:"gt=0"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRPS    int      `envconfig:"RATE_LIMIT_RPS" default:"100" validate:"gt=0"`
	RateLimitBurst  int      `envconfig:"RATE_LIMIT_BURST" default:"10" validate:"gt=0"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8084"`
	TrustedProxies  []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1"`
}

// Load reads the configuration from the environment. With no variables set
// it returns the defaults above.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v.Struct(c)
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
