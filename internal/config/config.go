package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Storage backends for the historical reference data.
const (
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Cron    CronConfig    `mapstructure:"cron"`
	Market  MarketConfig  `mapstructure:"market"`
	Reports ReportsConfig `mapstructure:"reports"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Storage StorageConfig `mapstructure:"storage"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	WSPingInterval  time.Duration `mapstructure:"ws_ping_interval"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Refresh string `mapstructure:"refresh"`
}

// MarketConfig describes the market's clock and the merge policy.
// SourceTimezone is the zone the short-term renewable timestamps are published in.
type MarketConfig struct {
	Timezone       string `mapstructure:"timezone"`
	SourceTimezone string `mapstructure:"source_timezone"`
	NullPolicy     string `mapstructure:"null_policy"`
}

type ReportsConfig struct {
	ActualForecastURL   string   `mapstructure:"actual_forecast_url"`
	CapabilityURL       string   `mapstructure:"capability_url"`
	SupplyDemandURL     string   `mapstructure:"supply_demand_url"`
	WindURL             string   `mapstructure:"wind_url"`
	SolarURL            string   `mapstructure:"solar_url"`
	CapabilityMarker    string   `mapstructure:"capability_marker"`
	CapabilityLookahead int      `mapstructure:"capability_lookahead"`
	SupplyLabels        []string `mapstructure:"supply_labels"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type StorageConfig struct {
	Backend          string        `mapstructure:"backend"`
	PostgresDSN      string        `mapstructure:"postgres_dsn"`
	PostgresMaxConns int32         `mapstructure:"postgres_max_conns"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	ClickhouseDSN    string        `mapstructure:"clickhouse_dsn"`
	ReferenceCSV     string        `mapstructure:"reference_csv"`
}

// Location loads the market timezone.
func (m MarketConfig) Location() (*time.Location, error) {
	return loadLocation(m.Timezone)
}

// SourceLocation loads the renewable report timezone, defaulting to the market zone.
func (m MarketConfig) SourceLocation() (*time.Location, error) {
	if m.SourceTimezone == "" {
		return m.Location()
	}
	return loadLocation(m.SourceTimezone)
}

func loadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for postgres backend"))
		}
	case BackendClickhouse:
		if c.Storage.ClickhouseDSN == "" {
			errs = append(errs, errors.New("storage.clickhouse_dsn is required for clickhouse backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of memory, postgres, clickhouse", c.Storage.Backend))
	}

	if _, err := c.Market.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Market.SourceLocation(); err != nil {
		errs = append(errs, err)
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if c.Fetch.MaxRetries < 0 {
		errs = append(errs, errors.New("fetch.max_retries must not be negative"))
	}

	return errors.Join(errs...)
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PML")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.ws_ping_interval", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.refresh", "0 */5 * * * *")

	v.SetDefault("market.timezone", "America/Edmonton")
	v.SetDefault("market.source_timezone", "")
	v.SetDefault("market.null_policy", "retain")

	v.SetDefault("reports.actual_forecast_url", "http://ets.aeso.ca/ets_web/ip/Market/Reports/ActualForecastWMRQHReportServlet?contentType=csv")
	v.SetDefault("reports.capability_url", "http://ets.aeso.ca/ets_web/ip/Market/Reports/SevenDaysHourlyAvailableCapabilityReportServlet?contentType=html")
	v.SetDefault("reports.supply_demand_url", "http://ets.aeso.ca/ets_web/ip/Market/Reports/CSDReportServlet")
	v.SetDefault("reports.wind_url", "http://ets.aeso.ca/Market/Reports/Manual/Operations/prodweb_reports/wind_solar_forecast/wind_rpt_shortterm.csv")
	v.SetDefault("reports.solar_url", "http://ets.aeso.ca/Market/Reports/Manual/Operations/prodweb_reports/wind_solar_forecast/solar_rpt_shortterm.csv")
	v.SetDefault("reports.capability_marker", "Hour Ending")
	v.SetDefault("reports.capability_lookahead", 3)
	v.SetDefault("reports.supply_labels", []string{
		"Net Actual Interchange",
		"British Columbia",
		"Montana",
		"Saskatchewan",
		"Alberta Internal Load (AIL)",
	})

	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_delay", "500ms")
	v.SetDefault("fetch.max_delay", "10s")
	v.SetDefault("fetch.user_agent", "power-market-lab/1.0")
	v.SetDefault("fetch.max_body_bytes", 8<<20)

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.postgres_max_conns", 4)
	v.SetDefault("storage.connect_timeout", "10s")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.reference_csv", "")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}
