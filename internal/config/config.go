package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cycle     CycleConfig     `mapstructure:"cycle"`
	Market    MarketConfig    `mapstructure:"market"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Email     EmailConfig     `mapstructure:"email"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr     string `mapstructure:"http_addr"`
	DashboardDir string `mapstructure:"dashboard_dir"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CycleConfig controls when the daily trading cycle fires. Spec is a
// standard five-field cron expression evaluated in the host timezone.
type CycleConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Spec       string `mapstructure:"spec"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type MarketConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PortfolioConfig struct {
	Tickers             []string `mapstructure:"tickers"`
	InitialCapital      float64  `mapstructure:"initial_capital"`
	AllocationPerTicker float64  `mapstructure:"allocation_per_ticker"`
	RiskFreeRate        float64  `mapstructure:"risk_free_rate"`
	PositionSizePct     float64  `mapstructure:"position_size_pct"`
	MaxTotalPositions   int      `mapstructure:"max_total_positions"`
	MaxPerTicker        int      `mapstructure:"max_per_ticker"`
}

type ScannerConfig struct {
	TargetDTE    int     `mapstructure:"target_dte"`
	MinMoneyness float64 `mapstructure:"min_moneyness"`
	MaxMoneyness float64 `mapstructure:"max_moneyness"`
	MinVolume    int     `mapstructure:"min_volume"`
	MinBid       float64 `mapstructure:"min_bid"`
	MinIVEdge    float64 `mapstructure:"min_iv_edge"`
	MinPriceEdge float64 `mapstructure:"min_price_edge"`
	HVWindow     int     `mapstructure:"hv_window"`
}

type EmailConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	SMTPHost       string   `mapstructure:"smtp_host"`
	SMTPPort       int      `mapstructure:"smtp_port"`
	Sender         string   `mapstructure:"sender"`
	Password       string   `mapstructure:"password"`
	Recipients     []string `mapstructure:"recipients"`
	SendOnNoTrades bool     `mapstructure:"send_on_no_trades"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.dashboard_dir", "web")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	// Weekdays at 09:35 ET, shortly after the US equity open.
	v.SetDefault("cycle.enabled", true)
	v.SetDefault("cycle.spec", "35 9 * * 1-5")
	v.SetDefault("cycle.run_on_start", false)
	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.timeout", "15s")
	v.SetDefault("portfolio.tickers", []string{"SPY", "VOO", "VTI", "QQQ"})
	v.SetDefault("portfolio.initial_capital", 1000.0)
	v.SetDefault("portfolio.allocation_per_ticker", 250.0)
	v.SetDefault("portfolio.risk_free_rate", 0.045)
	v.SetDefault("portfolio.position_size_pct", 0.02)
	v.SetDefault("portfolio.max_total_positions", 4)
	v.SetDefault("portfolio.max_per_ticker", 1)
	v.SetDefault("scanner.target_dte", 30)
	v.SetDefault("scanner.min_moneyness", 1.05)
	v.SetDefault("scanner.max_moneyness", 1.15)
	v.SetDefault("scanner.min_volume", 10)
	v.SetDefault("scanner.min_bid", 0.10)
	v.SetDefault("scanner.min_iv_edge", 0.03)
	v.SetDefault("scanner.min_price_edge", 0.05)
	v.SetDefault("scanner.hv_window", 30)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.send_on_no_trades", false)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Portfolio.Tickers) == 0 {
		return fmt.Errorf("config: portfolio.tickers must not be empty")
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("config: portfolio.initial_capital must be positive")
	}
	if c.Scanner.MinMoneyness > c.Scanner.MaxMoneyness {
		return fmt.Errorf("config: scanner moneyness band is empty (min %.2f > max %.2f)",
			c.Scanner.MinMoneyness, c.Scanner.MaxMoneyness)
	}
	return nil
}
