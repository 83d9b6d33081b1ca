package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"backsim/internal/engine"
	"backsim/internal/log"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "backsim"
	dateLayout        = "2006-01-02"
)

// Config is the application configuration loaded from YAML plus
// environment overrides.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Results  ResultsConfig  `mapstructure:"results"`
	Logging  log.Config     `mapstructure:"logging"`
	Backtest BacktestConfig `mapstructure:"backtest"`
}

// DatabaseConfig points at the point-in-time price store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ResultsConfig points at the local result archive.
type ResultsConfig struct {
	Path            string        `mapstructure:"path"`
	InMemory        bool          `mapstructure:"in_memory"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BacktestConfig carries the run parameters in file-friendly form.
type BacktestConfig struct {
	StrategyID             string             `mapstructure:"strategy_id"`
	StartDate              string             `mapstructure:"start_date"`
	EndDate                string             `mapstructure:"end_date"`
	InitialCapital         float64            `mapstructure:"initial_capital"`
	RebalanceFrequency     string             `mapstructure:"rebalance_frequency"`
	TransactionCostBps     float64            `mapstructure:"transaction_cost_bps"`
	SlippageBps            float64            `mapstructure:"slippage_bps"`
	MaxLeverage            float64            `mapstructure:"max_leverage"`
	WalkForward            bool               `mapstructure:"walk_forward"`
	WalkForwardTrainMonths int                `mapstructure:"walk_forward_train_months"`
	WalkForwardTestMonths  int                `mapstructure:"walk_forward_test_months"`
	FundingRate            float64            `mapstructure:"funding_rate"`
	PointInTime            bool               `mapstructure:"point_in_time"`
	UseCostModel           bool               `mapstructure:"use_cost_model"`
	Weights                map[string]float64 `mapstructure:"weights"`
	TradesCSVPath          string             `mapstructure:"trades_csv_path"`
	Progress               bool               `mapstructure:"progress"`
}

// Load reads the config file and merges environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file %q not found: %w", path, err)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "postgresql://localhost:5432/backsim")

	v.SetDefault("results.path", "data/backsim.db")
	v.SetDefault("results.in_memory", false)
	v.SetDefault("results.max_open_conns", 4)
	v.SetDefault("results.max_idle_conns", 4)
	v.SetDefault("results.conn_max_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("backtest.strategy_id", "fixed-weight")
	v.SetDefault("backtest.rebalance_frequency", "monthly")
	v.SetDefault("backtest.initial_capital", 1_000_000)
	v.SetDefault("backtest.transaction_cost_bps", 5.0)
	v.SetDefault("backtest.slippage_bps", 2.0)
	v.SetDefault("backtest.max_leverage", 1.0)
	v.SetDefault("backtest.walk_forward", false)
	v.SetDefault("backtest.walk_forward_train_months", 60)
	v.SetDefault("backtest.walk_forward_test_months", 12)
	v.SetDefault("backtest.funding_rate", 0.05)
	v.SetDefault("backtest.point_in_time", true)
	v.SetDefault("backtest.use_cost_model", false)
	v.SetDefault("backtest.progress", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate checks the parts not covered by engine.NewConfig.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if _, err := time.Parse(dateLayout, c.Backtest.StartDate); err != nil {
		return fmt.Errorf("backtest.start_date: %w", err)
	}
	if _, err := time.Parse(dateLayout, c.Backtest.EndDate); err != nil {
		return fmt.Errorf("backtest.end_date: %w", err)
	}
	if len(c.Backtest.Weights) == 0 {
		return errors.New("backtest.weights must name at least one instrument")
	}
	return nil
}

// EngineParams translates the file-friendly backtest section into the
// engine's immutable config parameters.
func (c *Config) EngineParams() (engine.ConfigParams, error) {
	start, err := time.Parse(dateLayout, c.Backtest.StartDate)
	if err != nil {
		return engine.ConfigParams{}, fmt.Errorf("backtest.start_date: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Backtest.EndDate)
	if err != nil {
		return engine.ConfigParams{}, fmt.Errorf("backtest.end_date: %w", err)
	}

	p := engine.DefaultParams(
		start, end,
		decimal.NewFromFloat(c.Backtest.InitialCapital),
		engine.Frequency(c.Backtest.RebalanceFrequency),
	)
	p.TransactionCostBps = c.Backtest.TransactionCostBps
	p.SlippageBps = c.Backtest.SlippageBps
	p.MaxLeverage = c.Backtest.MaxLeverage
	p.WalkForward = c.Backtest.WalkForward
	p.WalkForwardTrainMonths = c.Backtest.WalkForwardTrainMonths
	p.WalkForwardTestMonths = c.Backtest.WalkForwardTestMonths
	p.FundingRate = c.Backtest.FundingRate
	p.PointInTime = c.Backtest.PointInTime
	if c.Backtest.UseCostModel {
		p.CostModel = engine.DefaultCostModel()
	}
	return p, nil
}
