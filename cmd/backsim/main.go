package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"backsim/internal/config"
	"backsim/internal/engine"
	"backsim/internal/log"
	"backsim/internal/repository"
	"backsim/internal/store"
	"backsim/strategies/fixedweight"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file path, defaults to configs/config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("backtest failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := repository.NewDatabase(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect price store: %w", err)
	}
	defer db.Close()

	archive, err := store.NewSQLite(cfg.Results)
	if err != nil {
		return fmt.Errorf("open result archive: %w", err)
	}
	defer func() {
		if closeErr := archive.Close(); closeErr != nil {
			logger.Warn("close result archive", zap.Error(closeErr))
		}
	}()

	params, err := cfg.EngineParams()
	if err != nil {
		return err
	}
	engineCfg, err := engine.NewConfig(params)
	if err != nil {
		return err
	}

	if cfg.Backtest.WalkForward {
		return runWalkForward(ctx, cfg, engineCfg, &db, archive, logger)
	}

	strat := fixedweight.New(cfg.Backtest.Weights)
	eng, err := engine.NewEngine(engineCfg, cfg.Backtest.StrategyID, strat, &db, logger)
	if err != nil {
		return err
	}
	if cfg.Backtest.Progress {
		eng.EnableProgress()
	}

	logger.Info("starting backtest",
		zap.String("strategy", cfg.Backtest.StrategyID),
		zap.String("start", cfg.Backtest.StartDate),
		zap.String("end", cfg.Backtest.EndDate),
		zap.String("frequency", cfg.Backtest.RebalanceFrequency))

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	engine.WriteReport(os.Stdout, result)

	if path := cfg.Backtest.TradesCSVPath; path != "" {
		if err := engine.WriteTradesCSVFile(path, result.Trades); err != nil {
			return fmt.Errorf("export trades: %w", err)
		}
		logger.Info("trades exported", zap.String("path", path))
	}

	if err := archive.SaveResult(ctx, result, cfg.Backtest); err != nil {
		return fmt.Errorf("archive result: %w", err)
	}
	logger.Info("result archived", zap.String("strategy", result.StrategyID))
	return nil
}

// fixedWeightFactory rebuilds the same fixed allocation for every fold.
// The weights double as the "selected parameters" of each train window.
type fixedWeightFactory struct {
	weights map[string]float64
}

func (f fixedWeightFactory) Build(context.Context, time.Time, time.Time) (engine.Strategy, map[string]float64, error) {
	return fixedweight.New(f.weights), f.weights, nil
}

func runWalkForward(
	ctx context.Context,
	cfg *config.Config,
	engineCfg engine.Config,
	prices engine.PriceSource,
	archive *store.Store,
	logger *zap.Logger,
) error {
	wf, err := engine.NewWalkForward(engineCfg, prices, logger)
	if err != nil {
		return err
	}

	logger.Info("starting walk-forward run",
		zap.Int("train_months", engineCfg.WalkForwardTrainMonths()),
		zap.Int("test_months", engineCfg.WalkForwardTestMonths()))

	results, err := wf.Run(ctx, fixedWeightFactory{weights: cfg.Backtest.Weights})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("date range too short for %d/%d month walk-forward windows",
			engineCfg.WalkForwardTrainMonths(), engineCfg.WalkForwardTestMonths())
	}

	for _, wr := range results {
		fmt.Printf("\n===== Fold %s -> %s =====\n",
			wr.Window.TestStart.Format("2006-01-02"),
			wr.Window.TestEnd.Format("2006-01-02"))
		engine.WriteReport(os.Stdout, wr.TestResult)

		if err := archive.SaveResult(ctx, wr.TestResult, cfg.Backtest); err != nil {
			return fmt.Errorf("archive fold result: %w", err)
		}
	}
	return nil
}
