package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams(
		date(2024, time.January, 1),
		date(2024, time.December, 31),
		dec("1000000"),
		Monthly,
	)

	if p.TransactionCostBps != 5.0 || p.SlippageBps != 2.0 {
		t.Errorf("cost defaults = %v/%v, want 5/2", p.TransactionCostBps, p.SlippageBps)
	}
	if p.MaxLeverage != 1.0 {
		t.Errorf("leverage default = %v, want 1.0", p.MaxLeverage)
	}
	if p.WalkForwardTrainMonths != 60 || p.WalkForwardTestMonths != 12 {
		t.Errorf("walk-forward defaults = %d/%d, want 60/12",
			p.WalkForwardTrainMonths, p.WalkForwardTestMonths)
	}
	if !p.PointInTime {
		t.Errorf("point-in-time must default on")
	}
	if p.FundingRate != 0.05 {
		t.Errorf("funding rate default = %v, want 0.05", p.FundingRate)
	}
}

func TestNewConfigValidation(t *testing.T) {
	valid := func() ConfigParams {
		return DefaultParams(
			date(2024, time.January, 1),
			date(2024, time.December, 31),
			dec("1000000"),
			Monthly,
		)
	}

	tests := []struct {
		name    string
		mutate  func(*ConfigParams)
		wantErr error
	}{
		{"valid", func(*ConfigParams) {}, nil},
		{"start equals end", func(p *ConfigParams) { p.EndDate = p.StartDate }, InvalidDateRangeErr},
		{"start after end", func(p *ConfigParams) {
			p.StartDate, p.EndDate = p.EndDate, p.StartDate
		}, InvalidDateRangeErr},
		{"zero capital", func(p *ConfigParams) { p.InitialCapital = decimal.Zero }, InvalidCapitalErr},
		{"negative capital", func(p *ConfigParams) { p.InitialCapital = dec("-1") }, InvalidCapitalErr},
		{"zero leverage", func(p *ConfigParams) { p.MaxLeverage = 0 }, InvalidLeverageErr},
		{"negative leverage", func(p *ConfigParams) { p.MaxLeverage = -2 }, InvalidLeverageErr},
		{"unknown frequency", func(p *ConfigParams) { p.Frequency = "hourly" }, UnknownFrequencyErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			_, err := NewConfig(p)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigWithDates(t *testing.T) {
	cfg := testConfig(t, 1.0)

	sub, err := cfg.WithDates(date(2024, time.March, 1), date(2024, time.June, 30))
	if err != nil {
		t.Fatalf("WithDates() error = %v", err)
	}
	if !sub.StartDate().Equal(date(2024, time.March, 1)) ||
		!sub.EndDate().Equal(date(2024, time.June, 30)) {
		t.Errorf("sub range = %v..%v", sub.StartDate(), sub.EndDate())
	}
	if !cfg.StartDate().Equal(date(2024, time.January, 1)) {
		t.Errorf("WithDates mutated the receiver: %v", cfg.StartDate())
	}
	if sub.MaxLeverage() != cfg.MaxLeverage() || sub.Frequency() != cfg.Frequency() {
		t.Errorf("WithDates dropped non-date fields")
	}

	if _, err := cfg.WithDates(date(2024, time.June, 1), date(2024, time.June, 1)); !errors.Is(err, InvalidDateRangeErr) {
		t.Errorf("equal dates: error = %v, want %v", err, InvalidDateRangeErr)
	}
}

func TestConfigTradingCostBps(t *testing.T) {
	p := DefaultParams(
		date(2024, time.January, 1),
		date(2024, time.December, 31),
		dec("1000000"),
		Monthly,
	)
	flat, err := NewConfig(p)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if got := flat.tradingCostBps("ANY"); math.Abs(got-7.0) > 1e-12 {
		t.Errorf("flat cost = %v, want 5 + 2 bps", got)
	}

	p.CostModel = testCostModel()
	modeled, err := NewConfig(p)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	// Model replaces the flat 5bps; slippage still applies on top.
	if got := modeled.tradingCostBps("AAPL"); math.Abs(got-8.5) > 1e-12 {
		t.Errorf("modeled cost = %v, want 6.5 + 2 bps", got)
	}
}

func TestFrequencyAnnualizationFactor(t *testing.T) {
	tests := []struct {
		freq Frequency
		want float64
	}{
		{Daily, 252},
		{Weekly, 52},
		{Monthly, 12},
	}
	for _, tt := range tests {
		if got := tt.freq.annualizationFactor(); got != tt.want {
			t.Errorf("annualizationFactor(%s) = %v, want %v", tt.freq, got, tt.want)
		}
	}
}
