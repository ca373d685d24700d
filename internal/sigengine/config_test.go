package sigengine

import (
	"testing"

	"signal-enginev1/internal/ensemble"
)

func TestParseStrategySpecs(t *testing.T) {
	specs := ParseStrategySpecs("ema_crossover:1.5, rsi:0.8,macd")
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	if specs[0].Name != "ema_crossover" || specs[0].Weight != 1.5 {
		t.Errorf("unexpected first spec: %+v", specs[0])
	}
	if specs[1].Name != "rsi" || specs[1].Weight != 0.8 {
		t.Errorf("unexpected second spec: %+v", specs[1])
	}
	// Bare name defaults to weight 1.0
	if specs[2].Name != "macd" || specs[2].Weight != 1.0 {
		t.Errorf("unexpected third spec: %+v", specs[2])
	}
}

func TestParseStrategySpecs_Empty(t *testing.T) {
	if specs := ParseStrategySpecs(""); specs != nil {
		t.Errorf("expected nil for empty input, got %v", specs)
	}
}

func TestParseStrategySpecs_InvalidWeightSkipped(t *testing.T) {
	specs := ParseStrategySpecs("rsi:abc,macd:0.5")
	if len(specs) != 1 || specs[0].Name != "macd" {
		t.Errorf("expected only macd to survive, got %v", specs)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("unexpected redis addr %q", cfg.RedisAddr)
	}
	if cfg.WindowSize != 256 {
		t.Errorf("unexpected window size %d", cfg.WindowSize)
	}
	if cfg.EnsemblePolicy != ensemble.PolicyWeighted {
		t.Errorf("unexpected policy %q", cfg.EnsemblePolicy)
	}
	if cfg.MinCandles != 50 {
		t.Errorf("unexpected warmup floor %d", cfg.MinCandles)
	}
	if cfg.SessionCalendar != "always" {
		t.Errorf("unexpected session calendar %q", cfg.SessionCalendar)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENSEMBLE_POLICY", "vote")
	t.Setenv("SYMBOLS", "NIFTY,BANKNIFTY")
	t.Setenv("SESSION_CALENDAR", "nse")

	cfg := LoadConfig()
	if cfg.EnsemblePolicy != ensemble.PolicyVote {
		t.Errorf("expected vote policy, got %q", cfg.EnsemblePolicy)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "NIFTY" {
		t.Errorf("unexpected symbols %v", cfg.Symbols)
	}
	if cfg.SessionCalendar != "nse" {
		t.Errorf("expected nse calendar, got %q", cfg.SessionCalendar)
	}
}
