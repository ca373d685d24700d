package sigengine

import (
	"log"
	"os"
	"strconv"
	"strings"

	"signal-enginev1/internal/ensemble"
)

// StrategySpec is one parsed "name:weight" entry.
type StrategySpec struct {
	Name   string
	Weight float64
}

// Config holds all env-parsed configuration for the signal engine service.
type Config struct {
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	ConsumerGroup string
	ConsumerName  string
	Symbols       []string
	WindowSize    int
	HTTPAddr      string
	MetricsAddr   string
	PELIntervalS  int
	PELMinIdleMs  int64

	SessionCalendar string

	Strategies          []StrategySpec
	EnsemblePolicy      ensemble.Policy
	MinCandles          int
	MinConfidence       float64
	MaxConfidence       float64
	VolatilityThreshold float64
}

// LoadConfig reads all environment variables and returns a Config.
func LoadConfig() Config {
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	sqlitePath := getEnv("SQLITE_PATH", "data/signals.db")
	consumerGroup := getEnv("CONSUMER_GROUP", "sigengine")
	consumerName := getEnv("CONSUMER_NAME", "worker-1")
	symbolsStr := getEnv("SYMBOLS", "")
	windowSizeStr := getEnv("WINDOW_SIZE", "256")
	httpAddr := getEnv("SIGENGINE_HTTP_ADDR", ":9096")
	metricsAddr := getEnv("METRICS_ADDR", ":9097")
	pelIntervalStr := getEnv("PEL_RECLAIM_INTERVAL_SEC", "30")
	pelMinIdleStr := getEnv("PEL_MIN_IDLE_MS", "60000")

	policy := ensemble.Policy(getEnv("ENSEMBLE_POLICY", string(ensemble.PolicyWeighted)))
	if policy != ensemble.PolicyWeighted && policy != ensemble.PolicyVote {
		log.Printf("[sigengine] unknown ensemble policy %q, using weighted", policy)
		policy = ensemble.PolicyWeighted
	}

	windowSize, _ := strconv.Atoi(windowSizeStr)
	if windowSize <= 0 {
		windowSize = 256
	}
	pelInterval, _ := strconv.Atoi(pelIntervalStr)
	if pelInterval <= 0 {
		pelInterval = 30
	}
	pelMinIdle, _ := strconv.ParseInt(pelMinIdleStr, 10, 64)
	if pelMinIdle <= 0 {
		pelMinIdle = 60000
	}

	minCandles, _ := strconv.Atoi(getEnv("MIN_CANDLES", "50"))
	if minCandles <= 0 {
		minCandles = 50
	}
	minConf := parseFloat(getEnv("MIN_CONFIDENCE", "0.55"), 0.55)
	maxConf := parseFloat(getEnv("MAX_CONFIDENCE", "0.90"), 0.90)
	volThreshold := parseFloat(getEnv("VOLATILITY_THRESHOLD", "0.02"), 0.02)

	return Config{
		RedisAddr:           redisAddr,
		RedisPassword:       redisPassword,
		SQLitePath:          sqlitePath,
		ConsumerGroup:       consumerGroup,
		ConsumerName:        consumerName,
		Symbols:             parseSymbols(symbolsStr),
		WindowSize:          windowSize,
		HTTPAddr:            httpAddr,
		MetricsAddr:         metricsAddr,
		PELIntervalS:        pelInterval,
		PELMinIdleMs:        pelMinIdle,
		SessionCalendar:     getEnv("SESSION_CALENDAR", "always"),
		Strategies:          ParseStrategySpecs(getEnv("STRATEGIES", "")),
		EnsemblePolicy:      policy,
		MinCandles:          minCandles,
		MinConfidence:       minConf,
		MaxConfidence:       maxConf,
		VolatilityThreshold: volThreshold,
	}
}

// ParseStrategySpecs parses "name:weight,name:weight,..." into specs. A bare
// name gets weight 1.0. Returns nil for empty input, which means the full
// default strategy set.
func ParseStrategySpecs(s string) []StrategySpec {
	if s == "" {
		return nil
	}

	var specs []StrategySpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokens := strings.SplitN(part, ":", 2)
		name := strings.TrimSpace(tokens[0])
		weight := 1.0
		if len(tokens) == 2 {
			w, err := strconv.ParseFloat(strings.TrimSpace(tokens[1]), 64)
			if err != nil || w < 0 {
				log.Printf("[sigengine] skipping invalid strategy spec: %q", part)
				continue
			}
			weight = w
		}
		specs = append(specs, StrategySpec{Name: name, Weight: weight})
	}
	if len(specs) == 0 {
		log.Println("[sigengine] WARNING: no valid strategy specs parsed, using full default set")
		return nil
	}
	log.Printf("[sigengine] loaded %d strategy specs from STRATEGIES", len(specs))
	return specs
}

func parseSymbols(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, sym := range strings.Split(s, ",") {
		sym = strings.TrimSpace(sym)
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
