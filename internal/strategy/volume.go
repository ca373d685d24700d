package strategy

import (
	"fmt"
	"math"
	"sync"

	"signal-enginev1/internal/indicator"
	"signal-enginev1/internal/model"
)

// VolumeSpike signals on unusual volume paired with a decisive price move,
// and falls back to a weaker volume/price divergence read when no spike is
// present.
type VolumeSpike struct {
	mu          sync.RWMutex
	avgPeriod   int     // valid range [2, 200]; volume baseline
	spikeFactor float64 // valid range (1, 20]; volume multiple that counts as a spike
	minMove     float64 // valid range (0, 0.5]; fractional close move that counts
}

// NewVolumeSpike creates the strategy with a 20-candle volume baseline, a
// 2x spike threshold and a 0.5% minimum move.
func NewVolumeSpike() *VolumeSpike {
	return &VolumeSpike{avgPeriod: 20, spikeFactor: 2.0, minMove: 0.005}
}

func (s *VolumeSpike) Name() string { return "volume_spike" }

func (s *VolumeSpike) Description() string {
	return "Volume spike confirmation with divergence fallback"
}

// SetAvgPeriod updates the volume baseline window. Values outside [2,200]
// are ignored.
func (s *VolumeSpike) SetAvgPeriod(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 2 || n > 200 {
		return
	}
	s.avgPeriod = n
}

// SetSpikeFactor updates the spike multiple. Values outside (1,20] are
// ignored.
func (s *VolumeSpike) SetSpikeFactor(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f <= 1 || f > 20 {
		return
	}
	s.spikeFactor = f
}

func (s *VolumeSpike) params() (int, float64, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avgPeriod, s.spikeFactor, s.minMove
}

func (s *VolumeSpike) RequiredCandles() int {
	avgP, _, _ := s.params()
	return avgP + 1
}

func (s *VolumeSpike) Signal(candles []model.Candle) model.StrategySignal {
	avgP, spikeF, minMove := s.params()

	if len(candles) < avgP+1 {
		return volumeFallback(s.Name(), candles, "fallback (insufficient candles)")
	}

	vols := model.Volumes(candles)
	volSMA := indicator.SMA(vols[:len(vols)-1], avgP)
	if len(volSMA) == 0 || volSMA[len(volSMA)-1] <= 0 {
		return volumeFallback(s.Name(), candles, "fallback (volume baseline unavailable)")
	}
	avgVol := volSMA[len(volSMA)-1]

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	ratio := last.Volume / avgVol

	move := 0.0
	if prev.Close != 0 {
		move = (last.Close - prev.Close) / prev.Close
	}

	if ratio >= spikeF && math.Abs(move) >= minMove {
		breakout := last.Close > prev.High || last.Close < prev.Low
		conf := math.Min(0.95, 0.5+(ratio-spikeF)*0.1+math.Abs(move)*10)
		if breakout {
			conf = math.Min(0.95, conf+0.1)
		}
		if move > 0 {
			return model.NewSignal(s.Name(), model.Buy, conf,
				fmt.Sprintf("volume spike %.1fx with %.2f%% up move", ratio, move*100))
		}
		return model.NewSignal(s.Name(), model.Sell, conf,
			fmt.Sprintf("volume spike %.1fx with %.2f%% down move", ratio, move*100))
	}

	// No spike: look for rising volume against a flat tape over the last
	// few candles as a weak directional hint.
	const span = 5
	if len(candles) >= span+1 {
		recent := candles[len(candles)-span:]
		volTrend := recent[span-1].Volume - recent[0].Volume
		priceMove := 0.0
		if recent[0].Close != 0 {
			priceMove = (recent[span-1].Close - recent[0].Close) / recent[0].Close
		}
		if volTrend > 0 && math.Abs(priceMove) < minMove {
			dir := model.Buy
			if recent[span-1].Close < recent[span-1].Open {
				dir = model.Sell
			}
			return model.NewSignal(s.Name(), dir, 0.25,
				fmt.Sprintf("volume building on flat tape (vol ratio %.1fx)", ratio))
		}
	}

	return model.NewSignal(s.Name(), model.Hold, math.Min(0.3, ratio*0.1),
		fmt.Sprintf("no volume anomaly (ratio %.1fx)", ratio))
}
