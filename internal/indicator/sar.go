package indicator

import "signal-enginev1/internal/model"

// ParabolicSAR computes the Parabolic Stop-And-Reverse series with a forward
// scan. The scan tracks trend direction, the extreme point since the last
// reversal, and an acceleration factor that grows by accel (capped at
// maxAccel) each time a new extreme is set. In an uptrend the SAR is clamped
// below the prior two candles' lows (above the highs in a downtrend); a
// reversal flips direction, moves the SAR to the old extreme point, and
// resets acceleration.
//
// The result has one value per candle; out[0] mirrors the initial SAR.
// Returns nil for fewer than 2 candles.
func ParabolicSAR(candles []model.Candle, accel, maxAccel float64) []float64 {
	if len(candles) < 2 || accel <= 0 || maxAccel < accel {
		return nil
	}

	up := candles[1].Close >= candles[0].Close
	var sar, ep float64
	if up {
		sar = candles[0].Low
		ep = candles[0].High
	} else {
		sar = candles[0].High
		ep = candles[0].Low
	}
	af := accel

	out := make([]float64, len(candles))
	out[0] = sar

	for i := 1; i < len(candles); i++ {
		sar += af * (ep - sar)

		if up {
			if sar > candles[i-1].Low {
				sar = candles[i-1].Low
			}
			if i >= 2 && sar > candles[i-2].Low {
				sar = candles[i-2].Low
			}
			if candles[i].Low < sar {
				// Price crossed the SAR: reverse to downtrend.
				up = false
				sar = ep
				ep = candles[i].Low
				af = accel
			} else if candles[i].High > ep {
				ep = candles[i].High
				af += accel
				if af > maxAccel {
					af = maxAccel
				}
			}
		} else {
			if sar < candles[i-1].High {
				sar = candles[i-1].High
			}
			if i >= 2 && sar < candles[i-2].High {
				sar = candles[i-2].High
			}
			if candles[i].High > sar {
				// Price crossed the SAR: reverse to uptrend.
				up = true
				sar = ep
				ep = candles[i].High
				af = accel
			} else if candles[i].Low < ep {
				ep = candles[i].Low
				af += accel
				if af > maxAccel {
					af = maxAccel
				}
			}
		}
		out[i] = sar
	}
	return out
}
