package indicator

import "math"

// Undefined marks positions in an output series where not enough history has
// accumulated yet. Strategies must treat undefined values as "no signal".
func Undefined() float64 {
	return math.NaN()
}

// IsDefined reports whether an indicator value carries a real observation.
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA computes the trailing arithmetic mean over the given window. Outputs
// before window-1 are undefined. A running sum keeps the whole pass O(n).
func SMA(series []float64, window int) []float64 {
	out := undefinedSeries(len(series))
	if window <= 0 || len(series) < window {
		return out
	}

	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA computes an exponential moving average with multiplier 2/(window+1),
// seeded with the first input value.
func EMA(series []float64, window int) []float64 {
	if len(series) == 0 || window <= 0 {
		return undefinedSeries(len(series))
	}

	out := make([]float64, len(series))
	k := 2.0 / float64(window+1)
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = (series[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI computes the relative strength index over a trailing window of
// per-step gains and losses. The output is always in [0,100]; a window with
// zero average loss (including an all-flat window) reports exactly 100.
// Outputs before `window` deltas are available are undefined.
func RSI(series []float64, window int) []float64 {
	out := undefinedSeries(len(series))
	if window <= 0 || len(series) <= window {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		gainSum += math.Max(delta, 0)
		lossSum += math.Max(-delta, 0)

		if i > window {
			old := series[i-window] - series[i-window-1]
			gainSum -= math.Max(old, 0)
			lossSum -= math.Max(-old, 0)
		}
		if i < window {
			continue
		}

		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		if avgLoss == 0 {
			out[i] = 100
		} else {
			out[i] = 100 - 100/(1+avgGain/avgLoss)
		}
	}
	return out
}

// BollingerBands returns upper, middle and lower bands where the middle band
// is the window SMA and the outer bands sit k population standard deviations
// away. Running sums of values and squares keep the pass O(n).
func BollingerBands(series []float64, window int, k float64) (upper, middle, lower []float64) {
	n := len(series)
	upper = undefinedSeries(n)
	middle = undefinedSeries(n)
	lower = undefinedSeries(n)
	if window <= 0 || n < window {
		return upper, middle, lower
	}

	var sum, sumSq float64
	for i, v := range series {
		sum += v
		sumSq += v * v
		if i >= window {
			old := series[i-window]
			sum -= old
			sumSq -= old * old
		}
		if i < window-1 {
			continue
		}

		mean := sum / float64(window)
		variance := sumSq/float64(window) - mean*mean
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)

		middle[i] = mean
		upper[i] = mean + k*std
		lower[i] = mean - k*std
	}
	return upper, middle, lower
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal line (EMA
// of the MACD line) and the histogram (MACD minus signal).
func MACD(series []float64, fast, slow, signal int) (macdLine, signalLine, histogram []float64) {
	n := len(series)
	macdLine = make([]float64, n)
	if n == 0 {
		return macdLine, undefinedSeries(0), undefinedSeries(0)
	}

	fastEMA := EMA(series, fast)
	slowEMA := EMA(series, slow)
	for i := range series {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine = EMA(macdLine, signal)
	histogram = make([]float64, n)
	for i := range macdLine {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}
