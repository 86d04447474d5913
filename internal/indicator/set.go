package indicator

import "sync"

// Params selects the windows for one full indicator set.
type Params struct {
	SMAFast    int
	SMASlow    int
	RSIWindow  int
	BBWindow   int
	BBK        float64
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

func DefaultParams() Params {
	return Params{
		SMAFast:    5,
		SMASlow:    20,
		RSIWindow:  14,
		BBWindow:   20,
		BBK:        2.0,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
	}
}

// Set holds the derived series for one symbol, index-aligned with the input.
type Set struct {
	SMAFast    []float64
	SMASlow    []float64
	RSI        []float64
	BBUpper    []float64
	BBMiddle   []float64
	BBLower    []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64
}

// Values is the scalar snapshot of a set at one bar index. This is what a
// strategy sees while a bar is being processed; later values are never
// exposed.
type Values struct {
	SMAFast    float64
	SMASlow    float64
	RSI        float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
}

// At reads the snapshot for one index. Out-of-range indexes yield a fully
// undefined snapshot.
func (s *Set) At(i int) Values {
	if s == nil || i < 0 || i >= len(s.SMAFast) {
		u := Undefined()
		return Values{u, u, u, u, u, u, u, u, u}
	}
	return Values{
		SMAFast:    s.SMAFast[i],
		SMASlow:    s.SMASlow[i],
		RSI:        s.RSI[i],
		BBUpper:    s.BBUpper[i],
		BBMiddle:   s.BBMiddle[i],
		BBLower:    s.BBLower[i],
		MACD:       s.MACD[i],
		MACDSignal: s.MACDSignal[i],
		MACDHist:   s.MACDHist[i],
	}
}

// ComputeSet derives all indicator families for one close series. The
// families are independent of one another, so they run on separate
// goroutines and join before returning.
func ComputeSet(closes []float64, p Params) *Set {
	set := &Set{}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		set.SMAFast = SMA(closes, p.SMAFast)
		set.SMASlow = SMA(closes, p.SMASlow)
	}()
	go func() {
		defer wg.Done()
		set.RSI = RSI(closes, p.RSIWindow)
	}()
	go func() {
		defer wg.Done()
		set.BBUpper, set.BBMiddle, set.BBLower = BollingerBands(closes, p.BBWindow, p.BBK)
	}()
	go func() {
		defer wg.Done()
		set.MACD, set.MACDSignal, set.MACDHist = MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	}()
	wg.Wait()

	return set
}

// ComputeAll fans ComputeSet out across symbols. Results are joined before
// any signal generation starts, keeping the run itself single-threaded.
func ComputeAll(closesBySymbol map[string][]float64, p Params) map[string]*Set {
	out := make(map[string]*Set, len(closesBySymbol))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for symbol, closes := range closesBySymbol {
		wg.Add(1)
		go func(symbol string, closes []float64) {
			defer wg.Done()
			set := ComputeSet(closes, p)
			mu.Lock()
			out[symbol] = set
			mu.Unlock()
		}(symbol, closes)
	}
	wg.Wait()

	return out
}
