package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jackluo2012/PulseTrader/types"
)

const tradingDaysPerYear = 252

// generateReport reduces the ledger's equity curve and trade log to the final
// performance report. The metrics are independent, so each family runs on its
// own goroutine and joins before returning.
func generateReport(ledger *portfolio) *types.PerformanceReport {
	equity := ledger.EquityCurve()
	trades := ledger.Trades()

	report := &types.PerformanceReport{TradeCount: len(trades)}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		report.TotalReturn, report.AnnualizedReturn = calcReturns(equity, ledger.initialCapital)
	}()
	go func() {
		defer wg.Done()
		report.SharpeRatio = calcSharpeRatio(equity)
	}()
	go func() {
		defer wg.Done()
		report.MaxDrawdown = calcMaxDrawdown(equity)
	}()
	go func() {
		defer wg.Done()
		report.WinRate = calcWinRate(trades)
	}()
	wg.Wait()

	return report
}

func calcReturns(equity []types.EquitySnapshot, initialCapital decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if len(equity) == 0 || !initialCapital.IsPositive() {
		return decimal.Zero, decimal.Zero
	}

	finalValue := equity[len(equity)-1].TotalValue
	totalReturn := finalValue.Sub(initialCapital).Div(initialCapital)

	// Compound to a 252-trading-day year over the steps actually run.
	days := float64(len(equity))
	growth := 1 + totalReturn.InexactFloat64()
	if growth <= 0 {
		return totalReturn, decimal.NewFromInt(-1)
	}
	annualized := math.Pow(growth, tradingDaysPerYear/days) - 1
	return totalReturn, decimal.NewFromFloat(annualized)
}

func periodicReturns(equity []types.EquitySnapshot) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].TotalValue
		if !prev.IsPositive() {
			continue
		}
		r := equity[i].TotalValue.Sub(prev).Div(prev)
		returns = append(returns, r.InexactFloat64())
	}
	return returns
}

func calcSharpeRatio(equity []types.EquitySnapshot) decimal.Decimal {
	returns := periodicReturns(equity)
	if len(returns) < 2 {
		return decimal.Zero
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		diff := r - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	if std == 0 {
		return decimal.Zero
	}

	return decimal.NewFromFloat(mean / std * math.Sqrt(tradingDaysPerYear))
}

func calcMaxDrawdown(equity []types.EquitySnapshot) decimal.Decimal {
	maxDD := decimal.Zero
	peak := decimal.Zero

	for _, snap := range equity {
		if snap.TotalValue.GreaterThan(peak) {
			peak = snap.TotalValue
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(snap.TotalValue).Div(peak)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}

// calcWinRate replays the trade log per symbol, carrying quantity and
// weighted average cost exactly like the ledger does. Every sell closes part
// of a round trip and realizes (fill - avg cost) * qty - commission; the win
// rate is winners over closed round trips.
func calcWinRate(trades []types.Trade) decimal.Decimal {
	type book struct {
		quantity decimal.Decimal
		avgCost  decimal.Decimal
	}
	books := make(map[string]*book)

	closed := 0
	wins := 0

	for _, t := range trades {
		b := books[t.Symbol]
		if b == nil {
			b = &book{}
			books[t.Symbol] = b
		}

		switch t.Side {
		case types.SideTypeBuy:
			if b.quantity.IsPositive() {
				b.avgCost = weightedAvg(b.avgCost, b.quantity, t.FillPrice, t.Quantity)
			} else {
				b.avgCost = t.FillPrice
			}
			b.quantity = b.quantity.Add(t.Quantity)

		case types.SideTypeSell:
			if !b.quantity.IsPositive() {
				continue
			}
			realized := t.FillPrice.Sub(b.avgCost).Mul(t.Quantity).Sub(t.Commission)
			closed++
			if realized.IsPositive() {
				wins++
			}
			b.quantity = b.quantity.Sub(t.Quantity)
			if !b.quantity.IsPositive() {
				b.quantity = decimal.Zero
				b.avgCost = decimal.Zero
			}
		}
	}

	if closed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(closed)))
}

func printReport(report *types.PerformanceReport) {
	fmt.Println("===== Backtest Report =====")
	fmt.Printf("Total Return:          %s\n", report.TotalReturn)
	fmt.Printf("Annualized Return:     %s\n", report.AnnualizedReturn)
	fmt.Printf("Sharpe Ratio:          %s\n", report.SharpeRatio)
	fmt.Printf("Max Drawdown:          %s\n", report.MaxDrawdown)
	fmt.Printf("Win Rate:              %s\n", report.WinRate)
	fmt.Printf("Total Trades:          %d\n", report.TradeCount)
	fmt.Println("===========================")
}
