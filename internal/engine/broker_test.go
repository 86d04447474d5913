package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/jackluo2012/PulseTrader/internal/risk"
	"github.com/jackluo2012/PulseTrader/types"
)

func newTestBroker(cash, maxPositionSizePct, maxPortfolioRiskPct string) (*broker, *portfolio) {
	ledger := newPortfolio(dec(cash))
	manager := risk.NewManager(dec(maxPositionSizePct), dec(maxPortfolioRiskPct), 0.95)
	return newBroker(dec("0.001"), dec("0.001"), manager, ledger), ledger
}

func marketBuy(symbol, qty, limit string) types.Order {
	return types.NewOrder(symbol, types.SideTypeBuy, dec(qty), types.TypeMarket, dec(limit), "test", time.UnixMilli(0))
}

func marketSell(symbol, qty, limit string) types.Order {
	return types.NewOrder(symbol, types.SideTypeSell, dec(qty), types.TypeMarket, dec(limit), "test", time.UnixMilli(0))
}

func TestBroker_BuyAppliesSlippageAndCommission(t *testing.T) {
	b, ledger := newTestBroker("1000000", "0.2", "0.8")

	out := b.Execute([]types.Order{marketBuy("AAPL", "20000", "10")}, time.UnixMilli(0))

	if len(out) != 1 || out[0].Status != types.OrderFilled {
		t.Fatalf("order = %+v, want filled", out[0])
	}
	trades := ledger.Trades()
	if len(trades) != 1 {
		t.Fatalf("trade log has %d entries, want 1", len(trades))
	}
	// fill = 10 * 1.001, commission = 20000 * 10.01 * 0.001
	if !trades[0].FillPrice.Equal(dec("10.01")) {
		t.Errorf("fill price = %s, want 10.01", trades[0].FillPrice)
	}
	if !trades[0].Commission.Equal(dec("200.2")) {
		t.Errorf("commission = %s, want 200.2", trades[0].Commission)
	}
	if !ledger.cash.Equal(dec("799599.8")) {
		t.Errorf("cash = %s, want 799599.8", ledger.cash)
	}
	pos, _ := ledger.GetPosition("AAPL")
	if !pos.Quantity.Equal(dec("20000")) || !pos.AvgCost.Equal(dec("10.01")) {
		t.Errorf("position = %+v, want 20000 @ 10.01", pos)
	}
}

func TestBroker_SellAppliesSlippageAgainstSeller(t *testing.T) {
	b, ledger := newTestBroker("1000000", "0.2", "0.8")

	b.Execute([]types.Order{marketBuy("AAPL", "20000", "10")}, time.UnixMilli(0))
	out := b.Execute([]types.Order{marketSell("AAPL", "20000", "11")}, time.UnixMilli(60000))

	if out[0].Status != types.OrderFilled {
		t.Fatalf("sell = %+v, want filled", out[0])
	}
	trades := ledger.Trades()
	// fill = 11 * 0.999, commission = 20000 * 10.989 * 0.001
	if !trades[1].FillPrice.Equal(dec("10.989")) {
		t.Errorf("sell fill price = %s, want 10.989", trades[1].FillPrice)
	}
	// 799599.8 + 20000*10.989 - 219.78
	if !ledger.cash.Equal(dec("1019160.02")) {
		t.Errorf("cash = %s, want 1019160.02", ledger.cash)
	}
}

func TestBroker_RejectsWhenCashRunsOut(t *testing.T) {
	b, ledger := newTestBroker("1000000", "1", "100")

	// Each buy costs 20000*10.01 + 200.2 = 200400.2; the fifth cannot be paid.
	for i := 0; i < 4; i++ {
		out := b.Execute([]types.Order{marketBuy("AAPL", "20000", "10")}, time.UnixMilli(int64(i)))
		if out[0].Status != types.OrderFilled {
			t.Fatalf("buy %d = %+v, want filled", i, out[0])
		}
	}
	cashBefore := ledger.cash
	if !cashBefore.Equal(dec("198399.2")) {
		t.Fatalf("cash before final buy = %s, want 198399.2", cashBefore)
	}

	out := b.Execute([]types.Order{marketBuy("AAPL", "20000", "10")}, time.UnixMilli(5))

	if out[0].Status != types.OrderRejected {
		t.Fatalf("order = %+v, want rejected", out[0])
	}
	if out[0].RejectReason != InsufficientCapitalErr.Error() {
		t.Errorf("reject reason = %q", out[0].RejectReason)
	}
	if !ledger.cash.Equal(cashBefore) {
		t.Errorf("cash changed on rejection: %s", ledger.cash)
	}
	pos, _ := ledger.GetPosition("AAPL")
	if !pos.Quantity.Equal(dec("80000")) {
		t.Errorf("position changed on rejection: %s", pos.Quantity)
	}
	if len(ledger.Trades()) != 4 {
		t.Errorf("rejected order produced a trade")
	}
}

func TestBroker_RejectsSellWithoutPosition(t *testing.T) {
	b, ledger := newTestBroker("1000000", "0.2", "0.8")

	out := b.Execute([]types.Order{marketSell("AAPL", "100", "10")}, time.UnixMilli(0))

	if out[0].Status != types.OrderRejected {
		t.Fatalf("order = %+v, want rejected", out[0])
	}
	if out[0].RejectReason != InsufficientPositionErr.Error() {
		t.Errorf("reject reason = %q", out[0].RejectReason)
	}
	if len(ledger.Trades()) != 0 {
		t.Errorf("rejected sell produced a trade")
	}
}

func TestBroker_RiskGateRunsBeforeExecution(t *testing.T) {
	b, ledger := newTestBroker("1000000", "0.2", "0.8")

	// limit = floor(1000000 * 0.2 / 10) = 20000, one share over
	out := b.Execute([]types.Order{marketBuy("AAPL", "20001", "10")}, time.UnixMilli(0))

	if out[0].Status != types.OrderRejected {
		t.Fatalf("order = %+v, want rejected", out[0])
	}
	if !strings.Contains(out[0].RejectReason, risk.ErrPositionLimitExceeded.Error()) {
		t.Errorf("reject reason = %q, want position limit", out[0].RejectReason)
	}
	if !ledger.cash.Equal(dec("1000000")) {
		t.Errorf("cash changed on risk rejection: %s", ledger.cash)
	}
}

func TestBroker_ProcessesOrdersInSequence(t *testing.T) {
	b, ledger := newTestBroker("1000000", "0.5", "2")

	orders := []types.Order{
		marketBuy("AAPL", "100", "10"),
		marketBuy("MSFT", "100", "20"),
		marketSell("AAPL", "50", "11"),
	}
	out := b.Execute(orders, time.UnixMilli(0))

	for i, o := range out {
		if o.Status != types.OrderFilled {
			t.Fatalf("order %d = %+v, want filled", i, o)
		}
	}
	trades := ledger.Trades()
	if len(trades) != 3 {
		t.Fatalf("trade log has %d entries, want 3", len(trades))
	}
	if trades[0].Symbol != "AAPL" || trades[1].Symbol != "MSFT" || trades[2].Side != types.SideTypeSell {
		t.Errorf("trades out of sequence: %+v", trades)
	}
}
