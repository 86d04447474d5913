package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jackluo2012/PulseTrader/types"
)

// writeTradesCSVFile writes the trade log to a CSV file at the given path.
func writeTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return writeTradesCSV(f, trades)
}

// writeTradesCSV writes the trade log to any io.Writer as CSV. Pass
// os.Stdout for debugging, or a file.
func writeTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"order_id",
		"symbol",
		"side",
		"quantity",
		"fill_price",
		"commission",
		"timestamp", // RFC3339
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.OrderID,
			t.Symbol,
			string(t.Side),
			t.Quantity.String(),
			t.FillPrice.String(),
			t.Commission.String(),
			t.Timestamp.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// writeEquityCSVFile writes the equity curve to a CSV file at the given path.
func writeEquityCSVFile(path string, curve []types.EquitySnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return writeEquityCSV(f, curve)
}

func writeEquityCSV(w io.Writer, curve []types.EquitySnapshot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "cash", "position_value", "total_value"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, snap := range curve {
		record := []string{
			snap.Timestamp.Format(time.RFC3339),
			snap.Cash.String(),
			snap.PositionValue.String(),
			snap.TotalValue.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
