package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"backsim/types"
)

// WriteTradesCSVFile writes the trade log to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes the trade log to any io.Writer as CSV. You can
// pass os.Stdout for debugging, or a file.
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date", // RFC3339
		"instrument",
		"direction",
		"notional",
		"cost",
		"price",
		"realized_pnl",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, tr := range trades {
		record := []string{
			tr.Date.Format(time.RFC3339),
			tr.Instrument,
			string(tr.Direction),
			tr.Notional.String(),
			tr.Cost.String(),
			tr.Price.String(),
			tr.RealizedPnL.String(),
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
