package investsync

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"
)

// CSV export over already-computed snapshots. Two layouts: one row per
// position (plus a cash row per portfolio), or holdings aggregated across
// portfolios.

// ExportFormat selects a CSV layout.
type ExportFormat string

const (
	ExportPositions ExportFormat = "positions"
	ExportHoldings  ExportFormat = "holdings"
)

func fmtNumber(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// WriteCSV renders the snapshots in the requested layout. Account names
// annotate the position rows; pass nil when no ledger session is around.
func WriteCSV(w io.Writer, format ExportFormat, snapshots []Snapshot, accounts []Account, exportedAt time.Time) error {
	switch format {
	case ExportPositions:
		return writePositionsCSV(w, snapshots, accounts, exportedAt)
	case ExportHoldings:
		return writeHoldingsCSV(w, snapshots, exportedAt)
	}
	return fmt.Errorf("unsupported export format: %q", format)
}

func writePositionsCSV(w io.Writer, snapshots []Snapshot, accounts []Account, exportedAt time.Time) error {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	stamp := exportedAt.UTC().Format(time.RFC3339)

	cw := csv.NewWriter(w)
	header := []string{
		"Portfolio", "ActualAccountName", "ActualAccountId", "AssetType",
		"HoldingName", "Symbol", "Provider", "Quantity", "UnitPrice",
		"MarketValue", "PortfolioCash", "PortfolioValue", "WeightPct", "ExportedAt",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range snapshots {
		cash := fmtNumber(s.Cash, 2)
		total := fmtNumber(s.TotalValue, 2)
		for _, h := range s.Holdings {
			weight := ""
			if s.TotalValue != 0 {
				weight = fmtNumber(h.MarketValue/s.TotalValue*100, 4)
			}
			row := []string{
				s.Name, names[s.AccountID], s.AccountID, "Position",
				h.Name, h.Symbol, string(h.Provider.Normalize()),
				fmtNumber(h.Quantity, -1), fmtNumber(h.Price, 4),
				fmtNumber(h.MarketValue, 2), cash, total, weight, stamp,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		weight := ""
		if s.TotalValue != 0 {
			weight = fmtNumber(s.Cash/s.TotalValue*100, 4)
		}
		row := []string{
			s.Name, names[s.AccountID], s.AccountID, "Cash",
			"Cash Balance", "", "", "", "",
			cash, cash, total, weight, stamp,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeHoldingsCSV(w io.Writer, snapshots []Snapshot, exportedAt time.Time) error {
	type agg struct {
		HoldingValue
		totalQuantity float64
		totalValue    float64
	}
	byName := make(map[string]*agg)
	var order []string
	for _, s := range snapshots {
		for _, h := range s.Holdings {
			a, ok := byName[h.Name]
			if !ok {
				a = &agg{HoldingValue: h}
				byName[h.Name] = a
				order = append(order, h.Name)
			}
			a.totalQuantity += h.Quantity
			a.totalValue += h.MarketValue
		}
	}
	sort.Strings(order)
	stamp := exportedAt.UTC().Format(time.RFC3339)

	cw := csv.NewWriter(w)
	header := []string{"HoldingName", "Symbol", "Provider", "TotalQuantity", "UnitPrice", "TotalMarketValue", "ExportedAt"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, name := range order {
		a := byName[name]
		row := []string{
			name, a.Symbol, string(a.Provider.Normalize()),
			fmtNumber(a.totalQuantity, -1), fmtNumber(a.Price, 4),
			fmtNumber(a.totalValue, 2), stamp,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
