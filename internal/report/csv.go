package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/seenimoa/filinglens/internal/period"
	"github.com/seenimoa/filinglens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// CSV Export
// ════════════════════════════════════════════════════════════════════

// WriteSnapshotCSV writes one row per ticker with the latest-filing metric
// set, main ticker first. Values are raw numbers so the file re-imports
// cleanly; unresolved metrics are empty cells. Alerts are joined with "; ".
func WriteSnapshotCSV(w io.Writer, batch *models.BatchReport) error {
	if batch == nil {
		return fmt.Errorf("batch report is nil")
	}

	cw := csv.NewWriter(w)

	header := []string{"ticker", "company", "form_type", "filing_date", "period"}
	header = append(header, snapshotColumns...)
	header = append(header, "alerts")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing snapshot csv: %w", err)
	}

	for _, rep := range batch.InOrder() {
		snap := latestSnapshot(rep)

		row := make([]string, 0, len(header))
		row = append(row, rep.Ticker, rep.CompanyName)
		if snap != nil {
			row = append(row, string(snap.Meta.FormType), snap.Meta.FilingDate, snap.Period)
		} else {
			row = append(row, "", "", "")
		}
		for _, col := range snapshotColumns {
			if snap != nil {
				if v, ok := snap.Metric(col); ok {
					row = append(row, formatCSVNumber(v))
					continue
				}
			}
			row = append(row, "")
		}
		row = append(row, strings.Join(rep.Alerts(), "; "))

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing snapshot csv: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSV writes a ticker's trend picture in wide format: one row
// per period with the annual and quarterly series side by side. Periods
// a series never observed stay empty.
func WriteSeriesCSV(w io.Writer, rep *models.TickerReport) error {
	if rep == nil {
		return fmt.Errorf("ticker report is nil")
	}

	cw := csv.NewWriter(w)

	header := []string{
		"basis", "period",
		"revenue", "revenue_growth_pct",
		"net_income", "net_income_growth_pct",
		"inventory", "receivables", "free_cash_flow",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing series csv: %w", err)
	}

	writeBasis := func(basis string, b *models.TrendBundle, wc *models.WorkingCapital) error {
		cols := map[string]map[string]float64{}
		put := func(name string, points []models.SeriesPoint) {
			for _, p := range points {
				if cols[p.Period] == nil {
					cols[p.Period] = map[string]float64{}
				}
				cols[p.Period][name] = p.Value
			}
		}
		putGrowth := func(name string, points []models.GrowthPoint) {
			for _, p := range points {
				if cols[p.Period] == nil {
					cols[p.Period] = map[string]float64{}
				}
				cols[p.Period][name] = p.Pct
			}
		}

		if b != nil {
			put("revenue", b.Revenue)
			putGrowth("revenue_growth_pct", b.RevenueGrowth)
			put("net_income", b.NetIncome)
			putGrowth("net_income_growth_pct", b.NetIncomeGrowth)
		}
		if wc != nil {
			put("inventory", wc.Inventory)
			put("receivables", wc.Receivables)
			put("free_cash_flow", wc.FreeCashFlow)
		}
		if len(cols) == 0 {
			return nil
		}

		labels := make([]string, 0, len(cols))
		for p := range cols {
			labels = append(labels, p)
		}
		for _, p := range period.SortLabels(labels) {
			row := []string{basis, p}
			for _, name := range header[2:] {
				if v, ok := cols[p][name]; ok {
					row = append(row, formatCSVNumber(v))
				} else {
					row = append(row, "")
				}
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing series csv: %w", err)
			}
		}
		return nil
	}

	if err := writeBasis("annual", rep.AnnualTrend, nil); err != nil {
		return err
	}
	if err := writeBasis("quarterly", rep.QuarterlyTrend, rep.WorkingCapital); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func formatCSVNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
