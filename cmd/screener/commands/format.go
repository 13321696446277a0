package commands

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wonny/valuescreen/internal/brain"
	"github.com/wonny/valuescreen/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Console Report Formatting
// screen / scheduler 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	separator       = "───────────────────────────────────────────────────────────"
	doubleSeparator = "═══════════════════════════════════════════════════════════"
	barWidth        = 30
)

// printRunHeader prints run metadata
func printRunHeader(w io.Writer, result *brain.RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleSeparator)
	fmt.Fprintln(w, "  Value Screen")
	fmt.Fprintln(w, separator)
	printKeyValue(w, "Run ID", result.RunID, 10)
	printKeyValue(w, "Date", result.Date.Format("2006-01-02"), 10)
	printKeyValue(w, "Mode", result.Mode, 10)
	printKeyValue(w, "Portfolio", formatMoney(result.Notional), 10)
	printKeyValue(w, "Selected", fmt.Sprintf("%d", result.Selected.Count()), 10)
	if len(result.Unavailable) > 0 {
		printKeyValue(w, "Skipped", fmt.Sprintf("%d (data unavailable)", len(result.Unavailable)), 10)
	}
	fmt.Fprintln(w, separator)
}

// printSelection prints the ranked selection with equal-weight share counts
func printSelection(w io.Writer, result *brain.RunResult) {
	scoreHeader := "RV Score"
	if result.Mode == brain.ModePE {
		scoreHeader = "P/E"
	}
	columns := []string{"Rank", "Ticker", "Price", "Shares", scoreHeader, "1Y Return"}
	widths := []int{4, 8, 12, 8, 10, 10}

	printTableHeader(w, columns, widths)
	if result.Selected == nil {
		return
	}
	for _, rec := range result.Selected.Records {
		shares := "-"
		if rec.SharesToBuy != nil {
			shares = fmt.Sprintf("%d", *rec.SharesToBuy)
		}
		printTableRow(w, []string{
			fmt.Sprintf("%d", rec.Rank),
			rec.Ticker,
			formatMoney(rec.Price),
			shares,
			formatScore(rec, result.Mode),
			formatPercent(rec.PriceReturns[contracts.Horizon1Y]),
		}, widths)
	}
}

// printTrades prints a weighted trade list
func printTrades(w io.Writer, title string, trades *contracts.TradeList) {
	if trades == nil || trades.Count() == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s (cash left %s)\n", title, formatMoney(trades.Cash()))

	widths := []int{4, 8, 8, 14, 8}
	printTableHeader(w, []string{"Rank", "Ticker", "Weight", "Target", "Shares"}, widths)
	for _, pos := range trades.Positions {
		printTableRow(w, []string{
			fmt.Sprintf("%d", pos.Rank),
			pos.Ticker,
			formatPercent(pos.Weight),
			formatMoney(pos.TargetValue),
			fmt.Sprintf("%d", pos.SharesToBuy),
		}, widths)
	}
}

// printReturns prints the equal vs tiered returns as a text bar chart
func printReturns(w io.Writer, returns *contracts.ReturnComparison) {
	if returns == nil {
		return
	}
	tieredLabel := fmt.Sprintf("Top %d at %.0f%%", returns.TopCount, returns.TopWeight*100)

	maxAbs := 0.0
	for _, v := range append(returns.Equal.Values(), returns.Tiered.Values()...) {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Portfolio Returns (Equal Weight vs "+tieredLabel+")")
	fmt.Fprintln(w, separator)
	for _, h := range contracts.AllHorizons() {
		fmt.Fprintf(w, "%-8s %-14s %s %s\n", h.Label(), "Equal", renderBar(returns.Equal[h], maxAbs, barWidth), formatPercent(returns.Equal[h]))
		fmt.Fprintf(w, "%-8s %-14s %s %s\n", "", tieredLabel, renderBar(returns.Tiered[h], maxAbs, barWidth), formatPercent(returns.Tiered[h]))
	}
	fmt.Fprintln(w, separator)
}

// printUnavailable lists tickers skipped for missing data
func printUnavailable(w io.Writer, unavailable []brain.UnavailableTicker) {
	if len(unavailable) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "⚠️  %d tickers skipped (data unavailable)\n", len(unavailable))
	for _, u := range unavailable {
		if u.Field != "" {
			fmt.Fprintf(w, "   • %s (%s): %s\n", u.Ticker, u.Field, u.Reason)
		} else {
			fmt.Fprintf(w, "   • %s: %s\n", u.Ticker, u.Reason)
		}
	}
}

// printReport prints the full console report
func printReport(w io.Writer, result *brain.RunResult) {
	printRunHeader(w, result)
	printSelection(w, result)
	printTrades(w, "Tiered Trades", result.TieredTrades)
	printReturns(w, result.Returns)
	printUnavailable(w, result.Unavailable)
}

// renderBar draws value as a bar scaled to maxAbs. Negative values use a lighter block.
func renderBar(value, maxAbs float64, width int) string {
	n := 0
	if maxAbs > 0 && !math.IsNaN(value) {
		n = int(math.Round(math.Abs(value) / maxAbs * float64(width)))
	}
	if n > width {
		n = width
	}
	block := "█"
	if value < 0 {
		block = "░"
	}
	return strings.Repeat(block, n) + strings.Repeat(" ", width-n)
}

func formatScore(rec *contracts.SecurityRecord, mode string) string {
	if mode == brain.ModePE {
		if pe := rec.Metrics[contracts.MetricPE]; pe != nil {
			return fmt.Sprintf("%.1f", *pe)
		}
		return "-"
	}
	if rec.CompositeScore == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *rec.CompositeScore*100)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// printTableHeader prints a table header
func printTableHeader(w io.Writer, columns []string, widths []int) {
	printTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// printTableRow prints a table row
func printTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printKeyValue prints key-value pairs
func printKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "  %-*s : %s\n", keyWidth, key, value)
}
