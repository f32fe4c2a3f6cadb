// Package output provides utilities for formatting and displaying schedules.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/format"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/iwvelando/finance-schedule/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var csvHeader = []string{"simulation", "item", "kind", "dueDate", "elapsed", "nominal", "presentValue", "discount"}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []simulation.Result, currency string) {
	WritePretty(os.Stdout, results, currency)
}

// WritePretty writes one table per result to w.
func WritePretty(w io.Writer, results []simulation.Result, currency string) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		schedule := result.Schedule
		fmt.Fprintf(w, "--- Schedule for simulation %s ---\n", result.Name)
		if schedule == nil {
			continue
		}
		terms := schedule.Terms
		_, _ = p.Fprintf(w, "Principal %s | %s | %d installments | %s days\n",
			format.Currency(terms.Principal, currency), terms.Modality, terms.Installments, terms.DayCount)
		fmt.Fprintf(w, "Rates: %s monthly | %s semiannual | %s annual | %s daily\n",
			format.Percent(schedule.Rates.Monthly), format.Percent(schedule.Rates.Semiannual),
			format.Percent(schedule.Rates.Annual), format.Percent(schedule.Rates.Daily))
		fmt.Fprintf(w, "Item | Due date | Days | Nominal | Present value | Discount\n")
		fmt.Fprintf(w, "____ | ________ | ____ | _______ | _____________ | ________\n")
		for _, row := range schedule.Rows {
			due, days := "", ""
			if !row.IsTotal() {
				due = datetime.FormatDate(row.DueDate)
				days = p.Sprintf("%d", row.Elapsed)
			}
			fmt.Fprintf(w, "%s | %s | %s | %s | %s | %s\n", row.Item, due, days,
				format.Currency(row.Nominal, currency),
				format.Currency(row.PresentValue, currency),
				format.Currency(row.Discount, currency))
		}
		for _, warning := range schedule.Warnings {
			fmt.Fprintf(w, "Warning: %s\n", warning.Message)
			fmt.Fprintf(w, "  Unallocated: %s\n", format.Currency(warning.Residual, currency))
		}
		if len(results) > 1 && i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// PrettyOptimization writes an optimizer summary.
func PrettyOptimization(w io.Writer, summary optimization.Summary) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "--- Installment count for simulation %s ---\n", summary.Simulation)
	status := "within budget"
	if !summary.Converged {
		status = "over budget"
	}
	_, _ = p.Fprintf(w, "%d installments of %s at %.4f%% monthly (%s, budget %s)\n",
		summary.Value, summary.InstallmentDisplay, summary.MonthlyRate, status, summary.BudgetDisplay)
	_, _ = p.Fprintf(w, "Configured: %d | Searched: %d-%d | Iterations: %d\n",
		summary.Original, summary.MinValue, summary.MaxValue, summary.Iterations)
	for _, note := range summary.Notes {
		fmt.Fprintf(w, "Note: %s\n", note)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []simulation.Result) {
	_ = WriteCsv(os.Stdout, results)
}

// CsvString renders results in CSV format and returns the string representation.
func CsvString(results []simulation.Result) string {
	var buf bytes.Buffer
	_ = WriteCsv(&buf, results)
	return buf.String()
}

// WriteCsv writes every row of every result, one line per row. Amounts are
// plain decimals with two places.
func WriteCsv(w io.Writer, results []simulation.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		if result.Schedule == nil {
			continue
		}
		for _, row := range result.Schedule.Rows {
			if err := writer.Write(csvRecord(result.Name, row)); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvRecord(name string, row loans.CashFlowRow) []string {
	due, elapsed := "", ""
	if !row.IsTotal() {
		due = datetime.FormatDate(row.DueDate)
		elapsed = strconv.Itoa(row.Elapsed)
	}
	return []string{
		name,
		row.Item,
		strings.ToLower(row.Kind.String()),
		due,
		elapsed,
		row.Nominal.StringFixed(2),
		row.PresentValue.StringFixed(2),
		row.Discount.StringFixed(2),
	}
}
