// Package report renders analysis results and recommendations for the terminal
// or as JSON documents.
package report

import (
	"fmt"
	"io"
	"strings"

	"fjacquet/statement-insights/internal/common"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"

	"github.com/olekukonko/tablewriter"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Generator renders reports in a chosen format.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a new Generator.
func NewGenerator(logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Generator{logger: logger.WithField("component", "ReportGenerator")}
}

// GenerateAnalysis writes result to w in the given format (table or json).
func (g *Generator) GenerateAnalysis(w io.Writer, result *models.AnalysisResult, format string) error {
	switch format {
	case FormatJSON:
		return g.writeJSON(w, result)
	case FormatTable, "":
		writeAnalysisTables(w, result)
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// GenerateRecommendations writes recs to w in the given format.
func (g *Generator) GenerateRecommendations(w io.Writer, recs *models.Recommendations, format string) error {
	switch format {
	case FormatJSON:
		return g.writeJSON(w, recs)
	case FormatTable, "":
		writeRecommendationTables(w, recs)
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *Generator) writeJSON(w io.Writer, v interface{}) error {
	if err := common.WriteJSON(w, v); err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}

func writeAnalysisTables(w io.Writer, r *models.AnalysisResult) {
	info := r.ReportInfo
	fmt.Fprintf(w, "Period: %s to %s (%d days, %d months)\n\n",
		info.FirstTransactionDate, info.LastTransactionDate, info.PeriodInDays, info.PeriodInMonths)

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Metric", "Value"})
	summary.SetAlignment(tablewriter.ALIGN_LEFT)
	summary.Append([]string{"Transactions", fmt.Sprint(r.Summary.TotalTransactions)})
	summary.Append([]string{"Income total", r.Summary.Income.Total.StringFixed(2)})
	summary.Append([]string{"Income monthly average", r.Summary.Income.MonthlyAverage.StringFixed(2)})
	summary.Append([]string{"Expenses total", r.Summary.Expenses.Total.StringFixed(2)})
	summary.Append([]string{"Expenses monthly average", r.Summary.Expenses.MonthlyAverage.StringFixed(2)})
	summary.Append([]string{"Cash flow daily", r.Summary.CashFlow.Daily.StringFixed(2)})
	summary.Append([]string{"Cash flow monthly", r.Summary.CashFlow.Monthly.StringFixed(2)})
	summary.Append([]string{"Cash flow annual", r.Summary.CashFlow.Annual.StringFixed(2)})
	summary.Render()

	for _, part := range []struct {
		title     string
		partition models.Partition
	}{
		{"Expenses", r.Summary.Expenses},
		{"Income", r.Summary.Income},
	} {
		if len(part.partition.Categories) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s by category\n", part.title)
		writeCategoryTable(w, part.partition.Categories)
	}

	if len(r.WealthForecasts) > 0 {
		fmt.Fprintln(w, "\nWealth forecast")
		forecasts := tablewriter.NewWriter(w)
		forecasts.SetHeader([]string{"Years", "Amount", "Monthly contribution"})
		for _, f := range r.WealthForecasts {
			forecasts.Append([]string{fmt.Sprint(f.Years), f.Amount.StringFixed(2), f.MonthlyContribution.StringFixed(2)})
		}
		forecasts.Render()
	}
}

func writeCategoryTable(w io.Writer, groups []models.CategoryGroup) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Category", "Total", "Share", "Trend", "Top counterparty"})
	for _, g := range groups {
		top := ""
		if len(g.Counterparties) > 0 {
			top = g.Counterparties[0].Name
		}
		table.Append([]string{
			string(g.Name),
			g.Total.StringFixed(2),
			fmt.Sprintf("%.2f%%", g.Percentage),
			string(g.Trend),
			top,
		})
	}
	table.Render()
}

func writeRecommendationTables(w io.Writer, recs *models.Recommendations) {
	tiers := []struct {
		name  string
		items []models.Recommendation
	}{
		{"Easy", recs.Recommendations.Easy},
		{"Moderate", recs.Recommendations.Moderate},
		{"Significant", recs.Recommendations.Significant},
	}
	for i, tier := range tiers {
		if len(tier.items) == 0 {
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s recommendations\n", tier.name)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Title", "Monthly", "Yearly", "Steps"})
		table.SetAutoWrapText(false)
		for _, rec := range tier.items {
			table.Append([]string{
				rec.Title,
				fmt.Sprintf("%.2f", rec.Impact.Monthly),
				fmt.Sprintf("%.2f", rec.Impact.Yearly),
				strings.Join(rec.Steps, "; "),
			})
		}
		table.Render()
	}
}
