// Package reporter renders reconciliation reports.
//
// Two output formats are supported:
//   - Console: human-readable sections for terminal display
//   - JSON: the full report structure for programmatic consumption
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	if err != nil {
//		return err
//	}
//	err = generator.GenerateReport(report, os.Stdout)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"reward-reconciliation-service/internal/reconciler"

	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation. The
// Include options and MaxItems shape console output only; JSON output always
// carries the complete report.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	IncludeMatched   bool `json:"include_matched"`
	IncludeUnmatched bool `json:"include_unmatched"`
	IncludeConflicts bool `json:"include_conflicts"`

	// MaxItems caps each console list; 0 lists everything
	MaxItems int `json:"max_items"`

	PrettyJSON bool `json:"pretty_json"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeMatched:   false,
		IncludeUnmatched: true,
		IncludeConflicts: true,
		MaxItems:         10,
		PrettyJSON:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}

	return nil
}

// ReportGenerator generates reconciliation reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport renders report and writes it to writer
func (rg *ReportGenerator) GenerateReport(report *reconciler.Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("reconciliation report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateJSONReport(report *reconciler.Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	if rg.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(report)
}

// consoleWriter remembers the first write error so that the many Fprintf
// calls of a console report need a single check
type consoleWriter struct {
	w   io.Writer
	err error
}

func (cw *consoleWriter) printf(format string, args ...interface{}) {
	if cw.err != nil {
		return
	}
	_, cw.err = fmt.Fprintf(cw.w, format, args...)
}

func (rg *ReportGenerator) generateConsoleReport(report *reconciler.Report, writer io.Writer) error {
	out := &consoleWriter{w: writer}
	names := report.Ledgers

	out.printf("RECONCILIATION REPORT\n")
	out.printf("Ledgers: %s (A), %s (B)\n\n", names.LedgerA, names.LedgerB)

	out.printf("=== SUMMARY ===\n")
	rg.printSummary(out, report)
	out.printf("\n")

	out.printf("=== AMOUNTS ===\n")
	rg.printAmounts(out, report.Summary)
	out.printf("\n")

	if rg.config.IncludeConflicts && len(report.Conflicts) > 0 {
		out.printf("=== CONFLICTS ===\n")
		rg.printConflicts(out, report)
		out.printf("\n")
	}

	if rg.config.IncludeUnmatched && len(report.Unmatched) > 0 {
		out.printf("=== UNMATCHED TRANSACTIONS ===\n")
		rg.printUnmatched(out, report.Unmatched)
		out.printf("\n")
	}

	if rg.config.IncludeMatched && len(report.Matched) > 0 {
		out.printf("=== MATCHED TRANSACTIONS ===\n")
		rg.printMatched(out, report)
		out.printf("\n")
	}

	return out.err
}

func (rg *ReportGenerator) printSummary(out *consoleWriter, report *reconciler.Report) {
	s := report.Summary

	out.printf("Transactions:\n")
	out.printf("  Total:     %d\n", s.TotalTransactions)
	out.printf("  Matched:   %d (%.1f%%)\n", s.MatchedCount, s.MatchRate)
	out.printf("    via %s: %d\n", report.Ledgers.LedgerA, s.MatchedFromLedgerA)
	out.printf("    via %s: %d\n", report.Ledgers.LedgerB, s.MatchedFromLedgerB)
	out.printf("    via both: %d\n", s.MatchedFromBoth)
	out.printf("  Conflicts: %d (%.1f%%)\n", s.ConflictCount, percentage(s.ConflictCount, s.TotalTransactions))
	out.printf("  Unmatched: %d (%.1f%%)\n", s.UnmatchedCount, percentage(s.UnmatchedCount, s.TotalTransactions))
}

func (rg *ReportGenerator) printAmounts(out *consoleWriter, s reconciler.Summary) {
	out.printf("Matched Amount:   %s\n", s.MatchedAmount.StringFixed(2))
	out.printf("Conflict Amount:  %s\n", s.ConflictAmount.StringFixed(2))
	out.printf("Unmatched Amount: %s\n", s.UnmatchedAmount.StringFixed(2))

	total := s.MatchedAmount.Add(s.ConflictAmount).Add(s.UnmatchedAmount)
	if !total.IsZero() {
		unmatchedShare := s.UnmatchedAmount.Div(total).Mul(decimal.NewFromInt(100))
		out.printf("Unmatched Share:  %s%%\n", unmatchedShare.StringFixed(1))
	}

	if s.UnparseableAmounts > 0 {
		out.printf("Unreadable amounts skipped: %d\n", s.UnparseableAmounts)
	}
}

func (rg *ReportGenerator) printConflicts(out *consoleWriter, report *reconciler.Report) {
	out.printf("Total Conflicts: %d\n\n", len(report.Conflicts))

	for i, c := range report.Conflicts {
		if rg.limitReached(out, i, len(report.Conflicts)) {
			break
		}
		out.printf("  %d. %s\n", i+1, c.Transaction)
		out.printf("     %s: %s (score %.2f)\n", report.Ledgers.LedgerA, c.LedgerAMatch.Record, c.LedgerAMatch.Score)
		out.printf("     %s: %s (score %.2f)\n", report.Ledgers.LedgerB, c.LedgerBMatch.Record, c.LedgerBMatch.Score)
	}
}

func (rg *ReportGenerator) printUnmatched(out *consoleWriter, unmatched []reconciler.Unmatched) {
	out.printf("Total Unmatched Transactions: %d\n\n", len(unmatched))

	for i, u := range unmatched {
		if rg.limitReached(out, i, len(unmatched)) {
			break
		}
		out.printf("  %d. %s\n", i+1, u.Transaction)
	}
}

func (rg *ReportGenerator) printMatched(out *consoleWriter, report *reconciler.Report) {
	out.printf("Total Matched Transactions: %d\n\n", len(report.Matched))

	for i, m := range report.Matched {
		if rg.limitReached(out, i, len(report.Matched)) {
			break
		}
		out.printf("  %d. %s\n", i+1, m.Transaction)
		out.printf("     %s: %s (score %.2f)\n", sourceLabel(report.Ledgers, m.Source), m.MatchedRecord, m.Score)
	}
}

// limitReached prints the overflow line once the configured cap is hit
func (rg *ReportGenerator) limitReached(out *consoleWriter, index, total int) bool {
	if rg.config.MaxItems == 0 || index < rg.config.MaxItems {
		return false
	}
	out.printf("  ... and %d more\n", total-rg.config.MaxItems)
	return true
}

func sourceLabel(names reconciler.LedgerNames, source reconciler.MatchSource) string {
	switch source {
	case reconciler.SourceLedgerA:
		return names.LedgerA
	case reconciler.SourceLedgerB:
		return names.LedgerB
	default:
		return fmt.Sprintf("%s+%s", names.LedgerA, names.LedgerB)
	}
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if config == nil {
		return fmt.Errorf("report configuration cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
