package config

import (
	"fmt"
	"strings"
	"time"

	"reward-reconciliation-service/internal/generator"
	"reward-reconciliation-service/internal/matcher"
	"reward-reconciliation-service/internal/models"
	"reward-reconciliation-service/internal/reconciler"
	"reward-reconciliation-service/internal/reporter"
	"reward-reconciliation-service/pkg/errors"
	"reward-reconciliation-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// CreateMatchingConfig creates a matching configuration from CLI values.
// Empty keys keep the default key spec; blank entries are dropped.
func CreateMatchingConfig(keys []string, threshold float64, algorithm string) (*matcher.MatchingConfig, error) {
	config := matcher.DefaultMatchingConfig()

	if spec := ParseKeys(keys); len(spec) > 0 {
		config.KeySpec = spec
	}
	config.Threshold = threshold
	if strings.TrimSpace(algorithm) != "" {
		config.Algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"matching",
			config.String(),
			err,
		).WithSuggestion(fmt.Sprintf("use a threshold between 0 and 1 and one of the algorithms: %s",
			strings.Join(matcher.AvailableAlgorithms(), ", ")))
	}

	return config, nil
}

// ParseKeys splits comma-separated key lists and trims each field name
func ParseKeys(keys []string) models.KeySpec {
	var spec models.KeySpec
	for _, k := range keys {
		for _, field := range strings.Split(k, ",") {
			if field = strings.TrimSpace(field); field != "" {
				spec = append(spec, field)
			}
		}
	}
	return spec
}

// CreateReconcilerConfig creates a reconciler configuration
func CreateReconcilerConfig(parallel bool, maxConcurrency int, showProgress bool, ledgerAName, ledgerBName string) *reconciler.Config {
	config := reconciler.DefaultConfig()

	config.Parallel = parallel
	if maxConcurrency > 0 {
		config.MaxConcurrency = maxConcurrency
	}
	config.ProgressReporting = showProgress
	if name := strings.TrimSpace(ledgerAName); name != "" {
		config.LedgerAName = name
	}
	if name := strings.TrimSpace(ledgerBName); name != "" {
		config.LedgerBName = name
	}

	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, includeMatched bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch strings.ToLower(format) {
	case "json":
		config.Format = reporter.FormatJSON
		config.PrettyJSON = true
	case "console":
		config.Format = reporter.FormatConsole
		config.IncludeConflicts = true
		config.IncludeUnmatched = true
	default:
		config.Format = reporter.OutputFormat(format)
	}
	config.IncludeMatched = includeMatched

	return config
}

// CreateLoggerConfig creates the CLI logger configuration. Verbose mode
// lowers the default warn level to info.
func CreateLoggerConfig(level, format string, verbose bool) *logger.Config {
	config := logger.DefaultConfig()

	if level != "" {
		config.Level = logger.Level(strings.ToLower(level))
	}
	if verbose && config.Level == logger.WarnLevel {
		config.Level = logger.InfoLevel
	}
	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}

	return config
}

// CreateGeneratorConfig creates a dataset generator configuration. Dates use
// YYYY-MM-DD; empty values keep the defaults.
func CreateGeneratorConfig(count int, seed int64, startDate, endDate, minAmount, maxAmount string) (*generator.Config, error) {
	config := generator.DefaultConfig()
	config.Count = count
	config.Seed = seed

	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "start-date", startDate, err).
				WithSuggestion("use the YYYY-MM-DD date format")
		}
		config.StartDate = t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "end-date", endDate, err).
				WithSuggestion("use the YYYY-MM-DD date format")
		}
		config.EndDate = t
	}
	if minAmount != "" {
		d, err := decimal.NewFromString(minAmount)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "min-amount", minAmount, err)
		}
		config.MinAmount = d
	}
	if maxAmount != "" {
		d, err := decimal.NewFromString(maxAmount)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "max-amount", maxAmount, err)
		}
		config.MaxAmount = d
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeConfigConflict, "generator", count, err)
	}

	return config, nil
}

// ValidateConfig validates that all required configurations are valid
func ValidateConfig(matchingConfig *matcher.MatchingConfig, reconcilerConfig *reconciler.Config, reportConfig *reporter.ReportConfig) error {
	if matchingConfig == nil || reconcilerConfig == nil || reportConfig == nil {
		return errors.ConfigurationError(errors.CodeMissingConfig, "reconcile", nil, nil)
	}

	if err := matchingConfig.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "matching", matchingConfig.String(), err)
	}

	if err := reconcilerConfig.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler", reconcilerConfig.LedgerAName+"/"+reconcilerConfig.LedgerBName, err)
	}

	if err := reportConfig.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", reportConfig.Format, err).
			WithSuggestion("valid formats: console, json")
	}

	return nil
}
