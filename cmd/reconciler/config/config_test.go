package config

import (
	"testing"

	"reward-reconciliation-service/internal/matcher"
	"reward-reconciliation-service/internal/models"
	"reward-reconciliation-service/internal/reconciler"
	"reward-reconciliation-service/internal/reporter"
	"reward-reconciliation-service/pkg/errors"
	"reward-reconciliation-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMatchingConfig(t *testing.T) {
	tests := []struct {
		name        string
		keys        []string
		threshold   float64
		algorithm   string
		expectKeys  models.KeySpec
		expectAlgo  string
		expectError bool
	}{
		{
			name:       "defaults",
			threshold:  matcher.DefaultThreshold,
			expectKeys: models.DefaultKeySpec(),
			expectAlgo: matcher.AlgorithmDice,
		},
		{
			name:       "custom keys from comma list",
			keys:       []string{"clientName, amount"},
			threshold:  0.9,
			algorithm:  "Levenshtein",
			expectKeys: models.KeySpec{"clientName", "amount"},
			expectAlgo: matcher.AlgorithmLevenshtein,
		},
		{
			name:       "blank keys fall back to defaults",
			keys:       []string{" ", ","},
			threshold:  0.5,
			expectKeys: models.DefaultKeySpec(),
			expectAlgo: matcher.AlgorithmDice,
		},
		{
			name:        "threshold above one",
			threshold:   1.5,
			expectError: true,
		},
		{
			name:        "unknown algorithm",
			threshold:   0.85,
			algorithm:   "soundex",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateMatchingConfig(tt.keys, tt.threshold, tt.algorithm)

			if tt.expectError {
				require.Error(t, err)
				rerr, ok := errors.AsReconcilerError(err)
				require.True(t, ok, "expected a reconciler error, got %v", err)
				assert.Equal(t, errors.CategoryConfiguration, rerr.Category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectKeys, config.KeySpec)
			assert.Equal(t, tt.threshold, config.Threshold)
			assert.Equal(t, tt.expectAlgo, config.Algorithm)
		})
	}
}

func TestParseKeys(t *testing.T) {
	got := ParseKeys([]string{"clientName,date", " amount ", ""})
	assert.Equal(t, models.KeySpec{"clientName", "date", "amount"}, got)

	assert.Nil(t, ParseKeys(nil), "no input means no key spec")
}

func TestCreateReconcilerConfig(t *testing.T) {
	config := CreateReconcilerConfig(true, 8, true, "alle", " aspire ")

	assert.True(t, config.Parallel)
	assert.Equal(t, 8, config.MaxConcurrency)
	assert.True(t, config.ProgressReporting)
	assert.Equal(t, "alle", config.LedgerAName)
	assert.Equal(t, "aspire", config.LedgerBName)
	assert.NoError(t, config.Validate())

	defaults := CreateReconcilerConfig(false, 0, false, "", "")
	assert.Equal(t, reconciler.DefaultConfig().MaxConcurrency, defaults.MaxConcurrency)
	assert.Equal(t, reconciler.ArgLedgerA, defaults.LedgerAName)
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format         string
		includeMatched bool
		expectFormat   reporter.OutputFormat
		expectValid    bool
	}{
		{"console", false, reporter.FormatConsole, true},
		{"JSON", true, reporter.FormatJSON, true},
		{"csv", false, reporter.OutputFormat("csv"), false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config := CreateReportConfig(tt.format, tt.includeMatched)

			assert.Equal(t, tt.expectFormat, config.Format)
			assert.Equal(t, tt.includeMatched, config.IncludeMatched)
			if tt.expectValid {
				assert.NoError(t, config.Validate())
			} else {
				assert.Error(t, config.Validate())
			}
		})
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		format       string
		verbose      bool
		expectLevel  logger.Level
		expectFormat logger.Format
	}{
		{"defaults", "", "", false, logger.WarnLevel, logger.TextFormat},
		{"verbose raises to info", "", "", true, logger.InfoLevel, logger.TextFormat},
		{"explicit debug wins", "DEBUG", "json", true, logger.DebugLevel, logger.JSONFormat},
		{"explicit error kept", "error", "", true, logger.ErrorLevel, logger.TextFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateLoggerConfig(tt.level, tt.format, tt.verbose)
			assert.Equal(t, tt.expectLevel, config.Level)
			assert.Equal(t, tt.expectFormat, config.Format)
		})
	}
}

func TestCreateGeneratorConfig(t *testing.T) {
	config, err := CreateGeneratorConfig(25, 9, "2025-03-01", "2025-03-31", "5", "50.50")
	require.NoError(t, err)
	assert.Equal(t, 25, config.Count)
	assert.Equal(t, int64(9), config.Seed)
	assert.Equal(t, "2025-03-01", config.StartDate.Format("2006-01-02"))
	assert.Equal(t, "50.5", config.MaxAmount.String())

	invalid := []struct {
		name                 string
		start, end, min, max string
		count                int
	}{
		{"bad start date", "03/01/2025", "", "", "", 10},
		{"bad end date", "", "tomorrow", "", "", 10},
		{"bad amount", "", "", "ten", "", 10},
		{"reversed dates", "2025-04-01", "2025-03-01", "", "", 10},
		{"negative count", "", "", "", "", -1},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateGeneratorConfig(tt.count, 1, tt.start, tt.end, tt.min, tt.max)
			assert.Error(t, err)
		})
	}
}

func TestValidateConfig(t *testing.T) {
	matching := matcher.DefaultMatchingConfig()
	reconcilerConfig := reconciler.DefaultConfig()
	report := reporter.DefaultReportConfig()

	assert.NoError(t, ValidateConfig(matching, reconcilerConfig, report))
	assert.Error(t, ValidateConfig(nil, reconcilerConfig, report), "missing matching config")

	badReport := CreateReportConfig("xml", false)
	err := ValidateConfig(matching, reconcilerConfig, badReport)
	rerr, ok := errors.AsReconcilerError(err)
	require.True(t, ok, "expected a reconciler error, got %v", err)
	assert.Equal(t, 4, rerr.GetExitCode())

	sameNames := CreateReconcilerConfig(false, 1, false, "alle", "alle")
	assert.Error(t, ValidateConfig(matching, sameNames, report), "identical ledger names")
}
