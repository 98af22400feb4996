package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"reward-reconciliation-service/cmd/reconciler/config"
	"reward-reconciliation-service/internal/matcher"
	"reward-reconciliation-service/internal/reconciler"
	"reward-reconciliation-service/internal/reporter"
	"reward-reconciliation-service/pkg/errors"
	"reward-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	transactionsFile string
	ledgerAFile      string
	ledgerBFile      string
	keys             []string
	threshold        float64
	algorithm        string
	parallel         bool
	maxConcurrency   int
	ledgerAName      string
	ledgerBName      string
	outputFormat     string
	outputFile       string
	showProgress     bool
	includeMatched   bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile reward transactions against two partner ledgers",
	Long: `Reconcile matches every transaction against ledger A and ledger B by
comparing composite keys built from the configured fields. A transaction is
matched when one ledger (or both, with the same entry) accepts it, conflicting
when the ledgers accept different entries, and unmatched otherwise.

Each input file must hold a JSON array of objects. A ledger file may be
omitted, in which case that ledger is treated as empty.

Examples:
  # Basic reconciliation
  reconciler reconcile --transactions tx.json --ledger-a alle.json --ledger-b aspire.json

  # Custom keys and a stricter threshold
  reconciler reconcile -t tx.json --ledger-a alle.json --ledger-b aspire.json \
    --keys clientName,amount --threshold 0.95

  # JSON report written to a file, matching in parallel
  reconciler reconcile -t tx.json --ledger-a alle.json --ledger-b aspire.json \
    --output-format json --output-file report.json --parallel --max-concurrency 8

  # Label the ledgers in the report
  reconciler reconcile -t tx.json --ledger-a alle.json --ledger-b aspire.json \
    --ledger-a-name alle --ledger-b-name aspire --include-matched`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Input flags
	reconcileCmd.Flags().StringVarP(&transactionsFile, "transactions", "t", "", "path to the transactions JSON file (required)")
	reconcileCmd.Flags().StringVar(&ledgerAFile, "ledger-a", "", "path to the ledger A JSON file")
	reconcileCmd.Flags().StringVar(&ledgerBFile, "ledger-b", "", "path to the ledger B JSON file")

	// Matching flags
	reconcileCmd.Flags().StringSliceVar(&keys, "keys", []string{"clientName", "date", "amount"}, "comma-separated key fields used for matching")
	reconcileCmd.Flags().Float64Var(&threshold, "threshold", matcher.DefaultThreshold, "minimum similarity score for a match (0.0-1.0)")
	reconcileCmd.Flags().StringVar(&algorithm, "algorithm", matcher.AlgorithmDice, "similarity algorithm: dice, levenshtein")
	reconcileCmd.Flags().BoolVar(&parallel, "parallel", false, "match transactions concurrently")
	reconcileCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", reconciler.DefaultConfig().MaxConcurrency, "maximum concurrent matching goroutines")

	// Report flags
	reconcileCmd.Flags().StringVar(&ledgerAName, "ledger-a-name", reconciler.ArgLedgerA, "display name for ledger A")
	reconcileCmd.Flags().StringVar(&ledgerBName, "ledger-b-name", reconciler.ArgLedgerB, "display name for ledger B")
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	reconcileCmd.Flags().BoolVar(&includeMatched, "include-matched", false, "list matched transactions in console output")

	// UI flags
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", false, "log matching progress")

	// Bind flags to viper
	viper.BindPFlag("transactions", reconcileCmd.Flags().Lookup("transactions"))
	viper.BindPFlag("ledger-a", reconcileCmd.Flags().Lookup("ledger-a"))
	viper.BindPFlag("ledger-b", reconcileCmd.Flags().Lookup("ledger-b"))
	viper.BindPFlag("keys", reconcileCmd.Flags().Lookup("keys"))
	viper.BindPFlag("threshold", reconcileCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("algorithm", reconcileCmd.Flags().Lookup("algorithm"))
	viper.BindPFlag("parallel", reconcileCmd.Flags().Lookup("parallel"))
	viper.BindPFlag("max-concurrency", reconcileCmd.Flags().Lookup("max-concurrency"))
	viper.BindPFlag("ledger-a-name", reconcileCmd.Flags().Lookup("ledger-a-name"))
	viper.BindPFlag("ledger-b-name", reconcileCmd.Flags().Lookup("ledger-b-name"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("include-matched", reconcileCmd.Flags().Lookup("include-matched"))
	viper.BindPFlag("progress", reconcileCmd.Flags().Lookup("progress"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	transactionsFile = viper.GetString("transactions")
	ledgerAFile = viper.GetString("ledger-a")
	ledgerBFile = viper.GetString("ledger-b")
	keys = viper.GetStringSlice("keys")
	threshold = viper.GetFloat64("threshold")
	algorithm = viper.GetString("algorithm")
	parallel = viper.GetBool("parallel")
	maxConcurrency = viper.GetInt("max-concurrency")
	ledgerAName = viper.GetString("ledger-a-name")
	ledgerBName = viper.GetString("ledger-b-name")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	includeMatched = viper.GetBool("include-matched")
	showProgress = viper.GetBool("progress")

	if transactionsFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "transactions", nil, nil).
			WithSuggestion("pass --transactions with the path to a JSON array of transactions")
	}
	if ledgerAFile == "" && ledgerBFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "ledger-a or ledger-b", nil, nil).
			WithSuggestion("pass at least one of --ledger-a and --ledger-b")
	}

	if err := validateFileExists(transactionsFile, "transactions file"); err != nil {
		return err
	}
	if ledgerAFile != "" {
		if err := validateFileExists(ledgerAFile, "ledger A file"); err != nil {
			return err
		}
	}
	if ledgerBFile != "" {
		if err := validateFileExists(ledgerBFile, "ledger B file"); err != nil {
			return err
		}
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", outputFormat, nil).
			WithSuggestion("valid formats: console, json")
	}

	if math.IsNaN(threshold) || threshold < 0.0 || threshold > 1.0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "threshold", threshold, nil).
			WithSuggestion("use a threshold between 0.0 and 1.0")
	}

	if maxConcurrency <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max-concurrency", maxConcurrency, nil).
			WithSuggestion("use a positive number of goroutines")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return errors.FileError(errors.CodeDirectoryError, dir, err)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, description, nil, nil)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err).WithContext("description", description)
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err).WithContext("description", description)
	}

	if info.IsDir() {
		return errors.FileError(errors.CodeDirectoryError, filePath, nil).
			WithContext("description", description).
			WithSuggestion(fmt.Sprintf("%s is a directory, expected a JSON file", description))
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err).WithContext("description", description)
	}
	file.Close()

	return nil
}

// loadDataset decodes a JSON file without imposing a shape. Numbers stay
// json.Number so that amounts keep their exact text. An empty path yields a
// nil dataset, which the engine treats as empty.
func loadDataset(path string) (interface{}, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, errors.FileError(errors.CodeInvalidFormat, path, err)
	}
	if decoder.More() {
		return nil, errors.FileError(errors.CodeInvalidFormat, path, fmt.Errorf("unexpected data after the top-level value"))
	}

	return value, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("cli")
	op := logger.NewOperationLogger("reconcile", log).
		WithField("transactions", transactionsFile).
		WithField("output_format", outputFormat)

	if err := reconcile(cmd, op); err != nil {
		op.Error(err, "Reconciliation failed")
		return err
	}

	op.Success("Reconciliation completed")
	return nil
}

func reconcile(cmd *cobra.Command, op *logger.OperationLogger) error {
	// Create configurations
	matchingConfig, err := config.CreateMatchingConfig(keys, threshold, algorithm)
	if err != nil {
		return err
	}
	reconcilerConfig := config.CreateReconcilerConfig(parallel, maxConcurrency, showProgress, ledgerAName, ledgerBName)
	reportConfig := config.CreateReportConfig(outputFormat, includeMatched)

	if err := config.ValidateConfig(matchingConfig, reconcilerConfig, reportConfig); err != nil {
		return err
	}

	op.Step("load datasets")
	transactions, err := loadDataset(transactionsFile)
	if err != nil {
		return err
	}
	ledgerA, err := loadDataset(ledgerAFile)
	if err != nil {
		return err
	}
	ledgerB, err := loadDataset(ledgerBFile)
	if err != nil {
		return err
	}

	service, err := reconciler.NewReconciliationService(matchingConfig, reconcilerConfig)
	if err != nil {
		return errors.WrapIfNeeded(err, errors.CategoryConfiguration, errors.CodeInvalidConfig, "failed to create reconciliation service")
	}

	op.Step("match records")
	report, err := service.ProcessReconciliation(transactions, ledgerA, ledgerB)
	if err != nil {
		return err
	}

	op.Step("write report")
	generator, err := reporter.NewSafeReportGenerator(reportConfig, logger.GetGlobalLogger())
	if err != nil {
		return err
	}

	// Determine output destination
	var output io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer file.Close()
		output = file
	}

	if err := generator.GenerateReportSafely(report, output); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		s := report.Summary
		fmt.Fprintf(cmd.ErrOrStderr(), "Reconciled %d transactions: %d matched (%.1f%%), %d conflicts, %d unmatched.\n",
			s.TotalTransactions, s.MatchedCount, s.MatchRate, s.ConflictCount, s.UnmatchedCount)
		if outputFile != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outputFile)
		}
	}

	return nil
}
