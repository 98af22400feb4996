package cmd

import (
	"fmt"

	"reward-reconciliation-service/cmd/reconciler/config"
	"reward-reconciliation-service/internal/generator"
	"reward-reconciliation-service/pkg/errors"
	"reward-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the generate command
var (
	generateDir   string
	generateCount int
	generateSeed  int64
	genStartDate  string
	genEndDate    string
	genMinAmount  string
	genMaxAmount  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sample transaction and ledger datasets",
	Long: `Generate writes transactions.json, ledger_a.json and ledger_b.json into
the output directory. The datasets mix transactions found in one ledger, in
both, in conflicting form, with reformatted client names, and in neither.
The same seed always produces the same files.

Examples:
  reconciler generate --output-dir ./data
  reconciler generate --output-dir ./data --count 1000 --seed 42 \
    --start-date 2025-01-01 --end-date 2025-03-31`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := generator.DefaultConfig()

	generateCmd.Flags().StringVarP(&generateDir, "output-dir", "d", ".", "directory to write the datasets into")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", defaults.Count, "number of transactions to generate")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", defaults.Seed, "random seed")
	generateCmd.Flags().StringVar(&genStartDate, "start-date", defaults.StartDate.Format("2006-01-02"), "earliest transaction date (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&genEndDate, "end-date", defaults.EndDate.Format("2006-01-02"), "latest transaction date (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&genMinAmount, "min-amount", defaults.MinAmount.String(), "smallest transaction amount")
	generateCmd.Flags().StringVar(&genMaxAmount, "max-amount", defaults.MaxAmount.String(), "largest transaction amount")

	viper.BindPFlag("generate.output-dir", generateCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("generate.count", generateCmd.Flags().Lookup("count"))
	viper.BindPFlag("generate.seed", generateCmd.Flags().Lookup("seed"))
	viper.BindPFlag("generate.start-date", generateCmd.Flags().Lookup("start-date"))
	viper.BindPFlag("generate.end-date", generateCmd.Flags().Lookup("end-date"))
	viper.BindPFlag("generate.min-amount", generateCmd.Flags().Lookup("min-amount"))
	viper.BindPFlag("generate.max-amount", generateCmd.Flags().Lookup("max-amount"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	genConfig, err := config.CreateGeneratorConfig(
		viper.GetInt("generate.count"),
		viper.GetInt64("generate.seed"),
		viper.GetString("generate.start-date"),
		viper.GetString("generate.end-date"),
		viper.GetString("generate.min-amount"),
		viper.GetString("generate.max-amount"),
	)
	if err != nil {
		return err
	}

	gen, err := generator.New(genConfig)
	if err != nil {
		return errors.WrapIfNeeded(err, errors.CategoryConfiguration, errors.CodeInvalidConfig, "invalid generator configuration")
	}

	dir := viper.GetString("generate.output-dir")
	logger.GetGlobalLogger().WithComponent("cli").WithFields(logger.Fields{
		"count":      genConfig.Count,
		"seed":       genConfig.Seed,
		"output_dir": dir,
	}).Info("Generating datasets")

	dataset := gen.Generate()
	paths, err := dataset.WriteJSON(dir)
	if err != nil {
		return errors.FileError(errors.CodeDirectoryError, dir, err)
	}

	out := cmd.OutOrStdout()
	for _, path := range paths {
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	fmt.Fprintf(out, "%d transactions: %d ledger A only, %d ledger B only, %d both, %d conflicting, %d variant, %d missing\n",
		len(dataset.Transactions),
		dataset.CountKind(generator.KindLedgerA),
		dataset.CountKind(generator.KindLedgerB),
		dataset.CountKind(generator.KindBoth),
		dataset.CountKind(generator.KindConflict),
		dataset.CountKind(generator.KindVariant),
		dataset.CountKind(generator.KindMissing),
	)

	return nil
}
