package reconciler

import (
	"fmt"
	"strings"
	"time"

	"reward-reconciliation-service/internal/matcher"
	"reward-reconciliation-service/internal/models"
	"reward-reconciliation-service/pkg/logger"

	"github.com/sourcegraph/conc/iter"
)

// ReconciliationService runs reconciliations with a fixed matching engine
type ReconciliationService struct {
	matchingEngine *matcher.MatchingEngine
	config         *Config
	logger         logger.Logger
}

// Config holds configuration options for the reconciliation service
type Config struct {
	// Processing options
	Parallel          bool `json:"parallel" mapstructure:"parallel"`
	MaxConcurrency    int  `json:"max_concurrency" mapstructure:"max_concurrency"`
	ProgressReporting bool `json:"progress_reporting" mapstructure:"progress_reporting"`

	// Labels used in reports
	LedgerAName string `json:"ledger_a_name" mapstructure:"ledger_a_name"`
	LedgerBName string `json:"ledger_b_name" mapstructure:"ledger_b_name"`
}

// DefaultConfig returns a default configuration for the reconciliation service
func DefaultConfig() *Config {
	return &Config{
		Parallel:          false,
		MaxConcurrency:    4,
		ProgressReporting: false,
		LedgerAName:       ArgLedgerA,
		LedgerBName:       ArgLedgerB,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", c.MaxConcurrency)
	}

	if strings.TrimSpace(c.LedgerAName) == "" || strings.TrimSpace(c.LedgerBName) == "" {
		return fmt.Errorf("ledger names cannot be empty")
	}

	if c.LedgerAName == c.LedgerBName {
		return fmt.Errorf("ledger names must differ, both are %q", c.LedgerAName)
	}

	return nil
}

func (c *Config) ledgerNames() LedgerNames {
	return LedgerNames{LedgerA: c.LedgerAName, LedgerB: c.LedgerBName}
}

// Reconcile classifies every transaction against both ledgers with the
// default similarity. A nil key spec means the default keys.
func Reconcile(transactions, ledgerA, ledgerB []models.Record, keySpec models.KeySpec, threshold float64) *Report {
	if keySpec == nil {
		keySpec = models.DefaultKeySpec()
	}

	sim := matcher.DiceSimilarity{}
	report := newReport(DefaultConfig().ledgerNames())

	for _, tx := range transactions {
		report.classify(tx,
			matcher.BestMatch(tx, ledgerA, keySpec, threshold, sim),
			matcher.BestMatch(tx, ledgerB, keySpec, threshold, sim),
		)
	}

	report.summarize()
	return report
}

// ledgerMatches holds one transaction's best candidates from both ledgers
type ledgerMatches struct {
	a *matcher.CandidateResult
	b *matcher.CandidateResult
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(matchingConfig *matcher.MatchingConfig, config *Config) (*ReconciliationService, error) {
	if matchingConfig == nil {
		matchingConfig = matcher.DefaultMatchingConfig()
	}

	engine, err := matcher.NewMatchingEngine(matchingConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create matching engine: %w", err)
	}

	return NewReconciliationServiceWithEngine(engine, config)
}

// NewReconciliationServiceWithEngine creates a service around an existing
// matching engine, for callers that supply their own similarity
func NewReconciliationServiceWithEngine(engine *matcher.MatchingEngine, config *Config) (*ReconciliationService, error) {
	if engine == nil {
		return nil, fmt.Errorf("matching engine cannot be nil")
	}

	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reconciliation configuration: %w", err)
	}

	cfg := *config
	return &ReconciliationService{
		matchingEngine: engine,
		config:         &cfg,
		logger:         logger.WithComponent("reconciler"),
	}, nil
}

// SetLogger replaces the service logger
func (rs *ReconciliationService) SetLogger(log logger.Logger) {
	if log != nil {
		rs.logger = log.WithComponent("reconciler")
	}
}

// ProcessReconciliation validates raw inputs and reconciles them. Input
// problems are reported as an InputError before any matching runs.
func (rs *ReconciliationService) ProcessReconciliation(transactions, ledgerA, ledgerB interface{}) (*Report, error) {
	datasets, err := NewDatasets(transactions, ledgerA, ledgerB)
	if err != nil {
		rs.logger.WithError(err).Warn("Rejected reconciliation input")
		return nil, err
	}

	return rs.Reconcile(datasets), nil
}

// Reconcile classifies each transaction against both ledgers. The
// transaction order is preserved inside each result list.
func (rs *ReconciliationService) Reconcile(datasets *Datasets) *Report {
	if datasets == nil {
		datasets = &Datasets{}
	}

	startTime := time.Now()
	rs.logger.WithFields(logger.Fields{
		"transactions":   len(datasets.Transactions),
		"ledger_a_size":  len(datasets.LedgerA),
		"ledger_b_size":  len(datasets.LedgerB),
		"parallel":       rs.config.Parallel,
		"matching_setup": rs.matchingEngine.GetConfiguration().String(),
	}).Debug("Starting reconciliation")

	var tracker *logger.ProgressTracker
	if rs.config.ProgressReporting {
		tracker = logger.NewProgressTracker(logger.ProgressConfig{
			Operation: "reconcile",
			Total:     int64(len(datasets.Transactions)),
			Logger:    rs.logger,
		})
	}

	matches := rs.findMatches(datasets, tracker)

	report := newReport(rs.config.ledgerNames())
	for i, tx := range datasets.Transactions {
		report.classify(tx, matches[i].a, matches[i].b)
	}
	report.summarize()

	if tracker != nil {
		tracker.Complete()
	}

	for _, c := range report.Conflicts {
		rs.logger.WithFields(logger.Fields{
			"transaction": c.Transaction.String(),
			"ledger_a":    c.LedgerAMatch.Record.String(),
			"ledger_b":    c.LedgerBMatch.Record.String(),
		}).Debug("Ledgers disagree on transaction")
	}

	rs.logger.WithFields(logger.Fields{
		"matched":    report.Summary.MatchedCount,
		"unmatched":  report.Summary.UnmatchedCount,
		"conflicts":  report.Summary.ConflictCount,
		"match_rate": fmt.Sprintf("%.1f%%", report.Summary.MatchRate),
		"duration":   time.Since(startTime).String(),
	}).Info("Reconciliation completed")

	return report
}

// findMatches returns the best candidates for every transaction, indexed
// like the transactions
func (rs *ReconciliationService) findMatches(datasets *Datasets, tracker *logger.ProgressTracker) []ledgerMatches {
	match := func(tx *models.Record) ledgerMatches {
		result := ledgerMatches{
			a: rs.matchingEngine.BestMatch(*tx, datasets.LedgerA),
			b: rs.matchingEngine.BestMatch(*tx, datasets.LedgerB),
		}
		if tracker != nil {
			tracker.Increment()
		}
		return result
	}

	if !rs.config.Parallel {
		results := make([]ledgerMatches, len(datasets.Transactions))
		for i := range datasets.Transactions {
			results[i] = match(&datasets.Transactions[i])
		}
		return results
	}

	mapper := iter.Mapper[models.Record, ledgerMatches]{
		MaxGoroutines: rs.config.MaxConcurrency,
	}
	return mapper.Map(datasets.Transactions, match)
}

// UpdateConfiguration updates the service configuration
func (rs *ReconciliationService) UpdateConfiguration(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := *config
	rs.config = &cfg
	return nil
}

// GetConfiguration returns a copy of the current configuration
func (rs *ReconciliationService) GetConfiguration() *Config {
	cfg := *rs.config
	return &cfg
}

// GetMatchingEngine returns the engine used for candidate selection
func (rs *ReconciliationService) GetMatchingEngine() *matcher.MatchingEngine {
	return rs.matchingEngine
}
