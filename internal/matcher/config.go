// Package matcher provides fuzzy record matching for reward-program reconciliation.
//
// Records from a point-of-sale export and from reward ledgers rarely agree
// byte for byte: patient names are misspelled, amounts are formatted
// differently, and dates arrive with stray whitespace. The matcher therefore
// compares composite keys built from a configurable list of fields and accepts
// the best-scoring candidate only when it clears a similarity threshold.
//
// The matching pipeline:
//  1. Normalize each key field (trim, lower-case, stringify numbers)
//  2. Join the normalized fields into a composite key
//  3. Score the query key against every candidate key with a Similarity strategy
//  4. Keep the highest score, first candidate wins on ties
//  5. Accept the winner only if its score is at least the threshold
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	config.Threshold = 0.9
//
//	engine, err := matcher.NewMatchingEngine(config)
//	if err != nil {
//		return err
//	}
//	if match := engine.BestMatch(transaction, ledger); match != nil {
//		fmt.Println(match.Score)
//	}
package matcher

import (
	"fmt"
	"math"
	"strings"

	"reward-reconciliation-service/internal/models"
)

// DefaultThreshold is the minimum similarity accepted when none is configured
const DefaultThreshold = 0.85

// MatchingConfig holds the parameters of a matching run.
//
// Use the provided factory functions for common scenarios:
//   - DefaultMatchingConfig(): the behaviour reconciliation was tuned for
//   - StrictMatchingConfig(): only near-identical records match
//   - RelaxedMatchingConfig(): tolerate heavier typos, expect more review work
type MatchingConfig struct {
	// Threshold is the minimum score for a candidate to be accepted (inclusive)
	Threshold float64 `json:"threshold" mapstructure:"threshold"`

	// KeySpec lists the fields that make up the composite key, in order
	KeySpec models.KeySpec `json:"key_spec" mapstructure:"keys"`

	// Algorithm names the similarity strategy (see NewSimilarity)
	Algorithm string `json:"algorithm" mapstructure:"algorithm"`
}

// DefaultMatchingConfig returns a configuration with sensible defaults
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Threshold: DefaultThreshold,
		KeySpec:   models.DefaultKeySpec(),
		Algorithm: AlgorithmDice,
	}
}

// StrictMatchingConfig returns a configuration for strict matching
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Threshold: 0.95,
		KeySpec:   models.DefaultKeySpec(),
		Algorithm: AlgorithmDice,
	}
}

// RelaxedMatchingConfig returns a configuration for relaxed matching
func RelaxedMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		Threshold: 0.75,
		KeySpec:   models.DefaultKeySpec(),
		Algorithm: AlgorithmDice,
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if math.IsNaN(mc.Threshold) || mc.Threshold < 0.0 || mc.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0: %f", mc.Threshold)
	}

	if err := mc.KeySpec.Validate(); err != nil {
		return fmt.Errorf("invalid key spec: %w", err)
	}

	if _, err := NewSimilarity(mc.Algorithm); err != nil {
		return err
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	return &MatchingConfig{
		Threshold: mc.Threshold,
		KeySpec:   mc.KeySpec.Clone(),
		Algorithm: mc.Algorithm,
	}
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{Threshold: %.2f, Keys: [%s], Algorithm: %s}",
		mc.Threshold, strings.Join(mc.KeySpec, ", "), mc.Algorithm)
}
