package matcher

import (
	"fmt"
	"math"

	"reward-reconciliation-service/internal/models"
)

// CandidateResult is the best-scoring candidate found in one dataset for one
// query record
type CandidateResult struct {
	Record models.Record `json:"record"`
	Score  float64       `json:"score"`
}

// BestMatch scans candidates in order and returns the highest-scoring one when
// its score reaches threshold. On equal scores the earlier candidate wins.
// It returns nil for an empty candidate list or when nothing clears the
// threshold. candidates is never modified.
func BestMatch(query models.Record, candidates []models.Record, keySpec models.KeySpec, threshold float64, similarity Similarity) *CandidateResult {
	if len(candidates) == 0 {
		return nil
	}
	if similarity == nil {
		similarity = DiceSimilarity{}
	}

	target := CompositeKey(query, keySpec)

	bestIndex := -1
	bestScore := 0.0
	for i, candidate := range candidates {
		score := clampScore(similarity.Score(target, CompositeKey(candidate, keySpec)))
		if bestIndex < 0 || score > bestScore {
			bestIndex = i
			bestScore = score
		}
	}

	if bestScore < threshold {
		return nil
	}

	return &CandidateResult{
		Record: candidates[bestIndex],
		Score:  bestScore,
	}
}

// MatchingEngine binds a validated configuration to its similarity strategy
type MatchingEngine struct {
	Config     *MatchingConfig
	similarity Similarity
}

// NewMatchingEngine creates a new matching engine with the specified configuration
func NewMatchingEngine(config *MatchingConfig) (*MatchingEngine, error) {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	similarity, err := NewSimilarity(config.Algorithm)
	if err != nil {
		return nil, err
	}

	return &MatchingEngine{
		Config:     config.Clone(),
		similarity: similarity,
	}, nil
}

// NewMatchingEngineWithSimilarity creates an engine that scores with a caller
// supplied strategy. config.Algorithm is ignored.
func NewMatchingEngineWithSimilarity(config *MatchingConfig, similarity Similarity) (*MatchingEngine, error) {
	if similarity == nil {
		return nil, fmt.Errorf("similarity strategy is required")
	}
	if config == nil {
		config = DefaultMatchingConfig()
	}

	if math.IsNaN(config.Threshold) || config.Threshold < 0.0 || config.Threshold > 1.0 {
		return nil, fmt.Errorf("invalid matching configuration: threshold must be between 0.0 and 1.0: %f", config.Threshold)
	}
	if err := config.KeySpec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching configuration: invalid key spec: %w", err)
	}

	return &MatchingEngine{
		Config:     config.Clone(),
		similarity: similarity,
	}, nil
}

// BestMatch finds the accepted candidate for query among candidates
func (me *MatchingEngine) BestMatch(query models.Record, candidates []models.Record) *CandidateResult {
	return BestMatch(query, candidates, me.Config.KeySpec, me.Config.Threshold, me.similarity)
}

// CompositeKey builds the composite key for record under the engine's key spec
func (me *MatchingEngine) CompositeKey(record models.Record) string {
	return CompositeKey(record, me.Config.KeySpec)
}

// Score compares two records with the engine's key spec and similarity strategy
func (me *MatchingEngine) Score(a, b models.Record) float64 {
	return clampScore(me.similarity.Score(me.CompositeKey(a), me.CompositeKey(b)))
}

// Similarity returns the strategy used by the engine
func (me *MatchingEngine) Similarity() Similarity {
	return me.similarity
}

// GetConfiguration returns a copy of the current configuration
func (me *MatchingEngine) GetConfiguration() *MatchingConfig {
	return me.Config.Clone()
}
