package matcher

import (
	"math"
	"testing"

	"reward-reconciliation-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLedger() []models.Record {
	return []models.Record{
		{"id": "AL-1", "clientName": "Maria Garcia", "date": "2025-05-03", "amount": "450"},
		{"id": "AL-2", "clientName": "John Smith", "date": "2025-05-01", "amount": "100"},
		{"id": "AL-3", "clientName": "Priya Patel", "date": "2025-05-07", "amount": "1200"},
	}
}

func TestBestMatch_ExactKey(t *testing.T) {
	ledger := createTestLedger()
	query := models.Record{"clientName": "John Smith", "date": "2025-05-01", "amount": 100}

	result := BestMatch(query, ledger, models.DefaultKeySpec(), DefaultThreshold, DiceSimilarity{})

	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, "AL-2", result.Record["id"])
}

func TestBestMatch_FuzzyName(t *testing.T) {
	ledger := createTestLedger()
	query := models.Record{"clientName": "Jon Smith", "date": "2025-05-01", "amount": "100"}

	result := BestMatch(query, ledger, models.DefaultKeySpec(), DefaultThreshold, DiceSimilarity{})

	require.NotNil(t, result)
	assert.GreaterOrEqual(t, result.Score, DefaultThreshold)
	assert.Equal(t, "AL-2", result.Record["id"])
}

func TestBestMatch_BelowThreshold(t *testing.T) {
	ledger := createTestLedger()
	query := models.Record{"clientName": "Zed Quinn", "date": "2024-12-24", "amount": "9"}

	assert.Nil(t, BestMatch(query, ledger, models.DefaultKeySpec(), DefaultThreshold, DiceSimilarity{}))
}

func TestBestMatch_EmptyCandidates(t *testing.T) {
	query := models.Record{"clientName": "John Smith"}

	assert.Nil(t, BestMatch(query, nil, models.DefaultKeySpec(), 0, DiceSimilarity{}))
	assert.Nil(t, BestMatch(query, []models.Record{}, models.DefaultKeySpec(), 0, DiceSimilarity{}))
}

func TestBestMatch_ThresholdIsInclusive(t *testing.T) {
	keys := models.KeySpec{"name"}
	query := models.Record{"name": "aaaa"}
	candidates := []models.Record{{"name": "aa"}}

	// "aaaa" vs "aa" shares one of four bigram slots: exactly 0.5
	result := BestMatch(query, candidates, keys, 0.5, DiceSimilarity{})
	require.NotNil(t, result)
	assert.Equal(t, 0.5, result.Score)

	assert.Nil(t, BestMatch(query, candidates, keys, 0.5000001, DiceSimilarity{}))

	fixed := SimilarityFunc(func(a, b string) float64 { return 0.85 })
	assert.NotNil(t, BestMatch(query, candidates, keys, 0.85, fixed))
}

func TestBestMatch_FirstSeenWinsOnTie(t *testing.T) {
	keys := models.DefaultKeySpec()
	query := models.Record{"clientName": "John Smith", "date": "2025-05-01", "amount": "100"}

	first := models.Record{"id": "first", "clientName": "John Smith", "date": "2025-05-01", "amount": "100"}
	other := models.Record{"id": "other", "clientName": "Jane Doe", "date": "2025-06-01", "amount": "80"}
	second := models.Record{"id": "second", "clientName": "John Smith", "date": "2025-05-01", "amount": "100"}

	orders := []struct {
		name       string
		candidates []models.Record
		expected   string
	}{
		{name: "first before second", candidates: []models.Record{first, other, second}, expected: "first"},
		{name: "second before first", candidates: []models.Record{other, second, first}, expected: "second"},
		{name: "unrelated record moved", candidates: []models.Record{first, second, other}, expected: "first"},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			result := BestMatch(query, tt.candidates, keys, DefaultThreshold, DiceSimilarity{})
			require.NotNil(t, result)
			assert.Equal(t, tt.expected, result.Record["id"])
		})
	}
}

func TestBestMatch_DoesNotMutateCandidates(t *testing.T) {
	ledger := createTestLedger()
	snapshot := make([]models.Record, len(ledger))
	for i, r := range ledger {
		clone := models.Record{}
		for k, v := range r {
			clone[k] = v
		}
		snapshot[i] = clone
	}

	query := models.Record{"clientName": "Priya Patel", "date": "2025-05-07", "amount": "1200"}
	BestMatch(query, ledger, models.DefaultKeySpec(), DefaultThreshold, DiceSimilarity{})

	require.Len(t, ledger, len(snapshot))
	for i := range ledger {
		assert.True(t, snapshot[i].Equal(ledger[i]), "candidate %d changed", i)
	}
}

func TestBestMatch_EmptyKeysMatchEachOther(t *testing.T) {
	// Records missing every key field produce identical (empty) keys and are
	// accepted as perfect matches. This documents current behaviour for sparse data.
	query := models.Record{"notes": "walk-in"}
	candidates := []models.Record{{"provider": "Dr. Lee"}}

	result := BestMatch(query, candidates, models.DefaultKeySpec(), DefaultThreshold, DiceSimilarity{})

	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.Score)
}

func TestBestMatch_ClampsStrategyScores(t *testing.T) {
	query := models.Record{"clientName": "x"}
	candidates := []models.Record{{"clientName": "y"}}

	tooHigh := SimilarityFunc(func(a, b string) float64 { return 1.7 })
	result := BestMatch(query, candidates, models.DefaultKeySpec(), 0.9, tooHigh)
	require.NotNil(t, result)
	assert.Equal(t, 1.0, result.Score)

	negative := SimilarityFunc(func(a, b string) float64 { return -3 })
	result = BestMatch(query, candidates, models.DefaultKeySpec(), 0, negative)
	require.NotNil(t, result)
	assert.Equal(t, 0.0, result.Score)
}

func TestBestMatch_NilSimilarityDefaultsToDice(t *testing.T) {
	query := models.Record{"clientName": "Jon Smith", "date": "2025-05-01", "amount": "100"}
	result := BestMatch(query, createTestLedger(), models.DefaultKeySpec(), DefaultThreshold, nil)

	require.NotNil(t, result)
	assert.InDelta(t, 38.0/41.0, result.Score, 1e-9)
}

func TestNewMatchingEngine(t *testing.T) {
	engine, err := NewMatchingEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, engine.Config.Threshold)
	assert.Equal(t, models.DefaultKeySpec(), engine.Config.KeySpec)
	assert.IsType(t, DiceSimilarity{}, engine.Similarity())

	config := StrictMatchingConfig()
	config.Algorithm = AlgorithmLevenshtein
	engine, err = NewMatchingEngine(config)
	require.NoError(t, err)
	assert.IsType(t, LevenshteinSimilarity{}, engine.Similarity())

	config.Threshold = 0.1
	assert.Equal(t, 0.95, engine.Config.Threshold, "engine must hold its own copy of the config")
}

func TestNewMatchingEngine_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchingConfig)
	}{
		{name: "threshold above one", mutate: func(c *MatchingConfig) { c.Threshold = 1.2 }},
		{name: "negative threshold", mutate: func(c *MatchingConfig) { c.Threshold = -0.1 }},
		{name: "NaN threshold", mutate: func(c *MatchingConfig) { c.Threshold = math.NaN() }},
		{name: "empty key spec", mutate: func(c *MatchingConfig) { c.KeySpec = nil }},
		{name: "unknown algorithm", mutate: func(c *MatchingConfig) { c.Algorithm = "soundex" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultMatchingConfig()
			tt.mutate(config)

			_, err := NewMatchingEngine(config)
			assert.Error(t, err)
		})
	}
}

func TestNewMatchingEngineWithSimilarity(t *testing.T) {
	_, err := NewMatchingEngineWithSimilarity(nil, nil)
	assert.Error(t, err)

	calls := 0
	counting := SimilarityFunc(func(a, b string) float64 {
		calls++
		return DiceSimilarity{}.Score(a, b)
	})

	config := DefaultMatchingConfig()
	config.Algorithm = "custom"
	engine, err := NewMatchingEngineWithSimilarity(config, counting)
	require.NoError(t, err)

	ledger := createTestLedger()
	result := engine.BestMatch(models.Record{"clientName": "Maria Garcia", "date": "2025-05-03", "amount": "450"}, ledger)
	require.NotNil(t, result)
	assert.Equal(t, "AL-1", result.Record["id"])
	assert.Equal(t, len(ledger), calls, "one score per candidate")

	config.Threshold = 2
	_, err = NewMatchingEngineWithSimilarity(config, counting)
	assert.Error(t, err)

	config.Threshold = math.NaN()
	_, err = NewMatchingEngineWithSimilarity(config, counting)
	assert.Error(t, err, "NaN threshold would accept every candidate")
}

func TestMatchingEngine_Score(t *testing.T) {
	engine, err := NewMatchingEngine(DefaultMatchingConfig())
	require.NoError(t, err)

	a := models.Record{"clientName": "John Smith", "date": "2025-05-01", "amount": 100}
	b := models.Record{"clientName": "JOHN SMITH ", "date": "2025-05-01", "amount": "100"}

	assert.Equal(t, 1.0, engine.Score(a, b))
	assert.Equal(t, "john smith 2025-05-01 100", engine.CompositeKey(a))
}

func TestMatchingConfig(t *testing.T) {
	assert.NoError(t, DefaultMatchingConfig().Validate())
	assert.NoError(t, StrictMatchingConfig().Validate())
	assert.NoError(t, RelaxedMatchingConfig().Validate())

	config := DefaultMatchingConfig()
	clone := config.Clone()
	clone.KeySpec[0] = "patient"
	clone.Threshold = 0.5
	assert.Equal(t, "clientName", config.KeySpec[0])
	assert.Equal(t, DefaultThreshold, config.Threshold)

	var nilConfig *MatchingConfig
	assert.Nil(t, nilConfig.Clone())

	nan := DefaultMatchingConfig()
	nan.Threshold = math.NaN()
	assert.Error(t, nan.Validate())

	assert.Equal(t, "MatchingConfig{Threshold: 0.85, Keys: [clientName, date, amount], Algorithm: dice}", config.String())
}
