package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reward-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Reproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42

	g1, err := New(cfg)
	require.NoError(t, err)
	g2, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, g1.Generate(), g2.Generate())
}

func TestGenerate_LedgerSizesFollowKinds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 250

	g, err := New(cfg)
	require.NoError(t, err)
	ds := g.Generate()

	require.Len(t, ds.Transactions, 250)
	require.Len(t, ds.Kinds, 250)

	both := ds.CountKind(KindBoth) + ds.CountKind(KindConflict)
	assert.Equal(t, ds.CountKind(KindLedgerA)+ds.CountKind(KindVariant)+both, len(ds.LedgerA))
	assert.Equal(t, ds.CountKind(KindLedgerB)+both, len(ds.LedgerB))

	total := 0
	for _, k := range []Kind{KindLedgerA, KindLedgerB, KindBoth, KindConflict, KindVariant, KindMissing} {
		total += ds.CountKind(k)
	}
	assert.Equal(t, 250, total)
}

func TestGenerate_RecordShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 50
	cfg.MinAmount = decimal.NewFromInt(10)
	cfg.MaxAmount = decimal.NewFromInt(20)

	g, err := New(cfg)
	require.NoError(t, err)
	ds := g.Generate()

	for _, tx := range ds.Transactions {
		for _, field := range models.DefaultKeySpec() {
			assert.True(t, tx.Has(field), "transaction missing %s", field)
		}

		amount, ok := tx.Amount(models.FieldAmount)
		require.True(t, ok)
		assert.True(t, amount.GreaterThanOrEqual(cfg.MinAmount), amount.String())
		assert.True(t, amount.LessThanOrEqual(cfg.MaxAmount), amount.String())

		date, err := time.Parse("2006-01-02", tx[models.FieldDate].(string))
		require.NoError(t, err)
		assert.False(t, date.Before(cfg.StartDate))
		assert.False(t, date.After(cfg.EndDate))
	}
}

func TestGenerate_OnlyMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 10
	cfg.Mix = Mix{Missing: 1}

	g, err := New(cfg)
	require.NoError(t, err)
	ds := g.Generate()

	assert.Empty(t, ds.LedgerA)
	assert.Empty(t, ds.LedgerB)
	assert.Equal(t, 10, ds.CountKind(KindMissing))
}

func TestRespace(t *testing.T) {
	assert.Equal(t, "  ALICE   ANDERS ", respace("Alice Anders"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative count", func(c *Config) { c.Count = -1 }},
		{"dates reversed", func(c *Config) { c.EndDate = c.StartDate.AddDate(0, 0, -1) }},
		{"negative amount", func(c *Config) { c.MinAmount = decimal.NewFromInt(-1) }},
		{"amounts reversed", func(c *Config) { c.MaxAmount = decimal.NewFromInt(1) }},
		{"empty mix", func(c *Config) { c.Mix = Mix{} }},
		{"negative weight", func(c *Config) { c.Mix = Mix{LedgerA: 1, Both: 5, Missing: -1} }},
		{"negative weight offset by others", func(c *Config) { c.Mix.Variant = -2 }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 20

	g, err := New(cfg)
	require.NoError(t, err)
	ds := g.Generate()

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := ds.WriteJSON(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, TransactionsFile), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 20)
	assert.Equal(t, ds.Transactions[0][models.FieldClientName], decoded[0][models.FieldClientName])
}
