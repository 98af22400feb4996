// Package generator produces synthetic reward datasets: a transaction list
// plus two ledgers seeded with known matches, disagreements and gaps. The
// output feeds the generate command and large-input tests.
package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reward-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Kind is the outcome a generated transaction was built to produce
type Kind string

const (
	KindLedgerA  Kind = "ledgerA"
	KindLedgerB  Kind = "ledgerB"
	KindBoth     Kind = "both"
	KindConflict Kind = "conflict"
	// KindVariant is present in ledger A with different casing and spacing
	KindVariant Kind = "variant"
	KindMissing Kind = "missing"
)

// Mix holds relative weights for each kind
type Mix struct {
	LedgerA  int `json:"ledger_a"`
	LedgerB  int `json:"ledger_b"`
	Both     int `json:"both"`
	Conflict int `json:"conflict"`
	Variant  int `json:"variant"`
	Missing  int `json:"missing"`
}

func (m Mix) total() int {
	return m.LedgerA + m.LedgerB + m.Both + m.Conflict + m.Variant + m.Missing
}

func (m Mix) weights() map[string]int {
	return map[string]int{
		"ledger_a": m.LedgerA,
		"ledger_b": m.LedgerB,
		"both":     m.Both,
		"conflict": m.Conflict,
		"variant":  m.Variant,
		"missing":  m.Missing,
	}
}

// pick maps n in [0, total) onto a kind
func (m Mix) pick(n int) Kind {
	for _, w := range []struct {
		kind   Kind
		weight int
	}{
		{KindLedgerA, m.LedgerA},
		{KindLedgerB, m.LedgerB},
		{KindBoth, m.Both},
		{KindConflict, m.Conflict},
		{KindVariant, m.Variant},
	} {
		if n < w.weight {
			return w.kind
		}
		n -= w.weight
	}
	return KindMissing
}

// Config controls dataset generation
type Config struct {
	Count     int
	Seed      int64
	StartDate time.Time
	EndDate   time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Mix       Mix
}

// DefaultConfig returns a configuration for a small mixed dataset
func DefaultConfig() *Config {
	return &Config{
		Count:     100,
		Seed:      1,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		MinAmount: decimal.NewFromInt(25),
		MaxAmount: decimal.NewFromInt(1500),
		Mix: Mix{
			LedgerA:  30,
			LedgerB:  20,
			Both:     20,
			Conflict: 10,
			Variant:  10,
			Missing:  10,
		},
	}
}

// Validate validates the generator configuration
func (c *Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count cannot be negative, got %d", c.Count)
	}

	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date must not be before start date")
	}

	if c.MinAmount.IsNegative() || c.MaxAmount.LessThan(c.MinAmount) {
		return fmt.Errorf("amount range [%s, %s] is invalid", c.MinAmount, c.MaxAmount)
	}

	for name, w := range c.Mix.weights() {
		if w < 0 {
			return fmt.Errorf("mix weight %s cannot be negative, got %d", name, w)
		}
	}

	if c.Mix.total() <= 0 {
		return fmt.Errorf("mix weights must add up to a positive number")
	}

	return nil
}

// Dataset is one generated reconciliation input. Kinds is indexed like
// Transactions.
type Dataset struct {
	Transactions []models.Record
	LedgerA      []models.Record
	LedgerB      []models.Record
	Kinds        []Kind
}

// CountKind returns how many transactions were built as kind
func (d *Dataset) CountKind(kind Kind) int {
	n := 0
	for _, k := range d.Kinds {
		if k == kind {
			n++
		}
	}
	return n
}

var (
	firstNames = []string{
		"Alice", "Bruno", "Carmen", "Dmitri", "Elena", "Farah", "Gabriel", "Hana",
		"Imani", "Jonas", "Keiko", "Luis", "Maya", "Nikhil", "Olga", "Priya",
	}
	lastNames = []string{
		"Anders", "Brooks", "Castillo", "Dubois", "Eriksen", "Fontaine", "Garcia",
		"Haddad", "Ivanova", "Jensen", "Kowalski", "Lindqvist", "Moreau", "Novak",
	}
)

// Generator builds datasets from a seeded random source
type Generator struct {
	config *Config
	rng    *rand.Rand
}

// New creates a generator; the same config always yields the same dataset
func New(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator configuration: %w", err)
	}

	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Generate builds a dataset. Ledger records are shuffled so that their order
// does not follow the transactions.
func (g *Generator) Generate() *Dataset {
	ds := &Dataset{
		Transactions: make([]models.Record, 0, g.config.Count),
		LedgerA:      []models.Record{},
		LedgerB:      []models.Record{},
		Kinds:        make([]Kind, 0, g.config.Count),
	}

	for i := 0; i < g.config.Count; i++ {
		tx := g.transaction(i)
		kind := g.config.Mix.pick(g.rng.Intn(g.config.Mix.total()))

		switch kind {
		case KindLedgerA:
			ds.LedgerA = append(ds.LedgerA, ledgerEntry(tx, i, ""))
		case KindLedgerB:
			ds.LedgerB = append(ds.LedgerB, ledgerEntry(tx, i, ""))
		case KindBoth:
			ds.LedgerA = append(ds.LedgerA, ledgerEntry(tx, i, ""))
			ds.LedgerB = append(ds.LedgerB, ledgerEntry(tx, i, ""))
		case KindConflict:
			ds.LedgerA = append(ds.LedgerA, ledgerEntry(tx, i, "A"))
			ds.LedgerB = append(ds.LedgerB, ledgerEntry(tx, i, "B"))
		case KindVariant:
			entry := ledgerEntry(tx, i, "")
			entry[models.FieldClientName] = respace(tx[models.FieldClientName].(string))
			ds.LedgerA = append(ds.LedgerA, entry)
		}

		ds.Transactions = append(ds.Transactions, tx)
		ds.Kinds = append(ds.Kinds, kind)
	}

	g.rng.Shuffle(len(ds.LedgerA), func(i, j int) {
		ds.LedgerA[i], ds.LedgerA[j] = ds.LedgerA[j], ds.LedgerA[i]
	})
	g.rng.Shuffle(len(ds.LedgerB), func(i, j int) {
		ds.LedgerB[i], ds.LedgerB[j] = ds.LedgerB[j], ds.LedgerB[i]
	})

	return ds
}

func (g *Generator) transaction(i int) models.Record {
	name := fmt.Sprintf("%s %s",
		firstNames[g.rng.Intn(len(firstNames))],
		lastNames[g.rng.Intn(len(lastNames))])

	days := int(g.config.EndDate.Sub(g.config.StartDate).Hours() / 24)
	date := g.config.StartDate.AddDate(0, 0, g.rng.Intn(days+1))

	spread := g.config.MaxAmount.Sub(g.config.MinAmount)
	amount := g.config.MinAmount.Add(spread.Mul(decimal.NewFromFloat(g.rng.Float64()))).Round(2)

	return models.Record{
		"transactionId":        fmt.Sprintf("TX%06d", i+1),
		models.FieldClientName: name,
		models.FieldDate:       date.Format("2006-01-02"),
		models.FieldAmount:     amount.InexactFloat64(),
	}
}

// ledgerEntry copies the key fields of tx. A non-empty side tags the member
// id so that the two ledgers disagree on the record.
func ledgerEntry(tx models.Record, i int, side string) models.Record {
	memberID := fmt.Sprintf("M%06d", i+1)
	if side != "" {
		memberID = fmt.Sprintf("%s-%s", memberID, side)
	}

	return models.Record{
		models.FieldClientName: tx[models.FieldClientName],
		models.FieldDate:       tx[models.FieldDate],
		models.FieldAmount:     tx[models.FieldAmount],
		"memberId":             memberID,
	}
}

// respace changes casing and spacing only, which normalization and the
// whitespace-blind similarity both ignore
func respace(name string) string {
	return "  " + strings.ReplaceAll(strings.ToUpper(name), " ", "   ") + " "
}

// File names written by WriteJSON
const (
	TransactionsFile = "transactions.json"
	LedgerAFile      = "ledger_a.json"
	LedgerBFile      = "ledger_b.json"
)

// WriteJSON writes the three datasets as JSON arrays into dir and returns the
// paths written
func (d *Dataset) WriteJSON(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name    string
		records []models.Record
	}{
		{TransactionsFile, d.Transactions},
		{LedgerAFile, d.LedgerA},
		{LedgerBFile, d.LedgerB},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		data, err := json.MarshalIndent(f.records, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.name, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
