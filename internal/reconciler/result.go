package reconciler

import (
	"reward-reconciliation-service/internal/matcher"
	"reward-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// MatchSource records which ledger produced an accepted match
type MatchSource string

const (
	SourceLedgerA MatchSource = "ledgerA"
	SourceLedgerB MatchSource = "ledgerB"
	// SourceBoth means both ledgers accepted the same record
	SourceBoth MatchSource = "both"
)

// String returns the string representation of MatchSource
func (s MatchSource) String() string {
	return string(s)
}

// Matched is a transaction that exactly one ledger accepted, or that both
// ledgers accepted with structurally equal records
type Matched struct {
	Transaction   models.Record `json:"transaction"`
	Source        MatchSource   `json:"source"`
	MatchedRecord models.Record `json:"matchedRecord"`
	Score         float64       `json:"score"`
}

// Conflict is a transaction for which both ledgers accepted a match but the
// matched records differ
type Conflict struct {
	Transaction  models.Record            `json:"transaction"`
	LedgerAMatch *matcher.CandidateResult `json:"ledgerAMatch"`
	LedgerBMatch *matcher.CandidateResult `json:"ledgerBMatch"`
}

// Unmatched is a transaction that neither ledger accepted
type Unmatched struct {
	Transaction models.Record `json:"transaction"`
}

// LedgerNames labels the two ledgers in a report
type LedgerNames struct {
	LedgerA string `json:"ledgerA"`
	LedgerB string `json:"ledgerB"`
}

// Report is the complete outcome of one reconciliation run. Each list keeps
// the input order of the transactions it holds.
type Report struct {
	Matched   []Matched   `json:"matched"`
	Unmatched []Unmatched `json:"unmatched"`
	Conflicts []Conflict  `json:"conflicts"`

	Ledgers LedgerNames `json:"ledgers"`
	Summary Summary     `json:"summary"`
}

// Summary provides aggregate statistics about a reconciliation run.
// Amounts are sums of the transactions' amount field.
type Summary struct {
	TotalTransactions int `json:"totalTransactions"`
	MatchedCount      int `json:"matchedCount"`
	UnmatchedCount    int `json:"unmatchedCount"`
	ConflictCount     int `json:"conflictCount"`

	MatchedFromLedgerA int `json:"matchedFromLedgerA"`
	MatchedFromLedgerB int `json:"matchedFromLedgerB"`
	MatchedFromBoth    int `json:"matchedFromBoth"`

	// MatchRate is the percentage of transactions classified as matched
	MatchRate float64 `json:"matchRate"`

	MatchedAmount   decimal.Decimal `json:"matchedAmount"`
	UnmatchedAmount decimal.Decimal `json:"unmatchedAmount"`
	ConflictAmount  decimal.Decimal `json:"conflictAmount"`

	// UnparseableAmounts counts transactions whose amount could not be read
	UnparseableAmounts int `json:"unparseableAmounts"`
}

func newReport(names LedgerNames) *Report {
	return &Report{
		Matched:   []Matched{},
		Unmatched: []Unmatched{},
		Conflicts: []Conflict{},
		Ledgers:   names,
		Summary: Summary{
			MatchedAmount:   decimal.Zero,
			UnmatchedAmount: decimal.Zero,
			ConflictAmount:  decimal.Zero,
		},
	}
}

// classify applies the three-way rule to one transaction's ledger matches
func (r *Report) classify(tx models.Record, ma, mb *matcher.CandidateResult) {
	switch {
	case ma != nil && mb != nil && !ma.Record.Equal(mb.Record):
		r.Conflicts = append(r.Conflicts, Conflict{
			Transaction:  tx,
			LedgerAMatch: ma,
			LedgerBMatch: mb,
		})

	case ma != nil && mb != nil:
		accepted := ma
		if mb.Score > ma.Score {
			accepted = mb
		}
		r.Matched = append(r.Matched, Matched{
			Transaction:   tx,
			Source:        SourceBoth,
			MatchedRecord: accepted.Record,
			Score:         accepted.Score,
		})

	case ma != nil:
		r.Matched = append(r.Matched, Matched{
			Transaction:   tx,
			Source:        SourceLedgerA,
			MatchedRecord: ma.Record,
			Score:         ma.Score,
		})

	case mb != nil:
		r.Matched = append(r.Matched, Matched{
			Transaction:   tx,
			Source:        SourceLedgerB,
			MatchedRecord: mb.Record,
			Score:         mb.Score,
		})

	default:
		r.Unmatched = append(r.Unmatched, Unmatched{Transaction: tx})
	}
}

// summarize fills in the summary block from the classified lists
func (r *Report) summarize() {
	s := &r.Summary

	s.MatchedCount = len(r.Matched)
	s.UnmatchedCount = len(r.Unmatched)
	s.ConflictCount = len(r.Conflicts)
	s.TotalTransactions = s.MatchedCount + s.UnmatchedCount + s.ConflictCount

	for _, m := range r.Matched {
		switch m.Source {
		case SourceLedgerA:
			s.MatchedFromLedgerA++
		case SourceLedgerB:
			s.MatchedFromLedgerB++
		case SourceBoth:
			s.MatchedFromBoth++
		}
		s.MatchedAmount = s.MatchedAmount.Add(s.amountOf(m.Transaction))
	}

	for _, u := range r.Unmatched {
		s.UnmatchedAmount = s.UnmatchedAmount.Add(s.amountOf(u.Transaction))
	}

	for _, c := range r.Conflicts {
		s.ConflictAmount = s.ConflictAmount.Add(s.amountOf(c.Transaction))
	}

	if s.TotalTransactions > 0 {
		s.MatchRate = float64(s.MatchedCount) / float64(s.TotalTransactions) * 100
	}
}

func (s *Summary) amountOf(tx models.Record) decimal.Decimal {
	amount, ok := tx.Amount(models.FieldAmount)
	if !ok {
		s.UnparseableAmounts++
		return decimal.Zero
	}
	return amount
}
