package reconciler

import (
	"reward-reconciliation-service/internal/models"
	"reward-reconciliation-service/pkg/errors"
)

// Argument names used in input errors
const (
	ArgTransactions = "transactions"
	ArgLedgerA      = "ledgerA"
	ArgLedgerB      = "ledgerB"
)

// Datasets holds the three record lists of one reconciliation run after
// they have passed the input boundary
type Datasets struct {
	Transactions []models.Record
	LedgerA      []models.Record
	LedgerB      []models.Record
}

// NewDatasets checks loosely typed inputs, typically values decoded from
// JSON, and converts them into record lists. A nil argument is an empty
// dataset. Every argument is checked before any record is returned, so an
// InputError never comes with a partial result.
func NewDatasets(transactions, ledgerA, ledgerB interface{}) (*Datasets, error) {
	tx, err := ToRecords(ArgTransactions, transactions)
	if err != nil {
		return nil, err
	}

	a, err := ToRecords(ArgLedgerA, ledgerA)
	if err != nil {
		return nil, err
	}

	b, err := ToRecords(ArgLedgerB, ledgerB)
	if err != nil {
		return nil, err
	}

	return &Datasets{Transactions: tx, LedgerA: a, LedgerB: b}, nil
}

// Size returns the number of records across all three datasets
func (d *Datasets) Size() int {
	return len(d.Transactions) + len(d.LedgerA) + len(d.LedgerB)
}

// ToRecords converts one argument into a record list, returning an
// InputError when it is not a list of objects
func ToRecords(argument string, value interface{}) ([]models.Record, error) {
	switch v := value.(type) {
	case nil:
		return []models.Record{}, nil

	case []models.Record:
		for i, record := range v {
			if record == nil {
				return nil, errors.InputError(errors.CodeInvalidRecord, argument, i, record)
			}
		}
		return v, nil

	case []map[string]interface{}:
		records := make([]models.Record, 0, len(v))
		for i, m := range v {
			if m == nil {
				return nil, errors.InputError(errors.CodeInvalidRecord, argument, i, m)
			}
			records = append(records, models.Record(m))
		}
		return records, nil

	case []interface{}:
		records := make([]models.Record, 0, len(v))
		for i, elem := range v {
			record, ok := asRecord(elem)
			if !ok {
				return nil, errors.InputError(errors.CodeInvalidRecord, argument, i, elem)
			}
			records = append(records, record)
		}
		return records, nil

	default:
		return nil, errors.InputError(errors.CodeNotAList, argument, -1, value)
	}
}

func asRecord(value interface{}) (models.Record, bool) {
	switch v := value.(type) {
	case models.Record:
		return v, v != nil
	case map[string]interface{}:
		return models.Record(v), v != nil
	default:
		return nil, false
	}
}
