// Package models defines the record types shared by the matcher and the reconciler.
//
// Point-of-sale exports and reward-ledger exports do not share a schema, so a
// Record is an open mapping of field name to scalar value. Only the fields named
// by a KeySpec take part in matching; everything else is carried through to the
// report untouched.
package models

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known field names used by the default key spec
const (
	FieldClientName = "clientName"
	FieldDate       = "date"
	FieldAmount     = "amount"
)

// Record is a flat field name to scalar value mapping.
// Values are expected to be strings, numbers, booleans or nil.
type Record map[string]interface{}

// Get returns the value stored under field. The second result is false when
// the field is absent or explicitly null.
func (r Record) Get(field string) (interface{}, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether the record carries a non-null value for field
func (r Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// Amount parses field as a monetary amount. Strings may carry a leading
// currency symbol and thousands separators ("$1,250.00").
func (r Record) Amount(field string) (decimal.Decimal, bool) {
	v, ok := r.Get(field)
	if !ok {
		return decimal.Zero, false
	}

	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		return d, err == nil
	case string:
		cleaned := strings.TrimSpace(val)
		cleaned = strings.TrimPrefix(cleaned, "$")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if cleaned == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(cleaned)
		return d, err == nil
	case float32:
		return decimal.NewFromFloat32(val), true
	case float64:
		return decimal.NewFromFloat(val), true
	}

	if f, ok := numericValue(v); ok {
		return decimal.NewFromFloat(f), true
	}
	return decimal.Zero, false
}

// Equal reports structural equality: both records carry the same field names
// and every value is equal. Numbers compare by value regardless of their Go
// type, so 100 (int) equals 100.0 (float64); a number never equals a string.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}

	for field, v := range r {
		ov, ok := other[field]
		if !ok {
			return false
		}
		if !valuesEqual(v, ov) {
			return false
		}
	}

	return true
}

// Fields returns the record's field names in sorted order
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for field := range r {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// String returns a stable representation of the record for logs
func (r Record) String() string {
	var parts []string
	for _, field := range r.Fields() {
		parts = append(parts, fmt.Sprintf("%s=%v", field, r[field]))
	}
	return fmt.Sprintf("Record{%s}", strings.Join(parts, ", "))
}

func valuesEqual(a, b interface{}) bool {
	// Integers, json.Number and decimals compare exactly; floats only go
	// through float64 when one side is a native float.
	ad, aExact := exactValue(a)
	bd, bExact := exactValue(b)
	if aExact && bExact {
		return ad.Equal(bd)
	}

	af, aNum := numericValue(a)
	bf, bNum := numericValue(b)
	if aNum && bNum {
		return af == bf
	}
	if aNum != bNum {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func exactValue(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(n)), true
	case uint16:
		return decimal.NewFromInt(int64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case decimal.Decimal:
		return n.InexactFloat64(), true
	default:
		return 0, false
	}
}

// KeySpec is the ordered list of fields used to build a composite comparison key
type KeySpec []string

// DefaultKeySpec returns the key spec used when the caller does not provide one
func DefaultKeySpec() KeySpec {
	return KeySpec{FieldClientName, FieldDate, FieldAmount}
}

// Validate checks that the key spec names at least one non-blank field
func (ks KeySpec) Validate() error {
	if len(ks) == 0 {
		return fmt.Errorf("key spec must name at least one field")
	}
	for i, field := range ks {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("key spec field %d is blank", i)
		}
	}
	return nil
}

// Clone returns a copy of the key spec
func (ks KeySpec) Clone() KeySpec {
	if ks == nil {
		return nil
	}
	out := make(KeySpec, len(ks))
	copy(out, ks)
	return out
}

// String returns the comma-separated field list
func (ks KeySpec) String() string {
	return strings.Join(ks, ",")
}
