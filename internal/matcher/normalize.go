package matcher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"reward-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// KeySeparator joins normalized field values inside a composite key
const KeySeparator = " "

// Normalize converts a field value into a comparable token: trimmed and
// lower-cased text. Nil and empty values become the empty string. Numbers use
// their shortest decimal form, so 100.0 and "100" normalize to the same token.
func Normalize(value interface{}) string {
	var s string

	switch v := value.(type) {
	case nil:
		return ""
	case string:
		s = v
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			s = d.String()
		} else {
			s = v.String()
		}
	case decimal.Decimal:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case int32:
		s = strconv.FormatInt(int64(v), 10)
	case uint:
		s = strconv.FormatUint(uint64(v), 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case uint32:
		s = strconv.FormatUint(uint64(v), 10)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	return strings.ToLower(strings.TrimSpace(s))
}

// CompositeKey builds the comparison key for a record from the fields named in
// keySpec. Missing fields contribute an empty token so that field positions
// stay aligned between records.
func CompositeKey(record models.Record, keySpec models.KeySpec) string {
	parts := make([]string, len(keySpec))
	for i, field := range keySpec {
		v, _ := record.Get(field)
		parts[i] = Normalize(v)
	}
	return strings.Join(parts, KeySeparator)
}
