package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// borrowingKeys is the fixed key set of the itemized borrowings answer. The
// order matters only for the prompt; extraction treats it as a plain set.
var borrowingKeys = []string{
	"단기차입금", "장기차입금", "유동성장기차입금",
	"사채_유동", "사채_비유동",
	"금융리스부채_유동", "금융리스부채_비유동", "금융리스부채_합계",
}

// loanKeys is the fixed key set of the loan receivable answer.
var loanKeys = []string{"단기대여금", "장기대여금"}

var digitUnderscoreRe = regexp.MustCompile(`(\d)_(\d)`)

// RecoverJSON repairs a malformed LLM JSON answer. Digit-group underscores
// (1_000_000) are squashed first since the repairer keeps them as strings.
func RecoverJSON(value string) string {
	value = digitUnderscoreRe.ReplaceAllString(strings.TrimSpace(value), "${1}${2}")
	if json.Valid([]byte(value)) {
		return value
	}
	repaired, err := jsonrepair.RepairJSON(value)
	if err != nil {
		return value
	}
	return repaired
}

// parseFixedKeys decodes a JSON object onto a fixed key set, coercing every
// value to an integer and zero-filling missing or unparsable entries.
func parseFixedKeys(raw string, keys []string) map[string]int64 {
	out := make(map[string]int64, len(keys))
	for _, k := range keys {
		out[k] = 0
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return out
	}
	for _, k := range keys {
		v, ok := parsed[k]
		if !ok {
			continue
		}
		out[k] = coerceInt(v)
	}
	return out
}

func coerceInt(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		cleaned := strings.NewReplacer(",", "", "_", "").Replace(t)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return int64(f)
	default:
		return 0
	}
}

// ParseBorrowings decodes an itemized borrowings answer.
func ParseBorrowings(raw string) map[string]int64 {
	return parseFixedKeys(RecoverJSON(raw), borrowingKeys)
}

// ParseLoans decodes a loan receivable answer.
func ParseLoans(raw string) map[string]int64 {
	return parseFixedKeys(RecoverJSON(raw), loanKeys)
}

// TotalBorrowings sums an itemized borrowings map. When the filing reports a
// lease liability total, that total replaces the current/non-current lease
// split so the components are not double counted.
func TotalBorrowings(merged map[string]int64) int64 {
	total := merged["단기차입금"] + merged["장기차입금"] + merged["유동성장기차입금"] +
		merged["사채_유동"] + merged["사채_비유동"]
	if merged["금융리스부채_합계"] != 0 {
		return total + merged["금융리스부채_합계"]
	}
	return total + merged["금융리스부채_유동"] + merged["금융리스부채_비유동"]
}
