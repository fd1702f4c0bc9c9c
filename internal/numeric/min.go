package numeric

import (
	"encoding/json"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// IsAtLeast reports whether value is greater than or equal to min.
//
// A nil value is not at least anything, unlike the other bound checks that
// treat a missing value as valid. Callers rely on this.
func IsAtLeast(value interface{}, min int64) bool {
	if value == nil {
		return false
	}

	// Non-finite floats are decided before any conversion
	switch v := value.(type) {
	case float64:
		if math.IsInf(v, 1) {
			return true
		}
		if math.IsNaN(v) || math.IsInf(v, -1) {
			return false
		}
	case float32:
		f := float64(v)
		if math.IsInf(f, 1) {
			return true
		}
		if math.IsNaN(f) || math.IsInf(f, -1) {
			return false
		}
	}

	switch v := value.(type) {
	case *big.Int:
		return v != nil && v.Cmp(big.NewInt(min)) >= 0
	case big.Int:
		return v.Cmp(big.NewInt(min)) >= 0
	case *big.Float:
		return v != nil && v.Cmp(new(big.Float).SetInt64(min)) >= 0
	case *big.Rat:
		return v != nil && v.Cmp(new(big.Rat).SetInt64(min)) >= 0
	case *apd.Decimal:
		return v != nil && compareDecimal(v, min)
	case apd.Decimal:
		return compareDecimal(&v, min)
	case json.Number:
		d, _, err := apd.NewFromString(v.String())
		if err != nil {
			return false
		}
		return compareDecimal(d, min)
	}

	n, ok := truncate(value)
	if !ok {
		return false
	}
	return n >= min
}

func compareDecimal(d *apd.Decimal, min int64) bool {
	switch d.Form {
	case apd.NaN, apd.NaNSignaling:
		return false
	case apd.Infinite:
		return !d.Negative
	}
	return d.Cmp(apd.New(min, 0)) >= 0
}

// truncate converts fixed-width numbers to int64, truncating toward zero and
// saturating at the int64 range.
func truncate(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return saturateUint(uint64(v)), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return saturateUint(v), true
	case uintptr:
		return saturateUint(uint64(v)), true
	case float32:
		return saturateFloat(float64(v)), true
	case float64:
		return saturateFloat(v), true
	default:
		return 0, false
	}
}

func saturateUint(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func saturateFloat(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}
