package numeric

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
)

func TestIsAtLeast(t *testing.T) {
	bigTen, _ := new(big.Int).SetString("10", 10)
	huge, _ := new(big.Int).SetString("100000000000000000000000000000", 10)

	tests := []struct {
		name  string
		value interface{}
		min   int64
		want  bool
	}{
		{name: "nil", value: nil, min: 5, want: false},
		{name: "nil with negative bound", value: nil, min: math.MinInt64, want: false},
		{name: "positive infinity", value: math.Inf(1), min: 5, want: true},
		{name: "positive infinity max bound", value: math.Inf(1), min: math.MaxInt64, want: true},
		{name: "nan", value: math.NaN(), min: 5, want: false},
		{name: "nan min bound", value: math.NaN(), min: math.MinInt64, want: false},
		{name: "negative infinity", value: math.Inf(-1), min: 5, want: false},
		{name: "negative infinity min bound", value: math.Inf(-1), min: math.MinInt64, want: false},
		{name: "float32 positive infinity", value: float32(math.Inf(1)), min: 5, want: true},
		{name: "float32 nan", value: float32(math.NaN()), min: -5, want: false},
		{name: "big int", value: bigTen, min: 5, want: true},
		{name: "big int value", value: *big.NewInt(4), min: 5, want: false},
		{name: "big int beyond int64", value: huge, min: math.MaxInt64, want: true},
		{name: "below", value: 4, min: 5, want: false},
		{name: "equal", value: 5, min: 5, want: true},
		{name: "int8", value: int8(-3), min: -3, want: true},
		{name: "uint64 beyond int64", value: uint64(math.MaxUint64), min: math.MaxInt64, want: true},
		{name: "float truncated below", value: 4.99, min: 5, want: false},
		{name: "float truncated toward zero", value: -0.5, min: 0, want: true},
		{name: "float above", value: 5.01, min: 5, want: true},
		{name: "huge float saturates", value: 1e300, min: math.MaxInt64, want: true},
		{name: "big float", value: big.NewFloat(4.5), min: 5, want: false},
		{name: "big float equal", value: big.NewFloat(5), min: 5, want: true},
		{name: "big rat exact", value: big.NewRat(9, 2), min: 4, want: true},
		{name: "big rat below", value: big.NewRat(9, 2), min: 5, want: false},
		{name: "decimal exact", value: apd.New(49999, -4), min: 5, want: false},
		{name: "decimal equal", value: *apd.New(5, 0), min: 5, want: true},
		{name: "json number", value: json.Number("5.000"), min: 5, want: true},
		{name: "json number below", value: json.Number("4.999999999999999999999"), min: 5, want: false},
		{name: "invalid json number", value: json.Number("five"), min: 5, want: false},
		{name: "not a number", value: "10", min: 5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAtLeast(tt.value, tt.min))
		})
	}
}
