// Package numeric checks numeric results against integral bounds.
//
// Values may be any Go numeric type, math/big values, apd decimals or
// json.Number. A nil value never satisfies a bound.
package numeric
