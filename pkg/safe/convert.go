// Package safe provides helpers for numeric conversions with overflow checks.
package safe

import (
	"fmt"
	"math"
)

// Integer is the set of integer types the helpers accept.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func fits[T Integer](v T, low int64, high uint64) bool {
	if v < 0 {
		return int64(v) >= low
	}
	return uint64(v) <= high
}

// Uint16 converts v to uint16, rejecting values outside its range.
func Uint16[T Integer](v T) (uint16, error) {
	if !fits(v, 0, math.MaxUint16) {
		return 0, fmt.Errorf("value %d out of uint16 range", v)
	}
	return uint16(v), nil
}

// Uint32 converts v to uint32, rejecting values outside its range.
func Uint32[T Integer](v T) (uint32, error) {
	if !fits(v, 0, math.MaxUint32) {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(v), nil
}

// Uint64 converts v to uint64, rejecting negatives.
func Uint64[T Integer](v T) (uint64, error) {
	if !fits(v, 0, math.MaxUint64) {
		return 0, fmt.Errorf("value %d out of uint64 range", v)
	}
	return uint64(v), nil
}

// Int64 converts v to int64. Only large uint64 values can fail.
func Int64[T Integer](v T) (int64, error) {
	if !fits(v, math.MinInt64, math.MaxInt64) {
		return 0, fmt.Errorf("value %d out of int64 range", v)
	}
	return int64(v), nil
}
