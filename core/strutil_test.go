package core

import (
	"math"
	"strconv"
	"testing"
)

func TestItoa(t *testing.T) {
	for _, n := range []int{0, 7, -7, 10, 1024, -99999, math.MaxInt32, math.MinInt32} {
		if got, want := itoa(n), strconv.Itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestUtoa(t *testing.T) {
	for _, n := range []uint32{0, 1, 9, 10, CounterMax, math.MaxUint32} {
		if got, want := utoa(n), strconv.FormatUint(uint64(n), 10); got != want {
			t.Errorf("utoa(%d) = %q, want %q", n, got, want)
		}
	}
}
