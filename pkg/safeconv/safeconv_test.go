package safeconv

import (
	"math"
	"testing"
)

func TestMustUintToInt(t *testing.T) {
	t.Parallel()

	if got := MustUintToInt(0); got != 0 {
		t.Errorf("MustUintToInt(0) = %d, want 0", got)
	}

	if got := MustUintToInt(42); got != 42 {
		t.Errorf("MustUintToInt(42) = %d, want 42", got)
	}

	if got := MustUintToInt(uint(MaxInt)); got != MaxInt {
		t.Errorf("MustUintToInt(MaxInt) = %d, want %d", got, MaxInt)
	}
}

func TestMustUintToIntPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on overflow")
		}
	}()

	MustUintToInt(uint(MaxInt) + 1)
}

func TestMustUint32ToInt(t *testing.T) {
	t.Parallel()

	if got := MustUint32ToInt(0); got != 0 {
		t.Errorf("MustUint32ToInt(0) = %d, want 0", got)
	}

	if got := MustUint32ToInt(math.MaxUint32); got != math.MaxUint32 {
		t.Errorf("MustUint32ToInt(MaxUint32) = %d, want %d", got, math.MaxUint32)
	}
}

func TestMustIntToUint(t *testing.T) {
	t.Parallel()

	if got := MustIntToUint(0); got != 0 {
		t.Errorf("MustIntToUint(0) = %d, want 0", got)
	}

	if got := MustIntToUint(7); got != 7 {
		t.Errorf("MustIntToUint(7) = %d, want 7", got)
	}
}

func TestMustIntToUintPanicsOnNegative(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on negative input")
		}
	}()

	MustIntToUint(-1)
}

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    int
		want  uint32
		panic bool
	}{
		{name: "zero", in: 0, want: 0},
		{name: "max", in: math.MaxUint32, want: math.MaxUint32},
		{name: "negative", in: -5, panic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				r := recover()
				if tt.panic && r == nil {
					t.Error("expected panic")
				}

				if !tt.panic && r != nil {
					t.Errorf("unexpected panic: %v", r)
				}
			}()

			if got := MustIntToUint32(tt.in); !tt.panic && got != tt.want {
				t.Errorf("MustIntToUint32(%d) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMustIntToInt32(t *testing.T) {
	t.Parallel()

	if got := MustIntToInt32(math.MinInt32); got != math.MinInt32 {
		t.Errorf("MustIntToInt32(MinInt32) = %d, want %d", got, math.MinInt32)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on overflow")
		}
	}()

	MustIntToInt32(math.MaxInt32 + 1)
}
