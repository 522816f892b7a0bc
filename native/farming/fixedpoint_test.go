package farming

import (
	"errors"
	"math/big"
	"testing"
)

func TestFixedU128_DivInt_Truncates(t *testing.T) {
	// 1/3 in 18-decimal fixed point truncates rather than rounds.
	f, err := DivInt(big.NewInt(1), big.NewInt(3))
	if err != nil {
		t.Fatalf("DivInt(1,3): %v", err)
	}
	want, _ := new(big.Int).SetString("333333333333333333", 10)
	if f.Raw().Cmp(want) != 0 {
		t.Fatalf("DivInt(1,3).Raw() = %s, want %s", f.Raw(), want)
	}
}

func TestFixedU128_DivInt_ByZero(t *testing.T) {
	if _, err := DivInt(big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrDivByZero) {
		t.Fatalf("DivInt by zero: got %v, want ErrDivByZero", err)
	}
}

func TestFixedU128_MulInt_Truncates(t *testing.T) {
	// 0.1 * 7 = 0.7 exactly representable, but 1/3 * 10 truncates.
	third, err := DivInt(big.NewInt(1), big.NewInt(3))
	if err != nil {
		t.Fatalf("DivInt(1,3): %v", err)
	}
	got, err := third.MulInt(big.NewInt(10))
	if err != nil {
		t.Fatalf("MulInt: %v", err)
	}
	if got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("floor(10/3) = %v, want 3", got)
	}
}

func TestFixedU128_MulInt_RejectsNegative(t *testing.T) {
	one := OneFixed()
	if _, err := one.MulInt(big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("MulInt(-1): got %v, want ErrInvalidAmount", err)
	}
}

func TestFixedU128_Add(t *testing.T) {
	half, err := DivInt(big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("DivInt(1,2): %v", err)
	}
	sum, err := half.Add(half)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Raw().Cmp(OneFixed().Raw()) != 0 {
		t.Fatalf("0.5 + 0.5 = %s, want %s", sum.Raw(), OneFixed().Raw())
	}
}

func TestFixedU128_Sub_Underflows(t *testing.T) {
	zero := ZeroFixed()
	one := OneFixed()
	if _, err := zero.Sub(one); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("0 - 1: got %v, want ErrUnderflow", err)
	}
}

func TestFixedU128_Mul(t *testing.T) {
	half, err := DivInt(big.NewInt(1), big.NewInt(2))
	if err != nil {
		t.Fatalf("DivInt(1,2): %v", err)
	}
	quarter, err := half.Mul(half)
	if err != nil {
		t.Fatalf("Mul: %v", err)
	}
	want, _ := DivInt(big.NewInt(1), big.NewInt(4))
	if quarter.Raw().Cmp(want.Raw()) != 0 {
		t.Fatalf("0.5 * 0.5 = %s, want %s", quarter.Raw(), want.Raw())
	}
}

func TestFixedU128_SaturatingMulInt_Clamps(t *testing.T) {
	two, err := DivInt(big.NewInt(2), big.NewInt(1))
	if err != nil {
		t.Fatalf("DivInt(2,1): %v", err)
	}
	huge := new(big.Int).Lsh(big.NewInt(1), 127)
	got := two.SaturatingMulInt(huge)
	maxU128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	if got.Cmp(maxU128) != 0 {
		t.Fatalf("SaturatingMulInt clamp = %s, want %s", got, maxU128)
	}
}

func TestFixedU128_JSONRoundTrip(t *testing.T) {
	f, err := DivInt(big.NewInt(7), big.NewInt(3))
	if err != nil {
		t.Fatalf("DivInt(7,3): %v", err)
	}
	data, err := f.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var round FixedU128
	if err := round.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if round.Raw().Cmp(f.Raw()) != 0 {
		t.Fatalf("round-tripped value %s, want %s", round.Raw(), f.Raw())
	}
}

func TestFixedU128_GobRoundTrip(t *testing.T) {
	f, err := DivInt(big.NewInt(22), big.NewInt(7))
	if err != nil {
		t.Fatalf("DivInt(22,7): %v", err)
	}
	data, err := f.GobEncode()
	if err != nil {
		t.Fatalf("GobEncode: %v", err)
	}
	var round FixedU128
	if err := round.GobDecode(data); err != nil {
		t.Fatalf("GobDecode: %v", err)
	}
	if round.Raw().Cmp(f.Raw()) != 0 {
		t.Fatalf("round-tripped value %s, want %s", round.Raw(), f.Raw())
	}
}

func TestFixedFromPpm(t *testing.T) {
	half := FixedFromPpm(500_000)
	want, _ := DivInt(big.NewInt(1), big.NewInt(2))
	if half.Raw().Cmp(want.Raw()) != 0 {
		t.Fatalf("FixedFromPpm(500_000) = %s, want %s", half.Raw(), want.Raw())
	}
}

func TestFixedU128_IsZero(t *testing.T) {
	if !ZeroFixed().IsZero() {
		t.Fatalf("ZeroFixed() should report IsZero=true")
	}
	if OneFixed().IsZero() {
		t.Fatalf("OneFixed() should report IsZero=false")
	}
	var uninitialized FixedU128
	if !uninitialized.IsZero() {
		t.Fatalf("the zero value of FixedU128 should report IsZero=true")
	}
}
