package farming

import (
	"math/big"
	"testing"
)

func TestLoyaltyCurve_Nil_AlwaysFullRelease(t *testing.T) {
	var lc *LoyaltyCurve
	mult, err := lc.Multiplier(0)
	if err != nil {
		t.Fatalf("Multiplier: %v", err)
	}
	if mult.Raw().Cmp(OneFixed().Raw()) != 0 {
		t.Fatalf("nil curve multiplier at t=0 = %s, want 1.0", mult.Raw())
	}

	mult, err = lc.Multiplier(1000)
	if err != nil {
		t.Fatalf("Multiplier: %v", err)
	}
	if mult.Raw().Cmp(OneFixed().Raw()) != 0 {
		t.Fatalf("nil curve multiplier at t=1000 = %s, want 1.0", mult.Raw())
	}

	claimable, unclaimable, err := lc.Split(big.NewInt(100000), 5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if claimable.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("nil curve claimable = %v, want 100000", claimable)
	}
	if unclaimable.Sign() != 0 {
		t.Fatalf("nil curve unclaimable = %v, want 0", unclaimable)
	}
}

func TestLoyaltyCurve_AtEntry_ReturnsInitialPercentage(t *testing.T) {
	initial, err := DivInt(big.NewInt(3), big.NewInt(10))
	if err != nil {
		t.Fatalf("DivInt: %v", err)
	}
	lc := &LoyaltyCurve{InitialRewardPercentage: initial, ScaleCoef: 20}
	mult, err := lc.Multiplier(0)
	if err != nil {
		t.Fatalf("Multiplier(0): %v", err)
	}
	if mult.Raw().Cmp(initial.Raw()) != 0 {
		t.Fatalf("Multiplier(0) = %s, want the curve's InitialRewardPercentage %s", mult.Raw(), initial.Raw())
	}
}

func TestLoyaltyCurve_ApproachesOneOverTime(t *testing.T) {
	initial, err := DivInt(big.NewInt(3), big.NewInt(10))
	if err != nil {
		t.Fatalf("DivInt: %v", err)
	}
	lc := &LoyaltyCurve{InitialRewardPercentage: initial, ScaleCoef: 20}

	mult30, err := lc.Multiplier(30)
	if err != nil {
		t.Fatalf("Multiplier(30): %v", err)
	}
	wantRaw, _ := new(big.Int).SetString("720000000000000000", 10)
	if mult30.Raw().Cmp(wantRaw) != 0 {
		t.Fatalf("Multiplier(30) = %s, want %s", mult30.Raw(), wantRaw)
	}

	mult3000, err := lc.Multiplier(3000)
	if err != nil {
		t.Fatalf("Multiplier(3000): %v", err)
	}
	if mult3000.Raw().Cmp(mult30.Raw()) <= 0 {
		t.Fatalf("loyalty multiplier should strictly increase over time: t=30 -> %s, t=3000 -> %s", mult30.Raw(), mult3000.Raw())
	}
	if mult3000.Raw().Cmp(OneFixed().Raw()) >= 0 {
		t.Fatalf("loyalty multiplier must stay strictly below 1.0, got %s at t=3000", mult3000.Raw())
	}
}

func TestLoyaltyCurve_Split_SumsToGross(t *testing.T) {
	initial, err := DivInt(big.NewInt(3), big.NewInt(10))
	if err != nil {
		t.Fatalf("DivInt: %v", err)
	}
	lc := &LoyaltyCurve{InitialRewardPercentage: initial, ScaleCoef: 20}

	gross := big.NewInt(100000)
	claimable, unclaimable, err := lc.Split(gross, 30)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if claimable.Cmp(big.NewInt(72000)) != 0 {
		t.Fatalf("claimable = %v, want 72000", claimable)
	}
	if unclaimable.Cmp(big.NewInt(28000)) != 0 {
		t.Fatalf("unclaimable = %v, want 28000", unclaimable)
	}
	sum := new(big.Int).Add(claimable, unclaimable)
	if sum.Cmp(gross) != 0 {
		t.Fatalf("claimable+unclaimable = %v, want gross %v", sum, gross)
	}
}
