package farming

import "math/big"

// Multiplier returns loyalty(t) for periodsStaked elapsed periods. A nil
// curve (no loyalty shaping configured for the yield farm) always returns
// 1.0 — the full reward is released immediately.
func (lc *LoyaltyCurve) Multiplier(periodsStaked uint64) (FixedU128, error) {
	if lc == nil {
		return OneFixed(), nil
	}
	if periodsStaked == 0 {
		return lc.InitialRewardPercentage, nil
	}
	t := big.NewInt(0).SetUint64(periodsStaked)
	s := big.NewInt(0).SetUint64(lc.ScaleCoef)
	denom := new(big.Int).Add(t, s)

	tOverDenom, err := DivInt(t, denom)
	if err != nil {
		return FixedU128{}, err
	}

	one := OneFixed()
	oneMinusB, err := one.Sub(lc.InitialRewardPercentage)
	if err != nil {
		return FixedU128{}, err
	}
	scaled, err := oneMinusB.Mul(tOverDenom)
	if err != nil {
		return FixedU128{}, err
	}
	return lc.InitialRewardPercentage.Add(scaled)
}

// Split divides a pending reward amount into the portion released now
// (claimable) and the portion retained by the yield farm (unclaimable),
// per the loyalty multiplier for periodsStaked elapsed periods.
func (lc *LoyaltyCurve) Split(pending *big.Int, periodsStaked uint64) (claimable, unclaimable *big.Int, err error) {
	mult, err := lc.Multiplier(periodsStaked)
	if err != nil {
		return nil, nil, err
	}
	claimable, err = mult.MulInt(pending)
	if err != nil {
		return nil, nil, err
	}
	unclaimable = new(big.Int).Sub(pending, claimable)
	return claimable, unclaimable, nil
}
