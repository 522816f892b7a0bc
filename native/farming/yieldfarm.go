package farming

import "math/big"

// sharesZContribution returns floor(y.Multiplier * y.TotalValuedShares),
// this yield farm's weighted contribution to its parent's TotalSharesZ.
func (y *YieldFarm) sharesZContribution() (*big.Int, error) {
	return y.Multiplier.MulInt(y.TotalValuedShares)
}

// Stop transitions an Active yield farm to Stopped. The caller
// (Engine.StopYieldFarm) is responsible for syncing accumulators first and
// for removing this farm's contribution from the parent's TotalSharesZ.
func (y *YieldFarm) Stop() error {
	if y.State != YieldFarmActive {
		return ErrYieldFarmNotActive
	}
	y.State = YieldFarmStopped
	y.Multiplier = ZeroFixed()
	return nil
}

// Resume transitions a Stopped yield farm back to Active with a new
// multiplier. The caller is responsible for re-adding the farm's
// contribution to the parent's TotalSharesZ and for resetting
// AccumulatedRPZ to the parent's current value so the stopped interval
// never retroactively accrues rewards.
func (y *YieldFarm) Resume(newMultiplier FixedU128) error {
	if y.State != YieldFarmStopped {
		return ErrYieldFarmNotStopped
	}
	if newMultiplier.IsZero() {
		return ErrInvalidMultiplier
	}
	y.State = YieldFarmActive
	y.Multiplier = newMultiplier
	return nil
}

// Destroy transitions a Stopped yield farm to Deleted. Only the owner-
// gated caller may invoke this; Destroy itself only checks the state
// machine precondition.
func (y *YieldFarm) Destroy() error {
	if y.State != YieldFarmStopped {
		return ErrYieldFarmNotStopped
	}
	y.State = YieldFarmDeleted
	return nil
}
