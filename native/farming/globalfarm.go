package farming

import "math/big"

// YieldFarmAdded bumps the (live, total) counters when a new yield farm is
// created under this global farm.
func (g *GlobalFarm) YieldFarmAdded() {
	g.YieldFarmsCount.Live++
	g.YieldFarmsCount.Total++
}

// YieldFarmDestroyed decrements the live counter when a yield farm moves
// from Stopped to Deleted (it is not yet flushed, so Total is unchanged).
func (g *GlobalFarm) YieldFarmDestroyed() {
	if g.YieldFarmsCount.Live == 0 {
		panic("farming: global farm live yield-farm count underflow")
	}
	g.YieldFarmsCount.Live--
}

// YieldFarmFlushed decrements the total counter when a Deleted, empty
// yield farm is removed from storage.
func (g *GlobalFarm) YieldFarmFlushed() {
	if g.YieldFarmsCount.Total == 0 {
		panic("farming: global farm total yield-farm count underflow")
	}
	g.YieldFarmsCount.Total--
}

// addToTotalSharesZ adds delta (possibly negative) to TotalSharesZ, erroring
// if the result would go negative (a bug, since weighted shares can never
// be over-subtracted in correct call sequences, but checked per the
// "arithmetic underflow always surfaced" rule).
func addToTotalSharesZ(gf *GlobalFarm, delta *big.Int) error {
	sum := new(big.Int).Add(gf.TotalSharesZ, delta)
	if sum.Sign() < 0 {
		return ErrUnderflow
	}
	gf.TotalSharesZ = sum
	return nil
}
