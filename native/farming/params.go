package farming

import "math/big"

// MinMinDeposit is the floor every GlobalFarm's configured MinDeposit must
// clear; it exists so a farm owner cannot set a min_deposit of zero and
// let dust deposits spam the entry list.
var MinMinDeposit = big.NewInt(1000)

// MaxFarmEntriesPerDeposit bounds how many simultaneous yield farm entries
// a single deposit may hold. Must be >= 1; 8 mirrors the practical bound
// the concurrency model assumes (§5: "bounded by a small constant times
// MaxFarmEntriesPerDeposit").
const MaxFarmEntriesPerDeposit = 8

// MinPlannedYieldingPeriods is the minimum number of periods a global farm
// must schedule emission over.
const MinPlannedYieldingPeriods = 3
