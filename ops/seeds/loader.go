package seeds

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/galacticcouncil/warehouse/crypto"
	"github.com/galacticcouncil/warehouse/native/farming"
)

// Manifest describes the global and yield farms to bootstrap a fresh
// deployment with, so an operator doesn't have to script create-farm calls
// by hand on first run.
type Manifest struct {
	GlobalFarms []GlobalFarmSeed `yaml:"globalFarms"`
}

// GlobalFarmSeed mirrors farming.CreateGlobalFarmParams in YAML-friendly
// form (decimal strings for amounts, ppm for fixed-point ratios) plus the
// yield farms to attach to it.
type GlobalFarmSeed struct {
	Owner                  string          `yaml:"owner"`
	TotalRewards           string          `yaml:"totalRewards"`
	PlannedYieldingPeriods uint64          `yaml:"plannedYieldingPeriods"`
	BlocksPerPeriod        uint64          `yaml:"blocksPerPeriod"`
	IncentivizedAsset      string          `yaml:"incentivizedAsset"`
	RewardCurrency         string          `yaml:"rewardCurrency"`
	YieldPerPeriodPpm      uint64          `yaml:"yieldPerPeriodPpm"`
	MinDeposit             string          `yaml:"minDeposit"`
	PriceAdjustmentPpm     uint64          `yaml:"priceAdjustmentPpm"`
	YieldFarms             []YieldFarmSeed `yaml:"yieldFarms"`
}

// YieldFarmSeed mirrors farming.CreateYieldFarmParams, minus the global farm
// id (implied by nesting under a GlobalFarmSeed).
type YieldFarmSeed struct {
	MultiplierPpm uint64          `yaml:"multiplierPpm"`
	AmmPoolID     string          `yaml:"ammPoolId"`
	AssetPair     [2]string       `yaml:"assetPair"`
	Loyalty       *LoyaltySeed    `yaml:"loyalty,omitempty"`
}

// LoyaltySeed mirrors farming.LoyaltyCurve.
type LoyaltySeed struct {
	InitialRewardPercentagePpm uint64 `yaml:"initialRewardPercentagePpm"`
	ScaleCoef                  uint64 `yaml:"scaleCoef"`
}

// Load parses a seed manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seeds: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("seeds: parse %s: %w", path, err)
	}
	return &m, nil
}

// Apply creates every farm described in the manifest against engine, at
// blockNumber. Yield farms are created under the global farm id the engine
// assigns, in the order they're declared. Apply is meant for a brand new
// deployment; it makes no attempt to reconcile against farms that already
// exist.
func Apply(engine *farming.Engine, m *Manifest, blockNumber uint64) error {
	for i, gfSeed := range m.GlobalFarms {
		owner, err := crypto.DecodeAddress(gfSeed.Owner)
		if err != nil {
			return fmt.Errorf("seeds: global farm %d: owner: %w", i, err)
		}
		totalRewards, ok := new(big.Int).SetString(gfSeed.TotalRewards, 10)
		if !ok {
			return fmt.Errorf("seeds: global farm %d: invalid totalRewards %q", i, gfSeed.TotalRewards)
		}
		minDeposit, ok := new(big.Int).SetString(gfSeed.MinDeposit, 10)
		if !ok {
			return fmt.Errorf("seeds: global farm %d: invalid minDeposit %q", i, gfSeed.MinDeposit)
		}

		globalFarmID, _, err := engine.CreateGlobalFarm(farming.CreateGlobalFarmParams{
			Owner:                  owner,
			TotalRewards:           totalRewards,
			PlannedYieldingPeriods: gfSeed.PlannedYieldingPeriods,
			BlocksPerPeriod:        gfSeed.BlocksPerPeriod,
			IncentivizedAsset:      gfSeed.IncentivizedAsset,
			RewardCurrency:         gfSeed.RewardCurrency,
			YieldPerPeriod:         farming.FixedFromPpm(gfSeed.YieldPerPeriodPpm),
			MinDeposit:             minDeposit,
			PriceAdjustment:        farming.FixedFromPpm(gfSeed.PriceAdjustmentPpm),
			BlockNumber:            blockNumber,
		})
		if err != nil {
			return fmt.Errorf("seeds: create global farm %d: %w", i, err)
		}

		for j, yfSeed := range gfSeed.YieldFarms {
			var loyalty *farming.LoyaltyCurve
			if yfSeed.Loyalty != nil {
				loyalty = &farming.LoyaltyCurve{
					InitialRewardPercentage: farming.FixedFromPpm(yfSeed.Loyalty.InitialRewardPercentagePpm),
					ScaleCoef:               yfSeed.Loyalty.ScaleCoef,
				}
			}
			if _, err := engine.CreateYieldFarm(farming.CreateYieldFarmParams{
				Owner:        owner,
				GlobalFarmID: globalFarmID,
				Multiplier:   farming.FixedFromPpm(yfSeed.MultiplierPpm),
				Loyalty:      loyalty,
				AmmPoolID:    farming.AmmPoolID(yfSeed.AmmPoolID),
				AssetPair:    yfSeed.AssetPair,
				BlockNumber:  blockNumber,
			}); err != nil {
				return fmt.Errorf("seeds: create yield farm %d under global farm %d: %w", j, i, err)
			}
		}
	}
	return nil
}
