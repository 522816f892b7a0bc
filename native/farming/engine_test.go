package farming

import (
	"errors"
	"math/big"
	"testing"

	"github.com/galacticcouncil/warehouse/crypto"
)

func testAddress(t *testing.T, seed byte) crypto.Address {
	t.Helper()
	b := make([]byte, 20)
	b[19] = seed
	return crypto.MustNewAddress(crypto.NHBPrefix, b)
}

func newTestEngine(t *testing.T) (*Engine, *InMemoryLedger) {
	t.Helper()
	ledger := NewInMemoryLedger()
	store := NewMemStore()
	return NewEngine(store, ledger), ledger
}

func fixedRatio(t *testing.T, num, den int64) FixedU128 {
	t.Helper()
	f, err := DivInt(big.NewInt(num), big.NewInt(den))
	if err != nil {
		t.Fatalf("fixedRatio(%d,%d): %v", num, den, err)
	}
	return f
}

func constantValuation(valued int64) ValuationFunc {
	return func(_ string, _ *big.Int, _ AmmPoolID) (*big.Int, error) {
		return big.NewInt(valued), nil
	}
}

func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

func requireBigEqual(t *testing.T, got, want *big.Int, msg string) {
	t.Helper()
	if got == nil || want == nil || got.Cmp(want) != 0 {
		t.Fatalf("%s: got %v want %v", msg, got, want)
	}
}

func requireErrorIs(t *testing.T, err, target error, msg string) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("%s: got error %v, want %v", msg, err, target)
	}
}

// --- scenario 1: basic claim -------------------------------------------------

func TestClaimRewards_BasicClaim(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))

	gfID, maxReward, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
		BlockNumber:            0,
	})
	requireNoError(t, err, "create global farm")
	requireBigEqual(t, maxReward, big.NewInt(10_000), "max reward per period")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner:        owner,
		GlobalFarmID: gfID,
		Multiplier:   OneFixed(),
		Loyalty:      &LoyaltyCurve{InitialRewardPercentage: fixedRatio(t, 1, 2), ScaleCoef: 10},
		AmmPoolID:    "BSX-KSM",
		AssetPair:    [2]string{"BSX", "KSM"},
		BlockNumber:  0,
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 18)
	requireNoError(t, err, "deposit lp shares")

	gfIDOut, currency, claimable, unclaimable, err := e.ClaimRewards(alice, depositID, yfID, true, 25)
	requireNoError(t, err, "claim rewards")
	if gfIDOut != gfID {
		t.Fatalf("claim returned global farm id %d, want %d", gfIDOut, gfID)
	}
	if currency != "ACA" {
		t.Fatalf("claim returned currency %q, want ACA", currency)
	}
	requireBigEqual(t, claimable, big.NewInt(49411), "claimable")
	requireBigEqual(t, unclaimable, big.NewInt(20589), "unclaimable")

	_, _, _, _, err = e.ClaimRewards(alice, depositID, yfID, true, 25)
	requireErrorIs(t, err, ErrDoubleClaimInPeriod, "second claim in same period")
}

// --- scenario 2: equal-share fairness ---------------------------------------

func TestClaimRewards_EqualShareFairness(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	bob := testAddress(t, 2)
	charlie := testAddress(t, 3)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner:        owner,
		GlobalFarmID: gfID,
		Multiplier:   OneFixed(),
		AmmPoolID:    "BSX-KSM",
		AssetPair:    [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	bobDeposit, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", bob, big.NewInt(2000), constantValuation(10000), 5)
	requireNoError(t, err, "bob deposit")
	charlieDeposit, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", charlie, big.NewInt(2000), constantValuation(10000), 5)
	requireNoError(t, err, "charlie deposit")

	_, _, bobClaimable, bobUnclaimable, err := e.ClaimRewards(bob, bobDeposit, yfID, true, 10)
	requireNoError(t, err, "bob claim")
	_, _, charlieClaimable, charlieUnclaimable, err := e.ClaimRewards(charlie, charlieDeposit, yfID, true, 10)
	requireNoError(t, err, "charlie claim")

	requireBigEqual(t, bobClaimable, charlieClaimable, "equal-share claimable")
	requireBigEqual(t, bobUnclaimable, charlieUnclaimable, "equal-share unclaimable")
	if bobClaimable.Sign() <= 0 {
		t.Fatalf("expected positive claimable, got %v", bobClaimable)
	}
}

// --- scenario 3: multi-entry deposit -----------------------------------------

func TestClaimRewards_MultiEntryDeposit(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(6_000_000))
	gfParams := CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(2_000_000),
		PlannedYieldingPeriods: 20,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	}
	gfID, _, err := e.CreateGlobalFarm(gfParams)
	requireNoError(t, err, "create global farm")

	yfA, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "POOL-A", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm A")

	depositID, err := e.DepositLPShares(gfID, yfA, "POOL-A", alice, big.NewInt(3000), constantValuation(2500), 18)
	requireNoError(t, err, "deposit into A")

	// Entries B and C land on yield farms for the same pool under two further
	// global farms (a pool has at most one live yield farm per global farm);
	// each redeposit reuses the deposit's already-locked raw shares.
	gfB, _, err := e.CreateGlobalFarm(gfParams)
	requireNoError(t, err, "create global farm B")
	yfB, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfB, Multiplier: OneFixed(),
		AmmPoolID: "POOL-A", AssetPair: [2]string{"BSX", "KSM"}, BlockNumber: 50,
	})
	requireNoError(t, err, "create yield farm B")
	if _, _, err := e.RedepositLPShares(gfB, yfB, depositID, constantValuation(4000), 50); err != nil {
		t.Fatalf("redeposit into B: %v", err)
	}

	gfC, _, err := e.CreateGlobalFarm(gfParams)
	requireNoError(t, err, "create global farm C")
	yfC, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfC, Multiplier: OneFixed(),
		AmmPoolID: "POOL-A", AssetPair: [2]string{"BSX", "KSM"}, BlockNumber: 800,
	})
	requireNoError(t, err, "create yield farm C")
	if _, _, err := e.RedepositLPShares(gfC, yfC, depositID, constantValuation(5000), 800); err != nil {
		t.Fatalf("redeposit into C: %v", err)
	}

	deposit, ok, err := e.store.GetDeposit(depositID)
	requireNoError(t, err, "get deposit")
	if !ok {
		t.Fatalf("deposit %d not found", depositID)
	}
	if len(deposit.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(deposit.Entries))
	}
	if deposit.Entries[0].YieldFarmID != yfA {
		t.Fatalf("entries not sorted by yield farm id: entry[0]=%d want %d", deposit.Entries[0].YieldFarmID, yfA)
	}
}

// --- scenario 4: cross-currency reward ---------------------------------------

func TestClaimRewards_CrossCurrency(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 0)
	requireNoError(t, err, "deposit lp shares")

	balanceBefore, err := ledger.Balance("ACA", alice)
	requireNoError(t, err, "balance before")
	if balanceBefore.Sign() != 0 {
		t.Fatalf("expected zero balance before claim, got %v", balanceBefore)
	}

	_, currency, claimable, _, err := e.ClaimRewards(alice, depositID, yfID, true, 10)
	requireNoError(t, err, "claim rewards")
	if currency != "ACA" {
		t.Fatalf("claim returned currency %q, want ACA", currency)
	}

	balanceAfter, err := ledger.Balance("ACA", alice)
	requireNoError(t, err, "balance after")
	requireBigEqual(t, balanceAfter, claimable, "alice ACA balance after claim")

	ksmBalance, err := ledger.Balance("KSM", alice)
	requireNoError(t, err, "ksm balance")
	if ksmBalance.Sign() != 0 {
		t.Fatalf("expected zero KSM balance (incentivized asset, not reward currency), got %v", ksmBalance)
	}
}

// --- scenario 5: stop then claim ---------------------------------------------

func TestClaimRewards_StopThenClaim(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 0)
	requireNoError(t, err, "deposit lp shares")

	if _, err := e.StopYieldFarm(owner, gfID, "BSX-KSM", 10); err != nil {
		t.Fatalf("stop yield farm: %v", err)
	}

	_, _, claimable, unclaimable, err := e.ClaimRewards(alice, depositID, yfID, true, 15)
	requireNoError(t, err, "claim after stop")
	requireBigEqual(t, claimable, big.NewInt(100_000), "claimable after stop")
	requireBigEqual(t, unclaimable, big.NewInt(0), "unclaimable after stop")

	_, _, claimable2, unclaimable2, err := e.ClaimRewards(alice, depositID, yfID, true, 16)
	requireNoError(t, err, "second claim while stopped")
	requireBigEqual(t, claimable2, big.NewInt(0), "no new accrual while stopped")
	requireBigEqual(t, unclaimable2, big.NewInt(0), "no new residue while stopped")
}

// --- scenario 6: destroy gating -----------------------------------------------

func TestDestroyGlobalFarm_GatingOnLiveYieldFarms(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	_, _, err = e.DestroyGlobalFarm(owner, gfID)
	requireErrorIs(t, err, ErrGlobalFarmHasYieldFarms, "destroy with live yield farm")

	if _, err := e.StopYieldFarm(owner, gfID, "BSX-KSM", 1); err != nil {
		t.Fatalf("stop yield farm: %v", err)
	}
	if err := e.DestroyYieldFarm(owner, gfID, yfID); err != nil {
		t.Fatalf("destroy yield farm: %v", err)
	}

	currency, undistributed, err := e.DestroyGlobalFarm(owner, gfID)
	requireNoError(t, err, "destroy global farm")
	if currency != "ACA" {
		t.Fatalf("destroy returned currency %q, want ACA", currency)
	}
	requireBigEqual(t, undistributed, big.NewInt(1_000_000), "undistributed budget")

	_, ok, err := e.store.GetGlobalFarm(gfID)
	requireNoError(t, err, "get global farm after destroy")
	if ok {
		t.Fatalf("expected global farm %d to be flushed from storage", gfID)
	}

	ownerBalance, err := ledger.Balance("ACA", owner)
	requireNoError(t, err, "owner balance after destroy")
	requireBigEqual(t, ownerBalance, big.NewInt(1_000_000), "owner balance after destroy")
}

// --- boundary behaviour -------------------------------------------------------

func TestClaimRewards_InEntryPeriodYieldsZeroClaimable(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 5)
	requireNoError(t, err, "deposit lp shares")

	_, _, claimable, _, err := e.ClaimRewards(alice, depositID, yfID, false, 5)
	requireNoError(t, err, "claim in entry period")
	requireBigEqual(t, claimable, big.NewInt(0), "claimable in entry period")
}

func TestDepositLPShares_BelowMinDeposit(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	_, err = e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(999), constantValuation(500), 0)
	requireErrorIs(t, err, ErrInsufficientDeposit, "deposit below min_deposit")
}

func TestRedepositLPShares_DoubleLock(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 0)
	requireNoError(t, err, "deposit lp shares")

	_, _, err = e.RedepositLPShares(gfID, yfID, depositID, constantValuation(2500), 1)
	requireErrorIs(t, err, ErrFarmEntryAlreadyExists, "redeposit onto the same yield farm")
}

func TestClaimRewards_FromDeletedYieldFarm(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 0)
	requireNoError(t, err, "deposit lp shares")

	// alice's entry is still attached, so destroying the yield farm cannot
	// flush it from storage yet: state flips to Deleted but the record (and
	// her entry) remains until the entry is withdrawn.
	if _, err := e.StopYieldFarm(owner, gfID, "BSX-KSM", 1); err != nil {
		t.Fatalf("stop yield farm: %v", err)
	}
	if err := e.DestroyYieldFarm(owner, gfID, yfID); err != nil {
		t.Fatalf("destroy yield farm: %v", err)
	}

	_, _, _, _, err = e.ClaimRewards(alice, depositID, yfID, true, 5)
	requireErrorIs(t, err, ErrYieldFarmNotFound, "claim against a deleted yield farm")
}

func TestWithdrawLPShares_FlushesEmptyDeposit(t *testing.T) {
	e, ledger := newTestEngine(t)
	owner := testAddress(t, 1)
	alice := testAddress(t, 2)

	ledger.Credit("ACA", owner, big.NewInt(1_000_000))
	gfID, _, err := e.CreateGlobalFarm(CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           big.NewInt(1_000_000),
		PlannedYieldingPeriods: 100,
		BlocksPerPeriod:        1,
		IncentivizedAsset:      "KSM",
		RewardCurrency:         "ACA",
		YieldPerPeriod:         fixedRatio(t, 1, 10),
		MinDeposit:             big.NewInt(1000),
		PriceAdjustment:        OneFixed(),
	})
	requireNoError(t, err, "create global farm")

	yfID, err := e.CreateYieldFarm(CreateYieldFarmParams{
		Owner: owner, GlobalFarmID: gfID, Multiplier: OneFixed(),
		AmmPoolID: "BSX-KSM", AssetPair: [2]string{"BSX", "KSM"},
	})
	requireNoError(t, err, "create yield farm")

	depositID, err := e.DepositLPShares(gfID, yfID, "BSX-KSM", alice, big.NewInt(2000), constantValuation(2500), 0)
	requireNoError(t, err, "deposit lp shares")

	_, shares, depositDestroyed, err := e.WithdrawLPShares(depositID, yfID, big.NewInt(0))
	requireNoError(t, err, "withdraw lp shares")
	requireBigEqual(t, shares, big.NewInt(2000), "withdrawn shares")
	if !depositDestroyed {
		t.Fatalf("expected deposit to be flushed once its last entry is withdrawn")
	}

	_, ok, err := e.store.GetDeposit(depositID)
	requireNoError(t, err, "get deposit after withdraw")
	if ok {
		t.Fatalf("expected deposit %d to be removed from storage", depositID)
	}
}
