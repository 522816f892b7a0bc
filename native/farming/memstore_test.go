package farming

import (
	"math/big"
	"testing"
)

func TestMemStore_GlobalFarm_CRUDRoundTrip(t *testing.T) {
	s := NewMemStore()

	id, err := s.NextGlobalFarmID()
	if err != nil {
		t.Fatalf("NextGlobalFarmID: %v", err)
	}
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}

	gf := &GlobalFarm{
		ID:                     id,
		Owner:                  "nhb1owner",
		RewardCurrency:         "ACA",
		MaxRewardPerPeriod:     big.NewInt(1000),
		MinDeposit:             big.NewInt(1),
		TotalSharesZ:           big.NewInt(0),
		AccumulatedRewards:     big.NewInt(0),
		PaidAccumulatedRewards: big.NewInt(0),
	}
	if err := s.PutGlobalFarm(gf); err != nil {
		t.Fatalf("PutGlobalFarm: %v", err)
	}
	if gf.Version != 1 {
		t.Fatalf("caller's copy Version = %d, want 1", gf.Version)
	}

	got, ok, err := s.GetGlobalFarm(id)
	if err != nil {
		t.Fatalf("GetGlobalFarm: %v", err)
	}
	if !ok {
		t.Fatalf("expected global farm %d to exist", id)
	}
	if got.RewardCurrency != "ACA" {
		t.Fatalf("RewardCurrency = %q, want ACA", got.RewardCurrency)
	}

	if err := s.DeleteGlobalFarm(id); err != nil {
		t.Fatalf("DeleteGlobalFarm: %v", err)
	}
	if _, ok, err := s.GetGlobalFarm(id); err != nil || ok {
		t.Fatalf("expected global farm %d gone after delete, ok=%v err=%v", id, ok, err)
	}
}

func TestMemStore_GlobalFarm_GetReturnsIndependentClone(t *testing.T) {
	s := NewMemStore()
	id, _ := s.NextGlobalFarmID()
	gf := &GlobalFarm{
		ID:                     id,
		MaxRewardPerPeriod:     big.NewInt(1000),
		MinDeposit:             big.NewInt(1),
		TotalSharesZ:           big.NewInt(0),
		AccumulatedRewards:     big.NewInt(0),
		PaidAccumulatedRewards: big.NewInt(0),
	}
	if err := s.PutGlobalFarm(gf); err != nil {
		t.Fatalf("PutGlobalFarm: %v", err)
	}

	got, _, err := s.GetGlobalFarm(id)
	if err != nil {
		t.Fatalf("GetGlobalFarm: %v", err)
	}
	got.MinDeposit.Add(got.MinDeposit, big.NewInt(500))

	again, _, err := s.GetGlobalFarm(id)
	if err != nil {
		t.Fatalf("GetGlobalFarm: %v", err)
	}
	if again.MinDeposit.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("mutating a read leaked into storage: MinDeposit = %v, want 1", again.MinDeposit)
	}
}

func TestMemStore_GlobalFarm_PutIncrementsVersion(t *testing.T) {
	s := NewMemStore()
	id, _ := s.NextGlobalFarmID()
	gf := &GlobalFarm{
		ID:                     id,
		MaxRewardPerPeriod:     big.NewInt(1000),
		MinDeposit:             big.NewInt(1),
		TotalSharesZ:           big.NewInt(0),
		AccumulatedRewards:     big.NewInt(0),
		PaidAccumulatedRewards: big.NewInt(0),
	}
	if err := s.PutGlobalFarm(gf); err != nil {
		t.Fatalf("PutGlobalFarm #1: %v", err)
	}
	if gf.Version != 1 {
		t.Fatalf("Version after first put = %d, want 1", gf.Version)
	}
	if err := s.PutGlobalFarm(gf); err != nil {
		t.Fatalf("PutGlobalFarm #2: %v", err)
	}
	if gf.Version != 2 {
		t.Fatalf("Version after second put = %d, want 2", gf.Version)
	}
}

func TestMemStore_YieldFarm_CRUDAndFindActive(t *testing.T) {
	s := NewMemStore()
	gfID, _ := s.NextGlobalFarmID()
	yfID, err := s.NextYieldFarmID()
	if err != nil {
		t.Fatalf("NextYieldFarmID: %v", err)
	}

	yf := &YieldFarm{
		ID:                yfID,
		GlobalFarmID:      gfID,
		AmmPoolID:         "POOL-A",
		Multiplier:        OneFixed(),
		TotalShares:       big.NewInt(0),
		TotalValuedShares: big.NewInt(0),
		State:             YieldFarmActive,
	}
	if err := s.PutYieldFarm(yf); err != nil {
		t.Fatalf("PutYieldFarm: %v", err)
	}

	found, ok, err := s.FindActiveYieldFarm("POOL-A", gfID)
	if err != nil {
		t.Fatalf("FindActiveYieldFarm: %v", err)
	}
	if !ok || found.ID != yfID {
		t.Fatalf("FindActiveYieldFarm did not find the active farm: ok=%v found=%+v", ok, found)
	}

	yf.State = YieldFarmDeleted
	if err := s.PutYieldFarm(yf); err != nil {
		t.Fatalf("PutYieldFarm (deleted): %v", err)
	}
	if _, ok, err := s.FindActiveYieldFarm("POOL-A", gfID); err != nil || ok {
		t.Fatalf("FindActiveYieldFarm should skip deleted farms: ok=%v err=%v", ok, err)
	}

	if err := s.DeleteYieldFarm(yfID); err != nil {
		t.Fatalf("DeleteYieldFarm: %v", err)
	}
	if _, ok, err := s.GetYieldFarm(yfID); err != nil || ok {
		t.Fatalf("expected yield farm gone after delete: ok=%v err=%v", ok, err)
	}
}

func TestMemStore_Deposit_CRUDRoundTrip(t *testing.T) {
	s := NewMemStore()
	id, err := s.NextDepositID()
	if err != nil {
		t.Fatalf("NextDepositID: %v", err)
	}

	d := &Deposit{ID: id, Owner: "nhb1alice", Shares: big.NewInt(1000)}
	if err := d.AddEntry(newEntry(1), 8); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := s.PutDeposit(d); err != nil {
		t.Fatalf("PutDeposit: %v", err)
	}

	got, ok, err := s.GetDeposit(id)
	if err != nil {
		t.Fatalf("GetDeposit: %v", err)
	}
	if !ok {
		t.Fatalf("expected deposit %d to exist", id)
	}
	if len(got.Entries) != 1 || got.Entries[0].YieldFarmID != 1 {
		t.Fatalf("unexpected entries on round-tripped deposit: %+v", got.Entries)
	}

	if err := s.DeleteDeposit(id); err != nil {
		t.Fatalf("DeleteDeposit: %v", err)
	}
	if _, ok, err := s.GetDeposit(id); err != nil || ok {
		t.Fatalf("expected deposit gone after delete: ok=%v err=%v", ok, err)
	}
}

func TestMemStore_IDSequences_AreMonotonicAndIndependent(t *testing.T) {
	s := NewMemStore()
	for i := GlobalFarmID(1); i <= 3; i++ {
		id, err := s.NextGlobalFarmID()
		if err != nil {
			t.Fatalf("NextGlobalFarmID: %v", err)
		}
		if id != i {
			t.Fatalf("NextGlobalFarmID() = %d, want %d", id, i)
		}
	}
	yfID, err := s.NextYieldFarmID()
	if err != nil {
		t.Fatalf("NextYieldFarmID: %v", err)
	}
	if yfID != 1 {
		t.Fatalf("yield farm id sequence should be independent of global farm ids, got %d", yfID)
	}
}

func TestMemStore_GetMissing_ReturnsNotOK(t *testing.T) {
	s := NewMemStore()
	if _, ok, err := s.GetGlobalFarm(999); err != nil || ok {
		t.Fatalf("GetGlobalFarm(missing): ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.GetYieldFarm(999); err != nil || ok {
		t.Fatalf("GetYieldFarm(missing): ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.GetDeposit(999); err != nil || ok {
		t.Fatalf("GetDeposit(missing): ok=%v err=%v", ok, err)
	}
}
