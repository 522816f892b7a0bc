package farming

import (
	"errors"
	"math/big"
	"testing"
)

func newEntry(yieldFarmID YieldFarmID) *YieldFarmEntry {
	return &YieldFarmEntry{
		YieldFarmID:               yieldFarmID,
		ValuedShares:              big.NewInt(100),
		AccumulatedClaimedRewards: big.NewInt(0),
	}
}

func TestDeposit_AddEntry_SortedUnique(t *testing.T) {
	d := &Deposit{Shares: big.NewInt(1000)}

	if err := d.AddEntry(newEntry(5), 8); err != nil {
		t.Fatalf("add entry 5: %v", err)
	}
	if err := d.AddEntry(newEntry(1), 8); err != nil {
		t.Fatalf("add entry 1: %v", err)
	}
	if err := d.AddEntry(newEntry(3), 8); err != nil {
		t.Fatalf("add entry 3: %v", err)
	}

	want := []YieldFarmID{1, 3, 5}
	if len(d.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(d.Entries))
	}
	for i, id := range want {
		if d.Entries[i].YieldFarmID != id {
			t.Fatalf("entries[%d].YieldFarmID = %d, want %d", i, d.Entries[i].YieldFarmID, id)
		}
	}

	if err := d.AddEntry(newEntry(3), 8); !errors.Is(err, ErrFarmEntryAlreadyExists) {
		t.Fatalf("re-adding yield farm 3: got %v, want ErrFarmEntryAlreadyExists", err)
	}
}

func TestDeposit_AddEntry_MaxEntriesExceeded(t *testing.T) {
	d := &Deposit{Shares: big.NewInt(1000)}
	for i := YieldFarmID(1); i <= MaxFarmEntriesPerDeposit; i++ {
		if err := d.AddEntry(newEntry(i), MaxFarmEntriesPerDeposit); err != nil {
			t.Fatalf("add entry %d: %v", i, err)
		}
	}
	if err := d.AddEntry(newEntry(MaxFarmEntriesPerDeposit+1), MaxFarmEntriesPerDeposit); !errors.Is(err, ErrMaxEntriesExceeded) {
		t.Fatalf("exceeding max entries: got %v, want ErrMaxEntriesExceeded", err)
	}
}

func TestDeposit_RemoveEntry(t *testing.T) {
	d := &Deposit{Shares: big.NewInt(1000)}
	for _, id := range []YieldFarmID{1, 2, 3} {
		if err := d.AddEntry(newEntry(id), 8); err != nil {
			t.Fatalf("add entry %d: %v", id, err)
		}
	}

	removed, err := d.RemoveEntry(2)
	if err != nil {
		t.Fatalf("remove entry 2: %v", err)
	}
	if removed.YieldFarmID != 2 {
		t.Fatalf("removed entry has YieldFarmID %d, want 2", removed.YieldFarmID)
	}
	if len(d.Entries) != 2 || d.Entries[0].YieldFarmID != 1 || d.Entries[1].YieldFarmID != 3 {
		t.Fatalf("unexpected remaining entries after removal: %+v", d.Entries)
	}

	if _, err := d.RemoveEntry(2); !errors.Is(err, ErrFarmEntryNotFound) {
		t.Fatalf("removing already-removed entry: got %v, want ErrFarmEntryNotFound", err)
	}
}

func TestDeposit_CanBeFlushed(t *testing.T) {
	d := &Deposit{Shares: big.NewInt(1000)}
	if !d.CanBeFlushed() {
		t.Fatalf("expected an entry-less deposit to be flushable")
	}
	if err := d.AddEntry(newEntry(1), 8); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if d.CanBeFlushed() {
		t.Fatalf("expected a deposit with a live entry to not be flushable")
	}
}

func TestDeposit_Clone_IsIndependent(t *testing.T) {
	d := &Deposit{Shares: big.NewInt(1000)}
	if err := d.AddEntry(newEntry(1), 8); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	clone := d.Clone()
	clone.Shares.Add(clone.Shares, big.NewInt(500))
	clone.Entries[0].ValuedShares.Add(clone.Entries[0].ValuedShares, big.NewInt(1))

	if d.Shares.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("mutating clone.Shares affected the original: %v", d.Shares)
	}
	if d.Entries[0].ValuedShares.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("mutating clone entry affected the original: %v", d.Entries[0].ValuedShares)
	}
}

func TestGlobalFarm_HasNoLiveFarmsAndCanBeFlushed(t *testing.T) {
	gf := &GlobalFarm{State: GlobalFarmActive}
	gf.YieldFarmAdded()
	if gf.HasNoLiveFarms() {
		t.Fatalf("expected a farm with one live yield farm to report HasNoLiveFarms=false")
	}
	if gf.CanBeFlushed() {
		t.Fatalf("an Active global farm must never be flushable")
	}

	gf.YieldFarmDestroyed()
	if !gf.HasNoLiveFarms() {
		t.Fatalf("expected HasNoLiveFarms=true once the only yield farm is destroyed")
	}

	gf.State = GlobalFarmDeleted
	if gf.CanBeFlushed() {
		t.Fatalf("expected CanBeFlushed=false while YieldFarmsCount.Total is still 1")
	}
	gf.YieldFarmFlushed()
	if !gf.CanBeFlushed() {
		t.Fatalf("expected CanBeFlushed=true once Total reaches 0")
	}
}

func TestYieldFarm_CanBeFlushed(t *testing.T) {
	yf := &YieldFarm{State: YieldFarmStopped}
	if err := yf.EntryAdded(); err != nil {
		t.Fatalf("entry added: %v", err)
	}
	if yf.CanBeFlushed() {
		t.Fatalf("expected a stopped but non-empty yield farm to not be flushable")
	}
	if err := yf.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if yf.CanBeFlushed() {
		t.Fatalf("expected a deleted but non-empty yield farm to not be flushable")
	}
	yf.EntryRemoved()
	if !yf.CanBeFlushed() {
		t.Fatalf("expected a deleted, empty yield farm to be flushable")
	}
}
