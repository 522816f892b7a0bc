package farming

// GlobalFarmStore persists GlobalFarm records keyed by id. No implicit
// garbage collection: a farm is removed only by an explicit Delete call
// after it has been fully drained, never as a side effect of any other
// operation.
type GlobalFarmStore interface {
	GetGlobalFarm(id GlobalFarmID) (*GlobalFarm, bool, error)
	PutGlobalFarm(f *GlobalFarm) error
	DeleteGlobalFarm(id GlobalFarmID) error
	NextGlobalFarmID() (GlobalFarmID, error)
}

// YieldFarmStore persists YieldFarm records keyed by id, plus a secondary
// index of active (non-deleted) yield farms per (ammPoolID, globalFarmID)
// so create_yield_farm can cheaply reject duplicates.
type YieldFarmStore interface {
	GetYieldFarm(id YieldFarmID) (*YieldFarm, bool, error)
	PutYieldFarm(f *YieldFarm) error
	DeleteYieldFarm(id YieldFarmID) error
	NextYieldFarmID() (YieldFarmID, error)

	// FindActiveYieldFarm returns the live (non-deleted) yield farm for a
	// given pool under a given global farm, if one exists.
	FindActiveYieldFarm(ammPoolID AmmPoolID, globalFarmID GlobalFarmID) (*YieldFarm, bool, error)
}

// DepositStore persists Deposit records keyed by id.
type DepositStore interface {
	GetDeposit(id DepositID) (*Deposit, bool, error)
	PutDeposit(d *Deposit) error
	DeleteDeposit(id DepositID) error
	NextDepositID() (DepositID, error)
}

// Store is the full storage surface the engine depends on. Concrete
// backends (MemStore, BoltStore, SQLStore) each implement the whole
// interface so the engine never needs to know which one is in play.
type Store interface {
	GlobalFarmStore
	YieldFarmStore
	DepositStore
}
