package farming

import "sync"

// MemStore is an in-process implementation of Store used by tests and by
// single-node deployments that don't need durability across restarts.
type MemStore struct {
	mu sync.Mutex

	globalFarms map[GlobalFarmID]*GlobalFarm
	yieldFarms  map[YieldFarmID]*YieldFarm
	deposits    map[DepositID]*Deposit

	nextGlobalFarmID GlobalFarmID
	nextYieldFarmID  YieldFarmID
	nextDepositID    DepositID
}

// NewMemStore returns an empty MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		globalFarms: make(map[GlobalFarmID]*GlobalFarm),
		yieldFarms:  make(map[YieldFarmID]*YieldFarm),
		deposits:    make(map[DepositID]*Deposit),
	}
}

func (s *MemStore) GetGlobalFarm(id GlobalFarmID) (*GlobalFarm, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.globalFarms[id]
	if !ok {
		return nil, false, nil
	}
	return f.Clone(), true, nil
}

func (s *MemStore) PutGlobalFarm(f *GlobalFarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := f.Clone()
	stored.Version++
	s.globalFarms[f.ID] = stored
	f.Version = stored.Version
	return nil
}

func (s *MemStore) DeleteGlobalFarm(id GlobalFarmID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.globalFarms, id)
	return nil
}

func (s *MemStore) NextGlobalFarmID() (GlobalFarmID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGlobalFarmID++
	return s.nextGlobalFarmID, nil
}

func (s *MemStore) GetYieldFarm(id YieldFarmID) (*YieldFarm, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.yieldFarms[id]
	if !ok {
		return nil, false, nil
	}
	return f.Clone(), true, nil
}

func (s *MemStore) PutYieldFarm(f *YieldFarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := f.Clone()
	stored.Version++
	s.yieldFarms[f.ID] = stored
	f.Version = stored.Version
	return nil
}

func (s *MemStore) DeleteYieldFarm(id YieldFarmID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.yieldFarms, id)
	return nil
}

func (s *MemStore) NextYieldFarmID() (YieldFarmID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextYieldFarmID++
	return s.nextYieldFarmID, nil
}

func (s *MemStore) FindActiveYieldFarm(ammPoolID AmmPoolID, globalFarmID GlobalFarmID) (*YieldFarm, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.yieldFarms {
		if f.State == YieldFarmDeleted {
			continue
		}
		if f.AmmPoolID == ammPoolID && f.GlobalFarmID == globalFarmID {
			return f.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func (s *MemStore) GetDeposit(id DepositID) (*Deposit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deposits[id]
	if !ok {
		return nil, false, nil
	}
	return d.Clone(), true, nil
}

func (s *MemStore) PutDeposit(d *Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := d.Clone()
	stored.Version++
	s.deposits[d.ID] = stored
	d.Version = stored.Version
	return nil
}

func (s *MemStore) DeleteDeposit(id DepositID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deposits, id)
	return nil
}

func (s *MemStore) NextDepositID() (DepositID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDepositID++
	return s.nextDepositID, nil
}
