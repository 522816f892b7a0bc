package farming

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// globalFarmRow, yieldFarmRow and depositRow are the gorm-mapped row
// shapes for SQLStore. Entity structs aren't mapped directly because they
// contain unexported fields (FixedU128.raw); each row stores its entity as
// a JSON blob alongside the indexed columns queries actually filter on.
type globalFarmRow struct {
	ID      uint64 `gorm:"primaryKey"`
	State   int
	Payload []byte
}

type yieldFarmRow struct {
	ID           uint64 `gorm:"primaryKey"`
	GlobalFarmID uint64 `gorm:"index:idx_yield_active"`
	AmmPoolID    string `gorm:"index:idx_yield_active"`
	State        int    `gorm:"index:idx_yield_active"`
	Payload      []byte
}

type depositRow struct {
	ID      uint64 `gorm:"primaryKey"`
	Payload []byte
}

type seqRow struct {
	Name string `gorm:"primaryKey"`
	Next uint64
}

// SQLStore is a Store implementation backed by gorm + a pure-Go sqlite
// driver (no cgo). It shares the ORM stack used by the asset ledger
// (ledger_postgres.go) for deployments that want a single database engine
// rather than the embedded bbolt file.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (migrating schema if necessary) a SQLStore at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("farming: open sqlite store: %w", err)
	}
	if err := db.AutoMigrate(&globalFarmRow{}, &yieldFarmRow{}, &depositRow{}, &seqRow{}); err != nil {
		return nil, fmt.Errorf("farming: migrate sqlite schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) nextSeq(name string) (uint64, error) {
	var next uint64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row seqRow
		err := tx.First(&row, "name = ?", name).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = seqRow{Name: name, Next: 1}
		case err != nil:
			return err
		default:
			row.Next++
		}
		next = row.Next
		return tx.Save(&row).Error
	})
	return next, err
}

func (s *SQLStore) NextGlobalFarmID() (GlobalFarmID, error) {
	n, err := s.nextSeq("global_farm_id")
	return GlobalFarmID(n), err
}

func (s *SQLStore) NextYieldFarmID() (YieldFarmID, error) {
	n, err := s.nextSeq("yield_farm_id")
	return YieldFarmID(n), err
}

func (s *SQLStore) NextDepositID() (DepositID, error) {
	n, err := s.nextSeq("deposit_id")
	return DepositID(n), err
}

func (s *SQLStore) GetGlobalFarm(id GlobalFarmID) (*GlobalFarm, bool, error) {
	var row globalFarmRow
	err := s.db.First(&row, "id = ?", uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var f GlobalFarm
	if err := json.Unmarshal(row.Payload, &f); err != nil {
		return nil, false, err
	}
	return &f, true, nil
}

func (s *SQLStore) PutGlobalFarm(f *GlobalFarm) error {
	f.Version++
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	row := globalFarmRow{ID: uint64(f.ID), State: int(f.State), Payload: payload}
	return s.db.Save(&row).Error
}

func (s *SQLStore) DeleteGlobalFarm(id GlobalFarmID) error {
	return s.db.Delete(&globalFarmRow{}, "id = ?", uint64(id)).Error
}

func (s *SQLStore) GetYieldFarm(id YieldFarmID) (*YieldFarm, bool, error) {
	var row yieldFarmRow
	err := s.db.First(&row, "id = ?", uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var f YieldFarm
	if err := json.Unmarshal(row.Payload, &f); err != nil {
		return nil, false, err
	}
	return &f, true, nil
}

func (s *SQLStore) PutYieldFarm(f *YieldFarm) error {
	f.Version++
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	row := yieldFarmRow{
		ID:           uint64(f.ID),
		GlobalFarmID: uint64(f.GlobalFarmID),
		AmmPoolID:    string(f.AmmPoolID),
		State:        int(f.State),
		Payload:      payload,
	}
	return s.db.Save(&row).Error
}

func (s *SQLStore) DeleteYieldFarm(id YieldFarmID) error {
	return s.db.Delete(&yieldFarmRow{}, "id = ?", uint64(id)).Error
}

func (s *SQLStore) FindActiveYieldFarm(ammPoolID AmmPoolID, globalFarmID GlobalFarmID) (*YieldFarm, bool, error) {
	var row yieldFarmRow
	err := s.db.First(&row, "amm_pool_id = ? AND global_farm_id = ? AND state <> ?",
		string(ammPoolID), uint64(globalFarmID), int(YieldFarmDeleted)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var f YieldFarm
	if err := json.Unmarshal(row.Payload, &f); err != nil {
		return nil, false, err
	}
	return &f, true, nil
}

func (s *SQLStore) GetDeposit(id DepositID) (*Deposit, bool, error) {
	var row depositRow
	err := s.db.First(&row, "id = ?", uint64(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var d Deposit
	if err := json.Unmarshal(row.Payload, &d); err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

func (s *SQLStore) PutDeposit(d *Deposit) error {
	d.Version++
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	row := depositRow{ID: uint64(d.ID), Payload: payload}
	return s.db.Save(&row).Error
}

func (s *SQLStore) DeleteDeposit(id DepositID) error {
	return s.db.Delete(&depositRow{}, "id = ?", uint64(id)).Error
}
