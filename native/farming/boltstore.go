package farming

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketGlobalFarms    = []byte("global_farms")
	bucketYieldFarms     = []byte("yield_farms")
	bucketYieldIndex     = []byte("active_yield_farm_index")
	bucketDeposits       = []byte("deposits")
	bucketGlobalFarmSeq  = []byte("global_farm_seq")
	bucketYieldFarmSeq   = []byte("yield_farm_seq")
	bucketDepositSeq     = []byte("deposit_seq")
)

// BoltStore is a durable, embedded implementation of Store backed by
// go.etcd.io/bbolt. Each entity type lives in its own bucket; values are
// gob-encoded. A secondary index bucket maps (ammPoolID, globalFarmID) to
// the active yield farm id for that pair, maintained alongside the primary
// yield-farm bucket on every write/delete.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if necessary) a BoltStore at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("farming: open bolt store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketGlobalFarms, bucketYieldFarms, bucketYieldIndex, bucketDeposits, bucketGlobalFarmSeq, bucketYieldFarmSeq, bucketDepositSeq} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("farming: init bolt buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func encodeUint64Key(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func yieldIndexKey(ammPoolID AmmPoolID, globalFarmID GlobalFarmID) []byte {
	var buf bytes.Buffer
	buf.WriteString(string(ammPoolID))
	buf.WriteByte(0)
	buf.Write(encodeUint64Key(uint64(globalFarmID)))
	return buf.Bytes()
}

func gobMarshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobUnmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (s *BoltStore) GetGlobalFarm(id GlobalFarmID) (*GlobalFarm, bool, error) {
	var f GlobalFarm
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketGlobalFarms).Get(encodeUint64Key(uint64(id)))
		if v == nil {
			return nil
		}
		found = true
		return gobUnmarshal(v, &f)
	})
	if err != nil || !found {
		return nil, found, err
	}
	return &f, true, nil
}

func (s *BoltStore) PutGlobalFarm(f *GlobalFarm) error {
	f.Version++
	data, err := gobMarshal(f)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGlobalFarms).Put(encodeUint64Key(uint64(f.ID)), data)
	})
}

func (s *BoltStore) DeleteGlobalFarm(id GlobalFarmID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGlobalFarms).Delete(encodeUint64Key(uint64(id)))
	})
}

func (s *BoltStore) NextGlobalFarmID() (GlobalFarmID, error) {
	var next uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		next, err = tx.Bucket(bucketGlobalFarmSeq).NextSequence()
		return err
	})
	return GlobalFarmID(next), err
}

func (s *BoltStore) NextYieldFarmID() (YieldFarmID, error) {
	var next uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		next, err = tx.Bucket(bucketYieldFarmSeq).NextSequence()
		return err
	})
	return YieldFarmID(next), err
}

func (s *BoltStore) NextDepositID() (DepositID, error) {
	var next uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		next, err = tx.Bucket(bucketDepositSeq).NextSequence()
		return err
	})
	return DepositID(next), err
}

func (s *BoltStore) GetYieldFarm(id YieldFarmID) (*YieldFarm, bool, error) {
	var f YieldFarm
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketYieldFarms).Get(encodeUint64Key(uint64(id)))
		if v == nil {
			return nil
		}
		found = true
		return gobUnmarshal(v, &f)
	})
	if err != nil || !found {
		return nil, found, err
	}
	return &f, true, nil
}

func (s *BoltStore) PutYieldFarm(f *YieldFarm) error {
	f.Version++
	data, err := gobMarshal(f)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketYieldFarms).Put(encodeUint64Key(uint64(f.ID)), data); err != nil {
			return err
		}
		idxKey := yieldIndexKey(f.AmmPoolID, f.GlobalFarmID)
		idx := tx.Bucket(bucketYieldIndex)
		if f.State == YieldFarmDeleted {
			if bytes.Equal(idx.Get(idxKey), encodeUint64Key(uint64(f.ID))) {
				return idx.Delete(idxKey)
			}
			return nil
		}
		return idx.Put(idxKey, encodeUint64Key(uint64(f.ID)))
	})
}

func (s *BoltStore) DeleteYieldFarm(id YieldFarmID) error {
	existing, ok, err := s.GetYieldFarm(id)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if ok {
			idx := tx.Bucket(bucketYieldIndex)
			idxKey := yieldIndexKey(existing.AmmPoolID, existing.GlobalFarmID)
			if bytes.Equal(idx.Get(idxKey), encodeUint64Key(uint64(id))) {
				idx.Delete(idxKey)
			}
		}
		return tx.Bucket(bucketYieldFarms).Delete(encodeUint64Key(uint64(id)))
	})
}

func (s *BoltStore) FindActiveYieldFarm(ammPoolID AmmPoolID, globalFarmID GlobalFarmID) (*YieldFarm, bool, error) {
	var id uint64
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketYieldIndex).Get(yieldIndexKey(ammPoolID, globalFarmID))
		if v == nil {
			return nil
		}
		found = true
		id = binary.BigEndian.Uint64(v)
		return nil
	})
	if err != nil || !found {
		return nil, found, err
	}
	return s.GetYieldFarm(YieldFarmID(id))
}

func (s *BoltStore) GetDeposit(id DepositID) (*Deposit, bool, error) {
	var d Deposit
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDeposits).Get(encodeUint64Key(uint64(id)))
		if v == nil {
			return nil
		}
		found = true
		return gobUnmarshal(v, &d)
	})
	if err != nil || !found {
		return nil, found, err
	}
	return &d, true, nil
}

func (s *BoltStore) PutDeposit(d *Deposit) error {
	d.Version++
	data, err := gobMarshal(d)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeposits).Put(encodeUint64Key(uint64(d.ID)), data)
	})
}

func (s *BoltStore) DeleteDeposit(id DepositID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeposits).Delete(encodeUint64Key(uint64(id)))
	})
}
