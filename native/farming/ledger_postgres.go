package farming

import (
	"errors"
	"fmt"
	"math/big"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/galacticcouncil/warehouse/crypto"
	"github.com/galacticcouncil/warehouse/observability"
)

// ledgerEntry is the gorm-mapped row backing PostgresLedger: one row per
// (asset, account), holding the balance as its decimal-string
// representation since big.Int has no native Postgres numeric mapping.
type ledgerEntry struct {
	Asset   string `gorm:"primaryKey"`
	Account string `gorm:"primaryKey"`
	Balance string
}

func (ledgerEntry) TableName() string { return "ledger_entries" }

// PostgresLedger is an AssetTransactor backed by a Postgres table, for
// deployments where the engine's host is itself an off-chain indexer
// rather than an on-chain VM with its own native token accounting.
type PostgresLedger struct {
	db *gorm.DB
}

// OpenPostgresLedger opens a connection using dsn and migrates the ledger
// table if needed.
func OpenPostgresLedger(dsn string) (*PostgresLedger, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("farming: open postgres ledger: %w", err)
	}
	if err := db.AutoMigrate(&ledgerEntry{}); err != nil {
		return nil, fmt.Errorf("farming: migrate ledger schema: %w", err)
	}
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) balanceLocked(tx *gorm.DB, asset, account string) (*big.Int, *ledgerEntry, error) {
	var row ledgerEntry
	err := tx.First(&row, "asset = ? AND account = ?", asset, account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = ledgerEntry{Asset: asset, Account: account, Balance: "0"}
		bal := big.NewInt(0)
		return bal, &row, nil
	}
	if err != nil {
		return nil, nil, err
	}
	bal, ok := new(big.Int).SetString(row.Balance, 10)
	if !ok {
		return nil, nil, fmt.Errorf("farming: corrupt ledger balance for %s/%s", asset, account)
	}
	return bal, &row, nil
}

func (l *PostgresLedger) Transfer(asset string, from, to crypto.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		fromBal, fromRow, err := l.balanceLocked(tx, asset, from.String())
		if err != nil {
			return err
		}
		if fromBal.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		toBal, toRow, err := l.balanceLocked(tx, asset, to.String())
		if err != nil {
			return err
		}
		fromBal.Sub(fromBal, amount)
		toBal.Add(toBal, amount)
		fromRow.Balance = fromBal.String()
		toRow.Balance = toBal.String()
		if err := tx.Save(fromRow).Error; err != nil {
			return err
		}
		if err := tx.Save(toRow).Error; err != nil {
			return err
		}
		observability.Events().RecordTransfer(asset)
		return nil
	})
}

func (l *PostgresLedger) Balance(asset string, account crypto.Address) (*big.Int, error) {
	bal, _, err := l.balanceLocked(l.db, asset, account.String())
	return bal, err
}

func (l *PostgresLedger) EnsureCanWithdraw(asset string, account crypto.Address, amount *big.Int) error {
	bal, err := l.Balance(asset, account)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// Credit increases account's balance of asset by amount, for seeding farm
// treasuries from off-engine deposits (e.g. an admin funding tool).
func (l *PostgresLedger) Credit(asset string, account crypto.Address, amount *big.Int) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		bal, row, err := l.balanceLocked(tx, asset, account.String())
		if err != nil {
			return err
		}
		bal.Add(bal, amount)
		row.Balance = bal.String()
		return tx.Save(row).Error
	})
}
