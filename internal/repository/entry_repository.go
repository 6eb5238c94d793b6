package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ledger-service/internal/model"
)

type EntryRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewEntryRepository(db *gorm.DB, log *logrus.Logger) *EntryRepository {
	return &EntryRepository{
		db:  db,
		log: log,
	}
}

// WithTx returns a copy bound to an open transaction.
func (r *EntryRepository) WithTx(tx *gorm.DB) *EntryRepository {
	return &EntryRepository{db: tx, log: r.log}
}

// Create appends one ledger entry. A duplicate idempotency key surfaces
// as gorm.ErrDuplicatedKey for the caller to convert into a replay.
func (r *EntryRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// FindByIdempotencyKey returns the committed entry carrying the key, with
// its parent transaction loaded, or nil when no such entry exists.
func (r *EntryRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := r.db.WithContext(ctx).
		Preload("Transaction").
		Where("idempotency_key = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	return &entry, nil
}

// WalletDeltas returns the amount and direction columns of every entry
// touching the wallet, oldest first.
func (r *EntryRepository) WalletDeltas(ctx context.Context, walletID uint) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Select("amount", "debit_wallet_id", "credit_wallet_id").
		Where("debit_wallet_id = ? OR credit_wallet_id = ?", walletID, walletID).
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet entries: %w", err)
	}
	return entries, nil
}

// History returns up to limit entries touching any of the wallets,
// newest first, with parent transactions loaded.
func (r *EntryRepository) History(ctx context.Context, walletIDs []uint, limit int) ([]model.LedgerEntry, error) {
	if len(walletIDs) == 0 {
		return nil, nil
	}

	var entries []model.LedgerEntry
	err := r.db.WithContext(ctx).
		Preload("Transaction").
		Where("debit_wallet_id IN ? OR credit_wallet_id IN ?", walletIDs, walletIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}
