package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ledger-service/internal/model"
)

type WalletRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewWalletRepository(db *gorm.DB, log *logrus.Logger) *WalletRepository {
	return &WalletRepository{
		db:  db,
		log: log,
	}
}

// WithTx returns a copy bound to an open transaction.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx, log: r.log}
}

// Resolve returns the wallet for (user, asset), creating it on first
// touch. Concurrent first-touches race on the (user_id, asset_type_id)
// unique index; the loser re-reads the winner's row instead of failing.
func (r *WalletRepository) Resolve(ctx context.Context, userID, assetTypeID uint) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset_type_id = ?", userID, assetTypeID).
		First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}

	wallet = model.Wallet{UserID: userID, AssetTypeID: assetTypeID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "asset_type_id"}},
		DoNothing: true,
	}).Create(&wallet)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the create race; the row exists now.
		if err := r.db.WithContext(ctx).
			Where("user_id = ? AND asset_type_id = ?", userID, assetTypeID).
			First(&wallet).Error; err != nil {
			return nil, fmt.Errorf("failed to re-read wallet after conflict: %w", err)
		}
	} else {
		r.log.WithFields(logrus.Fields{
			"wallet_id": wallet.ID,
			"user_id":   userID,
			"asset_id":  assetTypeID,
		}).Debug("wallet created")
	}
	return &wallet, nil
}

// ResolveTreasury resolves the system treasury wallet for an asset.
// A missing treasury user is a deployment error, not a per-request one.
func (r *WalletRepository) ResolveTreasury(ctx context.Context, assetTypeID uint) (*model.Wallet, error) {
	var treasury model.User
	err := r.db.WithContext(ctx).Where("is_treasury = ?", true).First(&treasury).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTreasuryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find treasury user: %w", err)
	}
	return r.Resolve(ctx, treasury.ID, assetTypeID)
}

// Find returns the wallet for (user, asset) or nil without creating it.
func (r *WalletRepository) Find(ctx context.Context, userID, assetTypeID uint) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset_type_id = ?", userID, assetTypeID).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return &wallet, nil
}

// ListByUser returns the user's wallets, optionally filtered by asset.
func (r *WalletRepository) ListByUser(ctx context.Context, userID uint, assetTypeID *uint) ([]model.Wallet, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if assetTypeID != nil {
		q = q.Where("asset_type_id = ?", *assetTypeID)
	}

	var wallets []model.Wallet
	if err := q.Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}
