package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ledger-service/internal/model"
)

type AssetRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewAssetRepository(db *gorm.DB, log *logrus.Logger) *AssetRepository {
	return &AssetRepository{
		db:  db,
		log: log,
	}
}

// WithTx returns a copy bound to an open transaction.
func (r *AssetRepository) WithTx(tx *gorm.DB) *AssetRepository {
	return &AssetRepository{db: tx, log: r.log}
}

// GetByID retrieves one asset type
func (r *AssetRepository) GetByID(ctx context.Context, id uint) (*model.AssetType, error) {
	var asset model.AssetType
	err := r.db.WithContext(ctx).First(&asset, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset type: %w", err)
	}
	return &asset, nil
}

// List retrieves all asset types ordered by symbol
func (r *AssetRepository) List(ctx context.Context) ([]model.AssetType, error) {
	var assets []model.AssetType
	err := r.db.WithContext(ctx).Order("symbol").Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	return assets, nil
}
