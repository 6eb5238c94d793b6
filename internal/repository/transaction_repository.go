package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ledger-service/internal/model"
)

type TransactionRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewTransactionRepository(db *gorm.DB, log *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log,
	}
}

// WithTx returns a copy bound to an open transaction.
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx, log: r.log}
}

// Create inserts a new transaction record
func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Complete seals the transaction. Called inside the same atomic unit
// that wrote the transaction's ledger entry.
func (r *TransactionRepository) Complete(ctx context.Context, txn *model.Transaction) error {
	txn.Status = model.StatusCompleted
	err := r.db.WithContext(ctx).
		Model(txn).
		Update("status", model.StatusCompleted).Error
	if err != nil {
		return fmt.Errorf("failed to complete transaction: %w", err)
	}
	return nil
}
