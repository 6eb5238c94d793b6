package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the fixed number of fractional digits every persisted
// amount is quantized to.
const AmountScale = 4

type TransactionKind string

const (
	KindTopUp TransactionKind = "TOPUP"
	KindBonus TransactionKind = "BONUS"
	KindSpend TransactionKind = "SPEND"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// AssetType is reference data: immutable once created.
type AssetType struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Symbol    string    `gorm:"size:16;uniqueIndex;not null" json:"symbol"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (AssetType) TableName() string {
	return "asset_types"
}

// User is an account holder. Exactly one user per deployment carries
// IsTreasury; all transfers that are not user-to-user route through it.
type User struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Username   string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	IsTreasury bool      `gorm:"not null;default:false" json:"is_treasury"`
	CreatedAt  time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// Wallet holds no balance column: balance is always derived from the
// ledger entries that reference it. Created lazily on first touch,
// unique per (user, asset), never deleted.
type Wallet struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_wallets_user_asset;not null" json:"user_id"`
	AssetTypeID uint      `gorm:"uniqueIndex:idx_wallets_user_asset;not null" json:"asset_type_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Transaction groups the ledger entries of one logical operation.
type Transaction struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	Reference   string            `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	Kind        TransactionKind   `gorm:"size:16;not null" json:"kind"`
	Status      TransactionStatus `gorm:"size:16;not null" json:"status"`
	Description string            `gorm:"size:255" json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// LedgerEntry is one immutable value movement: the debit wallet loses
// Amount, the credit wallet gains it. Never updated or deleted;
// corrections are new offsetting entries.
type LedgerEntry struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	TransactionID  uint            `gorm:"index;not null" json:"transaction_id"`
	Transaction    Transaction     `json:"-"`
	AssetTypeID    uint            `gorm:"index;not null" json:"asset_type_id"`
	DebitWalletID  uint            `gorm:"index;not null" json:"debit_wallet_id"`
	CreditWalletID uint            `gorm:"index;not null" json:"credit_wallet_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Kind           TransactionKind `gorm:"size:16;not null" json:"kind"`
	IdempotencyKey *string         `gorm:"size:255;uniqueIndex" json:"idempotency_key,omitempty"`
	Metadata       string          `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
