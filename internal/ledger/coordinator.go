package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ledger-service/internal/events"
	"ledger-service/internal/model"
	"ledger-service/internal/repository"
)

// EventPublisher receives a notification for every committed transfer.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, ev events.TransactionEvent) error
}

// TransferRequest is the engine-level input shared by all three
// transfer kinds.
type TransferRequest struct {
	UserID         uint
	AssetTypeID    uint
	Amount         decimal.Decimal
	IdempotencyKey string
	Description    string
}

// TransferResult reports a committed (or replayed) transfer. Balance is
// the debited wallet's remaining balance and is set for SPEND only.
type TransferResult struct {
	TransactionID uint
	Reference     string
	Kind          model.TransactionKind
	Amount        decimal.Decimal
	Replay        bool
	Balance       *decimal.Decimal
}

// TransactionCoordinator runs the shared state machine of all transfer
// kinds: validate, replay check, then one atomic unit wrapping wallet
// resolution, ordered lock acquisition, the spend balance guard, and
// the ledger append. Every failure inside the unit rolls the whole
// unit back.
type TransactionCoordinator struct {
	db      *gorm.DB
	assets  *repository.AssetRepository
	wallets *repository.WalletRepository
	entries *repository.EntryRepository
	txns    *repository.TransactionRepository
	locker  Locker
	guard   *IdempotencyGuard
	events  EventPublisher
	timeout time.Duration
	log     *logrus.Logger
}

func NewTransactionCoordinator(
	db *gorm.DB,
	assets *repository.AssetRepository,
	wallets *repository.WalletRepository,
	entries *repository.EntryRepository,
	txns *repository.TransactionRepository,
	locker Locker,
	timeout time.Duration,
	log *logrus.Logger,
) *TransactionCoordinator {
	return &TransactionCoordinator{
		db:      db,
		assets:  assets,
		wallets: wallets,
		entries: entries,
		txns:    txns,
		locker:  locker,
		guard:   NewIdempotencyGuard(entries),
		timeout: timeout,
		log:     log,
	}
}

// WithEvents attaches an optional post-commit event publisher.
func (c *TransactionCoordinator) WithEvents(pub EventPublisher) *TransactionCoordinator {
	c.events = pub
	return c
}

// TopUp credits the user's wallet from the treasury.
func (c *TransactionCoordinator) TopUp(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	return c.transfer(ctx, model.KindTopUp, req)
}

// Bonus credits the user's wallet from the treasury.
func (c *TransactionCoordinator) Bonus(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	return c.transfer(ctx, model.KindBonus, req)
}

// Spend debits the user's wallet into the treasury, gated on the
// derived balance.
func (c *TransactionCoordinator) Spend(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	return c.transfer(ctx, model.KindSpend, req)
}

func (c *TransactionCoordinator) transfer(ctx context.Context, kind model.TransactionKind, req TransferRequest) (*TransferResult, error) {
	// Quantize before validating: a sub-scale amount that rounds to
	// zero must be rejected, never persisted as a zero-amount entry.
	amount := req.Amount.Round(model.AmountScale)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if l := len(req.IdempotencyKey); l == 0 || l > 255 {
		return nil, ErrInvalidIdempotencyKey
	}

	// Fast path: the key may already have committed.
	if replay, err := c.guard.CheckReplay(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if replay != nil {
		return replay, nil
	}

	unitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		result  *TransferResult
		release func()
	)
	err := c.db.WithContext(unitCtx).Transaction(func(tx *gorm.DB) error {
		wallets := c.wallets.WithTx(tx)
		entries := c.entries.WithTx(tx)
		txns := c.txns.WithTx(tx)

		if _, err := c.assets.WithTx(tx).GetByID(unitCtx, req.AssetTypeID); err != nil {
			return err
		}
		userWallet, err := wallets.Resolve(unitCtx, req.UserID, req.AssetTypeID)
		if err != nil {
			return err
		}
		treasuryWallet, err := wallets.ResolveTreasury(unitCtx, req.AssetTypeID)
		if err != nil {
			return err
		}

		rel, err := c.locker.LockWallets(unitCtx, tx, []uint{userWallet.ID, treasuryWallet.ID})
		if err != nil {
			return err
		}
		release = rel

		debit, credit := direction(kind, userWallet, treasuryWallet)

		var remaining *decimal.Decimal
		if kind == model.KindSpend {
			balance, err := NewBalanceCalculator(entries).BalanceOf(unitCtx, debit.ID)
			if err != nil {
				return err
			}
			if balance.LessThan(amount) {
				return &InsufficientFundsError{Available: balance, Requested: amount}
			}
			left := balance.Sub(amount)
			remaining = &left
		}

		txn := &model.Transaction{
			Reference:   uuid.NewString(),
			Kind:        kind,
			Status:      model.StatusPending,
			Description: req.Description,
		}
		if err := txns.Create(unitCtx, txn); err != nil {
			return err
		}

		key := req.IdempotencyKey
		entry := &model.LedgerEntry{
			TransactionID:  txn.ID,
			AssetTypeID:    req.AssetTypeID,
			DebitWalletID:  debit.ID,
			CreditWalletID: credit.ID,
			Amount:         amount,
			Kind:           kind,
			IdempotencyKey: &key,
		}
		if err := entries.Create(unitCtx, entry); err != nil {
			return err
		}
		if err := txns.Complete(unitCtx, txn); err != nil {
			return err
		}

		result = &TransferResult{
			TransactionID: txn.ID,
			Reference:     txn.Reference,
			Kind:          kind,
			Amount:        amount,
			Balance:       remaining,
		}
		return nil
	})
	if release != nil {
		release()
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race: the winner's entry is the result.
			replay, rerr := c.guard.CheckReplay(ctx, req.IdempotencyKey)
			if rerr == nil && replay != nil {
				return replay, nil
			}
			return nil, ErrConflict
		}
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"reference": result.Reference,
		"kind":      kind,
		"amount":    amount.StringFixed(model.AmountScale),
		"user_id":   req.UserID,
		"asset_id":  req.AssetTypeID,
	}).Info("transfer committed")

	if c.events != nil {
		ev := events.TransactionEvent{
			Reference:   result.Reference,
			Kind:        string(kind),
			Amount:      amount.StringFixed(model.AmountScale),
			UserID:      req.UserID,
			AssetTypeID: req.AssetTypeID,
			OccurredAt:  time.Now().UTC(),
		}
		if err := c.events.PublishTransaction(ctx, ev); err != nil {
			// The commit is the source of truth; a lost event is only logged.
			c.log.WithError(err).WithField("reference", result.Reference).
				Warn("failed to publish transaction event")
		}
	}
	return result, nil
}

// direction maps a transfer kind onto debit and credit wallets: the
// system issues value on TOPUP and BONUS and absorbs it on SPEND.
func direction(kind model.TransactionKind, user, treasury *model.Wallet) (debit, credit *model.Wallet) {
	if kind == model.KindSpend {
		return user, treasury
	}
	return treasury, user
}
