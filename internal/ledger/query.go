package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ledger-service/internal/model"
	"ledger-service/internal/repository"
)

// historyLimit bounds GetHistory results.
const historyLimit = 50

// QueryService serves the non-mutating read operations. It sits outside
// the concurrency-critical path: reads see whatever entries have
// committed, and never take locks or create wallets.
type QueryService struct {
	assets  *repository.AssetRepository
	wallets *repository.WalletRepository
	entries *repository.EntryRepository
	log     *logrus.Logger
}

func NewQueryService(
	assets *repository.AssetRepository,
	wallets *repository.WalletRepository,
	entries *repository.EntryRepository,
	log *logrus.Logger,
) *QueryService {
	return &QueryService{
		assets:  assets,
		wallets: wallets,
		entries: entries,
		log:     log,
	}
}

type BalanceResult struct {
	UserID      uint   `json:"user_id"`
	AssetTypeID uint   `json:"asset_type_id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Balance     string `json:"balance"`
}

// GetBalance derives the balance for (user, asset). A user with no
// wallet for the asset gets a zero balance; no wallet is created.
func (s *QueryService) GetBalance(ctx context.Context, userID, assetTypeID uint) (*BalanceResult, error) {
	asset, err := s.assets.GetByID(ctx, assetTypeID)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	wallet, err := s.wallets.Find(ctx, userID, assetTypeID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		balance, err = NewBalanceCalculator(s.entries).BalanceOf(ctx, wallet.ID)
		if err != nil {
			return nil, err
		}
	}

	return &BalanceResult{
		UserID:      userID,
		AssetTypeID: asset.ID,
		Symbol:      asset.Symbol,
		Name:        asset.Name,
		Balance:     balance.StringFixed(model.AmountScale),
	}, nil
}

type HistoryEntry struct {
	ID             uint                    `json:"id"`
	Kind           model.TransactionKind   `json:"kind"`
	Status         model.TransactionStatus `json:"status"`
	Amount         string                  `json:"amount"`
	Description    string                  `json:"description,omitempty"`
	DebitWalletID  uint                    `json:"debit_wallet_id"`
	CreditWalletID uint                    `json:"credit_wallet_id"`
	CreatedAt      time.Time               `json:"created_at"`
}

// GetHistory returns the newest entries touching any of the user's
// wallets, optionally filtered by asset, bounded to 50. A user with no
// wallets gets an empty list.
func (s *QueryService) GetHistory(ctx context.Context, userID uint, assetTypeID *uint) ([]HistoryEntry, error) {
	wallets, err := s.wallets.ListByUser(ctx, userID, assetTypeID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.ID)
	}

	entries, err := s.entries.History(ctx, ids, historyLimit)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:             e.ID,
			Kind:           e.Kind,
			Status:         e.Transaction.Status,
			Amount:         e.Amount.StringFixed(model.AmountScale),
			Description:    e.Transaction.Description,
			DebitWalletID:  e.DebitWalletID,
			CreditWalletID: e.CreditWalletID,
			CreatedAt:      e.CreatedAt,
		})
	}
	return out, nil
}

// ListAssets returns all asset types.
func (s *QueryService) ListAssets(ctx context.Context) ([]model.AssetType, error) {
	return s.assets.List(ctx)
}
