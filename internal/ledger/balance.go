package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"ledger-service/internal/repository"
)

// BalanceCalculator derives a wallet's balance by folding its ledger
// history: sum of credits minus sum of debits. It is a pure function of
// the stored entries; no balance is ever cached or stored. When the
// result gates a decision the caller must already hold the wallet's
// lock so the history cannot move under it.
type BalanceCalculator struct {
	entries *repository.EntryRepository
}

func NewBalanceCalculator(entries *repository.EntryRepository) *BalanceCalculator {
	return &BalanceCalculator{entries: entries}
}

// BalanceOf returns the derived balance. A wallet with no entries, or
// one that does not exist at all, folds to zero.
func (c *BalanceCalculator) BalanceOf(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	deltas, err := c.entries.WalletDeltas(ctx, walletID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, e := range deltas {
		if e.CreditWalletID == walletID {
			total = total.Add(e.Amount)
		}
		if e.DebitWalletID == walletID {
			total = total.Sub(e.Amount)
		}
	}
	return total, nil
}
