package ledger

import (
	"context"

	"ledger-service/internal/model"
	"ledger-service/internal/repository"
)

// IdempotencyGuard detects replays of a caller-supplied idempotency key.
// The lookup is only the fast path: the unique index on the key column
// is the race-proof arbiter, so two requests slipping past this check
// concurrently still cannot both commit.
type IdempotencyGuard struct {
	entries *repository.EntryRepository
}

func NewIdempotencyGuard(entries *repository.EntryRepository) *IdempotencyGuard {
	return &IdempotencyGuard{entries: entries}
}

// CheckReplay returns the original result of a previously committed
// entry carrying the key, marked as a replay, or nil when the key is
// unseen.
func (g *IdempotencyGuard) CheckReplay(ctx context.Context, key string) (*TransferResult, error) {
	entry, err := g.entries.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return replayResult(entry), nil
}

// replayResult rebuilds the original outcome from the committed entry.
// It carries no balance, even for a SPEND: the replay contract is the
// same transaction identifier and amount with the replay flag set, and
// the debited wallet's balance may have moved since the original
// commit, so any figure reported here would be stale.
func replayResult(entry *model.LedgerEntry) *TransferResult {
	return &TransferResult{
		TransactionID: entry.TransactionID,
		Reference:     entry.Transaction.Reference,
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		Replay:        true,
	}
}
