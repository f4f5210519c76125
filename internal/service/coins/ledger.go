// Package coins wraps the coin ledger and the flows that charge or reward
// users around matches.
package coins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oggyb/crushconnect/internal/app"
	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/repository"
)

// Ledger credits and debits user coins.
type Ledger struct {
	repo        *repository.CoinRepository
	matchReward int
	log         *slog.Logger
}

// NewLedger creates a Ledger with dependencies from AppContext.
func NewLedger(appCtx *app.AppContext) *Ledger {
	return &Ledger{
		repo:        repository.NewCoinRepository(appCtx.DB),
		matchReward: appCtx.Config.Matching.MatchReward,
		log:         appCtx.Logger.With("subsystem", "coins"),
	}
}

// Add credits amount coins to a user.
func (l *Ledger) Add(ctx context.Context, userID uint64, amount int, reason, description string) error {
	if amount <= 0 {
		return fmt.Errorf("credit %d coins: %w", amount, svcErr.ErrInvalidArgument)
	}
	if err := l.repo.Add(ctx, userID, amount, reason, description); err != nil {
		l.log.Error("credit failed", "user", userID, "amount", amount, "reason", reason, "err", err)
		return err
	}
	return nil
}

// Spend debits amount coins. It returns false without an error when the
// balance is too low.
func (l *Ledger) Spend(ctx context.Context, userID uint64, amount int, reason, description string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("debit %d coins: %w", amount, svcErr.ErrInvalidArgument)
	}
	err := l.repo.Spend(ctx, userID, amount, reason, description)
	switch {
	case errors.Is(err, svcErr.ErrInsufficientCoins):
		return false, nil
	case err != nil:
		l.log.Error("debit failed", "user", userID, "amount", amount, "reason", reason, "err", err)
		return false, err
	}
	return true, nil
}

// Balance returns the current coin balance of a user.
func (l *Ledger) Balance(ctx context.Context, userID uint64) (int, error) {
	return l.repo.Balance(ctx, userID)
}

// History returns up to limit of the newest ledger entries of a user.
func (l *Ledger) History(ctx context.Context, userID uint64, limit int) ([]db.CoinTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return l.repo.History(ctx, userID, limit)
}

// RewardMatch pays the match bonus to the user whose like completed a match.
func (l *Ledger) RewardMatch(ctx context.Context, userID, matchID uint64) error {
	if l.matchReward <= 0 {
		return nil
	}
	return l.Add(ctx, userID, l.matchReward, repository.TxMatch, fmt.Sprintf("Match %d reward", matchID))
}
