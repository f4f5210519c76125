package coins

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oggyb/crushconnect/internal/app"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
	"github.com/oggyb/crushconnect/internal/repository"
)

// Revealer flips a match to revealed for one of its participants.
type Revealer interface {
	Reveal(ctx context.Context, matchID, userID uint64) (bool, error)
}

// PaidReveal charges for revealing identities in a match.
type PaidReveal struct {
	ledger   *Ledger
	revealer Revealer
	cost     int
	log      *slog.Logger
}

// NewPaidReveal creates a PaidReveal. The price comes from config.Matching.RevealCost.
func NewPaidReveal(appCtx *app.AppContext, ledger *Ledger, revealer Revealer) *PaidReveal {
	return &PaidReveal{
		ledger:   ledger,
		revealer: revealer,
		cost:     appCtx.Config.Matching.RevealCost,
		log:      appCtx.Logger.With("subsystem", "paid_reveal"),
	}
}

// Reveal debits the cost, reveals the match and refunds the cost when the
// reveal does not go through.
//
// Behavior:
//   - Balance too low → ErrInsufficientCoins, nothing changes.
//   - Reveal fails or is refused → coins refunded, reveal error returned.
//   - A failed refund is logged with the amount owed; the reveal error is
//     still what the caller sees.
func (p *PaidReveal) Reveal(ctx context.Context, matchID, userID uint64) error {
	log := p.log.With("match_id", matchID, "user", userID, "cost", p.cost)

	ok, err := p.ledger.Spend(ctx, userID, p.cost, repository.TxReveal, fmt.Sprintf("Revealed identity in match %d", matchID))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("reveal costs %d coins: %w", p.cost, svcErr.ErrInsufficientCoins)
	}

	revealed, err := p.revealer.Reveal(ctx, matchID, userID)
	if err == nil && revealed {
		log.Info("identity revealed")
		return nil
	}
	if err == nil {
		err = fmt.Errorf("reveal of match %d was refused", matchID)
	}

	if rerr := p.ledger.Add(ctx, userID, p.cost, repository.TxPurchase, "Reveal failed – coins refunded"); rerr != nil {
		log.Error("refund after failed reveal failed, coins owed", "reveal_err", err, "err", rerr)
	} else {
		log.Warn("reveal failed, coins refunded", "err", err)
	}
	return err
}
