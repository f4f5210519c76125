package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/oggyb/crushconnect/internal/db"
	svcErr "github.com/oggyb/crushconnect/internal/errors"
)

// Transaction types written to the ledger.
const (
	TxDailyLogin = "daily_login"
	TxReferral   = "referral"
	TxConfession = "confession"
	TxMatch      = "match"
	TxPurchase   = "purchase"
	TxReveal     = "reveal_identity"
	TxSystem     = "system"
)

// CoinRepository keeps users.coins and the transactions table in step.
type CoinRepository struct {
	db *gorm.DB
}

// NewCoinRepository creates a new repository bound to the given DB connection.
func NewCoinRepository(database *gorm.DB) *CoinRepository {
	return &CoinRepository{db: database}
}

// Add credits amount coins and appends a ledger row.
func (r *CoinRepository) Add(ctx context.Context, userID uint64, amount int, txType, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.User{}).
			Where("id = ?", userID).
			Update("coins", gorm.Expr("coins + ?", amount))
		if res.Error != nil {
			return fmt.Errorf("credit %d coins to %d: %w", amount, userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", userID, svcErr.ErrNotFound)
		}
		return appendTx(tx, userID, amount, txType, description)
	})
}

// Spend debits amount coins if the balance covers it.
//
// Behavior:
//   - The decrement is guarded by coins >= amount in the same UPDATE, so
//     concurrent spends can never drive the balance negative.
//   - Insufficient balance → errors.ErrInsufficientCoins, nothing written.
func (r *CoinRepository) Spend(ctx context.Context, userID uint64, amount int, txType, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&db.User{}).
			Where("id = ? AND coins >= ?", userID, amount).
			Update("coins", gorm.Expr("coins - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("debit %d coins from %d: %w", amount, userID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user %d: %w", userID, svcErr.ErrInsufficientCoins)
		}
		return appendTx(tx, userID, -amount, txType, description)
	})
}

// Balance returns the current coin balance.
func (r *CoinRepository) Balance(ctx context.Context, userID uint64) (int, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Select("coins").First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("user %d: %w", userID, svcErr.ErrNotFound)
		}
		return 0, fmt.Errorf("get balance of %d: %w", userID, err)
	}
	return user.Coins, nil
}

// History returns the newest ledger rows of a user.
func (r *CoinRepository) History(ctx context.Context, userID uint64, limit int) ([]db.CoinTransaction, error) {
	var txs []db.CoinTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions of %d: %w", userID, err)
	}
	return txs, nil
}

func appendTx(tx *gorm.DB, userID uint64, amount int, txType, description string) error {
	row := db.CoinTransaction{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("append transaction for %d: %w", userID, err)
	}
	return nil
}
