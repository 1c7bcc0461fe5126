package repository

import (
	"context"
	"errors"
	"time"

	"lock-in/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTransactionRecord stores a freshly sent transaction
func (r *Repository) CreateTransactionRecord(ctx context.Context, rec *models.TransactionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// GetTransactionByHash retrieves a record by transaction hash
func (r *Repository) GetTransactionByHash(ctx context.Context, txHash string) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkTransactionConfirmed settles a pending record as confirmed
func (r *Repository) MarkTransactionConfirmed(ctx context.Context, txHash string, blockNumber uint64, at time.Time) error {
	return r.settle(ctx, txHash, map[string]interface{}{
		"status":       models.TransactionStatusConfirmed,
		"block_number": blockNumber,
		"confirmed_at": at,
		"error":        "",
	})
}

// MarkTransactionFailed settles a pending record as failed
func (r *Repository) MarkTransactionFailed(ctx context.Context, txHash string, blockNumber *uint64, reason string) error {
	updates := map[string]interface{}{
		"status": models.TransactionStatusFailed,
		"error":  truncate(reason, 1000),
	}
	if blockNumber != nil {
		updates["block_number"] = *blockNumber
	}
	return r.settle(ctx, txHash, updates)
}

// settle only moves PENDING records so a late watcher pass cannot overwrite
// an outcome the workflow already recorded.
func (r *Repository) settle(ctx context.Context, txHash string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.TransactionRecord{}).
		Where("tx_hash = ? AND status = ?", txHash, models.TransactionStatusPending).
		Updates(updates).Error
}

// GetPendingTransactions retrieves the pending records checked least
// recently. TouchPendingTransaction moves a record to the back.
func (r *Repository) GetPendingTransactions(ctx context.Context, limit int) ([]*models.TransactionRecord, error) {
	var records []*models.TransactionRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", models.TransactionStatusPending).
		Order("updated_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// TouchPendingTransaction marks a pending record as checked at the given time
func (r *Repository) TouchPendingTransaction(ctx context.Context, txHash string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.TransactionRecord{}).
		Where("tx_hash = ? AND status = ?", txHash, models.TransactionStatusPending).
		UpdateColumn("updated_at", at).Error
}

// GetTransactionsByAccount retrieves records sent by account, newest first
func (r *Repository) GetTransactionsByAccount(ctx context.Context, account string, limit, offset int) ([]*models.TransactionRecord, error) {
	var records []*models.TransactionRecord
	err := r.db.WithContext(ctx).
		Where("account = ?", account).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CreateJoinIntent stores an announced join
func (r *Repository) CreateJoinIntent(ctx context.Context, intent *models.JoinIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

// CountJoinIntents counts intents recorded for a challenge
func (r *Repository) CountJoinIntents(ctx context.Context, challengeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.JoinIntent{}).
		Where("challenge_id = ?", challengeID).
		Count(&count).Error
	return count, err
}

// UpsertLoginNonce replaces the pending login nonce for a wallet
func (r *Repository) UpsertLoginNonce(ctx context.Context, nonce *models.LoginNonce) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"nonce", "expires_at", "created_at"}),
	}).Create(nonce).Error
}

// ConsumeLoginNonce deletes and returns the nonce for a wallet. It returns
// nil when none is stored.
func (r *Repository) ConsumeLoginNonce(ctx context.Context, walletAddress string) (*models.LoginNonce, error) {
	var nonce models.LoginNonce
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_address = ?", walletAddress).First(&nonce).Error; err != nil {
			return err
		}
		return tx.Delete(&nonce).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &nonce, nil
}

// FindOrCreateUser returns the user for a wallet, creating it on first login
func (r *Repository) FindOrCreateUser(ctx context.Context, walletAddress string) (*models.User, bool, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = models.User{WalletAddress: walletAddress}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, err
	}
	return &user, true, nil
}

// TouchUserLogin records a successful login
func (r *Repository) TouchUserLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
