package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lock-in/internal/database"
	"lock-in/internal/models"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewRepository(db)
}

func newRecord(hash, account string, created time.Time) *models.TransactionRecord {
	return &models.TransactionRecord{
		ID:        uuid.New(),
		Kind:      models.TransactionKindJoin,
		Account:   account,
		TxHash:    hash,
		ChainID:   "84532",
		Status:    models.TransactionStatusPending,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSettleOnlyMovesPending(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.CreateTransactionRecord(ctx, newRecord("0x01", "0xaa", now)))
	require.NoError(t, repo.MarkTransactionConfirmed(ctx, "0x01", 42, now))

	// a later failure must not overwrite the confirmed outcome
	require.NoError(t, repo.MarkTransactionFailed(ctx, "0x01", nil, "late"))

	rec, err := repo.GetTransactionByHash(ctx, "0x01")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusConfirmed, rec.Status)
	require.NotNil(t, rec.BlockNumber)
	assert.Equal(t, uint64(42), *rec.BlockNumber)
	assert.NotNil(t, rec.ConfirmedAt)
	assert.Empty(t, rec.Error)
}

func TestPendingAndAccountListing(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, repo.CreateTransactionRecord(ctx, newRecord("0x01", "0xaa", base)))
	require.NoError(t, repo.CreateTransactionRecord(ctx, newRecord("0x02", "0xaa", base.Add(time.Minute))))
	require.NoError(t, repo.CreateTransactionRecord(ctx, newRecord("0x03", "0xbb", base.Add(2*time.Minute))))
	require.NoError(t, repo.MarkTransactionFailed(ctx, "0x02", nil, "reverted"))

	pending, err := repo.GetPendingTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "0x01", pending[0].TxHash)
	assert.Equal(t, "0x03", pending[1].TxHash)

	mine, err := repo.GetTransactionsByAccount(ctx, "0xaa", 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "0x02", mine[0].TxHash)
	assert.Equal(t, models.TransactionStatusFailed, mine[0].Status)

	page, err := repo.GetTransactionsByAccount(ctx, "0xaa", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "0x01", page[0].TxHash)
}

func TestTouchedPendingMovesToBack(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	const total = 101
	for i := 0; i < total; i++ {
		hash := fmt.Sprintf("0x%04x", i)
		require.NoError(t, repo.CreateTransactionRecord(ctx, newRecord(hash, "0xaa", base.Add(time.Duration(i)*time.Second))))
	}

	first, err := repo.GetPendingTransactions(ctx, 100)
	require.NoError(t, err)
	require.Len(t, first, 100)
	assert.Equal(t, "0x0000", first[0].TxHash)

	// nothing settled: every checked record is touched and requeued
	checkedAt := time.Now().UTC()
	for _, rec := range first {
		require.NoError(t, repo.TouchPendingTransaction(ctx, rec.TxHash, checkedAt))
	}

	second, err := repo.GetPendingTransactions(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, second)
	assert.Equal(t, "0x0064", second[0].TxHash)
}

func TestTouchIgnoresSettledRecords(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	created := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, repo.CreateTransactionRecord(ctx, newRecord("0x01", "0xaa", created)))
	require.NoError(t, repo.MarkTransactionFailed(ctx, "0x01", nil, "reverted"))
	before, err := repo.GetTransactionByHash(ctx, "0x01")
	require.NoError(t, err)

	require.NoError(t, repo.TouchPendingTransaction(ctx, "0x01", time.Now().UTC().Add(time.Hour)))
	after, err := repo.GetTransactionByHash(ctx, "0x01")
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestLoginNonceLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertLoginNonce(ctx, &models.LoginNonce{WalletAddress: "0xaa", Nonce: "first", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, repo.UpsertLoginNonce(ctx, &models.LoginNonce{WalletAddress: "0xaa", Nonce: "second", ExpiresAt: now.Add(time.Minute)}))

	nonce, err := repo.ConsumeLoginNonce(ctx, "0xaa")
	require.NoError(t, err)
	require.NotNil(t, nonce)
	assert.Equal(t, "second", nonce.Nonce)

	nonce, err = repo.ConsumeLoginNonce(ctx, "0xaa")
	require.NoError(t, err)
	assert.Nil(t, nonce)
}

func TestFindOrCreateUser(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	user, created, err := repo.FindOrCreateUser(ctx, "0xaa")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.FindOrCreateUser(ctx, "0xaa")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	at := time.Now().UTC()
	require.NoError(t, repo.TouchUserLogin(ctx, user.ID, at))
	loaded, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLoginAt)
}

func TestJoinIntentCount(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"1", "1", "2"} {
		require.NoError(t, repo.CreateJoinIntent(ctx, &models.JoinIntent{ID: uuid.New(), ChallengeID: id, UserAddress: "0xaa"}))
	}
	count, err := repo.CountJoinIntents(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
