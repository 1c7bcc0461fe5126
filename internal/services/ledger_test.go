package services

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lock-in/internal/blockchain"
	"lock-in/internal/models"
)

func pendingTx(nonce uint64) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{ChainID: testChainID, Nonce: nonce})
}

func TestLedgerOutcomes(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ledger := NewLedger(repo)
	ctx := context.Background()
	account := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	confirmed, reverted, timedOut, dropped := pendingTx(1), pendingTx(2), pendingTx(3), pendingTx(4)
	for _, tx := range []*types.Transaction{confirmed, reverted, timedOut, dropped} {
		ledger.RecordSubmitted(ctx, models.TransactionKindJoin, uint64Ptr(1), account, big.NewInt(1_000_000), tx)
	}

	ledger.RecordOutcome(ctx, confirmed.Hash(), &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7)}, nil)
	ledger.RecordOutcome(ctx, reverted.Hash(), &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(8)}, blockchain.ErrReverted)
	ledger.RecordOutcome(ctx, timedOut.Hash(), nil, fmt.Errorf("wait: %w", context.DeadlineExceeded))
	ledger.RecordOutcome(ctx, dropped.Hash(), nil, errRPC)

	get := func(tx *types.Transaction) *models.TransactionRecord {
		rec, err := repo.GetTransactionByHash(ctx, tx.Hash().Hex())
		require.NoError(t, err)
		return rec
	}

	rec := get(confirmed)
	assert.Equal(t, models.TransactionStatusConfirmed, rec.Status)
	require.NotNil(t, rec.BlockNumber)
	assert.Equal(t, uint64(7), *rec.BlockNumber)
	assert.NotNil(t, rec.ConfirmedAt)

	rec = get(reverted)
	assert.Equal(t, models.TransactionStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "reverted")

	assert.Equal(t, models.TransactionStatusPending, get(timedOut).Status)
	assert.Equal(t, models.TransactionStatusFailed, get(dropped).Status)

	pending, err := ledger.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, timedOut.Hash().Hex(), pending[0].TxHash)

	// the watcher settles the leftover later
	require.NoError(t, ledger.Settle(ctx, pending[0], &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9)}))
	assert.Equal(t, models.TransactionStatusConfirmed, get(timedOut).Status)
}

func TestLedgerSettleDoesNotOverwriteOutcome(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ledger := NewLedger(repo)
	ctx := context.Background()
	tx := pendingTx(1)

	ledger.RecordSubmitted(ctx, models.TransactionKindSubmitProof, nil, common.Address{}, nil, tx)
	ledger.RecordOutcome(ctx, tx.Hash(), &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(3)}, blockchain.ErrReverted)

	rec, err := repo.GetTransactionByHash(ctx, tx.Hash().Hex())
	require.NoError(t, err)
	require.NoError(t, ledger.Settle(ctx, rec, &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(4)}))

	rec, err = repo.GetTransactionByHash(ctx, tx.Hash().Hex())
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, rec.Status)
	assert.Empty(t, rec.Amount)
}

func TestLedgerTouchRequeuesPending(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ledger := NewLedger(repo)
	ctx := context.Background()
	first, second := pendingTx(1), pendingTx(2)
	base := time.Now().UTC().Add(-time.Hour)
	at := func(d time.Duration) func() time.Time { return func() time.Time { return base.Add(d) } }

	ledger.now = at(0)
	ledger.RecordSubmitted(ctx, models.TransactionKindJoin, uint64Ptr(1), common.Address{}, big.NewInt(1), first)
	ledger.now = at(time.Second)
	ledger.RecordSubmitted(ctx, models.TransactionKindJoin, uint64Ptr(1), common.Address{}, big.NewInt(1), second)

	pending, err := ledger.ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, first.Hash().Hex(), pending[0].TxHash)

	ledger.now = at(time.Minute)
	require.NoError(t, ledger.Touch(ctx, pending[0]))

	pending, err = ledger.ListPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, second.Hash().Hex(), pending[0].TxHash)
	assert.Equal(t, first.Hash().Hex(), pending[1].TxHash)
}
