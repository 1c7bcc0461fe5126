package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lock-in/internal/blockchain"
	"lock-in/internal/models"
)

func usdc(whole int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), big.NewInt(1_000_000))
}

func recordStatuses() (*[]models.StakeStatus, StakeObserver) {
	var seen []models.StakeStatus
	return &seen, func(s models.StakeStatus) { seen = append(seen, s) }
}

func TestJoinRejectsStakeBelowMinimum(t *testing.T) {
	for _, amount := range []*big.Int{nil, big.NewInt(0), big.NewInt(999_999)} {
		chain := newFakeChain()
		w := NewStakeWorkflow(chain, nil, 6)

		_, err := w.Join(context.Background(), 0, amount, testSigner(t), nil)
		assert.ErrorIs(t, err, ErrStakeBelowMinimum)
		assert.Empty(t, chain.sentMethods(), "no transaction may be sent")
	}
}

func TestJoinApprovesThenJoins(t *testing.T) {
	chain := newFakeChain()
	chain.addChallenge(`{}`, true)
	w := NewStakeWorkflow(chain, nil, 6)
	seen, observe := recordStatuses()

	result, err := w.Join(context.Background(), 0, usdc(5), testSigner(t), observe)
	require.NoError(t, err)

	assert.Equal(t, []string{"approve", "joinChallenge"}, chain.sentMethods())
	assert.NotNil(t, result.ApprovalTx)
	assert.Equal(t, "5000000", result.Amount)
	assert.True(t, chain.joined[0])
	assert.Equal(t, []models.StakeStatus{models.StakeApproving, models.StakeJoining, models.StakeSuccess}, *seen)
}

func TestJoinSkipsApprovalWhenAllowanceCovers(t *testing.T) {
	chain := newFakeChain()
	chain.allowance = usdc(10)
	w := NewStakeWorkflow(chain, nil, 6)
	seen, observe := recordStatuses()

	result, err := w.Join(context.Background(), 3, usdc(10), testSigner(t), observe)
	require.NoError(t, err)

	assert.Equal(t, []string{"joinChallenge"}, chain.sentMethods())
	assert.Nil(t, result.ApprovalTx)
	assert.Equal(t, []models.StakeStatus{models.StakeJoining, models.StakeSuccess}, *seen)
}

func TestJoinRerunAfterFailedJoinReusesApproval(t *testing.T) {
	chain := newFakeChain()
	chain.revert["joinChallenge"] = true
	w := NewStakeWorkflow(chain, nil, 6)
	signer := testSigner(t)
	seen, observe := recordStatuses()

	_, err := w.Join(context.Background(), 0, usdc(2), signer, observe)
	require.Error(t, err)
	assert.ErrorIs(t, err, blockchain.ErrReverted)

	var txErr *blockchain.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "join", txErr.Step)
	assert.Equal(t, models.StakeIdle, (*seen)[len(*seen)-1])

	// the approval stayed on chain; the retry must not send another one
	delete(chain.revert, "joinChallenge")
	_, err = w.Join(context.Background(), 0, usdc(2), signer, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"approve", "joinChallenge", "joinChallenge"}, chain.sentMethods())
}

func TestJoinLargerStakeNeedsNewApproval(t *testing.T) {
	chain := newFakeChain()
	chain.allowance = usdc(1)
	w := NewStakeWorkflow(chain, nil, 6)

	_, err := w.Join(context.Background(), 0, usdc(3), testSigner(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"approve", "joinChallenge"}, chain.sentMethods())
}

func TestJoinAlreadyJoined(t *testing.T) {
	chain := newFakeChain()
	chain.joined[7] = true
	w := NewStakeWorkflow(chain, nil, 6)

	_, err := w.Join(context.Background(), 7, usdc(1), testSigner(t), nil)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	assert.Empty(t, chain.sentMethods())
}

func TestJoinWrongNetworkAborts(t *testing.T) {
	chain := newFakeChain()
	chain.switchErr = blockchain.ErrWrongNetwork
	w := NewStakeWorkflow(chain, nil, 6)

	_, err := w.Join(context.Background(), 0, usdc(1), testSigner(t), nil)
	assert.ErrorIs(t, err, blockchain.ErrWrongNetwork)
	assert.Empty(t, chain.sentMethods())
}

func TestJoinApprovalSendFailure(t *testing.T) {
	chain := newFakeChain()
	chain.sendErr["approve"] = errors.New("user rejected")
	w := NewStakeWorkflow(chain, nil, 6)

	_, err := w.Join(context.Background(), 0, usdc(1), testSigner(t), nil)
	var txErr *blockchain.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "approve", txErr.Step)
	assert.Equal(t, []string{"approve"}, chain.sentMethods())
	assert.False(t, chain.joined[0])
}

func TestJoinWithoutSigner(t *testing.T) {
	_, err := NewStakeWorkflow(newFakeChain(), nil, 6).Join(context.Background(), 0, usdc(1), nil, nil)
	assert.ErrorIs(t, err, blockchain.ErrNoSigner)
}

func TestJoinRecordsLedger(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ledger := NewLedger(repo)
	chain := newFakeChain()
	signer := testSigner(t)

	_, err := NewStakeWorkflow(chain, ledger, 6).Join(context.Background(), 4, usdc(1), signer, nil)
	require.NoError(t, err)

	records, err := ledger.ListByAccount(context.Background(), signer.Address(), 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	kinds := map[models.TransactionKind]bool{}
	for _, r := range records {
		kinds[r.Kind] = true
		assert.Equal(t, models.TransactionStatusConfirmed, r.Status)
		require.NotNil(t, r.ChallengeID)
		assert.Equal(t, uint64(4), *r.ChallengeID)
		assert.Equal(t, "1000000", r.Amount)
		assert.Equal(t, "84532", r.ChainID)
	}
	assert.True(t, kinds[models.TransactionKindApprove])
	assert.True(t, kinds[models.TransactionKindJoin])
}
