package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lock-in/internal/blockchain"
	"lock-in/internal/models"
)

type countingRefresher struct {
	calls int
	err   error
	inner DashboardRefresher
}

func (r *countingRefresher) MyChallenges(ctx context.Context, user common.Address) (*models.Dashboard, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.inner.MyChallenges(ctx, user)
}

func TestSubmitProofRefreshesDashboard(t *testing.T) {
	chain := newFakeChain()
	chain.addChallenge(`{"title":"Design Daily"}`, true)
	chain.joined[0] = true

	refresher := &countingRefresher{inner: NewDashboardService(NewCatalogService(chain, 6), chain, 2)}
	w := NewProofWorkflow(chain, nil, refresher)

	var seen []models.ProofStatus
	result, err := w.SubmitProof(context.Background(), 0, "https://example.com/proof.png", testSigner(t), func(s models.ProofStatus) {
		seen = append(seen, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"submitProof"}, chain.sentMethods())
	assert.Equal(t, []models.ProofStatus{models.ProofSubmitting, models.ProofSuccess}, seen)
	assert.Equal(t, 1, refresher.calls)
	require.NotNil(t, result.Dashboard)
	require.Len(t, result.Dashboard.Challenges, 1)
	assert.True(t, result.Dashboard.Challenges[0].Submitted)
	assert.Equal(t, models.ParticipationUnderReview, result.Dashboard.Challenges[0].Status)
}

func TestSubmitProofRefreshFailureKeepsResult(t *testing.T) {
	chain := newFakeChain()
	chain.joined[0] = true
	refresher := &countingRefresher{err: errRPC}

	result, err := NewProofWorkflow(chain, nil, refresher).
		SubmitProof(context.Background(), 0, "https://example.com/p", testSigner(t), nil)
	require.NoError(t, err)
	assert.Nil(t, result.Dashboard)
	assert.Equal(t, 1, refresher.calls)
}

func TestSubmitProofGuards(t *testing.T) {
	t.Run("not joined", func(t *testing.T) {
		chain := newFakeChain()
		_, err := NewProofWorkflow(chain, nil, nil).SubmitProof(context.Background(), 0, "https://example.com/p", testSigner(t), nil)
		assert.ErrorIs(t, err, ErrNotJoined)
		assert.Empty(t, chain.sentMethods())
	})

	t.Run("already submitted", func(t *testing.T) {
		chain := newFakeChain()
		chain.joined[0] = true
		chain.submitted[0] = true
		_, err := NewProofWorkflow(chain, nil, nil).SubmitProof(context.Background(), 0, "https://example.com/p", testSigner(t), nil)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
		assert.Empty(t, chain.sentMethods())
	})

	t.Run("invalid uri", func(t *testing.T) {
		chain := newFakeChain()
		chain.joined[0] = true
		for _, uri := range []string{"", "   ", "not a url", "ftp://example.com/x", "/relative/path"} {
			_, err := NewProofWorkflow(chain, nil, nil).SubmitProof(context.Background(), 0, uri, testSigner(t), nil)
			assert.ErrorIs(t, err, ErrInvalidProof, uri)
		}
		assert.Empty(t, chain.sentMethods())
	})
}

func TestSubmitProofContractRevertSurfaces(t *testing.T) {
	chain := newFakeChain()
	chain.joined[0] = true
	chain.revert["submitProof"] = true
	refresher := &countingRefresher{err: errRPC}

	var seen []models.ProofStatus
	_, err := NewProofWorkflow(chain, nil, refresher).SubmitProof(context.Background(), 0, "https://example.com/p", testSigner(t), func(s models.ProofStatus) {
		seen = append(seen, s)
	})

	var txErr *blockchain.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.Equal(t, "submitProof", txErr.Step)
	assert.ErrorIs(t, err, blockchain.ErrReverted)
	assert.Equal(t, 0, refresher.calls)
	assert.Equal(t, models.ProofIdle, seen[len(seen)-1])
}
