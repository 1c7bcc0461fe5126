package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCreatesChallengesInOrder(t *testing.T) {
	chain := newFakeChain()
	hashes, err := NewSeeder(chain, nil, 6).Seed(context.Background(), testSigner(t), DefaultSeedChallenges)
	require.NoError(t, err)
	require.Len(t, hashes, 3)
	require.Len(t, chain.created, 3)

	for i, uri := range chain.created {
		meta, err := DecodeMetadata(uri)
		require.NoError(t, err)
		assert.Equal(t, DefaultSeedChallenges[i].Title, meta.Title)
		assert.Equal(t, DefaultSeedChallenges[i].Description, meta.Description)
	}
}

func TestSeedStopsAtFirstFailure(t *testing.T) {
	chain := newFakeChain()
	chain.revert["createChallenge"] = true

	hashes, err := NewSeeder(chain, nil, 6).Seed(context.Background(), testSigner(t), DefaultSeedChallenges)
	require.Error(t, err)
	assert.Empty(t, hashes)
	assert.Equal(t, []string{"createChallenge"}, chain.sentMethods())
}

func TestSeedRejectsBadAmount(t *testing.T) {
	chain := newFakeChain()
	_, err := NewSeeder(chain, nil, 6).Seed(context.Background(), testSigner(t), []SeedChallenge{
		{Title: "x", Reward: "1.0000001", MinStake: "1"},
	})
	assert.Error(t, err)
	assert.Empty(t, chain.sentMethods())
}
