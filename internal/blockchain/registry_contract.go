package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChallengeRecord is the raw registry struct returned by challenges(id)
type ChallengeRecord struct {
	ID           *big.Int
	MetadataURI  string
	RewardAmount *big.Int
	MinStake     *big.Int
	IsActive     bool
}

// NextChallengeID returns the exclusive upper bound of assigned challenge ids
func (c *Client) NextChallengeID(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.registry.Call(c.callOpts(ctx), &out, "nextChallengeId"); err != nil {
		return 0, fmt.Errorf("nextChallengeId: %w", err)
	}
	next := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	if !next.IsUint64() {
		return 0, fmt.Errorf("nextChallengeId out of range: %s", next)
	}
	return next.Uint64(), nil
}

// Challenge fetches the raw record for id
func (c *Client) Challenge(ctx context.Context, id uint64) (*ChallengeRecord, error) {
	var out []interface{}
	if err := c.registry.Call(c.callOpts(ctx), &out, "challenges", new(big.Int).SetUint64(id)); err != nil {
		return nil, fmt.Errorf("challenges(%d): %w", id, err)
	}
	return &ChallengeRecord{
		ID:           *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		MetadataURI:  *abi.ConvertType(out[1], new(string)).(*string),
		RewardAmount: *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		MinStake:     *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		IsActive:     *abi.ConvertType(out[4], new(bool)).(*bool),
	}, nil
}

// HasJoined reports whether user joined challenge id
func (c *Client) HasJoined(ctx context.Context, id uint64, user common.Address) (bool, error) {
	return c.participationFlag(ctx, "hasJoined", id, user)
}

// HasSubmitted reports whether user submitted proof for challenge id
func (c *Client) HasSubmitted(ctx context.Context, id uint64, user common.Address) (bool, error) {
	return c.participationFlag(ctx, "hasSubmitted", id, user)
}

func (c *Client) participationFlag(ctx context.Context, method string, id uint64, user common.Address) (bool, error) {
	var out []interface{}
	if err := c.registry.Call(c.callOpts(ctx), &out, method, new(big.Int).SetUint64(id), user); err != nil {
		return false, fmt.Errorf("%s(%d, %s): %w", method, id, user.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// UserStake returns the amount user has staked on challenge id
func (c *Client) UserStake(ctx context.Context, id uint64, user common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.registry.Call(c.callOpts(ctx), &out, "userStakes", new(big.Int).SetUint64(id), user); err != nil {
		return nil, fmt.Errorf("userStakes(%d, %s): %w", id, user.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// JoinChallenge sends joinChallenge(id, amount). The token allowance must already cover amount.
func (c *Client) JoinChallenge(ctx context.Context, signer *Signer, id uint64, amount *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, signer)
	if err != nil {
		return nil, err
	}
	tx, err := c.registry.Transact(opts, "joinChallenge", new(big.Int).SetUint64(id), amount)
	if err != nil {
		return nil, fmt.Errorf("joinChallenge(%d): %w", id, err)
	}
	c.log.Info().Uint64("challenge_id", id).Str("tx", tx.Hash().Hex()).Msg("join sent")
	return tx, nil
}

// SubmitProof sends submitProof(id, proofURI)
func (c *Client) SubmitProof(ctx context.Context, signer *Signer, id uint64, proofURI string) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, signer)
	if err != nil {
		return nil, err
	}
	tx, err := c.registry.Transact(opts, "submitProof", new(big.Int).SetUint64(id), proofURI)
	if err != nil {
		return nil, fmt.Errorf("submitProof(%d): %w", id, err)
	}
	c.log.Info().Uint64("challenge_id", id).Str("tx", tx.Hash().Hex()).Msg("proof sent")
	return tx, nil
}

// CreateChallenge sends createChallenge. Only the registry owner can call it.
func (c *Client) CreateChallenge(ctx context.Context, signer *Signer, metadataURI string, reward, minStake *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, signer)
	if err != nil {
		return nil, err
	}
	tx, err := c.registry.Transact(opts, "createChallenge", metadataURI, reward, minStake)
	if err != nil {
		return nil, fmt.Errorf("createChallenge: %w", err)
	}
	return tx, nil
}
