package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// Allowance returns how much of owner's tokens the registry may spend
func (c *Client) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.token.Call(c.callOpts(ctx), &out, "allowance", owner, c.registryAddress); err != nil {
		return nil, fmt.Errorf("allowance(%s): %w", owner.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve lets the registry spend exactly amount of the signer's tokens
func (c *Client) Approve(ctx context.Context, signer *Signer, amount *big.Int) (*types.Transaction, error) {
	opts, err := c.transactOpts(ctx, signer)
	if err != nil {
		return nil, err
	}
	tx, err := c.token.Transact(opts, "approve", c.registryAddress, amount)
	if err != nil {
		return nil, fmt.Errorf("approve(%s): %w", amount, err)
	}
	c.log.Info().Str("amount", amount.String()).Str("tx", tx.Hash().Hex()).Msg("approval sent")
	return tx, nil
}

// BalanceOf returns the raw token balance of account
func (c *Client) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.token.Call(c.callOpts(ctx), &out, "balanceOf", account); err != nil {
		return nil, fmt.Errorf("balanceOf(%s): %w", account.Hex(), err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Decimals reads the token precision from the contract
func (c *Client) Decimals(ctx context.Context) (uint8, error) {
	var out []interface{}
	if err := c.token.Call(c.callOpts(ctx), &out, "decimals"); err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// GetTokenBalance returns the balance of account in whole tokens
func (c *Client) GetTokenBalance(ctx context.Context, account common.Address) (decimal.Decimal, error) {
	raw, err := c.BalanceOf(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(raw, -c.tokenDecimals), nil
}
