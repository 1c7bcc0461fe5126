package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"lock-in/internal/config"
	"lock-in/internal/logger"
)

// Backend is the RPC surface the client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// Client handles interactions with the challenge registry and its payment token
type Client struct {
	backend         Backend
	rpcURL          string
	networkChainID  *big.Int
	requiredChainID *big.Int
	registryAddress common.Address
	tokenAddress    common.Address
	tokenDecimals   int32
	confirmTimeout  time.Duration

	registry *bind.BoundContract
	token    *bind.BoundContract
	log      zerolog.Logger
}

// Dial connects to the configured RPC endpoint
func Dial(ctx context.Context, cfg config.ChainConfig) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}
	client, err := NewClient(ctx, eth, cfg)
	if err != nil {
		eth.Close()
		return nil, err
	}
	return client, nil
}

// NewClient builds a client over an existing backend
func NewClient(ctx context.Context, backend Backend, cfg config.ChainConfig) (*Client, error) {
	networkID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}

	c := &Client{
		backend:         backend,
		rpcURL:          cfg.RPCURL,
		networkChainID:  networkID,
		requiredChainID: new(big.Int).Set(cfg.ChainID),
		registryAddress: cfg.RegistryAddress,
		tokenAddress:    cfg.TokenAddress,
		tokenDecimals:   cfg.TokenDecimals,
		confirmTimeout:  cfg.ConfirmTimeout,
		registry:        bind.NewBoundContract(cfg.RegistryAddress, registryABI, backend, backend, backend),
		token:           bind.NewBoundContract(cfg.TokenAddress, erc20ABI, backend, backend, backend),
		log:             logger.Component("chain"),
	}

	if networkID.Cmp(cfg.ChainID) != 0 {
		c.log.Warn().
			Str("rpc", cfg.RPCURL).
			Str("rpc_chain_id", networkID.String()).
			Str("required_chain_id", cfg.ChainID.String()).
			Msg("RPC endpoint serves a different chain; writes will be refused")
	}
	return c, nil
}

// Close releases the RPC connection
func (c *Client) Close() {
	c.backend.Close()
}

// RegistryAddress is the spender the token allowance is granted to
func (c *Client) RegistryAddress() common.Address {
	return c.registryAddress
}

// TokenDecimals is the payment token precision
func (c *Client) TokenDecimals() int32 {
	return c.tokenDecimals
}

// RequiredChainID is the chain every transaction must be sent on
func (c *Client) RequiredChainID() *big.Int {
	return new(big.Int).Set(c.requiredChainID)
}

// SwitchNetwork moves the signer onto the required chain. It fails when the
// connected endpoint does not serve that chain, since nothing signed for it
// could be broadcast.
func (c *Client) SwitchNetwork(_ context.Context, signer *Signer, required *big.Int) error {
	if signer == nil {
		return ErrNoSigner
	}
	if c.networkChainID.Cmp(required) != 0 {
		return fmt.Errorf("%w: endpoint serves chain %s, need %s", ErrWrongNetwork, c.networkChainID, required)
	}
	if signer.ChainID().Cmp(required) == 0 {
		return nil
	}

	c.log.Info().
		Str("account", signer.Address().Hex()).
		Str("from", signer.ChainID().String()).
		Str("to", required.String()).
		Msg("switching signer network")
	signer.switchTo(required)
	return nil
}

// WaitConfirmed blocks until tx is mined. A configured confirm timeout bounds
// the wait; without one the wait only ends with ctx.
func (c *Client) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if c.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.confirmTimeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w in block %s", ErrReverted, receipt.BlockNumber)
	}
	return receipt, nil
}

// Receipt returns the receipt for hash, or nil while the transaction is pending
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt for %s: %w", hash.Hex(), err)
	}
	return receipt, nil
}

func (c *Client) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func (c *Client) transactOpts(ctx context.Context, signer *Signer) (*bind.TransactOpts, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	if signer.ChainID().Cmp(c.requiredChainID) != 0 {
		return nil, fmt.Errorf("%w: signer is on chain %s, need %s", ErrWrongNetwork, signer.ChainID(), c.requiredChainID)
	}
	return signer.TransactOpts(ctx)
}
