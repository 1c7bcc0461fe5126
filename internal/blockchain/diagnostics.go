package blockchain

import (
	"context"
	"time"
)

// DiagnosticResult holds the result of a chain connectivity diagnostic
type DiagnosticResult struct {
	RPCConnected    bool   `json:"rpc_connected"`
	RPCURL          string `json:"rpc_url"`
	RPCError        string `json:"rpc_error,omitempty"`
	NetworkChainID  string `json:"network_chain_id"`
	RequiredChainID string `json:"required_chain_id"`
	ChainMatches    bool   `json:"chain_matches"`
	LatestBlock     uint64 `json:"latest_block,omitempty"`
	RegistryAddress string `json:"registry_address"`
	NextChallengeID uint64 `json:"next_challenge_id,omitempty"`
	RegistryError   string `json:"registry_error,omitempty"`
	TokenAddress    string `json:"token_address"`
	TokenDecimals   uint8  `json:"token_decimals,omitempty"`
	TokenError      string `json:"token_error,omitempty"`
	SignerSet       bool   `json:"signer_set"`
	SignerAddress   string `json:"signer_address,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// RunDiagnostics checks RPC connectivity, the chain id, and both contracts.
// signer may be nil.
func (c *Client) RunDiagnostics(ctx context.Context, signer *Signer) *DiagnosticResult {
	result := &DiagnosticResult{
		Timestamp:       time.Now().Format(time.RFC3339),
		RPCURL:          c.rpcURL,
		NetworkChainID:  c.networkChainID.String(),
		RequiredChainID: c.requiredChainID.String(),
		ChainMatches:    c.networkChainID.Cmp(c.requiredChainID) == 0,
		RegistryAddress: c.registryAddress.Hex(),
		TokenAddress:    c.tokenAddress.Hex(),
	}

	// 1. Check RPC connectivity
	block, err := c.backend.BlockNumber(ctx)
	if err != nil {
		result.RPCError = err.Error()
		c.log.Error().Err(err).Msg("[Diagnostics] RPC failed")
	} else {
		result.RPCConnected = true
		result.LatestBlock = block
		c.log.Info().Uint64("block", block).Msg("[Diagnostics] RPC connected")
	}

	// 2. Check the registry answers
	next, err := c.NextChallengeID(ctx)
	if err != nil {
		result.RegistryError = err.Error()
		c.log.Error().Err(err).Msg("[Diagnostics] registry call failed")
	} else {
		result.NextChallengeID = next
	}

	// 3. Check token precision matches configuration
	decimals, err := c.Decimals(ctx)
	if err != nil {
		result.TokenError = err.Error()
		c.log.Error().Err(err).Msg("[Diagnostics] token call failed")
	} else {
		result.TokenDecimals = decimals
		if int32(decimals) != c.tokenDecimals {
			c.log.Warn().Uint8("onchain", decimals).Int32("configured", c.tokenDecimals).Msg("[Diagnostics] token decimals mismatch")
		}
	}

	// 4. Signer
	if signer != nil {
		result.SignerSet = true
		result.SignerAddress = signer.Address().Hex()
	}

	return result
}
