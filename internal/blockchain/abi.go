package blockchain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// RegistryABI is the subset of ChallengeRegistry this system calls.
const RegistryABI = `[
  {"type":"function","name":"nextChallengeId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"challenges","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},
    {"name":"metadataURI","type":"string"},
    {"name":"rewardAmount","type":"uint256"},
    {"name":"minStake","type":"uint256"},
    {"name":"isActive","type":"bool"}]},
  {"type":"function","name":"joinChallenge","stateMutability":"nonpayable","inputs":[{"name":"challengeId","type":"uint256"},{"name":"stakeAmount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"submitProof","stateMutability":"nonpayable","inputs":[{"name":"challengeId","type":"uint256"},{"name":"proofURI","type":"string"}],"outputs":[]},
  {"type":"function","name":"userStakes","stateMutability":"view","inputs":[{"name":"challengeId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"hasJoined","stateMutability":"view","inputs":[{"name":"challengeId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"hasSubmitted","stateMutability":"view","inputs":[{"name":"challengeId","type":"uint256"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"createChallenge","stateMutability":"nonpayable","inputs":[{"name":"metadataURI","type":"string"},{"name":"rewardAmount","type":"uint256"},{"name":"minStake","type":"uint256"}],"outputs":[]},
  {"type":"event","name":"UserJoined","anonymous":false,"inputs":[
    {"name":"challengeId","type":"uint256","indexed":true},
    {"name":"user","type":"address","indexed":true},
    {"name":"stakeAmount","type":"uint256","indexed":false}]}
]`

// ERC20ABI covers the token calls used for staking.
const ERC20ABI = `[
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

var (
	registryABI = mustParseABI("registry", RegistryABI)
	erc20ABI    = mustParseABI("erc20", ERC20ABI)
)

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid %s ABI: %v", name, err))
	}
	return parsed
}
