package blockchain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrWrongNetwork is returned when the signer cannot be moved to the required chain.
	ErrWrongNetwork = errors.New("wrong network")
	// ErrReverted is returned when a mined transaction has a failed receipt.
	ErrReverted = errors.New("transaction reverted")
	// ErrNoSigner is returned when a write is attempted without a signing key.
	ErrNoSigner = errors.New("no signer configured")
)

// TransactionError reports a failed approve/join/submit/create step.
type TransactionError struct {
	Step   string
	TxHash common.Hash
	Err    error
}

func (e *TransactionError) Error() string {
	if e.TxHash == (common.Hash{}) {
		return fmt.Sprintf("%s transaction failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s transaction %s failed: %v", e.Step, e.TxHash.Hex(), e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
