package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lock-in/internal/blockchain"
	"lock-in/internal/database"
	"lock-in/internal/repository"
)

var testChainID = big.NewInt(84532)

// fakeChain is an in-memory registry + token pair for one user.
type fakeChain struct {
	mu sync.Mutex

	next      uint64
	records   map[uint64]*blockchain.ChallengeRecord
	recordErr map[uint64]error

	joined       map[uint64]bool
	submitted    map[uint64]bool
	stakes       map[uint64]*big.Int
	joinedErr    map[uint64]error
	submittedErr map[uint64]error

	allowance *big.Int

	switchErr error
	sendErr   map[string]error
	revert    map[string]bool

	nonce   uint64
	txs     map[common.Hash]string
	sent    []string
	created []string
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		records:      map[uint64]*blockchain.ChallengeRecord{},
		recordErr:    map[uint64]error{},
		joined:       map[uint64]bool{},
		submitted:    map[uint64]bool{},
		stakes:       map[uint64]*big.Int{},
		joinedErr:    map[uint64]error{},
		submittedErr: map[uint64]error{},
		allowance:    big.NewInt(0),
		sendErr:      map[string]error{},
		revert:       map[string]bool{},
		txs:          map[common.Hash]string{},
	}
}

// addChallenge appends a record with the next id
func (f *fakeChain) addChallenge(metadata string, active bool) uint64 {
	id := f.next
	f.records[id] = &blockchain.ChallengeRecord{
		ID:           new(big.Int).SetUint64(id),
		MetadataURI:  metadata,
		RewardAmount: big.NewInt(100_000_000),
		MinStake:     big.NewInt(1_000_000),
		IsActive:     active,
	}
	f.next++
	return id
}

func (f *fakeChain) sentMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeChain) NextChallengeID(context.Context) (uint64, error) {
	return f.next, nil
}

func (f *fakeChain) Challenge(_ context.Context, id uint64) (*blockchain.ChallengeRecord, error) {
	if err := f.recordErr[id]; err != nil {
		return nil, err
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("no record %d", id)
	}
	return rec, nil
}

func (f *fakeChain) HasJoined(_ context.Context, id uint64, _ common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.joinedErr[id]; err != nil {
		return false, err
	}
	return f.joined[id], nil
}

func (f *fakeChain) HasSubmitted(_ context.Context, id uint64, _ common.Address) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.submittedErr[id]; err != nil {
		return false, err
	}
	return f.submitted[id], nil
}

func (f *fakeChain) UserStake(_ context.Context, id uint64, _ common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stakes[id]; ok {
		return new(big.Int).Set(s), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) RequiredChainID() *big.Int {
	return new(big.Int).Set(testChainID)
}

func (f *fakeChain) SwitchNetwork(context.Context, *blockchain.Signer, *big.Int) error {
	return f.switchErr
}

func (f *fakeChain) Allowance(context.Context, common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.allowance), nil
}

// send mints a fake transaction for method and runs apply once it would be
// mined successfully.
func (f *fakeChain) send(method string, apply func()) (*types.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, method)
	if err := f.sendErr[method]; err != nil {
		return nil, err
	}
	f.nonce++
	tx := types.NewTx(&types.DynamicFeeTx{ChainID: testChainID, Nonce: f.nonce})
	f.txs[tx.Hash()] = method
	if !f.revert[method] && apply != nil {
		apply()
	}
	return tx, nil
}

func (f *fakeChain) Approve(_ context.Context, _ *blockchain.Signer, amount *big.Int) (*types.Transaction, error) {
	return f.send("approve", func() { f.allowance = new(big.Int).Set(amount) })
}

func (f *fakeChain) JoinChallenge(_ context.Context, _ *blockchain.Signer, id uint64, amount *big.Int) (*types.Transaction, error) {
	return f.send("joinChallenge", func() {
		f.joined[id] = true
		f.stakes[id] = new(big.Int).Set(amount)
		f.allowance = new(big.Int).Sub(f.allowance, amount)
	})
}

func (f *fakeChain) SubmitProof(_ context.Context, _ *blockchain.Signer, id uint64, _ string) (*types.Transaction, error) {
	return f.send("submitProof", func() { f.submitted[id] = true })
}

func (f *fakeChain) CreateChallenge(_ context.Context, _ *blockchain.Signer, metadataURI string, _, _ *big.Int) (*types.Transaction, error) {
	return f.send("createChallenge", func() { f.created = append(f.created, metadataURI) })
}

func (f *fakeChain) WaitConfirmed(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	f.mu.Lock()
	method := f.txs[tx.Hash()]
	reverted := f.revert[method]
	f.mu.Unlock()

	receipt := &types.Receipt{TxHash: tx.Hash(), BlockNumber: big.NewInt(42), Status: types.ReceiptStatusSuccessful}
	if reverted {
		receipt.Status = types.ReceiptStatusFailed
		return receipt, fmt.Errorf("%w: %s", blockchain.ErrReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

func testSigner(t *testing.T) *blockchain.Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return blockchain.NewSignerFromKey(key, testChainID)
}

func setupTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewRepository(db), db
}

var errRPC = errors.New("rpc: connection reset")
