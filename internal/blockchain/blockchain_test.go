package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount *big.Int
		want   string
	}{
		{big.NewInt(0), "0.0"},
		{big.NewInt(1), "0.000001"},
		{big.NewInt(1_000_000), "1.0"},
		{big.NewInt(50_000_000), "50.0"},
		{big.NewInt(2_500_000), "2.5"},
		{nil, "0.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUnits(tt.amount, 6))
	}
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("2.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "2500000", v.String())

	v, err = ParseUnits(" 1 ", 6)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Cmp(OneToken(6)))

	for _, bad := range []string{"", "abc", "-1", "0.0000001"} {
		_, err := ParseUnits(bad, 6)
		assert.Error(t, err, bad)
	}
}

func TestSignerRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewSignerFromKey(key, big.NewInt(84532))

	msg := []byte("Sign in to Lock In")
	sig, err := signer.SignMessage(msg)
	require.NoError(t, err)
	assert.Len(t, sig, crypto.SignatureLength)
	assert.GreaterOrEqual(t, sig[crypto.RecoveryIDOffset], byte(27))

	addr, err := RecoverSigner(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), addr)

	other, err := RecoverSigner([]byte("something else"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer.Address(), other)

	_, err = RecoverSigner(msg, sig[:10])
	assert.Error(t, err)
}

func TestNewSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	for _, k := range []string{hexKey, "0x" + hexKey} {
		s, err := NewSigner(k, big.NewInt(84532))
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), s.Address())
		assert.Equal(t, "84532", s.ChainID().String())
	}

	_, err = NewSigner("zz", big.NewInt(1))
	assert.Error(t, err)
}

func TestSwitchNetwork(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewSignerFromKey(key, big.NewInt(1))

	c := &Client{networkChainID: big.NewInt(84532), requiredChainID: big.NewInt(84532), log: zerolog.Nop()}
	require.NoError(t, c.SwitchNetwork(context.Background(), signer, c.RequiredChainID()))
	assert.Equal(t, "84532", signer.ChainID().String())

	wrong := &Client{networkChainID: big.NewInt(1), requiredChainID: big.NewInt(84532), log: zerolog.Nop()}
	err = wrong.SwitchNetwork(context.Background(), signer, wrong.RequiredChainID())
	assert.ErrorIs(t, err, ErrWrongNetwork)

	assert.ErrorIs(t, c.SwitchNetwork(context.Background(), nil, c.RequiredChainID()), ErrNoSigner)
}

func TestTransactionErrorUnwraps(t *testing.T) {
	err := &TransactionError{Step: "join", Err: ErrReverted}
	assert.True(t, errors.Is(err, ErrReverted))
	assert.Contains(t, err.Error(), "join")
}
