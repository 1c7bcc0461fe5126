package blockchain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUnits renders an integer amount of smallest token units as a decimal
// string, keeping at least one fractional digit ("50.0", "0.000001").
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		amount = new(big.Int)
	}
	s := decimal.NewFromBigInt(amount, -decimals).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseUnits converts a human decimal string into smallest token units.
// It rejects negative amounts and more fractional digits than the token has.
func ParseUnits(value string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", value)
	}
	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount %q: more than %d decimals", value, decimals)
	}
	return shifted.BigInt(), nil
}

// OneToken is one whole token in smallest units.
func OneToken(decimals int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
