package nftmarket

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxDecimals caps payment-token precision.
const MaxDecimals = 18

// AmountToBaseUnits converts a human-readable decimal amount string into
// base units (e.g. "1.5" with 6 decimals -> 1500000). The conversion is
// exact; excess fractional digits are rejected rather than rounded.
func AmountToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("decimals must be between 0 and %d, got %d", MaxDecimals, decimals)
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 || parts[0] == "" {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}

	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", amount, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	result, ok := new(big.Int).SetString(parts[0]+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if result.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative, got %q", amount)
	}
	return result, nil
}
