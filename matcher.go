package nftmarket

import "math/big"

// ValidatePair checks that a sell/buy pair is structurally compatible.
// Checks run in a fixed order and fail fast on the first violation. Pure:
// depends only on the two orders, the configuration and the clock reading.
func ValidatePair(sell, buy *Order, cfg *Config, now uint64) error {
	if sell.SequenceID == buy.SequenceID {
		return ErrIdenticalSequenceIDs
	}
	if sell.Offered.Kind != NonFungible && sell.Offered.Kind != SemiFungible {
		return ErrOfferedAssetNotCollectible
	}
	if buy.Offered.Kind != Fungible {
		return ErrPaymentAssetNotFungible
	}
	// Amounts arrive as caller-supplied big.Ints, so the sign checks the
	// on-chain uint domain gives for free happen here, before any state moves.
	if !isPositive(sell.Offered.Quantity) {
		return ErrInvalidQuantity
	}
	if sell.Desired.Amount == nil || sell.Desired.Amount.Sign() < 0 {
		return ErrInvalidQuantity
	}
	if sell.Offered.Kind == SemiFungible && !isPositive(buy.Desired.Amount) {
		return ErrInvalidQuantity
	}
	if !cfg.TokenAllowed(sell.Offered.Contract) || !cfg.TokenAllowed(buy.Offered.Contract) {
		return ErrTokenNotAllowed
	}
	if sell.Offered.Contract != buy.Desired.Contract || buy.Offered.Contract != sell.Desired.Contract {
		return ErrOrderPairMismatch
	}
	if buy.Maker == sell.Maker {
		return ErrSelfTrade
	}
	if !sell.Sell || buy.Sell {
		return ErrOrderSideMismatch
	}
	if sell.Expiry <= now || buy.Expiry <= now {
		return ErrOrderExpired
	}
	return nil
}

// isPositive treats nil like the zero value, matching the digest encoding.
func isPositive(x *big.Int) bool {
	return x != nil && x.Sign() > 0
}
