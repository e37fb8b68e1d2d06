package nftmarket

import "errors"

// Validation errors: the order pair is structurally wrong. Never retried;
// the caller must fix the pair.
var (
	// ErrIdenticalSequenceIDs means sell and buy carry the same sequence id
	ErrIdenticalSequenceIDs = errors.New("sell and buy orders share a sequence id")

	// ErrOfferedAssetNotCollectible means the sell side must offer a
	// non-fungible or semi-fungible asset
	ErrOfferedAssetNotCollectible = errors.New("offered asset is not a collectible")

	// ErrPaymentAssetNotFungible means the buy side must offer a fungible token
	ErrPaymentAssetNotFungible = errors.New("payment asset is not fungible")

	// ErrInvalidQuantity means a quantity or amount is nil, negative, or zero
	// where a positive value is required
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrTokenNotAllowed means a referenced contract is not whitelisted
	ErrTokenNotAllowed = errors.New("token contract not allowed")

	// ErrOrderPairMismatch means the orders do not reference each other's assets
	ErrOrderPairMismatch = errors.New("orders do not reference each other's assets")

	// ErrSelfTrade means both orders share a maker
	ErrSelfTrade = errors.New("maker cannot trade with itself")

	// ErrOrderSideMismatch means the sell/buy flags are wrong way round
	ErrOrderSideMismatch = errors.New("order sides do not match")

	// ErrOrderExpired means an order's expiry deadline has passed
	ErrOrderExpired = errors.New("order expired")
)

// Authorization errors: a signature is bad or already consumed. Never
// retried with the same signature.
var (
	// ErrInvalidMakerAuthorization wraps the reason the sell order failed authorization
	ErrInvalidMakerAuthorization = errors.New("invalid maker authorization")

	// ErrInvalidTakerAuthorization wraps the reason the buy order failed authorization
	ErrInvalidTakerAuthorization = errors.New("invalid taker authorization")

	// ErrInvalidAuthorization is the cancellation-path variant
	ErrInvalidAuthorization = errors.New("invalid authorization")

	// ErrOrderConsumed means the order's digest was already spent
	ErrOrderConsumed = errors.New("order already consumed")

	// ErrSignatureInvalid means the signature does not recover the maker
	ErrSignatureInvalid = errors.New("signature does not match maker")
)

// Quantity errors: the request must be adjusted by the caller.
var (
	// ErrInsufficientQuantity means the fill exceeds the remaining quantity
	ErrInsufficientQuantity = errors.New("insufficient remaining quantity")

	// ErrRoyaltyExceedsProceeds means the royalty would exceed the seller's proceeds
	ErrRoyaltyExceedsProceeds = errors.New("royalty exceeds proceeds")
)

// Configuration and administrative errors.
var (
	// ErrUnauthorized means the caller lacks the required authority
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidFeeRate means the platform fee rate is outside (0, 5000) bps
	ErrInvalidFeeRate = errors.New("invalid platform fee rate")

	// ErrZeroAddress means a zero address was supplied where one is forbidden
	ErrZeroAddress = errors.New("zero address")

	// ErrInvalidBatchLimit means the batch order limit must be at least 1
	ErrInvalidBatchLimit = errors.New("invalid batch order limit")

	// ErrWhitelistBatchTooLarge means too many tokens in one whitelist update
	ErrWhitelistBatchTooLarge = errors.New("whitelist batch too large")

	// ErrBatchLimitExceeded means batch arrays mismatch or exceed the limit
	ErrBatchLimitExceeded = errors.New("batch order limit exceeded")
)

// Engine-level errors.
var (
	// ErrReentrantCall means a settlement call arrived while another holds the engine
	ErrReentrantCall = errors.New("reentrant call")

	// ErrTransferFailed wraps a rejection from an external asset ledger
	ErrTransferFailed = errors.New("transfer failed")

	// ErrAlreadyCancelled means the standing order is already exhausted
	ErrAlreadyCancelled = errors.New("order already cancelled")
)
