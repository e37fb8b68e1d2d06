package nftmarket

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetKind classifies how an asset transfers and how quantities behave.
type AssetKind uint8

const (
	// Fungible assets carry plain amounts (payment tokens).
	Fungible AssetKind = iota
	// NonFungible assets are unique items; quantity is always 1.
	NonFungible
	// SemiFungible assets are counts of identical units under one id.
	SemiFungible
)

func (k AssetKind) String() string {
	switch k {
	case Fungible:
		return "fungible"
	case NonFungible:
		return "non-fungible"
	case SemiFungible:
		return "semi-fungible"
	default:
		return "unknown"
	}
}

// AssetReference describes the asset an order offers.
type AssetReference struct {
	Contract common.Address
	UnitID   *big.Int // 0 for pure-fungible assets
	Quantity *big.Int
	Kind     AssetKind
}

// PriceReference describes what the maker wants in return. In every
// supported flow it resolves to a fungible payment token; for a buy order
// against a semi-fungible sell, Amount doubles as the requested fill
// quantity.
type PriceReference struct {
	Contract common.Address
	UnitID   *big.Int // 0 for fungible payment tokens
	Amount   *big.Int
}

// Order is a signed trading intent constructed off-chain by its maker.
// It is a value object: never mutated after construction. Remaining
// quantity for partially fillable orders lives in FillState, not here.
type Order struct {
	SequenceID uint64
	Maker      common.Address
	Offered    AssetReference
	Desired    PriceReference
	Sell       bool
	Salt       uint64 // distinguishes unsigned drafts; not part of the digest
	Expiry     uint64 // unix seconds, absolute deadline
	Signature  []byte
}

// FillState is the mutable remainder of a standing semi-fungible sell
// order. The Order snapshot inside it is the immutable signed intent; only
// Remaining changes, and only downward.
type FillState struct {
	Order     Order
	Remaining *big.Int
}

// SettlementReceipt is the durable audit record of one settlement. Field
// order and types are a wire contract for off-chain indexers; do not
// reorder.
type SettlementReceipt struct {
	Seller            common.Address `json:"seller"`
	Buyer             common.Address `json:"buyer"`
	AssetContract     common.Address `json:"assetContract"`
	UnitID            *big.Int       `json:"unitId"`
	FilledQuantity    *big.Int       `json:"filledQuantity"`
	PaymentToken      common.Address `json:"paymentToken"`
	NetAmountToSeller *big.Int       `json:"netAmountToSeller"`
	PlatformFeeAmount *big.Int       `json:"platformFeeAmount"`
	RoyaltyFeeAmount  *big.Int       `json:"royaltyFeeAmount"`
}

// OrderCodec derives authorization digests and checks signatures against
// them. Implemented by chain.Codec; kept as an interface here so the engine
// can be exercised without a chain backend.
type OrderCodec interface {
	// Digest hashes the order's authorization-relevant fields. Salt and
	// Signature are excluded from the digest domain.
	Digest(o *Order) common.Hash

	// Verify reports whether signature over digest recovers signer.
	// Malformed signatures yield false, never an error.
	Verify(digest common.Hash, signature []byte, signer common.Address) bool
}
