package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	nftmarket "github.com/madhankarky707/nft-marketplace"
)

// EIP712 domain constants. Any off-core order-construction tool must use
// the same values to reproduce the engine's digests.
const (
	EIP712DomainName    = "NFT Marketplace Exchange"
	EIP712DomainVersion = "1"
)

// Pre-computed type hashes using keccak256
var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	EIP712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))

	// Order(uint256 sequenceId,address offeredContract,uint256 offeredUnitId,uint256 offeredQuantity,uint8 offeredKind,address desiredContract,uint256 desiredUnitId,uint256 desiredAmount,address maker,bool isSellOrder,uint64 expiry)
	// Salt and signature are deliberately outside the digest domain.
	OrderTypeHash = crypto.Keccak256Hash([]byte(
		"Order(uint256 sequenceId,address offeredContract,uint256 offeredUnitId,uint256 offeredQuantity,uint8 offeredKind,address desiredContract,uint256 desiredUnitId,uint256 desiredAmount,address maker,bool isSellOrder,uint64 expiry)",
	))
)

var (
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	uint64Type, _  = abi.NewType("uint64", "", nil)
	uint8Type, _   = abi.NewType("uint8", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
	boolType, _    = abi.NewType("bool", "", nil)
)

// Codec derives the authorization digest of an order and verifies
// secp256k1 signatures over it. The digest is an EIP712 typed-data hash
// bound to a chain id and a verifying contract address, so signatures
// cannot be replayed across deployments.
type Codec struct {
	domainSeparator common.Hash
}

// NewCodec builds a codec for one deployment of the exchange.
func NewCodec(chainID int64, verifyingContract common.Address) *Codec {
	return &Codec{domainSeparator: domainSeparatorHash(big.NewInt(chainID), verifyingContract)}
}

func domainSeparatorHash(chainID *big.Int, verifyingContract common.Address) common.Hash {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // nameHash
		{Type: bytes32Type}, // versionHash
		{Type: uint256Type}, // chainId
		{Type: addressType}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		EIP712DomainTypeHash,
		crypto.Keccak256Hash([]byte(EIP712DomainName)),
		crypto.Keccak256Hash([]byte(EIP712DomainVersion)),
		chainID,
		verifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// structHash encodes the digest-domain fields in their fixed wire order.
func structHash(o *nftmarket.Order) common.Hash {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: uint256Type}, // sequenceId
		{Type: addressType}, // offeredContract
		{Type: uint256Type}, // offeredUnitId
		{Type: uint256Type}, // offeredQuantity
		{Type: uint8Type},   // offeredKind
		{Type: addressType}, // desiredContract
		{Type: uint256Type}, // desiredUnitId
		{Type: uint256Type}, // desiredAmount
		{Type: addressType}, // maker
		{Type: boolType},    // isSellOrder
		{Type: uint64Type},  // expiry
	}

	encoded, err := arguments.Pack(
		OrderTypeHash,
		new(big.Int).SetUint64(o.SequenceID),
		o.Offered.Contract,
		bigOrZero(o.Offered.UnitID),
		bigOrZero(o.Offered.Quantity),
		uint8(o.Offered.Kind),
		o.Desired.Contract,
		bigOrZero(o.Desired.UnitID),
		bigOrZero(o.Desired.Amount),
		o.Maker,
		o.Sell,
		o.Expiry,
	)
	if err != nil {
		panic("failed to encode order struct: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// Digest computes the final EIP712 hash an order's maker signs:
// keccak256("\x19\x01" ++ domainSeparator ++ structHash).
func (c *Codec) Digest(o *nftmarket.Order) common.Hash {
	data := make([]byte, 0, 2+32+32)
	data = append(data, 0x19, 0x01)
	data = append(data, c.domainSeparator.Bytes()...)
	data = append(data, structHash(o).Bytes()...)
	return crypto.Keccak256Hash(data)
}

// Verify reports whether signature recovers signer for digest. Malformed
// signatures return false, never panic. Both raw recovery ids (0/1) and the
// conventional 27/28 offset are accepted.
func (c *Codec) Verify(digest common.Hash, signature []byte, signer common.Address) bool {
	if len(signature) != crypto.SignatureLength {
		return false
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return false
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == signer
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
