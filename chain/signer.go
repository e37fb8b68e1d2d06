package chain

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	nftmarket "github.com/madhankarky707/nft-marketplace"
)

// Signer produces maker authorizations over exactly the digest the engine
// verifies. This is the off-core order-construction side of the wire
// contract.
type Signer struct {
	codec *Codec
	key   *ecdsa.PrivateKey
}

// NewSigner builds a signer from a hex-encoded secp256k1 private key.
func NewSigner(codec *Codec, privateKeyHex string) (*Signer, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &Signer{codec: codec, key: key}, nil
}

// NewSignerFromKey wraps an existing private key.
func NewSignerFromKey(codec *Codec, key *ecdsa.PrivateKey) *Signer {
	return &Signer{codec: codec, key: key}
}

// Address returns the maker address this signer authorizes for.
func (s *Signer) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignOrder computes the order digest and signs it. The recovery id is
// offset to the conventional 27/28 range.
func (s *Signer) SignOrder(o *nftmarket.Order) ([]byte, error) {
	digest := s.codec.Digest(o)
	signature, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}
	signature[64] += 27
	return signature, nil
}
