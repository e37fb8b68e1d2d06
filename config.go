package nftmarket

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// MaxPlatformFeeRateBps caps the configurable platform fee at 50%.
	MaxPlatformFeeRateBps = 5000

	// MaxWhitelistBatch bounds one bulk whitelist update.
	MaxWhitelistBatch = 20
)

// Config holds the shared marketplace configuration read by the matcher and
// the settlement engine on every call. Writes go through the engine's
// administrative surface and are visible immediately; the internal lock
// keeps reads coherent with concurrent administrative updates.
type Config struct {
	mu              sync.RWMutex
	feeRecipient    common.Address
	feeRateBps      uint64
	batchOrderLimit int
	allowed         map[common.Address]struct{}
}

// NewConfig validates and builds a marketplace configuration.
func NewConfig(feeRecipient common.Address, feeRateBps uint64, batchOrderLimit int) (*Config, error) {
	if feeRecipient == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if feeRateBps == 0 || feeRateBps >= MaxPlatformFeeRateBps {
		return nil, ErrInvalidFeeRate
	}
	if batchOrderLimit < 1 {
		return nil, ErrInvalidBatchLimit
	}
	return &Config{
		feeRecipient:    feeRecipient,
		feeRateBps:      feeRateBps,
		batchOrderLimit: batchOrderLimit,
		allowed:         make(map[common.Address]struct{}),
	}, nil
}

// FeeRecipient returns the current platform fee recipient.
func (c *Config) FeeRecipient() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRecipient
}

// FeeRateBps returns the current platform fee rate in basis points.
func (c *Config) FeeRateBps() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRateBps
}

// BatchOrderLimit returns the maximum number of pairs per batch settlement.
func (c *Config) BatchOrderLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.batchOrderLimit
}

// TokenAllowed reports whether a token contract is whitelisted for trading.
func (c *Config) TokenAllowed(token common.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.allowed[token]
	return ok
}

func (c *Config) setFeeRecipient(recipient common.Address) error {
	if recipient == (common.Address{}) {
		return ErrZeroAddress
	}
	c.mu.Lock()
	c.feeRecipient = recipient
	c.mu.Unlock()
	return nil
}

func (c *Config) setFeeRateBps(rateBps uint64) error {
	if rateBps == 0 || rateBps >= MaxPlatformFeeRateBps {
		return ErrInvalidFeeRate
	}
	c.mu.Lock()
	c.feeRateBps = rateBps
	c.mu.Unlock()
	return nil
}

func (c *Config) setBatchOrderLimit(limit int) error {
	if limit < 1 {
		return ErrInvalidBatchLimit
	}
	c.mu.Lock()
	c.batchOrderLimit = limit
	c.mu.Unlock()
	return nil
}

func (c *Config) allowTokens(tokens []common.Address) error {
	if len(tokens) == 0 || len(tokens) > MaxWhitelistBatch {
		return ErrWhitelistBatchTooLarge
	}
	for _, t := range tokens {
		if t == (common.Address{}) {
			return ErrZeroAddress
		}
	}
	c.mu.Lock()
	for _, t := range tokens {
		c.allowed[t] = struct{}{}
	}
	c.mu.Unlock()
	return nil
}

func (c *Config) revokeTokens(tokens []common.Address) error {
	if len(tokens) == 0 || len(tokens) > MaxWhitelistBatch {
		return ErrWhitelistBatchTooLarge
	}
	c.mu.Lock()
	for _, t := range tokens {
		delete(c.allowed, t)
	}
	c.mu.Unlock()
	return nil
}
