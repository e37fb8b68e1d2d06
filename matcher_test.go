package nftmarket

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNFTContract  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testPaymentToken = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	testSeller       = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	testBuyer        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testFeeRecipient = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

const testNow = uint64(1_700_000_000)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := NewConfig(testFeeRecipient, 500, 10)
	require.NoError(t, err)
	require.NoError(t, cfg.allowTokens([]common.Address{testNFTContract, testPaymentToken}))
	return cfg
}

func testPair() (*Order, *Order) {
	sell := &Order{
		SequenceID: 1,
		Maker:      testSeller,
		Offered: AssetReference{
			Contract: testNFTContract,
			UnitID:   big.NewInt(42),
			Quantity: big.NewInt(1),
			Kind:     NonFungible,
		},
		Desired: PriceReference{
			Contract: testPaymentToken,
			UnitID:   big.NewInt(0),
			Amount:   big.NewInt(100),
		},
		Sell:   true,
		Expiry: testNow + 3600,
	}
	buy := &Order{
		SequenceID: 2,
		Maker:      testBuyer,
		Offered: AssetReference{
			Contract: testPaymentToken,
			UnitID:   big.NewInt(0),
			Quantity: big.NewInt(100),
			Kind:     Fungible,
		},
		Desired: PriceReference{
			Contract: testNFTContract,
			UnitID:   big.NewInt(42),
			Amount:   big.NewInt(1),
		},
		Sell:   false,
		Expiry: testNow + 3600,
	}
	return sell, buy
}

func TestValidatePair_Valid(t *testing.T) {
	cfg := testConfig(t)
	sell, buy := testPair()
	assert.NoError(t, ValidatePair(sell, buy, cfg, testNow))
}

func TestValidatePair_Violations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(sell, buy *Order)
		wantErr error
	}{
		{
			"identical sequence ids",
			func(sell, buy *Order) { buy.SequenceID = sell.SequenceID },
			ErrIdenticalSequenceIDs,
		},
		{
			"fungible offered on sell side",
			func(sell, buy *Order) { sell.Offered.Kind = Fungible },
			ErrOfferedAssetNotCollectible,
		},
		{
			"collectible offered on buy side",
			func(sell, buy *Order) { buy.Offered.Kind = NonFungible },
			ErrPaymentAssetNotFungible,
		},
		{
			"zero offered quantity",
			func(sell, buy *Order) { sell.Offered.Quantity = big.NewInt(0) },
			ErrInvalidQuantity,
		},
		{
			"nil offered quantity",
			func(sell, buy *Order) { sell.Offered.Quantity = nil },
			ErrInvalidQuantity,
		},
		{
			"negative unit price",
			func(sell, buy *Order) { sell.Desired.Amount = big.NewInt(-100) },
			ErrInvalidQuantity,
		},
		{
			"negative fill quantity",
			func(sell, buy *Order) {
				sell.Offered.Kind = SemiFungible
				sell.Offered.Quantity = big.NewInt(10)
				buy.Desired.Amount = big.NewInt(-5)
			},
			ErrInvalidQuantity,
		},
		{
			"zero fill quantity",
			func(sell, buy *Order) {
				sell.Offered.Kind = SemiFungible
				sell.Offered.Quantity = big.NewInt(10)
				buy.Desired.Amount = big.NewInt(0)
			},
			ErrInvalidQuantity,
		},
		{
			"sell asset not whitelisted",
			func(sell, buy *Order) {
				other := common.HexToAddress("0x00000000000000000000000000000000000000ff")
				sell.Offered.Contract = other
				buy.Desired.Contract = other
			},
			ErrTokenNotAllowed,
		},
		{
			"orders reference different assets",
			func(sell, buy *Order) { buy.Desired.Contract = testPaymentToken },
			ErrOrderPairMismatch,
		},
		{
			"self trade",
			func(sell, buy *Order) { buy.Maker = sell.Maker },
			ErrSelfTrade,
		},
		{
			"both orders are sells",
			func(sell, buy *Order) { buy.Sell = true },
			ErrOrderSideMismatch,
		},
		{
			"sell order expired",
			func(sell, buy *Order) { sell.Expiry = testNow },
			ErrOrderExpired,
		},
		{
			"buy order expired",
			func(sell, buy *Order) { buy.Expiry = testNow - 1 },
			ErrOrderExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			sell, buy := testPair()
			tt.mutate(sell, buy)
			assert.ErrorIs(t, ValidatePair(sell, buy, cfg, testNow), tt.wantErr)
		})
	}
}

// The fixed check order means an invalid pair reports the earliest
// violation, not an arbitrary one.
func TestValidatePair_FailsFastInOrder(t *testing.T) {
	cfg := testConfig(t)
	sell, buy := testPair()
	buy.SequenceID = sell.SequenceID
	sell.Expiry = testNow // also expired, but sequence check comes first
	assert.ErrorIs(t, ValidatePair(sell, buy, cfg, testNow), ErrIdenticalSequenceIDs)
}
