package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	nftmarket "github.com/madhankarky707/nft-marketplace"
	"github.com/madhankarky707/nft-marketplace/chain"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	rpcURL := getEnv("RPC_URL", "http://localhost:8545")
	operatorKey := mustEnv(log, "OPERATOR_PRIVATE_KEY")
	sellerKey := mustEnv(log, "SELLER_PRIVATE_KEY")
	buyerKey := mustEnv(log, "BUYER_PRIVATE_KEY")
	chainID := parseIntEnv(log, "CHAIN_ID", 1)
	exchangeAddr := common.HexToAddress(getEnv("EXCHANGE_ADDRESS", "0x0000000000000000000000000000000000000001"))
	nftContract := common.HexToAddress(mustEnv(log, "NFT_CONTRACT"))
	paymentToken := common.HexToAddress(mustEnv(log, "PAYMENT_TOKEN"))
	admin := common.HexToAddress(mustEnv(log, "ADMIN_ADDRESS"))
	feeRecipient := common.HexToAddress(mustEnv(log, "FEE_RECIPIENT"))

	cfg, err := nftmarket.NewConfig(feeRecipient, 250, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	caller, err := chain.NewCaller(rpcURL, operatorKey, chainID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect chain caller")
	}

	codec := chain.NewCodec(chainID, exchangeAddr)
	ex := nftmarket.NewExchange(admin, cfg, codec, caller, caller, nftmarket.WithLogger(log))

	if err := ex.AllowTokens(admin, []common.Address{nftContract, paymentToken}); err != nil {
		log.Fatal().Err(err).Msg("failed to whitelist tokens")
	}

	go func() {
		stream := nftmarket.NewStreamServer(ex, log)
		log.Info().Str("addr", ":8080").Msg("settlement stream listening")
		if err := http.ListenAndServe(":8080", stream.Routes()); err != nil {
			log.Fatal().Err(err).Msg("stream server stopped")
		}
	}()

	seller, err := chain.NewSigner(codec, sellerKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid seller key")
	}
	buyer, err := chain.NewSigner(codec, buyerKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid buyer key")
	}

	price, err := nftmarket.AmountToBaseUnits("100", 6)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid price")
	}
	expiry := uint64(time.Now().Add(time.Hour).Unix())

	sell := &nftmarket.Order{
		SequenceID: 1,
		Maker:      seller.Address(),
		Offered: nftmarket.AssetReference{
			Contract: nftContract,
			UnitID:   big.NewInt(42),
			Quantity: big.NewInt(1),
			Kind:     nftmarket.NonFungible,
		},
		Desired: nftmarket.PriceReference{
			Contract: paymentToken,
			UnitID:   big.NewInt(0),
			Amount:   price,
		},
		Sell:   true,
		Salt:   7,
		Expiry: expiry,
	}
	sell.Signature, err = seller.SignOrder(sell)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign sell order")
	}

	buy := &nftmarket.Order{
		SequenceID: 2,
		Maker:      buyer.Address(),
		Offered: nftmarket.AssetReference{
			Contract: paymentToken,
			UnitID:   big.NewInt(0),
			Quantity: price,
			Kind:     nftmarket.Fungible,
		},
		Desired: nftmarket.PriceReference{
			Contract: nftContract,
			UnitID:   big.NewInt(42),
			Amount:   big.NewInt(1),
		},
		Sell:   false,
		Salt:   8,
		Expiry: expiry,
	}
	buy.Signature, err = buyer.SignOrder(buy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign buy order")
	}

	rcpt, err := ex.Settle(context.Background(), sell, buy)
	if err != nil {
		log.Fatal().Err(err).Msg("settlement failed")
	}
	log.Info().
		Str("net", rcpt.NetAmountToSeller.String()).
		Str("fee", rcpt.PlatformFeeAmount.String()).
		Str("royalty", rcpt.RoyaltyFeeAmount.String()).
		Msg("settlement complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(log zerolog.Logger, key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Str("key", key).Msg("missing required environment variable")
	}
	return value
}

func parseIntEnv(log zerolog.Logger, key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Int64("fallback", defaultValue).Msg("invalid integer")
		return defaultValue
	}
	return parsed
}
