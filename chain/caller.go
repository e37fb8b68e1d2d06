package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	transferGasLimit   = 300000
	receiptPollPeriod  = 2 * time.Second
	receiptWaitTimeout = 2 * time.Minute
)

// Caller executes asset transfers and royalty lookups against live
// ERC20/ERC721/ERC1155/ERC2981 contracts. It implements the engine's
// TransferLedger and RoyaltyOracle interfaces: transfers go out as signed
// transactions and a reverted receipt surfaces as a transfer error.
type Caller struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
}

// NewCaller connects to an RPC endpoint with the operator key that holds
// the transfer approvals.
func NewCaller(rpcURL, privateKeyHex string, chainID int64) (*Caller, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Caller{
		client:     client,
		privateKey: privateKey,
		chainID:    big.NewInt(chainID),
	}, nil
}

// OperatorAddress returns the address sending transfer transactions.
func (c *Caller) OperatorAddress() common.Address {
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}

// TransferFungible moves ERC20 tokens via transferFrom; the owner must have
// approved the operator beforehand.
func (c *Caller) TransferFungible(ctx context.Context, token, owner, recipient common.Address, amount *big.Int) error {
	data, err := GetERC20ABI().Pack("transferFrom", owner, recipient, amount)
	if err != nil {
		return fmt.Errorf("failed to pack transferFrom: %w", err)
	}
	return c.sendAndConfirm(ctx, token, data)
}

// TransferNonFungible moves one ERC721 item.
func (c *Caller) TransferNonFungible(ctx context.Context, token, owner, recipient common.Address, unitID *big.Int) error {
	data, err := GetERC721ABI().Pack("safeTransferFrom", owner, recipient, unitID)
	if err != nil {
		return fmt.Errorf("failed to pack safeTransferFrom: %w", err)
	}
	return c.sendAndConfirm(ctx, token, data)
}

// TransferSemiFungible moves quantity units of one ERC1155 id.
func (c *Caller) TransferSemiFungible(ctx context.Context, token, owner, recipient common.Address, unitID, quantity *big.Int) error {
	data, err := GetERC1155ABI().Pack("safeTransferFrom", owner, recipient, unitID, quantity, []byte{})
	if err != nil {
		return fmt.Errorf("failed to pack safeTransferFrom: %w", err)
	}
	return c.sendAndConfirm(ctx, token, data)
}

// SupportsRoyalty probes the contract for ERC2981 support. Any failure of
// the probe itself reads as "not supported".
func (c *Caller) SupportsRoyalty(ctx context.Context, token common.Address) bool {
	royaltyABI := GetRoyaltyABI()
	data, err := royaltyABI.Pack("supportsInterface", ERC2981InterfaceID)
	if err != nil {
		return false
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return false
	}
	results, err := royaltyABI.Unpack("supportsInterface", out)
	if err != nil || len(results) != 1 {
		return false
	}
	supported, ok := results[0].(bool)
	return ok && supported
}

// RoyaltyInfo returns the creator royalty split for a sale price.
func (c *Caller) RoyaltyInfo(ctx context.Context, token common.Address, unitID, salePrice *big.Int) (common.Address, *big.Int, error) {
	royaltyABI := GetRoyaltyABI()
	data, err := royaltyABI.Pack("royaltyInfo", unitID, salePrice)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to pack royaltyInfo: %w", err)
	}
	out, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("royaltyInfo call failed: %w", err)
	}
	results, err := royaltyABI.Unpack("royaltyInfo", out)
	if err != nil || len(results) != 2 {
		return common.Address{}, nil, fmt.Errorf("failed to unpack royaltyInfo: %w", err)
	}
	recipient, ok := results[0].(common.Address)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("unexpected royaltyInfo receiver type")
	}
	amount, ok := results[1].(*big.Int)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("unexpected royaltyInfo amount type")
	}
	return recipient, amount, nil
}

func (c *Caller) sendAndConfirm(ctx context.Context, to common.Address, data []byte) error {
	from := c.OperatorAddress()

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), transferGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := c.waitForReceipt(ctx, signed.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction reverted: %s", signed.Hash().Hex())
	}
	return nil
}

func (c *Caller) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(receiptWaitTimeout)
	ticker := time.NewTicker(receiptPollPeriod)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for receipt %s", txHash.Hex())
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
