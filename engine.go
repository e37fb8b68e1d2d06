package nftmarket

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferLedger is the external asset ledger the engine settles against.
// Fungible transfers require a pre-existing allowance from the owner to the
// engine; non- and semi-fungible transfers require prior approval. Each
// rejection aborts the enclosing settlement; implementations backing a
// batch must provide atomic rollback of issued transfers on abort.
type TransferLedger interface {
	TransferFungible(ctx context.Context, token, owner, recipient common.Address, amount *big.Int) error
	TransferNonFungible(ctx context.Context, token, owner, recipient common.Address, unitID *big.Int) error
	TransferSemiFungible(ctx context.Context, token, owner, recipient common.Address, unitID, quantity *big.Int) error
}

// RoyaltyOracle reports a creator royalty split for an asset sale.
// SupportsRoyalty must absorb any underlying probe failure and report
// false; only a supported contract is queried for RoyaltyInfo.
type RoyaltyOracle interface {
	SupportsRoyalty(ctx context.Context, token common.Address) bool
	RoyaltyInfo(ctx context.Context, token common.Address, unitID, salePrice *big.Int) (common.Address, *big.Int, error)
}

// Exchange validates and atomically settles matched order pairs. All state
// mutation happens behind a single exclusive call guard; a concurrent or
// re-entrant invocation (an asset contract calling back in mid-transfer) is
// rejected with ErrReentrantCall rather than interleaved.
type Exchange struct {
	admin    common.Address
	cfg      *Config
	codec    OrderCodec
	ledger   TransferLedger
	royalty  RoyaltyOracle
	replays  *ReplayLedger
	fills    *PartialFillLedger
	receipts *hub[SettlementReceipt]
	log      zerolog.Logger
	now      func() uint64
	busy     atomic.Bool
}

// Option customizes an Exchange.
type Option func(*Exchange)

// WithLogger sets the engine logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Exchange) { e.log = log }
}

// WithClock overrides the expiry clock, in unix seconds.
func WithClock(now func() uint64) Option {
	return func(e *Exchange) { e.now = now }
}

// NewExchange builds a settlement engine over the given configuration,
// codec and external interfaces.
func NewExchange(admin common.Address, cfg *Config, codec OrderCodec, ledger TransferLedger, royalty RoyaltyOracle, opts ...Option) *Exchange {
	e := &Exchange{
		admin:    admin,
		cfg:      cfg,
		codec:    codec,
		ledger:   ledger,
		royalty:  royalty,
		replays:  NewReplayLedger(),
		fills:    NewPartialFillLedger(),
		receipts: newHub[SettlementReceipt](),
		log:      zerolog.Nop(),
		now:      func() uint64 { return uint64(time.Now().Unix()) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config exposes the live marketplace configuration.
func (e *Exchange) Config() *Config { return e.cfg }

// RemainingQuantity returns the unfilled remainder of a standing
// semi-fungible sell order, or false if no partial-fill record exists.
func (e *Exchange) RemainingQuantity(sequenceID uint64) (*big.Int, bool) {
	fs, ok := e.fills.Get(sequenceID)
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(fs.Remaining), true
}

// journal collects undo actions for engine-ledger mutations so an aborted
// call can restore the exact pre-call state.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) { j.undo = append(j.undo, fn) }

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

func (e *Exchange) enter() bool { return e.busy.CompareAndSwap(false, true) }
func (e *Exchange) leave()      { e.busy.Store(false) }

// Settle validates, authorizes and atomically settles one sell/buy pair.
// On success every transfer has been issued and a receipt is published; on
// any failure the replay and partial-fill ledgers are exactly as before.
func (e *Exchange) Settle(ctx context.Context, sell, buy *Order) (*SettlementReceipt, error) {
	if !e.enter() {
		return nil, ErrReentrantCall
	}
	defer e.leave()

	j := &journal{}
	rcpt, err := e.settle(ctx, j, sell, buy)
	if err != nil {
		j.rollback()
		return nil, err
	}
	e.publish(*rcpt)
	return rcpt, nil
}

// BatchSettle settles pairs in order and aborts the whole batch on the
// first failure: a strict sequential composition, not a best-effort loop.
func (e *Exchange) BatchSettle(ctx context.Context, sells, buys []*Order) ([]SettlementReceipt, error) {
	if !e.enter() {
		return nil, ErrReentrantCall
	}
	defer e.leave()

	if len(sells) != len(buys) || len(sells) > e.cfg.BatchOrderLimit() {
		return nil, ErrBatchLimitExceeded
	}

	j := &journal{}
	receipts := make([]SettlementReceipt, 0, len(sells))
	for i := range sells {
		rcpt, err := e.settle(ctx, j, sells[i], buys[i])
		if err != nil {
			j.rollback()
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		receipts = append(receipts, *rcpt)
	}
	for _, rcpt := range receipts {
		e.publish(rcpt)
	}
	return receipts, nil
}

func (e *Exchange) settle(ctx context.Context, j *journal, sell, buy *Order) (*SettlementReceipt, error) {
	now := e.now()
	if err := ValidatePair(sell, buy, e.cfg, now); err != nil {
		return nil, err
	}

	// Maker authorization. A standing partial-fill record is the long-lived
	// proof of the commitment: its presence plus non-expiry replaces the
	// signature check, provided the submitted order is the same signed
	// intent the record snapshotted.
	fs, standing := e.fills.Get(sell.SequenceID)
	if standing {
		if e.codec.Digest(&fs.Order) != e.codec.Digest(sell) {
			return nil, fmt.Errorf("%w: order does not match standing record", ErrInvalidMakerAuthorization)
		}
		if fs.Order.Expiry <= now {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMakerAuthorization, ErrOrderExpired)
		}
	} else if err := e.authorize(j, sell); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMakerAuthorization, err)
	}

	// Buy orders are one-shot: always the full authorization sequence.
	if err := e.authorize(j, buy); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTakerAuthorization, err)
	}

	fill := big.NewInt(1)
	if sell.Offered.Kind == SemiFungible {
		fill = new(big.Int).Set(buy.Desired.Amount)
		if !standing {
			switch fill.Cmp(sell.Offered.Quantity) {
			case -1:
				// First fill is itself partial: this is a multi-fill order.
				e.fills.Create(*sell)
				j.record(func() { e.fills.remove(sell.SequenceID) })
				standing = true
			case 1:
				return nil, ErrInsufficientQuantity
			}
		}
	}

	totalPrice := new(big.Int).Set(sell.Desired.Amount)
	if sell.Offered.Kind == SemiFungible {
		totalPrice.Mul(totalPrice, fill)
	}

	platformFee, proceeds := FeeBreakdown(totalPrice, e.cfg.FeeRateBps())

	royaltyRecipient, royaltyFee, err := e.royaltyFor(ctx, sell.Offered.Contract, sell.Offered.UnitID, totalPrice)
	if err != nil {
		return nil, err
	}
	if royaltyFee.Cmp(proceeds) > 0 {
		return nil, ErrRoyaltyExceedsProceeds
	}
	proceeds.Sub(proceeds, royaltyFee)

	if standing {
		if err := e.fills.Decrement(sell.SequenceID, fill); err != nil {
			return nil, err
		}
		quantity := new(big.Int).Set(fill)
		j.record(func() { e.fills.credit(sell.SequenceID, quantity) })
	}

	paymentToken := buy.Offered.Contract
	if royaltyFee.Sign() > 0 {
		if err := e.ledger.TransferFungible(ctx, paymentToken, buy.Maker, royaltyRecipient, royaltyFee); err != nil {
			return nil, fmt.Errorf("%w: royalty: %w", ErrTransferFailed, err)
		}
	}
	if platformFee.Sign() > 0 {
		if err := e.ledger.TransferFungible(ctx, paymentToken, buy.Maker, e.cfg.FeeRecipient(), platformFee); err != nil {
			return nil, fmt.Errorf("%w: platform fee: %w", ErrTransferFailed, err)
		}
	}
	if err := e.ledger.TransferFungible(ctx, paymentToken, buy.Maker, sell.Maker, proceeds); err != nil {
		return nil, fmt.Errorf("%w: proceeds: %w", ErrTransferFailed, err)
	}
	switch sell.Offered.Kind {
	case NonFungible:
		if err := e.ledger.TransferNonFungible(ctx, sell.Offered.Contract, sell.Maker, buy.Maker, sell.Offered.UnitID); err != nil {
			return nil, fmt.Errorf("%w: asset: %w", ErrTransferFailed, err)
		}
	case SemiFungible:
		if err := e.ledger.TransferSemiFungible(ctx, sell.Offered.Contract, sell.Maker, buy.Maker, sell.Offered.UnitID, fill); err != nil {
			return nil, fmt.Errorf("%w: asset: %w", ErrTransferFailed, err)
		}
	}

	return &SettlementReceipt{
		Seller:            sell.Maker,
		Buyer:             buy.Maker,
		AssetContract:     sell.Offered.Contract,
		UnitID:            sell.Offered.UnitID,
		FilledQuantity:    fill,
		PaymentToken:      paymentToken,
		NetAmountToSeller: proceeds,
		PlatformFeeAmount: platformFee,
		RoyaltyFeeAmount:  royaltyFee,
	}, nil
}

// authorize runs the one-shot sequence: digest, replay check, signature
// check, mark consumed. Marking happens only after the checks pass and is
// journaled so an abort later in the call releases the digest again.
func (e *Exchange) authorize(j *journal, o *Order) error {
	digest := e.codec.Digest(o)
	if e.replays.Consumed(digest) {
		return ErrOrderConsumed
	}
	if !e.codec.Verify(digest, o.Signature, o.Maker) {
		return ErrSignatureInvalid
	}
	e.replays.MarkConsumed(digest)
	j.record(func() { e.replays.unmark(digest) })
	return nil
}

// royaltyFor queries the oracle. An unsupported contract, or a failed
// support probe, means zero royalty. A RoyaltyInfo failure on a supported
// contract aborts the settlement.
func (e *Exchange) royaltyFor(ctx context.Context, token common.Address, unitID, salePrice *big.Int) (common.Address, *big.Int, error) {
	if !e.royalty.SupportsRoyalty(ctx, token) {
		return common.Address{}, new(big.Int), nil
	}
	recipient, amount, err := e.royalty.RoyaltyInfo(ctx, token, unitID, salePrice)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("royalty lookup: %w", err)
	}
	if amount == nil {
		amount = new(big.Int)
	}
	return recipient, new(big.Int).Set(amount), nil
}

// Cancel permanently invalidates an order. One-shot orders prove
// cancellation by consuming the very digest that would authorize a fill;
// semi-fungible orders zero their standing record, creating an exhausted
// one first if the order was never filled.
func (e *Exchange) Cancel(order *Order, caller common.Address) error {
	if !e.enter() {
		return ErrReentrantCall
	}
	defer e.leave()

	if caller != order.Maker {
		return ErrUnauthorized
	}

	if order.Offered.Kind == SemiFungible {
		if fs, ok := e.fills.Get(order.SequenceID); ok {
			if fs.Order.Maker != caller {
				return ErrUnauthorized
			}
			if err := e.fills.Exhaust(order.SequenceID); err != nil {
				return err
			}
			e.logCancel(order)
			return nil
		}
		if err := e.consumeForCancel(order); err != nil {
			return err
		}
		e.fills.CreateExhausted(*order)
		e.logCancel(order)
		return nil
	}

	if err := e.consumeForCancel(order); err != nil {
		return err
	}
	e.logCancel(order)
	return nil
}

func (e *Exchange) consumeForCancel(o *Order) error {
	digest := e.codec.Digest(o)
	if e.replays.Consumed(digest) {
		return fmt.Errorf("%w: %w", ErrInvalidAuthorization, ErrOrderConsumed)
	}
	if !e.codec.Verify(digest, o.Signature, o.Maker) {
		return fmt.Errorf("%w: %w", ErrInvalidAuthorization, ErrSignatureInvalid)
	}
	e.replays.MarkConsumed(digest)
	return nil
}

func (e *Exchange) publish(rcpt SettlementReceipt) {
	e.receipts.Broadcast(rcpt)
	e.log.Info().
		Str("call_id", uuid.NewString()).
		Str("seller", rcpt.Seller.Hex()).
		Str("buyer", rcpt.Buyer.Hex()).
		Str("asset", rcpt.AssetContract.Hex()).
		Str("unit_id", rcpt.UnitID.String()).
		Str("filled", rcpt.FilledQuantity.String()).
		Str("net", rcpt.NetAmountToSeller.String()).
		Str("platform_fee", rcpt.PlatformFeeAmount.String()).
		Str("royalty_fee", rcpt.RoyaltyFeeAmount.String()).
		Msg("settled")
}

func (e *Exchange) logCancel(o *Order) {
	e.log.Info().
		Uint64("sequence_id", o.SequenceID).
		Str("maker", o.Maker.Hex()).
		Str("kind", o.Offered.Kind.String()).
		Msg("cancelled")
}

// SetFeeRecipient updates the platform fee recipient. Admin only.
func (e *Exchange) SetFeeRecipient(caller, recipient common.Address) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return e.cfg.setFeeRecipient(recipient)
}

// SetPlatformFeeRate updates the fee rate; must stay inside (0, 5000) bps.
// Admin only.
func (e *Exchange) SetPlatformFeeRate(caller common.Address, rateBps uint64) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return e.cfg.setFeeRateBps(rateBps)
}

// SetBatchOrderLimit updates the per-batch pair cap. Admin only.
func (e *Exchange) SetBatchOrderLimit(caller common.Address, limit int) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return e.cfg.setBatchOrderLimit(limit)
}

// AllowTokens whitelists up to MaxWhitelistBatch token contracts. Admin only.
func (e *Exchange) AllowTokens(caller common.Address, tokens []common.Address) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return e.cfg.allowTokens(tokens)
}

// RevokeTokens removes up to MaxWhitelistBatch token contracts from the
// whitelist. Admin only.
func (e *Exchange) RevokeTokens(caller common.Address, tokens []common.Address) error {
	if caller != e.admin {
		return ErrUnauthorized
	}
	return e.cfg.revokeTokens(tokens)
}
