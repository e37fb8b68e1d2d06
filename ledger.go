package nftmarket

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tidwall/btree"
)

// ReplayLedger is the set of authorization digests already consumed. A
// digest that enters the set never leaves through normal flow; unmark
// exists only so an aborted settlement can restore its own marks.
type ReplayLedger struct {
	consumed map[common.Hash]struct{}
}

// NewReplayLedger returns an empty replay ledger.
func NewReplayLedger() *ReplayLedger {
	return &ReplayLedger{consumed: make(map[common.Hash]struct{})}
}

// Consumed reports whether the digest has already been spent.
func (l *ReplayLedger) Consumed(digest common.Hash) bool {
	_, ok := l.consumed[digest]
	return ok
}

// MarkConsumed records the digest as spent. Marking an already-consumed
// digest is a no-op; normal flow always checks first.
func (l *ReplayLedger) MarkConsumed(digest common.Hash) {
	l.consumed[digest] = struct{}{}
}

func (l *ReplayLedger) unmark(digest common.Hash) {
	delete(l.consumed, digest)
}

// PartialFillLedger tracks the remaining fillable quantity of standing
// semi-fungible sell orders, keyed by sequence id. Presence is explicit: an
// order with no record here has never been partially filled.
type PartialFillLedger struct {
	fills btree.Map[uint64, *FillState]
}

// NewPartialFillLedger returns an empty partial-fill ledger.
func NewPartialFillLedger() *PartialFillLedger {
	return &PartialFillLedger{}
}

// Get returns the fill state for a sequence id, if any.
func (l *PartialFillLedger) Get(sequenceID uint64) (*FillState, bool) {
	return l.fills.Get(sequenceID)
}

// Create stores a snapshot of the order with its full offered quantity
// remaining. The caller establishes that the first fill is partial before
// creating; Create itself only refuses to overwrite.
func (l *PartialFillLedger) Create(o Order) bool {
	if _, ok := l.fills.Get(o.SequenceID); ok {
		return false
	}
	l.fills.Set(o.SequenceID, &FillState{
		Order:     o,
		Remaining: new(big.Int).Set(o.Offered.Quantity),
	})
	return true
}

// CreateExhausted stores a zero-remaining record: a pre-emptive cancellation
// of an order that was never filled.
func (l *PartialFillLedger) CreateExhausted(o Order) bool {
	if _, ok := l.fills.Get(o.SequenceID); ok {
		return false
	}
	l.fills.Set(o.SequenceID, &FillState{Order: o, Remaining: new(big.Int)})
	return true
}

// Decrement reduces the remaining quantity by the filled amount. Remaining
// is monotonically non-increasing; once zero the order is exhausted.
func (l *PartialFillLedger) Decrement(sequenceID uint64, quantity *big.Int) error {
	fs, ok := l.fills.Get(sequenceID)
	if !ok || fs.Remaining.Cmp(quantity) < 0 {
		return ErrInsufficientQuantity
	}
	fs.Remaining.Sub(fs.Remaining, quantity)
	return nil
}

// Exhaust zeroes the remaining quantity (cancellation of a standing order).
func (l *PartialFillLedger) Exhaust(sequenceID uint64) error {
	fs, ok := l.fills.Get(sequenceID)
	if !ok || fs.Remaining.Sign() == 0 {
		return ErrAlreadyCancelled
	}
	fs.Remaining.SetUint64(0)
	return nil
}

func (l *PartialFillLedger) remove(sequenceID uint64) {
	l.fills.Delete(sequenceID)
}

func (l *PartialFillLedger) credit(sequenceID uint64, quantity *big.Int) {
	if fs, ok := l.fills.Get(sequenceID); ok {
		fs.Remaining.Add(fs.Remaining, quantity)
	}
}
