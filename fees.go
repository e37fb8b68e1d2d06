package nftmarket

import "math/big"

// FeeRateDenominator converts basis points to a fraction: 10000 bps = 100%.
const FeeRateDenominator = 10000

// FeeBreakdown splits a gross price into the platform fee and the net
// proceeds for a basis-point rate. The fee floors; any residual from the
// integer division stays in net, never lost. fee + net == gross for every
// non-negative gross and rate below the denominator.
func FeeBreakdown(gross *big.Int, rateBps uint64) (fee, net *big.Int) {
	fee = new(big.Int).Mul(gross, new(big.Int).SetUint64(rateBps))
	fee.Div(fee, big.NewInt(FeeRateDenominator))
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}
