package domain

import (
	"time"

	"github.com/mindlabs/gomarket/pkg/addr"
)

const MaxTradeHubNameLen = 32

// TradeHub is a named marketplace scoped to one project. Identity is
// (project, name); fee_bps is immutable after creation.
type TradeHub struct {
	Address   addr.Address `json:"address"`
	Project   addr.Address `json:"project"`
	Name      string       `json:"name"`
	FeeBps    uint64       `json:"fee_bps"`
	CreatedAt time.Time    `json:"created_at"`
}

// FeeAmount computes the hub's cut of a sale price in basis points,
// with overflow-checked arithmetic.
func (h *TradeHub) FeeAmount(price uint64) (uint64, error) {
	product, ok := checkedMul(price, h.FeeBps)
	if !ok {
		return 0, ErrFeeCalculationOverflow
	}
	return product / BpsDenominator, nil
}
