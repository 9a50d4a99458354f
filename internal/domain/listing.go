package domain

import (
	"time"

	"github.com/mindlabs/gomarket/pkg/addr"
)

// Listing is the escrow record for one (asset, hub) pair. Its existence
// is the proof that the asset is frozen with transfer authority delegated
// to the hub; it is destroyed when the listing resolves, returning the
// record's rent to the owner.
type Listing struct {
	Address   addr.Address `json:"address"`
	Asset     addr.Address `json:"asset"`
	Hub       addr.Address `json:"hub"`
	Owner     addr.Address `json:"owner"`
	Price     uint64       `json:"price"`
	CreatedAt time.Time    `json:"created_at"`
}

// SellerProceeds splits a sale price into the seller amount after the
// protocol and hub fees. Fees summing past the price is a hard error,
// not an underflow.
func SellerProceeds(price, protocolFee, hubFee uint64) (uint64, error) {
	rest, ok := checkedSub(price, protocolFee)
	if !ok {
		return 0, ErrFeesExceedPrice
	}
	rest, ok = checkedSub(rest, hubFee)
	if !ok {
		return 0, ErrFeesExceedPrice
	}
	return rest, nil
}
