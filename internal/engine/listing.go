package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mindlabs/gomarket/internal/assetreg"
	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/internal/events"
	"github.com/mindlabs/gomarket/internal/metrics"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// ListingAddress derives the escrow record address for (asset, hub).
// At most one live listing can exist per pair.
func ListingAddress(asset, hub addr.Address) addr.Address {
	return addr.Derive("listing", asset.Bytes(), hub.Bytes())
}

func getListingTx(ctx context.Context, tx querier, asset, hub addr.Address) (*domain.Listing, error) {
	row := tx.QueryRowContext(ctx, `
SELECT address, asset, hub, owner, price, created_at FROM listings WHERE asset=? AND hub=?
`, asset.String(), hub.String())
	return scanListing(row)
}

func getListingByAddressTx(ctx context.Context, tx querier, listing addr.Address) (*domain.Listing, error) {
	row := tx.QueryRowContext(ctx, `
SELECT address, asset, hub, owner, price, created_at FROM listings WHERE address=?
`, listing.String())
	return scanListing(row)
}

func scanListing(row *sql.Row) (*domain.Listing, error) {
	var (
		l                                   domain.Listing
		address, asset, hub, owner, created string
		price                               int64
	)
	err := row.Scan(&address, &asset, &hub, &owner, &price, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select listing: %w", err)
	}
	l.Price = uint64(price)
	if l.Address, err = addr.Parse(address); err != nil {
		return nil, err
	}
	if l.Asset, err = addr.Parse(asset); err != nil {
		return nil, err
	}
	if l.Hub, err = addr.Parse(hub); err != nil {
		return nil, err
	}
	if l.Owner, err = addr.Parse(owner); err != nil {
		return nil, err
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &l, nil
}

// CreateListing escrows an asset on a hub: it records the listing,
// delegates transfer authority to the hub, and freezes the asset, all in
// one transaction. The freeze is what makes a second listing attempt on
// the same asset fail.
func (e *Engine) CreateListing(ctx context.Context, signer, asset, hub addr.Address, price uint64) (*domain.Listing, error) {
	listing := &domain.Listing{
		Address: ListingAddress(asset, hub),
		Asset:   asset,
		Hub:     hub,
		Owner:   signer,
		Price:   price,
	}
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		h, err := getTradeHubTx(ctx, tx, hub)
		if err != nil {
			return err
		}
		registry := assetreg.New(tx)
		a, err := registry.Get(ctx, asset)
		if err != nil {
			return err
		}
		if a.Owner != signer {
			return domain.ErrNotAssetOwner
		}

		// Freeze guard: an active freeze delegation means the asset is
		// already escrowed somewhere. This check is what serializes
		// concurrent listing attempts on one asset.
		if a.FreezeAuthority != nil {
			return domain.ErrAssetAlreadyFrozen
		}

		// Transfer authority moves to the hub. A pre-existing delegation
		// is only acceptable if it still resolves to the owner.
		if a.TransferAuthority != nil && a.TransferAuthority.Kind != assetreg.AuthorityOwner {
			return domain.ErrInvalidTransferAuthority
		}
		if err := registry.AddAuthority(ctx, asset, assetreg.CapabilityTransfer,
			assetreg.AddressAuthority(h.Address), signer); err != nil {
			return err
		}

		if err := registry.AddAuthority(ctx, asset, assetreg.CapabilityFreeze,
			assetreg.AddressAuthority(h.Address), signer); err != nil {
			return err
		}
		if err := registry.SetFrozen(ctx, asset, true, h.Address); err != nil {
			return err
		}

		listing.CreatedAt = e.now().UTC()
		if _, err := tx.ExecContext(ctx, `
INSERT INTO listings (address, asset, hub, owner, price, created_at)
VALUES (?,?,?,?,?,?)
`, listing.Address.String(), asset.String(), hub.String(), signer.String(),
			int64(price), listing.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}
		if err := openRecordAccountTx(ctx, tx, signer, listing.Address, domain.ListingRecordSize); err != nil {
			return err
		}

		ev.add(events.TypeListingCreated, map[string]string{
			"listing": listing.Address.String(),
			"asset":   asset.String(),
			"hub":     hub.String(),
			"owner":   signer.String(),
			"price":   strconv.FormatUint(price, 10),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	metrics.ListingsCreated.Add(1)
	log.WithField("listing", listing.Address.String()).Info("listing created")
	return listing, nil
}

// DelistAsset tears the escrow down: unfreeze, release both
// delegations, destroy the listing record, and refund its rent to the
// owner.
func (e *Engine) DelistAsset(ctx context.Context, signer, asset, hub addr.Address) error {
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		l, err := getListingTx(ctx, tx, asset, hub)
		if err != nil {
			return err
		}
		if l.Owner != signer {
			return domain.ErrNotListingOwner
		}

		registry := assetreg.New(tx)
		// the hub holds freeze authority; ownership reverts control for
		// the delegation removals
		if err := registry.SetFrozen(ctx, asset, false, hub); err != nil {
			return err
		}
		if err := registry.RemoveAuthority(ctx, asset, assetreg.CapabilityFreeze, signer); err != nil {
			return err
		}
		if err := registry.RemoveAuthority(ctx, asset, assetreg.CapabilityTransfer, signer); err != nil {
			return err
		}

		if err := destroyListingTx(ctx, tx, l); err != nil {
			return err
		}
		ev.add(events.TypeListingDelisted, map[string]string{
			"listing": l.Address.String(),
			"asset":   asset.String(),
			"hub":     hub.String(),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return err
	}
	metrics.ListingsDelisted.Add(1)
	return nil
}

// PurchaseAsset settles a sale: fee split to protocol and project
// treasuries, remainder to the seller, asset to the buyer, listing
// destroyed with its rent refunded to the seller. One transaction; any
// failure leaves every balance and the escrow untouched.
func (e *Engine) PurchaseAsset(ctx context.Context, buyer, asset, hub addr.Address, maxPrice uint64) (*domain.Listing, error) {
	var sold *domain.Listing
	err := e.withTx(ctx, func(tx *sql.Tx, ev *eventLog) error {
		l, err := getListingTx(ctx, tx, asset, hub)
		if err != nil {
			return err
		}
		if l.Price > maxPrice {
			return domain.ErrPriceExceedsMax
		}
		h, err := getTradeHubTx(ctx, tx, hub)
		if err != nil {
			return err
		}
		p, err := getProjectTx(ctx, tx, h.Project)
		if err != nil {
			return err
		}
		cfg, err := loadProtocolTx(ctx, tx)
		if err != nil {
			return err
		}

		price := l.Price
		protocolFee, err := cfg.Fees.FeeFor(domain.OpTradeNFT, &price)
		if err != nil {
			return err
		}
		hubFee, err := h.FeeAmount(price)
		if err != nil {
			return err
		}
		sellerAmount, err := domain.SellerProceeds(price, protocolFee, hubFee)
		if err != nil {
			return err
		}

		if protocolFee > 0 {
			if err := transferTx(ctx, tx, buyer, cfg.Address, protocolFee); err != nil {
				return err
			}
		}
		if hubFee > 0 {
			if err := transferTx(ctx, tx, buyer, p.Treasury, hubFee); err != nil {
				return err
			}
		}
		if err := transferTx(ctx, tx, buyer, l.Owner, sellerAmount); err != nil {
			return err
		}

		registry := assetreg.New(tx)
		if err := registry.SetFrozen(ctx, asset, false, hub); err != nil {
			return err
		}
		// the hub releases its own freeze grant so the buyer can relist
		if err := registry.RemoveAuthority(ctx, asset, assetreg.CapabilityFreeze, hub); err != nil {
			return err
		}
		// transfer clears the transfer delegation as a side effect
		if err := registry.Transfer(ctx, asset, buyer, hub); err != nil {
			return err
		}

		if err := destroyListingTx(ctx, tx, l); err != nil {
			return err
		}

		sold = l
		ev.add(events.TypeAssetPurchased, map[string]string{
			"listing":       l.Address.String(),
			"asset":         asset.String(),
			"hub":           hub.String(),
			"seller":        l.Owner.String(),
			"buyer":         buyer.String(),
			"price":         strconv.FormatUint(price, 10),
			"protocol_fee":  strconv.FormatUint(protocolFee, 10),
			"hub_fee":       strconv.FormatUint(hubFee, 10),
			"seller_amount": strconv.FormatUint(sellerAmount, 10),
		})
		return nil
	})
	if err != nil {
		metrics.OpFailures.Add(1)
		return nil, err
	}
	metrics.AssetsPurchased.Add(1)
	log.WithField("asset", asset.String()).Info("asset purchased")
	return sold, nil
}

// destroyListingTx removes the listing row and closes its record
// account, refunding the rent to the listing owner.
func destroyListingTx(ctx context.Context, tx querier, l *domain.Listing) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM listings WHERE address=?`, l.Address.String()); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	_, err := closeRecordAccountTx(ctx, tx, l.Address, l.Owner)
	return err
}

func (e *Engine) GetListing(ctx context.Context, listing addr.Address) (*domain.Listing, error) {
	return getListingByAddressTx(ctx, e.db, listing)
}

// FindListing looks a live listing up by its (asset, hub) identity.
func (e *Engine) FindListing(ctx context.Context, asset, hub addr.Address) (*domain.Listing, error) {
	return getListingTx(ctx, e.db, asset, hub)
}
