package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/mindlabs/gomarket/internal/assetreg"
	"github.com/mindlabs/gomarket/internal/domain"
	"github.com/mindlabs/gomarket/pkg/addr"
)

// market is a funded protocol, project, hub and one asset owned by the
// seller, ready to be listed.
type market struct {
	eng      *Engine
	admin    addr.Address
	owner    addr.Address
	seller   addr.Address
	buyer    addr.Address
	project  *domain.Project
	hub      *domain.TradeHub
	asset    addr.Address
	protocol addr.Address
}

func newMarket(t *testing.T) *market {
	t.Helper()
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	m := &market{
		eng:    eng,
		admin:  addr.New(),
		owner:  addr.New(),
		seller: addr.New(),
		buyer:  addr.New(),
	}
	cfg := initProtocol(t, eng, m.admin, addr.New())
	m.protocol = cfg.Address

	fund(t, eng, m.owner, testFunding)
	fund(t, eng, m.seller, 10_000_000)
	fund(t, eng, m.buyer, 200_000_000)

	p, err := eng.CreateProject(ctx, m.owner, 1, "proj", "", nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	m.project = p

	h, err := eng.CreateTradeHub(ctx, m.owner, p.Address, "main", 350)
	if err != nil {
		t.Fatalf("create hub: %v", err)
	}
	m.hub = h

	mc, err := eng.CreateMinterConfig(ctx, m.owner, p.Address, "cubes", 0, 0, nil)
	if err != nil {
		t.Fatalf("create minter: %v", err)
	}
	a, err := eng.MintAsset(ctx, m.owner, p.Address, mc.Address, m.seller, "Cube", "https://example.com/cube")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	m.asset = a.Address
	return m
}

func (m *market) getAsset(t *testing.T) *assetreg.Asset {
	t.Helper()
	a, err := m.eng.GetAsset(context.Background(), m.asset)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	return a
}

func TestCreateListingEscrowsAsset(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	l, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 100_000_000)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	if l.Address != ListingAddress(m.asset, m.hub.Address) {
		t.Fatalf("listing address mismatch")
	}

	a := m.getAsset(t)
	if !a.Frozen {
		t.Fatal("asset should be frozen while listed")
	}
	if a.TransferAuthority == nil || a.TransferAuthority.Address != m.hub.Address {
		t.Fatalf("transfer authority = %+v, want hub", a.TransferAuthority)
	}
	if a.FreezeAuthority == nil || a.FreezeAuthority.Address != m.hub.Address {
		t.Fatalf("freeze authority = %+v, want hub", a.FreezeAuthority)
	}

	// rent for the escrow record comes out of the seller
	rent := domain.RentFloor(domain.ListingRecordSize)
	if got := balance(t, m.eng, m.seller); got != 10_000_000-rent {
		t.Fatalf("seller balance = %d, want %d", got, 10_000_000-rent)
	}
	if got := balance(t, m.eng, l.Address); got != rent {
		t.Fatalf("listing account = %d, want %d", got, rent)
	}
}

func TestCreateListingNotOwner(t *testing.T) {
	m := newMarket(t)
	_, err := m.eng.CreateListing(context.Background(), m.buyer, m.asset, m.hub.Address, 1)
	if !errors.Is(err, domain.ErrNotAssetOwner) {
		t.Fatalf("err = %v, want ErrNotAssetOwner", err)
	}
	if a := m.getAsset(t); a.Frozen || a.TransferAuthority != nil {
		t.Fatalf("failed listing mutated the asset: %+v", a)
	}
}

func TestDoubleListingBlocked(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	if _, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 100); err != nil {
		t.Fatalf("first listing: %v", err)
	}

	other, err := m.eng.CreateTradeHub(ctx, m.owner, m.project.Address, "other", 100)
	if err != nil {
		t.Fatalf("second hub: %v", err)
	}
	_, err = m.eng.CreateListing(ctx, m.seller, m.asset, other.Address, 200)
	if !errors.Is(err, domain.ErrAssetAlreadyFrozen) {
		t.Fatalf("second listing err = %v, want ErrAssetAlreadyFrozen", err)
	}
	// and on the same hub too
	_, err = m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 200)
	if !errors.Is(err, domain.ErrAssetAlreadyFrozen) {
		t.Fatalf("relist on same hub err = %v", err)
	}
}

func TestDelistRestoresAsset(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	sellerBefore := balance(t, m.eng, m.seller)

	l, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 100)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	if err := m.eng.DelistAsset(ctx, m.buyer, m.asset, m.hub.Address); !errors.Is(err, domain.ErrNotListingOwner) {
		t.Fatalf("stranger delist err = %v", err)
	}

	if err := m.eng.DelistAsset(ctx, m.seller, m.asset, m.hub.Address); err != nil {
		t.Fatalf("delist: %v", err)
	}

	a := m.getAsset(t)
	if a.Frozen || a.TransferAuthority != nil || a.FreezeAuthority != nil {
		t.Fatalf("asset not fully restored: %+v", a)
	}
	// the rent round-trips back to the seller
	if got := balance(t, m.eng, m.seller); got != sellerBefore {
		t.Fatalf("seller balance = %d, want %d", got, sellerBefore)
	}
	if _, err := m.eng.GetListing(ctx, l.Address); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("listing still readable after delist: %v", err)
	}

	// delist leaves the asset listable again
	if _, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 200); err != nil {
		t.Fatalf("relist after delist: %v", err)
	}
}

func TestPurchaseSettlesExactly(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	const price = uint64(100_000_000)
	l, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, price)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	sellerBefore := balance(t, m.eng, m.seller)
	protocolBefore := balance(t, m.eng, m.protocol)
	treasuryBefore := balance(t, m.eng, m.project.Treasury)

	sold, err := m.eng.PurchaseAsset(ctx, m.buyer, m.asset, m.hub.Address, price)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if sold.Address != l.Address || sold.Owner != m.seller {
		t.Fatalf("sold listing = %+v", sold)
	}

	const protocolFee = uint64(2_500_000) // fixed trade fee
	const hubFee = uint64(3_500_000)      // 350 bps of the price
	sellerAmount := price - protocolFee - hubFee
	rent := domain.RentFloor(domain.ListingRecordSize)

	if got := balance(t, m.eng, m.buyer); got != 200_000_000-price {
		t.Fatalf("buyer balance = %d, want %d", got, 200_000_000-price)
	}
	if got := balance(t, m.eng, m.protocol); got != protocolBefore+protocolFee {
		t.Fatalf("protocol treasury = %d, want +%d", got, protocolFee)
	}
	if got := balance(t, m.eng, m.project.Treasury); got != treasuryBefore+hubFee {
		t.Fatalf("project treasury = %d, want +%d", got, hubFee)
	}
	// seller gets the remainder plus the escrow record's rent back
	if got := balance(t, m.eng, m.seller); got != sellerBefore+sellerAmount+rent {
		t.Fatalf("seller balance = %d, want %d", got, sellerBefore+sellerAmount+rent)
	}

	a := m.getAsset(t)
	if a.Owner != m.buyer {
		t.Fatalf("asset owner = %s, want buyer", a.Owner)
	}
	if a.Frozen || a.TransferAuthority != nil || a.FreezeAuthority != nil {
		t.Fatalf("asset carries stale escrow state: %+v", a)
	}
	if _, err := m.eng.FindListing(ctx, m.asset, m.hub.Address); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("listing survived the purchase: %v", err)
	}

	// the buyer can turn around and relist
	if _, err := m.eng.CreateListing(ctx, m.buyer, m.asset, m.hub.Address, price); err != nil {
		t.Fatalf("relist after purchase: %v", err)
	}
}

func TestPurchaseMaxPriceGuard(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	if _, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 100); err != nil {
		t.Fatalf("create listing: %v", err)
	}
	_, err := m.eng.PurchaseAsset(ctx, m.buyer, m.asset, m.hub.Address, 99)
	if !errors.Is(err, domain.ErrPriceExceedsMax) {
		t.Fatalf("err = %v, want ErrPriceExceedsMax", err)
	}
}

func TestPurchaseInsufficientFundsIsAtomic(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	const price = uint64(100_000_000)
	l, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, price)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	broke := addr.New()
	fund(t, m.eng, broke, 1_000)
	sellerBefore := balance(t, m.eng, m.seller)
	protocolBefore := balance(t, m.eng, m.protocol)

	_, err = m.eng.PurchaseAsset(ctx, broke, m.asset, m.hub.Address, price)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// nothing moved and the escrow is intact
	if got := balance(t, m.eng, broke); got != 1_000 {
		t.Fatalf("buyer balance = %d", got)
	}
	if got := balance(t, m.eng, m.seller); got != sellerBefore {
		t.Fatalf("seller balance = %d", got)
	}
	if got := balance(t, m.eng, m.protocol); got != protocolBefore {
		t.Fatalf("protocol treasury = %d", got)
	}
	if got, err := m.eng.GetListing(ctx, l.Address); err != nil || got.Price != price {
		t.Fatalf("listing after failed purchase: %+v, %v", got, err)
	}
	if a := m.getAsset(t); !a.Frozen || a.Owner != m.seller {
		t.Fatalf("asset after failed purchase: %+v", a)
	}
}

func TestPurchasePercentageProtocolFee(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	// switch the trade fee to 100 bps
	fee := domain.Fee{Amount: 100, Kind: domain.FeePercentage}
	if err := m.eng.UpdateFee(ctx, m.admin, domain.OpTradeNFT, fee); err != nil {
		t.Fatalf("update fee: %v", err)
	}

	const price = uint64(50_000_000)
	if _, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, price); err != nil {
		t.Fatalf("create listing: %v", err)
	}

	protocolBefore := balance(t, m.eng, m.protocol)
	if _, err := m.eng.PurchaseAsset(ctx, m.buyer, m.asset, m.hub.Address, price); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// 100 bps of 50_000_000
	if got := balance(t, m.eng, m.protocol); got != protocolBefore+500_000 {
		t.Fatalf("protocol treasury = %d, want +500000", got)
	}
}

func TestPurchaseFeesExceedPrice(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	// a 1-unit price cannot cover the fixed trade fee
	if _, err := m.eng.CreateListing(ctx, m.seller, m.asset, m.hub.Address, 1); err != nil {
		t.Fatalf("create listing: %v", err)
	}
	_, err := m.eng.PurchaseAsset(ctx, m.buyer, m.asset, m.hub.Address, 1)
	if !errors.Is(err, domain.ErrFeesExceedPrice) {
		t.Fatalf("err = %v, want ErrFeesExceedPrice", err)
	}
	// the failed settlement leaves the escrow in place
	if a := m.getAsset(t); !a.Frozen {
		t.Fatalf("asset unfrozen after failed purchase")
	}
}

func TestListingUnknownHub(t *testing.T) {
	m := newMarket(t)
	_, err := m.eng.CreateListing(context.Background(), m.seller, m.asset, addr.New(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
