package domain

import (
	"errors"
	"math"
	"testing"
)

func TestFeeCalculateFixed(t *testing.T) {
	fee := Fee{Amount: 2_500_000, Kind: FeeFixed}
	got, err := fee.Calculate(nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got != 2_500_000 {
		t.Fatalf("fixed fee = %d, want 2500000", got)
	}
	// fixed fees ignore the base entirely
	base := uint64(1)
	got, err = fee.Calculate(&base)
	if err != nil || got != 2_500_000 {
		t.Fatalf("fixed fee with base = %d, %v", got, err)
	}
}

func TestFeeCalculatePercentage(t *testing.T) {
	fee := Fee{Amount: 350, Kind: FeePercentage}
	base := uint64(100_000_000)
	got, err := fee.Calculate(&base)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got != 3_500_000 {
		t.Fatalf("percentage fee = %d, want 3500000", got)
	}
}

func TestFeeCalculatePercentageNilBase(t *testing.T) {
	fee := Fee{Amount: 350, Kind: FeePercentage}
	if _, err := fee.Calculate(nil); !errors.Is(err, ErrFeeCalculationOverflow) {
		t.Fatalf("nil base err = %v, want ErrFeeCalculationOverflow", err)
	}
}

func TestFeeCalculatePercentageOverflow(t *testing.T) {
	fee := Fee{Amount: math.MaxUint64, Kind: FeePercentage}
	base := uint64(2)
	if _, err := fee.Calculate(&base); !errors.Is(err, ErrFeeCalculationOverflow) {
		t.Fatalf("overflow err = %v, want ErrFeeCalculationOverflow", err)
	}
}

func TestFeeScheduleGetSet(t *testing.T) {
	var s FeeSchedule
	want := Fee{Amount: 42, Kind: FeeFixed}
	if err := s.Set(OpTradeNFT, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(OpTradeNFT)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("get = %+v, want %+v", got, want)
	}
	if _, err := s.Get(Operation("bogus")); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("unknown op get err = %v", err)
	}
	if err := s.Set(Operation("bogus"), want); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("unknown op set err = %v", err)
	}
}

func TestSellerProceeds(t *testing.T) {
	got, err := SellerProceeds(100_000_000, 2_500_000, 3_500_000)
	if err != nil {
		t.Fatalf("proceeds: %v", err)
	}
	if got != 94_000_000 {
		t.Fatalf("proceeds = %d, want 94000000", got)
	}
}

func TestSellerProceedsFeesExceedPrice(t *testing.T) {
	if _, err := SellerProceeds(100, 80, 30); !errors.Is(err, ErrFeesExceedPrice) {
		t.Fatalf("err = %v, want ErrFeesExceedPrice", err)
	}
	if _, err := SellerProceeds(100, 150, 0); !errors.Is(err, ErrFeesExceedPrice) {
		t.Fatalf("err = %v, want ErrFeesExceedPrice", err)
	}
}

func TestTradeHubFeeAmount(t *testing.T) {
	h := TradeHub{FeeBps: 350}
	got, err := h.FeeAmount(100_000_000)
	if err != nil {
		t.Fatalf("fee amount: %v", err)
	}
	if got != 3_500_000 {
		t.Fatalf("hub fee = %d, want 3500000", got)
	}

	h.FeeBps = math.MaxUint64
	if _, err := h.FeeAmount(2); !errors.Is(err, ErrFeeCalculationOverflow) {
		t.Fatalf("overflow err = %v", err)
	}
}

func TestRentFloor(t *testing.T) {
	if got := RentFloor(ListingRecordSize); got != 1_503_360 {
		t.Fatalf("listing rent = %d, want 1503360", got)
	}
	if got := RentFloor(SystemAccountSize); got != 890_880 {
		t.Fatalf("system account rent = %d, want 890880", got)
	}
}

func TestMinterNextAssetIdentity(t *testing.T) {
	m := MinterConfig{
		MintsCounter: 7,
		AssetsConfig: &AssetsConfig{AssetNamePrefix: "Cube", AssetURIPrefix: "https://assets.example.com"},
	}
	name, uri, err := m.NextAssetIdentity("ignored", "ignored")
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if name != "Cube #7" {
		t.Fatalf("name = %q", name)
	}
	if uri != "https://assets.example.com/Cube/7" {
		t.Fatalf("uri = %q", uri)
	}

	m.AssetsConfig = nil
	if _, _, err := m.NextAssetIdentity("", ""); !errors.Is(err, ErrNameAndURIRequired) {
		t.Fatalf("missing identity err = %v", err)
	}
	name, uri, err = m.NextAssetIdentity("One-off", "https://example.com/one")
	if err != nil || name != "One-off" || uri != "https://example.com/one" {
		t.Fatalf("explicit identity = %q %q %v", name, uri, err)
	}
}

func TestMinterSupplyAvailable(t *testing.T) {
	m := MinterConfig{MaxSupply: 2, MintsCounter: 1}
	if !m.SupplyAvailable() {
		t.Fatal("supply should be available at 1/2")
	}
	m.MintsCounter = 2
	if m.SupplyAvailable() {
		t.Fatal("supply should be exhausted at 2/2")
	}
	m = MinterConfig{MaxSupply: 0, MintsCounter: 1 << 40}
	if !m.SupplyAvailable() {
		t.Fatal("zero max supply means unlimited")
	}
}
