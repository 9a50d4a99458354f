package domain

// BpsDenominator is the basis-point scale: 100 bps = 1%.
const BpsDenominator = 10_000

type FeeKind string

const (
	FeeFixed      FeeKind = "fixed"
	FeePercentage FeeKind = "percentage"
)

// Operation names every fee-bearing call in the protocol.
type Operation string

const (
	OpCreateProject      Operation = "create_project"
	OpCreateMinterConfig Operation = "create_minter_config"
	OpCreateTradeHub     Operation = "create_trade_hub"
	OpMintAsset          Operation = "mint_asset"
	OpTradeNFT           Operation = "trade_nft"
	OpGeneric            Operation = "generic"
)

// Fee is either an absolute amount or basis points over the base amount.
type Fee struct {
	Amount uint64  `json:"amount" yaml:"amount"`
	Kind   FeeKind `json:"kind" yaml:"kind"`
}

// Calculate resolves the fee value for a base amount. Percentage fees
// require a base; a missing base or an overflowing multiply is an error,
// never a silent zero.
func (f Fee) Calculate(base *uint64) (uint64, error) {
	switch f.Kind {
	case FeeFixed:
		return f.Amount, nil
	case FeePercentage:
		if base == nil {
			return 0, ErrFeeCalculationOverflow
		}
		product, ok := checkedMul(*base, f.Amount)
		if !ok {
			return 0, ErrFeeCalculationOverflow
		}
		return product / BpsDenominator, nil
	default:
		return 0, ErrFeeCalculationOverflow
	}
}

// FeeSchedule holds one fee entry per operation kind.
type FeeSchedule struct {
	CreateProject      Fee `json:"create_project" yaml:"create_project"`
	CreateMinterConfig Fee `json:"create_minter_config" yaml:"create_minter_config"`
	CreateTradeHub     Fee `json:"create_trade_hub" yaml:"create_trade_hub"`
	MintAsset          Fee `json:"mint_asset" yaml:"mint_asset"`
	TradeNFT           Fee `json:"trade_nft" yaml:"trade_nft"`
	Generic            Fee `json:"generic" yaml:"generic"`
}

func (s FeeSchedule) Get(op Operation) (Fee, error) {
	switch op {
	case OpCreateProject:
		return s.CreateProject, nil
	case OpCreateMinterConfig:
		return s.CreateMinterConfig, nil
	case OpCreateTradeHub:
		return s.CreateTradeHub, nil
	case OpMintAsset:
		return s.MintAsset, nil
	case OpTradeNFT:
		return s.TradeNFT, nil
	case OpGeneric:
		return s.Generic, nil
	default:
		return Fee{}, ErrUnknownOperation
	}
}

func (s *FeeSchedule) Set(op Operation, fee Fee) error {
	switch op {
	case OpCreateProject:
		s.CreateProject = fee
	case OpCreateMinterConfig:
		s.CreateMinterConfig = fee
	case OpCreateTradeHub:
		s.CreateTradeHub = fee
	case OpMintAsset:
		s.MintAsset = fee
	case OpTradeNFT:
		s.TradeNFT = fee
	case OpGeneric:
		s.Generic = fee
	default:
		return ErrUnknownOperation
	}
	return nil
}

// FeeFor computes the fee owed for an operation against an optional base
// amount. Invoked by every fee-bearing operation before balances move.
func (s FeeSchedule) FeeFor(op Operation, base *uint64) (uint64, error) {
	fee, err := s.Get(op)
	if err != nil {
		return 0, err
	}
	return fee.Calculate(base)
}

func checkedMul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	product := a * b
	if product/a != b {
		return 0, false
	}
	return product, true
}

func checkedSub(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}
