package auction

import (
	"math/big"
	"sort"

	"github.com/x-xyz/auction/base/ptr"
	"github.com/x-xyz/auction/domain"
)

const (
	// MaxFeeRate caps every rate at 10%
	MaxFeeRate uint32 = 1000
	// FeeDenominator is one whole in basis points
	FeeDenominator uint32 = 10000
	// DefaultPlatformFee is seeded by the version 2 migration when no fee was set
	DefaultPlatformFee uint32 = 250
)

var bigFeeDenominator = big.NewInt(int64(FeeDenominator))

type FeeTier struct {
	Threshold *big.Int
	FeeRate   uint32
}

// FeeSchedule maps a common unit value to a rate. Values below the first
// threshold pay BaseRate, otherwise the rate of the greatest threshold not above the value.
type FeeSchedule struct {
	BaseRate uint32
	Tiers    []FeeTier
}

// NewFeeSchedule builds a schedule from thresholds and len(thresholds)+1 rates,
// rates[0] being the base rate.
func NewFeeSchedule(thresholds []*big.Int, rates []uint32) (FeeSchedule, error) {
	if len(thresholds) == 0 || len(rates) != len(thresholds)+1 {
		return FeeSchedule{}, domain.ErrInvalidFeeSchedule
	}
	for _, r := range rates {
		if r > MaxFeeRate {
			return FeeSchedule{}, domain.ErrInvalidFeeSchedule
		}
	}
	tiers := make([]FeeTier, len(thresholds))
	for i, t := range thresholds {
		if t == nil || t.Sign() <= 0 {
			return FeeSchedule{}, domain.ErrInvalidFeeSchedule
		}
		if i > 0 && t.Cmp(thresholds[i-1]) <= 0 {
			return FeeSchedule{}, domain.ErrInvalidFeeSchedule
		}
		tiers[i] = FeeTier{Threshold: new(big.Int).Set(t), FeeRate: rates[i+1]}
	}
	return FeeSchedule{BaseRate: rates[0], Tiers: tiers}, nil
}

func (s FeeSchedule) IsEmpty() bool {
	return len(s.Tiers) == 0
}

// Rate looks the value up in the schedule
func (s FeeSchedule) Rate(value *big.Int) uint32 {
	// index of the first tier above value
	i := sort.Search(len(s.Tiers), func(i int) bool {
		return s.Tiers[i].Threshold.Cmp(value) > 0
	})
	if i == 0 {
		return s.BaseRate
	}
	return s.Tiers[i-1].FeeRate
}

// Thresholds and Rates return the schedule in the shape NewFeeSchedule takes
func (s FeeSchedule) Thresholds() []*big.Int {
	res := make([]*big.Int, len(s.Tiers))
	for i, t := range s.Tiers {
		res[i] = new(big.Int).Set(t.Threshold)
	}
	return res
}

func (s FeeSchedule) Rates() []uint32 {
	if s.IsEmpty() {
		return nil
	}
	res := make([]uint32, 0, len(s.Tiers)+1)
	res = append(res, s.BaseRate)
	for _, t := range s.Tiers {
		res = append(res, t.FeeRate)
	}
	return res
}

func (s FeeSchedule) Clone() FeeSchedule {
	cp := FeeSchedule{BaseRate: s.BaseRate}
	if s.Tiers != nil {
		cp.Tiers = make([]FeeTier, len(s.Tiers))
		for i, t := range s.Tiers {
			cp.Tiers[i] = FeeTier{Threshold: ptr.BigCopy(t.Threshold), FeeRate: t.FeeRate}
		}
	}
	return cp
}

// Fee is the split of a final bid
type Fee struct {
	Rate         uint32
	FeeValue     *big.Int
	FeeAmount    *big.Int
	SellerAmount *big.Int
}

// ComputeFee splits finalBid at rate. The native amount uses the same rate as
// the common unit value so the bid-time ratio between them holds.
func ComputeFee(rate uint32, finalBid, finalValue *big.Int) Fee {
	r := big.NewInt(int64(rate))
	feeValue := new(big.Int).Mul(finalValue, r)
	feeValue.Quo(feeValue, bigFeeDenominator)
	feeAmount := new(big.Int).Mul(finalBid, r)
	feeAmount.Quo(feeAmount, bigFeeDenominator)
	return Fee{
		Rate:         rate,
		FeeValue:     feeValue,
		FeeAmount:    feeAmount,
		SellerAmount: new(big.Int).Sub(finalBid, feeAmount),
	}
}
