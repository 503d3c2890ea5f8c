package domain

import (
	"math/big"
	"strings"
)

var (
	Big0  = big.NewInt(0)
	Big1  = big.NewInt(1)
	Big10 = big.NewInt(10)
)

type ChainId int32

type Address string

// EmptyAddress doubles as the payment asset id of the native coin
const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

// NativeAsset is the payment asset id used for bids in the native coin
const NativeAsset = EmptyAddress

// NativeDecimals is the fixed precision of the native coin
const NativeDecimals uint8 = 18

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

// IsNative reports whether a names the native coin
func (a Address) IsNative() bool {
	return a.Equals(NativeAsset)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

func (a Address) String() string {
	return string(a)
}

// Pow10 returns 10^n as a new big.Int
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(Big10, big.NewInt(int64(n)), nil)
}

func ToBigInt(nums []string) ([]*big.Int, error) {
	var bns []*big.Int
	for _, n := range nums {
		bn, ok := new(big.Int).SetString(n, 10)
		if !ok {
			return nil, ErrInvalidNumberFormat
		}
		bns = append(bns, bn)
	}
	return bns, nil
}
