package auction

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// USDDecimals is the precision of the common unit
const USDDecimals uint8 = 8

// FormatUSD renders a common unit value as dollars with cents
func FormatUSD(value *big.Int) string {
	if value == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(value, -int32(USDDecimals)).StringFixed(2)
}

// FormatAmount renders an integer token amount with its decimals
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// FormatRate renders basis points as a percentage
func FormatRate(rate uint32) string {
	return decimal.New(int64(rate), -2).String() + "%"
}

// ParseUSD converts a dollar string such as "1000" or "12.5" to the common unit
func ParseUSD(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d.Shift(int32(USDDecimals)).BigInt(), nil
}
