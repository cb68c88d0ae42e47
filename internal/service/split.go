package service

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// USDCDecimals converts user-facing USDC amounts into integer base units.
	USDCDecimals = 6

	// TreasuryFeePercent is the platform cut, floored.
	TreasuryFeePercent = 5
)

// ErrBelowMinimum rejects amounts under 1 USDC before anything touches the
// chain.
var ErrBelowMinimum = errors.New("amount is below the 1 USDC minimum")

// PaymentSplit is the fee split in base units, immutable once computed.
// Artist is always Total-Treasury so the three amounts add up exactly; a
// separately rounded percentage would leak base units.
type PaymentSplit struct {
	Total    *big.Int
	Treasury *big.Int
	Artist   *big.Int
}

// ComputeSplit converts the USDC amount to 6-decimal base units and splits it
// 5% treasury / remainder artist.
func ComputeSplit(amountUSDC decimal.Decimal) (*PaymentSplit, error) {
	if amountUSDC.Cmp(decimal.NewFromInt(1)) < 0 {
		return nil, ErrBelowMinimum
	}

	total := amountUSDC.Shift(USDCDecimals).Truncate(0).BigInt()
	treasury := new(big.Int).Div(new(big.Int).Mul(total, big.NewInt(TreasuryFeePercent)), big.NewInt(100))
	artist := new(big.Int).Sub(total, treasury)

	return &PaymentSplit{
		Total:    total,
		Treasury: treasury,
		Artist:   artist,
	}, nil
}

// BaseUnitsToUSDC converts base units back to a user-facing USDC amount.
func BaseUnitsToUSDC(baseUnits *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(baseUnits, -USDCDecimals)
}
