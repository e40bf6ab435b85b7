package domain

import "math"

// Rupees is a whole-rupee amount. Order money never uses floating point.
type Rupees int64

// MinorUnitsPerRupee is the paise-per-rupee factor the payment gateway expects.
const MinorUnitsPerRupee = 100

// MaxRupees is the largest amount whose minor units still fit in an int64.
const MaxRupees Rupees = math.MaxInt64 / MinorUnitsPerRupee

// MinorUnits converts to paise at the gateway boundary.
func (r Rupees) MinorUnits() int64 {
	return int64(r) * MinorUnitsPerRupee
}

const CurrencyINR = "INR"
