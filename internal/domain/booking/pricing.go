package booking

import (
	"time"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in whole currency units for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	NightlyRate int64
	Stay        DateRange
}

// NightlyPricingStrategy charges the nightly rate for every night of the stay.
type NightlyPricingStrategy struct{}

// NewNightlyPricingStrategy creates a new NightlyPricingStrategy.
func NewNightlyPricingStrategy() *NightlyPricingStrategy {
	return &NightlyPricingStrategy{}
}

// Calculate computes nights × nightlyRate.
func (s *NightlyPricingStrategy) Calculate(params PricingParams) (int64, error) {
	if params.NightlyRate < 0 {
		return 0, domain.NewValidationError("nightly rate cannot be negative")
	}
	if params.Stay.IsZero() {
		return 0, domain.NewValidationError("stay dates are required")
	}
	return int64(params.Stay.Nights()) * params.NightlyRate, nil
}

// CalculateCost prices a stay from raw dates, rejecting ranges where checkOut is not after checkIn.
func CalculateCost(nightlyRate int64, checkIn, checkOut time.Time) (int64, error) {
	stay, err := NewDateRange(checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	return NewNightlyPricingStrategy().Calculate(PricingParams{NightlyRate: nightlyRate, Stay: stay})
}
