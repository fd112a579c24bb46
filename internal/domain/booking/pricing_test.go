package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodi-rentals/service-rental/pkg/domain"
)

func TestCalculateCost(t *testing.T) {
	cost, err := CalculateCost(100, date("2024-03-01"), date("2024-03-04"))
	require.NoError(t, err)
	assert.Equal(t, int64(300), cost)

	cost, err = CalculateCost(45000, date("2024-02-28"), date("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, int64(90000), cost, "leap day counts as a night")

	_, err = CalculateCost(100, date("2024-03-04"), date("2024-03-04"))
	assert.True(t, domain.IsValidation(err))
}

func TestNightlyPricingStrategy(t *testing.T) {
	s := NewNightlyPricingStrategy()

	cost, err := s.Calculate(PricingParams{NightlyRate: 0, Stay: mustRange(t, "2024-03-01", "2024-03-08")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), cost)

	_, err = s.Calculate(PricingParams{NightlyRate: -1, Stay: mustRange(t, "2024-03-01", "2024-03-08")})
	assert.Error(t, err)

	_, err = s.Calculate(PricingParams{NightlyRate: 10})
	assert.Error(t, err)
}
