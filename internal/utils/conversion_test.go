package utils

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestRawAmountToFloat64(t *testing.T) {
	got, err := RawAmountToFloat64(sdkmath.NewInt(1500000), 6)
	require.NoError(t, err)
	require.InDelta(t, 1.5, got, 1e-12)

	got, err = RawAmountToFloat64(sdkmath.NewInt(1), 9)
	require.NoError(t, err)
	require.InDelta(t, 1e-9, got, 1e-18)

	got, err = RawAmountToFloat64(sdkmath.ZeroInt(), 6)
	require.NoError(t, err)
	require.Zero(t, got)

	// Zero decimals passes the amount through.
	got, err = RawAmountToFloat64(sdkmath.NewInt(42), 0)
	require.NoError(t, err)
	require.InDelta(t, 42.0, got, 1e-12)
}

func TestRawAmountToFloat64_Errors(t *testing.T) {
	_, err := RawAmountToFloat64(sdkmath.NewInt(1), -1)
	require.ErrorIs(t, err, ErrInvalidDecimals)

	_, err = RawAmountToFloat64(sdkmath.NewInt(1), 19)
	require.ErrorIs(t, err, ErrInvalidDecimals)

	_, err = RawAmountToFloat64(sdkmath.Int{}, 6)
	require.ErrorIs(t, err, ErrAmountNil)

	_, err = RawAmountToFloat64(sdkmath.NewInt(-1), 6)
	require.ErrorIs(t, err, ErrAmountNegative)
}

func TestFloat64ToRawAmount(t *testing.T) {
	got, err := Float64ToRawAmount(1.5, 6)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1500000), got)

	got, err = Float64ToRawAmount(0, 6)
	require.NoError(t, err)
	require.True(t, got.IsZero())

	// Fractions below the token's precision truncate away.
	got, err = Float64ToRawAmount(0.0000004, 6)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestFloat64ToRawAmount_Errors(t *testing.T) {
	_, err := Float64ToRawAmount(1.5, 19)
	require.ErrorIs(t, err, ErrInvalidDecimals)

	_, err = Float64ToRawAmount(-1.5, 6)
	require.ErrorIs(t, err, ErrAmountNegative)

	_, err = Float64ToRawAmount(math.NaN(), 6)
	require.ErrorIs(t, err, ErrNotFinite)

	_, err = Float64ToRawAmount(math.Inf(1), 6)
	require.ErrorIs(t, err, ErrNotFinite)
}

func TestConversionRoundTrip(t *testing.T) {
	for _, amount := range []float64{0.000001, 1.5, 123.456789, 1000000} {
		raw, err := Float64ToRawAmount(amount, 6)
		require.NoError(t, err)

		back, err := RawAmountToFloat64(raw, 6)
		require.NoError(t, err)
		require.InDelta(t, amount, back, 1e-6)
	}
}
