/*

This file contains the fixed-point conversion between tick indices, Q64.64
square-root prices and float prices. The bit-ladder keeps rounding
consistent and reproducible across platforms; the only floating-point step
is the approximate inverse, which is corrected to exact floor semantics
against the forward conversion.

*/

package tickmath

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

var (
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrInvalidSpacing   = errors.New("tick spacing must be positive")
	ErrTickOutOfBounds  = errors.New("tick out of bounds")
	ErrInvalidSqrtPrice = errors.New("sqrt price out of bounds")
)

// tickBase is the price ratio between adjacent ticks.
const tickBase = 1.0001

// MinTick and MaxTick bound the ticks representable in the Q64.64
// encoding: sqrt(1.0001^MaxTick)*2^64 still fits a 128-bit word.
const (
	MinTick = -443636
	MaxTick = 443636
)

var (
	oneX64   = new(big.Int).Lsh(big.NewInt(1), 64)  // 2^64
	oneX128  = new(big.Int).Lsh(big.NewInt(1), 128) // 2^128
	maxU256  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// MinSqrtPriceX64 and MaxSqrtPriceX64 are the sqrt prices at the tick
	// bounds, the valid input domain of SqrtPriceX64ToTick.
	MinSqrtPriceX64 = mustTickToSqrtPriceX64(MinTick)
	MaxSqrtPriceX64 = mustTickToSqrtPriceX64(MaxTick)
)

// sqrtRatioMultipliers[i] = sqrt(1.0001^-(2^i)) * 2^128, for i = 0..18.
// 443636 < 2^19, so nineteen constants cover the whole tick range.
var sqrtRatioMultipliers = [19]*big.Int{
	hexBig("fffcb933bd6fad37aa2d162d1a594001"),
	hexBig("fff97272373d413259a46990580e213a"),
	hexBig("fff2e50f5f656932ef12357cf3c7fdcc"),
	hexBig("ffe5caca7e10e4e61c3624eaa0941cd0"),
	hexBig("ffcb9843d60f6159c9db58835c926644"),
	hexBig("ff973b41fa98c081472e6896dfb254c0"),
	hexBig("ff2ea16466c96a3843ec78b326b52861"),
	hexBig("fe5dee046a99a2a811c461f1969c3053"),
	hexBig("fcbe86c7900a88aedcffc83b479aa3a4"),
	hexBig("f987a7253ac413176f2b074cf7815e54"),
	hexBig("f3392b0822b70005940c7a398e4b70f3"),
	hexBig("e7159475a2c29b7443b29c7fa6e889d9"),
	hexBig("d097f3bdfd2022b8845ad8f792aa5825"),
	hexBig("a9f746462d870fdf8a65dc1f90e061e5"),
	hexBig("70d869a156d2a1b890bb3df62baf32f7"),
	hexBig("31be135f97d08fd981231505542fcfa6"),
	hexBig("9aa508b5b7a84e1c677de54f3e99bc9"),
	hexBig("5d6af8dedb81196699c329225ee604"),
	hexBig("2216e584f5fa1ea926041bedfe98"),
}

func hexBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("tickmath: bad multiplier constant " + s)
	}
	return n
}

func mustTickToSqrtPriceX64(tick int) *big.Int {
	p, err := TickToSqrtPriceX64(tick)
	if err != nil {
		panic(err)
	}
	return p
}

// TickToSqrtPriceX64 computes sqrt(1.0001^tick) * 2^64 by iterative
// multiplication against the precomputed constant table, one multiplier per
// set bit of the tick magnitude. The ladder accumulates the reciprocal, so
// negative ticks read it directly and non-negative ticks invert it once.
func TickToSqrtPriceX64(tick int) (*big.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrTickOutOfBounds, tick, MinTick, MaxTick)
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}

	// The ladder accumulates sqrt(1.0001^-absTick) * 2^128.
	ratio := new(big.Int).Set(oneX128)
	for i := 0; i < len(sqrtRatioMultipliers); i++ {
		if absTick&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, sqrtRatioMultipliers[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if tick >= 0 {
		ratio.Div(maxU256, ratio)
	}

	// Narrow from Q128 to Q64.64, rounding up so tick 0 lands on an
	// exact 2^64.
	remainder := new(big.Int)
	ratio.QuoRem(ratio, oneX64, remainder)
	if remainder.Sign() != 0 {
		ratio.Add(ratio, big.NewInt(1))
	}
	return ratio, nil
}

// SqrtPriceX64ToTick returns the greatest tick whose fixed-point sqrt price
// does not exceed sqrtPriceX64 (floor semantics, monotonic with the forward
// conversion). The initial estimate uses a float logarithm, the one place
// floating point is acceptable, and is then corrected against the exact
// ladder.
func SqrtPriceX64ToTick(sqrtPriceX64 *big.Int) (int, error) {
	if sqrtPriceX64 == nil || sqrtPriceX64.Cmp(MinSqrtPriceX64) < 0 || sqrtPriceX64.Cmp(MaxSqrtPriceX64) > 0 {
		return 0, ErrInvalidSqrtPrice
	}

	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX64),
		new(big.Float).SetInt(oneX64),
	).Float64()

	estimate := int(math.Floor(2 * math.Log(ratio) / math.Log(tickBase)))
	if estimate < MinTick {
		estimate = MinTick
	}
	if estimate > MaxTick {
		estimate = MaxTick
	}

	// Correct the float estimate: walk down while the forward conversion
	// exceeds the input, then up while the next tick still fits.
	tick := estimate
	for tick > MinTick {
		p, err := TickToSqrtPriceX64(tick)
		if err != nil {
			return 0, err
		}
		if p.Cmp(sqrtPriceX64) <= 0 {
			break
		}
		tick--
	}
	for tick < MaxTick {
		next, err := TickToSqrtPriceX64(tick + 1)
		if err != nil {
			return 0, err
		}
		if next.Cmp(sqrtPriceX64) > 0 {
			break
		}
		tick++
	}
	return tick, nil
}

// PriceToTick returns floor(ln(price)/ln(1.0001)), the greatest tick whose
// ladder price does not exceed the input.
func PriceToTick(price float64) (int, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %f", ErrInvalidPrice, price)
	}
	tick := int(math.Floor(math.Log(price) / math.Log(tickBase)))
	// Guard the float boundary case where 1.0001^tick still exceeds price.
	for tick > MinTick && TickToPrice(tick) > price {
		tick--
	}
	if tick < MinTick || tick > MaxTick {
		return 0, fmt.Errorf("%w: price %g maps to tick %d", ErrTickOutOfBounds, price, tick)
	}
	return tick, nil
}

// TickToPrice returns 1.0001^tick.
func TickToPrice(tick int) float64 {
	return math.Pow(tickBase, float64(tick))
}

// SqrtPriceX64ToFloat converts a Q64.64 sqrt price to its float value.
func SqrtPriceX64ToFloat(sqrtPriceX64 *big.Int) float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(sqrtPriceX64),
		new(big.Float).SetInt(oneX64),
	).Float64()
	return f
}

// AlignToSpacing floors (roundUp=false) or ceils (roundUp=true) a tick to
// the nearest multiple of spacing. Lower bounds are floored and upper
// bounds are ceiled so an automatically centered range never narrows below
// the caller's request. Applying the alignment twice is a no-op.
func AlignToSpacing(tick, spacing int, roundUp bool) (int, error) {
	if spacing <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSpacing, spacing)
	}

	quotient := tick / spacing
	remainder := tick % spacing
	if remainder == 0 {
		return tick, nil
	}
	// Go truncates toward zero; normalize to a true floor for negatives.
	if remainder < 0 {
		quotient--
	}
	if roundUp {
		quotient++
	}

	aligned := quotient * spacing
	if aligned < MinTick || aligned > MaxTick {
		return 0, fmt.Errorf("%w: aligned tick %d", ErrTickOutOfBounds, aligned)
	}
	return aligned, nil
}
