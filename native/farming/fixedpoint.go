package farming

import (
	"encoding/json"
	"math/big"

	"github.com/holiman/uint256"
)

// mantissa is the fixed-point scale used by FixedU128: 18 decimal digits,
// matching the precision the rest of this codebase uses for token amounts.
var mantissa = big.NewInt(1_000_000_000_000_000_000)

// maxU128 is the ceiling SaturatingMulInt clamps to: 2^128-1, matching the
// spec's "128-bit unsigned integer balance type".
var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// FixedU128 is an 18-decimal fixed-point rational backed by a 128-bit
// unsigned integer. It is used for accumulator fields (accumulated_rpz,
// accumulated_rpvs) and for ratios (price_adjustment, multiplier) where
// truncating division and overflow must be explicit rather than silently
// wrapped.
type FixedU128 struct {
	raw *uint256.Int
}

// ZeroFixed is the additive identity.
func ZeroFixed() FixedU128 {
	return FixedU128{raw: uint256.NewInt(0)}
}

// OneFixed is the multiplicative identity (1.0).
func OneFixed() FixedU128 {
	v, _ := uint256.FromBig(mantissa)
	return FixedU128{raw: v}
}

// FixedFromRaw wraps a raw 18-decimal-scaled integer value, returning
// ErrOverflow if it does not fit in 128 bits.
func FixedFromRaw(raw *big.Int) (FixedU128, error) {
	if raw.BitLen() > 128 {
		return FixedU128{}, ErrOverflow
	}
	v, overflow := uint256.FromBig(raw)
	if overflow {
		return FixedU128{}, ErrOverflow
	}
	return FixedU128{raw: v}, nil
}

// FixedFromPpm builds a FixedU128 from a parts-per-million integer, e.g.
// FixedFromPpm(500_000) == 0.5.
func FixedFromPpm(ppm uint64) FixedU128 {
	num := new(big.Int).Mul(big.NewInt(int64(ppm)), mantissa)
	num.Quo(num, big.NewInt(1_000_000))
	v, _ := uint256.FromBig(num)
	return FixedU128{raw: v}
}

// Raw returns the underlying 18-decimal-scaled value as a big.Int.
func (f FixedU128) Raw() *big.Int {
	if f.raw == nil {
		return big.NewInt(0)
	}
	return f.raw.ToBig()
}

// IsZero reports whether the value is exactly zero.
func (f FixedU128) IsZero() bool {
	return f.raw == nil || f.raw.IsZero()
}

// Add returns f+g, erroring on overflow of the 128-bit range.
func (f FixedU128) Add(g FixedU128) (FixedU128, error) {
	sum := new(big.Int).Add(f.Raw(), g.Raw())
	return FixedFromRaw(sum)
}

// Sub returns f-g, erroring if the result would be negative.
func (f FixedU128) Sub(g FixedU128) (FixedU128, error) {
	diff := new(big.Int).Sub(f.Raw(), g.Raw())
	if diff.Sign() < 0 {
		return FixedU128{}, ErrUnderflow
	}
	return FixedFromRaw(diff)
}

// MulInt multiplies the fixed-point ratio by an integer amount and truncates
// the mantissa back out, i.e. floor(f * n). This is the operation used
// everywhere the spec multiplies a ratio into an integer reward amount;
// division by total shares goes through DivInt.
func (f FixedU128) MulInt(n *big.Int) (*big.Int, error) {
	if n.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	product := new(big.Int).Mul(f.Raw(), n)
	product.Quo(product, mantissa)
	if product.BitLen() > 256 {
		return nil, ErrOverflow
	}
	return product, nil
}

// DivInt builds a FixedU128 ratio equal to floor((num * 1e18) / den). den
// must be strictly positive.
func DivInt(num, den *big.Int) (FixedU128, error) {
	if den.Sign() <= 0 {
		return FixedU128{}, ErrDivByZero
	}
	scaled := new(big.Int).Mul(num, mantissa)
	scaled.Quo(scaled, den)
	return FixedFromRaw(scaled)
}

// Mul multiplies two fixed-point ratios: floor(f*g / 1e18).
func (f FixedU128) Mul(g FixedU128) (FixedU128, error) {
	product := new(big.Int).Mul(f.Raw(), g.Raw())
	product.Quo(product, mantissa)
	return FixedFromRaw(product)
}

// GobEncode implements gob.GobEncoder so FixedU128's unexported field can be
// persisted by BoltStore without reflecting into uint256.Int internals.
func (f FixedU128) GobEncode() ([]byte, error) {
	return f.Raw().GobEncode()
}

// GobDecode implements gob.GobDecoder, the counterpart to GobEncode.
func (f *FixedU128) GobDecode(data []byte) error {
	raw := new(big.Int)
	if err := raw.GobDecode(data); err != nil {
		return err
	}
	v, err := FixedFromRaw(raw)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalJSON implements json.Marshaler so SQLStore's JSON-blob rows round
// trip FixedU128 values correctly despite its unexported backing field.
func (f FixedU128) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Raw().String())
}

// UnmarshalJSON implements json.Unmarshaler, the counterpart to MarshalJSON.
func (f *FixedU128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	raw, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return ErrOverflow
	}
	v, err := FixedFromRaw(raw)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// SaturatingMulInt multiplies the ratio by an integer amount like MulInt,
// but clamps to the maximum representable 128-bit value instead of
// returning ErrOverflow. The engine's reward paths use the checked MulInt
// and do not call this variant.
func (f FixedU128) SaturatingMulInt(n *big.Int) *big.Int {
	if n.Sign() < 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(f.Raw(), n)
	product.Quo(product, mantissa)
	if product.Cmp(maxU128) > 0 {
		return new(big.Int).Set(maxU128)
	}
	return product
}
