package chainhash

import (
	"fmt"
	"math/big"
)

// U256 is an unsigned 256-bit integer used as a difficulty target. It
// wraps math/big so the retarget arithmetic (target * elapsed / ideal,
// which can overflow 256 bits mid-calculation) never loses precision; the
// result is always clamped and truncated back to 256 bits before it is
// stored or put on the wire.
type U256 struct {
	v *big.Int
}

// maxU256 is 2^256 - 1, the all-ones value used as MinTarget (the easiest
// possible difficulty).
var maxU256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// MaxU256 returns 2^256 - 1.
func MaxU256() U256 {
	return U256{v: new(big.Int).Set(maxU256)}
}

// ZeroU256 returns the zero value.
func ZeroU256() U256 {
	return U256{v: new(big.Int)}
}

// U256FromUint64 builds a U256 from a small unsigned integer.
func U256FromUint64(n uint64) U256 {
	return U256{v: new(big.Int).SetUint64(n)}
}

// U256FromString parses a base-10 string into a U256.
func U256FromString(s string) (U256, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U256{}, fmt.Errorf("chainhash: invalid base-10 U256 %q", s)
	}
	if v.Sign() < 0 || v.Cmp(maxU256) > 0 {
		return U256{}, fmt.Errorf("chainhash: U256 %q out of range", s)
	}
	return U256{v: v}, nil
}

// AsU256 interprets h as a big-endian 256-bit unsigned integer.
func AsU256(h Hash) U256 {
	return U256{v: new(big.Int).SetBytes(h[:])}
}

func (u U256) bigInt() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return u.v
}

// Cmp compares u and other the way big.Int.Cmp does.
func (u U256) Cmp(other U256) int {
	return u.bigInt().Cmp(other.bigInt())
}

// Div divides u by a small positive integer, truncating toward zero.
func (u U256) Div(n int64) U256 {
	if n == 0 {
		panic("chainhash: U256 division by zero")
	}
	return U256{v: new(big.Int).Div(u.bigInt(), big.NewInt(n))}
}

// Mul multiplies u by a small non-negative integer.
func (u U256) Mul(n int64) U256 {
	return clamp(new(big.Int).Mul(u.bigInt(), big.NewInt(n)))
}

// MulU256 multiplies two U256 values, keeping full precision; the result
// may exceed 256 bits and is not clamped. Used as an intermediate step by
// the retarget calculation, which divides back down before storing.
func (u U256) MulU256(other U256) U256 {
	return U256{v: new(big.Int).Mul(u.bigInt(), other.bigInt())}
}

// DivU256 divides u by other using full-precision big.Int math, truncating
// toward zero (floor for non-negative operands).
func (u U256) DivU256(other U256) U256 {
	if other.bigInt().Sign() == 0 {
		panic("chainhash: U256 division by zero")
	}
	return U256{v: new(big.Int).Div(u.bigInt(), other.bigInt())}
}

// clamp truncates an arbitrary-precision intermediate back into [0, MaxU256].
func clamp(v *big.Int) U256 {
	if v.Sign() < 0 {
		return U256{v: new(big.Int)}
	}
	if v.Cmp(maxU256) > 0 {
		return U256{v: new(big.Int).Set(maxU256)}
	}
	return U256{v: v}
}

// Sign returns -1, 0, or 1 depending on the sign of u.
func (u U256) Sign() int {
	return u.bigInt().Sign()
}

// String renders u in base 10.
func (u U256) String() string {
	return u.bigInt().String()
}

// BitLen returns the minimum number of bits to represent u, useful as a
// compact log2-style difficulty gauge.
func (u U256) BitLen() int {
	return u.bigInt().BitLen()
}

// Bytes32 returns the big-endian, zero-padded 32-byte representation of u.
func (u U256) Bytes32() [32]byte {
	var out [32]byte
	b := u.bigInt().Bytes()
	copy(out[32-len(b):], b)
	return out
}

// U256FromBytes32 interprets b as a big-endian 256-bit unsigned integer.
func U256FromBytes32(b [32]byte) U256 {
	return U256{v: new(big.Int).SetBytes(b[:])}
}

// MarshalCBOR encodes u as its 32-byte big-endian byte string, so that
// every node serializes the same target to identical bytes regardless of
// the internal big.Int representation's byte length.
func (u U256) MarshalCBOR() ([]byte, error) {
	b := u.Bytes32()
	return Marshal(b[:])
}

// UnmarshalCBOR decodes a 32-byte CBOR byte string into u.
func (u *U256) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := Unmarshal(data, &b); err != nil {
		return err
	}
	if len(b) > 32 {
		return fmt.Errorf("chainhash: U256 must be at most 32 bytes, got %d", len(b))
	}
	var padded [32]byte
	copy(padded[32-len(b):], b)
	*u = U256FromBytes32(padded)
	return nil
}
