// Package bigint converts protocol values between byte and big-integer form.
// Every protocol value is an unsigned arbitrary-precision integer, while
// math/big and the hashed wire encodings are sign-aware, so the conversions
// here are an explicit contract rather than incidental behavior.
package bigint

import (
	"encoding/hex"
	"math/big"

	"github.com/calderaid/caldera-go/pkg/protocol"
)

// FromUnsignedBigEndian interprets b as an unsigned big-endian integer.
func FromUnsignedBigEndian(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// FromUnsignedLittleEndianHex decodes the wire form of salt and SRP_B: hex
// pairs in little-endian byte order. The bytes are reversed and then decoded
// big-endian. Odd-length or non-hex input fails with INVALID_ENCODING.
func FromUnsignedLittleEndianHex(s string) (*big.Int, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, protocol.NewInvalidEncodingError("hex: " + err.Error())
	}
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	return new(big.Int).SetBytes(raw), nil
}

// ToUnsignedLittleEndianHex is the inverse of FromUnsignedLittleEndianHex.
func ToUnsignedLittleEndianHex(x *big.Int) string {
	b := UnsignedBytes(x)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return hex.EncodeToString(b)
}

// UnsignedBytes returns the minimal big-endian encoding of x with any
// sign-padding byte stripped. Zero encodes as a single zero byte.
func UnsignedBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 0 {
		return []byte{0}
	}
	return b
}

// SignPaddedBytes returns the big-endian encoding of x with a leading zero
// byte whenever the most-significant bit of the first byte is set. This
// mirrors the signed two's-complement form the server hashes; feeding the
// unpadded form into any protocol hash silently produces a rejected proof.
func SignPaddedBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 0 {
		return []byte{0}
	}
	if b[0]&0x80 != 0 {
		return append([]byte{0}, b...)
	}
	return b
}

// TrueMod returns x mod m as a non-negative value for m > 0. The intermediate
// subtraction B - k*g^x can be negative before reduction, and a remainder
// operation that preserves the dividend's sign would corrupt the exchange.
func TrueMod(x, m *big.Int) *big.Int {
	return new(big.Int).Mod(x, m)
}
