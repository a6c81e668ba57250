// Package hkdf implements the RFC 5869 extract-and-expand key derivation
// function over HMAC-SHA256. The SRP engine uses it to turn the raw shared
// secret into the fixed-length password authentication key.
package hkdf

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/calderaid/caldera-go/pkg/protocol"
)

// MaxOutputLength is the RFC 5869 expand limit: 255 blocks of hash output.
const MaxOutputLength = 255 * sha256.Size

// Extract derives a pseudorandom key from the input keying material:
// PRK = HMAC-SHA256(key=salt, data=ikm). An empty salt is replaced by a
// zero-filled block of the hash output length per RFC 5869.
func Extract(salt, ikm []byte) []byte {
	if len(salt) == 0 {
		salt = make([]byte, sha256.Size)
	}
	mac := hmac.New(sha256.New, salt)
	mac.Write(ikm)
	return mac.Sum(nil)
}

// Expand derives length bytes of output keying material from prk by iterative
// HMAC chaining: T(i) = HMAC(prk, T(i-1) | info | byte(i)). Fails with
// LENGTH_TOO_LARGE if length exceeds MaxOutputLength.
func Expand(prk, info []byte, length int) ([]byte, error) {
	if length > MaxOutputLength {
		return nil, protocol.NewLengthTooLargeError(length, MaxOutputLength)
	}

	okm := make([]byte, 0, length)
	var block []byte
	for counter := byte(1); len(okm) < length; counter++ {
		mac := hmac.New(sha256.New, prk)
		mac.Write(block)
		mac.Write(info)
		mac.Write([]byte{counter})
		block = mac.Sum(nil)
		okm = append(okm, block...)
	}
	return okm[:length], nil
}

// Key is the one-shot extract-then-expand composition.
func Key(salt, ikm, info []byte, length int) ([]byte, error) {
	return Expand(Extract(salt, ikm), info, length)
}
