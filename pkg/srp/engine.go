package srp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/calderaid/caldera-go/internal/bigint"
	"github.com/calderaid/caldera-go/internal/hkdf"
	"github.com/calderaid/caldera-go/pkg/protocol"
)

// EphemeralKeyPair is a one-time-use SRP key pair: private exponent a and
// public value A = g^a mod N. One pair per login attempt; never reused.
type EphemeralKeyPair struct {
	private *big.Int
	public  *big.Int
}

// NewEphemeralKeyPair generates a fresh key pair from the secure random
// source. Generation retries while A mod N == 0 (a degenerate exchange the
// server would reject) up to a fixed bound.
func NewEphemeralKeyPair() (*EphemeralKeyPair, error) {
	buf := make([]byte, ephemeralKeyBytes)
	for attempt := 0; attempt < maxKeyPairAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return nil, protocol.NewEntropyFailureError(err.Error())
		}
		a := bigint.FromUnsignedBigEndian(buf)
		a.Mod(a, N)
		kp := NewEphemeralKeyPairFromPrivate(a)
		if bigint.TrueMod(kp.public, N).Sign() != 0 {
			return kp, nil
		}
	}
	return nil, protocol.NewDegenerateExchangeError("A mod N == 0 after bounded regeneration")
}

// NewEphemeralKeyPairFromPrivate builds the key pair for a caller-chosen
// private exponent. Exists for deterministic test vectors; production callers
// use NewEphemeralKeyPair.
func NewEphemeralKeyPairFromPrivate(a *big.Int) *EphemeralKeyPair {
	return &EphemeralKeyPair{
		private: new(big.Int).Set(a),
		public:  new(big.Int).Exp(G, a, N),
	}
}

// Public returns the public value A sent to the service.
func (kp *EphemeralKeyPair) Public() *big.Int {
	return new(big.Int).Set(kp.public)
}

// PasswordAuthenticationKey computes the 16-byte HKDF-derived key shared with
// the server after a PASSWORD_VERIFIER challenge:
//
//	x = H(salt | H(poolName | username | ":" | password))
//	u = H(A | B)
//	S = (B - k*g^x)^(a + u*x) mod N
//	key = HKDF-Expand(HKDF-Extract(salt=u, ikm=S), derivedKeyInfo, 16)
//
// Every hashed value is in sign-padded big-endian form and every
// concatenation is separator-free except the fixed ":" inside the identity
// hash. Byte order here is a hard interop contract with the server.
func (kp *EphemeralKeyPair) PasswordAuthenticationKey(username, password, poolName string, salt, B *big.Int) ([]byte, error) {
	u := computeScrambler(kp.public, B)
	if u.Sign() == 0 {
		return nil, protocol.NewDegenerateExchangeError("scrambler u == 0")
	}

	x := computePrivateExponent(poolName, username, password, salt)

	// S = (B - k*g^x)^(a + u*x) mod N. The subtraction can go negative, so
	// the base is reduced with TrueMod before exponentiation.
	gx := new(big.Int).Exp(G, x, N)
	kgx := bigint.TrueMod(new(big.Int).Mul(K, gx), N)
	base := bigint.TrueMod(new(big.Int).Sub(B, kgx), N)
	exponent := new(big.Int).Add(kp.private, new(big.Int).Mul(u, x))
	S := new(big.Int).Exp(base, exponent, N)

	return hkdf.Key(bigint.SignPaddedBytes(u), bigint.SignPaddedBytes(S), []byte(derivedKeyInfo), derivedKeySize)
}

// PasswordClaim computes the 32-byte proof of password knowledge for a
// PASSWORD_VERIFIER challenge:
//
//	claim = HMAC-SHA256(key, poolName | username | secretBlock | timestamp)
//
// secretBlock is the server-issued opaque block, decoded but never
// interpreted. timestamp must be the exact string that will be transmitted,
// since the server re-hashes it byte for byte.
func (kp *EphemeralKeyPair) PasswordClaim(username, password, poolName string, salt, B *big.Int, secretBlock []byte, timestamp string) ([]byte, error) {
	key, err := kp.PasswordAuthenticationKey(username, password, poolName, salt, B)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(poolName))
	mac.Write([]byte(username))
	mac.Write(secretBlock)
	mac.Write([]byte(timestamp))
	return mac.Sum(nil), nil
}

// computeScrambler computes u = H(A | B).
//
//nolint:gocritic // A, B are capitalized per RFC 5054 SRP-6a convention
func computeScrambler(A, B *big.Int) *big.Int {
	hash := sha256.New()
	hash.Write(bigint.SignPaddedBytes(A))
	hash.Write(bigint.SignPaddedBytes(B))
	return new(big.Int).SetBytes(hash.Sum(nil))
}

// computePrivateExponent computes x = H(salt | H(identity | ":" | password))
// where identity is the pool (or device group) name concatenated with the
// username (or device key) with no separator.
func computePrivateExponent(poolName, username, password string, salt *big.Int) *big.Int {
	identity := sha256.New()
	identity.Write([]byte(poolName))
	identity.Write([]byte(username))
	identity.Write([]byte(":"))
	identity.Write([]byte(password))

	hash := sha256.New()
	hash.Write(bigint.SignPaddedBytes(salt))
	hash.Write(identity.Sum(nil))
	return new(big.Int).SetBytes(hash.Sum(nil))
}
