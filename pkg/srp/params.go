// Package srp implements the client side of the Secure Remote Password
// exchange used by the Caldera identity service: ephemeral key generation,
// the password claim proving password knowledge without transmitting it, the
// HKDF-derived authentication key, the remembered-device sub-protocol, and
// the client secret hash.
package srp

import (
	"crypto/sha256"
	"math/big"

	"github.com/calderaid/caldera-go/internal/bigint"
)

// Fixed group parameters chosen by the identity service. The 3072-bit prime
// and generator MUST match the server exactly; they are not configurable.
var (
	// N is the 3072-bit prime modulus.
	N = initN()

	// G is the generator (always 2 for this group).
	G = big.NewInt(2)

	// K is the SRP-6a multiplier: k = H(N | g).
	K = computeK(N, G)
)

const (
	// derivedKeyInfo is the fixed HKDF expand label. It is a protocol
	// constant hashed by the server; changing it breaks every proof.
	derivedKeyInfo = "Caldera Derived Key"

	// derivedKeySize is the length of the password authentication key.
	derivedKeySize = 16

	// ephemeralKeyBytes is the byte length of the random private exponent.
	ephemeralKeyBytes = 128

	// maxKeyPairAttempts bounds regeneration on a degenerate A. A zero
	// residue cannot occur under a working random source, so exhausting the
	// bound is a fatal entropy or configuration error.
	maxKeyPairAttempts = 8
)

// initN initializes the N parameter (must match server exactly).
func initN() *big.Int {
	n := new(big.Int)
	n.SetString(
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74"+
			"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437"+
			"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED"+
			"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05"+
			"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB"+
			"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B"+
			"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718"+
			"3995497CEA956AE515D2261898FA051015728E5A8AAAC42DAD33170D04507A33"+
			"A85521ABDF1CBA64ECFB850458DBEF0A8AEA71575D060C7DB3970F85A6E1E4C7"+
			"ABF5AE8CDB0933D71E8C94E04A25619DCEE3D2261AD2EE6BF12FFA06D98A0864"+
			"D87602733EC86A64521F2B18177B200CBBE117577A615D6C770988C0BAD946E2"+
			"08E24FA074E5AB3143DB5BFCE0FD108E4B82D120A93AD2CAFFFFFFFFFFFFFFFF", 16)
	return n
}

// computeK computes the SRP-6a multiplier k = H(N | g). Both values are
// hashed in their sign-padded form, matching the server's signed encoding.
//
//nolint:gocritic // N is capitalized per RFC 5054 SRP-6a convention
func computeK(N, g *big.Int) *big.Int {
	hash := sha256.New()
	hash.Write(bigint.SignPaddedBytes(N))
	hash.Write(bigint.SignPaddedBytes(g))
	return new(big.Int).SetBytes(hash.Sum(nil))
}
