package srp_test

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderaid/caldera-go/internal/bigint"
	"github.com/calderaid/caldera-go/internal/hkdf"
	"github.com/calderaid/caldera-go/pkg/srp"
)

// simulatedHost mirrors the server side of the exchange so tests can check
// the client against the independent host-side formula (A*v^u)^b mod N.
type simulatedHost struct {
	poolName string
	username string
	salt     *big.Int
	verifier *big.Int
	b        *big.Int
	B        *big.Int
}

func newSimulatedHost(t *testing.T, poolName, username, password string) *simulatedHost {
	t.Helper()

	saltBytes := make([]byte, 16)
	_, err := rand.Read(saltBytes)
	require.NoError(t, err)
	salt := new(big.Int).SetBytes(saltBytes)

	x := hostPrivateExponent(poolName, username, password, salt)
	verifier := new(big.Int).Exp(srp.G, x, srp.N)

	return newSimulatedHostWithVerifier(t, poolName, username, salt, verifier)
}

func newSimulatedHostWithVerifier(t *testing.T, poolName, username string, salt, verifier *big.Int) *simulatedHost {
	t.Helper()

	bBytes := make([]byte, 32)
	_, err := rand.Read(bBytes)
	require.NoError(t, err)
	b := new(big.Int).SetBytes(bBytes)

	// B = (k*v + g^b) mod N
	kv := new(big.Int).Mod(new(big.Int).Mul(srp.K, verifier), srp.N)
	gb := new(big.Int).Exp(srp.G, b, srp.N)
	B := new(big.Int).Mod(new(big.Int).Add(kv, gb), srp.N)

	return &simulatedHost{
		poolName: poolName,
		username: username,
		salt:     salt,
		verifier: verifier,
		b:        b,
		B:        B,
	}
}

// derivedKey computes the host-side authentication key from the client's
// public value via S = (A*v^u)^b mod N.
func (h *simulatedHost) derivedKey(t *testing.T, A *big.Int) []byte {
	t.Helper()

	uHash := sha256.New()
	uHash.Write(bigint.SignPaddedBytes(A))
	uHash.Write(bigint.SignPaddedBytes(h.B))
	u := new(big.Int).SetBytes(uHash.Sum(nil))

	vu := new(big.Int).Exp(h.verifier, u, srp.N)
	base := new(big.Int).Mod(new(big.Int).Mul(A, vu), srp.N)
	S := new(big.Int).Exp(base, h.b, srp.N)

	key, err := hkdf.Key(bigint.SignPaddedBytes(u), bigint.SignPaddedBytes(S), []byte("Caldera Derived Key"), 16)
	require.NoError(t, err)
	return key
}

// expectedClaim is the proof the host accepts for the given exchange.
func (h *simulatedHost) expectedClaim(t *testing.T, A *big.Int, secretBlock []byte, timestamp string) []byte {
	t.Helper()

	mac := hmac.New(sha256.New, h.derivedKey(t, A))
	mac.Write([]byte(h.poolName))
	mac.Write([]byte(h.username))
	mac.Write(secretBlock)
	mac.Write([]byte(timestamp))
	return mac.Sum(nil)
}

// hostPrivateExponent replicates x = H(salt | H(pool | user | ":" | password))
// independently of the engine.
func hostPrivateExponent(poolName, username, password string, salt *big.Int) *big.Int {
	identity := sha256.Sum256([]byte(poolName + username + ":" + password))

	hash := sha256.New()
	hash.Write(bigint.SignPaddedBytes(salt))
	hash.Write(identity[:])
	return new(big.Int).SetBytes(hash.Sum(nil))
}

func TestNewEphemeralKeyPair(t *testing.T) {
	kp, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)
	require.NotNil(t, kp)

	A := kp.Public()
	assert.NotZero(t, new(big.Int).Mod(A, srp.N).Sign(), "A mod N must never be zero")
	assert.Negative(t, A.Cmp(srp.N), "A must be reduced mod N")
}

func TestNewEphemeralKeyPair_Uniqueness(t *testing.T) {
	kp1, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)
	kp2, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)

	assert.NotZero(t, kp1.Public().Cmp(kp2.Public()), "independent key pairs must differ")
}

// TestExchangeSymmetry checks that the client-side formula
// (B - k*g^x)^(a + u*x) and the host-side formula (A*v^u)^b agree on the
// derived key for random ephemerals.
func TestExchangeSymmetry(t *testing.T) {
	for i := 0; i < 5; i++ {
		host := newSimulatedHost(t, "Pj8nlkpKR", "User5", "Password1!")

		kp, err := srp.NewEphemeralKeyPair()
		require.NoError(t, err)

		clientKey, err := kp.PasswordAuthenticationKey("User5", "Password1!", "Pj8nlkpKR", host.salt, host.B)
		require.NoError(t, err)
		require.Len(t, clientKey, 16)

		assert.Equal(t, host.derivedKey(t, kp.Public()), clientKey)
	}
}

func TestPasswordClaimAcceptedByHost(t *testing.T) {
	host := newSimulatedHost(t, "EuW9PJjTc", "alice@example.com", "correct horse battery staple")

	kp, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)

	secretBlock := []byte("opaque server block")
	timestamp := "Thu Jun 15 07:00:00 UTC 2017"

	claim, err := kp.PasswordClaim("alice@example.com", "correct horse battery staple", "EuW9PJjTc",
		host.salt, host.B, secretBlock, timestamp)
	require.NoError(t, err)
	require.Len(t, claim, 32)

	assert.Equal(t, host.expectedClaim(t, kp.Public(), secretBlock, timestamp), claim)
}

func TestPasswordClaimWrongPasswordRejected(t *testing.T) {
	host := newSimulatedHost(t, "EuW9PJjTc", "alice@example.com", "correct horse battery staple")

	kp, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)

	secretBlock := []byte("opaque server block")
	timestamp := "Thu Jun 15 07:00:00 UTC 2017"

	claim, err := kp.PasswordClaim("alice@example.com", "wrong password", "EuW9PJjTc",
		host.salt, host.B, secretBlock, timestamp)
	require.NoError(t, err)

	assert.NotEqual(t, host.expectedClaim(t, kp.Public(), secretBlock, timestamp), claim,
		"a wrong password must not produce an accepted claim")
}

func TestPasswordAuthenticationKeyDeterministic(t *testing.T) {
	host := newSimulatedHost(t, "Pj8nlkpKR", "User5", "Password1!")

	kp, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)

	key1, err := kp.PasswordAuthenticationKey("User5", "Password1!", "Pj8nlkpKR", host.salt, host.B)
	require.NoError(t, err)
	key2, err := kp.PasswordAuthenticationKey("User5", "Password1!", "Pj8nlkpKR", host.salt, host.B)
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
}
