package srp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"

	"github.com/calderaid/caldera-go/internal/bigint"
	"github.com/calderaid/caldera-go/pkg/protocol"
)

const (
	devicePasswordBytes = 40
	deviceSaltBytes     = 16
)

// DeviceSecret is the verifier material generated once when a device is
// confirmed as remembered. Password stays on the device; Salt and Verifier
// are handed to the service. It is persisted externally and reused for every
// device-authenticated login until the device is forgotten.
type DeviceSecret struct {
	DeviceGroupKey string
	DeviceKey      string
	Password       string // base64, random
	Salt           string // base64, sign-padded big-endian
	Verifier       string // base64, sign-padded big-endian
}

// NewDeviceSecret generates a random device password and computes its salt
// and verifier v = g^x mod N under the device identifiers. The arithmetic is
// bit-identical to the account exchange with the device group key substituted
// for the pool name and the device key for the username, so a verifier
// registered here validates the claim computed at the next device login.
func NewDeviceSecret(deviceGroupKey, deviceKey string) (*DeviceSecret, error) {
	random := make([]byte, devicePasswordBytes)
	if _, err := rand.Read(random); err != nil {
		return nil, protocol.NewEntropyFailureError(err.Error())
	}
	password := base64.StdEncoding.EncodeToString(random)

	saltRandom := make([]byte, deviceSaltBytes)
	if _, err := rand.Read(saltRandom); err != nil {
		return nil, protocol.NewEntropyFailureError(err.Error())
	}
	salt := bigint.FromUnsignedBigEndian(saltRandom)

	x := computePrivateExponent(deviceGroupKey, deviceKey, password, salt)
	verifier := new(big.Int).Exp(G, x, N)

	return &DeviceSecret{
		DeviceGroupKey: deviceGroupKey,
		DeviceKey:      deviceKey,
		Password:       password,
		Salt:           base64.StdEncoding.EncodeToString(bigint.SignPaddedBytes(salt)),
		Verifier:       base64.StdEncoding.EncodeToString(bigint.SignPaddedBytes(verifier)),
	}, nil
}

// DevicePasswordHash computes the inner identity hash of the device
// sub-protocol: H(deviceGroupKey | deviceKey | ":" | password).
func DevicePasswordHash(deviceGroupKey, deviceKey, password string) []byte {
	hash := sha256.New()
	hash.Write([]byte(deviceGroupKey))
	hash.Write([]byte(deviceKey))
	hash.Write([]byte(":"))
	hash.Write([]byte(password))
	return hash.Sum(nil)
}

// DeviceClaim computes the proof for a DEVICE_PASSWORD_VERIFIER challenge.
// It is PasswordClaim with the device identifiers substituted for the account
// identifiers.
func (kp *EphemeralKeyPair) DeviceClaim(deviceGroupKey, deviceKey, devicePassword string, salt, B *big.Int, secretBlock []byte, timestamp string) ([]byte, error) {
	return kp.PasswordClaim(deviceKey, devicePassword, deviceGroupKey, salt, B, secretBlock, timestamp)
}
