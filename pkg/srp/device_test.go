package srp_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderaid/caldera-go/internal/bigint"
	"github.com/calderaid/caldera-go/pkg/srp"
)

func TestDevicePasswordHash(t *testing.T) {
	// Fixed vector shared with the server implementation.
	hash := srp.DevicePasswordHash("Pj8nlkpKR", "User5", "Password1!")
	assert.Equal(t, "rJra60Rbj/4QW4UdYVl7wde78eMoiaw7Wk+WoDqo5K8=",
		base64.StdEncoding.EncodeToString(hash))
}

func TestNewDeviceSecret(t *testing.T) {
	ds, err := srp.NewDeviceSecret("us-west-2_deviceGroup", "device-key-1234")
	require.NoError(t, err)

	assert.Equal(t, "us-west-2_deviceGroup", ds.DeviceGroupKey)
	assert.Equal(t, "device-key-1234", ds.DeviceKey)

	password, err := base64.StdEncoding.DecodeString(ds.Password)
	require.NoError(t, err)
	assert.Len(t, password, 40)

	_, err = base64.StdEncoding.DecodeString(ds.Salt)
	require.NoError(t, err)
	_, err = base64.StdEncoding.DecodeString(ds.Verifier)
	require.NoError(t, err)
}

func TestNewDeviceSecret_Uniqueness(t *testing.T) {
	ds1, err := srp.NewDeviceSecret("group", "device")
	require.NoError(t, err)
	ds2, err := srp.NewDeviceSecret("group", "device")
	require.NoError(t, err)

	assert.NotEqual(t, ds1.Password, ds2.Password)
	assert.NotEqual(t, ds1.Salt, ds2.Salt)
	assert.NotEqual(t, ds1.Verifier, ds2.Verifier)
}

// TestDeviceRoundTrip checks the core device-protocol invariant: a verifier
// generated at registration validates the claim computed at a later
// remembered-device login.
func TestDeviceRoundTrip(t *testing.T) {
	const (
		deviceGroupKey = "us-west-2_deviceGroup"
		deviceKey      = "device-key-1234"
	)

	ds, err := srp.NewDeviceSecret(deviceGroupKey, deviceKey)
	require.NoError(t, err)

	// The service stores what registration handed over.
	saltBytes, err := base64.StdEncoding.DecodeString(ds.Salt)
	require.NoError(t, err)
	verifierBytes, err := base64.StdEncoding.DecodeString(ds.Verifier)
	require.NoError(t, err)
	host := newSimulatedHostWithVerifier(t, deviceGroupKey, deviceKey,
		bigint.FromUnsignedBigEndian(saltBytes), bigint.FromUnsignedBigEndian(verifierBytes))

	// A later login answers the device challenge with the stored password.
	kp, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)

	secretBlock := []byte("opaque device block")
	timestamp := "Mon Feb 2 15:04:05 UTC 2026"

	claim, err := kp.DeviceClaim(deviceGroupKey, deviceKey, ds.Password,
		host.salt, host.B, secretBlock, timestamp)
	require.NoError(t, err)

	assert.Equal(t, host.expectedClaim(t, kp.Public(), secretBlock, timestamp), claim)
}

// TestDeviceClaimMatchesPasswordClaim pins the identifier substitution: the
// device claim is the password claim with the device group key as the pool
// name and the device key as the username.
func TestDeviceClaimMatchesPasswordClaim(t *testing.T) {
	host := newSimulatedHost(t, "group", "device", "device-password")

	kp, err := srp.NewEphemeralKeyPair()
	require.NoError(t, err)

	secretBlock := []byte("block")
	timestamp := "Thu Jun 15 07:00:00 UTC 2017"

	deviceClaim, err := kp.DeviceClaim("group", "device", "device-password",
		host.salt, host.B, secretBlock, timestamp)
	require.NoError(t, err)

	passwordClaim, err := kp.PasswordClaim("device", "device-password", "group",
		host.salt, host.B, secretBlock, timestamp)
	require.NoError(t, err)

	assert.Equal(t, passwordClaim, deviceClaim)
}
