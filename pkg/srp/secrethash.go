package srp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SecretHash computes the client secret proof attached to requests when the
// identity-service client is configured with a secret:
//
//	base64(HMAC-SHA256(key=clientSecret, data=userID | clientID))
//
// Pure and stateless; independent of the SRP exchange.
func SecretHash(userID, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(userID))
	mac.Write([]byte(clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
