// Package protocol defines the challenge vocabulary, payload types, and error
// codes shared between the authentication engine and the identity-service
// client that drives it.
package protocol

// ChallengeName identifies the kind of challenge the identity service issued.
type ChallengeName string

// Challenge names issued by the identity service.
const (
	// ChallengePasswordVerifier asks the client to prove password knowledge
	// via the SRP password claim.
	ChallengePasswordVerifier ChallengeName = "PASSWORD_VERIFIER"
	// ChallengeSMSMFA asks for a code delivered out-of-band via SMS.
	ChallengeSMSMFA ChallengeName = "SMS_MFA"
	// ChallengeSoftwareTokenMFA asks for a TOTP code from an authenticator app.
	ChallengeSoftwareTokenMFA ChallengeName = "SOFTWARE_TOKEN_MFA"
	// ChallengeNewPasswordRequired asks the caller to choose a new password
	// before authentication can complete.
	ChallengeNewPasswordRequired ChallengeName = "NEW_PASSWORD_REQUIRED"
	// ChallengeDeviceSRPAuth starts the remembered-device sub-protocol.
	ChallengeDeviceSRPAuth ChallengeName = "DEVICE_SRP_AUTH"
	// ChallengeDevicePasswordVerifier asks the client to prove device-password
	// knowledge via the device claim.
	ChallengeDevicePasswordVerifier ChallengeName = "DEVICE_PASSWORD_VERIFIER"
	// ChallengeCustom is an opaque service-defined challenge passed through to
	// the caller unmodified.
	ChallengeCustom ChallengeName = "CUSTOM_CHALLENGE"
)

// IsMFA reports whether the challenge asks for an out-of-band MFA code.
func (c ChallengeName) IsMFA() bool {
	return c == ChallengeSMSMFA || c == ChallengeSoftwareTokenMFA
}

// Challenge parameter keys (service to client).
const (
	ParamSRPB         = "SRP_B"
	ParamSalt         = "SALT"
	ParamSecretBlock  = "SECRET_BLOCK"
	ParamUsername     = "USERNAME"
	ParamUserIDForSRP = "USER_ID_FOR_SRP"
)

// Challenge response keys (client to service).
const (
	ResponseSRPA                 = "SRP_A"
	ResponseUsername             = "USERNAME"
	ResponseSecretHash           = "SECRET_HASH"
	ResponseDeviceKey            = "DEVICE_KEY"
	ResponseTimestamp            = "TIMESTAMP"
	ResponseClaimSignature       = "PASSWORD_CLAIM_SIGNATURE"
	ResponseClaimSecretBlock     = "PASSWORD_CLAIM_SECRET_BLOCK"
	ResponseSMSMFACode           = "SMS_MFA_CODE"
	ResponseSoftwareTokenMFACode = "SOFTWARE_TOKEN_MFA_CODE"
	ResponseNewPassword          = "NEW_PASSWORD"
)

// ChallengeResponse is the payload handed back to the identity-service client
// for transmission. An empty Challenge name marks the initial authentication
// request (carrying SRP_A) rather than a challenge answer.
type ChallengeResponse struct {
	Challenge ChallengeName
	Responses map[string]string
}

// Tokens is the token set issued by the identity service on successful
// authentication. All three tokens are opaque to the engine; ExpiresIn is the
// service-reported lifetime in seconds.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int
}
