// Package flow sequences one password-authenticated login against the
// identity service: SRP initiation, the password-verifier challenge, and the
// optional MFA, new-password, device, and custom continuations. The
// coordinator performs no I/O; the identity-service client transmits each
// emitted payload and feeds the service's answer back in as an event.
package flow

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/calderaid/caldera-go/internal/bigint"
	"github.com/calderaid/caldera-go/pkg/protocol"
	"github.com/calderaid/caldera-go/pkg/srp"
)

// timestampLayout is the exact format the server re-hashes when checking a
// claim. The zone designator is the literal "UTC"; timestamps are always
// rendered from a UTC clock reading.
const timestampLayout = "Mon Jan 2 15:04:05 UTC 2006"

// DefaultMFARetryBudget is the number of rejected MFA codes tolerated before
// the flow fails.
const DefaultMFARetryBudget = 3

// State is the coordinator's position in the login flow.
type State string

// Coordinator states.
const (
	StateStart                  State = "START"
	StateAwaitingSRPChallenge   State = "AWAITING_SRP_CHALLENGE"
	StateAwaitingVerdict        State = "AWAITING_VERDICT"
	StateAwaitingMFACode        State = "AWAITING_MFA_CODE"
	StateAwaitingNewPassword    State = "AWAITING_NEW_PASSWORD"
	StateAwaitingDeviceVerifier State = "AWAITING_DEVICE_VERIFIER"
	StateCustomChallenge        State = "CUSTOM_CHALLENGE"
	StateAuthenticated          State = "AUTHENTICATED"
	StateFailed                 State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed
}

// DeviceIdentity is the remembered-device material persisted after device
// confirmation, required to answer DEVICE_SRP_AUTH challenges.
type DeviceIdentity struct {
	DeviceKey      string
	DeviceGroupKey string
	Password       string
}

// Config describes one login attempt.
type Config struct {
	Username string
	Password string
	PoolName string
	ClientID string

	// ClientSecret, when set, attaches a SECRET_HASH to every payload.
	ClientSecret string

	// Device, when set, enables the remembered-device branch.
	Device *DeviceIdentity

	// MFARetryBudget overrides DefaultMFARetryBudget when positive.
	MFARetryBudget int

	// Clock overrides time.Now, for deterministic claim timestamps in tests.
	Clock func() time.Time
}

// Transition is the result of one coordinator step. Payload, when non-nil, is
// the next request for the identity-service client to transmit; Tokens is set
// exactly once, on the transition into StateAuthenticated.
type Transition struct {
	From    State
	To      State
	Payload *protocol.ChallengeResponse
	Tokens  *protocol.Tokens
}

// Coordinator drives a single login attempt. It holds session-scoped mutable
// state and must not be shared across concurrent attempts; create one
// coordinator per login.
type Coordinator struct {
	id    string
	cfg   Config
	state State

	// username tracks the identifier the service wants echoed back, updated
	// from USER_ID_FOR_SRP when the verifier challenge supplies it.
	username string

	keyPair       *srp.EphemeralKeyPair
	deviceKeyPair *srp.EphemeralKeyPair

	// pending is the challenge whose answer is in flight, consulted when the
	// service rejects it.
	pending protocol.ChallengeName

	// custom is the name of the pass-through challenge being answered.
	custom protocol.ChallengeName

	mfaChallenge protocol.ChallengeName
	mfaRejected  int

	session *Session
}

// New creates a coordinator for one login attempt.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if cfg.PoolName == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("pool name and client ID are required")
	}
	if cfg.MFARetryBudget <= 0 {
		cfg.MFARetryBudget = DefaultMFARetryBudget
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Coordinator{
		id:       uuid.NewString(),
		cfg:      cfg,
		state:    StateStart,
		username: cfg.Username,
	}, nil
}

// ID returns the flow identifier, attributable in logs and errors of the
// surrounding service layer.
func (c *Coordinator) ID() string {
	return c.id
}

// State returns the current state.
func (c *Coordinator) State() State {
	return c.state
}

// Session returns the authenticated session, or nil before StateAuthenticated.
func (c *Coordinator) Session() *Session {
	return c.session
}

// Begin generates the ephemeral key pair and emits the initiate-auth payload
// (SRP_A only; no claim may be computed before A exists).
func (c *Coordinator) Begin() (Transition, error) {
	if c.state != StateStart {
		return c.violation("Begin called in state " + string(c.state))
	}

	kp, err := srp.NewEphemeralKeyPair()
	if err != nil {
		return c.fail(err)
	}
	c.keyPair = kp

	responses := c.baseResponses()
	responses[protocol.ResponseSRPA] = fmt.Sprintf("%x", kp.Public())

	return c.transition(StateAwaitingSRPChallenge, &protocol.ChallengeResponse{Responses: responses}), nil
}

// Advance feeds the next event into the state machine and returns the
// resulting transition. Retryable failures (a rejected MFA code within
// budget) return an error for which protocol.IsRetryable is true while the
// coordinator stays in a state that accepts a fresh answer.
func (c *Coordinator) Advance(ev Event) (Transition, error) {
	if c.state.Terminal() {
		return c.violation("Advance called in terminal state " + string(c.state))
	}

	switch c.state {
	case StateAwaitingSRPChallenge:
		return c.advanceSRPChallenge(ev)
	case StateAwaitingVerdict:
		return c.advanceVerdict(ev)
	case StateAwaitingMFACode:
		return c.advanceMFACode(ev)
	case StateAwaitingNewPassword:
		return c.advanceNewPassword(ev)
	case StateAwaitingDeviceVerifier:
		return c.advanceDeviceVerifier(ev)
	case StateCustomChallenge:
		return c.advanceCustom(ev)
	default:
		return c.violation("Advance called before Begin")
	}
}

// advanceSRPChallenge handles the PASSWORD_VERIFIER challenge rooted at the
// initiate-auth request.
func (c *Coordinator) advanceSRPChallenge(ev Event) (Transition, error) {
	ch, ok := ev.(ChallengeReceived)
	if !ok {
		return c.violation(fmt.Sprintf("unexpected event %T while awaiting SRP challenge", ev))
	}
	if ch.Tokens != nil {
		// Tokens are accepted only from the PASSWORD_VERIFIER-rooted branch.
		return c.violation("tokens received before password verification")
	}
	if ch.Name != protocol.ChallengePasswordVerifier {
		return c.violation("expected PASSWORD_VERIFIER, got " + string(ch.Name))
	}

	if id := ch.Parameters[protocol.ParamUserIDForSRP]; id != "" {
		c.username = id
	} else if id := ch.Parameters[protocol.ParamUsername]; id != "" {
		c.username = id
	}

	salt, B, secretBlock, err := parseVerifierParams(ch.Parameters)
	if err != nil {
		return c.fail(err)
	}

	timestamp := c.cfg.Clock().UTC().Format(timestampLayout)
	claim, err := c.keyPair.PasswordClaim(c.username, c.cfg.Password, c.cfg.PoolName, salt, B, secretBlock, timestamp)
	if err != nil {
		return c.fail(err)
	}

	responses := c.baseResponses()
	responses[protocol.ResponseTimestamp] = timestamp
	responses[protocol.ResponseClaimSecretBlock] = ch.Parameters[protocol.ParamSecretBlock]
	responses[protocol.ResponseClaimSignature] = base64.StdEncoding.EncodeToString(claim)

	c.pending = protocol.ChallengePasswordVerifier
	return c.transition(StateAwaitingVerdict, &protocol.ChallengeResponse{
		Challenge: protocol.ChallengePasswordVerifier,
		Responses: responses,
	}), nil
}

// advanceVerdict branches on the service's answer to the claim (or to a
// continuation response): another challenge, tokens, or a rejection.
func (c *Coordinator) advanceVerdict(ev Event) (Transition, error) {
	switch ev := ev.(type) {
	case ChallengeReceived:
		return c.routeChallenge(ev)
	case ServiceRejected:
		return c.routeRejection(ev)
	default:
		return c.violation(fmt.Sprintf("unexpected event %T while awaiting verdict", ev))
	}
}

func (c *Coordinator) routeChallenge(ch ChallengeReceived) (Transition, error) {
	if ch.Name == "" {
		if ch.Tokens == nil {
			return c.violation("service returned neither challenge nor tokens")
		}
		c.session = NewSession(*ch.Tokens, c.cfg.Clock())
		tr := c.transition(StateAuthenticated, nil)
		tr.Tokens = ch.Tokens
		return tr, nil
	}

	switch {
	case ch.Name.IsMFA():
		c.mfaChallenge = ch.Name
		return c.transition(StateAwaitingMFACode, nil), nil

	case ch.Name == protocol.ChallengeNewPasswordRequired:
		return c.transition(StateAwaitingNewPassword, nil), nil

	case ch.Name == protocol.ChallengeDeviceSRPAuth:
		return c.beginDeviceAuth()

	case ch.Name == protocol.ChallengeDevicePasswordVerifier:
		return c.violation("device verifier challenge without preceding DEVICE_SRP_AUTH")

	default:
		c.custom = ch.Name
		return c.transition(StateCustomChallenge, nil), nil
	}
}

func (c *Coordinator) routeRejection(rej ServiceRejected) (Transition, error) {
	if c.pending.IsMFA() && rej.Code == protocol.ErrCodeCodeMismatch {
		c.mfaRejected++
		if c.mfaRejected >= c.cfg.MFARetryBudget {
			return c.fail(protocol.NewMFAAttemptsExceededError(c.mfaRejected))
		}
		// Retryable: back to awaiting a fresh code from the caller.
		tr := c.transition(StateAwaitingMFACode, nil)
		return tr, protocol.NewCodeMismatchError(rej.Message)
	}

	if c.pending == protocol.ChallengePasswordVerifier {
		// A rejected password claim indicates an implementation or credential
		// error; retrying the same claim cannot succeed.
		return c.fail(protocol.NewNotAuthorizedError(rej.Message))
	}

	return c.fail(protocol.NewErrorWithDetails(rej.Code, "service rejected challenge response", rej.Message))
}

// beginDeviceAuth starts the remembered-device sub-protocol by sending the
// device ephemeral public value.
func (c *Coordinator) beginDeviceAuth() (Transition, error) {
	if c.cfg.Device == nil {
		return c.fail(protocol.NewChallengeMismatchError("DEVICE_SRP_AUTH challenge but no device identity configured"))
	}

	kp, err := srp.NewEphemeralKeyPair()
	if err != nil {
		return c.fail(err)
	}
	c.deviceKeyPair = kp

	responses := c.baseResponses()
	responses[protocol.ResponseSRPA] = fmt.Sprintf("%x", kp.Public())

	c.pending = protocol.ChallengeDeviceSRPAuth
	return c.transition(StateAwaitingDeviceVerifier, &protocol.ChallengeResponse{
		Challenge: protocol.ChallengeDeviceSRPAuth,
		Responses: responses,
	}), nil
}

func (c *Coordinator) advanceMFACode(ev Event) (Transition, error) {
	code, ok := ev.(SubmitMFACode)
	if !ok {
		return c.violation(fmt.Sprintf("unexpected event %T while awaiting MFA code", ev))
	}

	key := protocol.ResponseSMSMFACode
	if c.mfaChallenge == protocol.ChallengeSoftwareTokenMFA {
		key = protocol.ResponseSoftwareTokenMFACode
	}
	responses := c.baseResponses()
	responses[key] = code.Code

	c.pending = c.mfaChallenge
	return c.transition(StateAwaitingVerdict, &protocol.ChallengeResponse{
		Challenge: c.mfaChallenge,
		Responses: responses,
	}), nil
}

func (c *Coordinator) advanceNewPassword(ev Event) (Transition, error) {
	pw, ok := ev.(SubmitNewPassword)
	if !ok {
		return c.violation(fmt.Sprintf("unexpected event %T while awaiting new password", ev))
	}
	if pw.Password == "" {
		return Transition{From: c.state, To: c.state},
			protocol.NewChallengeMismatchError("new password must not be empty")
	}

	responses := c.baseResponses()
	responses[protocol.ResponseNewPassword] = pw.Password

	c.pending = protocol.ChallengeNewPasswordRequired
	return c.transition(StateAwaitingVerdict, &protocol.ChallengeResponse{
		Challenge: protocol.ChallengeNewPasswordRequired,
		Responses: responses,
	}), nil
}

// advanceDeviceVerifier answers the DEVICE_PASSWORD_VERIFIER challenge with
// the device claim, computed with the same arithmetic as the account claim
// under the device identifiers.
func (c *Coordinator) advanceDeviceVerifier(ev Event) (Transition, error) {
	ch, ok := ev.(ChallengeReceived)
	if !ok {
		return c.violation(fmt.Sprintf("unexpected event %T while awaiting device verifier", ev))
	}
	if ch.Tokens != nil {
		return c.violation("tokens received before device verification")
	}
	if ch.Name != protocol.ChallengeDevicePasswordVerifier {
		return c.violation("expected DEVICE_PASSWORD_VERIFIER, got " + string(ch.Name))
	}

	salt, B, secretBlock, err := parseVerifierParams(ch.Parameters)
	if err != nil {
		return c.fail(err)
	}

	dev := c.cfg.Device
	timestamp := c.cfg.Clock().UTC().Format(timestampLayout)
	claim, err := c.deviceKeyPair.DeviceClaim(dev.DeviceGroupKey, dev.DeviceKey, dev.Password, salt, B, secretBlock, timestamp)
	if err != nil {
		return c.fail(err)
	}

	responses := c.baseResponses()
	responses[protocol.ResponseTimestamp] = timestamp
	responses[protocol.ResponseClaimSecretBlock] = ch.Parameters[protocol.ParamSecretBlock]
	responses[protocol.ResponseClaimSignature] = base64.StdEncoding.EncodeToString(claim)

	c.pending = protocol.ChallengeDevicePasswordVerifier
	return c.transition(StateAwaitingVerdict, &protocol.ChallengeResponse{
		Challenge: protocol.ChallengeDevicePasswordVerifier,
		Responses: responses,
	}), nil
}

func (c *Coordinator) advanceCustom(ev Event) (Transition, error) {
	answer, ok := ev.(SubmitCustomAnswer)
	if !ok {
		return c.violation(fmt.Sprintf("unexpected event %T while answering custom challenge", ev))
	}

	responses := c.baseResponses()
	for k, v := range answer.Responses {
		responses[k] = v
	}

	c.pending = c.custom
	return c.transition(StateAwaitingVerdict, &protocol.ChallengeResponse{
		Challenge: c.custom,
		Responses: responses,
	}), nil
}

// baseResponses returns the keys attached to every outgoing payload.
func (c *Coordinator) baseResponses() map[string]string {
	responses := map[string]string{
		protocol.ResponseUsername: c.username,
	}
	if c.cfg.ClientSecret != "" {
		responses[protocol.ResponseSecretHash] = srp.SecretHash(c.username, c.cfg.ClientID, c.cfg.ClientSecret)
	}
	if c.cfg.Device != nil {
		responses[protocol.ResponseDeviceKey] = c.cfg.Device.DeviceKey
	}
	return responses
}

func (c *Coordinator) transition(to State, payload *protocol.ChallengeResponse) Transition {
	tr := Transition{From: c.state, To: to, Payload: payload}
	c.state = to
	return tr
}

func (c *Coordinator) fail(err error) (Transition, error) {
	return c.transition(StateFailed, nil), fmt.Errorf("flow %s: %w", c.id, err)
}

func (c *Coordinator) violation(details string) (Transition, error) {
	return c.fail(protocol.NewProtocolViolationError(details))
}

// parseVerifierParams decodes the SRP_B, SALT, and SECRET_BLOCK parameters of
// a verifier challenge. SRP_B and SALT arrive as little-endian-ordered hex;
// the secret block arrives base64-encoded and stays opaque.
func parseVerifierParams(params map[string]string) (salt, B *big.Int, secretBlock []byte, err error) {
	salt, err = bigint.FromUnsignedLittleEndianHex(params[protocol.ParamSalt])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SALT: %w", err)
	}
	B, err = bigint.FromUnsignedLittleEndianHex(params[protocol.ParamSRPB])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SRP_B: %w", err)
	}
	secretBlock, err = base64.StdEncoding.DecodeString(params[protocol.ParamSecretBlock])
	if err != nil {
		return nil, nil, nil, protocol.NewInvalidEncodingError("SECRET_BLOCK: " + err.Error())
	}
	return salt, B, secretBlock, nil
}
