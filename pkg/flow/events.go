package flow

import "github.com/calderaid/caldera-go/pkg/protocol"

// Event is one input to the coordinator: either a service response relayed by
// the identity-service client, or an answer supplied by the caller. The
// variants form a closed set; the coordinator switches on the concrete type.
type Event interface {
	event()
}

// ChallengeReceived carries the service's answer to the previous payload: the
// next challenge (by name, with its parameters) or, on success, the token
// set. An empty Name with non-nil Tokens means authentication completed.
type ChallengeReceived struct {
	Name       protocol.ChallengeName
	Parameters map[string]string
	Tokens     *protocol.Tokens
}

// ServiceRejected reports a service-side rejection of the previous payload,
// passed through verbatim by the identity-service client.
type ServiceRejected struct {
	Code    protocol.ErrorCode
	Message string
}

// SubmitMFACode is the caller supplying an out-of-band MFA code.
type SubmitMFACode struct {
	Code string
}

// SubmitNewPassword is the caller supplying the new password demanded by a
// NEW_PASSWORD_REQUIRED challenge.
type SubmitNewPassword struct {
	Password string
}

// SubmitCustomAnswer is the caller answering an opaque custom challenge.
type SubmitCustomAnswer struct {
	Responses map[string]string
}

func (ChallengeReceived) event()  {}
func (ServiceRejected) event()    {}
func (SubmitMFACode) event()      {}
func (SubmitNewPassword) event()  {}
func (SubmitCustomAnswer) event() {}
