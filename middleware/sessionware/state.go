package sessionware

import auth "github.com/goliatone/go-shop-auth"

// State is the outcome of checking a request's session credential
type State int

const (
	// NoCredential no token was presented
	NoCredential State = iota
	// CredentialInvalid a token was presented but did not verify
	CredentialInvalid
	// CredentialValid the token verified and claims are available
	CredentialValid
)

func (s State) String() string {
	switch s {
	case NoCredential:
		return "no_credential"
	case CredentialInvalid:
		return "credential_invalid"
	case CredentialValid:
		return "credential_valid"
	}
	return "unknown"
}

// Classify runs token through verifier. Claims are only returned for
// CredentialValid.
func Classify(token string, verifier auth.SessionVerifier) (State, *auth.SessionClaims) {
	if token == "" {
		return NoCredential, nil
	}
	claims, ok := verifier.Verify(token)
	if !ok || claims == nil {
		return CredentialInvalid, nil
	}
	return CredentialValid, claims
}
