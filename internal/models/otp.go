package models

import "time"

// VerificationCode is a single-use code issued to an owner (e-mail address or
// phone number, normalized to lower case).
type VerificationCode struct {
	Owner     string    `json:"owner"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the code is past its validity window at now.
func (v *VerificationCode) Expired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}

// VerificationResult is the outcome of a verification attempt.
type VerificationResult string

const (
	CodeVerified VerificationResult = "verified"
	CodeNotFound VerificationResult = "not_found"
	CodeExpired  VerificationResult = "expired"
)
