package attendance

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	codeKind = "attendance"

	// DefaultMaxAge is how long a code stays usable after it was issued.
	DefaultMaxAge = 15 * time.Minute
)

var NowFunc = time.Now // mockable

// Token is what an attendance code carries.
type Token struct {
	SessionID string
	IssuedAt  int64 // unix milliseconds
}

func (t Token) IssuedTime() time.Time {
	return time.Unix(0, t.IssuedAt*int64(time.Millisecond)).UTC()
}

// DecodeError is returned by Decode for anything that is not a well-formed code.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid code: %s: %v", e.Reason, e.Err)
	}
	return "invalid code: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

type payload struct {
	SessionID *string `json:"sid"`
	IssuedAt  *int64  `json:"iat"`
	Kind      string  `json:"kind"`
}

// Encode binds a session and an issuance time (unix ms) into an opaque code.
// The code is not signed: it only prevents casual reuse, not forgery.
func Encode(sessionID string, issuedAt int64) string {
	data, _ := json.Marshal(payload{SessionID: &sessionID, IssuedAt: &issuedAt, Kind: codeKind})
	return base64.RawURLEncoding.EncodeToString(data)
}

// NewCode issues a code for sessionID at the current time.
func NewCode(sessionID string) (string, time.Time) {
	now := NowFunc()
	return Encode(sessionID, now.UnixNano()/int64(time.Millisecond)), now.UTC()
}

// Decode recovers the Token of a code produced by Encode.
func Decode(code string) (Token, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Token{}, &DecodeError{Reason: "empty"}
	}

	data, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return Token{}, &DecodeError{Reason: "bad encoding", Err: err}
	}

	var p payload
	if err = json.Unmarshal(data, &p); err != nil {
		return Token{}, &DecodeError{Reason: "bad payload", Err: err}
	}
	switch {
	case p.Kind != codeKind:
		return Token{}, &DecodeError{Reason: "not an attendance code"}
	case p.SessionID == nil:
		return Token{}, &DecodeError{Reason: "missing session"}
	case p.IssuedAt == nil:
		return Token{}, &DecodeError{Reason: "missing issue time"}
	}
	return Token{SessionID: *p.SessionID, IssuedAt: *p.IssuedAt}, nil
}

// IsValid reports whether code was issued for sessionID less than maxAge ago (DefaultMaxAge if not given).
// Codes issued "in the future" (clock skew) are accepted.
func IsValid(code, sessionID string, maxAge ...time.Duration) bool {
	age := DefaultMaxAge
	if len(maxAge) > 0 {
		age = maxAge[0]
	}

	tok, err := Decode(code)
	if err != nil || tok.SessionID != sessionID {
		return false
	}
	// now - issuedAt <= age, without overflowing on far past issue times
	now := NowFunc().UnixNano() / int64(time.Millisecond)
	return tok.IssuedAt >= now-age.Milliseconds()
}
