package playfab

import (
	"fmt"
	"strings"
)

// CredentialRule declares which credential an endpoint requires.
type CredentialRule int

const (
	// AuthNone sends no credential header (login and registration calls).
	AuthNone CredentialRule = iota
	// AuthSecretKey sends the title's developer secret key.
	AuthSecretKey
	// AuthEntityToken sends the entity token of the authenticated session.
	AuthEntityToken
	// AuthTelemetryKey sends a caller-supplied telemetry key.
	AuthTelemetryKey
	// AuthSessionTicket sends the client session ticket (Client API family).
	AuthSessionTicket
)

// Credential header names.
const (
	HeaderSecretKey     = "X-SecretKey"
	HeaderEntityToken   = "X-EntityToken"
	HeaderTelemetryKey  = "X-TelemetryKey"
	HeaderAuthorization = "X-Authorization"
)

var ruleNames = map[CredentialRule]string{
	AuthNone:          "none",
	AuthSecretKey:     "secretKey",
	AuthEntityToken:   "entityToken",
	AuthTelemetryKey:  "telemetryKey",
	AuthSessionTicket: "sessionTicket",
}

// String returns the rule name used in descriptor tables.
func (r CredentialRule) String() string {
	if name, ok := ruleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("CredentialRule(%d)", int(r))
}

// HeaderName returns the HTTP header that carries the credential, or "" for AuthNone.
func (r CredentialRule) HeaderName() string {
	switch r {
	case AuthSecretKey:
		return HeaderSecretKey
	case AuthEntityToken:
		return HeaderEntityToken
	case AuthTelemetryKey:
		return HeaderTelemetryKey
	case AuthSessionTicket:
		return HeaderAuthorization
	default:
		return ""
	}
}

// Required reports whether a call under this rule must carry a credential.
func (r CredentialRule) Required() bool {
	return r != AuthNone
}

// ParseCredentialRule parses a rule name (case-insensitive). Header names are accepted too.
// An empty name is an error; endpoints without a credential must say "none".
func ParseCredentialRule(s string) (CredentialRule, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for rule, name := range ruleNames {
		if key == strings.ToLower(name) || (rule != AuthNone && key == strings.ToLower(rule.HeaderName())) {
			return rule, nil
		}
	}
	if key == "" {
		return AuthNone, fmt.Errorf("empty credential rule")
	}
	return AuthNone, fmt.Errorf("unknown credential rule %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r CredentialRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *CredentialRule) UnmarshalText(text []byte) error {
	rule, err := ParseCredentialRule(string(text))
	if err != nil {
		return err
	}
	*r = rule
	return nil
}
