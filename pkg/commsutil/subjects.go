package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectRelay      = "playfab.relay.v1"
	SubjectErrorEvent = "playfab.errors"
)

// BuildErrorSubject builds the granular subject for API error events on an endpoint
// key such as "Admin/DeleteTask".
func BuildErrorSubject(endpointKey string) string {
	parts := strings.Split(strings.Trim(endpointKey, "/"), "/")
	for i, p := range parts {
		parts[i] = subjectToken(p)
	}
	return fmt.Sprintf("%s.%s", SubjectErrorEvent, strings.Join(parts, "."))
}

// subjectToken strips characters NATS treats specially.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
