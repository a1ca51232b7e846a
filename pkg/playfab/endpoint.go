package playfab

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Endpoint describes one backend route. Res is the type carried in the success envelope's data field.
type Endpoint[Res any] struct {
	// Name is the catalog key, e.g. "Admin/DeleteTask".
	Name string
	Path string
	Auth CredentialRule
}

// NewEndpoint builds an Endpoint, deriving Name from path.
func NewEndpoint[Res any](path string, auth CredentialRule) Endpoint[Res] {
	return Endpoint[Res]{Name: strings.TrimPrefix(path, "/"), Path: path, Auth: auth}
}

// Info returns the untyped descriptor.
func (e Endpoint[Res]) Info() CallInfo {
	return CallInfo{Name: e.Name, Path: e.Path, Auth: e.Auth}
}

func (e Endpoint[Res]) String() string {
	return fmt.Sprintf("%s [%s]", e.Path, e.Auth)
}

// CallInfo is the untyped view of an Endpoint, handed to observers.
type CallInfo struct {
	Name string
	Path string
	Auth CredentialRule
}

// Request is one call's input. It must not be mutated while the call is in flight.
type Request[C any] struct {
	// Payload is the endpoint-specific request body. nil is sent as "{}".
	Payload any
	// AuthContext overrides both a payload-embedded context and the dispatcher default.
	AuthContext *AuthContext
	// ExtraHeaders are added to the outbound call as-is.
	ExtraHeaders map[string]string
	CustomData   C
}

// SuccessEnvelope is the wire wrapper around a successful response.
type SuccessEnvelope[T any] struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   *T     `json:"data"`
}

// Empty is the response type for endpoints whose data is an empty object.
type Empty struct{}

// Raw is the response type for untyped calls.
type Raw = json.RawMessage
