// Package playfab implements the generic call path shared by every backend endpoint:
// pick a credential, POST the payload, and unwrap the response envelope into an Outcome.
package playfab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
)

const logPrefix = "playfab:dispatcher"

var errMissingData = errors.New(`envelope has no "data" value`)

// TransportRequest is everything a Transport needs to issue one POST.
type TransportRequest struct {
	Path         string
	Body         []byte
	HeaderName   string
	HeaderValue  string
	ExtraHeaders map[string]string
}

// Transport performs the network POST. It returns the raw success body, or an error
// (normally *APIError) when the call failed for any reason.
type Transport interface {
	DoPost(ctx context.Context, req *TransportRequest) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *TransportRequest) ([]byte, error)

// DoPost implements Transport.
func (f TransportFunc) DoPost(ctx context.Context, req *TransportRequest) ([]byte, error) {
	return f(ctx, req)
}

// ErrorObserver is notified of transport failures. It cannot change the returned Outcome.
type ErrorObserver interface {
	ObserveTransportError(ctx context.Context, call CallInfo, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveTransportError(context.Context, CallInfo, error) {}

// Dispatcher executes calls. It is safe for concurrent use.
type Dispatcher struct {
	settings   Settings
	auth       atomic.Pointer[AuthContext]
	transport  Transport
	serializer Serializer
	observer   ErrorObserver
}

// DispatcherParams holds parameters for NewDispatcher.
type DispatcherParams struct {
	Settings Settings
	// AuthContext is the default session context; may be nil until a login completes.
	AuthContext *AuthContext
	Transport   Transport
	// Serializer defaults to JSONSerializer.
	Serializer Serializer
	// Observer defaults to a no-op.
	Observer ErrorObserver
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Transport == nil {
		return nil, fmt.Errorf("%s - transport is required", logPrefix)
	}
	d := &Dispatcher{
		settings:   params.Settings,
		transport:  params.Transport,
		serializer: params.Serializer,
		observer:   params.Observer,
	}
	if d.serializer == nil {
		d.serializer = JSONSerializer{}
	}
	if d.observer == nil {
		d.observer = noopObserver{}
	}
	if params.AuthContext != nil {
		d.auth.Store(params.AuthContext)
	}
	return d, nil
}

// Settings returns the dispatcher's settings.
func (d *Dispatcher) Settings() Settings {
	return d.settings
}

// SetAuthContext replaces the default session context. Calls already in flight keep the one they read.
func (d *Dispatcher) SetAuthContext(ac *AuthContext) {
	d.auth.Store(ac)
}

// AuthContext returns the default session context, or nil.
func (d *Dispatcher) AuthContext() *AuthContext {
	return d.auth.Load()
}

// Dispatch executes one call against ep and returns its Outcome.
func Dispatch[Res any, C any](ctx context.Context, d *Dispatcher, ep Endpoint[Res], req Request[C]) Outcome[Res, C] {
	slog.Debug(fmt.Sprintf("%s - %s auth=%s", logPrefix, ep.Path, ep.Auth))

	headerValue, err := d.resolveCredential(ep.Info(), req.AuthContext, req.Payload)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - %v", logPrefix, err))
		return Failure[Res](err, req.CustomData)
	}

	body := []byte("{}")
	if req.Payload != nil {
		body, err = d.serializer.Marshal(req.Payload)
		if err != nil {
			return Failure[Res](&EncodeError{Path: ep.Path, Err: err}, req.CustomData)
		}
	}

	raw, err := d.transport.DoPost(ctx, &TransportRequest{
		Path:         ep.Path,
		Body:         body,
		HeaderName:   ep.Auth.HeaderName(),
		HeaderValue:  headerValue,
		ExtraHeaders: req.ExtraHeaders,
	})
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - %s failed: %v", logPrefix, ep.Path, err))
		d.observer.ObserveTransportError(ctx, ep.Info(), err)
		return Failure[Res](err, req.CustomData)
	}

	var env SuccessEnvelope[Res]
	if err := d.serializer.Unmarshal(raw, &env); err != nil {
		slog.Error(fmt.Sprintf("%s - %s returned a malformed envelope: %v", logPrefix, ep.Path, err))
		return Failure[Res](&DecodeError{Path: ep.Path, Body: raw, Err: err}, req.CustomData)
	}
	if env.Data == nil {
		slog.Error(fmt.Sprintf("%s - %s returned an envelope without data", logPrefix, ep.Path))
		return Failure[Res](&DecodeError{Path: ep.Path, Body: raw, Err: errMissingData}, req.CustomData)
	}
	return Success(*env.Data, req.CustomData)
}

// resolveCredential returns the header value for call.Auth. Precedence for session
// credentials: explicit override, then a payload-embedded context, then the default.
func (d *Dispatcher) resolveCredential(call CallInfo, override *AuthContext, payload any) (string, error) {
	var value string
	switch call.Auth {
	case AuthNone:
		return "", nil
	case AuthSecretKey:
		value = d.settings.DeveloperSecretKey
	default:
		if ac := d.sessionContext(override, payload); ac != nil {
			switch call.Auth {
			case AuthEntityToken:
				value = ac.EntityToken
			case AuthTelemetryKey:
				value = ac.TelemetryKey
			case AuthSessionTicket:
				value = ac.ClientSessionTicket
			}
		}
	}
	if value == "" {
		return "", &CredentialMissingError{Path: call.Path, Rule: call.Auth}
	}
	return value, nil
}

func (d *Dispatcher) sessionContext(override *AuthContext, payload any) *AuthContext {
	if override != nil {
		return override
	}
	if carrier, ok := payload.(AuthContextCarrier); ok && !isNilPointer(payload) {
		if ac := carrier.PlayFabAuthContext(); ac != nil {
			return ac
		}
	}
	return d.auth.Load()
}

// isNilPointer reports a typed nil pointer, whose promoted value-receiver
// methods would panic.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
