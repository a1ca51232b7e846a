package playfab

import "errors"

var errNoError = errors.New("failure recorded without an error")

// Kind classifies an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	// KindCredentialMissing: a required credential was absent; nothing was sent.
	KindCredentialMissing
	// KindEncode: the request payload could not be serialized; nothing was sent.
	KindEncode
	// KindTransport: the transport reported a network, HTTP or backend failure.
	KindTransport
	// KindDecode: the success body was not a valid envelope.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindCredentialMissing:
		return "credentialMissing"
	case KindEncode:
		return "encode"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Outcome is the result of one dispatched call: either a result or an error, never both.
// CustomData is echoed back unchanged in both cases.
type Outcome[T any, C any] struct {
	result     T
	err        error
	customData C
}

// Success builds a successful Outcome.
func Success[T any, C any](result T, customData C) Outcome[T, C] {
	return Outcome[T, C]{result: result, customData: customData}
}

// Failure builds a failed Outcome. A nil err is replaced so the outcome still reads as failed.
func Failure[T any, C any](err error, customData C) Outcome[T, C] {
	if err == nil {
		err = errNoError
	}
	return Outcome[T, C]{err: err, customData: customData}
}

// OK reports whether the call succeeded.
func (o Outcome[T, C]) OK() bool {
	return o.err == nil
}

// Result returns the decoded payload and true on success, or the zero value and false.
func (o Outcome[T, C]) Result() (T, bool) {
	if o.err != nil {
		var zero T
		return zero, false
	}
	return o.result, true
}

// Err returns the failure, or nil on success.
func (o Outcome[T, C]) Err() error {
	return o.err
}

// CustomData returns the caller-supplied value passed with the request.
func (o Outcome[T, C]) CustomData() C {
	return o.customData
}

// APIError returns the transport failure, if that is why the call failed.
func (o Outcome[T, C]) APIError() (*APIError, bool) {
	var apiErr *APIError
	if errors.As(o.err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Kind classifies the outcome.
func (o Outcome[T, C]) Kind() Kind {
	switch {
	case o.err == nil:
		return KindSuccess
	case errors.Is(o.err, ErrCredentialMissing):
		return KindCredentialMissing
	case errors.Is(o.err, ErrEncode):
		return KindEncode
	case errors.Is(o.err, ErrDecode):
		return KindDecode
	default:
		return KindTransport
	}
}
