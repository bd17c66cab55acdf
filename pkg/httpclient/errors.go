package httpclient

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an HTTP exchange failed.
type ErrorKind int

const (
	// KindServerError means the server answered with a non-2xx status.
	KindServerError ErrorKind = iota + 1
	// KindNoResponse means the request went out but no response came back.
	KindNoResponse
	// KindSetupError means the request could not be built.
	KindSetupError
)

func (k ErrorKind) String() string {
	switch k {
	case KindServerError:
		return "server_error"
	case KindNoResponse:
		return "no_response"
	case KindSetupError:
		return "setup_error"
	default:
		return "unknown"
	}
}

// TransportError is returned by JSONClient implementations.
// StatusCode and Body are only set for KindServerError.
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindServerError:
		return fmt.Sprintf("http response status %d", e.StatusCode)
	case KindNoResponse:
		return fmt.Sprintf("no response: %v", e.Err)
	default:
		return fmt.Sprintf("request setup: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or zero if err is not a TransportError.
func KindOf(err error) ErrorKind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
