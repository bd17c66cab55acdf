package reviewapi

import (
	"encoding/json"
	"errors"

	"github.com/samvad-hq/codereview/pkg/httpclient"
)

// Messages surfaced to callers of AnalyzeCode.
const (
	MsgAnalysisFailed = "Analysis failed"
	MsgNoResponse     = "No response from server. Is the backend running?"
	MsgSetupFailed    = "Error setting up request"
)

// ErrorKind mirrors the transport classification.
type ErrorKind = httpclient.ErrorKind

const (
	KindServerError = httpclient.KindServerError
	KindNoResponse  = httpclient.KindNoResponse
	KindSetupError  = httpclient.KindSetupError
)

// Error is returned by AnalyzeCode. Its message is meant for end users;
// the underlying cause is available through errors.Unwrap.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// IsServerError reports whether the backend answered with an error status.
func IsServerError(err error) bool { return kindOf(err) == KindServerError }

// IsNoResponse reports whether the backend could not be reached.
func IsNoResponse(err error) bool { return kindOf(err) == KindNoResponse }

// IsSetupError reports whether the request could not be built.
func IsSetupError(err error) bool { return kindOf(err) == KindSetupError }

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// toError maps a transport failure onto the user-facing Error.
func toError(err error) *Error {
	var te *httpclient.TransportError
	if !errors.As(err, &te) {
		return &Error{Kind: KindSetupError, Message: MsgSetupFailed, Err: err}
	}

	switch te.Kind {
	case httpclient.KindServerError:
		return &Error{
			Kind:       KindServerError,
			StatusCode: te.StatusCode,
			Message:    detailOrDefault(te.Body),
			Err:        te,
		}
	case httpclient.KindNoResponse:
		return &Error{Kind: KindNoResponse, Message: MsgNoResponse, Err: te}
	default:
		return &Error{Kind: KindSetupError, Message: MsgSetupFailed, Err: te}
	}
}

// detailOrDefault extracts a string "detail" field from an error body.
// Structured details (FastAPI validation lists) fall back to the default.
func detailOrDefault(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return MsgAnalysisFailed
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return MsgAnalysisFailed
	}
	if detail == "" {
		return MsgAnalysisFailed
	}
	return detail
}
