package reviewapi

import (
	"encoding/json"
	"errors"
)

// StatusOffline is reported by CheckHealth when the backend cannot be confirmed reachable.
const StatusOffline = "offline"

var offlinePayload = json.RawMessage(`{"status":"offline"}`)

// AnalysisRequest is the body sent to the analyze endpoint.
// Neither field is validated locally.
type AnalysisRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// AnalysisResult is the server's JSON response, kept byte for byte.
type AnalysisResult json.RawMessage

// Decode unmarshals the result into v.
func (r AnalysisResult) Decode(v any) error {
	if len(r) == 0 {
		return errors.New("empty analysis result")
	}
	return json.Unmarshal(r, v)
}

// MarshalJSON emits the stored payload unchanged.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// Review is the shape returned by the bundled backend.
type Review struct {
	Review    string `json:"review"`
	Docstring string `json:"docstring"`
	Language  string `json:"language"`
}

// HealthStatus is the health endpoint payload. Raw holds the body exactly as
// received, or the offline sentinel.
type HealthStatus struct {
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"-"`
}

// Offline returns the sentinel status used when the backend is unreachable.
func Offline() HealthStatus {
	return HealthStatus{Status: StatusOffline, Raw: offlinePayload}
}

// IsOffline reports whether h is the offline sentinel.
func (h HealthStatus) IsOffline() bool { return h.Status == StatusOffline }

// MarshalJSON emits the payload as received so extra fields survive.
func (h HealthStatus) MarshalJSON() ([]byte, error) {
	if len(h.Raw) > 0 {
		return h.Raw, nil
	}
	type plain HealthStatus
	return json.Marshal(plain(h))
}
