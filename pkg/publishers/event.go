package publishers

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// EventAnalysisCompleted is the type of events emitted after a successful analysis.
const EventAnalysisCompleted = "analysis.completed"

// Event represents the payload published downstream. Source code and the
// generated text stay local; only their fingerprint and sizes travel.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Language       string    `json:"language"`
	CodeSHA256     string    `json:"code_sha256"`
	CodeChars      int       `json:"code_chars"`
	ReviewChars    int       `json:"review_chars"`
	DocstringChars int       `json:"docstring_chars"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// Analysis is the subset of an analysis outcome needed to build an Event.
type Analysis struct {
	Language  string
	Code      string
	Review    string
	Docstring string
	Provider  string
	Model     string
}

// NewEvent constructs an analysis.completed Event.
func NewEvent(a Analysis) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           EventAnalysisCompleted,
		Language:       a.Language,
		CodeSHA256:     Fingerprint(a.Language, a.Code),
		CodeChars:      len([]rune(a.Code)),
		ReviewChars:    len([]rune(a.Review)),
		DocstringChars: len([]rune(a.Docstring)),
		Provider:       a.Provider,
		Model:          a.Model,
		AnalyzedAt:     time.Now().UTC(),
	}
}

// Fingerprint identifies a (language, code) pair.
func Fingerprint(language, code string) string {
	h := sha256.New()
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}

// attributes are attached to queue/topic messages for routing.
// AWS rejects empty attribute values, so blanks are left out.
func (e Event) attributes() map[string]string {
	out := make(map[string]string, 2)
	if e.Type != "" {
		out["event_type"] = e.Type
	}
	if e.Language != "" {
		out["language"] = e.Language
	}
	return out
}
