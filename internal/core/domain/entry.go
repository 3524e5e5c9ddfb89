package domain

import "encoding/json"

// EntryRecord is a normalized retrieval hit from the journal store.
// Identity key is ID; the normalizer enforces uniqueness when merging.
type EntryRecord struct {
	// ID is the store identifier for the entry.
	ID string `json:"id"`

	// ClientID is the client-side identifier, when the store has one.
	ClientID *string `json:"client_id"`

	// Title is the entry title.
	Title string `json:"title"`

	// Date is the entry date as an ISO calendar date string.
	Date string `json:"date"`

	// Similarity is the match score for semantic retrieval.
	// Nil for date-only and by-ID retrieval.
	Similarity *float64 `json:"similarity"`

	// Content is the entry body, populated for by-ID fetches when the
	// store has a content-bearing field.
	Content string `json:"content,omitempty"`
}

// RetrievalEnvelope is the tagged result of the retrieval stage. Exactly one
// of Results or Err is meaningful; the wire format is `{"results": [...]}` on
// success and `{"error": "..."}` on failure, never both.
type RetrievalEnvelope struct {
	Results []EntryRecord
	Err     string
}

// OkEnvelope wraps successful retrieval results.
func OkEnvelope(results []EntryRecord) RetrievalEnvelope {
	if results == nil {
		results = []EntryRecord{}
	}
	return RetrievalEnvelope{Results: results}
}

// ErrorEnvelope wraps a retrieval failure message.
func ErrorEnvelope(message string) RetrievalEnvelope {
	return RetrievalEnvelope{Err: message}
}

// Failed reports whether the envelope carries an error.
func (e RetrievalEnvelope) Failed() bool {
	return e.Err != ""
}

// Empty reports whether the envelope succeeded but matched nothing.
func (e RetrievalEnvelope) Empty() bool {
	return !e.Failed() && len(e.Results) == 0
}

type envelopeWire struct {
	Results []EntryRecord `json:"results,omitempty"`
	Err     string        `json:"error,omitempty"`
}

// MarshalJSON emits the stable envelope wire format. A successful envelope
// always carries a "results" array, even when empty.
func (e RetrievalEnvelope) MarshalJSON() ([]byte, error) {
	if e.Failed() {
		return json.Marshal(envelopeWire{Err: e.Err})
	}
	results := e.Results
	if results == nil {
		results = []EntryRecord{}
	}
	return json.Marshal(struct {
		Results []EntryRecord `json:"results"`
	}{results})
}

// UnmarshalJSON parses either envelope variant.
func (e *RetrievalEnvelope) UnmarshalJSON(data []byte) error {
	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Err != "" {
		*e = ErrorEnvelope(wire.Err)
		return nil
	}
	*e = OkEnvelope(wire.Results)
	return nil
}
