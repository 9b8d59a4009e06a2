package ingest

import (
	"net/http"
	"strings"
)

// Recognized envelope headers, matched case-insensitively
const (
	HeaderWebhookID        = "webhook-id"
	HeaderWebhookTimestamp = "webhook-timestamp"
	HeaderWebhookSignature = "webhook-signature"
)

// Envelope is the inbound delivery wrapper: the sender's headers plus the raw
// body string. Body is a pointer so a missing field can be told apart from an
// empty one.
type Envelope struct {
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body"`
}

// normalizeHeaders lowercases header names for case-insensitive lookup.
// Later duplicates win, matching map iteration being unspecified either way.
func normalizeHeaders(headers map[string]string) map[string]string {
	normalized := make(map[string]string, len(headers))
	for name, value := range headers {
		normalized[strings.ToLower(name)] = value
	}
	return normalized
}

// OutcomeKind discriminates the orchestrator's terminal outcomes
type OutcomeKind int

const (
	// OutcomeAccepted means the payload was written and logged
	OutcomeAccepted OutcomeKind = iota
	// OutcomeDuplicate means the delivery was seen before and discarded
	OutcomeDuplicate
	// OutcomeRejected means the delivery was refused at some pipeline stage
	OutcomeRejected
)

// Outcome is the result of processing one delivery. It carries everything the
// transport layer needs to respond.
type Outcome struct {
	Kind   OutcomeKind
	Status int
	Body   map[string]interface{}
}

// Accepted is the successful outcome
func Accepted() Outcome {
	return Outcome{
		Kind:   OutcomeAccepted,
		Status: http.StatusOK,
		Body:   map[string]interface{}{"success": true},
	}
}

// Duplicate is the idempotent-discard outcome
func Duplicate() Outcome {
	return Outcome{
		Kind:   OutcomeDuplicate,
		Status: http.StatusOK,
		Body: map[string]interface{}{
			"success": true,
			"message": "Duplicate request ignored",
		},
	}
}

// Rejected is a terminal refusal with the given HTTP status
func Rejected(status int, message string) Outcome {
	return Outcome{
		Kind:   OutcomeRejected,
		Status: status,
		Body:   map[string]interface{}{"error": message},
	}
}

// RejectedWithDetails is a terminal refusal carrying the underlying error text
func RejectedWithDetails(status int, message, details string) Outcome {
	return Outcome{
		Kind:   OutcomeRejected,
		Status: status,
		Body: map[string]interface{}{
			"error":   message,
			"details": details,
		},
	}
}
