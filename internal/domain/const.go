package domain

// AuthType is the authentication mode configured on a webhook receiver
type AuthType string

const (
	// AuthTypeHMAC requires a valid HMAC-SHA256 signature on every delivery
	AuthTypeHMAC AuthType = "hmac"
	// AuthTypeNone accepts every delivery without verification
	AuthTypeNone AuthType = "none"
)

// ResultCode is the stable numeric outcome recorded for every ingestion attempt.
// The values are part of the external contract; operators triage on them.
type ResultCode int16

const (
	ResultSuccess         ResultCode = 10
	ResultSignatureFailed ResultCode = 20
	ResultInvalidJSON     ResultCode = 30
	ResultTableNotFound   ResultCode = 40
	ResultInsertFailed    ResultCode = 50
)

// String returns a human-readable name for logging
func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultSignatureFailed:
		return "signature_failed"
	case ResultInvalidJSON:
		return "invalid_json"
	case ResultTableNotFound:
		return "table_not_found"
	case ResultInsertFailed:
		return "insert_failed"
	default:
		return "unknown"
	}
}
