package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hookfeed/hook-ingestor/internal/adapter"
	"github.com/hookfeed/hook-ingestor/internal/domain"
	"github.com/hookfeed/hook-ingestor/internal/events"
	"github.com/hookfeed/hook-ingestor/internal/logger"
	"github.com/hookfeed/hook-ingestor/internal/signature"
	"github.com/hookfeed/hook-ingestor/internal/store"
	"github.com/hookfeed/hook-ingestor/internal/store/schema"
)

// Response messages that are part of the external contract
const (
	msgMissingFields      = "Missing required fields: headers and body"
	msgReceiverNotFound   = "Webhook receiver not found"
	msgSecretNotSet       = "HMAC secret not configured"
	msgMissingHMACHeaders = "Missing webhook-id or webhook-signature for HMAC validation"
	msgSignatureFailed    = "Signature verification failed"
	msgInvalidJSON        = "Invalid JSON in body"
	msgWriteFailed        = "Failed to insert/upsert data"
	msgInternalError      = "Internal server error"
)

// Orchestrator sequences one webhook delivery through authentication,
// idempotency-key derivation, payload filtering and the row write
type Orchestrator interface {
	// Process runs the full ingestion state machine for one delivery and
	// returns the terminal outcome. All effects (ledger writes, row writes)
	// happen against the injected store; nothing is retained across calls.
	Process(ctx context.Context, receiverID uint64, env Envelope) Outcome
}

type orchestrator struct {
	store     store.Store
	clock     adapter.Clock
	publisher events.Publisher
}

// NewOrchestrator creates an ingestion orchestrator. The publisher may be nil
// when outcome events are disabled.
func NewOrchestrator(s store.Store, clock adapter.Clock, publisher events.Publisher) Orchestrator {
	return &orchestrator{
		store:     s,
		clock:     clock,
		publisher: publisher,
	}
}

// Process implements the ingestion state machine. Failure branches before
// receiver resolution never write a ledger entry; every branch at or past
// idempotency-key derivation writes exactly one.
func (o *orchestrator) Process(ctx context.Context, receiverID uint64, env Envelope) Outcome {
	if env.Headers == nil || env.Body == nil {
		return Rejected(http.StatusBadRequest, msgMissingFields)
	}

	headers := normalizeHeaders(env.Headers)
	body := *env.Body
	deliveryID := headers[HeaderWebhookID]
	sig := headers[HeaderWebhookSignature]
	timestamp := headers[HeaderWebhookTimestamp]
	if timestamp == "" {
		timestamp = strconv.FormatInt(o.clock.Now().Unix(), 10)
	}

	receiver, err := o.store.GetReceiverByID(ctx, receiverID)
	if err != nil {
		logger.Error(err, zap.Uint64("receiver_id", receiverID))
		return Rejected(http.StatusInternalServerError, msgInternalError)
	}
	if receiver == nil {
		// No audit row here: there is no receiver to attribute it to
		return Rejected(http.StatusNotFound, msgReceiverNotFound)
	}

	if receiver.AuthType == domain.AuthTypeHMAC {
		if receiver.HMACSecret == "" {
			return Rejected(http.StatusInternalServerError, msgSecretNotSet)
		}
		if deliveryID == "" || sig == "" {
			return Rejected(http.StatusBadRequest, msgMissingHMACHeaders)
		}
		if !signature.Verify(deliveryID, timestamp, body, receiver.HMACSecret, sig) {
			// A replayed bad delivery conflicts on the ledger; it is already
			// recorded, so the 401 stands either way.
			o.recordAttempt(ctx, receiver, deliveryID, env, timestamp, domain.ResultSignatureFailed, msgSignatureFailed)
			return Rejected(http.StatusUnauthorized, msgSignatureFailed)
		}
	}

	key := o.deriveIdempotencyKey(receiver, deliveryID, timestamp, body, sig)

	prior, err := o.store.GetAttempt(ctx, receiver.ID, key)
	if err != nil {
		logger.Error(err, zap.Uint64("receiver_id", receiver.ID))
		return Rejected(http.StatusInternalServerError, msgInternalError)
	}
	if prior != nil {
		return Duplicate()
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		if o.recordAttempt(ctx, receiver, key, env, timestamp, domain.ResultInvalidJSON, msgInvalidJSON) {
			return Duplicate()
		}
		return Rejected(http.StatusBadRequest, msgInvalidJSON)
	}

	meta, err := o.store.GetTableMetadata(ctx, receiver.TargetTable)
	if err != nil {
		logger.Error(err, zap.String("table", receiver.TargetTable))
		return Rejected(http.StatusInternalServerError, msgInternalError)
	}
	if meta == nil {
		msg := fmt.Sprintf("Table metadata not found for %s", receiver.TargetTable)
		if o.recordAttempt(ctx, receiver, key, env, timestamp, domain.ResultTableNotFound, msg) {
			return Duplicate()
		}
		return Rejected(http.StatusNotFound, msg)
	}

	fields, err := o.store.GetTableFields(ctx, receiver.TargetTable)
	if err != nil {
		logger.Error(err, zap.String("table", receiver.TargetTable))
		return Rejected(http.StatusInternalServerError, msgInternalError)
	}

	row := filterPayload(payload, fields)

	// Upsert decision is made on the raw payload, not the filtered row
	var idColumn string
	upsert := false
	if meta.IDColumn != nil && *meta.IDColumn != "" {
		idColumn = *meta.IDColumn
		if v, ok := payload[idColumn]; ok && v != nil {
			upsert = true
		}
	}

	var writeErr error
	if upsert {
		writeErr = o.store.UpsertRow(ctx, receiver.TargetTable, idColumn, row.Values())
	} else {
		writeErr = o.store.InsertRow(ctx, receiver.TargetTable, row.Values())
	}
	if writeErr != nil {
		if o.recordAttempt(ctx, receiver, key, env, timestamp, domain.ResultInsertFailed, writeErr.Error()) {
			return Duplicate()
		}
		return RejectedWithDetails(http.StatusInternalServerError, msgWriteFailed, writeErr.Error())
	}

	if o.recordAttempt(ctx, receiver, key, env, timestamp, domain.ResultSuccess, "") {
		return Duplicate()
	}
	return Accepted()
}

// deriveIdempotencyKey picks the dedup key for a delivery. The priority order
// decides which retried deliveries collapse together and must not change:
//  1. authenticated receivers key on the delivery identifier itself
//  2. a configured secret plus a delivery identifier gives unauthenticated
//     receivers a deterministic key without requiring verification
//  3. a supplied signature header is used verbatim
//  4. otherwise the key is content-derived: a signature over the same triple
//     keyed by receiver id + timestamp + body
func (o *orchestrator) deriveIdempotencyKey(receiver *schema.WebhookReceiver, deliveryID, timestamp, body, sig string) string {
	switch {
	case receiver.AuthType == domain.AuthTypeHMAC:
		return deliveryID
	case receiver.HMACSecret != "" && deliveryID != "":
		return signature.Compute(deliveryID, timestamp, body, receiver.HMACSecret)
	case sig != "":
		return sig
	default:
		contentSecret := fmt.Sprintf("%d%s%s", receiver.ID, timestamp, body)
		return signature.Compute(deliveryID, timestamp, body, contentSecret)
	}
}

// filterPayload keeps only the payload's top-level keys that name known table
// fields. Unknown keys are dropped silently.
func filterPayload(payload map[string]interface{}, fields []*schema.TableField) domain.Row {
	known := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		known[field.FieldName] = struct{}{}
	}

	row := make(domain.Row)
	for key, value := range payload {
		if _, ok := known[key]; ok {
			row[key] = domain.NewFieldValue(value)
		}
	}
	return row
}

// recordAttempt appends the ledger entry for this delivery and publishes the
// outcome event. Returns true when the entry already exists, meaning a
// concurrent delivery with the same key won the race.
//
// Ledger and publish failures never override the outcome already computed;
// they are surfaced as diagnostics only.
func (o *orchestrator) recordAttempt(ctx context.Context, receiver *schema.WebhookReceiver, idempotencyKey string, env Envelope, timestamp string, code domain.ResultCode, errDetail string) bool {
	receivedAt := o.clock.Now().UTC()
	deliveredAt := receivedAt
	if sec, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		deliveredAt = o.clock.Unix(sec, 0).UTC()
	}

	envelope, err := json.Marshal(map[string]interface{}{
		"headers": env.Headers,
		"body":    *env.Body,
	})
	if err != nil {
		logger.Error(err, zap.Uint64("receiver_id", receiver.ID))
		envelope = []byte("{}")
	}

	attempt := &schema.WebhookReceiverLog{
		ReceiverID:     receiver.ID,
		IdempotencyKey: idempotencyKey,
		DeliveredAt:    deliveredAt,
		ReceivedAt:     receivedAt,
		Envelope:       envelope,
		ResultCode:     code,
	}
	if errDetail != "" {
		attempt.ErrorDetail = &errDetail
	}

	if err := o.store.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			logger.Warn("concurrent duplicate delivery lost the ledger race",
				zap.Uint64("receiver_id", receiver.ID),
				zap.String("idempotency_key", idempotencyKey),
			)
			return true
		}
		logger.Error(err,
			zap.Uint64("receiver_id", receiver.ID),
			zap.String("idempotency_key", idempotencyKey),
			zap.String("result", code.String()),
		)
		return false
	}

	if o.publisher != nil {
		ev := events.AttemptEvent{
			ReceiverID:     receiver.ID,
			IdempotencyKey: idempotencyKey,
			ResultCode:     int(code),
			TableName:      receiver.TargetTable,
			ReceivedAt:     receivedAt,
		}
		if err := o.publisher.PublishAttempt(ctx, ev); err != nil {
			logger.Warn("failed to publish attempt event",
				zap.Error(err),
				zap.Uint64("receiver_id", receiver.ID),
			)
		}
	}

	return false
}
