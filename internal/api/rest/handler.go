package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hookfeed/hook-ingestor/internal/domain"
	"github.com/hookfeed/hook-ingestor/internal/ingest"
	"github.com/hookfeed/hook-ingestor/internal/store"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// IngestWebhook receives one webhook delivery
	// POST /hook/:receiverId
	IngestWebhook(c *gin.Context)

	// GetReceiver retrieves one receiver configuration (secret omitted)
	// GET /api/v1/receivers/:receiverId
	GetReceiver(c *gin.Context)

	// ListReceiverLogs retrieves ledger entries for a receiver, newest first
	// GET /api/v1/receivers/:receiverId/logs?limit=<limit>&offset=<offset>
	ListReceiverLogs(c *gin.Context)

	// HealthCheck returns the health status of the service
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	orchestrator ingest.Orchestrator
	store        store.Store
}

// NewHandler creates a new REST API handler
func NewHandler(orchestrator ingest.Orchestrator, s store.Store) Handler {
	return &handler{
		orchestrator: orchestrator,
		store:        s,
	}
}

// IngestWebhook receives one webhook delivery and runs it through the
// ingestion pipeline. The response status and body come entirely from the
// pipeline outcome.
func (h *handler) IngestWebhook(c *gin.Context) {
	receiverID, err := strconv.ParseUint(c.Param("receiverId"), 10, 64)
	if err != nil {
		// A non-numeric identifier can never name a receiver
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook receiver not found"})
		return
	}

	var env ingest.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: headers and body"})
		return
	}

	outcome := h.orchestrator.Process(c.Request.Context(), receiverID, env)
	c.JSON(outcome.Status, outcome.Body)
}

// receiverDTO is the admin view of a receiver. The HMAC secret never leaves
// the store through this surface.
type receiverDTO struct {
	ID          uint64          `json:"id"`
	Label       string          `json:"label"`
	TargetTable string          `json:"target_table"`
	AuthType    domain.AuthType `json:"auth_type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// GetReceiver retrieves one receiver configuration
func (h *handler) GetReceiver(c *gin.Context) {
	receiverID, err := strconv.ParseUint(c.Param("receiverId"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Receiver ID must be a positive integer")
		return
	}

	receiver, err := h.store.GetReceiverByID(c.Request.Context(), receiverID)
	if err != nil {
		respondInternalError(c, err, "Failed to get receiver")
		return
	}
	if receiver == nil {
		respondNotFound(c, "Webhook receiver not found")
		return
	}

	c.JSON(http.StatusOK, receiverDTO{
		ID:          receiver.ID,
		Label:       receiver.Label,
		TargetTable: receiver.TargetTable,
		AuthType:    receiver.AuthType,
		CreatedAt:   receiver.CreatedAt,
		UpdatedAt:   receiver.UpdatedAt,
	})
}

// attemptDTO is the admin view of one ledger entry
type attemptDTO struct {
	ID             uint64            `json:"id"`
	ReceiverID     uint64            `json:"receiver_id"`
	IdempotencyKey string            `json:"idempotency_key"`
	ResultCode     domain.ResultCode `json:"result_code"`
	Result         string            `json:"result"`
	ErrorDetail    *string           `json:"error_detail,omitempty"`
	Envelope       json.RawMessage   `json:"envelope"`
	DeliveredAt    time.Time         `json:"delivered_at"`
	ReceivedAt     time.Time         `json:"received_at"`
}

// ListReceiverLogs retrieves ledger entries for a receiver, newest first
func (h *handler) ListReceiverLogs(c *gin.Context) {
	receiverID, err := strconv.ParseUint(c.Param("receiverId"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Receiver ID must be a positive integer")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			respondBadRequest(c, "limit must be between 1 and 200")
			return
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondBadRequest(c, "offset must be a non-negative integer")
			return
		}
	}

	receiver, err := h.store.GetReceiverByID(c.Request.Context(), receiverID)
	if err != nil {
		respondInternalError(c, err, "Failed to get receiver")
		return
	}
	if receiver == nil {
		respondNotFound(c, "Webhook receiver not found")
		return
	}

	attempts, err := h.store.ListAttempts(c.Request.Context(), receiverID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list ingestion attempts")
		return
	}

	dtos := make([]attemptDTO, 0, len(attempts))
	for _, attempt := range attempts {
		dtos = append(dtos, attemptDTO{
			ID:             attempt.ID,
			ReceiverID:     attempt.ReceiverID,
			IdempotencyKey: attempt.IdempotencyKey,
			ResultCode:     attempt.ResultCode,
			Result:         attempt.ResultCode.String(),
			ErrorDetail:    attempt.ErrorDetail,
			Envelope:       json.RawMessage(attempt.Envelope),
			DeliveredAt:    attempt.DeliveredAt,
			ReceivedAt:     attempt.ReceivedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   dtos,
		"limit":  limit,
		"offset": offset,
	})
}

// HealthCheck returns the health status of the service
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
