package outbox

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/pkg/response"
)

// Handler exposes the outbox to admins.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an outbox handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /emails?event_id=&limit=.
func (h *Handler) List(c *gin.Context) {
	var eventID *uuid.UUID
	if s := c.Query("event_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		eventID = &id
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}
	list, err := h.repo.List(c.Request.Context(), eventID, limit)
	if err != nil {
		h.logger.Error("list outbox failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Resend handles POST /emails/:id/resend.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid email id")
		return
	}
	if err := h.repo.Resend(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}
