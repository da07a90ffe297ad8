package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/response"
)

// EventRequest is the body for POST /events and PUT /events/:id.
type EventRequest struct {
	Name                 string    `json:"name" binding:"required,max=200"`
	Description          string    `json:"description"`
	Address              string    `json:"address"`
	StartsAt             time.Time `json:"starts_at" binding:"required"`
	EndsAt               time.Time `json:"ends_at" binding:"required"`
	RegisterStartsAt     time.Time `json:"register_starts_at" binding:"required"`
	RegisterEndsAt       time.Time `json:"register_ends_at" binding:"required"`
	EditArticlesEndsAt   time.Time `json:"edit_articles_ends_at" binding:"required"`
	PickupLabelsStartsAt time.Time `json:"pickup_labels_starts_at" binding:"required"`
	PickupLabelsEndsAt   time.Time `json:"pickup_labels_ends_at" binding:"required"`
	MaxSellers           int       `json:"max_sellers" binding:"required,gt=0"`
	CommissionPercent    int       `json:"commission_percent" binding:"gte=0,lte=100"`
}

func (r EventRequest) windows() bazaar.Windows {
	return bazaar.Windows{
		StartsAt:             r.StartsAt,
		EndsAt:               r.EndsAt,
		RegisterStartsAt:     r.RegisterStartsAt,
		RegisterEndsAt:       r.RegisterEndsAt,
		EditArticlesEndsAt:   r.EditArticlesEndsAt,
		PickupLabelsStartsAt: r.PickupLabelsStartsAt,
		PickupLabelsEndsAt:   r.PickupLabelsEndsAt,
	}
}

func (r EventRequest) apply(e *models.Event) {
	e.Name = r.Name
	e.Description = r.Description
	e.Address = r.Address
	e.StartsAt = r.StartsAt
	e.EndsAt = r.EndsAt
	e.RegisterStartsAt = r.RegisterStartsAt
	e.RegisterEndsAt = r.RegisterEndsAt
	e.EditArticlesEndsAt = r.EditArticlesEndsAt
	e.PickupLabelsStartsAt = r.PickupLabelsStartsAt
	e.PickupLabelsEndsAt = r.PickupLabelsEndsAt
	e.MaxSellers = r.MaxSellers
	e.CommissionPercent = r.CommissionPercent
}

// PhaseResponse is the public view of which actions an event allows right now.
type PhaseResponse struct {
	EventID uuid.UUID `json:"event_id"`
	Name    string    `json:"name"`
	bazaar.Phase
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates an event handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

func (h *Handler) bind(c *gin.Context) (*EventRequest, bool) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if derr, ok := bindError(err); ok {
			response.Error(c, derr)
			return nil, false
		}
		response.BadRequest(c, "invalid request: "+err.Error())
		return nil, false
	}
	return &req, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /events (admin, manager).
func (h *Handler) Create(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	userID := middleware.UserID(c)
	e := &models.Event{CreatedBy: &userID}
	req.apply(e)
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Warn("create event failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Created(c, e)
}

// Update handles PUT /events/:id (admin, manager).
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := h.bind(c)
	if !ok {
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.apply(e)
	if err := h.repo.Update(c.Request.Context(), e); err != nil {
		h.logger.Warn("update event failed", zap.String("event_id", id.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /events/:id (AJAX toggle).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// Phase handles GET /events/:id/phase (public).
func (h *Handler) Phase(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, PhaseResponse{EventID: e.ID, Name: e.Name, Phase: e.Windows().PhaseAt(h.now())})
}

// Statistics handles GET /events/:id/statistics (admin, manager).
func (h *Handler) Statistics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, err := h.repo.Statistics(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}
