package registrations

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/response"
)

// RegisterRequest is the body for POST /events/:id/registrations.
type RegisterRequest struct {
	Name          string   `json:"name" binding:"required,max=200"`
	Email         string   `json:"email" binding:"required,email"`
	Phone         string   `json:"phone" binding:"max=50"`
	Clothing      []string `json:"clothing" binding:"max=20,dive,max=50"`
	PreferredRole string   `json:"preferred_role"`
}

// AcceptResponse reports the seller created (or found) for an accepted registration.
type AcceptResponse struct {
	Success bool           `json:"success"`
	Created bool           `json:"created"`
	Seller  *models.Seller `json:"seller"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a registrations handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

func parseParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) create(c *gin.Context, checkWindow bool) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := bazaar.ParseSellerRole(req.PreferredRole)
	if err != nil {
		response.Error(c, err)
		return
	}
	reg := &models.SellerRegistration{
		EventID:       eventID,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Clothing:      req.Clothing,
		PreferredRole: role,
	}
	if err := h.repo.Create(c.Request.Context(), reg, CreateOptions{Now: h.now(), CheckWindow: checkWindow}); err != nil {
		if _, ok := bazaar.AsError(err); !ok {
			h.logger.Error("create registration failed", zap.String("event_id", eventID.String()), zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	h.logger.Info("registration created", zap.String("event_id", eventID.String()), zap.String("registration_id", reg.ID.String()))
	response.Created(c, reg)
}

// Register handles POST /events/:id/registrations (public, registration window only).
func (h *Handler) Register(c *gin.Context) {
	h.create(c, true)
}

// Add handles POST /events/:id/registrations/manual (staff, no window check).
func (h *Handler) Add(c *gin.Context) {
	h.create(c, false)
}

// List handles GET /events/:id/registrations?filter=pending|accepted|denied (staff).
func (h *Handler) List(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	filter := models.RegistrationFilter(c.Query("filter"))
	switch filter {
	case models.RegistrationsAll, models.RegistrationsPending, models.RegistrationsAccepted, models.RegistrationsDenied:
	default:
		response.BadRequest(c, "invalid filter")
		return
	}
	list, err := h.repo.List(c.Request.Context(), eventID, filter)
	if err != nil {
		h.logger.Error("list registrations failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /registrations/:id (staff).
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	reg, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reg)
}

// Accept handles POST /registrations/:id/accept (staff, AJAX).
func (h *Handler) Accept(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	seller, created, err := h.repo.Accept(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("accept registration failed", zap.String("registration_id", id.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	if created {
		h.logger.Info("seller created", zap.String("registration_id", id.String()), zap.Int("seller_number", seller.SellerNumber))
	}
	c.JSON(http.StatusOK, AcceptResponse{Success: true, Created: created, Seller: seller})
}

// Deny handles POST /registrations/:id/deny (staff, AJAX).
func (h *Handler) Deny(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	if err := h.repo.Deny(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// Delete handles DELETE /registrations/:id (staff, AJAX).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}
