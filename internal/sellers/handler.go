package sellers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/response"
)

// Authorize allows staff and the seller's own user account.
func Authorize(c *gin.Context, s *models.Seller) error {
	if middleware.Role(c).IsStaff() {
		return nil
	}
	if s.UserID != nil && *s.UserID == middleware.UserID(c) {
		return nil
	}
	return bazaar.ErrForbidden
}

// UpdateRequest is the body for PUT /sellers/:id.
type UpdateRequest struct {
	SellerNumber      *int    `json:"seller_number" binding:"omitempty,gt=0"`
	Role              *string `json:"role"`
	MaxArticleCount   *int    `json:"max_article_count" binding:"omitempty,gte=0"`
	CanCreateBillings *bool   `json:"can_create_billings"`
}

// SettlementResponse is the event-wide settlement.
type SettlementResponse struct {
	Sellers []models.SellerSettlement `json:"sellers"`
	Total   bazaar.Settlement         `json:"total"`
}

// Handler handles seller HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a seller handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

func parseParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// loadAuthorized fetches the seller in :id and checks access.
func (h *Handler) loadAuthorized(c *gin.Context) (*models.Seller, bool) {
	id, ok := parseParam(c, "id")
	if !ok {
		return nil, false
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if err := Authorize(c, s); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return s, true
}

// ListByEvent handles GET /events/:id/sellers (staff).
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list sellers failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Mine handles GET /events/:id/sellers/me.
func (h *Handler) Mine(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	s, err := h.repo.GetForUser(c.Request.Context(), eventID, middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}

// ListMine handles GET /account/sellers.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.repo.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /sellers/:id.
func (h *Handler) Get(c *gin.Context) {
	if s, ok := h.loadAuthorized(c); ok {
		response.OK(c, s)
	}
}

// Update handles PUT /sellers/:id (staff).
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := UpdateParams{
		SellerNumber:      req.SellerNumber,
		MaxArticleCount:   req.MaxArticleCount,
		CanCreateBillings: req.CanCreateBillings,
	}
	if req.Role != nil {
		role, err := bazaar.ParseSellerRole(*req.Role)
		if err != nil {
			response.Error(c, err)
			return
		}
		p.Role = &role
	}
	s, err := h.repo.Update(c.Request.Context(), id, p)
	if err != nil {
		h.logger.Warn("update seller failed", zap.String("seller_id", id.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, s)
}

// Settlement handles GET /sellers/:id/settlement.
func (h *Handler) Settlement(c *gin.Context) {
	s, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	st, err := h.repo.Settlement(c.Request.Context(), s.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

// EventSettlement handles GET /events/:id/settlement (staff).
func (h *Handler) EventSettlement(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	list, total, err := h.repo.EventSettlement(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, SettlementResponse{Sellers: list, Total: total})
}
