package articles

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/sellers"
	"github.com/kinderbasar/backend/pkg/response"
)

// ArticleRequest is the body for creating or updating an article.
type ArticleRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Size       string `json:"size" binding:"max=50"`
	PriceCents int64  `json:"price_cents" binding:"required"`
}

func (r ArticleRequest) input() Input {
	return Input{Name: r.Name, Size: r.Size, PriceCents: r.PriceCents}
}

// Handler handles article HTTP endpoints.
type Handler struct {
	repo    *Repository
	sellers *sellers.Repository
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates an article handler.
func NewHandler(repo *Repository, sellerRepo *sellers.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, sellers: sellerRepo, logger: logger, now: time.Now}
}

func parseParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// authorizeSeller checks access to the seller owning sellerID.
func (h *Handler) authorizeSeller(c *gin.Context, sellerID uuid.UUID) bool {
	s, err := h.sellers.GetByID(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if err := sellers.Authorize(c, s); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// Create handles POST /sellers/:id/articles.
func (h *Handler) Create(c *gin.Context) {
	sellerID, ok := parseParam(c, "id")
	if !ok || !h.authorizeSeller(c, sellerID) {
		return
	}
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a, err := h.repo.Create(c.Request.Context(), sellerID, req.input(), h.now())
	if err != nil {
		if _, ok := bazaar.AsError(err); !ok {
			h.logger.Error("create article failed", zap.String("seller_id", sellerID.String()), zap.Error(err))
		}
		response.Error(c, err)
		return
	}
	response.Created(c, a)
}

// ListBySeller handles GET /sellers/:id/articles.
func (h *Handler) ListBySeller(c *gin.Context) {
	sellerID, ok := parseParam(c, "id")
	if !ok || !h.authorizeSeller(c, sellerID) {
		return
	}
	list, err := h.repo.ListBySeller(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /articles/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.authorizeSeller(c, a.SellerID) {
		return
	}
	response.OK(c, a)
}

// Update handles PUT /articles/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.authorizeSeller(c, a.SellerID) {
		return
	}
	var req ArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a, err = h.repo.Update(c.Request.Context(), id, req.input(), h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, a)
}

// Delete handles DELETE /articles/:id (AJAX).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !h.authorizeSeller(c, a.SellerID) {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id, h.now()); err != nil {
		response.Error(c, err)
		return
	}
	response.Toggle(c, true)
}

// Lookup handles GET /events/:id/articles/lookup?seller=12&label=3 for the checkout scan.
func (h *Handler) Lookup(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	sellerNumber, err1 := strconv.Atoi(c.Query("seller"))
	labelNumber, err2 := strconv.Atoi(c.Query("label"))
	if err1 != nil || err2 != nil {
		response.BadRequest(c, "seller and label must be numbers")
		return
	}
	a, err := h.repo.FindByLabel(c.Request.Context(), eventID, sellerNumber, labelNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, a)
}

