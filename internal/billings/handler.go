package billings

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/labels"
	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/response"
)

// BookRequest books an article id, a scanned QR code ("KB:12:3") or a typed
// seller and label number.
type BookRequest struct {
	ArticleID    *uuid.UUID `json:"article_id"`
	Code         string     `json:"code"`
	SellerNumber int        `json:"seller_number" binding:"omitempty,gt=0"`
	LabelNumber  int        `json:"label_number" binding:"omitempty,gt=0"`
}

// Handler handles checkout HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a billing handler.
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

func (h *Handler) fail(c *gin.Context, msg string, id uuid.UUID, err error) {
	if _, ok := bazaar.AsError(err); !ok {
		h.logger.Error(msg, zap.String("billing_id", id.String()), zap.Error(err))
	}
	response.Error(c, err)
}

// loadOwned resolves :id and allows staff and the cashier who opened the billing.
func (h *Handler) loadOwned(c *gin.Context) (*models.Billing, bool) {
	id, ok := parseParam(c, "id")
	if !ok {
		return nil, false
	}
	b, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if !middleware.Role(c).IsStaff() && b.UserID != middleware.UserID(c) {
		response.Error(c, bazaar.ErrForbidden)
		return nil, false
	}
	return b, true
}

// Create handles POST /events/:id/billings.
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	userID := middleware.UserID(c)
	allowed, err := h.repo.CanCreate(c.Request.Context(), eventID, userID, middleware.Role(c))
	if err != nil {
		h.fail(c, "billing permission check failed", eventID, err)
		return
	}
	if !allowed {
		response.Error(c, bazaar.ErrForbidden)
		return
	}
	b, err := h.repo.Create(c.Request.Context(), eventID, userID, h.now())
	if err != nil {
		h.fail(c, "create billing failed", eventID, err)
		return
	}
	response.Created(c, b)
}

// List handles GET /events/:id/billings. Staff see every billing unless ?mine=1.
func (h *Handler) List(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	var userID *uuid.UUID
	if !middleware.Role(c).IsStaff() || c.Query("mine") == "1" {
		uid := middleware.UserID(c)
		userID = &uid
	}
	list, err := h.repo.List(c.Request.Context(), eventID, userID)
	if err != nil {
		h.fail(c, "list billings failed", eventID, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /billings/:id.
func (h *Handler) Get(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	d, err := h.repo.Detail(c.Request.Context(), b.ID)
	if err != nil {
		h.fail(c, "load billing failed", b.ID, err)
		return
	}
	response.OK(c, d)
}

// Book handles POST /billings/:id/articles.
func (h *Handler) Book(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	var (
		out *models.Billing
		err error
	)
	now := h.now()
	switch {
	case req.ArticleID != nil:
		out, err = h.repo.BookArticle(c.Request.Context(), b.ID, *req.ArticleID, now)
	case req.Code != "":
		seller, label, perr := labels.ParsePayload(req.Code)
		if perr != nil {
			response.Error(c, perr)
			return
		}
		out, err = h.repo.BookLabel(c.Request.Context(), b.ID, seller, label, now)
	case req.SellerNumber > 0 && req.LabelNumber > 0:
		out, err = h.repo.BookLabel(c.Request.Context(), b.ID, req.SellerNumber, req.LabelNumber, now)
	default:
		response.BadRequest(c, "article_id, code or seller_number and label_number required")
		return
	}
	if err != nil {
		h.fail(c, "book article failed", b.ID, err)
		return
	}
	response.OK(c, out)
}

// RemoveArticle handles DELETE /billings/:id/articles/:article_id.
func (h *Handler) RemoveArticle(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	articleID, ok := parseParam(c, "article_id")
	if !ok {
		return
	}
	out, err := h.repo.RemoveArticle(c.Request.Context(), b.ID, articleID)
	if err != nil {
		h.fail(c, "remove article failed", b.ID, err)
		return
	}
	response.OK(c, out)
}

// Complete handles POST /billings/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	out, err := h.repo.Complete(c.Request.Context(), b.ID)
	if err != nil {
		h.fail(c, "complete billing failed", b.ID, err)
		return
	}
	response.OK(c, out)
}

// Cancel handles POST /billings/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	out, err := h.repo.Cancel(c.Request.Context(), b.ID)
	if err != nil {
		h.fail(c, "cancel billing failed", b.ID, err)
		return
	}
	response.OK(c, out)
}

// Delete handles DELETE /billings/:id (staff, AJAX).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete billing failed", id, err)
		return
	}
	response.Toggle(c, true)
}
