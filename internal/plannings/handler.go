package plannings

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/middleware"
	"github.com/kinderbasar/backend/pkg/response"
)

const dateLayout = "2006-01-02"

// PlanningRequest is the body for creating or updating a shift.
type PlanningRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Date       string `json:"date" binding:"required,datetime=2006-01-02"`
	FromTime   string `json:"from_time" binding:"required,datetime=15:04"`
	ToTime     string `json:"to_time" binding:"required,datetime=15:04"`
	MaxHelpers int    `json:"max_helpers" binding:"required,gt=0"`
}

func (r PlanningRequest) input() Input {
	date, _ := time.Parse(dateLayout, r.Date)
	return Input{Name: r.Name, Date: date, FromTime: r.FromTime, ToTime: r.ToTime, MaxHelpers: r.MaxHelpers}
}

// AssignRequest names a helper. Staff may pass a user id or a person name; everybody
// else assigns themselves with an empty body.
type AssignRequest struct {
	UserID     *uuid.UUID `json:"user_id"`
	PersonName string     `json:"person_name" binding:"max=200"`
}

// Handler handles volunteer shift endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a planning handler.
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

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if _, ok := bazaar.AsError(err); !ok {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, err)
}

// ListByEvent handles GET /events/:id/plannings.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, "list plannings failed", err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /events/:id/plannings.
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := parseParam(c, "id")
	if !ok {
		return
	}
	var req PlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.Create(c.Request.Context(), eventID, req.input())
	if err != nil {
		h.fail(c, "create planning failed", err)
		return
	}
	response.Created(c, p)
}

// Get handles GET /plannings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get planning failed", err)
		return
	}
	response.OK(c, p)
}

// Update handles PUT /plannings/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	var req PlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.fail(c, "update planning failed", err)
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /plannings/:id (AJAX).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete planning failed", err)
		return
	}
	response.Toggle(c, true)
}

// Assign handles POST /plannings/:id/helpers.
func (h *Handler) Assign(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	self := middleware.UserID(c)
	if !middleware.Role(c).IsStaff() {
		if (req.UserID != nil && *req.UserID != self) || req.PersonName != "" {
			response.Error(c, bazaar.ErrForbidden)
			return
		}
		req.UserID = &self
	} else if req.UserID == nil && req.PersonName == "" {
		req.UserID = &self
	}
	p, err := h.repo.Assign(c.Request.Context(), id, req.UserID, req.PersonName)
	if err != nil {
		h.fail(c, "assign helper failed", err)
		return
	}
	response.OK(c, p)
}

// Unassign handles DELETE /plannings/:id/helpers/:helper_id (AJAX). Helpers may remove
// their own assignment.
func (h *Handler) Unassign(c *gin.Context) {
	id, ok := parseParam(c, "id")
	if !ok {
		return
	}
	helperID, ok := parseParam(c, "helper_id")
	if !ok {
		return
	}
	if !middleware.Role(c).IsStaff() {
		helper, err := h.repo.Helper(c.Request.Context(), id, helperID)
		if err != nil {
			h.fail(c, "load helper failed", err)
			return
		}
		if helper.UserID == nil || *helper.UserID != middleware.UserID(c) {
			response.Error(c, bazaar.ErrForbidden)
			return
		}
	}
	if err := h.repo.Unassign(c.Request.Context(), id, helperID); err != nil {
		h.fail(c, "unassign helper failed", err)
		return
	}
	response.Toggle(c, true)
}
