package labels

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/internal/sellers"
	"github.com/kinderbasar/backend/pkg/queue"
	"github.com/kinderbasar/backend/pkg/response"
)

// Enqueuer hands label exports to the background worker.
type Enqueuer interface {
	EnqueueLabelExport(ctx context.Context, payload queue.LabelExportPayload) error
}

// Presigner returns download URLs for stored sheets.
type Presigner interface {
	PresignLabelSheet(ctx context.Context, key string) (string, error)
}

// ExportResponse is an export with its download URL once completed.
type ExportResponse struct {
	*models.LabelExport
	DownloadURL string `json:"download_url,omitempty"`
}

// Handler serves label sheets and exports. Exports are disabled when jobs or
// storage is nil.
type Handler struct {
	repo    *Repository
	sellers *sellers.Repository
	jobs    Enqueuer
	storage Presigner
	logger  *zap.Logger
}

// NewHandler creates a label handler.
func NewHandler(repo *Repository, sellerRepo *sellers.Repository, jobs Enqueuer, storage Presigner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, sellers: sellerRepo, jobs: jobs, storage: storage, logger: logger}
}

func (h *Handler) authorizedSeller(c *gin.Context, id uuid.UUID) (*models.Seller, bool) {
	s, err := h.sellers.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if err := sellers.Authorize(c, s); err != nil {
		response.Error(c, err)
		return nil, false
	}
	return s, true
}

// Sheet handles GET /sellers/:id/labels and renders the sheet directly.
func (h *Handler) Sheet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid seller id")
		return
	}
	if _, ok := h.authorizedSeller(c, id); !ok {
		return
	}
	sheet, err := h.repo.Sheet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := sheet.Render()
	if err != nil {
		h.logger.Error("render label sheet failed", zap.String("seller_id", id.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="etiketten-%03d.html"`, sheet.SellerNumber))
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// Export handles POST /sellers/:id/labels/exports.
func (h *Handler) Export(c *gin.Context) {
	if h.jobs == nil || h.storage == nil {
		response.ServiceUnavailable(c, "label export storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid seller id")
		return
	}
	s, ok := h.authorizedSeller(c, id)
	if !ok {
		return
	}
	exp, err := h.repo.CreateExport(c.Request.Context(), s.ID)
	if err != nil {
		h.logger.Error("create label export failed", zap.String("seller_id", id.String()), zap.Error(err))
		response.Error(c, err)
		return
	}
	payload := queue.LabelExportPayload{ExportID: exp.ID, SellerID: s.ID, EventID: s.EventID}
	if err := h.jobs.EnqueueLabelExport(c.Request.Context(), payload); err != nil {
		h.logger.Error("enqueue label export failed", zap.String("export_id", exp.ID.String()), zap.Error(err))
		_ = h.repo.FailExport(c.Request.Context(), exp.ID, err.Error())
		response.Error(c, bazaar.ErrSaveFailed)
		return
	}
	response.Accepted(c, ExportResponse{LabelExport: exp})
}

// GetExport handles GET /labels/exports/:id.
func (h *Handler) GetExport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid export id")
		return
	}
	exp, err := h.repo.GetExport(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, ok := h.authorizedSeller(c, exp.SellerID); !ok {
		return
	}
	out := ExportResponse{LabelExport: exp}
	if exp.Status == models.LabelExportCompleted && h.storage != nil {
		url, err := h.storage.PresignLabelSheet(c.Request.Context(), exp.S3Key)
		if err != nil {
			h.logger.Error("presign label sheet failed", zap.String("export_id", id.String()), zap.Error(err))
			response.Error(c, err)
			return
		}
		out.DownloadURL = url
	}
	response.OK(c, out)
}
