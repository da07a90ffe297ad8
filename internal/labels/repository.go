package labels

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/articles"
	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/events"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/internal/sellers"
	"github.com/kinderbasar/backend/pkg/database"
)

const exportColumns = `id, seller_id, status, COALESCE(s3_key, ''), COALESCE(error_message, ''), created_at, updated_at`

// Repository builds label sheets and tracks their exports.
type Repository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewRepository creates a label repository. loc is the display time zone of the sheets.
func NewRepository(pool *pgxpool.Pool, loc *time.Location) *Repository {
	return &Repository{pool: pool, loc: loc}
}

func scanExport(row interface{ Scan(...any) error }) (*models.LabelExport, error) {
	var e models.LabelExport
	err := row.Scan(&e.ID, &e.SellerID, &e.Status, &e.S3Key, &e.ErrorMessage, &e.CreatedAt, &e.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Sheet loads a seller with event and articles and builds the label sheet.
func (r *Repository) Sheet(ctx context.Context, sellerID uuid.UUID) (*Sheet, error) {
	seller, err := sellers.Load(ctx, r.pool, sellerID)
	if err != nil {
		return nil, err
	}
	ev, err := events.Load(ctx, r.pool, seller.EventID)
	if err != nil {
		return nil, err
	}
	list, err := articles.Query(ctx, r.pool, `WHERE a.seller_id = $1 ORDER BY a.label_number`, sellerID)
	if err != nil {
		return nil, err
	}
	return NewSheet(ev, seller, list, r.loc)
}

// CreateExport records a pending export for a seller.
func (r *Repository) CreateExport(ctx context.Context, sellerID uuid.UUID) (*models.LabelExport, error) {
	return scanExport(r.pool.QueryRow(ctx, `INSERT INTO label_exports (seller_id, status) VALUES ($1, $2)
		RETURNING `+exportColumns, sellerID, models.LabelExportPending))
}

// GetExport returns an export.
func (r *Repository) GetExport(ctx context.Context, id uuid.UUID) (*models.LabelExport, error) {
	return scanExport(r.pool.QueryRow(ctx, `SELECT `+exportColumns+` FROM label_exports WHERE id = $1`, id))
}

// CompleteExport stores the object key of a rendered sheet.
func (r *Repository) CompleteExport(ctx context.Context, id uuid.UUID, key string) error {
	return r.setExport(ctx, id, models.LabelExportCompleted, &key, nil)
}

// FailExport records the final error of an export.
func (r *Repository) FailExport(ctx context.Context, id uuid.UUID, msg string) error {
	return r.setExport(ctx, id, models.LabelExportFailed, nil, &msg)
}

func (r *Repository) setExport(ctx context.Context, id uuid.UUID, status string, key, msg *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE label_exports SET status = $2, s3_key = COALESCE($3, s3_key), error_message = $4,
		updated_at = NOW() WHERE id = $1`, id, status, key, msg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bazaar.ErrExportNotFound
	}
	return nil
}
