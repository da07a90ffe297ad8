package plannings

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinderbasar/backend/internal/bazaar"
	"github.com/kinderbasar/backend/internal/models"
	"github.com/kinderbasar/backend/pkg/database"
)

const clockLayout = "15:04"

const selectPlanning = `SELECT id, event_id, name, date, from_time, to_time, max_helpers, created_at, updated_at FROM plannings`

// Repository handles volunteer shift persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a planning repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Input holds the editable fields of a shift.
type Input struct {
	Name       string
	Date       time.Time
	FromTime   string
	ToTime     string
	MaxHelpers int
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return bazaar.ErrInvalidInput.WithDetail("name")
	}
	if in.MaxHelpers < 1 {
		return bazaar.ErrInvalidInput.WithDetail("max_helpers")
	}
	from, err := time.Parse(clockLayout, in.FromTime)
	if err != nil {
		return bazaar.ErrInvalidInput.WithDetail("from_time")
	}
	to, err := time.Parse(clockLayout, in.ToTime)
	if err != nil {
		return bazaar.ErrInvalidInput.WithDetail("to_time")
	}
	if !from.Before(to) {
		return bazaar.ErrInvalidDateRange.WithDetail("to_time")
	}
	in.FromTime, in.ToTime = from.Format(clockLayout), to.Format(clockLayout)
	return nil
}

func scanPlanning(row interface{ Scan(...any) error }) (*models.Planning, error) {
	var p models.Planning
	err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Date, &p.FromTime, &p.ToTime, &p.MaxHelpers, &p.CreatedAt, &p.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, bazaar.ErrPlanningNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Helpers = []models.PlanningHelper{}
	return &p, nil
}

// helpers loads the assignments of the given shifts, keyed by shift id.
func helpers(ctx context.Context, q database.Querier, ids []uuid.UUID) (map[uuid.UUID][]models.PlanningHelper, error) {
	rows, err := q.Query(ctx, `SELECT h.planning_id, h.id, h.user_id, COALESCE(h.person_name, ''), COALESCE(u.full_name, h.person_name, '')
		FROM planning_helpers h
		LEFT JOIN users u ON u.id = h.user_id
		WHERE h.planning_id = ANY($1)
		ORDER BY h.created_at`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID][]models.PlanningHelper)
	for rows.Next() {
		var planningID uuid.UUID
		var h models.PlanningHelper
		if err := rows.Scan(&planningID, &h.ID, &h.UserID, &h.PersonName, &h.FullName); err != nil {
			return nil, err
		}
		out[planningID] = append(out[planningID], h)
	}
	return out, rows.Err()
}

// GetByID returns a shift with its helpers.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Planning, error) {
	p, err := scanPlanning(r.pool.QueryRow(ctx, selectPlanning+` WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	hs, err := helpers(ctx, r.pool, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(hs[id]) > 0 {
		p.Helpers = hs[id]
	}
	return p, nil
}

// ListByEvent returns the shifts of an event in chronological order.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Planning, error) {
	rows, err := r.pool.Query(ctx, selectPlanning+` WHERE event_id = $1 ORDER BY date, from_time, name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Planning{}
	ids := []uuid.UUID{}
	for rows.Next() {
		p, err := scanPlanning(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	hs, err := helpers(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if h := hs[list[i].ID]; len(h) > 0 {
			list[i].Helpers = h
		}
	}
	return list, nil
}

// Create adds a shift to an event.
func (r *Repository) Create(ctx context.Context, eventID uuid.UUID, in Input) (*models.Planning, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, bazaar.ErrEventNotFound
	}
	return scanPlanning(r.pool.QueryRow(ctx, `INSERT INTO plannings (event_id, name, date, from_time, to_time, max_helpers)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, event_id, name, date, from_time, to_time, max_helpers, created_at, updated_at`,
		eventID, in.Name, in.Date, in.FromTime, in.ToTime, in.MaxHelpers))
}

// Update changes a shift. Lowering max helpers below the current assignments is refused.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Planning, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		if _, err := scanPlanning(tx.QueryRow(ctx, selectPlanning+` WHERE id = $1 FOR UPDATE`, id)); err != nil {
			return err
		}
		var assigned int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM planning_helpers WHERE planning_id = $1`, id).Scan(&assigned); err != nil {
			return err
		}
		if in.MaxHelpers < assigned {
			return bazaar.ErrPlanningFull
		}
		_, err := tx.Exec(ctx, `UPDATE plannings SET name = $2, date = $3, from_time = $4, to_time = $5, max_helpers = $6,
			updated_at = NOW() WHERE id = $1`, id, in.Name, in.Date, in.FromTime, in.ToTime, in.MaxHelpers)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a shift and its assignments.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plannings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bazaar.ErrPlanningNotFound
	}
	return nil
}

// Assign adds a helper to a shift: a user account when userID is set, else a
// free-text person name. The shift row lock serializes the capacity check.
func (r *Repository) Assign(ctx context.Context, planningID uuid.UUID, userID *uuid.UUID, personName string) (*models.Planning, error) {
	personName = strings.TrimSpace(personName)
	if userID == nil && personName == "" {
		return nil, bazaar.ErrInvalidInput.WithDetail("person_name")
	}
	err := database.WithTx(ctx, r.pool, func(tx database.Querier) error {
		p, err := scanPlanning(tx.QueryRow(ctx, selectPlanning+` WHERE id = $1 FOR UPDATE`, planningID))
		if err != nil {
			return err
		}
		var assigned int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM planning_helpers WHERE planning_id = $1`, planningID).Scan(&assigned); err != nil {
			return err
		}
		if assigned >= p.MaxHelpers {
			return bazaar.ErrPlanningFull
		}
		var name *string
		if userID == nil {
			name = &personName
		} else {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, *userID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return bazaar.ErrUserNotFound
			}
		}
		_, err = tx.Exec(ctx, `INSERT INTO planning_helpers (planning_id, user_id, person_name) VALUES ($1, $2, $3)`,
			planningID, userID, name)
		if database.IsUniqueViolation(err, "") {
			return bazaar.ErrHelperAlreadyAssigned
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, planningID)
}

// Helper returns one assignment of a shift.
func (r *Repository) Helper(ctx context.Context, planningID, helperID uuid.UUID) (*models.PlanningHelper, error) {
	hs, err := helpers(ctx, r.pool, []uuid.UUID{planningID})
	if err != nil {
		return nil, err
	}
	for _, h := range hs[planningID] {
		if h.ID == helperID {
			return &h, nil
		}
	}
	return nil, bazaar.ErrPlanningNotFound
}

// Unassign removes a helper from a shift.
func (r *Repository) Unassign(ctx context.Context, planningID, helperID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM planning_helpers WHERE planning_id = $1 AND id = $2`, planningID, helperID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bazaar.ErrPlanningNotFound
	}
	return nil
}
