package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventOpts tweaks a fixture event. Zero values take the defaults of Event.
type EventOpts struct {
	Now        time.Time // reference point; defaults to time.Now()
	MaxSellers int
	Commission int
}

// Event inserts an event whose registration, edit and billing windows are all open at
// opts.Now: registration ran from -1h to +1h, edits until +2h, the bazaar from -3h to +3h.
// The windows overlap and skip input validation.
func Event(t *testing.T, pool *pgxpool.Pool, opts EventOpts) uuid.UUID {
	t.Helper()
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if opts.MaxSellers == 0 {
		opts.MaxSellers = 70
	}
	const q = `INSERT INTO events (name, starts_at, ends_at, register_starts_at, register_ends_at, edit_articles_ends_at,
		pickup_labels_starts_at, pickup_labels_ends_at, max_sellers, commission_percent)
		VALUES ('Testbasar', $1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id uuid.UUID
	err := pool.QueryRow(context.Background(), q,
		now.Add(-3*time.Hour), now.Add(3*time.Hour),
		now.Add(-time.Hour), now.Add(time.Hour), now.Add(2*time.Hour),
		now.Add(-time.Hour), now.Add(time.Hour),
		opts.MaxSellers, opts.Commission).Scan(&id)
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return id
}

// User inserts an account with the given role.
func User(t *testing.T, pool *pgxpool.Pool, email, role string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (email, password_hash, full_name, role) VALUES ($1, 'x', $1, $2) RETURNING id`, email, role).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// Seller inserts an accepted registration and its seller with the given number.
func Seller(t *testing.T, pool *pgxpool.Pool, eventID uuid.UUID, number int, userID *uuid.UUID) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	var regID uuid.UUID
	err := pool.QueryRow(ctx, `INSERT INTO seller_registrations (event_id, name, email, accepted)
		VALUES ($1, $2, $3, TRUE) RETURNING id`,
		eventID, fmt.Sprintf("Verkäufer %d", number), fmt.Sprintf("seller%d-%s@example.com", number, uuid.NewString()[:8])).Scan(&regID)
	if err != nil {
		t.Fatalf("insert registration: %v", err)
	}
	var id uuid.UUID
	err = pool.QueryRow(ctx, `INSERT INTO sellers (event_id, registration_id, user_id, seller_number, role, max_article_count)
		VALUES ($1, $2, $3, $4, 'standard', 24) RETURNING id`, eventID, regID, userID, number).Scan(&id)
	if err != nil {
		t.Fatalf("insert seller: %v", err)
	}
	return id
}

// Article inserts an article with status created.
func Article(t *testing.T, pool *pgxpool.Pool, eventID, sellerID uuid.UUID, label int, priceCents int64) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `INSERT INTO articles (event_id, seller_id, label_number, name, price_cents)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, eventID, sellerID, label, fmt.Sprintf("Artikel %d", label), priceCents).Scan(&id)
	if err != nil {
		t.Fatalf("insert article: %v", err)
	}
	return id
}
