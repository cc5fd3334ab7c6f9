package sequence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const numberPrefix = "LUM"

// Allocator issues order numbers of the form LUM-YYYYMMDD-NNN, strictly
// increasing within a day and collision-free under concurrent checkouts.
type Allocator interface {
	NextOrderNumber(ctx context.Context, day time.Time) (string, error)
}

type repo struct {
	db *sql.DB
}

// NewAllocator creates a Postgres-backed allocator.
func NewAllocator(db *sql.DB) Allocator {
	return &repo{db: db}
}

func (r *repo) NextOrderNumber(ctx context.Context, day time.Time) (string, error) {
	dayKey := day.UTC().Format("20060102")

	// Single atomic increment-and-read; two concurrent checkouts can never
	// observe the same sequence value.
	var seq int64
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO order_counters (day_key, last_seq, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (day_key)
		DO UPDATE SET last_seq = order_counters.last_seq + 1, updated_at = NOW()
		RETURNING last_seq
	`, dayKey).Scan(&seq); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}

	return Format(dayKey, seq), nil
}

// Format renders an order number from its day key and sequence value.
func Format(dayKey string, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", numberPrefix, dayKey, seq)
}
