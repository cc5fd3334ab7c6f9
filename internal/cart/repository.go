package cart

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	// AddLine inserts the line or, when the key already exists, merges the
	// quantities. The merge happens in a single upsert so concurrent adds
	// from the same session cannot lose updates.
	AddLine(ctx context.Context, line Line) error
	// SetQuantity replaces a line's quantity. Zero removes the line.
	SetQuantity(ctx context.Context, sessionID string, key Key, qty int) error
	RemoveLine(ctx context.Context, sessionID string, key Key) error
	GetLines(ctx context.Context, sessionID string) ([]Line, error)
	Clear(ctx context.Context, sessionID string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) AddLine(ctx context.Context, line Line) error {
	if line.Quantity < MinQuantity || line.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}

	// Merged quantities clamp at MaxQuantity rather than failing the add.
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO cart_lines
			(session_id, product_id, size, finish, quantity, unit_price_cents, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (session_id, product_id, size, finish) DO UPDATE
		SET quantity = LEAST(cart_lines.quantity + EXCLUDED.quantity, %d),
			unit_price_cents = EXCLUDED.unit_price_cents,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
	`, MaxQuantity), line.SessionID, line.ProductID, line.Size, line.Finish,
		line.Quantity, line.UnitPriceCents, line.ImageURL)
	if err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}
	return nil
}

func (r *repo) SetQuantity(ctx context.Context, sessionID string, key Key, qty int) error {
	if qty == 0 {
		return r.RemoveLine(ctx, sessionID, key)
	}
	if qty < MinQuantity || qty > MaxQuantity {
		return ErrInvalidQuantity
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_lines
		SET quantity = $5, updated_at = NOW()
		WHERE session_id = $1 AND product_id = $2 AND size = $3 AND finish = $4
	`, sessionID, key.ProductID, key.Size, key.Finish, qty)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *repo) RemoveLine(ctx context.Context, sessionID string, key Key) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE session_id = $1 AND product_id = $2 AND size = $3 AND finish = $4
	`, sessionID, key.ProductID, key.Size, key.Finish)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *repo) GetLines(ctx context.Context, sessionID string) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, product_id, size, finish, quantity, unit_price_cents, image_url, updated_at
		FROM cart_lines
		WHERE session_id = $1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.SessionID, &l.ProductID, &l.Size, &l.Finish,
			&l.Quantity, &l.UnitPriceCents, &l.ImageURL, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return lines, nil
}

func (r *repo) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
