package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DeliveryStorage keeps the title of the last post delivered to a destination for a category.
type DeliveryStorage struct {
	db *sqlx.DB
}

func NewDeliveryStorage(db *sqlx.DB) *DeliveryStorage {
	return &DeliveryStorage{db: db}
}

// LastTitle returns the last delivered title, or an empty string when nothing was delivered yet.
func (s *DeliveryStorage) LastTitle(ctx context.Context, destinationID, categoryID int64) (string, error) {
	var title string
	err := s.db.GetContext(ctx, &title, s.db.Rebind(
		`SELECT last_title FROM deliveries WHERE channel_id = ? AND category_id = ?`,
	), destinationID, categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select last title for %d/%d: %w", destinationID, categoryID, err)
	}
	return title, nil
}

func (s *DeliveryStorage) SetLastTitle(ctx context.Context, destinationID, categoryID int64, title string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO deliveries (channel_id, category_id, last_title) VALUES (?, ?, ?)
		ON CONFLICT (channel_id, category_id) DO UPDATE SET last_title = excluded.last_title`,
	), destinationID, categoryID, title); err != nil {
		return fmt.Errorf("upsert last title for %d/%d: %w", destinationID, categoryID, err)
	}
	return nil
}
