package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type DestinationStorage struct {
	db *sqlx.DB
}

func NewDestinationStorage(db *sqlx.DB) *DestinationStorage {
	return &DestinationStorage{db: db}
}

// Upsert registers a destination or syncs its name. It reports whether an existing
// destination changed name and what the previous name was.
func (s *DestinationStorage) Upsert(ctx context.Context, dst model.Destination) (previous string, renamed bool, err error) {
	err = s.db.GetContext(ctx, &previous, s.db.Rebind(
		`SELECT channel_name FROM channels WHERE channel_id = ?`,
	), dst.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		previous = ""
	case err != nil:
		return "", false, fmt.Errorf("select destination %d: %w", dst.ID, err)
	case previous == dst.Name:
		return previous, false, nil
	default:
		renamed = true
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO channels (channel_id, channel_name) VALUES (?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET channel_name = excluded.channel_name`,
	), dst.ID, dst.Name); err != nil {
		return "", false, fmt.Errorf("upsert destination %d: %w", dst.ID, err)
	}

	return previous, renamed, nil
}

// Delete removes a destination together with its subscriptions and delivery records.
func (s *DestinationStorage) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM channels WHERE channel_id = ?`,
	), id); err != nil {
		return fmt.Errorf("delete destination %d: %w", id, err)
	}
	return nil
}

func (s *DestinationStorage) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids,
		`SELECT channel_id FROM channels ORDER BY channel_id`,
	); err != nil {
		return nil, fmt.Errorf("select destination ids: %w", err)
	}
	return ids, nil
}

// Subscribers returns the destinations that enabled the category.
func (s *DestinationStorage) Subscribers(ctx context.Context, categoryID int64) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(
		`SELECT channel_id FROM channel_categories WHERE category_id = ? ORDER BY channel_id`,
	), categoryID); err != nil {
		return nil, fmt.Errorf("select subscribers of category %d: %w", categoryID, err)
	}
	return ids, nil
}

func (s *DestinationStorage) EnabledCategories(ctx context.Context, destinationID int64) ([]model.Category, error) {
	var categories []model.Category
	if err := s.db.SelectContext(ctx, &categories, s.db.Rebind(
		`SELECT c.category_id, c.name, c.feed, c.epoch
		FROM categories c
		JOIN channel_categories cc ON cc.category_id = c.category_id
		WHERE cc.channel_id = ?
		ORDER BY c.category_id`,
	), destinationID); err != nil {
		return nil, fmt.Errorf("select categories of destination %d: %w", destinationID, err)
	}
	return categories, nil
}

// Enable subscribes the destination to the known categories among ids and returns them.
// Unknown ids are ignored.
func (s *DestinationStorage) Enable(ctx context.Context, destinationID int64, ids []int64) ([]model.Category, error) {
	categories, err := s.categoriesIn(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range categories {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(
			`INSERT INTO channel_categories (channel_id, category_id) VALUES (?, ?)
			ON CONFLICT (channel_id, category_id) DO NOTHING`,
		), destinationID, c.ID); err != nil {
			return nil, fmt.Errorf("enable category %d for %d: %w", c.ID, destinationID, err)
		}
	}

	return categories, nil
}

// EnableAll subscribes the destination to every configured category.
func (s *DestinationStorage) EnableAll(ctx context.Context, destinationID int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO channel_categories (channel_id, category_id)
		SELECT ?, category_id FROM categories WHERE 1 = 1
		ON CONFLICT (channel_id, category_id) DO NOTHING`,
	), destinationID); err != nil {
		return fmt.Errorf("enable all categories for %d: %w", destinationID, err)
	}
	return nil
}

// Disable unsubscribes the destination from the known categories among ids and returns them.
func (s *DestinationStorage) Disable(ctx context.Context, destinationID int64, ids []int64) ([]model.Category, error) {
	categories, err := s.categoriesIn(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range categories {
		if _, err := s.db.ExecContext(ctx, s.db.Rebind(
			`DELETE FROM channel_categories WHERE channel_id = ? AND category_id = ?`,
		), destinationID, c.ID); err != nil {
			return nil, fmt.Errorf("disable category %d for %d: %w", c.ID, destinationID, err)
		}
	}

	return categories, nil
}

func (s *DestinationStorage) DisableAll(ctx context.Context, destinationID int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM channel_categories WHERE channel_id = ?`,
	), destinationID); err != nil {
		return fmt.Errorf("disable all categories for %d: %w", destinationID, err)
	}
	return nil
}

func (s *DestinationStorage) categoriesIn(ctx context.Context, ids []int64) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT category_id, name, feed, epoch FROM categories WHERE category_id IN (?) ORDER BY category_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("build category lookup: %w", err)
	}

	var categories []model.Category
	if err := s.db.SelectContext(ctx, &categories, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select categories %v: %w", ids, err)
	}
	return categories, nil
}
