package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type CategoryStorage struct {
	db *sqlx.DB
}

func NewCategoryStorage(db *sqlx.DB) *CategoryStorage {
	return &CategoryStorage{db: db}
}

func (s *CategoryStorage) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := s.db.SelectContext(ctx, &categories,
		`SELECT category_id, name, feed, epoch FROM categories ORDER BY category_id`,
	); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryStorage) CategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	err := s.db.GetContext(ctx, &category, s.db.Rebind(
		`SELECT category_id, name, feed, epoch FROM categories WHERE category_id = ?`,
	), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select category %d: %w", id, err)
	}
	return &category, nil
}

func (s *CategoryStorage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// Add inserts the given categories keeping their ids. It is used once, to seed an empty
// database, so the inserts share a transaction.
func (s *CategoryStorage) Add(ctx context.Context, categories []model.Category) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range categories {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO categories (category_id, name, feed, epoch) VALUES (:category_id, :name, :feed, :epoch)`,
			c,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// SetWatermark raises the watermark of a category. A lower or equal epoch leaves the row
// untouched, so watermarks never go back in time.
func (s *CategoryStorage) SetWatermark(ctx context.Context, categoryID, epoch int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE categories SET epoch = ? WHERE category_id = ? AND epoch < ?`,
	), epoch, categoryID, epoch); err != nil {
		return fmt.Errorf("update watermark of category %d: %w", categoryID, err)
	}
	return nil
}

// RaiseWatermarks moves every watermark lower than epoch up to epoch.
func (s *CategoryStorage) RaiseWatermarks(ctx context.Context, epoch int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE categories SET epoch = ? WHERE epoch < ?`,
	), epoch, epoch); err != nil {
		return fmt.Errorf("raise watermarks: %w", err)
	}
	return nil
}
