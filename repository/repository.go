package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository carries the write paths shared by every table. Callers pass the
// handle so the same method works inside and outside a transaction.
type Repository[T any] struct{}

func (repo Repository[T]) Save(ctx context.Context, db *gorm.DB, row *T) error {
	return db.WithContext(ctx).Create(row).Error
}

func (repo Repository[T]) SaveAll(ctx context.Context, db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

func (repo Repository[T]) Update(ctx context.Context, db *gorm.DB, row *T) error {
	return db.WithContext(ctx).Save(row).Error
}

func (repo Repository[T]) FindByID(ctx context.Context, db *gorm.DB, id string) (*T, error) {
	var row T
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
