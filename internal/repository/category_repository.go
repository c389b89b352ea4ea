package repository

import (
	"context"

	"lojaia/internal/domain/model"
)

// カテゴリは読み取り専用
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindBySlug(ctx context.Context, slug string) (model.Category, error)
}
