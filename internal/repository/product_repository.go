package repository

import (
	"context"
	"errors"

	"lojaia/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索。Qはname/descriptionの部分一致（大文字小文字を無視）
type ProductListQuery struct {
	Q            string
	CategorySlug string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	UpdateDescription(ctx context.Context, id int64, description string) error
	SoftDelete(ctx context.Context, id int64) error
}
