package repository

import (
	"context"
	"errors"
	"strings"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 部分一致検索（name/description）とカテゴリslug絞り込み付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	var products []model.Product

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	//qはnameとdescriptionを対象に大文字小文字を無視して部分一致
	if strings.TrimSpace(q.Q) != "" {
		like := "%" + strings.TrimSpace(q.Q) + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	//カテゴリはslugで絞る
	if q.CategorySlug != "" {
		tx = tx.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", q.CategorySlug)
	}

	if err := tx.Order("products.created_at desc").Order("products.id desc").Find(&products).Error; err != nil {
		return []model.Product{}, err
	}

	return products, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 複数IDをまとめて取得してmapで返す（注文作成の存在チェック用）
func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	result := make(map[int64]model.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}

	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"category_id": p.CategoryID,
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"price":       p.Price,
		"is_active":   p.IsActive,
		"image_url":   p.ImageURL,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 説明文だけを更新（AI生成の保存用）
func (r *ProductGormRepository) UpdateDescription(ctx context.Context, id int64, description string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Update("description", description)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
