package repository

import (
	"context"
	"errors"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).Order("id desc").Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// pendingのときだけstatusを変える。再配送されたwebhookは0件更新になる。
func (r *OrderGormRepository) UpdateStatusIfPending(ctx context.Context, orderID int64, status model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Update("status", status)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		//該当注文が存在しないのか、既に遷移済みなのかを区別する
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Order{}).
			Where("id = ?", orderID).
			Count(&count).Error; err != nil {
			return false, err
		}
		if count == 0 {
			return false, repo.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}
