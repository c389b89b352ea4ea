package repository

import (
	"context"

	"lojaia/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	//管理者用の全件一覧
	ListAll(ctx context.Context) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//pendingのときだけ遷移させる。遷移したらtrue（webhookの再配送対策）
	UpdateStatusIfPending(ctx context.Context, orderID int64, status model.OrderStatus) (bool, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	//商品を参照している明細の件数（商品削除のブロック判定に使う）
	CountByProductID(ctx context.Context, productID int64) (int64, error)
}
