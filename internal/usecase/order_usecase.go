package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"
	"lojaia/internal/util"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, orders: orders, orderItems: orderItems}
}

type CreateOrderItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CreateOrderInput struct {
	FullName string
	Email    string
	Address  string
	Items    []CreateOrderItemInput
}

type OrderItemOutput struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Quantity     int64  `json:"quantity"`
	Price        string `json:"price"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Address     string            `json:"address"`
	Status      string            `json:"status"`
	TotalAmount string            `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

// CreateOrderは商品参照のリストから価格確定済みの注文を作る。
// 合計・単価スナップショットの計算と永続化は1トランザクションで行う。
// 存在しないproduct_idが1つでもあれば注文全体を失敗させる（部分注文は作らない）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID *int64, in CreateOrderInput) (OrderOutput, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "full_name required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if strings.TrimSpace(in.Address) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "address required")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
		}
	}

	productIDs := make([]int64, 0, len(in.Items))
	for _, item := range in.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	var out OrderOutput

	//注文処理はトランザクション。途中で失敗したら何も残さない。
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		products, err := r.Products().FindByIDs(ctx, productIDs)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//見つからないIDは全部まとめて報告する
		var missing []int64
		for _, id := range productIDs {
			if _, ok := products[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid product_id(s): %v", missing))
		}

		//単価は注文時点の価格をスナップショットする
		now := time.Now()
		total := decimal.NewFromInt(0)
		orderItems := make([]model.OrderItem, 0, len(in.Items))

		for _, item := range in.Items {
			p := products[item.ProductID]

			orderItems = append(orderItems, model.OrderItem{
				ProductID:       p.ID,
				ProductName:     p.Name,
				ProductImageURL: p.ImageURL,
				Quantity:        item.Quantity,
				UnitPrice:       p.Price,
				CreatedAt:       now,
			})

			total = total.Add(p.Price.Mul(decimal.NewFromInt(item.Quantity)))
		}

		orderID, err := r.Orders().Create(ctx, model.Order{
			FullName:    strings.TrimSpace(in.FullName),
			Email:       strings.TrimSpace(in.Email),
			Address:     strings.TrimSpace(in.Address),
			UserID:      userID,
			Status:      model.OrderStatusPending,
			TotalAmount: total,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created := model.Order{
			ID:          orderID,
			FullName:    strings.TrimSpace(in.FullName),
			Email:       strings.TrimSpace(in.Email),
			Address:     strings.TrimSpace(in.Address),
			UserID:      userID,
			Status:      model.OrderStatusPending,
			TotalAmount: total,
			CreatedAt:   now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	util.OrdersCreatedTotal.Inc()
	return out, nil
}

// ListMyOrdersは自分の注文だけを返す。ADMINは全件見える。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, isAdmin bool) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var orders []model.Order
	var err error
	if isAdmin {
		orders, err = u.orders.ListAll(ctx)
	} else {
		orders, err = u.orders.ListByUserID(ctx, userID)
	}
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListByOrderID(ctx, o.ID)
		if err != nil {
			return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//他人の注文は「存在しない扱い」にする
	if !isAdmin && (o.UserID == nil || *o.UserID != userID) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(o, items), nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImageURL,
			Quantity:     it.Quantity,
			Price:        it.UnitPrice.StringFixed(2),
		})
	}

	return OrderOutput{
		ID:          o.ID,
		FullName:    o.FullName,
		Email:       o.Email,
		Address:     o.Address,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
}
