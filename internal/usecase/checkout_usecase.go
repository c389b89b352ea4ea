package usecase

import (
	"context"
	"net/http"

	repo "lojaia/internal/repository"
	"lojaia/internal/util"

	"github.com/shopspring/decimal"
)

type CheckoutLineItem struct {
	Name       string
	UnitAmount int64 // セント単位
	Quantity   int64
}

type CheckoutSessionRequest struct {
	OrderID    int64
	SuccessURL string
	CancelURL  string
	LineItems  []CheckoutLineItem
}

// 決済プロバイダのホスト型セッションを作ってリダイレクトURLを返す約束。
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (string, error)
}

type CheckoutUsecase struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	gateway     PaymentGateway
	frontendURL string
}

// DI
func NewCheckoutUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	gateway PaymentGateway,
	frontendURL string,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		orders:      orders,
		orderItems:  orderItems,
		gateway:     gateway,
		frontendURL: frontendURL,
	}
}

// CreateCheckoutSessionは既存注文のスナップショット明細から決済セッションを作る。
// プロバイダの失敗は502。注文の状態はここでは一切変えない。
func (u *CheckoutUsecase) CreateCheckoutSession(ctx context.Context, orderID int64) (string, error) {
	if orderID <= 0 {
		return "", NewHTTPError(http.StatusBadRequest, "order_id is required")
	}

	order, err := u.orders.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return "", NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//単価はスナップショットをセント換算する
	lineItems := make([]CheckoutLineItem, 0, len(items))
	for _, it := range items {
		lineItems = append(lineItems, CheckoutLineItem{
			Name:       it.ProductName,
			UnitAmount: it.UnitPrice.Mul(decimal.NewFromInt(100)).IntPart(),
			Quantity:   it.Quantity,
		})
	}

	url, err := u.gateway.CreateCheckoutSession(ctx, CheckoutSessionRequest{
		OrderID:    order.ID,
		SuccessURL: u.frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  u.frontendURL + "/checkout",
		LineItems:  lineItems,
	})
	if err != nil {
		util.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		return "", NewHTTPError(http.StatusBadGateway, "failed to create payment session")
	}

	util.CheckoutSessionsTotal.WithLabelValues("ok").Inc()
	return url, nil
}
