package usecase_test

import (
	"context"
	"testing"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"
	"lojaia/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type OrderProductRepoMock struct{ mock.Mock }

func (m *OrderProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	args := m.Called(ctx, ids)
	result, _ := args.Get(0).(map[int64]model.Product)
	return result, args.Error(1)
}

func (m *OrderProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) UpdateDescription(ctx context.Context, id int64, description string) error {
	panic("not used in OrderUsecase tests")
}

func (m *OrderProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	panic("not used in OrderUsecase tests")
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Error(1)
}

func (m *OrderRepoMock) ListAll(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatusIfPending(ctx context.Context, orderID int64, status model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, status)
	return args.Bool(0), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) CountByProductID(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

// トランザクション境界だけ差し替えるfake。fnをそのまま実行する。
type fakeTxRepos struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	products   repo.ProductRepository
}

func (f *fakeTxRepos) Orders() repo.OrderRepository         { return f.orders }
func (f *fakeTxRepos) OrderItems() repo.OrderItemRepository { return f.orderItems }
func (f *fakeTxRepos) Products() repo.ProductRepository     { return f.products }

type fakeTxManager struct {
	repos repo.TxRepos
}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(f.repos)
}

func newOrderUsecaseForTest(orders *OrderRepoMock, orderItems *OrderItemRepoMock, products *OrderProductRepoMock) *usecase.OrderUsecase {
	tx := &fakeTxManager{repos: &fakeTxRepos{
		orders:     orders,
		orderItems: orderItems,
		products:   products,
	}}
	return usecase.NewOrderUsecase(tx, orders, orderItems)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func int64ptr(v int64) *int64 { return &v }

// =====================
// CreateOrder
// =====================

func TestOrderUsecase_CreateOrder_ComputesTotalFromSnapshots(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	products := new(OrderProductRepoMock)
	uc := newOrderUsecaseForTest(orders, orderItems, products)

	products.On("FindByIDs", mock.Anything, []int64{1, 2}).Return(map[int64]model.Product{
		1: {ID: 1, Name: "Teclado Neon", Price: dec("10.00"), ImageURL: "products/teclado.png"},
		2: {ID: 2, Name: "Mouse Gamer", Price: dec("5.00")},
	}, nil)

	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Status == model.OrderStatusPending && o.TotalAmount.Equal(dec("25.00"))
	})).Return(int64(7), nil)

	orderItems.On("CreateBulk", mock.Anything, int64(7), mock.MatchedBy(func(items []model.OrderItem) bool {
		if len(items) != 2 {
			return false
		}
		//単価は商品の現在価格のスナップショット
		return items[0].UnitPrice.Equal(dec("10.00")) && items[0].Quantity == 2 &&
			items[1].UnitPrice.Equal(dec("5.00")) && items[1].Quantity == 1
	})).Return(nil)

	out, err := uc.CreateOrder(ctx, nil, usecase.CreateOrderInput{
		FullName: "Ana Souza",
		Email:    "ana@example.com",
		Address:  "Rua das Flores 123",
		Items: []usecase.CreateOrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "25.00", out.TotalAmount)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "10.00", out.Items[0].Price)

	orders.AssertExpectations(t)
	orderItems.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestOrderUsecase_CreateOrder_UnknownProductFailsWholeOrder(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	products := new(OrderProductRepoMock)
	uc := newOrderUsecaseForTest(orders, orderItems, products)

	//id=99は存在しない
	products.On("FindByIDs", mock.Anything, []int64{1, 99}).Return(map[int64]model.Product{
		1: {ID: 1, Name: "Teclado Neon", Price: dec("10.00")},
	}, nil)

	_, err := uc.CreateOrder(ctx, nil, usecase.CreateOrderInput{
		FullName: "Ana Souza",
		Email:    "ana@example.com",
		Address:  "Rua das Flores 123",
		Items: []usecase.CreateOrderItemInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 99, Quantity: 1},
		},
	})

	assert.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Contains(t, he.Message, "99")

	//部分注文は作らない
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	orderItems.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderUsecase_CreateOrder_RejectsEmptyItems(t *testing.T) {
	uc := newOrderUsecaseForTest(new(OrderRepoMock), new(OrderItemRepoMock), new(OrderProductRepoMock))

	_, err := uc.CreateOrder(context.Background(), nil, usecase.CreateOrderInput{
		FullName: "Ana Souza",
		Email:    "ana@example.com",
		Address:  "Rua das Flores 123",
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Contains(t, he.Message, "items")
}

func TestOrderUsecase_CreateOrder_RejectsZeroQuantity(t *testing.T) {
	uc := newOrderUsecaseForTest(new(OrderRepoMock), new(OrderItemRepoMock), new(OrderProductRepoMock))

	_, err := uc.CreateOrder(context.Background(), nil, usecase.CreateOrderInput{
		FullName: "Ana Souza",
		Email:    "ana@example.com",
		Address:  "Rua das Flores 123",
		Items:    []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 0}},
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
	assert.Contains(t, he.Message, "quantity")
}

func TestOrderUsecase_CreateOrder_RejectsInvalidEmail(t *testing.T) {
	uc := newOrderUsecaseForTest(new(OrderRepoMock), new(OrderItemRepoMock), new(OrderProductRepoMock))

	_, err := uc.CreateOrder(context.Background(), nil, usecase.CreateOrderInput{
		FullName: "Ana Souza",
		Email:    "not-an-email",
		Address:  "Rua das Flores 123",
		Items:    []usecase.CreateOrderItemInput{{ProductID: 1, Quantity: 1}},
	})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
}

// =====================
// List / Detail
// =====================

func TestOrderUsecase_ListMyOrders_OnlyOwn(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	uc := newOrderUsecaseForTest(orders, orderItems, new(OrderProductRepoMock))

	orders.On("ListByUserID", mock.Anything, int64(5)).Return([]model.Order{
		{ID: 1, UserID: int64ptr(5), Status: model.OrderStatusPaid, TotalAmount: dec("25.00")},
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	out, err := uc.ListMyOrders(ctx, 5, false)
	assert.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, "paid", out[0].Status)

	orders.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestOrderUsecase_ListMyOrders_AdminSeesAll(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	uc := newOrderUsecaseForTest(orders, orderItems, new(OrderProductRepoMock))

	orders.On("ListAll", mock.Anything).Return([]model.Order{
		{ID: 1, TotalAmount: dec("10.00")},
		{ID: 2, TotalAmount: dec("20.00")},
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, mock.Anything).Return([]model.OrderItem{}, nil)

	out, err := uc.ListMyOrders(ctx, 1, true)
	assert.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestOrderUsecase_GetMyOrderDetail_OthersOrderHidden(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	uc := newOrderUsecaseForTest(orders, new(OrderItemRepoMock), new(OrderProductRepoMock))

	orders.On("FindByID", mock.Anything, int64(3)).Return(model.Order{
		ID: 3, UserID: int64ptr(99), TotalAmount: dec("10.00"),
	}, nil)

	//他人の注文は「存在しない扱い」
	_, err := uc.GetMyOrderDetail(ctx, 5, false, 3)
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 404, he.Status)
}
