package usecase_test

import (
	"context"
	"errors"
	"testing"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"
	"lojaia/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type EmailSenderMock struct{ mock.Mock }

func (m *EmailSenderMock) SendOrderConfirmation(ctx context.Context, order model.Order, idempotencyKey string) error {
	args := m.Called(ctx, order, idempotencyKey)
	return args.Error(0)
}

func completedEvent(orderID string) usecase.PaymentEvent {
	return usecase.PaymentEvent{
		ID:       "evt_test_1",
		Type:     "checkout.session.completed",
		Metadata: map[string]string{"order_id": orderID},
	}
}

func TestPaymentUsecase_CompletedEvent_MarksPaidAndSendsEmailOnce(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	email := new(EmailSenderMock)
	uc := usecase.NewPaymentUsecase(orders, email)

	orders.On("UpdateStatusIfPending", mock.Anything, int64(7), model.OrderStatusPaid).Return(true, nil)
	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, Email: "ana@example.com", Status: model.OrderStatusPaid, TotalAmount: dec("25.00"),
	}, nil)
	email.On("SendOrderConfirmation", mock.Anything, mock.Anything, "order-7-paid").Return(nil)

	err := uc.HandleEvent(ctx, completedEvent("7"))

	assert.NoError(t, err)
	email.AssertNumberOfCalls(t, "SendOrderConfirmation", 1)
	orders.AssertExpectations(t)
}

func TestPaymentUsecase_CompletedEvent_RedeliveryDoesNotResendEmail(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	email := new(EmailSenderMock)
	uc := usecase.NewPaymentUsecase(orders, email)

	//既にpaid済み。条件付き更新は何も変えない。
	orders.On("UpdateStatusIfPending", mock.Anything, int64(7), model.OrderStatusPaid).Return(false, nil)

	err := uc.HandleEvent(ctx, completedEvent("7"))

	assert.NoError(t, err)
	email.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestPaymentUsecase_CompletedEvent_UnknownOrderIsNoop(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	email := new(EmailSenderMock)
	uc := usecase.NewPaymentUsecase(orders, email)

	orders.On("UpdateStatusIfPending", mock.Anything, int64(999), model.OrderStatusPaid).
		Return(false, repo.ErrNotFound)

	//再配送ループを避けるためエラーは返さない
	err := uc.HandleEvent(ctx, completedEvent("999"))
	assert.NoError(t, err)
	email.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_CompletedEvent_MissingMetadataIsNoop(t *testing.T) {
	orders := new(OrderRepoMock)
	email := new(EmailSenderMock)
	uc := usecase.NewPaymentUsecase(orders, email)

	err := uc.HandleEvent(context.Background(), usecase.PaymentEvent{
		ID:   "evt_test_2",
		Type: "checkout.session.completed",
	})

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentUsecase_CompletedEvent_EmailFailureDoesNotFailWebhook(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	email := new(EmailSenderMock)
	uc := usecase.NewPaymentUsecase(orders, email)

	orders.On("UpdateStatusIfPending", mock.Anything, int64(7), model.OrderStatusPaid).Return(true, nil)
	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{ID: 7, TotalAmount: dec("25.00")}, nil)
	email.On("SendOrderConfirmation", mock.Anything, mock.Anything, "order-7-paid").
		Return(errors.New("resend: status 500"))

	//ステータス遷移は完了済みなので200を返させる
	err := uc.HandleEvent(ctx, completedEvent("7"))
	assert.NoError(t, err)
}

func TestPaymentUsecase_ExpiredEvent_MarksFailed(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	email := new(EmailSenderMock)
	uc := usecase.NewPaymentUsecase(orders, email)

	orders.On("UpdateStatusIfPending", mock.Anything, int64(7), model.OrderStatusFailed).Return(true, nil)

	err := uc.HandleEvent(ctx, usecase.PaymentEvent{
		ID:       "evt_test_3",
		Type:     "checkout.session.expired",
		Metadata: map[string]string{"order_id": "7"},
	})

	assert.NoError(t, err)
	email.AssertNotCalled(t, "SendOrderConfirmation", mock.Anything, mock.Anything, mock.Anything)
	orders.AssertExpectations(t)
}

func TestPaymentUsecase_UnrelatedEventIsIgnored(t *testing.T) {
	orders := new(OrderRepoMock)
	uc := usecase.NewPaymentUsecase(orders, new(EmailSenderMock))

	err := uc.HandleEvent(context.Background(), usecase.PaymentEvent{
		ID:       "evt_test_4",
		Type:     "payment_intent.created",
		Metadata: map[string]string{"order_id": "7"},
	})

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
}
