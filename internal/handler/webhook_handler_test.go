package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lojaia/internal/domain/model"
	"lojaia/internal/handler"
	"lojaia/internal/infra/payment"
	"lojaia/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const webhookTestSecret = "whsec_handler_test"

type WebhookOrderRepoMock struct{ mock.Mock }

func (m *WebhookOrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *WebhookOrderRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	panic("not used in webhook tests")
}

func (m *WebhookOrderRepoMock) ListAll(ctx context.Context) ([]model.Order, error) {
	panic("not used in webhook tests")
}

func (m *WebhookOrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	panic("not used in webhook tests")
}

func (m *WebhookOrderRepoMock) UpdateStatusIfPending(ctx context.Context, orderID int64, status model.OrderStatus) (bool, error) {
	args := m.Called(ctx, orderID, status)
	return args.Bool(0), args.Error(1)
}

type noopEmailSender struct{}

func (noopEmailSender) SendOrderConfirmation(ctx context.Context, order model.Order, idempotencyKey string) error {
	return nil
}

func newWebhookRequest(t *testing.T, payload string, sign bool) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sign {
		req.Header.Set("Stripe-Signature",
			payment.SignPayload([]byte(payload), webhookTestSecret, time.Now()))
	}
	return req
}

func TestWebhookHandler_ValidCompletedEvent(t *testing.T) {
	orders := new(WebhookOrderRepoMock)
	orders.On("UpdateStatusIfPending", mock.Anything, int64(7), model.OrderStatusPaid).Return(true, nil)
	orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{ID: 7}, nil)

	h := handler.NewWebhookHandler(usecase.NewPaymentUsecase(orders, noopEmailSender{}), webhookTestSecret)

	e := echo.New()
	h.RegisterRoutes(e)

	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","metadata":{"order_id":"7"}}}}`
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, newWebhookRequest(t, payload, true))

	assert.Equal(t, http.StatusOK, rec.Code)
	orders.AssertExpectations(t)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	orders := new(WebhookOrderRepoMock)
	h := handler.NewWebhookHandler(usecase.NewPaymentUsecase(orders, noopEmailSender{}), webhookTestSecret)

	e := echo.New()
	h.RegisterRoutes(e)

	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"metadata":{"order_id":"7"}}}}`
	req := newWebhookRequest(t, payload, false)
	req.Header.Set("Stripe-Signature", "t=1700000000,v1=deadbeef")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_MissingSignatureHeader(t *testing.T) {
	orders := new(WebhookOrderRepoMock)
	h := handler.NewWebhookHandler(usecase.NewPaymentUsecase(orders, noopEmailSender{}), webhookTestSecret)

	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, newWebhookRequest(t, `{"id":"evt_1","type":"checkout.session.completed"}`, false))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_IgnoredEventTypeStill200(t *testing.T) {
	orders := new(WebhookOrderRepoMock)
	h := handler.NewWebhookHandler(usecase.NewPaymentUsecase(orders, noopEmailSender{}), webhookTestSecret)

	e := echo.New()
	h.RegisterRoutes(e)

	payload := `{"id":"evt_2","type":"payment_intent.created","data":{"object":{"metadata":{"order_id":"7"}}}}`
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, newWebhookRequest(t, payload, true))

	assert.Equal(t, http.StatusOK, rec.Code)
	orders.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything)
}
