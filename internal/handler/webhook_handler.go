package handler

import (
	"io"
	"net/http"

	"lojaia/internal/infra/payment"
	"lojaia/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済プロバイダからの署名付きコールバック。
// 署名が合わなければ400、それ以外の業務的な結果は全て200で返す
// （非2xxだとプロバイダが再配送してくるため）。
type WebhookHandler struct {
	uc            *usecase.PaymentUsecase
	webhookSecret string
}

func NewWebhookHandler(uc *usecase.PaymentUsecase, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{uc: uc, webhookSecret: webhookSecret}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook/", h.handle)
	e.POST("/webhook", h.handle)
}

func (h *WebhookHandler) handle(c echo.Context) error {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")

	//署名検証に通らないpayloadは処理しない
	event, err := payment.ConstructEvent(payload, sigHeader, h.webhookSecret)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
	}

	if err := h.uc.HandleEvent(c.Request().Context(), usecase.PaymentEvent{
		ID:       event.ID,
		Type:     event.Type,
		Metadata: event.Data.Object.Metadata,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	return c.NoContent(http.StatusOK)
}
