package handler

import (
	"net/http"

	"lojaia/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	OrderID int64 `json:"order_id"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout/create-checkout-session", h.createSession)
}

func (h *CheckoutHandler) createSession(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_id is required"})
	}

	url, err := h.uc.CreateCheckoutSession(c.Request().Context(), req.OrderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
