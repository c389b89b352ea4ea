package handler

import (
	"net/http"
	"strconv"

	"lojaia/internal/config"
	"lojaia/internal/middleware"
	"lojaia/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	FullName string                         `json:"full_name"`
	Email    string                         `json:"email"`
	Address  string                         `json:"address"`
	Items    []usecase.CreateOrderItemInput `json:"items"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//作成は誰でもできる。ログイン済みなら注文に紐づく。
	e.POST("/orders", h.create, middleware.OptionalAuthJWT(cfg))

	//閲覧は本人（またはADMIN）だけ
	e.GET("/orders", h.list, middleware.AuthJWT(cfg))
	e.GET("/orders/:id", h.detail, middleware.AuthJWT(cfg))
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	var userID *int64
	if id, ok := getUserIDFromContext(c); ok {
		userID = &id
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID, usecase.CreateOrderInput{
		FullName: req.FullName,
		Email:    req.Email,
		Address:  req.Address,
		Items:    req.Items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, isAdminFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, isAdminFromContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
