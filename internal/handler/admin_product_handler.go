package handler

import (
	"net/http"
	"strconv"

	"lojaia/internal/config"
	"lojaia/internal/middleware"
	"lojaia/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /admin/products はADMINだけが触れる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type AdminProductRequest struct {
	CategoryID  *int64 `json:"category_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsActive    bool   `json:"is_active"`
	ImageURL    string `json:"image_url"`
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin/products")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/generate-description", h.generateDescription)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	var req AdminProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	in, err := toAdminProductInput(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid price"})
	}

	out, err := h.uc.AdminCreateProduct(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req AdminProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	in, err := toAdminProductInput(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid price"})
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), id, in); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AI説明文生成は管理者の手動バッチ操作
func (h *AdminProductHandler) generateDescription(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	description, err := h.uc.AdminGenerateDescription(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"description": description})
}

func toAdminProductInput(req AdminProductRequest) (usecase.AdminProductInput, error) {
	price := decimal.Zero
	if req.Price != "" {
		p, err := decimal.NewFromString(req.Price)
		if err != nil {
			return usecase.AdminProductInput{}, err
		}
		price = p
	}

	return usecase.AdminProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       price,
		IsActive:    req.IsActive,
		ImageURL:    req.ImageURL,
	}, nil
}

// contextからuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	id, ok := v.(int64)
	return id, ok
}

// contextからroleを取り出してADMINか判定する
func isAdminFromContext(c echo.Context) bool {
	v := c.Get(middleware.CtxUserRoleKey)
	role, ok := v.(string)
	return ok && role == "ADMIN"
}
