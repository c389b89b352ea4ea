package server

import (
	"net/http"

	"lojaia/internal/config"
	"lojaia/internal/handler"
	"lojaia/internal/util"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Category     *handler.CategoryHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Order        *handler.OrderHandler
	Checkout     *handler.CheckoutHandler
	Webhook      *handler.WebhookHandler
	Auth         *handler.AuthHandler
}

// Newはechoインスタンスを組み立ててルートを登録する。
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(requestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
	}))

	registerRoutes(e, cfg, h)

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}

// アクセスログはzapへ流す
func requestLogger() echo.MiddlewareFunc {
	logger := util.GetLogger()
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	})
}

func registerRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Category.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Checkout.RegisterRoutes(e)
	h.Webhook.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
