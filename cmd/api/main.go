package main

import (
	"time"

	"lojaia/internal/config"
	"lojaia/internal/domain/model"
	"lojaia/internal/handler"
	"lojaia/internal/infra/ai"
	"lojaia/internal/infra/db"
	"lojaia/internal/infra/email"
	"lojaia/internal/infra/payment"
	infraRepo "lojaia/internal/infra/repository"
	"lojaia/internal/server"
	"lojaia/internal/usecase"
	"lojaia/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(secret string) *jwtIssuer {
	//アクセストークン
	return &jwtIssuer{
		secret:    []byte(secret),
		accessTTL: 24 * time.Hour,
	}
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if err := util.InitLogger(cfg.GoEnv); err != nil {
		panic(err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//外部プロバイダのクライアント（キー未設定ならno-op/フォールバック側に倒れる）
	paymentClient := payment.NewClient(cfg.StripeSecretKey)
	emailClient := email.NewClient(cfg.ResendAPIKey, cfg.ResendFrom)
	aiClient := ai.NewClient(cfg.OpenAIAPIKey)

	//Usecase生成
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, orderItemRepo, aiClient, cfg.MediaBaseURL)
	orderUC := usecase.NewOrderUsecase(txManager, orderRepo, orderItemRepo)
	checkoutUC := usecase.NewCheckoutUsecase(orderRepo, orderItemRepo, paymentClient, cfg.FrontendURL)
	paymentUC := usecase.NewPaymentUsecase(orderRepo, emailClient)
	authUC := usecase.NewAuthUsecase(userRepo, newJWTIssuer(cfg.JWTSecret))

	//Handler生成
	handlers := server.Handlers{
		Category:     handler.NewCategoryHandler(categoryUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Order:        handler.NewOrderHandler(orderUC),
		Checkout:     handler.NewCheckoutHandler(checkoutUC),
		Webhook:      handler.NewWebhookHandler(paymentUC, cfg.StripeWebhookSecret),
		Auth:         handler.NewAuthHandler(authUC),
	}

	//Server起動
	e := server.New(cfg, handlers)

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	logger.Info("server starting", zap.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
