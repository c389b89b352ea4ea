package config

import (
	"os"
	"strings"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート
	GoEnv string // dev/prod

	DatabaseURL string // 指定があれば最優先で使うDSN

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	FrontendURL  string   // 決済後のリダイレクト先に使う
	CORSOrigins  []string // 許可するオリジン
	MediaBaseURL string   // 商品画像の相対パスを絶対URLにするベース

	StripeSecretKey     string // 決済プロバイダのAPIキー
	StripeWebhookSecret string // webhook署名検証の共有シークレット

	ResendAPIKey string // メールプロバイダのAPIキー（空ならno-op）
	ResendFrom   string // 送信元

	OpenAIAPIKey string // 空ならフォールバック文言を返す
}

// Loadは環境変数から設定を読む。外部連携のキーは全てオプショナル。
func Load() Config {
	cfg := Config{
		Port:  getEnv("PORT", "8080"),
		GoEnv: getEnv("GO_ENV", "dev"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "lojaia"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "dev_secret_change_me"),

		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		MediaBaseURL: os.Getenv("MEDIA_BASE_URL"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		ResendFrom:   getEnv("RESEND_FROM", "Loja IA <onboarding@resend.dev>"),

		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
	}

	//CORSはカンマ区切り。未指定ならフロントURLだけ許可する
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	} else {
		cfg.CORSOrigins = []string{cfg.FrontendURL}
	}

	return cfg
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
