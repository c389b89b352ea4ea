package util

import (
	"go.uber.org/zap"
)

var logger *zap.Logger

// InitLoggerはグローバルロガーを初期化する（prodはJSON、それ以外はdev出力）
func InitLogger(env string) error {
	var cfg zap.Config
	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	logger = l
	zap.ReplaceGlobals(logger)
	return nil
}

func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLoggerはバッファを吐き出す（shutdown時に呼ぶ）
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
