package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log и SLog — глобальные логгеры ядра. Инициализируются один раз в main.
// До Init — no-op, чтобы пакеты можно было использовать в тестах без настройки.
var (
	Log  = zap.NewNop()
	SLog = zap.NewNop().Sugar()
)

// Init настраивает zap в зависимости от окружения (APP_ENV).
// В production — JSON, в остальных случаях — человекочитаемый вывод.
func Init(env string) error {
	var (
		l   *zap.Logger
		err error
	)

	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build()
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = cfg.Build()
	}
	if err != nil {
		return err
	}

	Log = l
	SLog = l.Sugar()
	return nil
}

// Sync сбрасывает буферы логгера. Вызывается через defer в main.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
