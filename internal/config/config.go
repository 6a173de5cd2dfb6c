package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
}

// AppConfig — настройки приложения поверх конфигурации БД.
type AppConfig struct {
	Env          string
	HTTPAddr     string
	TickInterval time.Duration // период опроса напоминаний
}

// Load читает .env (если есть) и собирает конфигурацию из переменных окружения.
func Load() (*AppConfig, *DBConfig, error) {
	// .env опционален: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	app := &AppConfig{
		Env:          getEnv("APP_ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		TickInterval: time.Duration(getEnvInt("REMINDER_TICK_MINUTES", 5)) * time.Minute,
	}

	db := &DBConfig{
		Host:            getEnv("DB_HOST", "postgres"),
		User:            getEnv("DB_USER", "scheduling"),
		Password:        getEnv("DB_PASSWORD", "scheduling"),
		Name:            getEnv("DB_NAME", "scheduling_db"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		TimeZone:        getEnv("DB_TIMEZONE", "America/Sao_Paulo"),
		Port:            getEnvInt("DB_PORT", 5432),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifeTime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
	}

	// минимальная валидация
	if db.Host == "" || db.User == "" || db.Name == "" {
		return nil, nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}
	if app.TickInterval <= 0 {
		return nil, nil, fmt.Errorf("invalid app config: tick interval must be positive")
	}

	return app, db, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
