package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agendora/scheduling-core/internal/config"
	"github.com/agendora/scheduling-core/internal/db"
	"github.com/agendora/scheduling-core/internal/handler"
	"github.com/agendora/scheduling-core/internal/logger"
	"github.com/agendora/scheduling-core/internal/model"
	"github.com/agendora/scheduling-core/internal/notification"
	"github.com/agendora/scheduling-core/internal/repository"
	"github.com/agendora/scheduling-core/internal/service"
)

func main() {
	// 1. Конфигурация из env (.env опционален).
	appCfg, dbCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Логгер.
	if err := logger.Init(appCfg.Env); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	logger.SLog.Infof("starting scheduling-core: env=%s addr=%s tick=%s",
		appCfg.Env, appCfg.HTTPAddr, appCfg.TickInterval)

	// 3. Подключение к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		logger.Log.Fatal("init db", zap.Error(err))
	}

	// 4. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		logger.Log.Fatal("auto migrate", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Log.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 5. Репозитории (реализации на GORM).
	apptRepo := repository.NewGormAppointmentRepository(gormDB)
	tenantRepo := repository.NewGormTenantRepository(gormDB)
	serviceRepo := repository.NewGormServiceRepository(gormDB)
	msgRepo := repository.NewGormMessageLogRepository(gormDB)

	// 6. Сервисы ядра.
	dispatcher := notification.NewLogDispatcher(logger.Log)
	bookingSvc := service.NewBookingService(gormDB, apptRepo, tenantRepo, serviceRepo)
	recurrenceSvc := service.NewRecurrenceService(gormDB, apptRepo, tenantRepo)
	reminderSvc := service.NewReminderService(gormDB, apptRepo, tenantRepo, msgRepo, dispatcher)
	usageSvc := service.NewUsageService(tenantRepo, msgRepo)

	// 7. HTTP-поверхность.
	app := fiber.New(fiber.Config{
		AppName:      "scheduling-core",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	handler.SetupRoutes(
		app,
		handler.NewBookingHandler(bookingSvc),
		handler.NewRecurrenceHandler(recurrenceSvc),
		handler.NewReminderHandler(reminderSvc),
		handler.NewUsageHandler(usageSvc),
		handler.NewSettingsHandler(tenantRepo),
		handler.NewCatalogHandler(serviceRepo),
	)

	// 8. HTTP-сервер и тикер напоминаний бок о бок; останов по сигналу.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("http server listening", zap.String("addr", appCfg.HTTPAddr))
		return app.Listen(appCfg.HTTPAddr)
	})

	g.Go(func() error {
		ticker := time.NewTicker(appCfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if _, err := reminderSvc.Tick(gctx, time.Now().UTC()); err != nil {
					// тик переживает сбои: следующий прогон повторит работу
					logger.Log.Error("reminder tick", zap.Error(err))
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("shutting down http server...")
		return app.Shutdown()
	})

	if err := g.Wait(); err != nil && !isShutdownErr(err) {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}

func isShutdownErr(err error) bool {
	return errors.Is(err, context.Canceled)
}
