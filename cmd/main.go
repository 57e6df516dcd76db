package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Stockline-Systems/inventory/config"
	"github.com/Stockline-Systems/inventory/internal/dto"
	"github.com/Stockline-Systems/inventory/internal/handler"
	"github.com/Stockline-Systems/inventory/internal/repository"
	"github.com/Stockline-Systems/inventory/internal/router"
	"github.com/Stockline-Systems/inventory/internal/service"
	"github.com/Stockline-Systems/inventory/pkg/database"
	"github.com/Stockline-Systems/inventory/pkg/logger"
	"github.com/Stockline-Systems/inventory/pkg/mailer"
	"github.com/Stockline-Systems/inventory/pkg/redis"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.GetLogger()

	if err := dto.RegisterValidators(); err != nil {
		log.Fatal("validator registration failed", zap.Error(err))
	}

	db, err := database.InitDatabase(cfg)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}

	cache, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal("redis init failed", zap.Error(err))
	}
	defer cache.Close()

	mail := mailer.NewMailer(cfg)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	itemRepo := repository.NewItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	tokens := service.NewTokenService(cfg)
	authService := service.NewAuthService(userRepo, tokens, cache, mail, cfg)
	orgService := service.NewOrganizationService(orgRepo, membershipRepo)
	employeeService := service.NewEmployeeService(invitationRepo, membershipRepo, userRepo, tokens, mail, cfg)
	reportService := service.NewReportService(cache, membershipRepo, itemRepo, orderRepo)
	itemService := service.NewItemService(itemRepo, reportService)
	orderService := service.NewOrderService(orderRepo, itemRepo, reportService)

	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg),
		Organization: handler.NewOrganizationHandler(orgService, membershipRepo),
		Employee:     handler.NewEmployeeHandler(employeeService, orgService, membershipRepo),
		Item:         handler.NewItemHandler(itemService, membershipRepo),
		Order:        handler.NewOrderHandler(orderService, membershipRepo),
		Report:       handler.NewReportHandler(reportService, membershipRepo),
		Health:       handler.NewHealthHandler(db, cache),
	}

	engine := router.Setup(cfg, handlers, tokens, userRepo, cache)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.App.Timeout,
		WriteTimeout: cfg.App.Timeout,
	}

	go func() {
		log.Info("server starting",
			zap.String("port", cfg.App.Port),
			zap.String("environment", cfg.App.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
