package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(db.Options{
		DSN:          cfg.DSN(),
		Logger:       logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel)),
		MaxOpenConns: 20,
		MaxIdleConns: 5,
	})
	if err != nil {
		log.Error("db connect failed", zap.Error(err))
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("db migrate failed", zap.Error(err))
		return err
	}

	//注文番号の採番。Redisがあればそちらを使う
	var seq repository.OrderSequence = infraRepo.NewOrderCountSequence(gormDB)
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("redis connect failed", zap.Error(err))
			return err
		}
		defer func() { _ = client.Close() }()
		seq = cache.NewRedisOrderSequence(client, "")
	}

	//メトリクス
	mp, err := metrics.NewProvider(ctx, metrics.ProviderConfig{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: cfg.ServiceName,
		Environment: cfg.GoEnv,
	})
	if err != nil {
		log.Error("metrics provider failed", zap.Error(err))
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mp.Shutdown(sctx)
	}()
	recorder, err := metrics.NewRecorder(mp.Meter(cfg.ServiceName))
	if err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	wishlistRepo := infraRepo.NewWishlistGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, categoryRepo, txm)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo, productRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, recorder)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txm, seq, recorder, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, recorder, cfg.StrictOrderTransitions)
	auditUC := usecase.NewAuditUsecase(auditRepo)
	userUC := usecase.NewUserUsecase(userRepo)

	//Handler生成
	e := server.New(cfg, log, recorder, userRepo, server.Handlers{
		Product:       handler.NewProductHandler(productUC),
		Category:      handler.NewCategoryHandler(categoryUC),
		Cart:          handler.NewCartHandler(cartUC),
		Wishlist:      handler.NewWishlistHandler(wishlistUC),
		Order:         handler.NewOrderHandler(orderUC, adminOrderUC),
		User:          handler.NewUserHandler(cfg, userRepo, userUC),
		AdminProduct:  handler.NewAdminProductHandler(productUC),
		AdminOrder:    handler.NewAdminOrderHandler(adminOrderUC),
		AdminCategory: handler.NewAdminCategoryHandler(categoryUC),
		AdminAudit:    handler.NewAdminAuditHandler(auditUC),
	})

	//Server起動
	log.Info("server starting", zap.String("addr", cfg.Addr()), zap.String("env", cfg.GoEnv))
	if err := server.Start(ctx, e, cfg.Addr(), cfg.ShutdownTimeout); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
