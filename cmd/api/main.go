package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "loanledger/internal/adapter/http"
	idem "loanledger/internal/adapter/middleware"
	"loanledger/internal/adapter/repository/mysql"
	"loanledger/internal/config"
	"loanledger/internal/infrastructure/cache"
	"loanledger/internal/infrastructure/db"
	"loanledger/internal/infrastructure/logger"
	"loanledger/internal/usecase/approval"
	"loanledger/internal/usecase/eligibility"
	"loanledger/internal/usecase/loan"
	"loanledger/internal/usecase/repayment"
	"loanledger/internal/usecase/shares"
	"loanledger/pkg/clock"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return err
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	tx := mysql.NewGormUoW(gdb)
	clk := clock.System()
	handlers := httpadp.Handlers{
		Health: httpadp.NewHandler(),
		Loans: httpadp.NewLoanHandler(
			loan.NewUsecase(tx, policy, clk, log),
			eligibility.NewUsecase(tx, policy, log),
			repayment.NewUsecase(tx, clk, log),
			log,
		),
		Approval: httpadp.NewApprovalHandler(approval.NewUsecase(tx, clk, log), log),
		Shares:   httpadp.NewShareHandler(shares.NewUsecase(tx, policy, clk, log), log),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(
		httpadp.RequestID(),
		middleware.Recover(),
		requestLog(log),
	)
	ttl := time.Duration(cfg.IdempTTLSecs) * time.Second
	httpadp.Register(e, handlers, idem.IdempotencyMiddleware(rdb, ttl, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", ":"+cfg.AppPort))
		errc <- e.Start(":" + cfg.AppPort)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return e.Shutdown(shutdown)
}

func requestLog(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.For(c.Request().Context(), log).Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
			)
			return nil
		},
	})
}
