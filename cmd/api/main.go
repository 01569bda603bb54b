package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-otp-nosql/internal/application/auth"
	"github.com/go-otp-nosql/internal/application/credential"
	"github.com/go-otp-nosql/internal/application/delivery"
	"github.com/go-otp-nosql/internal/application/otp"
	"github.com/go-otp-nosql/internal/config"
	"github.com/go-otp-nosql/internal/infrastructure/dynamo"
	"github.com/go-otp-nosql/internal/infrastructure/memorystore"
	"github.com/go-otp-nosql/internal/infrastructure/redisstore"
	"github.com/go-otp-nosql/internal/infrastructure/smtp"
	"github.com/go-otp-nosql/internal/infrastructure/sns"
	"github.com/go-otp-nosql/internal/observability/logging"
	"github.com/go-otp-nosql/internal/observability/metrics"
	transporthttp "github.com/go-otp-nosql/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.AppEnv,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}
	metrics.MustRegister("otp-api")

	if err := run(cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	var (
		otpStore     otp.Store
		accountStore credential.AccountStore
		memOtps      *memorystore.OtpStore
		alerter      delivery.Alerter
	)

	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}

	switch cfg.StoreBackend {
	case "memory":
		memOtps = memorystore.NewOtpStore()
		otpStore = memOtps
		accountStore = memorystore.NewAccountStore()
		slog.Warn("using in-memory stores; data is lost on restart")
	case "dynamo":
		client := dynamo.NewClient(awsCfg, cfg)
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		otpStore = dynamo.NewOtpRepo(client, cfg.DynamoTables.Otps)
		accountStore = dynamo.NewAccountRepo(client, cfg.DynamoTables.Accounts)
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	var (
		cooldown    auth.Cooldown
		memCooldown *memorystore.Cooldown
	)
	if cfg.RedisAddr != "" {
		rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		cooldown = redisstore.NewCooldown(rdb, "otp:cooldown:")
	} else {
		memCooldown = memorystore.NewCooldown()
		cooldown = memCooldown
	}

	if memOtps != nil || memCooldown != nil {
		sweeper, err := memorystore.StartSweeper(cfg.OTP.SweepSchedule, memOtps, memCooldown)
		if err != nil {
			return fmt.Errorf("start sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	// SNS alerts are optional.
	if cfg.SNSAlertTopicARN != "" {
		alerter = sns.NewAlerter(awsCfg, cfg.SNSRegion, cfg.SNSAlertTopicARN)
	}

	dispatcher := delivery.NewDispatcher(smtp.NewMailer(cfg), alerter, delivery.Options{
		Async:   cfg.OTP.DeliveryAsync,
		Timeout: cfg.OTP.DeliveryTimeout,
	})

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store: otpStore,
		Options: otp.Options{
			TTL:             cfg.OTP.TTL,
			MaxAttempts:     cfg.OTP.MaxAttempts,
			EnforceExpiry:   cfg.OTP.EnforceExpiry,
			RequireVerified: cfg.OTP.RequireVerified,
			VerifiedWindow:  cfg.OTP.VerifiedWindow,
		},
	})
	credSvc := credential.NewService(credential.ServiceDeps{
		Accounts:   accountStore,
		Gate:       otpSvc,
		BcryptCost: cfg.BcryptCost,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Accounts:       credSvc,
		Issuer:         otpSvc,
		Cooldown:       cooldown,
		Dispatcher:     dispatcher,
		ResendCooldown: cfg.OTP.ResendCooldown,
	})

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Codes:       authSvc,
		Credentials: credSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "backend", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	// Let queued emails go out before the process exits.
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		slog.Warn("pending otp deliveries abandoned", "err", err)
	}
	slog.Info("server stopped")
	return nil
}
