package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/api"
	"github.com/AlexZinkM/encrypted-adventure/internal/app"
	"github.com/AlexZinkM/encrypted-adventure/internal/config"
	"github.com/AlexZinkM/encrypted-adventure/internal/handler"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title           Encrypted Adventure API
// @version         1.0
// @description     Local player client for the encrypted adventure game. Weapon power and coins are decrypted through the relayer with the unlocked keystore.
// @host            localhost:8080
// @BasePath        /
func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.Get()

	logger, err := app.NewLogger(cfg.LogLevel, false)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := config.PromptForPassword(); err != nil {
		logger.Fatal("password", zap.Error(err))
	}
	defer config.ForgetPassword()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var game *adventure.Game
	a, err := app.Connect(ctx, cfg, logger)
	switch {
	case errors.Is(err, app.ErrNoKeystore):
		logger.Warn("no wallet yet, POST /wallet/generate and restart", zap.String("keystore", cfg.KeystorePath))
	case err != nil:
		logger.Fatal("failed to connect wallet", zap.Error(err))
	default:
		defer a.Close()
		game = a.Game
		if err := game.Refresh(ctx); err != nil {
			logger.Warn("initial refresh failed", zap.Error(err))
		}
	}

	walletHandler, err := handler.NewWalletHandler(cfg.KeystorePath, cfg.ChainID)
	if err != nil {
		logger.Fatal("wallet handler", zap.Error(err))
	}
	actionTimeout := cfg.TxTimeout + 2*cfg.RelayerTimeout
	adventureHandler := handler.NewAdventureHandler(game, actionTimeout, logger)

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           api.SetupRouter(adventureHandler, walletHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
