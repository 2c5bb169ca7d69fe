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

	"github.com/clayman083/passport/internal/config"
	"github.com/clayman083/passport/internal/db"
	identityservice "github.com/clayman083/passport/internal/identity/service"
	"github.com/clayman083/passport/internal/logging"
	"github.com/clayman083/passport/internal/security"
	"github.com/clayman083/passport/internal/server"
	sessionrepo "github.com/clayman083/passport/internal/session/repository"
	userrepo "github.com/clayman083/passport/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewDefault("passport")

	privateKey, err := security.ParsePrivateKey(cfg.TokenPrivateKey)
	if err != nil {
		log.Fatalf("private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.TokenPublicKey)
	if err != nil {
		log.Fatalf("public key: %v", err)
	}
	codec, err := security.NewCodec(privateKey, publicKey)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	auth := identityservice.NewAuthService(
		userrepo.NewPostgresRepository(pool),
		sessionrepo.NewPostgresRepository(pool),
		security.NewHasher(cfg.HashRounds),
		codec,
		cfg.SessionTTL(),
	)

	router := server.NewRouter(cfg, server.Deps{Auth: auth, DB: pool, Log: logger})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "http server listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown", "error", err)
	}
	logger.Info(ctx, "http server stopped")
}
