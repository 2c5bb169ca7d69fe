// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/clayman083/passport/internal/config"
	"github.com/clayman083/passport/internal/db"
	"github.com/clayman083/passport/internal/security"
	userdomain "github.com/clayman083/passport/internal/user/domain"
	userrepo "github.com/clayman083/passport/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devPassword  = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	users := userrepo.NewPostgresRepository(pool)

	exists, err := users.Exists(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if exists {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		return
	}

	hasher := security.NewHasher(cfg.HashRounds)
	passwordHash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := &userdomain.User{
		Email:        devUserEmail,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create dev user: %v", err)
	}
	log.Printf("Seeded dev user %s (id=%d)", devUserEmail, user.Key)
}
