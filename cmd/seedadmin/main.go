// seedadmin creates the bootstrap administrator from ADMIN_NAME,
// ADMIN_EMAIL and ADMIN_PASSWORD. Running it again is a no-op.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"portfolio_api/internal/app/service"
	"portfolio_api/internal/common/security"
	"portfolio_api/internal/domain/repository"
	"portfolio_api/internal/platform/config"
	"portfolio_api/internal/platform/database"
	"portfolio_api/internal/platform/logger"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flagSet := pflag.NewFlagSet("seedadmin", pflag.ContinueOnError)
	name := flagSet.String("name", cfg.AdminName, "display name of the administrator")
	email := flagSet.String("email", cfg.AdminEmail, "login email of the administrator")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD must be set")
	}

	log := logger.New("portfolio-seedadmin", cfg.LogLevel)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db, log)

	auth := service.NewAuthService(repository.NewPgUserRepository(db), security.NewTokenManager(cfg.JWTKey, cfg.JWTExp), log)
	admin, created, err := auth.EnsureAdmin(ctx, *name, *email, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("admin user created", "user_id", admin.ID, "email", admin.Email)
	} else {
		log.Info("account already exists, nothing to do", "user_id", admin.ID, "email", admin.Email, "role", admin.Role)
	}
	return nil
}
