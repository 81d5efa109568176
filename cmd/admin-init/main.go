// Command admin-init seeds the first administrator account from
// ADMIN_INIT_* variables.  Running it again only re-grants the admin role.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/config"
	"github.com/iliyamo/gym-management/internal/database"
	"github.com/iliyamo/gym-management/internal/logging"
	"github.com/iliyamo/gym-management/internal/queue"
	"github.com/iliyamo/gym-management/internal/repository"
	"github.com/iliyamo/gym-management/internal/service"
	"github.com/iliyamo/gym-management/internal/utils"
)

func main() {
	cfg := config.Load()
	if cfg.AdminInitUsername == "" || cfg.AdminInitEmail == "" || cfg.AdminInitPassword == "" {
		log.Fatal("ADMIN_INIT_EMAIL, ADMIN_INIT_USERNAME and ADMIN_INIT_PASSWORD are required")
	}

	logger, err := logging.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
	}

	accountRepo := repository.NewAccountRepo(db)
	roles := service.NewRoleService(repository.NewRoleRepo(db), accountRepo, cfg.DefaultRole, queue.Nop{}, logger)
	accounts := service.NewAccountService(accountRepo, roles, utils.NewHasher(cfg.BcryptCost), queue.Nop{}, logger)

	view, created, err := accounts.EnsureAdmin(ctx, service.CreateAccountInput{
		FirstName: "Admin",
		LastName:  "Admin",
		Email:     cfg.AdminInitEmail,
		Username:  cfg.AdminInitUsername,
		Password:  cfg.AdminInitPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	logger.Info("admin init", zap.Uint64("account_id", view.ID), zap.String("username", view.Username), zap.Bool("created", created))

	fmt.Println("admin init completed")
}
