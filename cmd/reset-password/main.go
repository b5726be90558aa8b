// Command reset-password sets a new password for an existing account and
// signs out its current session.
package main

import (
	"flag"

	"go-pos-rd/internal/config"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
	"go-pos-rd/pkg/database"
	"go-pos-rd/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", service.DefaultAdmin.Email, "account email")
	password := flag.String("password", service.DefaultAdmin.Password, "new password (min 6 characters)")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		logger.ForEnv("development", "info").Fatal("load config", zap.Error(err))
	}
	log := logger.ForEnv(cfg.App.Env, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if len(*password) < 6 {
		log.Fatal("password must have at least 6 characters")
	}

	// 2. Database
	db, err := database.ConnectDB(cfg.Database.Connection(), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	users := repository.NewUserRepo(db)

	// 3. Find account
	user, err := users.FindByEmail(*email)
	if err != nil {
		log.Fatal("user not found", zap.String("email", *email), zap.Error(err))
	}

	// 4. Hash and update
	if err := user.SetPassword(*password); err != nil {
		log.Fatal("hash password", zap.Error(err))
	}
	if err := users.UpdatePassword(user.ID, user.Password); err != nil {
		log.Fatal("update password", zap.Error(err))
	}
	if err := users.UpdateTokenVersion(user.ID, uuid.New().String()); err != nil {
		log.Fatal("revoke session", zap.Error(err))
	}

	log.Info("password reset", zap.String("email", user.Email))
}
