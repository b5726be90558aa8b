// Command migrate applies the embedded SQL migrations.
//
//	migrate up | down | version | steps N | force V
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go-pos-rd/internal/config"
	"go-pos-rd/migrations"
	"go-pos-rd/pkg/database"
	"go-pos-rd/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate up | down | version | steps N | force V")
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.ForEnv("development", "info").Fatal("load config", zap.Error(err))
	}
	log := logger.ForEnv(cfg.App.Env, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	db, err := database.ConnectDB(cfg.Database.Connection(), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("database handle", zap.Error(err))
	}

	m, err := database.NewMigrator(sqlDB, migrations.FS, log)
	if err != nil {
		log.Fatal("migrator", zap.Error(err))
	}
	defer func() { _ = m.Close() }()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
		var v uint
		var dirty bool
		if v, dirty, err = m.Version(); err == nil {
			log.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		}
	case "steps", "force":
		n, convErr := strconv.Atoi(flag.Arg(1))
		if convErr != nil {
			log.Fatal("expected a number", zap.String("command", cmd), zap.String("arg", flag.Arg(1)))
		}
		if cmd == "steps" {
			err = m.Steps(n)
		} else {
			err = m.Force(n)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
}
