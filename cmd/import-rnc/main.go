// Command import-rnc loads the DGII taxpayer registry dump (DGII_RNC.TXT)
// into rnc_registries.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-rd/internal/config"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
	"go-pos-rd/pkg/cache"
	"go-pos-rd/pkg/database"
	"go-pos-rd/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

func main() {
	path := flag.String("file", "DGII_RNC.TXT", "registry dump path, - for stdin")
	encoding := flag.String("encoding", "latin1", "input encoding: latin1 or utf8")
	batch := flag.Int("batch", 1000, "rows per upsert")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.ForEnv("development", "info").Fatal("load config", zap.Error(err))
	}
	log := logger.ForEnv(cfg.App.Env, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	// 1. Input
	var in io.Reader = os.Stdin
	if *path != "-" {
		f, err := os.Open(*path)
		if err != nil {
			log.Fatal("open dump", zap.String("file", *path), zap.Error(err))
		}
		defer f.Close()
		in = f
	}
	switch *encoding {
	case "latin1":
		in = charmap.ISO8859_1.NewDecoder().Reader(in)
	case "utf8":
	default:
		log.Fatal("unknown encoding", zap.String("encoding", *encoding))
	}

	// 2. Database
	db, err := database.ConnectDB(cfg.Database.Connection(), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := db.AutoMigrate(&model.RncRegistry{}); err != nil {
		log.Fatal("auto migrate", zap.Error(err))
	}

	// 3. Import
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewRncRepo(db)
	svc := service.NewRncService(repo, cache.NewMemoryStore(), cfg.Business.RNCCacheTTL, cfg.Business.RNCNegativeTTL, log)

	started := time.Now()
	stats, err := svc.Import(ctx, in, *batch)
	if err != nil {
		log.Fatal("import", zap.Error(err), zap.Int("imported", stats.Imported))
	}
	total, _ := repo.Count()
	log.Info("registry updated",
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
		zap.Int64("registry_size", total),
		zap.Duration("elapsed", time.Since(started)))
}
