package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/pkg/cache"
	"go-pos-rd/pkg/rnc"
)

// notFoundMarker is cached for identifiers the registry does not know.
const notFoundMarker = "-"

// RncLookup is a registry record plus the identifier rendered for display.
type RncLookup struct {
	model.RncRegistry
	Kind      rnc.Kind `json:"kind"`
	Formatted string   `json:"formatted"`
}

type RncService interface {
	Lookup(ctx context.Context, raw string) (*RncLookup, error)
	Search(name string, limit int) ([]model.RncRegistry, error)
	// Import upserts a pipe-delimited DGII registry dump in batches.
	Import(ctx context.Context, r io.Reader, batchSize int) (ImportStats, error)
}

type rncService struct {
	repo        repository.RncRepository
	cache       cache.Store
	ttl         time.Duration
	negativeTTL time.Duration
	log         *zap.Logger
}

func NewRncService(repo repository.RncRepository, store cache.Store, ttl, negativeTTL time.Duration, log *zap.Logger) RncService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if negativeTTL <= 0 {
		negativeTTL = 10 * time.Minute
	}
	return &rncService{repo: repo, cache: store, ttl: ttl, negativeTTL: negativeTTL, log: log.Named("rnc")}
}

func (s *rncService) Lookup(ctx context.Context, raw string) (*RncLookup, error) {
	number, kind, err := rnc.Parse(raw)
	if err != nil {
		return nil, ErrInvalidRnc
	}
	key := "rnc:" + number

	// 1. Cache; failures degrade to the database
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("rnc cache get", zap.String("rnc", number), zap.Error(err))
	} else if ok {
		if cached == notFoundMarker {
			return nil, ErrRncNotFound
		}
		var rec model.RncRegistry
		if err := json.Unmarshal([]byte(cached), &rec); err == nil {
			return &RncLookup{RncRegistry: rec, Kind: kind, Formatted: rnc.Format(number)}, nil
		}
	}

	// 2. Registry table
	rec, err := s.repo.FindByRNC(number)
	if err != nil {
		if repository.IsNotFound(err) {
			s.store(ctx, key, notFoundMarker, s.negativeTTL)
			return nil, ErrRncNotFound
		}
		return nil, err
	}
	if payload, err := json.Marshal(rec); err == nil {
		s.store(ctx, key, string(payload), s.ttl)
	}
	return &RncLookup{RncRegistry: *rec, Kind: kind, Formatted: rnc.Format(number)}, nil
}

func (s *rncService) store(ctx context.Context, key, value string, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.log.Warn("rnc cache set", zap.String("key", key), zap.Error(err))
	}
}

func (s *rncService) Search(name string, limit int) ([]model.RncRegistry, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 3 {
		return nil, validationf("Escriba al menos 3 caracteres para buscar")
	}
	return s.repo.Search(name, limit)
}
