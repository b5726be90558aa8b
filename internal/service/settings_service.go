package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
	"go-pos-rd/pkg/rnc"
	"go-pos-rd/pkg/storage"
)

type UpdateSettingsRequest struct {
	BusinessName      string           `json:"business_name" validate:"required,max=255"`
	RNC               string           `json:"rnc" validate:"omitempty,rnc"`
	Address           string           `json:"address" validate:"omitempty,max=1000"`
	Phone             string           `json:"phone" validate:"omitempty,max=20"`
	Email             string           `json:"email" validate:"omitempty,email"`
	ITBISRate         *decimal.Decimal `json:"itbis_rate"`
	ReceiptFooter     string           `json:"receipt_footer" validate:"omitempty,max=500"`
	NcfAlertThreshold *int64           `json:"ncf_alert_threshold" validate:"omitempty,gte=0"`
}

// LogoUpload is a logo file as received from a multipart form.
type LogoUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

type SettingsService interface {
	Get() (*model.BusinessSettings, error)
	Update(req *UpdateSettingsRequest, actor Actor) (*model.BusinessSettings, error)
	UploadLogo(ctx context.Context, upload LogoUpload, actor Actor) (*model.BusinessSettings, error)
}

var logoExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type settingsService struct {
	repo         repository.SettingsRepository
	store        storage.Storage
	audit        AuditService
	events       ws.Publisher
	log          *zap.Logger
	maxSize      int64
	allowedTypes map[string]bool
}

func NewSettingsService(repo repository.SettingsRepository, store storage.Storage, audit AuditService, events ws.Publisher, log *zap.Logger, maxUploadSize int64, allowedTypes []string) SettingsService {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		if _, ok := logoExtensions[t]; ok {
			allowed[t] = true
		}
	}
	if len(allowed) == 0 {
		for t := range logoExtensions {
			allowed[t] = true
		}
	}
	if maxUploadSize <= 0 {
		maxUploadSize = 2 << 20
	}
	return &settingsService{
		repo:         repo,
		store:        store,
		audit:        audit,
		events:       events,
		log:          log.Named("settings"),
		maxSize:      maxUploadSize,
		allowedTypes: allowed,
	}
}

func (s *settingsService) Get() (*model.BusinessSettings, error) {
	return s.repo.Get()
}

func (s *settingsService) Update(req *UpdateSettingsRequest, actor Actor) (*model.BusinessSettings, error) {
	settings, err := s.repo.Get()
	if err != nil {
		return nil, err
	}

	settings.BusinessName = strings.TrimSpace(req.BusinessName)
	settings.RNC = ""
	if req.RNC != "" {
		number, _, err := rnc.Parse(req.RNC)
		if err != nil {
			return nil, ErrInvalidRnc
		}
		settings.RNC = number
	}
	settings.Address = strings.TrimSpace(req.Address)
	settings.Phone = req.Phone
	settings.Email = strings.TrimSpace(req.Email)
	settings.ReceiptFooter = req.ReceiptFooter
	if req.ITBISRate != nil {
		if req.ITBISRate.IsNegative() || req.ITBISRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, validationf("La tasa de ITBIS debe estar entre 0 y 1 (por ejemplo 0.18)")
		}
		settings.ITBISRate = req.ITBISRate.Round(4)
	}
	if req.NcfAlertThreshold != nil {
		settings.NcfAlertThreshold = *req.NcfAlertThreshold
	}
	settings.UpdatedBy = actor.by()

	if err := s.repo.Save(settings); err != nil {
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "settings", "1", req)
	s.events.Publish(ws.Event{Type: "settings_update", Data: settings, User: actor.wsActor()})
	return settings, nil
}

func (s *settingsService) UploadLogo(ctx context.Context, upload LogoUpload, actor Actor) (*model.BusinessSettings, error) {
	// 1. Declared type and size
	declared := strings.ToLower(strings.TrimSpace(strings.SplitN(upload.ContentType, ";", 2)[0]))
	if !s.allowedTypes[declared] {
		return nil, ErrInvalidFileType
	}
	if upload.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	// 2. Read at most one byte past the limit, then sniff the content
	data, err := io.ReadAll(io.LimitReader(upload.Body, s.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrInvalidFileType
	}
	if sniffed := http.DetectContentType(data); sniffed != declared {
		return nil, ErrInvalidFileType
	}

	// 3. Store and point settings at it
	settings, err := s.repo.Get()
	if err != nil {
		return nil, err
	}
	key := "logos/" + uuid.New().String() + "." + logoExtensions[declared]
	if err := s.store.Put(ctx, key, declared, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, err
	}

	oldURL := settings.LogoURL
	settings.LogoURL = s.store.URL(key)
	settings.UpdatedBy = actor.by()
	if err := s.repo.Save(settings); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("remove orphaned logo", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	// 4. Old logo goes away once the new one is referenced
	if oldKey := storage.KeyFromURL(s.store.URL(""), oldURL); oldKey != "" {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.log.Warn("delete previous logo", zap.String("key", oldKey), zap.Error(err))
		}
	}

	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "settings", "1", map[string]interface{}{"logo_url": settings.LogoURL})
	s.log.Info("business logo updated", zap.String("key", key), zap.Int("bytes", len(data)))
	return settings, nil
}
