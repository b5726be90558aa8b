package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"go-pos-rd/internal/dgii"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

// Report is a rendered DGII file ready to download.
type Report struct {
	FileName string
	Records  int
	Body     []byte
}

type ReportService interface {
	Sales607(period string, actor Actor) (*Report, error)
	Purchases606(period string, actor Actor) (*Report, error)
}

type reportService struct {
	sales     repository.SaleRepository
	purchases repository.PurchaseOrderRepository
	settings  repository.SettingsRepository
	audit     AuditService
	log       *zap.Logger
	loc       *time.Location
}

func NewReportService(sales repository.SaleRepository, purchases repository.PurchaseOrderRepository, settings repository.SettingsRepository, audit AuditService, log *zap.Logger, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{sales: sales, purchases: purchases, settings: settings, audit: audit, log: log.Named("reports"), loc: loc}
}

// prepare resolves the emitter RNC and the period's date range.
func (s *reportService) prepare(period string) (string, dgii.Period, repository.DateRange, error) {
	p, err := dgii.ParsePeriod(period)
	if err != nil {
		if errors.Is(err, dgii.ErrInvalidPeriod) {
			return "", dgii.Period{}, repository.DateRange{}, ErrInvalidPeriod
		}
		return "", dgii.Period{}, repository.DateRange{}, err
	}
	settings, err := s.settings.Get()
	if err != nil {
		return "", dgii.Period{}, repository.DateRange{}, err
	}
	if settings.RNC == "" {
		return "", dgii.Period{}, repository.DateRange{}, ErrBusinessRNC
	}
	from, to := p.Range(s.loc)
	return settings.RNC, p, repository.DateRange{From: from, To: to}, nil
}

func (s *reportService) Sales607(period string, actor Actor) (*Report, error) {
	emitter, p, dr, err := s.prepare(period)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.ForFiscalPeriod(dr)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.sales.CountCancelled(dr)
	if err != nil {
		return nil, err
	}

	doc := dgii.Build607(emitter, p, sales, cancelled, s.loc)
	body, err := dgii.Marshal(doc)
	if err != nil {
		return nil, err
	}

	report := &Report{FileName: dgii.FileName("607", emitter, p), Records: doc.CantidadRegistros, Body: body}
	s.exported(actor, "607", p, report.Records)
	return report, nil
}

func (s *reportService) Purchases606(period string, actor Actor) (*Report, error) {
	emitter, p, dr, err := s.prepare(period)
	if err != nil {
		return nil, err
	}
	orders, err := s.purchases.ReceivedForPeriod(dr)
	if err != nil {
		return nil, err
	}

	doc := dgii.Build606(emitter, p, orders, s.loc)
	body, err := dgii.Marshal(doc)
	if err != nil {
		return nil, err
	}

	report := &Report{FileName: dgii.FileName("606", emitter, p), Records: doc.CantidadRegistros, Body: body}
	s.exported(actor, "606", p, report.Records)
	return report, nil
}

func (s *reportService) exported(actor Actor, format string, p dgii.Period, records int) {
	s.log.Info("dgii report generated",
		zap.String("format", format),
		zap.String("period", p.String()),
		zap.Int("records", records),
		zap.String("user", actor.Email),
	)
	recordBestEffort(s.audit, s.log, actor, model.AuditExport, "dgii_"+format, p.String(), map[string]interface{}{"records": records})
}
