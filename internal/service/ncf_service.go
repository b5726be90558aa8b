package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
)

type CreateNcfSequenceRequest struct {
	Type        model.NcfType `json:"type" validate:"required,ncf_type"`
	Description string        `json:"description" validate:"omitempty,max=255"`
	StartNumber int64         `json:"start_number" validate:"required,gte=1,lte=99999999"`
	MaxNumber   int64         `json:"max_number" validate:"required,gte=1,lte=99999999"`
	ExpiresAt   *time.Time    `json:"expires_at"`
}

type UpdateNcfSequenceRequest struct {
	Description *string    `json:"description" validate:"omitempty,max=255"`
	MaxNumber   *int64     `json:"max_number" validate:"omitempty,gte=1,lte=99999999"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    *bool      `json:"is_active"`
}

// NcfAllocation is one issued receipt number.
type NcfAllocation struct {
	NCF        string
	Type       model.NcfType
	SequenceID uuid.UUID
	Remaining  int64
}

// NcfTypeStatus aggregates every usable sequence of one receipt type.
type NcfTypeStatus struct {
	Type      model.NcfType `json:"type"`
	TypeName  string        `json:"type_name"`
	Sequences int           `json:"sequences"`
	Remaining int64         `json:"remaining"`
	NextNCF   string        `json:"next_ncf,omitempty"`
	LowAlert  bool          `json:"low_alert"`
	Available bool          `json:"available"`
}

type NcfValidation struct {
	NCF      string        `json:"ncf"`
	Valid    bool          `json:"valid"`
	Series   string        `json:"series,omitempty"`
	Type     model.NcfType `json:"type,omitempty"`
	TypeName string        `json:"type_name,omitempty"`
	Number   int64         `json:"number,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type NcfService interface {
	// Allocate issues the next number of type t inside the caller's
	// transaction. Call Issued after the transaction commits.
	Allocate(tx *gorm.DB, t model.NcfType) (*NcfAllocation, error)
	Issued(a *NcfAllocation)

	Create(req *CreateNcfSequenceRequest, actor Actor) (*model.NcfSequence, error)
	Update(id uuid.UUID, req *UpdateNcfSequenceRequest, actor Actor) (*model.NcfSequence, error)
	List() ([]model.NcfSequenceStatus, error)
	Status() ([]NcfTypeStatus, error)
	Validate(ncf string) NcfValidation
}

type ncfService struct {
	repo     repository.NcfSequenceRepository
	settings repository.SettingsRepository
	audit    AuditService
	events   ws.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewNcfService(repo repository.NcfSequenceRepository, settings repository.SettingsRepository, audit AuditService, events ws.Publisher, m *metrics.Metrics, log *zap.Logger) NcfService {
	return &ncfService{
		repo:     repo,
		settings: settings,
		audit:    audit,
		events:   events,
		metrics:  m,
		log:      log.Named("ncf"),
		now:      time.Now,
	}
}

func (s *ncfService) Allocate(tx *gorm.DB, t model.NcfType) (*NcfAllocation, error) {
	if !t.Valid() {
		return nil, ErrInvalidNcfType
	}
	now := s.now()
	// A concurrent allocation may drain the chosen range between the select
	// and the conditional update; one reselection covers the move to the
	// next range.
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := s.repo.FindUsable(tx, t, now)
		if err != nil {
			if repository.IsNotFound(err) {
				if attempt == 0 {
					return nil, ErrNcfUnavailable
				}
				return nil, ErrNcfExhausted
			}
			return nil, err
		}

		ok, err := s.repo.Advance(tx, seq.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		updated, err := s.repo.FindByID(tx, seq.ID)
		if err != nil {
			return nil, err
		}
		return &NcfAllocation{
			NCF:        model.FormatNCF(updated.Series, updated.Type, updated.CurrentNumber),
			Type:       updated.Type,
			SequenceID: updated.ID,
			Remaining:  updated.Remaining(),
		}, nil
	}
	return nil, ErrNcfExhausted
}

func (s *ncfService) Issued(a *NcfAllocation) {
	s.metrics.NcfIssued(string(a.Type), a.Remaining)

	threshold := s.threshold()
	if a.Remaining > threshold {
		return
	}

	msg := fmt.Sprintf("Quedan %d comprobantes %s (%s) en la secuencia actual", a.Remaining, a.Type, a.Type.Name())
	if a.Remaining == 0 {
		msg = fmt.Sprintf("La secuencia de comprobantes %s (%s) se agotó", a.Type, a.Type.Name())
	}
	s.log.Warn("NCF sequence near exhaustion",
		zap.String("type", string(a.Type)),
		zap.String("sequence_id", a.SequenceID.String()),
		zap.Int64("remaining", a.Remaining),
		zap.Int64("threshold", threshold),
	)
	s.events.Publish(ws.Event{
		Type: "ncf_alert",
		Data: map[string]interface{}{
			"type":        a.Type,
			"sequence_id": a.SequenceID,
			"remaining":   a.Remaining,
			"last_ncf":    a.NCF,
		},
		Message: msg,
	})
}

func (s *ncfService) checkOverlap(t model.NcfType, start, max int64, self uuid.UUID) error {
	existing, err := s.repo.FindByType(t)
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].ID != self && existing[i].Overlaps(start, max) {
			return ErrNcfOverlap
		}
	}
	return nil
}

func (s *ncfService) Create(req *CreateNcfSequenceRequest, actor Actor) (*model.NcfSequence, error) {
	t := model.NcfType(strings.ToUpper(string(req.Type)))
	if !t.Valid() {
		return nil, ErrInvalidNcfType
	}
	if req.StartNumber < 1 || req.StartNumber > req.MaxNumber {
		return nil, ErrNcfInvalidRange
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, validationf("La fecha de vencimiento debe ser futura")
	}
	if err := s.checkOverlap(t, req.StartNumber, req.MaxNumber, uuid.Nil); err != nil {
		return nil, err
	}

	seq := &model.NcfSequence{
		Type:          t,
		Series:        "B",
		Description:   strings.TrimSpace(req.Description),
		StartNumber:   req.StartNumber,
		CurrentNumber: req.StartNumber - 1,
		MaxNumber:     req.MaxNumber,
		ExpiresAt:     req.ExpiresAt,
		IsActive:      true,
	}
	seq.CreatedBy = actor.by()
	seq.UpdatedBy = actor.by()
	if err := s.repo.Create(seq); err != nil {
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "ncf_sequence", seq.ID.String(), map[string]interface{}{
		"type":  seq.Type,
		"start": seq.StartNumber,
		"max":   seq.MaxNumber,
	})
	s.log.Info("NCF sequence created", zap.String("type", string(t)), zap.Int64("start", req.StartNumber), zap.Int64("max", req.MaxNumber))
	return seq, nil
}

func (s *ncfService) Update(id uuid.UUID, req *UpdateNcfSequenceRequest, actor Actor) (*model.NcfSequence, error) {
	seq, err := s.repo.FindByID(nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNcfNotFound
		}
		return nil, err
	}

	if req.MaxNumber != nil && *req.MaxNumber != seq.MaxNumber {
		if *req.MaxNumber < seq.CurrentNumber || *req.MaxNumber < seq.StartNumber {
			return nil, ErrNcfShrink
		}
		if err := s.checkOverlap(seq.Type, seq.StartNumber, *req.MaxNumber, seq.ID); err != nil {
			return nil, err
		}
		seq.MaxNumber = *req.MaxNumber
	}
	if req.Description != nil {
		seq.Description = strings.TrimSpace(*req.Description)
	}
	if req.ExpiresAt != nil {
		seq.ExpiresAt = req.ExpiresAt
	}
	if req.IsActive != nil {
		seq.IsActive = *req.IsActive
	}
	seq.UpdatedBy = actor.by()

	if err := s.repo.Update(seq); err != nil {
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "ncf_sequence", id.String(), req)
	return s.repo.FindByID(nil, id)
}

func (s *ncfService) List() ([]model.NcfSequenceStatus, error) {
	seqs, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	threshold := s.threshold()
	now := s.now()
	out := make([]model.NcfSequenceStatus, len(seqs))
	for i, seq := range seqs {
		st := model.NcfSequenceStatus{
			NcfSequence: seq,
			TypeName:    seq.Type.Name(),
			Remaining:   seq.Remaining(),
			Used:        seq.CurrentNumber - seq.StartNumber + 1,
			Expired:     seq.Expired(now),
		}
		if st.Used < 0 {
			st.Used = 0
		}
		if seq.Usable(now) {
			st.NextNCF = model.FormatNCF(seq.Series, seq.Type, seq.CurrentNumber+1)
			st.LowAlert = st.Remaining <= threshold
		}
		out[i] = st
	}
	return out, nil
}

func (s *ncfService) Status() ([]NcfTypeStatus, error) {
	seqs, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	threshold := s.threshold()
	now := s.now()

	byType := map[model.NcfType]*NcfTypeStatus{}
	for _, t := range []model.NcfType{model.NcfCreditoFiscal, model.NcfConsumo, model.NcfNotaCredito, model.NcfRegimenEsp, model.NcfGubernamental} {
		byType[t] = &NcfTypeStatus{Type: t, TypeName: t.Name()}
	}
	for i := range seqs {
		seq := &seqs[i]
		st, ok := byType[seq.Type]
		if !ok || !seq.Usable(now) {
			continue
		}
		st.Sequences++
		st.Remaining += seq.Remaining()
		// Sequences come ordered by start number, so the first usable one
		// issues next.
		if st.NextNCF == "" {
			st.NextNCF = model.FormatNCF(seq.Series, seq.Type, seq.CurrentNumber+1)
		}
	}

	out := make([]NcfTypeStatus, 0, len(byType))
	for _, st := range byType {
		st.Available = st.Remaining > 0
		st.LowAlert = st.Available && st.Remaining <= threshold
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (s *ncfService) Validate(ncf string) NcfValidation {
	v := NcfValidation{NCF: strings.ToUpper(strings.TrimSpace(ncf))}
	series, t, number, err := model.ParseNCF(v.NCF)
	if err != nil {
		v.Message = err.Error()
		return v
	}
	v.Valid = true
	v.Series = series
	v.Type = t
	v.TypeName = t.Name()
	v.Number = number
	return v
}

func (s *ncfService) threshold() int64 {
	settings, err := s.settings.Get()
	if err != nil {
		s.log.Warn("load settings for NCF threshold", zap.Error(err))
		return 50
	}
	return settings.NcfAlertThreshold
}
