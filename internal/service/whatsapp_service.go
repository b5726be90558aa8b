package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"

	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/pkg/money"
	"go-pos-rd/pkg/whatsapp"
)

type SendMessageRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message" validate:"required,max=4096"`
}

type BroadcastRequest struct {
	Message     string      `json:"message" validate:"required,max=4096"`
	CustomerIDs []uuid.UUID `json:"customer_ids"`
}

type BroadcastResult struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type WhatsAppService interface {
	Send(ctx context.Context, req *SendMessageRequest, actor Actor) (*model.WhatsAppMessage, error)
	SendReceipt(ctx context.Context, saleID uuid.UUID, actor Actor) (*model.WhatsAppMessage, error)
	Broadcast(ctx context.Context, req *BroadcastRequest, actor Actor) (*BroadcastResult, error)
	List(kind model.MessageKind, phone string, p model.Pagination) (model.Page[model.WhatsAppMessage], error)
}

type whatsAppService struct {
	repo      repository.WhatsAppRepository
	customers repository.CustomerRepository
	sales     SaleService
	sender    whatsapp.Sender
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	printer   *message.Printer
	log       *zap.Logger
}

// NewWhatsAppService paces broadcasts at perSecond messages with the given
// burst; perSecond <= 0 disables pacing.
func NewWhatsAppService(repo repository.WhatsAppRepository, customers repository.CustomerRepository, sales SaleService, sender whatsapp.Sender, m *metrics.Metrics, perSecond float64, burst int, log *zap.Logger) WhatsAppService {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &whatsAppService{
		repo:      repo,
		customers: customers,
		sales:     sales,
		sender:    sender,
		metrics:   m,
		limiter:   rate.NewLimiter(limit, burst),
		printer:   message.NewPrinter(language.Spanish),
		log:       log.Named("whatsapp"),
	}
}

// deliver sends one message and keeps a log row whatever the outcome.
func (s *whatsAppService) deliver(ctx context.Context, msg *model.WhatsAppMessage) *model.WhatsAppMessage {
	providerID, err := s.sender.Send(ctx, msg.Phone, msg.Body)
	if err != nil {
		msg.Status = model.MessageFailed
		msg.Error = err.Error()
		s.log.Warn("whatsapp send failed", zap.String("to", msg.Phone), zap.String("kind", string(msg.Kind)), zap.Error(err))
	} else {
		msg.Status = model.MessageSent
		msg.ProviderID = providerID
	}
	if err := s.repo.Create(msg); err != nil {
		s.log.Error("whatsapp log write failed", zap.String("to", msg.Phone), zap.Error(err))
	}
	s.metrics.WhatsAppMessage(string(msg.Kind), string(msg.Status))
	return msg
}

func (s *whatsAppService) Send(ctx context.Context, req *SendMessageRequest, actor Actor) (*model.WhatsAppMessage, error) {
	phone, err := whatsapp.NormalizePhone(req.Phone)
	if err != nil {
		return nil, ErrInvalidPhone
	}
	body := strings.TrimSpace(req.Message)
	if body == "" {
		return nil, validationf("El mensaje no puede estar vacío")
	}
	msg := &model.WhatsAppMessage{
		Phone:    phone,
		Body:     body,
		Kind:     model.MessageDirect,
		SentByID: actor.idPtr(),
	}
	msg.CreatedBy = actor.by()
	return s.deliver(ctx, msg), nil
}

func (s *whatsAppService) SendReceipt(ctx context.Context, saleID uuid.UUID, actor Actor) (*model.WhatsAppMessage, error) {
	receipt, err := s.sales.Receipt(saleID)
	if err != nil {
		return nil, err
	}
	sale := receipt.Sale
	if sale.Customer == nil || strings.TrimSpace(sale.Customer.Phone) == "" {
		return nil, ErrNoPhone
	}
	phone, err := whatsapp.NormalizePhone(sale.Customer.Phone)
	if err != nil {
		return nil, ErrInvalidPhone
	}

	greeting := s.printer.Sprintf("Hola %s, gracias por su compra. Total: %s", sale.Customer.Name, money.Format(sale.Total))
	msg := &model.WhatsAppMessage{
		Phone:      phone,
		Body:       greeting + "\n\n```\n" + receipt.Text + "```",
		Kind:       model.MessageReceipt,
		SaleID:     &sale.ID,
		CustomerID: sale.CustomerID,
		SentByID:   actor.idPtr(),
	}
	msg.CreatedBy = actor.by()
	return s.deliver(ctx, msg), nil
}

func (s *whatsAppService) Broadcast(ctx context.Context, req *BroadcastRequest, actor Actor) (*BroadcastResult, error) {
	body := strings.TrimSpace(req.Message)
	if body == "" {
		return nil, validationf("El mensaje no puede estar vacío")
	}
	customers, err := s.customers.FindReachable(req.CustomerIDs)
	if err != nil {
		return nil, err
	}

	result := &BroadcastResult{Total: len(customers)}
	for i := range customers {
		c := &customers[i]
		phone, err := whatsapp.NormalizePhone(c.Phone)
		if err != nil {
			result.Failed++
			continue
		}
		// Wait fails once ctx is done; the rest count as failed
		if err := s.limiter.Wait(ctx); err != nil {
			result.Failed += len(customers) - i
			s.log.Warn("whatsapp broadcast interrupted", zap.Error(err))
			break
		}
		msg := &model.WhatsAppMessage{
			Phone:      phone,
			Body:       body,
			Kind:       model.MessageBroadcast,
			CustomerID: &c.ID,
			SentByID:   actor.idPtr(),
		}
		msg.CreatedBy = actor.by()
		if s.deliver(ctx, msg).Status == model.MessageSent {
			result.Sent++
		} else {
			result.Failed++
		}
	}

	s.log.Info("whatsapp broadcast finished",
		zap.Int("total", result.Total),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.String("user", actor.Email),
	)
	return result, nil
}

func (s *whatsAppService) List(kind model.MessageKind, phone string, p model.Pagination) (model.Page[model.WhatsAppMessage], error) {
	if phone != "" {
		normalized, err := whatsapp.NormalizePhone(phone)
		if err != nil {
			return model.Page[model.WhatsAppMessage]{}, ErrInvalidPhone
		}
		phone = normalized
	}
	p = p.Normalize()
	msgs, total, err := s.repo.List(kind, phone, p)
	if err != nil {
		return model.Page[model.WhatsAppMessage]{}, err
	}
	return model.NewPage(msgs, total, p.Page, p.Limit), nil
}
