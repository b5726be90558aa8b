package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

// fakeSender fails for phones listed in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    map[string]string
	failFor map[string]bool
}

func newFakeSender(failFor ...string) *fakeSender {
	f := &fakeSender{sent: map[string]string{}, failFor: map[string]bool{}}
	for _, p := range failFor {
		f.failFor[p] = true
	}
	return f
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, phone, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[phone] {
		return "", errors.New("provider rejected number")
	}
	f.sent[phone] = body
	return fmt.Sprintf("wamid-%d", len(f.sent)), nil
}

func newWhatsAppService(e *testEnv, sender *fakeSender) WhatsAppService {
	return NewWhatsAppService(repository.NewWhatsAppRepo(e.db), e.customers, e.sale, sender, e.metrics, 0, 1, e.log)
}

func TestWhatsAppService_Send(t *testing.T) {
	e := newEnv(t)
	sender := newFakeSender("18495550000")
	svc := newWhatsAppService(e, sender)
	ctx := context.Background()

	msg, err := svc.Send(ctx, &SendMessageRequest{Phone: "(809) 555-1234", Message: " Su pedido está listo "}, cashier)
	require.NoError(t, err)
	assert.Equal(t, "18095551234", msg.Phone)
	assert.Equal(t, model.MessageSent, msg.Status)
	assert.Equal(t, "wamid-1", msg.ProviderID)
	assert.Equal(t, "Su pedido está listo", sender.sent["18095551234"])

	failed, err := svc.Send(ctx, &SendMessageRequest{Phone: "849-555-0000", Message: "hola"}, cashier)
	require.NoError(t, err, "provider failures are logged, not returned")
	assert.Equal(t, model.MessageFailed, failed.Status)
	assert.Equal(t, "provider rejected number", failed.Error)

	_, err = svc.Send(ctx, &SendMessageRequest{Phone: "305-555-1234", Message: "hola"}, cashier)
	assert.ErrorIs(t, err, ErrInvalidPhone)
	_, err = svc.Send(ctx, &SendMessageRequest{Phone: "8095551234", Message: "   "}, cashier)
	assert.ErrorIs(t, err, ErrValidation)

	page, err := svc.List("", "", model.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = svc.List(model.MessageDirect, "8495550000", model.Pagination{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, model.MessageFailed, page.Data[0].Status)

	_, err = svc.List("", "123", model.Pagination{})
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestWhatsAppService_SendReceipt(t *testing.T) {
	e := newEnv(t)
	sender := newFakeSender()
	svc := newWhatsAppService(e, sender)
	e.sequence(t, model.NcfConsumo, 1, 100)
	rice := e.product(t, "ARROZ", 10, "100.00", true)
	buyer := e.customer(t, "Ana Reyes", model.DocNone, "", "0")

	sale, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		CustomerID:    &buyer.ID,
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)

	msg, err := svc.SendReceipt(context.Background(), sale.ID, cashier)
	require.NoError(t, err)
	assert.Equal(t, model.MessageReceipt, msg.Kind)
	assert.Equal(t, "18095551234", msg.Phone)
	require.NotNil(t, msg.SaleID)
	assert.Equal(t, sale.ID, *msg.SaleID)
	assert.Contains(t, msg.Body, "Hola Ana Reyes")
	assert.Contains(t, msg.Body, "RD$118.00")
	assert.Contains(t, msg.Body, sale.NCF)

	walkIn, err := e.sale.Create(context.Background(), &CreateSaleRequest{
		PaymentMethod: model.PaymentCard,
		Items:         []SaleItemRequest{{ProductID: rice.ID, Quantity: 1}},
	}, "", cashier)
	require.NoError(t, err)
	_, err = svc.SendReceipt(context.Background(), walkIn.ID, cashier)
	assert.ErrorIs(t, err, ErrNoPhone)

	_, err = svc.SendReceipt(context.Background(), uuid.New(), cashier)
	assert.ErrorIs(t, err, ErrSaleNotFound)
}

func TestWhatsAppService_Broadcast(t *testing.T) {
	e := newEnv(t)
	sender := newFakeSender("18295550002")
	svc := newWhatsAppService(e, sender)

	add := func(name, phone string) *model.Customer {
		c := &model.Customer{Name: name, DocumentType: model.DocNone, Phone: phone, IsActive: true}
		require.NoError(t, e.customers.Create(c))
		return c
	}
	a := add("Ana", "8095550001")
	add("Beto", "8295550002")
	add("Carla", "555")
	add("Diego", "")

	result, err := svc.Broadcast(context.Background(), &BroadcastRequest{Message: "Ofertas de la semana"}, cashier)
	require.NoError(t, err)
	assert.Equal(t, &BroadcastResult{Total: 3, Sent: 1, Failed: 2}, result)
	assert.Equal(t, "Ofertas de la semana", sender.sent["18095550001"])

	result, err = svc.Broadcast(context.Background(), &BroadcastRequest{Message: "Solo Ana", CustomerIDs: []uuid.UUID{a.ID}}, cashier)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err = svc.Broadcast(ctx, &BroadcastRequest{Message: "tarde"}, cashier)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 3, result.Failed)

	_, err = svc.Broadcast(context.Background(), &BroadcastRequest{Message: " "}, cashier)
	assert.ErrorIs(t, err, ErrValidation)
}
