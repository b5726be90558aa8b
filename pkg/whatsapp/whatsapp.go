// Package whatsapp normalizes Dominican phone numbers and delivers text
// messages through a pluggable Sender.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidPhone = errors.New("invalid dominican phone number")

var areaCodes = map[string]bool{"809": true, "829": true, "849": true}

// NormalizePhone returns the number as 1XXXXXXXXXX (country code plus ten
// digits). Punctuation, spaces and a leading + are ignored.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 10:
		digits = "1" + digits
	case len(digits) == 11 && digits[0] == '1':
	default:
		return "", ErrInvalidPhone
	}
	if !areaCodes[digits[1:4]] {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// Sender delivers one message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, phone, body string) (string, error)
	Name() string
}

// LogSender writes messages to the log instead of a provider. It is the
// default until a WhatsApp Business account is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("whatsapp")}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, phone, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "log-" + uuid.NewString()
	s.log.Info("whatsapp message",
		zap.String("to", phone),
		zap.Int("length", len(body)),
		zap.String("provider_id", id),
	)
	return id, nil
}

// NewSender picks the sender named in configuration.
func NewSender(name string, log *zap.Logger) (Sender, error) {
	switch name {
	case "", "log":
		return NewLogSender(log), nil
	}
	return nil, fmt.Errorf("unknown whatsapp sender %q", name)
}
