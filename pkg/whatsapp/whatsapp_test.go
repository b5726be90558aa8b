package whatsapp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"809-555-1234", "18095551234", true},
		{"(829) 555 1234", "18295551234", true},
		{"+1 849 555 1234", "18495551234", true},
		{"18095551234", "18095551234", true},
		{"305-555-1234", "", false},
		{"5551234", "", false},
		{"28095551234", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	id, err := s.Send(context.Background(), "18095551234", "Hola")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "log-"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "18095551234", logs.All()[0].ContextMap()["to"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Send(ctx, "18095551234", "Hola")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender("log", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())

	_, err = NewSender("twilio", zap.NewNop())
	assert.Error(t, err)
}
