package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-rd/internal/model"
)

func TestNcfService_AllocateSequential(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 3)

	for _, want := range []string{"B0200000001", "B0200000002", "B0200000003"} {
		a, err := e.ncf.Allocate(nil, model.NcfConsumo)
		require.NoError(t, err)
		assert.Equal(t, want, a.NCF)
	}

	_, err := e.ncf.Allocate(nil, model.NcfConsumo)
	assert.ErrorIs(t, err, ErrNcfUnavailable)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestNcfService_AllocateMovesToNextRange(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfCreditoFiscal, 101, 200)
	e.sequence(t, model.NcfCreditoFiscal, 1, 2)

	var got []string
	for i := 0; i < 3; i++ {
		a, err := e.ncf.Allocate(nil, model.NcfCreditoFiscal)
		require.NoError(t, err)
		got = append(got, a.NCF)
	}
	assert.Equal(t, []string{"B0100000001", "B0100000002", "B0100000101"}, got)
}

func TestNcfService_AllocateSkipsExpired(t *testing.T) {
	e := newEnv(t)
	svc := e.ncf.(*ncfService)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seq := e.sequence(t, model.NcfConsumo, 1, 100)
	expired := now.Add(-time.Minute)
	seq.ExpiresAt = &expired
	require.NoError(t, e.ncfRepo.Update(seq))

	_, err := e.ncf.Allocate(nil, model.NcfConsumo)
	assert.ErrorIs(t, err, ErrNcfUnavailable)
}

func TestNcfService_AllocateRejectsUnknownType(t *testing.T) {
	e := newEnv(t)
	_, err := e.ncf.Allocate(nil, model.NcfType("B99"))
	assert.ErrorIs(t, err, ErrInvalidNcfType)
}

func TestNcfService_IssuedAlertsNearExhaustion(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 7)

	for i := 0; i < 2; i++ {
		a, err := e.ncf.Allocate(nil, model.NcfConsumo)
		require.NoError(t, err)
		e.ncf.Issued(a)
	}
	alerts := e.events.ofType("ncf_alert")
	require.Len(t, alerts, 1, "only the allocation that reached the threshold alerts")
	assert.Contains(t, alerts[0].Message, "Quedan 5")

	for i := 0; i < 5; i++ {
		a, err := e.ncf.Allocate(nil, model.NcfConsumo)
		require.NoError(t, err)
		e.ncf.Issued(a)
	}
	alerts = e.events.ofType("ncf_alert")
	require.Len(t, alerts, 6)
	assert.Contains(t, alerts[5].Message, "se agotó")
}

func TestNcfService_Create(t *testing.T) {
	e := newEnv(t)
	admin := Actor{Name: "Admin"}

	seq, err := e.ncf.Create(&CreateNcfSequenceRequest{Type: "b01", StartNumber: 50, MaxNumber: 100}, admin)
	require.NoError(t, err)
	assert.Equal(t, model.NcfCreditoFiscal, seq.Type)
	assert.Equal(t, int64(49), seq.CurrentNumber)
	assert.True(t, seq.IsActive)

	t.Run("overlap", func(t *testing.T) {
		_, err := e.ncf.Create(&CreateNcfSequenceRequest{Type: model.NcfCreditoFiscal, StartNumber: 100, MaxNumber: 150}, admin)
		assert.ErrorIs(t, err, ErrNcfOverlap)
	})
	t.Run("other type may reuse numbers", func(t *testing.T) {
		_, err := e.ncf.Create(&CreateNcfSequenceRequest{Type: model.NcfConsumo, StartNumber: 50, MaxNumber: 100}, admin)
		assert.NoError(t, err)
	})
	t.Run("inverted range", func(t *testing.T) {
		_, err := e.ncf.Create(&CreateNcfSequenceRequest{Type: model.NcfRegimenEsp, StartNumber: 10, MaxNumber: 5}, admin)
		assert.ErrorIs(t, err, ErrNcfInvalidRange)
	})
	t.Run("past expiry", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, err := e.ncf.Create(&CreateNcfSequenceRequest{Type: model.NcfRegimenEsp, StartNumber: 1, MaxNumber: 5, ExpiresAt: &past}, admin)
		assert.ErrorIs(t, err, ErrValidation)
	})
	t.Run("unknown type", func(t *testing.T) {
		_, err := e.ncf.Create(&CreateNcfSequenceRequest{Type: "B03", StartNumber: 1, MaxNumber: 5}, admin)
		assert.ErrorIs(t, err, ErrInvalidNcfType)
	})
}

func TestNcfService_Update(t *testing.T) {
	e := newEnv(t)
	seq := e.sequence(t, model.NcfConsumo, 1, 10)
	for i := 0; i < 4; i++ {
		_, err := e.ncf.Allocate(nil, model.NcfConsumo)
		require.NoError(t, err)
	}

	shrink := int64(3)
	_, err := e.ncf.Update(seq.ID, &UpdateNcfSequenceRequest{MaxNumber: &shrink}, Actor{})
	assert.ErrorIs(t, err, ErrNcfShrink)

	grow := int64(500)
	off := false
	updated, err := e.ncf.Update(seq.ID, &UpdateNcfSequenceRequest{MaxNumber: &grow, IsActive: &off}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, int64(500), updated.MaxNumber)
	assert.Equal(t, int64(4), updated.CurrentNumber)
	assert.False(t, updated.IsActive)

	_, err = e.ncf.Allocate(nil, model.NcfConsumo)
	assert.ErrorIs(t, err, ErrNcfUnavailable, "inactive ranges are not used")
}

func TestNcfService_StatusAndList(t *testing.T) {
	e := newEnv(t)
	e.sequence(t, model.NcfConsumo, 1, 4)
	e.sequence(t, model.NcfConsumo, 101, 200)
	_, err := e.ncf.Allocate(nil, model.NcfConsumo)
	require.NoError(t, err)

	status, err := e.ncf.Status()
	require.NoError(t, err)
	require.Len(t, status, 5)

	byType := map[model.NcfType]NcfTypeStatus{}
	for _, st := range status {
		byType[st.Type] = st
	}
	consumo := byType[model.NcfConsumo]
	assert.Equal(t, 2, consumo.Sequences)
	assert.Equal(t, int64(103), consumo.Remaining)
	assert.Equal(t, "B0200000002", consumo.NextNCF)
	assert.True(t, consumo.Available)
	assert.False(t, consumo.LowAlert)
	assert.False(t, byType[model.NcfCreditoFiscal].Available)

	list, err := e.ncf.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].Used)
	assert.Equal(t, int64(3), list[0].Remaining)
	assert.True(t, list[0].LowAlert)
	assert.Equal(t, int64(0), list[1].Used)
}

func TestNcfService_Validate(t *testing.T) {
	e := newEnv(t)

	v := e.ncf.Validate(" b0100000123 ")
	assert.True(t, v.Valid)
	assert.Equal(t, "B0100000123", v.NCF)
	assert.Equal(t, model.NcfCreditoFiscal, v.Type)
	assert.Equal(t, "Crédito Fiscal", v.TypeName)
	assert.Equal(t, int64(123), v.Number)

	for _, bad := range []string{"", "B0300000001", "B010000001", "B0100000000", "X01ABCDEFGH"} {
		v := e.ncf.Validate(bad)
		assert.False(t, v.Valid, bad)
		assert.NotEmpty(t, v.Message, bad)
	}
}
