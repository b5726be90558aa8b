package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel(""))
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, 50*time.Millisecond)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("record not found is ignored", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.FilterMessage("sql error").Len())
	})

	t.Run("errors are logged", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
		assert.Equal(t, 1, logs.FilterMessage("sql error").Len())
	})

	t.Run("slow queries warn", func(t *testing.T) {
		gl.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
		assert.Equal(t, 1, logs.FilterMessage("slow sql").Len())
	})

	t.Run("silent mode logs nothing", func(t *testing.T) {
		before := logs.Len()
		gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), fc, errors.New("x"))
		assert.Equal(t, before, logs.Len())
	})
}
