package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "America/Santo_Domingo", cfg.App.Timezone)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "pos_token", cfg.Cookie.Name)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, int64(2<<20), cfg.Storage.MaxUploadSize)
	assert.True(t, cfg.Business.ITBISRate.Equal(decimal.RequireFromString("0.18")))
	assert.Equal(t, int64(50), cfg.Business.NcfAlertThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POS_APP_PORT", "8081")
	t.Setenv("POS_DATABASE_HOST", "db.internal")
	t.Setenv("POS_DATABASE_PASSWORD", "s3cr3t")
	t.Setenv("POS_BUSINESS_ITBIS_RATE", "0.16")
	t.Setenv("POS_STORAGE_DRIVER", "s3")
	t.Setenv("POS_STORAGE_BUCKET", "logos")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Business.ITBISRate.Equal(decimal.RequireFromString("0.16")))
	assert.Equal(t, "logos", cfg.Storage.Bucket)
	assert.Contains(t, cfg.Database.DSN(), "db.internal:5432")
	assert.Contains(t, cfg.Database.DSN(), "s3cr3t")
}

func TestLoad_LegacyVariables(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@legacy:5432/pos")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@legacy:5432/pos", cfg.Database.DSN())
	assert.Equal(t, "9000", cfg.App.Port)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("idle connections above open connections", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = 500
		assert.Error(t, cfg.validate())
	})

	t.Run("itbis rate out of range", func(t *testing.T) {
		cfg := base()
		cfg.Business.ITBISRate = decimal.NewFromInt(2)
		assert.Error(t, cfg.validate())
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Driver = "s3"
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires a real secret", func(t *testing.T) {
		cfg := base()
		cfg.App.Env = "production"
		cfg.Cookie.Secure = true
		cfg.Database.Password = "x"
		assert.Error(t, cfg.validate())

		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		assert.NoError(t, cfg.validate())
	})
}

func TestLocationFallback(t *testing.T) {
	app := AppConfig{Timezone: "Not/AZone"}
	_, offset := time.Now().In(app.Location()).Zone()
	assert.Equal(t, -4*60*60, offset)
}
