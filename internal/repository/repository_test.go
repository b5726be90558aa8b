package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-pos-rd/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the full schema.
// A single connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// newMockDB wires gorm's postgres dialector to sqlmock for checking the SQL
// shape of postgres-only paths.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func createProduct(t *testing.T, db *gorm.DB, sku string, stock int, price, cost string) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:      sku,
		Name:     "Producto " + sku,
		Price:    decimal.RequireFromString(price),
		Cost:     decimal.RequireFromString(cost),
		Stock:    stock,
		Unit:     "UND",
		Taxable:  true,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, IsDuplicate(nil))
	assert.True(t, IsDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicate(errors.New(`ERROR: duplicate key value violates unique constraint "idx_products_sku" (SQLSTATE 23505)`)))
	assert.True(t, IsDuplicate(errors.New("UNIQUE constraint failed: products.sku")))
	assert.False(t, IsDuplicate(sql.ErrConnDone))
}

func TestIsDuplicate_Sqlite(t *testing.T) {
	db := newTestDB(t)
	createProduct(t, db, "A-1", 1, "10", "5")

	err := db.Create(&model.Product{SKU: "A-1", Name: "otro", IsActive: true}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
}

func TestIsNotFound(t *testing.T) {
	db := newTestDB(t)
	var p model.Product
	err := db.First(&p, "sku = ?", "missing").Error
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestDateRange_HalfOpen(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{day.Add(-time.Second), day, day.Add(23 * time.Hour), day.Add(24 * time.Hour)} {
		m := &model.AuditLog{Action: model.AuditCreate, Entity: "product", EntityID: string(rune('a' + i)), CreatedAt: at}
		require.NoError(t, db.Create(m).Error)
	}

	var n int64
	q := DateRange{From: day, To: day.Add(24 * time.Hour)}.apply(db.Model(&model.AuditLog{}), "created_at")
	require.NoError(t, q.Count(&n).Error)
	assert.Equal(t, int64(2), n)

	require.NoError(t, DateRange{}.apply(db.Model(&model.AuditLog{}), "created_at").Count(&n).Error)
	assert.Equal(t, int64(4), n)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%arroz%", likePattern("  ARROZ "))
}
