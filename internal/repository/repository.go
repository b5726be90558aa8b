package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrInsufficientStock is returned when a conditional stock decrement
	// matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStaleState is returned when a conditional status update found the
	// row in a different state than expected.
	ErrStaleState = errors.New("record changed state concurrently")
	// ErrCreditLimit is returned when a balance increase would pass the
	// customer's credit limit.
	ErrCreditLimit = errors.New("credit limit exceeded")
)

// conn returns tx when the caller is inside a transaction, otherwise the
// repository's own handle.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// IsNotFound reports gorm's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports a unique-constraint violation on postgres or sqlite.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// DateRange is an optional [From, To) filter. Zero values are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) apply(q *gorm.DB, column string) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where(column+" < ?", r.To)
	}
	return q
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
