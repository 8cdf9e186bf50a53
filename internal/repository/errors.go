package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrRangeTaken means another active booking already holds one of the nights.
	ErrRangeTaken = errors.New("date range already booked")
	ErrDuplicate  = errors.New("duplicate value")
	// ErrStatusChanged means the row moved to another status between read and write.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// isUniqueViolation recognises duplicate-key failures from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation
	}
	// modernc sqlite errors are not translated by the gorm dialector
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
