package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyStored is returned by insert-if-absent writes that found the natural key taken.
	ErrAlreadyStored = errors.New("record already stored")
	// ErrUnknownSpeaker is returned when a statement's speaker matches no official.
	ErrUnknownSpeaker = errors.New("speaker is not a known official")
)

const pgUniqueViolation = "23505"

// IsDuplicate reports unique-constraint violations from Postgres or SQLite, whether or
// not gorm translated them.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrAlreadyStored) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsSkip reports errors that mean "nothing to write" rather than a failure.
func IsSkip(err error) bool {
	return IsDuplicate(err) || errors.Is(err, ErrUnknownSpeaker)
}
