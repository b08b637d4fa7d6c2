package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotInitialized      = errors.New("database is not initialized")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNotFound            = errors.New("record not found")
	ErrStorageFailure      = errors.New("storage failure")
	ErrUnknownIndex        = errors.New("unknown index")
)

const pgUniqueViolation = "23505"

// ConstraintError reports a unique index collision.
type ConstraintError struct {
	Collection string
	Index      string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Index == "" {
		return fmt.Sprintf("%s: unique constraint violated", e.Collection)
	}
	return fmt.Sprintf("%s: unique constraint violated on %s", e.Collection, e.Index)
}

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraintViolation
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a lookup of a missing key.
type NotFoundError struct {
	Collection string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collection, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps an underlying driver failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// translateError maps driver and gorm errors onto the package sentinels.
func translateError(collection, op string, err error) error {
	if err == nil {
		return nil
	}
	if isSentinel(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Collection: collection}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &ConstraintError{Collection: collection, Index: sqliteIndex(sqliteErr.Error()), Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &ConstraintError{Collection: collection, Index: postgresIndex(collection, pgErr.ConstraintName), Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConstraintError{Collection: collection, Err: err}
	}

	return &StorageError{Op: op + " " + collection, Err: err}
}

func isSentinel(err error) bool {
	return errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrConstraintViolation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStorageFailure) ||
		errors.Is(err, ErrUnknownIndex)
}

// sqliteIndex extracts the column from "UNIQUE constraint failed: clientes.cpf".
func sqliteIndex(msg string) string {
	i := strings.LastIndex(msg, ": ")
	if i < 0 {
		return ""
	}
	target := msg[i+2:]
	if comma := strings.Index(target, ","); comma >= 0 {
		target = target[:comma]
	}
	if dot := strings.LastIndex(target, "."); dot >= 0 {
		target = target[dot+1:]
	}
	return strings.TrimSpace(target)
}

// postgresIndex strips the idx_<collection>_ prefix from a constraint name.
func postgresIndex(collection, constraint string) string {
	return strings.TrimPrefix(constraint, "idx_"+collection+"_")
}
