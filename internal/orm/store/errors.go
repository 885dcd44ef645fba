package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrUnknownCollection is returned when a collection does not exist in the store
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrListingUnsupported is returned when a store cannot enumerate a collection
	ErrListingUnsupported = errors.New("store does not support listing")

	// ErrUndefinedTable is returned when the backing table does not exist
	ErrUndefinedTable = errors.New("undefined table")

	// ErrUndefinedColumn is returned when a key column does not exist
	ErrUndefinedColumn = errors.New("undefined column")
)

// ConvertDBError converts database-specific errors to store errors
func ConvertDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("%w: %s", ErrUndefinedTable, pgErr.Message)
		case "42703": // undefined_column
			return fmt.Errorf("%w: %s", ErrUndefinedColumn, pgErr.Message)
		}
	}

	return err
}

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
