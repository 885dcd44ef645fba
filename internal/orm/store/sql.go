package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Querier is an interface for executing SQL queries, allowing for testing and instrumentation
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Dialect selects the SQL flavour used to build lookups
type Dialect int

const (
	// Postgres binds ids as a single text array and matches with = ANY($1)
	Postgres Dialect = iota
	// SQLite expands ids into an IN (?, ...) list
	SQLite
)

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DialectForDriver maps a database/sql driver name to a dialect
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// SQLStore resolves records from SQL tables, one table per collection
type SQLStore struct {
	db      Querier
	dialect Dialect
	tables  map[string]string
}

// NewSQLStore creates a store reading from db. Collections map to tables of
// the same name unless overridden with MapTable.
func NewSQLStore(db Querier, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		tables:  make(map[string]string),
	}
}

// MapTable reads collection from table instead of a table named after it
func (s *SQLStore) MapTable(collection, table string) *SQLStore {
	s.tables[collection] = table
	return s
}

// Get retrieves a single record by key
func (s *SQLStore) Get(ctx context.Context, collection, key, id string) (Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s LIMIT 1",
		pq.QuoteIdentifier(s.table(collection)), s.keyExpr(key), s.bind(1))

	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %s=%s: %w", collection, key, id, ConvertDBError(err))
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, ConvertDBError(err))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s %s=%s: %w", collection, key, id, ErrNotFound)
	}

	return records[0], nil
}

// Filter retrieves all records whose key is one of ids in a single query
func (s *SQLStore) Filter(ctx context.Context, collection, key string, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	table := pq.QuoteIdentifier(s.table(collection))

	var (
		query string
		args  []interface{}
	)
	switch s.dialect {
	case Postgres:
		query = fmt.Sprintf("SELECT * FROM %s WHERE %s = ANY($1)", table, s.keyExpr(key))
		args = []interface{}{pq.Array(ids)}
	default:
		placeholders := make([]string, len(ids))
		args = make([]interface{}, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args[i] = id
		}
		query = fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s)", table, s.keyExpr(key), strings.Join(placeholders, ", "))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", collection, ConvertDBError(err))
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, ConvertDBError(err))
	}
	return records, nil
}

// All retrieves every record of a collection
func (s *SQLStore) All(ctx context.Context, collection string) ([]Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s", pq.QuoteIdentifier(s.table(collection)))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, ConvertDBError(err))
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", collection, ConvertDBError(err))
	}
	return records, nil
}

func (s *SQLStore) table(collection string) string {
	if table, ok := s.tables[collection]; ok {
		return table
	}
	return collection
}

// keyExpr compares keys as text so string ids match integer columns
func (s *SQLStore) keyExpr(key string) string {
	if s.dialect == Postgres {
		return pq.QuoteIdentifier(key) + "::text"
	}
	return "CAST(" + pq.QuoteIdentifier(key) + " AS TEXT)"
}

func (s *SQLStore) bind(n int) string {
	if s.dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// scanRows scans multiple rows into records keyed by column name
func scanRows(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(Record, len(columns))
		for i, col := range columns {
			// Drivers hand text back as []byte
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
				continue
			}
			record[col] = values[i]
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
