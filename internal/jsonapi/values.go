package jsonapi

import (
	"math/big"
	"strings"
	"time"

	"github.com/conduit-lang/compound/internal/orm/store"
)

const (
	// TimestampFormat is the wire format of time.Time attributes
	TimestampFormat = store.TimestampFormat
	// DateFormat is the wire format of Date attributes
	DateFormat = "2006-01-02"
)

// Date is a calendar date without a time of day
type Date struct {
	time.Time
}

// NewDate creates a Date
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateFormat)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// formatValue converts an attribute value to its wire representation
func formatValue(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(TimestampFormat)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.UTC().Format(TimestampFormat)
	case Date:
		return val.String()
	case *Date:
		if val == nil {
			return nil
		}
		return val.String()
	case []byte:
		return string(val)
	case *big.Float:
		if val == nil {
			return nil
		}
		return val.Text('f', -1)
	case *big.Int:
		if val == nil {
			return nil
		}
		return val.String()
	default:
		return v
	}
}

// PluckIDs returns the stringified key attribute of each record, skipping
// records without one
func PluckIDs(records []store.Record, key string) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if id := r.ID(key); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// SplitIDs parses a comma-separated id list such as "1,2,3"
func SplitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
