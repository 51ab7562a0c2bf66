package domain

import (
	"fmt"
	"strconv"
)

// Result is what a connector returns for any descriptor. Selects and
// aggregates fill Rows; mutations fill AffectedRows and, where the backend
// reports one, LastInsertID. Inserts on backends that read written rows back
// fill both.
type Result struct {
	Rows            []Record
	AffectedRows    int64
	LastInsertID    any
	HasLastInsertID bool
}

// Scalar returns field name of the first row.
func (r *Result) Scalar(name string) (any, bool) {
	if r == nil || len(r.Rows) == 0 {
		return nil, false
	}
	v, ok := r.Rows[0][name]
	return v, ok
}

// Count reads the count aggregate as an integer.
func (r *Result) Count() (int64, error) {
	v, ok := r.Scalar(string(Count))
	if !ok {
		return 0, fmt.Errorf("result has no %q column", Count)
	}
	return ToInt64(v)
}

// ToInt64 converts the integer shapes drivers return for counts.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v)
}
