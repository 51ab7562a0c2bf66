// Package domain contains the dialect-neutral query descriptor shared by the
// builder, the translators and the connectors.
package domain

import (
	"github.com/satishbabariya/ormkit/pkg/schema"
)

// Type is the kind of operation a descriptor carries.
type Type string

const (
	Create Type = "create"
	Drop   Type = "drop"
	Select Type = "select"
	Insert Type = "insert"
	Update Type = "update"
	Delete Type = "delete"
	Count  Type = "count"
	Min    Type = "min"
	Max    Type = "max"
	Avg    Type = "avg"
	Sum    Type = "sum"
)

// IsAggregate reports whether t is one of the aggregate functions.
func (t Type) IsAggregate() bool {
	switch t {
	case Count, Min, Max, Avg, Sum:
		return true
	}
	return false
}

// Dialect identifies a backend family.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
	Mongo    Dialect = "mongo"
)

// Operator is a comparison operator.
type Operator string

const (
	Eq  Operator = "="
	Gt  Operator = ">"
	Gte Operator = ">="
	Lt  Operator = "<"
	Lte Operator = "<="
)

// Valid reports whether op is a supported comparison.
func (op Operator) Valid() bool {
	switch op {
	case Eq, Gt, Gte, Lt, Lte:
		return true
	}
	return false
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Record is one row or document keyed by field name.
type Record map[string]any

// Selection is a projected field, optionally renamed.
type Selection struct {
	Field string
	Alias string
}

// Condition is a single comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// InClause restricts a field to a set of values.
type InClause struct {
	Field  string
	Values []any
}

// Join links Table on Table.TargetField = OriginField.
type Join struct {
	Table       string
	OriginField string
	TargetField string
}

// Order is a single sort key.
type Order struct {
	Field     string
	Direction Direction
}

// Description is one query's full intent. It is built once, handed to a
// translator or connector once, and then discarded.
type Description struct {
	Table  string
	Schema *schema.Model
	Op     Operation

	Select []Selection

	// Wheres are combined with AND. OrWheres are alternatives to the whole
	// conjunctive group.
	Wheres   []Condition
	OrWheres []Condition

	WhereIn      *InClause
	WhereNull    []string
	WhereNotNull []string

	Joins   []Join
	OrderBy []Order
	GroupBy []string

	Limit  *uint64
	Offset *uint64

	// Stored lists references that already name storage columns, such as
	// renamed fields. Translators use them as is.
	Stored map[string]bool
}

// Type returns the kind of the descriptor's operation.
func (d *Description) Type() Type {
	if d.Op == nil {
		return ""
	}
	return d.Op.Type()
}

// HasFilters reports whether any where clause is present.
func (d *Description) HasFilters() bool {
	return len(d.Wheres) > 0 || len(d.OrWheres) > 0 || d.WhereIn != nil ||
		len(d.WhereNull) > 0 || len(d.WhereNotNull) > 0
}

// Clone returns a deep copy. Condition values and records are copied one
// level deep.
func (d *Description) Clone() *Description {
	out := *d
	out.Select = append([]Selection(nil), d.Select...)
	out.Wheres = append([]Condition(nil), d.Wheres...)
	out.OrWheres = append([]Condition(nil), d.OrWheres...)
	out.WhereNull = append([]string(nil), d.WhereNull...)
	out.WhereNotNull = append([]string(nil), d.WhereNotNull...)
	out.Joins = append([]Join(nil), d.Joins...)
	out.OrderBy = append([]Order(nil), d.OrderBy...)
	out.GroupBy = append([]string(nil), d.GroupBy...)

	if d.WhereIn != nil {
		in := *d.WhereIn
		in.Values = append([]any(nil), d.WhereIn.Values...)
		out.WhereIn = &in
	}
	if d.Limit != nil {
		v := *d.Limit
		out.Limit = &v
	}
	if d.Offset != nil {
		v := *d.Offset
		out.Offset = &v
	}
	if d.Op != nil {
		out.Op = d.Op.clone()
	}
	if d.Stored != nil {
		out.Stored = make(map[string]bool, len(d.Stored))
		for k := range d.Stored {
			out.Stored[k] = true
		}
	}
	return &out
}

// Clone copies the record's top level.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
