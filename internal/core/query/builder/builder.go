// Package builder implements the fluent query builder.
package builder

import (
	"sort"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

// QueryBuilder accumulates one query. Every chain method mutates the builder
// and returns it. A builder is single-use and must not be shared between
// goroutines.
type QueryBuilder struct {
	desc *domain.Description
}

// NewQueryBuilder creates a builder targeting table. The operation defaults
// to a select.
func NewQueryBuilder(table string) *QueryBuilder {
	return &QueryBuilder{
		desc: &domain.Description{
			Table: table,
			Op:    domain.SelectOp{},
		},
	}
}

// Table sets the target table.
func (b *QueryBuilder) Table(table string) *QueryBuilder {
	b.desc.Table = table
	return b
}

// Schema attaches the model the query runs against.
func (b *QueryBuilder) Schema(m *schema.Model) *QueryBuilder {
	b.desc.Schema = m
	return b
}

// Stored marks refs as storage column names that translators must not
// rename.
func (b *QueryBuilder) Stored(refs ...string) *QueryBuilder {
	if b.desc.Stored == nil {
		b.desc.Stored = map[string]bool{}
	}
	for _, r := range refs {
		b.desc.Stored[r] = true
	}
	return b
}

// Select appends fields to the projection.
func (b *QueryBuilder) Select(fields ...string) *QueryBuilder {
	for _, f := range fields {
		b.desc.Select = append(b.desc.Select, domain.Selection{Field: f})
	}
	return b
}

// SelectAs appends a renamed field to the projection.
func (b *QueryBuilder) SelectAs(field, alias string) *QueryBuilder {
	b.desc.Select = append(b.desc.Select, domain.Selection{Field: field, Alias: alias})
	return b
}

// Where appends a conjunctive condition.
func (b *QueryBuilder) Where(field string, op domain.Operator, value any) *QueryBuilder {
	b.desc.Wheres = append(b.desc.Wheres, domain.Condition{Field: field, Operator: op, Value: value})
	return b
}

// WhereEq appends field = value.
func (b *QueryBuilder) WhereEq(field string, value any) *QueryBuilder {
	return b.Where(field, domain.Eq, value)
}

// WhereMap appends one equality per key, in sorted key order.
func (b *QueryBuilder) WhereMap(fields map[string]any) *QueryBuilder {
	for _, k := range sortedKeys(fields) {
		b.Where(k, domain.Eq, fields[k])
	}
	return b
}

// OrWhere appends a disjunctive alternative.
func (b *QueryBuilder) OrWhere(field string, op domain.Operator, value any) *QueryBuilder {
	b.desc.OrWheres = append(b.desc.OrWheres, domain.Condition{Field: field, Operator: op, Value: value})
	return b
}

// OrWhereMap appends one equality alternative per key, in sorted key order.
func (b *QueryBuilder) OrWhereMap(fields map[string]any) *QueryBuilder {
	for _, k := range sortedKeys(fields) {
		b.OrWhere(k, domain.Eq, fields[k])
	}
	return b
}

// WhereIn restricts field to values. Only one clause is kept; a later call
// replaces an earlier one.
func (b *QueryBuilder) WhereIn(field string, values ...any) *QueryBuilder {
	b.desc.WhereIn = &domain.InClause{Field: field, Values: append([]any(nil), values...)}
	return b
}

// WhereNull requires field to be null.
func (b *QueryBuilder) WhereNull(field string) *QueryBuilder {
	b.desc.WhereNull = append(b.desc.WhereNull, field)
	return b
}

// WhereNotNull requires field to be set.
func (b *QueryBuilder) WhereNotNull(field string) *QueryBuilder {
	b.desc.WhereNotNull = append(b.desc.WhereNotNull, field)
	return b
}

// Join appends an inner join of table on table.targetField = originField.
func (b *QueryBuilder) Join(table, originField, targetField string) *QueryBuilder {
	b.desc.Joins = append(b.desc.Joins, domain.Join{
		Table:       table,
		OriginField: originField,
		TargetField: targetField,
	})
	return b
}

// OrderBy appends a sort key.
func (b *QueryBuilder) OrderBy(field string, dir domain.Direction) *QueryBuilder {
	if dir == "" {
		dir = domain.Asc
	}
	b.desc.OrderBy = append(b.desc.OrderBy, domain.Order{Field: field, Direction: dir})
	return b
}

// GroupBy appends grouping fields.
func (b *QueryBuilder) GroupBy(fields ...string) *QueryBuilder {
	b.desc.GroupBy = append(b.desc.GroupBy, fields...)
	return b
}

// Limit caps the number of rows.
func (b *QueryBuilder) Limit(n uint64) *QueryBuilder {
	b.desc.Limit = &n
	return b
}

// Offset skips rows.
func (b *QueryBuilder) Offset(n uint64) *QueryBuilder {
	b.desc.Offset = &n
	return b
}

// The operation setters below replace any previously set operation.

// Create sets a create-table operation using "create if missing".
func (b *QueryBuilder) Create(fields []schema.Field, defaults domain.Record, timestamps bool) *QueryBuilder {
	b.desc.Op = domain.CreateOp{Fields: fields, Defaults: defaults, Timestamps: timestamps}
	return b
}

// CreateStrict sets a create-table operation that fails if the table exists.
func (b *QueryBuilder) CreateStrict(fields []schema.Field, defaults domain.Record, timestamps bool) *QueryBuilder {
	b.desc.Op = domain.CreateOp{Fields: fields, Defaults: defaults, Timestamps: timestamps, Strict: true}
	return b
}

// Drop sets a drop-table operation.
func (b *QueryBuilder) Drop(ifExists bool) *QueryBuilder {
	b.desc.Op = domain.DropOp{IfExists: ifExists}
	return b
}

// Insert sets an insert of one or more records.
func (b *QueryBuilder) Insert(values ...domain.Record) *QueryBuilder {
	b.desc.Op = domain.InsertOp{Values: values}
	return b
}

// Returning lists the fields an insert reads back. It has no effect on other
// operations.
func (b *QueryBuilder) Returning(fields ...string) *QueryBuilder {
	if op, ok := b.desc.Op.(domain.InsertOp); ok {
		op.Returning = append(op.Returning, fields...)
		b.desc.Op = op
	}
	return b
}

// Update sets an update of the matched rows.
func (b *QueryBuilder) Update(values domain.Record) *QueryBuilder {
	b.desc.Op = domain.UpdateOp{Values: values}
	return b
}

// Delete sets a delete of the matched rows.
func (b *QueryBuilder) Delete() *QueryBuilder {
	b.desc.Op = domain.DeleteOp{}
	return b
}

// Get resets the operation to a select.
func (b *QueryBuilder) Get() *QueryBuilder {
	b.desc.Op = domain.SelectOp{}
	return b
}

// Count counts rows, or non-null values of field when one is given.
func (b *QueryBuilder) Count(field ...string) *QueryBuilder {
	f := "*"
	if len(field) > 0 && field[0] != "" {
		f = field[0]
	}
	return b.aggregate(domain.Count, f)
}

func (b *QueryBuilder) Min(field string) *QueryBuilder { return b.aggregate(domain.Min, field) }
func (b *QueryBuilder) Max(field string) *QueryBuilder { return b.aggregate(domain.Max, field) }
func (b *QueryBuilder) Avg(field string) *QueryBuilder { return b.aggregate(domain.Avg, field) }
func (b *QueryBuilder) Sum(field string) *QueryBuilder { return b.aggregate(domain.Sum, field) }

func (b *QueryBuilder) aggregate(fn domain.Type, field string) *QueryBuilder {
	b.desc.Op = domain.AggregateOp{Func: fn, Field: field}
	return b
}

// Description returns a snapshot of the accumulated query. Later calls on
// the builder do not affect a snapshot already taken.
func (b *QueryBuilder) Description() *domain.Description {
	return b.desc.Clone()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
