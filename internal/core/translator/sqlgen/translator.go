// Package sqlgen renders query descriptors as SQL for MySQL, PostgreSQL and
// SQLite.
package sqlgen

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/satishbabariya/ormkit/internal/core/naming"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator"
)

// Statement is a rendered SQL command.
type Statement struct {
	SQL  string
	Args []any
	Type domain.Type
	// Returns is set when the statement produces rows.
	Returns bool
}

// Translator renders descriptors for one SQL dialect.
type Translator struct {
	dialect   domain.Dialect
	returning bool
	builder   sq.StatementBuilderType

	// stored is the descriptor's set of storage references, bound per
	// Translate call on a copy of the translator.
	stored map[string]bool
}

var _ translator.Translator = (*Translator)(nil)

// Option configures a Translator.
type Option func(*Translator)

// WithReturning makes inserts read the written rows back with RETURNING.
func WithReturning(enabled bool) Option {
	return func(t *Translator) {
		t.returning = enabled
	}
}

// New creates a translator for dialect.
func New(dialect domain.Dialect, opts ...Option) (*Translator, error) {
	t := &Translator{dialect: dialect}

	switch dialect {
	case domain.Postgres:
		t.builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case domain.MySQL, domain.SQLite:
		t.builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	default:
		return nil, fmt.Errorf("sqlgen: unsupported dialect %q", dialect)
	}

	for _, opt := range opts {
		opt(t)
	}
	if t.returning && dialect == domain.MySQL {
		return nil, fmt.Errorf("sqlgen: %s does not support RETURNING", dialect)
	}
	return t, nil
}

// Dialect returns the translator's dialect.
func (t *Translator) Dialect() domain.Dialect { return t.dialect }

// Returning reports whether inserts read rows back.
func (t *Translator) Returning() bool { return t.returning }

// FormatFieldNameToDatabase converts a client name to snake_case.
func (t *Translator) FormatFieldNameToDatabase(name string) string {
	return naming.ToDatabase(name)
}

// FormatFieldNameToClient converts a column name to camelCase.
func (t *Translator) FormatFieldNameToClient(name string) string {
	return naming.ToClient(name)
}

// clauses holds the dialect-ready pieces shared by the statement verbs, in
// the order they are collected.
type clauses struct {
	table   string
	columns []string
	where   []sq.Sqlizer
	joins   []string
	orderBy []string
	groupBy []string
	limit   *uint64
	offset  *uint64
}

// Translate renders desc. The descriptor is validated first; nothing is
// rendered for an invalid descriptor.
func (t *Translator) Translate(desc *domain.Description) (*Statement, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	bound := *t
	bound.stored = desc.Stored
	return bound.translate(desc)
}

func (t *Translator) translate(desc *domain.Description) (*Statement, error) {
	switch op := desc.Op.(type) {
	case domain.CreateOp:
		return t.create(desc, op), nil
	case domain.DropOp:
		return t.drop(desc, op), nil
	}

	c := t.collect(desc)

	var (
		stmt sq.Sqlizer
		st   = &Statement{Type: desc.Type()}
	)

	switch op := desc.Op.(type) {
	case domain.SelectOp:
		stmt = t.selectStatement(c, c.columns)
		st.Returns = true
	case domain.AggregateOp:
		columns := append([]string(nil), c.groupBy...)
		columns = append(columns, t.aggregateColumn(op))
		stmt = t.selectStatement(c, columns)
		st.Returns = true
	case domain.InsertOp:
		stmt = t.insertStatement(c, op)
		st.Returns = t.returning
	case domain.UpdateOp:
		stmt = t.updateStatement(c, op)
	case domain.DeleteOp:
		stmt = t.deleteStatement(c)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownOperation, desc.Op)
	}

	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", desc.Type(), err)
	}
	st.SQL = query
	st.Args = args
	return st, nil
}

// collect applies the fixed rendering order: table, projection, filters,
// joins, ordering, grouping, pagination.
func (t *Translator) collect(desc *domain.Description) clauses {
	c := clauses{table: t.quote(desc.Table)}

	if len(desc.Select) == 0 {
		c.columns = []string{"*"}
	}
	for _, s := range desc.Select {
		col := t.column(s.Field)
		if s.Alias != "" {
			col += " AS " + t.quote(s.Alias)
		}
		c.columns = append(c.columns, col)
	}

	c.where = t.filters(desc)

	for _, j := range desc.Joins {
		c.joins = append(c.joins, fmt.Sprintf("%s ON %s = %s",
			t.quote(j.Table), t.column(j.OriginField), t.column(j.TargetField)))
	}

	for _, o := range desc.OrderBy {
		dir := "ASC"
		if o.Direction == domain.Desc {
			dir = "DESC"
		}
		c.orderBy = append(c.orderBy, t.column(o.Field)+" "+dir)
	}

	for _, g := range desc.GroupBy {
		c.groupBy = append(c.groupBy, t.column(g))
	}

	c.limit, c.offset = desc.Limit, desc.Offset
	return c
}

// filters combines whereIn, wheres and null checks into one conjunctive
// group. When or-wheres exist the group becomes the first alternative of a
// disjunction.
func (t *Translator) filters(desc *domain.Description) []sq.Sqlizer {
	var conj []sq.Sqlizer

	if in := desc.WhereIn; in != nil {
		values := make([]any, len(in.Values))
		for i, v := range in.Values {
			values[i] = t.value(v)
		}
		conj = append(conj, sq.Eq{t.column(in.Field): values})
	}
	for _, w := range desc.Wheres {
		conj = append(conj, t.comparison(w))
	}
	for _, f := range desc.WhereNull {
		conj = append(conj, sq.Eq{t.column(f): nil})
	}
	for _, f := range desc.WhereNotNull {
		conj = append(conj, sq.NotEq{t.column(f): nil})
	}

	if len(desc.OrWheres) == 0 {
		return conj
	}

	or := sq.Or{}
	if len(conj) > 0 {
		or = append(or, sq.And(conj))
	}
	for _, w := range desc.OrWheres {
		or = append(or, t.comparison(w))
	}
	return []sq.Sqlizer{or}
}

func (t *Translator) comparison(w domain.Condition) sq.Sqlizer {
	col := t.column(w.Field)
	if w.Value == nil && w.Operator == domain.Eq {
		return sq.Eq{col: nil}
	}
	return sq.Expr(fmt.Sprintf("%s %s ?", col, w.Operator), t.value(w.Value))
}

func (t *Translator) selectStatement(c clauses, columns []string) sq.SelectBuilder {
	q := t.builder.Select(columns...).From(c.table)
	for _, j := range c.joins {
		q = q.Join(j)
	}
	for _, w := range c.where {
		q = q.Where(w)
	}
	if len(c.groupBy) > 0 {
		q = q.GroupBy(c.groupBy...)
	}
	if len(c.orderBy) > 0 {
		q = q.OrderBy(c.orderBy...)
	}

	switch {
	case c.limit != nil:
		q = q.Limit(*c.limit)
	case c.offset != nil && t.dialect == domain.MySQL:
		q = q.Limit(math.MaxUint64)
	case c.offset != nil && t.dialect == domain.SQLite:
		q = q.Limit(math.MaxInt64)
	}
	if c.offset != nil {
		q = q.Offset(*c.offset)
	}
	return q
}

func (t *Translator) aggregateColumn(op domain.AggregateOp) string {
	field := op.Field
	if field == "" {
		field = "*"
	}
	return fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(string(op.Func)), t.column(field), t.quote(string(op.Func)))
}

func (t *Translator) insertStatement(c clauses, op domain.InsertOp) sq.InsertBuilder {
	keys := map[string]bool{}
	for _, rec := range op.Values {
		for k := range rec {
			keys[k] = true
		}
	}
	fields := make([]string, 0, len(keys))
	for k := range keys {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = t.column(f)
	}

	q := t.builder.Insert(c.table).Columns(columns...)
	for _, rec := range op.Values {
		row := make([]any, len(fields))
		for i, f := range fields {
			v, ok := rec[f]
			switch {
			case ok:
				row[i] = t.value(v)
			case t.dialect == domain.SQLite:
				row[i] = nil
			default:
				row[i] = sq.Expr("DEFAULT")
			}
		}
		q = q.Values(row...)
	}

	if t.returning {
		q = q.Suffix("RETURNING " + strings.Join(t.returningColumns(op.Returning), ", "))
	}
	return q
}

func (t *Translator) returningColumns(fields []string) []string {
	if len(fields) == 0 {
		return []string{"*"}
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = t.column(f)
	}
	return out
}

func (t *Translator) updateStatement(c clauses, op domain.UpdateOp) sq.UpdateBuilder {
	set := make(map[string]any, len(op.Values))
	for k, v := range op.Values {
		set[t.column(k)] = t.value(v)
	}
	q := t.builder.Update(c.table).SetMap(set)
	for _, w := range c.where {
		q = q.Where(w)
	}
	return q
}

// deleteStatement without filters removes every row.
func (t *Translator) deleteStatement(c clauses) sq.DeleteBuilder {
	q := t.builder.Delete(c.table)
	for _, w := range c.where {
		q = q.Where(w)
	}
	return q
}

// value adapts client values to driver arguments. Maps and slices other
// than []byte are stored as JSON text.
func (t *Translator) value(v any) any {
	switch v.(type) {
	case nil, []byte, string, time.Time, driver.Valuer:
		return v
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(data)
	}
	return v
}

// column converts a client field reference to a quoted storage reference.
// Stored references are quoted unchanged.
func (t *Translator) column(field string) string {
	if t.stored[field] {
		return t.quote(field)
	}
	return t.quote(t.FormatFieldNameToDatabase(field))
}

// quote quotes each period-separated part of an identifier.
func (t *Translator) quote(ident string) string {
	q := `"`
	if t.dialect == domain.MySQL {
		q = "`"
	}

	parts := strings.Split(ident, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}
