package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/satishbabariya/ormkit/internal/core/query/builder"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/runtime"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

// Query is a chainable query on one model. Chain methods record unknown
// fields instead of failing; the terminal call returns them. A Query is not
// safe for concurrent use and resets after every terminal call.
type Query struct {
	db    *Database
	model *schema.Model
	b     *builder.QueryBuilder
	errs  []error

	joined map[string]*schema.Model
}

func newQuery(db *Database, m *schema.Model) *Query {
	q := &Query{db: db, model: m}
	q.reset()
	return q
}

func (q *Query) reset() {
	q.b = builder.NewQueryBuilder(q.model.Table).Schema(q.model)
	q.errs = nil
	q.joined = map[string]*schema.Model{}
}

// lookup finds the model owning table among the joined and linked models.
func (q *Query) lookup(table string) (*schema.Model, bool) {
	if table == q.model.Table {
		return q.model, true
	}
	if m, ok := q.joined[table]; ok {
		return m, true
	}
	return q.db.models.LookupTable(table)
}

// column validates a client field reference and returns the name the
// translator expects. "table.field" resolves field against the joined or
// linked model owning table.
func (q *Query) column(name string) string {
	if name == "*" || strings.HasPrefix(name, "_") {
		return name
	}

	if table, field, ok := strings.Cut(name, "."); ok {
		m, found := q.lookup(table)
		if !found {
			return table + "." + q.db.conn.Translator().FormatFieldNameToDatabase(field)
		}
		col, stored := q.resolve(m, field)
		ref := table + "." + col
		if stored {
			q.b.Stored(ref)
		}
		return ref
	}

	col, stored := q.resolve(q.model, name)
	if stored {
		q.b.Stored(col)
	}
	return col
}

// resolve returns the storage name of field on m. stored is set for renamed
// fields, whose column must reach the translator untouched.
func (q *Query) resolve(m *schema.Model, field string) (col string, stored bool) {
	if !m.HasField(field) && !strings.HasPrefix(field, "_") {
		q.errs = append(q.errs, fmt.Errorf("%w: %s has no field %q", schema.ErrUnknownField, m.Name, field))
		return field, false
	}
	if f, ok := m.Field(field); ok && f.ColumnName != "" {
		return f.ColumnName, true
	}
	return q.db.conn.Translator().FormatFieldNameToDatabase(field), false
}

func (q *Query) record(values Record) Record {
	out := make(Record, len(values))
	for k, v := range values {
		out[q.column(k)] = v
	}
	return out
}

// Select restricts the returned fields.
func (q *Query) Select(fields ...string) *Query {
	for _, f := range fields {
		q.b.Select(q.column(f))
	}
	return q
}

// SelectAs returns field under alias.
func (q *Query) SelectAs(field, alias string) *Query {
	q.b.SelectAs(q.column(field), alias)
	return q
}

// Where adds a conjunctive condition. It takes either a value, compared with
// "=", or an operator followed by a value:
//
//	q.Where("departure", "Paris")
//	q.Where("duration", orm.Gt, 2)
func (q *Query) Where(field string, args ...any) *Query {
	op, value, err := condition(args)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("where %s: %w", field, err))
		return q
	}
	q.b.Where(q.column(field), op, value)
	return q
}

// WhereMap adds an equality condition per entry.
func (q *Query) WhereMap(values map[string]any) *Query {
	q.b.WhereMap(q.record(values))
	return q
}

// OrWhere adds a disjunctive condition. Arguments are as for Where.
func (q *Query) OrWhere(field string, args ...any) *Query {
	op, value, err := condition(args)
	if err != nil {
		q.errs = append(q.errs, fmt.Errorf("or where %s: %w", field, err))
		return q
	}
	q.b.OrWhere(q.column(field), op, value)
	return q
}

func condition(args []any) (domain.Operator, any, error) {
	switch len(args) {
	case 1:
		return domain.Eq, args[0], nil
	case 2:
		var op domain.Operator
		switch o := args[0].(type) {
		case domain.Operator:
			op = o
		case string:
			op = domain.Operator(o)
		default:
			return "", nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedOperator, args[0])
		}
		if !op.Valid() {
			return "", nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, op)
		}
		return op, args[1], nil
	}
	return "", nil, fmt.Errorf("%w: want a value or an operator and a value, got %d arguments", runtime.ErrInvalidQuery, len(args))
}

// WhereIn keeps rows whose field is one of values.
func (q *Query) WhereIn(field string, values ...any) *Query {
	q.b.WhereIn(q.column(field), values...)
	return q
}

// WhereNull keeps rows where field is null.
func (q *Query) WhereNull(field string) *Query {
	q.b.WhereNull(q.column(field))
	return q
}

// WhereNotNull keeps rows where field is not null.
func (q *Query) WhereNotNull(field string) *Query {
	q.b.WhereNotNull(q.column(field))
	return q
}

// Join joins other on originField = targetField. Fields are usually
// qualified:
//
//	db.Model(Flight).Join(Airport, "airports.id", "flights.airportId")
//
// Document stores use originField as the local field and targetField as the
// name of the embedded result.
func (q *Query) Join(other *schema.Model, originField, targetField string) *Query {
	q.joined[other.Table] = other
	q.b.Join(other.Table, q.column(originField), q.joinTarget(targetField))
	return q
}

func (q *Query) joinTarget(field string) string {
	if q.db.Dialect() == domain.Mongo {
		return field
	}
	return q.column(field)
}

// OrderBy sorts by field, ascending unless a direction is given.
func (q *Query) OrderBy(field string, dir ...Direction) *Query {
	d := domain.Asc
	if len(dir) > 0 {
		d = dir[0]
	}
	q.b.OrderBy(q.column(field), d)
	return q
}

// GroupBy groups by fields.
func (q *Query) GroupBy(fields ...string) *Query {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = q.column(f)
	}
	q.b.GroupBy(cols...)
	return q
}

// Take limits the number of rows.
func (q *Query) Take(n uint64) *Query {
	q.b.Limit(n)
	return q
}

// Skip skips the first n rows.
func (q *Query) Skip(n uint64) *Query {
	q.b.Offset(n)
	return q
}

// Description returns the descriptor the chain has built so far, or the
// first recorded error.
func (q *Query) Description() (*Description, error) {
	if err := errors.Join(q.errs...); err != nil {
		return nil, err
	}
	return q.b.Description(), nil
}

func (q *Query) run(ctx context.Context) (*Result, error) {
	defer q.reset()

	desc, err := q.Description()
	if err != nil {
		return nil, err
	}
	return q.db.Query(ctx, desc)
}

func (q *Query) primaryKey() (string, error) {
	pk, ok := q.model.PrimaryKey()
	if !ok {
		return "", fmt.Errorf("%w: %s has no primary key", runtime.ErrInvalidQuery, q.model.Name)
	}
	return pk.Name, nil
}

// Get runs the query and returns the matching rows.
func (q *Query) Get(ctx context.Context) ([]Record, error) {
	q.b.Get()
	res, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// All returns every row of the table. Conditions chained so far are
// discarded.
func (q *Query) All(ctx context.Context) ([]Record, error) {
	q.reset()
	return q.Get(ctx)
}

// First returns the first matching row, or ErrNotFound.
func (q *Query) First(ctx context.Context) (Record, error) {
	rows, err := q.Take(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &runtime.NotFoundError{Table: q.model.Table}
	}
	return rows[0], nil
}

// Find returns the rows whose primary key is one of ids.
func (q *Query) Find(ctx context.Context, ids ...any) ([]Record, error) {
	pk, err := q.primaryKey()
	if err != nil {
		q.reset()
		return nil, err
	}
	return q.WhereIn(pk, ids...).Get(ctx)
}

// Create inserts records. A missing UUID primary key is generated.
func (q *Query) Create(ctx context.Context, records ...Record) (*Result, error) {
	pk, hasPK := q.model.PrimaryKey()

	values := make([]Record, len(records))
	for i, rec := range records {
		rec = rec.Clone()
		if hasPK && pk.Type.Kind == schema.KindUUID {
			if v, ok := rec[pk.Name]; !ok || v == nil {
				rec[pk.Name] = uuid.NewString()
			}
		}
		values[i] = q.record(rec)
	}

	q.b.Insert(values...)
	return q.run(ctx)
}

// Update sets values on the matching rows. Timestamped models also get
// updatedAt.
func (q *Query) Update(ctx context.Context, values Record) (*Result, error) {
	values = values.Clone()
	if q.model.Timestamps {
		if _, ok := values[schema.UpdatedAt]; !ok {
			values[schema.UpdatedAt] = q.db.now()
		}
	}
	q.b.Update(q.record(values))
	return q.run(ctx)
}

// Delete removes the matching rows. Without conditions every row goes.
func (q *Query) Delete(ctx context.Context) (*Result, error) {
	q.b.Delete()
	return q.run(ctx)
}

// DeleteByID removes the row with primary key id.
func (q *Query) DeleteByID(ctx context.Context, id any) (*Result, error) {
	pk, err := q.primaryKey()
	if err != nil {
		q.reset()
		return nil, err
	}
	return q.Where(pk, id).Delete(ctx)
}

// Count counts matching rows, or non-null values of field.
func (q *Query) Count(ctx context.Context, field ...string) (int64, error) {
	f := "*"
	if len(field) > 0 && field[0] != "" {
		f = q.column(field[0])
	}
	q.b.Count(f)
	res, err := q.run(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return res.Count()
}

func (q *Query) Min(ctx context.Context, field string) (any, error) {
	return q.aggregate(ctx, domain.Min, field)
}

func (q *Query) Max(ctx context.Context, field string) (any, error) {
	return q.aggregate(ctx, domain.Max, field)
}

func (q *Query) Sum(ctx context.Context, field string) (any, error) {
	return q.aggregate(ctx, domain.Sum, field)
}

func (q *Query) Avg(ctx context.Context, field string) (any, error) {
	return q.aggregate(ctx, domain.Avg, field)
}

// aggregate returns nil when no row matched.
func (q *Query) aggregate(ctx context.Context, fn domain.Type, field string) (any, error) {
	col := q.column(field)
	switch fn {
	case domain.Min:
		q.b.Min(col)
	case domain.Max:
		q.b.Max(col)
	case domain.Sum:
		q.b.Sum(col)
	case domain.Avg:
		q.b.Avg(col)
	}

	res, err := q.run(ctx)
	if err != nil {
		return nil, err
	}
	v, _ := res.Scalar(string(fn))
	return v, nil
}
