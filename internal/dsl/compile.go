package dsl

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/ormkit/internal/core/query/builder"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// Compile parses input and builds its description.
func Compile(input string) (*domain.Description, error) {
	stmt, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return stmt.Description()
}

// Description builds the query description of the statement. Field names
// are passed through as written.
func (s *Statement) Description() (*domain.Description, error) {
	var (
		b   *builder.QueryBuilder
		err error
	)

	switch {
	case s.Select != nil:
		b, err = s.Select.build()
	case s.Aggregate != nil:
		b, err = s.Aggregate.build()
	case s.Insert != nil:
		b, err = s.Insert.build()
	case s.Update != nil:
		b = builder.NewQueryBuilder(s.Update.Table).Update(assignments(s.Update.Set))
		err = s.Update.Where.apply(b)
	case s.Delete != nil:
		b = builder.NewQueryBuilder(s.Delete.Table).Delete()
		err = s.Delete.Where.apply(b)
	case s.Drop != nil:
		b = builder.NewQueryBuilder(s.Drop.Table).Drop(s.Drop.IfExists)
	default:
		return nil, fmt.Errorf("%w: empty statement", runtime.ErrInvalidQuery)
	}
	if err != nil {
		return nil, err
	}

	desc := b.Description()
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInvalidQuery, err)
	}
	return desc, nil
}

func (s *Select) build() (*builder.QueryBuilder, error) {
	b := builder.NewQueryBuilder(s.Table).Get()

	for _, f := range s.Fields {
		if f.Alias != "" {
			b.SelectAs(f.Field.String(), f.Alias)
			continue
		}
		b.Select(f.Field.String())
	}
	for _, j := range s.Joins {
		b.Join(j.Table, j.Origin.String(), j.Target.String())
	}
	if err := s.Where.apply(b); err != nil {
		return nil, err
	}
	if len(s.GroupBy) > 0 {
		b.GroupBy(s.GroupBy...)
	}
	for _, o := range s.OrderBy {
		dir := domain.Asc
		if strings.EqualFold(o.Dir, "desc") {
			dir = domain.Desc
		}
		b.OrderBy(o.Field.String(), dir)
	}
	if s.Limit != nil {
		b.Limit(*s.Limit)
	}
	if s.Offset != nil {
		b.Offset(*s.Offset)
	}
	return b, nil
}

func (a *Aggregate) build() (*builder.QueryBuilder, error) {
	b := builder.NewQueryBuilder(a.Table)

	field := ""
	if a.Field != nil {
		field = a.Field.String()
	}

	switch fn := domain.Type(strings.ToLower(a.Func)); fn {
	case domain.Count:
		if field == "" {
			field = "*"
		}
		b.Count(field)
	case domain.Min, domain.Max, domain.Sum, domain.Avg:
		if field == "" {
			return nil, fmt.Errorf("%w: %s needs a field", runtime.ErrInvalidQuery, fn)
		}
		switch fn {
		case domain.Min:
			b.Min(field)
		case domain.Max:
			b.Max(field)
		case domain.Sum:
			b.Sum(field)
		default:
			b.Avg(field)
		}
	}

	if len(a.GroupBy) > 0 {
		b.GroupBy(a.GroupBy...)
	}
	return b, a.Where.apply(b)
}

func (i *Insert) build() (*builder.QueryBuilder, error) {
	b := builder.NewQueryBuilder(i.Table)
	if len(i.Set) > 0 {
		return b.Insert(assignments(i.Set)), nil
	}

	records := make([]domain.Record, len(i.Rows))
	for n, row := range i.Rows {
		if len(row.Values) != len(i.Columns) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns",
				runtime.ErrInvalidQuery, n+1, len(row.Values), len(i.Columns))
		}
		rec := make(domain.Record, len(i.Columns))
		for c, col := range i.Columns {
			rec[col] = row.Values[c].Go()
		}
		records[n] = rec
	}
	return b.Insert(records...), nil
}

func assignments(set []*Assignment) domain.Record {
	rec := make(domain.Record, len(set))
	for _, a := range set {
		rec[a.Field] = a.Value.Go()
	}
	return rec
}

// apply adds the where clause to b. "= null" becomes a null check. Only one
// in-list is allowed, and not in an or branch.
func (w *Where) apply(b *builder.QueryBuilder) error {
	if w == nil {
		return nil
	}

	hasIn := false
	for _, c := range w.And {
		field := c.Field.String()
		switch {
		case c.In != nil:
			if hasIn {
				return fmt.Errorf("%w: only one in condition is supported", runtime.ErrInvalidQuery)
			}
			hasIn = true
			values := make([]any, len(c.In))
			for i, v := range c.In {
				values[i] = v.Go()
			}
			b.WhereIn(field, values...)
		case c.Null != nil && c.Null.Not:
			b.WhereNotNull(field)
		case c.Null != nil, c.Op == "=" && c.Value.Null:
			b.WhereNull(field)
		default:
			b.Where(field, domain.Operator(c.Op), c.Value.Go())
		}
	}

	for _, c := range w.Or {
		if c.In != nil || c.Null != nil {
			return fmt.Errorf("%w: or supports comparisons only", runtime.ErrInvalidQuery)
		}
		b.OrWhere(c.Field.String(), domain.Operator(c.Op), c.Value.Go())
	}
	return nil
}
