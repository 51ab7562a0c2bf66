package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/dsl"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

func u64(n uint64) *uint64 { return &n }

func TestCompileSelect(t *testing.T) {
	desc, err := dsl.Compile(`SELECT id, title AS label FROM articles
		WHERE viewCount >= 10 AND published = true AND deletedAt IS NULL
		ORDER BY createdAt desc, id LIMIT 5 OFFSET 10;`)
	require.NoError(t, err)

	assert.Equal(t, "articles", desc.Table)
	assert.Equal(t, domain.SelectOp{}, desc.Op)
	assert.Equal(t, []domain.Selection{{Field: "id"}, {Field: "title", Alias: "label"}}, desc.Select)
	assert.Equal(t, []domain.Condition{
		{Field: "viewCount", Operator: domain.Gte, Value: int64(10)},
		{Field: "published", Operator: domain.Eq, Value: true},
	}, desc.Wheres)
	assert.Equal(t, []string{"deletedAt"}, desc.WhereNull)
	assert.Equal(t, []domain.Order{
		{Field: "createdAt", Direction: domain.Desc},
		{Field: "id", Direction: domain.Asc},
	}, desc.OrderBy)
	assert.Equal(t, u64(5), desc.Limit)
	assert.Equal(t, u64(10), desc.Offset)
}

func TestCompileFilters(t *testing.T) {
	desc, err := dsl.Compile(`select * from users where id in (1, 2, 'x') and email is not null or age < 18.5 or name = "O\"Neil"`)
	require.NoError(t, err)

	assert.Empty(t, desc.Select)
	assert.Equal(t, &domain.InClause{Field: "id", Values: []any{int64(1), int64(2), "x"}}, desc.WhereIn)
	assert.Equal(t, []string{"email"}, desc.WhereNotNull)
	assert.Equal(t, []domain.Condition{
		{Field: "age", Operator: domain.Lt, Value: 18.5},
		{Field: "name", Operator: domain.Eq, Value: `O"Neil`},
	}, desc.OrWheres)
}

func TestCompileJoinAndGroup(t *testing.T) {
	desc, err := dsl.Compile(`select flights.departure, airports.name from flights
		join airports on airports.id = flights.airportId group by departure`)
	require.NoError(t, err)

	assert.Equal(t, []domain.Selection{{Field: "flights.departure"}, {Field: "airports.name"}}, desc.Select)
	assert.Equal(t, []domain.Join{{Table: "airports", OriginField: "airports.id", TargetField: "flights.airportId"}}, desc.Joins)
	assert.Equal(t, []string{"departure"}, desc.GroupBy)
}

func TestCompileAggregates(t *testing.T) {
	tests := []struct {
		input string
		want  domain.AggregateOp
	}{
		{"count from articles", domain.AggregateOp{Func: domain.Count, Field: "*"}},
		{"COUNT(*) from articles", domain.AggregateOp{Func: domain.Count, Field: "*"}},
		{"count title from articles", domain.AggregateOp{Func: domain.Count, Field: "title"}},
		{"sum(viewCount) from articles where title = 'a'", domain.AggregateOp{Func: domain.Sum, Field: "viewCount"}},
		{"avg viewCount from articles", domain.AggregateOp{Func: domain.Avg, Field: "viewCount"}},
		{"min id from articles", domain.AggregateOp{Func: domain.Min, Field: "id"}},
		{"max id from articles", domain.AggregateOp{Func: domain.Max, Field: "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			desc, err := dsl.Compile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, desc.Op)
		})
	}

	_, err := dsl.Compile("max from articles")
	assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
}

func TestCompileWrites(t *testing.T) {
	desc, err := dsl.Compile(`insert into articles set title = 'it''s', viewCount = 0, body = null`)
	require.NoError(t, err)
	assert.Equal(t, domain.InsertOp{Values: []domain.Record{
		{"title": "it's", "viewCount": int64(0), "body": nil},
	}}, desc.Op)

	desc, err = dsl.Compile(`insert into articles (title, viewCount) values ('a', 1), ('b', 2)`)
	require.NoError(t, err)
	assert.Equal(t, domain.InsertOp{Values: []domain.Record{
		{"title": "a", "viewCount": int64(1)},
		{"title": "b", "viewCount": int64(2)},
	}}, desc.Op)

	desc, err = dsl.Compile(`update articles set title = 'adios' where id = 1`)
	require.NoError(t, err)
	assert.Equal(t, domain.UpdateOp{Values: domain.Record{"title": "adios"}}, desc.Op)
	assert.Len(t, desc.Wheres, 1)

	desc, err = dsl.Compile(`delete from articles where title = null`)
	require.NoError(t, err)
	assert.Equal(t, domain.DeleteOp{}, desc.Op)
	assert.Equal(t, []string{"title"}, desc.WhereNull)

	desc, err = dsl.Compile(`drop table if exists articles`)
	require.NoError(t, err)
	assert.Equal(t, domain.DropOp{IfExists: true}, desc.Op)

	desc, err = dsl.Compile(`DROP TABLE articles`)
	require.NoError(t, err)
	assert.Equal(t, domain.DropOp{}, desc.Op)
}

func TestCompileErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"select from articles",
		"select * articles",
		"update articles where id = 1",
		"select * from articles where id != 1",
		"insert into articles (a, b) values (1)",
		"select * from t where a in (1) and b in (2)",
		"select * from t where a = 1 or b in (2)",
		"select * from t limit -1",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := dsl.Compile(input)
			assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
		})
	}
}

func TestCompileTranslates(t *testing.T) {
	tr, err := sqlgen.New(domain.SQLite)
	require.NoError(t, err)

	desc, err := dsl.Compile(`select * from articles where title = 'hola mundo!'`)
	require.NoError(t, err)

	stmt, err := tr.Translate(desc)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "articles" WHERE "title" = ?`, stmt.SQL)
	assert.Equal(t, []any{"hola mundo!"}, stmt.Args)
}

func TestGrammar(t *testing.T) {
	assert.Contains(t, dsl.Grammar(), "Statement")
}
