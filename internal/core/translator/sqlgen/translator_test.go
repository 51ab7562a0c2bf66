package sqlgen_test

import (
	"testing"

	"github.com/satishbabariya/ormkit/internal/core/query/builder"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTranslator(t *testing.T, dialect domain.Dialect, opts ...sqlgen.Option) *sqlgen.Translator {
	t.Helper()
	tr, err := sqlgen.New(dialect, opts...)
	require.NoError(t, err)
	return tr
}

func TestNew(t *testing.T) {
	t.Run("unknown dialect", func(t *testing.T) {
		_, err := sqlgen.New("oracle")
		assert.Error(t, err)
	})

	t.Run("mysql cannot return rows", func(t *testing.T) {
		_, err := sqlgen.New(domain.MySQL, sqlgen.WithReturning(true))
		assert.Error(t, err)
	})

	t.Run("field name formatting", func(t *testing.T) {
		tr := mustTranslator(t, domain.SQLite)
		assert.Equal(t, domain.SQLite, tr.Dialect())
		assert.Equal(t, "created_at", tr.FormatFieldNameToDatabase("createdAt"))
		assert.Equal(t, "createdAt", tr.FormatFieldNameToClient("created_at"))
	})
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		dialect  domain.Dialect
		opts     []sqlgen.Option
		query    *builder.QueryBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "unfiltered select reads the whole table",
			dialect: domain.SQLite,
			query:   builder.NewQueryBuilder("articles"),
			wantSQL: `SELECT * FROM "articles"`,
		},
		{
			name:    "projection filters ordering and pagination",
			dialect: domain.Postgres,
			query: builder.NewQueryBuilder("articles").
				Select("id", "title").
				Where("title", domain.Eq, "Hello").
				Where("viewCount", domain.Gte, 10).
				OrderBy("createdAt", domain.Desc).
				Limit(5).
				Offset(10),
			wantSQL:  `SELECT "id", "title" FROM "articles" WHERE "title" = $1 AND "view_count" >= $2 ORDER BY "created_at" DESC LIMIT 5 OFFSET 10`,
			wantArgs: []any{"Hello", 10},
		},
		{
			name:    "where in comes before wheres and null checks",
			dialect: domain.MySQL,
			query: builder.NewQueryBuilder("users").
				WhereNull("deletedAt").
				Where("age", domain.Lt, 65).
				WhereIn("id", 1, 2, 3),
			wantSQL:  "SELECT * FROM `users` WHERE `id` IN (?,?,?) AND `age` < ? AND `deleted_at` IS NULL",
			wantArgs: []any{1, 2, 3, 65},
		},
		{
			name:    "not null and alias",
			dialect: domain.SQLite,
			query: builder.NewQueryBuilder("users").
				SelectAs("email", "contact").
				WhereNotNull("email"),
			wantSQL: `SELECT "email" AS "contact" FROM "users" WHERE "email" IS NOT NULL`,
		},
		{
			name:    "or where wraps the conjunctive group",
			dialect: domain.SQLite,
			query: builder.NewQueryBuilder("users").
				Select("id").
				WhereEq("name", "User name 1").
				OrWhere("age", domain.Eq, 40),
			wantSQL:  `SELECT "id" FROM "users" WHERE (("name" = ?) OR "age" = ?)`,
			wantArgs: []any{"User name 1", 40},
		},
		{
			name:    "or where without conjunctive filters",
			dialect: domain.Postgres,
			query: builder.NewQueryBuilder("users").
				OrWhere("age", domain.Gt, 60).
				OrWhere("age", domain.Lte, 12),
			wantSQL:  `SELECT * FROM "users" WHERE ("age" > $1 OR "age" <= $2)`,
			wantArgs: []any{60, 12},
		},
		{
			name:    "join on qualified fields",
			dialect: domain.MySQL,
			query: builder.NewQueryBuilder("posts").
				Select("posts.title", "users.name").
				Join("users", "posts.userId", "users.id"),
			wantSQL: "SELECT `posts`.`title`, `users`.`name` FROM `posts` JOIN `users` ON `posts`.`user_id` = `users`.`id`",
		},
		{
			name:    "group by",
			dialect: domain.SQLite,
			query:   builder.NewQueryBuilder("flights").Select("departure").GroupBy("departure"),
			wantSQL: `SELECT "departure" FROM "flights" GROUP BY "departure"`,
		},
		{
			name:    "mysql offset without limit",
			dialect: domain.MySQL,
			query:   builder.NewQueryBuilder("t").Offset(5),
			wantSQL: "SELECT * FROM `t` LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name:    "sqlite offset without limit",
			dialect: domain.SQLite,
			query:   builder.NewQueryBuilder("t").Offset(5),
			wantSQL: `SELECT * FROM "t" LIMIT 9223372036854775807 OFFSET 5`,
		},
		{
			name:    "postgres offset without limit",
			dialect: domain.Postgres,
			query:   builder.NewQueryBuilder("t").Offset(5),
			wantSQL: `SELECT * FROM "t" OFFSET 5`,
		},
		{
			name:    "insert one record",
			dialect: domain.SQLite,
			query: builder.NewQueryBuilder("articles").
				Insert(domain.Record{"title": "Hello world!", "content": "first article!"}),
			wantSQL:  `INSERT INTO "articles" ("content","title") VALUES (?,?)`,
			wantArgs: []any{"first article!", "Hello world!"},
		},
		{
			name:    "multi row insert with returning",
			dialect: domain.Postgres,
			opts:    []sqlgen.Option{sqlgen.WithReturning(true)},
			query: builder.NewQueryBuilder("users").
				Insert(domain.Record{"name": "a", "age": 1}, domain.Record{"name": "b"}),
			wantSQL:  `INSERT INTO "users" ("age","name") VALUES ($1,$2),(DEFAULT,$3) RETURNING *`,
			wantArgs: []any{1, "a", "b"},
		},
		{
			name:    "sqlite fills missing columns with null",
			dialect: domain.SQLite,
			query: builder.NewQueryBuilder("users").
				Insert(domain.Record{"name": "a", "age": 1}, domain.Record{"name": "b"}),
			wantSQL:  `INSERT INTO "users" ("age","name") VALUES (?,?),(?,?)`,
			wantArgs: []any{1, "a", nil, "b"},
		},
		{
			name:    "returning selected fields",
			dialect: domain.SQLite,
			opts:    []sqlgen.Option{sqlgen.WithReturning(true)},
			query: builder.NewQueryBuilder("users").
				Insert(domain.Record{"firstName": "a"}).
				Returning("id", "firstName"),
			wantSQL:  `INSERT INTO "users" ("first_name") VALUES (?) RETURNING "id", "first_name"`,
			wantArgs: []any{"a"},
		},
		{
			name:    "insert serializes structured values as json",
			dialect: domain.MySQL,
			query: builder.NewQueryBuilder("events").
				Insert(domain.Record{"payload": map[string]any{"a": 1}}),
			wantSQL:  "INSERT INTO `events` (`payload`) VALUES (?)",
			wantArgs: []any{`{"a":1}`},
		},
		{
			name:    "update scoped by where",
			dialect: domain.SQLite,
			query: builder.NewQueryBuilder("articles").
				WhereEq("id", 1).
				Update(domain.Record{"title": "Hello there!"}),
			wantSQL:  `UPDATE "articles" SET "title" = ? WHERE "id" = ?`,
			wantArgs: []any{"Hello there!", 1},
		},
		{
			name:    "update without where touches every row",
			dialect: domain.Postgres,
			query: builder.NewQueryBuilder("articles").
				Update(domain.Record{"updatedAt": "now", "draft": false}),
			wantSQL:  `UPDATE "articles" SET "draft" = $1, "updated_at" = $2`,
			wantArgs: []any{false, "now"},
		},
		{
			name:     "delete scoped by where",
			dialect:  domain.MySQL,
			query:    builder.NewQueryBuilder("articles").WhereEq("title", "hola mundo!").Delete(),
			wantSQL:  "DELETE FROM `articles` WHERE `title` = ?",
			wantArgs: []any{"hola mundo!"},
		},
		{
			name:    "delete without where",
			dialect: domain.SQLite,
			query:   builder.NewQueryBuilder("articles").Delete(),
			wantSQL: `DELETE FROM "articles"`,
		},
		{
			name:     "count",
			dialect:  domain.SQLite,
			query:    builder.NewQueryBuilder("articles").WhereEq("title", "hola mundo!").Count(),
			wantSQL:  `SELECT COUNT(*) AS "count" FROM "articles" WHERE "title" = ?`,
			wantArgs: []any{"hola mundo!"},
		},
		{
			name:    "max over field",
			dialect: domain.MySQL,
			query:   builder.NewQueryBuilder("users").Max("age"),
			wantSQL: "SELECT MAX(`age`) AS `max` FROM `users`",
		},
		{
			name:    "grouped average projects group columns",
			dialect: domain.Postgres,
			query:   builder.NewQueryBuilder("users").GroupBy("country").Avg("age"),
			wantSQL: `SELECT "country", AVG("age") AS "avg" FROM "users" GROUP BY "country"`,
		},
		{
			name:    "stored references keep their case",
			dialect: domain.SQLite,
			query: builder.NewQueryBuilder("posts").
				Stored("headlineText", "authors.fullName").
				Select("headlineText", "authors.fullName", "viewCount").
				Where("headlineText", domain.Eq, "x"),
			wantSQL:  `SELECT "headlineText", "authors"."fullName", "view_count" FROM "posts" WHERE "headlineText" = ?`,
			wantArgs: []any{"x"},
		},
		{
			name:    "drop if exists",
			dialect: domain.SQLite,
			query:   builder.NewQueryBuilder("articles").Drop(true),
			wantSQL: `DROP TABLE IF EXISTS "articles"`,
		},
		{
			name:    "strict drop",
			dialect: domain.MySQL,
			query:   builder.NewQueryBuilder("articles").Drop(false),
			wantSQL: "DROP TABLE `articles`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustTranslator(t, tt.dialect, tt.opts...)

			stmt, err := tr.Translate(tt.query.Description())
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, stmt.SQL)
			if tt.wantArgs == nil {
				assert.Empty(t, stmt.Args)
			} else {
				assert.Equal(t, tt.wantArgs, stmt.Args)
			}
		})
	}
}

func TestTranslate_Returns(t *testing.T) {
	plain := mustTranslator(t, domain.SQLite)
	returning := mustTranslator(t, domain.SQLite, sqlgen.WithReturning(true))

	insert := builder.NewQueryBuilder("t").Insert(domain.Record{"a": 1}).Description()

	stmt, err := plain.Translate(insert)
	require.NoError(t, err)
	assert.False(t, stmt.Returns)
	assert.Equal(t, domain.Insert, stmt.Type)

	stmt, err = returning.Translate(insert)
	require.NoError(t, err)
	assert.True(t, stmt.Returns)

	stmt, err = plain.Translate(builder.NewQueryBuilder("t").Sum("a").Description())
	require.NoError(t, err)
	assert.True(t, stmt.Returns)
	assert.Equal(t, domain.Sum, stmt.Type)
}

func TestTranslate_Errors(t *testing.T) {
	tr := mustTranslator(t, domain.Postgres)

	tests := []struct {
		name    string
		desc    *domain.Description
		wantErr error
	}{
		{"insert without values", builder.NewQueryBuilder("t").Insert().Description(), domain.ErrMissingRequiredField},
		{"update without values", builder.NewQueryBuilder("t").Update(nil).Description(), domain.ErrMissingRequiredField},
		{"create without fields", builder.NewQueryBuilder("t").Create(nil, nil, false).Description(), domain.ErrMissingRequiredField},
		{"min without field", builder.NewQueryBuilder("t").Min("").Description(), domain.ErrMissingRequiredField},
		{"unknown operation", &domain.Description{Table: "t"}, domain.ErrUnknownOperation},
		{"bad operator", builder.NewQueryBuilder("t").Where("a", "!~", 1).Description(), domain.ErrUnsupportedOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := tr.Translate(tt.desc)
			assert.Nil(t, stmt)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
