package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/sqlite"
	"github.com/satishbabariya/ormkit/internal/core/query/builder"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/runtime"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

var errAbort = errors.New("abort")

func articleFields() []schema.Field {
	return []schema.Field{
		schema.NewField("id", schema.Integer().AutoIncrement()),
		schema.NewField("title", schema.String(0)),
		schema.NewField("viewCount", schema.Integer().Default(0)),
		schema.NewField("cover", schema.Binary().Nullable()),
	}
}

func newConnector(t *testing.T, opts sqlite.Options) *sqlite.Connector {
	t.Helper()
	if opts.Filepath == "" {
		opts.Filepath = ":memory:"
	}
	conn, err := sqlite.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	_, err = conn.Query(context.Background(), builder.NewQueryBuilder("articles").Create(articleFields(), nil, false).Description())
	require.NoError(t, err)
	return conn
}

func count(t *testing.T, ctx context.Context, conn database.Connector) int64 {
	t.Helper()
	res, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Count().Description())
	require.NoError(t, err)
	n, err := res.Count()
	require.NoError(t, err)
	return n
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=1", sqlite.DSN("a.db", 0))
	assert.Equal(t, "a.db?_busy_timeout=2000&_foreign_keys=1", sqlite.DSN("a.db", 2*time.Second))
}

func TestSupportsReturning(t *testing.T) {
	for v, want := range map[string]bool{"3.34.1": false, "3.35.0": true, "3.45.3": true} {
		ok, err := sqlite.SupportsReturning(v)
		require.NoError(t, err)
		assert.Equal(t, want, ok, v)
	}

	_, err := sqlite.SupportsReturning("not a version")
	assert.Error(t, err)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, sqlite.IsTimeout(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, sqlite.IsTimeout(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, sqlite.IsTimeout(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, sqlite.IsTimeout(context.DeadlineExceeded))
	assert.False(t, sqlite.IsTimeout(errAbort))
}

func TestNewRequiresFilepath(t *testing.T) {
	_, err := sqlite.New(sqlite.Options{})
	assert.ErrorIs(t, err, runtime.ErrConfig)
}

func TestArticlesScenario(t *testing.T) {
	ctx := context.Background()
	conn := newConnector(t, sqlite.Options{})

	assert.True(t, conn.Ping(ctx))
	assert.Equal(t, database.Capabilities{Transactions: true}, conn.Capabilities())

	res, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Insert(domain.Record{"title": "hola mundo!"}).Description())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.AffectedRows)
	assert.True(t, res.HasLastInsertID)
	assert.EqualValues(t, 1, res.LastInsertID)

	res, err = conn.Query(ctx, builder.NewQueryBuilder("articles").Select("id").Description())
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{{"id": int64(1)}}, res.Rows)

	res, err = conn.Query(ctx, builder.NewQueryBuilder("articles").WhereEq("id", 1).Update(domain.Record{"viewCount": 3}).Description())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.AffectedRows)

	res, err = conn.Query(ctx, builder.NewQueryBuilder("articles").Select("title", "viewCount").Description())
	require.NoError(t, err)
	assert.Equal(t, []domain.Record{{"title": "hola mundo!", "viewCount": int64(3)}}, res.Rows)

	res, err = conn.Query(ctx, builder.NewQueryBuilder("articles").WhereEq("id", 1).Delete().Description())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.AffectedRows)

	res, err = conn.Query(ctx, builder.NewQueryBuilder("articles").Description())
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestBinaryColumnsStayBytes(t *testing.T) {
	ctx := context.Background()
	conn := newConnector(t, sqlite.Options{})

	_, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Insert(domain.Record{"title": "a", "cover": []byte{0x1, 0x2}}).Description())
	require.NoError(t, err)

	res, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Select("title", "cover").Description())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "a", res.Rows[0]["title"])
	assert.Equal(t, []byte{0x1, 0x2}, res.Rows[0]["cover"])
}

func TestReturnOnInsert(t *testing.T) {
	ctx := context.Background()
	conn := newConnector(t, sqlite.Options{ReturnOnInsert: true})
	assert.True(t, conn.Capabilities().Returning)

	res, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Insert(
		domain.Record{"title": "a"},
		domain.Record{"title": "b"},
	).Description())
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	assert.EqualValues(t, 2, res.AffectedRows)
	assert.Equal(t, int64(2), res.LastInsertID)
	assert.Equal(t, "b", res.Rows[1]["title"])
	assert.Equal(t, int64(0), res.Rows[1]["viewCount"])
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()
	insert := builder.NewQueryBuilder("articles").Insert(domain.Record{"title": "t"}).Description()

	t.Run("commit", func(t *testing.T) {
		conn := newConnector(t, sqlite.Options{})
		err := conn.Transaction(ctx, func(ctx context.Context) error {
			_, err := conn.Query(ctx, insert)
			return err
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count(t, ctx, conn))
	})

	t.Run("rollback returns the callback error", func(t *testing.T) {
		conn := newConnector(t, sqlite.Options{})
		err := conn.Transaction(ctx, func(ctx context.Context) error {
			_, err := conn.Query(ctx, insert)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count(t, ctx, conn))
			return errAbort
		})
		assert.Same(t, errAbort, err)
		assert.Zero(t, count(t, ctx, conn))
	})

	t.Run("nested joins the outer transaction", func(t *testing.T) {
		conn := newConnector(t, sqlite.Options{})
		err := conn.Transaction(ctx, func(ctx context.Context) error {
			if err := conn.Transaction(ctx, func(ctx context.Context) error {
				_, err := conn.Query(ctx, insert)
				return err
			}); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)
		assert.Zero(t, count(t, ctx, conn))
	})
}

func TestQueryLogger(t *testing.T) {
	ctx := context.Background()
	var entries []database.Entry
	conn := newConnector(t, sqlite.Options{Logger: func(_ context.Context, e database.Entry) {
		entries = append(entries, e)
	}})

	_, err := conn.Query(ctx, builder.NewQueryBuilder("articles").WhereEq("title", "x").Description())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	last := entries[1]
	assert.Equal(t, domain.SQLite, last.Dialect)
	assert.Equal(t, `SELECT * FROM "articles" WHERE "title" = ?`, last.Query)
	assert.Equal(t, []any{"x"}, last.Args)
	assert.NoError(t, last.Err)
}

func TestQueryErrors(t *testing.T) {
	ctx := context.Background()
	conn := newConnector(t, sqlite.Options{})

	_, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Insert().Description())
	assert.ErrorIs(t, err, runtime.ErrInvalidQuery)
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)

	_, err = conn.Query(ctx, builder.NewQueryBuilder("missing").Description())
	var qerr *runtime.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "missing", qerr.Table)
	assert.Equal(t, `SELECT * FROM "missing"`, qerr.Query)
}

func TestFileDatabaseIsPooled(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ormkit.db")
	conn := newConnector(t, sqlite.Options{Filepath: path, Pooled: true, PoolSize: 4})

	_, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Insert(domain.Record{"title": "a"}, domain.Record{"title": "b"}).Description())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count(t, ctx, conn))
	assert.Equal(t, 4, conn.Pool().Stats().MaxOpenConnections)

	require.NoError(t, conn.Close(ctx))
	require.NoError(t, conn.Close(ctx))
	assert.Nil(t, conn.Pool())
}

func TestExpiredContextKeepsMemoryDatabase(t *testing.T) {
	ctx := context.Background()
	conn := newConnector(t, sqlite.Options{ReconnectOnTimeout: true})

	_, err := conn.Query(ctx, builder.NewQueryBuilder("articles").Insert(domain.Record{"title": "a"}).Description())
	require.NoError(t, err)

	expired, cancel := context.WithTimeout(ctx, -time.Second)
	defer cancel()
	_, err = conn.Query(expired, builder.NewQueryBuilder("articles").Description())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, runtime.ErrConnectionFailed)

	assert.EqualValues(t, 1, count(t, ctx, conn))
}
