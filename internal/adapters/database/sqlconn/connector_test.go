package sqlconn_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/adapters/database/sqlconn"
	"github.com/satishbabariya/ormkit/internal/core/database/pool"
	"github.com/satishbabariya/ormkit/internal/core/query/builder"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator/sqlgen"
	"github.com/satishbabariya/ormkit/internal/runtime"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

type recorder struct {
	entries []database.Entry
}

func (r *recorder) log(_ context.Context, e database.Entry) {
	r.entries = append(r.entries, e)
}

func newConnector(t *testing.T, dsn string, isTimeout func(error) bool, rec *recorder) *sqlconn.Connector {
	t.Helper()
	tr, err := sqlgen.New(domain.SQLite)
	require.NoError(t, err)

	conn, err := sqlconn.New(sqlconn.Options{
		DriverName:         "sqlite3",
		DSN:                dsn,
		Translator:         tr,
		Pool:               pool.Single(),
		ReconnectOnTimeout: true,
		IsTimeout:          isTimeout,
		Logger:             rec.log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	require.NoError(t, conn.Connect(context.Background()))
	return conn
}

func selectArticles() *domain.Description {
	return builder.NewQueryBuilder("articles").Description()
}

func TestNew(t *testing.T) {
	_, err := sqlconn.New(sqlconn.Options{DriverName: "sqlite3"})
	assert.ErrorIs(t, err, runtime.ErrConfig)

	tr, err := sqlgen.New(domain.SQLite)
	require.NoError(t, err)
	_, err = sqlconn.New(sqlconn.Options{Translator: tr})
	assert.ErrorIs(t, err, runtime.ErrConfig)
}

func TestReconnectResubmitsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "app.db")

	// The first failure creates the table behind the connector's back, so
	// only the resubmitted statement can succeed.
	calls := 0
	isTimeout := func(error) bool {
		calls++
		if calls == 1 {
			db, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			defer db.Close()
			_, err = db.Exec(`CREATE TABLE articles (id INTEGER PRIMARY KEY, title TEXT)`)
			require.NoError(t, err)
		}
		return true
	}

	rec := &recorder{}
	conn := newConnector(t, path, isTimeout, rec)
	before := conn.Pool()

	res, err := conn.Query(ctx, selectArticles())
	require.NoError(t, err)
	assert.Empty(t, res.Rows)

	require.Len(t, rec.entries, 2)
	assert.Error(t, rec.entries[0].Err)
	assert.NoError(t, rec.entries[1].Err)
	assert.Equal(t, 1, calls)
	assert.NotSame(t, before, conn.Pool())
}

func TestReconnectReturnsSecondFailure(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	calls := 0
	conn := newConnector(t, filepath.Join(t.TempDir(), "app.db"), func(error) bool {
		calls++
		return true
	}, rec)

	_, err := conn.Query(ctx, selectArticles())
	require.Error(t, err)

	var qerr *runtime.QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, "select", qerr.Operation)
	assert.Equal(t, `SELECT * FROM "articles"`, qerr.Query)
	assert.Contains(t, err.Error(), "no such table")
	assert.NotErrorIs(t, err, runtime.ErrConnectionFailed)

	assert.Len(t, rec.entries, 2)
	assert.Equal(t, 1, calls)
}

func TestCallerDeadlineKeepsPool(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	conn := newConnector(t, ":memory:", func(error) bool { return true }, rec)

	_, err := conn.Query(ctx, builder.NewQueryBuilder("articles").
		Create([]schema.Field{
			schema.NewField("id", schema.Integer().AutoIncrement()),
			schema.NewField("title", schema.String(0)),
		}, nil, false).
		Description())
	require.NoError(t, err)
	_, err = conn.Query(ctx, builder.NewQueryBuilder("articles").Insert(domain.Record{"title": "kept"}).Description())
	require.NoError(t, err)

	before := conn.Pool()
	expired, cancel := context.WithTimeout(ctx, -time.Second)
	defer cancel()

	_, err = conn.Query(expired, selectArticles())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, runtime.ErrConnectionFailed)
	assert.Same(t, before, conn.Pool())

	res, err := conn.Query(ctx, selectArticles())
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "kept", res.Rows[0]["title"])
}

func TestTransactionIsNotResubmitted(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	calls := 0
	conn := newConnector(t, filepath.Join(t.TempDir(), "app.db"), func(error) bool {
		calls++
		return true
	}, rec)

	err := conn.Transaction(ctx, func(ctx context.Context) error {
		_, err := conn.Query(ctx, selectArticles())
		return err
	})
	assert.Contains(t, err.Error(), "no such table")
	assert.Len(t, rec.entries, 1)
	assert.Zero(t, calls)
}
