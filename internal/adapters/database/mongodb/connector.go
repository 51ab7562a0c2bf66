// Package mongodb connects to MongoDB with the official driver. Descriptors are
// rendered by the document translator.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/satishbabariya/ormkit/internal/adapters/database"
	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator"
	"github.com/satishbabariya/ormkit/internal/core/translator/document"
	"github.com/satishbabariya/ormkit/internal/debug"
	"github.com/satishbabariya/ormkit/internal/runtime"
)

// Options configures a MongoDB connector. URI, when set, wins over Hosts.
type Options struct {
	URI              string
	Hosts            []string
	Database         string
	Username         string
	Password         string
	AppName          string
	ReplicaSet       string
	DirectConnection bool
	ConnectTimeout   time.Duration
	MaxPoolSize      uint64
	MinPoolSize      uint64

	// ReconnectOnTimeout resubmits a command once, on a new client, after
	// an error IsTimeout accepts.
	ReconnectOnTimeout bool

	Logger database.QueryLogger
}

// Connector is the MongoDB connector.
type Connector struct {
	opts       Options
	translator *document.Translator

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

var _ database.Connector = (*Connector)(nil)

// New returns an unconnected connector.
func New(opts Options, topts ...document.Option) (*Connector, error) {
	if opts.Database == "" {
		return nil, runtime.Configf("mongo: database is required")
	}
	if opts.URI == "" && len(opts.Hosts) == 0 {
		return nil, runtime.Configf("mongo: uri or hosts are required")
	}
	return &Connector{opts: opts, translator: document.New(topts...)}, nil
}

func (c *Connector) Dialect() domain.Dialect { return domain.Mongo }

func (c *Connector) Translator() translator.Translator { return c.translator }

// Capabilities reports no transactions. Inserts re-read the stored documents.
func (c *Connector) Capabilities() database.Capabilities {
	return database.Capabilities{Returning: true}
}

func (c *Connector) clientOptions() *options.ClientOptions {
	o := options.Client()
	if c.opts.URI != "" {
		o.ApplyURI(c.opts.URI)
	} else {
		o.SetHosts(c.opts.Hosts)
	}
	if c.opts.Username != "" {
		o.SetAuth(options.Credential{Username: c.opts.Username, Password: c.opts.Password})
	}
	if c.opts.AppName != "" {
		o.SetAppName(c.opts.AppName)
	}
	if c.opts.ReplicaSet != "" {
		o.SetReplicaSet(c.opts.ReplicaSet)
	}
	if c.opts.DirectConnection {
		o.SetDirect(true)
	}
	if c.opts.ConnectTimeout > 0 {
		o.SetConnectTimeout(c.opts.ConnectTimeout)
		o.SetServerSelectionTimeout(c.opts.ConnectTimeout)
	}
	if c.opts.MaxPoolSize > 0 {
		o.SetMaxPoolSize(c.opts.MaxPoolSize)
	}
	if c.opts.MinPoolSize > 0 {
		o.SetMinPoolSize(c.opts.MinPoolSize)
	}
	return o
}

// Connect creates the client on first use.
func (c *Connector) Connect(ctx context.Context) error {
	_, err := c.database(ctx)
	return err
}

func (c *Connector) database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	client, err := mongo.Connect(ctx, c.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrConnectionFailed, err)
	}
	c.client = client
	c.db = client.Database(c.opts.Database)
	debug.Debug("connected", "dialect", domain.Mongo, "database", c.opts.Database)
	return c.db, nil
}

// Ping asks the primary.
func (c *Connector) Ping(ctx context.Context) bool {
	db, err := c.database(ctx)
	if err != nil {
		return false
	}
	return db.Client().Ping(ctx, readpref.Primary()) == nil
}

// Transaction is not supported.
func (c *Connector) Transaction(context.Context, func(context.Context) error) error {
	return database.ErrTransactionsUnsupported
}

// Close disconnects the client.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client, c.db = nil, nil
	return err
}

// Query translates desc and runs the resulting command.
func (c *Connector) Query(ctx context.Context, desc *domain.Description) (*domain.Result, error) {
	cmd, err := c.translator.Translate(desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInvalidQuery, err)
	}
	if cmd.Kind == document.KindNoop {
		return &domain.Result{}, nil
	}

	var res *domain.Result
	exec := func(ctx context.Context) error {
		db, err := c.database(ctx)
		if err != nil {
			return err
		}
		start := time.Now()
		res, err = c.run(ctx, db.Collection(cmd.Collection), cmd)
		c.log(ctx, cmd, time.Since(start), err)
		return err
	}

	if c.opts.ReconnectOnTimeout {
		err = runtime.ReconnectOnce(ctx, exec, IsTimeout, c.reconnect)
	} else {
		err = exec(ctx)
	}
	if err != nil {
		if errors.Is(err, runtime.ErrConnectionFailed) {
			return nil, err
		}
		return nil, runtime.NewQueryError(string(cmd.Type), cmd.Collection, err)
	}
	return res, nil
}

// reconnect drops the client so the next command dials a new one.
func (c *Connector) reconnect(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client, c.db = nil, nil
	c.mu.Unlock()

	if client != nil {
		_ = client.Disconnect(ctx)
	}
	debug.Warn("reconnecting after timeout", "dialect", domain.Mongo)
	_, err := c.database(ctx)
	return err
}

func (c *Connector) run(ctx context.Context, coll *mongo.Collection, cmd *document.Command) (*domain.Result, error) {
	filter := cmd.Filter
	if filter == nil {
		filter = bson.D{}
	}

	switch cmd.Kind {
	case document.KindAggregate:
		rows, err := aggregate(ctx, coll, cmd.Pipeline)
		if err != nil {
			return nil, err
		}
		if cmd.Type.IsAggregate() {
			for _, r := range rows {
				if r[document.IDField] == nil {
					delete(r, document.IDField)
				}
			}
		}
		return &domain.Result{Rows: rows}, nil

	case document.KindCount:
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &domain.Result{Rows: []domain.Record{{string(domain.Count): n}}}, nil

	case document.KindInsert:
		out, err := coll.InsertMany(ctx, cmd.Documents)
		if err != nil {
			return nil, err
		}
		rows, err := aggregate(ctx, coll, mongo.Pipeline{
			{{Key: "$match", Value: bson.D{{Key: document.IDField, Value: bson.D{{Key: "$in", Value: out.InsertedIDs}}}}}},
		})
		if err != nil {
			return nil, err
		}
		res := &domain.Result{Rows: rows, AffectedRows: int64(len(out.InsertedIDs))}
		if n := len(out.InsertedIDs); n > 0 {
			res.LastInsertID, res.HasLastInsertID = unwrapID(out.InsertedIDs[n-1]), true
		}
		return res, nil

	case document.KindUpdate:
		out, err := coll.UpdateMany(ctx, filter, cmd.Update)
		if err != nil {
			return nil, err
		}
		return &domain.Result{AffectedRows: out.ModifiedCount}, nil

	case document.KindDelete:
		out, err := coll.DeleteMany(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &domain.Result{AffectedRows: out.DeletedCount}, nil

	case document.KindDrop:
		return &domain.Result{}, coll.Drop(ctx)
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, cmd.Kind)
}

func aggregate(ctx context.Context, coll *mongo.Collection, p mongo.Pipeline) ([]domain.Record, error) {
	cur, err := coll.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	rows := make([]domain.Record, len(docs))
	for i, d := range docs {
		rows[i] = document.UnwrapRecord(d)
	}
	return rows, nil
}

func unwrapID(v any) any {
	if id, ok := v.(primitive.ObjectID); ok {
		return id.Hex()
	}
	return v
}

func (c *Connector) log(ctx context.Context, cmd *document.Command, elapsed time.Duration, err error) {
	query := fmt.Sprintf("%s %s", cmd.Kind, cmd.Collection)
	args := []any{}
	switch {
	case cmd.Pipeline != nil:
		args = append(args, cmd.Pipeline)
	case cmd.Filter != nil:
		args = append(args, cmd.Filter)
	}

	debug.Statement(ctx, string(domain.Mongo), query, args, elapsed, err)
	if c.opts.Logger != nil {
		c.opts.Logger(ctx, database.Entry{Dialect: domain.Mongo, Query: query, Args: args, Elapsed: elapsed, Err: err})
	}
}

// IsTimeout reports driver timeouts. A caller's expired deadline is not one.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return mongo.IsTimeout(err) || runtime.IsTimeout(err)
}
