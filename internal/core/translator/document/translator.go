// Package document maps query descriptors onto MongoDB commands and
// aggregation pipelines.
package document

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/internal/core/translator"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

// IDField is the document identity field.
const IDField = "_id"

// Kind selects the collection method a command runs with.
type Kind string

const (
	KindAggregate Kind = "aggregate"
	KindCount     Kind = "count"
	KindInsert    Kind = "insertMany"
	KindUpdate    Kind = "updateMany"
	KindDelete    Kind = "deleteMany"
	KindDrop      Kind = "drop"
	KindNoop      Kind = "noop"
)

// Command is a translated descriptor.
type Command struct {
	Kind       Kind
	Type       domain.Type
	Collection string
	Filter     bson.D
	Pipeline   mongo.Pipeline
	Documents  []any
	Update     bson.D
}

// Translator builds commands. Field names pass through unchanged.
type Translator struct {
	now func() time.Time
}

var _ translator.Translator = (*Translator)(nil)

// Option configures a Translator.
type Option func(*Translator)

// WithClock sets the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(t *Translator) {
		t.now = now
	}
}

// New creates a document translator.
func New(opts ...Option) *Translator {
	t := &Translator{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Translator) Dialect() domain.Dialect                    { return domain.Mongo }
func (t *Translator) FormatFieldNameToDatabase(name string) string { return name }
func (t *Translator) FormatFieldNameToClient(name string) string   { return name }

// Translate builds the command for desc.
func (t *Translator) Translate(desc *domain.Description) (*Command, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	cmd := &Command{Type: desc.Type(), Collection: desc.Table}

	switch op := desc.Op.(type) {
	case domain.SelectOp:
		cmd.Kind = KindAggregate
		cmd.Pipeline = t.selectPipeline(desc)
	case domain.AggregateOp:
		if op.Func == domain.Count {
			cmd.Kind = KindCount
			cmd.Filter = t.filter(desc)
			return cmd, nil
		}
		cmd.Kind = KindAggregate
		cmd.Pipeline = t.aggregatePipeline(desc, op)
	case domain.InsertOp:
		cmd.Kind = KindInsert
		cmd.Documents = t.documents(desc, op)
	case domain.UpdateOp:
		cmd.Kind = KindUpdate
		cmd.Filter = t.filter(desc)
		cmd.Update = bson.D{{Key: "$set", Value: sortedDoc(op.Values)}}
	case domain.DeleteOp:
		cmd.Kind = KindDelete
		cmd.Filter = t.filter(desc)
	case domain.DropOp:
		cmd.Kind = KindDrop
	case domain.CreateOp:
		cmd.Kind = KindNoop
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownOperation, desc.Op)
	}

	return cmd, nil
}

var operators = map[domain.Operator]string{
	domain.Eq:  "$eq",
	domain.Gt:  "$gt",
	domain.Gte: "$gte",
	domain.Lt:  "$lt",
	domain.Lte: "$lte",
}

// filter collapses whereIn, wheres and null checks into one match document.
// Or-wheres turn it into an $or whose first branch is the conjunctive group.
func (t *Translator) filter(desc *domain.Description) bson.D {
	conj := bson.D{}

	if in := desc.WhereIn; in != nil {
		values := make(bson.A, len(in.Values))
		for i, v := range in.Values {
			values[i] = wrapValue(in.Field, v)
		}
		conj = append(conj, bson.E{Key: in.Field, Value: bson.D{{Key: "$in", Value: values}}})
	}
	for _, w := range desc.Wheres {
		conj = append(conj, condition(w))
	}
	for _, f := range desc.WhereNull {
		conj = append(conj, bson.E{Key: f, Value: bson.D{{Key: "$eq", Value: nil}}})
	}
	for _, f := range desc.WhereNotNull {
		conj = append(conj, bson.E{Key: f, Value: bson.D{{Key: "$ne", Value: nil}}})
	}

	if len(desc.OrWheres) == 0 {
		return andGroup(conj)
	}

	branches := bson.A{}
	if len(conj) > 0 {
		branches = append(branches, andGroup(conj))
	}
	for _, w := range desc.OrWheres {
		branches = append(branches, bson.D{condition(w)})
	}
	return bson.D{{Key: "$or", Value: branches}}
}

// andGroup keeps repeated keys apart, which a single document cannot do.
func andGroup(conj bson.D) bson.D {
	seen := map[string]bool{}
	for _, e := range conj {
		if seen[e.Key] {
			parts := bson.A{}
			for _, e := range conj {
				parts = append(parts, bson.D{e})
			}
			return bson.D{{Key: "$and", Value: parts}}
		}
		seen[e.Key] = true
	}
	return conj
}

func condition(w domain.Condition) bson.E {
	op, ok := operators[w.Operator]
	if !ok {
		op = "$eq"
	}
	return bson.E{Key: w.Field, Value: bson.D{{Key: op, Value: wrapValue(w.Field, w.Value)}}}
}

func (t *Translator) selectPipeline(desc *domain.Description) mongo.Pipeline {
	p := mongo.Pipeline{}

	if f := t.filter(desc); len(f) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: f}})
	}

	// Only the first join is honored.
	if len(desc.Joins) > 0 {
		j := desc.Joins[0]
		p = append(p, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: j.Table},
			{Key: "localField", Value: j.OriginField},
			{Key: "foreignField", Value: IDField},
			{Key: "as", Value: j.TargetField},
		}}})
	}

	if len(desc.Select) > 0 {
		project := bson.D{}
		for _, s := range desc.Select {
			if s.Alias != "" {
				project = append(project, bson.E{Key: s.Alias, Value: "$" + s.Field})
				continue
			}
			project = append(project, bson.E{Key: s.Field, Value: 1})
		}
		p = append(p, bson.D{{Key: "$project", Value: project}})
	}

	if len(desc.OrderBy) > 0 {
		order := bson.D{}
		for _, o := range desc.OrderBy {
			dir := 1
			if o.Direction == domain.Desc {
				dir = -1
			}
			order = append(order, bson.E{Key: o.Field, Value: dir})
		}
		p = append(p, bson.D{{Key: "$sort", Value: order}})
	}

	if len(desc.GroupBy) > 0 {
		p = append(p, bson.D{{Key: "$group", Value: bson.D{{Key: IDField, Value: groupKey(desc.GroupBy)}}}})
	}

	return append(p, pagination(desc)...)
}

func (t *Translator) aggregatePipeline(desc *domain.Description, op domain.AggregateOp) mongo.Pipeline {
	p := mongo.Pipeline{}

	if f := t.filter(desc); len(f) > 0 {
		p = append(p, bson.D{{Key: "$match", Value: f}})
	}
	p = append(p, pagination(desc)...)

	var key any
	if len(desc.GroupBy) > 0 {
		key = groupKey(desc.GroupBy)
	}
	name := string(op.Func)
	return append(p, bson.D{{Key: "$group", Value: bson.D{
		{Key: IDField, Value: key},
		{Key: name, Value: bson.D{{Key: "$" + name, Value: "$" + op.Field}}},
	}}})
}

func groupKey(fields []string) any {
	if len(fields) == 1 {
		return "$" + fields[0]
	}
	key := bson.D{}
	for _, f := range fields {
		key = append(key, bson.E{Key: f, Value: "$" + f})
	}
	return key
}

func pagination(desc *domain.Description) []bson.D {
	var stages []bson.D
	if desc.Offset != nil {
		stages = append(stages, bson.D{{Key: "$skip", Value: int64(*desc.Offset)}})
	}
	if desc.Limit != nil {
		stages = append(stages, bson.D{{Key: "$limit", Value: int64(*desc.Limit)}})
	}
	return stages
}

// documents merges schema defaults, the record and, on timestamped models,
// creation instants. Record values win over defaults.
func (t *Translator) documents(desc *domain.Description, op domain.InsertOp) []any {
	var (
		defaults   map[string]any
		timestamps bool
	)
	if m := desc.Schema; m != nil {
		defaults = m.Defaults
		timestamps = m.Timestamps
	}

	now := primitive.NewDateTimeFromTime(t.now())

	docs := make([]any, len(op.Values))
	for i, rec := range op.Values {
		merged := domain.Record{}
		for k, v := range defaults {
			merged[k] = v
		}
		for k, v := range rec {
			merged[k] = wrapValue(k, v)
		}
		if timestamps {
			merged[schema.CreatedAt] = now
			merged[schema.UpdatedAt] = now
		}
		docs[i] = sortedDoc(merged)
	}
	return docs
}

// WrapID converts a hex string into an ObjectID. Other values, and strings
// that are not valid ids, are returned unchanged.
func WrapID(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return v
	}
	return id
}

func wrapValue(field string, v any) any {
	if field != IDField {
		return v
	}

	rv := reflect.ValueOf(v)
	if v != nil && rv.Kind() == reflect.Slice {
		if _, isBytes := v.([]byte); !isBytes {
			out := make(bson.A, rv.Len())
			for i := range out {
				out[i] = WrapID(rv.Index(i).Interface())
			}
			return out
		}
	}
	return WrapID(v)
}

func sortedDoc(r domain.Record) bson.D {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: r[k]})
	}
	return doc
}
