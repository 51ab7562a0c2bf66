package document

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
)

// UnwrapRecord converts driver-native values in a result document into plain
// Go values: ObjectIDs become hex strings and DateTimes become time.Time.
// Nested documents and arrays are converted recursively.
func UnwrapRecord(doc bson.M) domain.Record {
	rec := make(domain.Record, len(doc))
	for k, v := range doc {
		rec[k] = unwrap(v)
	}
	return rec
}

func unwrap(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time()
	case primitive.Timestamp:
		return int64(x.T)
	case primitive.Decimal128:
		return x.String()
	case bson.M:
		return map[string]any(UnwrapRecord(x))
	case bson.D:
		return map[string]any(UnwrapRecord(x.Map()))
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = unwrap(e)
		}
		return out
	}
	return v
}
