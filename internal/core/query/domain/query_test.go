package domain_test

import (
	"testing"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    domain.Description
		wantErr error
	}{
		{
			name:    "select needs nothing else",
			desc:    domain.Description{Table: "users", Op: domain.SelectOp{}},
			wantErr: nil,
		},
		{
			name:    "missing table",
			desc:    domain.Description{Op: domain.SelectOp{}},
			wantErr: domain.ErrMissingRequiredField,
		},
		{
			name:    "insert without values",
			desc:    domain.Description{Table: "users", Op: domain.InsertOp{}},
			wantErr: domain.ErrMissingRequiredField,
		},
		{
			name:    "insert with an empty record",
			desc:    domain.Description{Table: "users", Op: domain.InsertOp{Values: []domain.Record{{}}}},
			wantErr: domain.ErrMissingRequiredField,
		},
		{
			name:    "update without values",
			desc:    domain.Description{Table: "users", Op: domain.UpdateOp{}},
			wantErr: domain.ErrMissingRequiredField,
		},
		{
			name:    "create without fields",
			desc:    domain.Description{Table: "users", Op: domain.CreateOp{}},
			wantErr: domain.ErrMissingRequiredField,
		},
		{
			name:    "count defaults to wildcard",
			desc:    domain.Description{Table: "users", Op: domain.AggregateOp{Func: domain.Count}},
			wantErr: nil,
		},
		{
			name:    "sum needs a field",
			desc:    domain.Description{Table: "users", Op: domain.AggregateOp{Func: domain.Sum}},
			wantErr: domain.ErrMissingRequiredField,
		},
		{
			name:    "aggregate with a non aggregate func",
			desc:    domain.Description{Table: "users", Op: domain.AggregateOp{Func: domain.Insert, Field: "x"}},
			wantErr: domain.ErrUnknownOperation,
		},
		{
			name:    "nil operation",
			desc:    domain.Description{Table: "users"},
			wantErr: domain.ErrUnknownOperation,
		},
		{
			name: "unsupported operator",
			desc: domain.Description{
				Table:  "users",
				Op:     domain.SelectOp{},
				Wheres: []domain.Condition{{Field: "name", Operator: "LIKE", Value: "a%"}},
			},
			wantErr: domain.ErrUnsupportedOperator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMissingFieldErrorMessage(t *testing.T) {
	err := (&domain.Description{Table: "users", Op: domain.InsertOp{}}).Validate()

	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "values", missing.Field)
	assert.Contains(t, err.Error(), "insert requires values")
}

func TestClone(t *testing.T) {
	limit := uint64(5)
	orig := &domain.Description{
		Table:   "users",
		Op:      domain.InsertOp{Values: []domain.Record{{"name": "a"}}},
		Wheres:  []domain.Condition{{Field: "id", Operator: domain.Eq, Value: 1}},
		WhereIn: &domain.InClause{Field: "id", Values: []any{1, 2}},
		Limit:   &limit,
		Stored:  map[string]bool{"fullName": true},
	}

	cp := orig.Clone()
	cp.Stored["other"] = true
	cp.Wheres[0].Value = 2
	cp.WhereIn.Values[0] = 9
	*cp.Limit = 10
	cp.Op.(domain.InsertOp).Values[0]["name"] = "b"

	assert.Equal(t, 1, orig.Wheres[0].Value)
	assert.Equal(t, 1, orig.WhereIn.Values[0])
	assert.Equal(t, uint64(5), *orig.Limit)
	assert.Equal(t, "a", orig.Op.(domain.InsertOp).Values[0]["name"])
	assert.Equal(t, map[string]bool{"fullName": true}, orig.Stored)
}

func TestTypeAndResult(t *testing.T) {
	d := domain.Description{Table: "users", Op: domain.AggregateOp{Func: domain.Max, Field: "age"}}
	assert.Equal(t, domain.Max, d.Type())
	assert.True(t, d.Type().IsAggregate())
	assert.False(t, domain.Delete.IsAggregate())

	create := domain.Description{Table: "users", Op: domain.CreateOp{Fields: []schema.Field{schema.NewField("id", schema.Integer())}}}
	assert.NoError(t, create.Validate())

	res := &domain.Result{Rows: []domain.Record{{"count": []byte("2")}}}
	n, err := res.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, ok := (&domain.Result{}).Scalar("count")
	assert.False(t, ok)
}
