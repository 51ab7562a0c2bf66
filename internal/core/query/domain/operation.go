package domain

import (
	"github.com/satishbabariya/ormkit/pkg/schema"
)

// Operation is the operation-specific payload of a descriptor. The set of
// implementations is closed.
type Operation interface {
	Type() Type
	clone() Operation
}

// SelectOp reads rows.
type SelectOp struct{}

// InsertOp writes one or more records. Returning lists the fields to read
// back where the backend supports it; empty means every column.
type InsertOp struct {
	Values    []Record
	Returning []string
}

// UpdateOp sets Values on every row matched by the wheres.
type UpdateOp struct {
	Values Record
}

// DeleteOp removes every row matched by the wheres.
type DeleteOp struct{}

// CreateOp creates the table. Strict fails when the table already exists
// instead of skipping.
type CreateOp struct {
	Fields     []schema.Field
	Defaults   Record
	Timestamps bool
	Strict     bool
}

// DropOp drops the table, tolerating a missing table when IfExists is set.
type DropOp struct {
	IfExists bool
}

// AggregateOp computes Func over Field. Field may be empty for Count.
type AggregateOp struct {
	Func  Type
	Field string
}

func (SelectOp) Type() Type      { return Select }
func (InsertOp) Type() Type      { return Insert }
func (UpdateOp) Type() Type      { return Update }
func (DeleteOp) Type() Type      { return Delete }
func (CreateOp) Type() Type      { return Create }
func (DropOp) Type() Type        { return Drop }
func (o AggregateOp) Type() Type { return o.Func }

func (o SelectOp) clone() Operation { return o }
func (o DeleteOp) clone() Operation { return o }
func (o DropOp) clone() Operation   { return o }

func (o AggregateOp) clone() Operation { return o }

func (o InsertOp) clone() Operation {
	values := make([]Record, len(o.Values))
	for i, v := range o.Values {
		values[i] = v.Clone()
	}
	return InsertOp{Values: values, Returning: append([]string(nil), o.Returning...)}
}

func (o UpdateOp) clone() Operation {
	return UpdateOp{Values: o.Values.Clone()}
}

func (o CreateOp) clone() Operation {
	o.Fields = append([]schema.Field(nil), o.Fields...)
	o.Defaults = o.Defaults.Clone()
	return o
}
