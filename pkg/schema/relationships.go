package schema

import (
	"fmt"
	"strings"
)

// RelationOptions overrides the generated field names.
type RelationOptions struct {
	PrimaryKey string
	ForeignKey string
}

func relationField(owner *Model) string {
	return strings.ToLower(owner.Name) + "Id"
}

func belongsToField(name string, target *Model) Field {
	ref := "id"
	if pk, ok := target.PrimaryKey(); ok {
		ref = pk.Column()
	}
	return NewField(name, Integer()).References(target.Table, ref)
}

// BelongsTo adds a field to a referencing b's primary key. The field is
// named <b>Id unless opts.ForeignKey is set.
func BelongsTo(a, b *Model, opts ...RelationOptions) error {
	var o RelationOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	name := o.ForeignKey
	if name == "" {
		name = relationField(b)
	}
	return a.addField(belongsToField(name, b))
}

// OneToOne adds a reference field to both models.
func OneToOne(a, b *Model, opts ...RelationOptions) error {
	var o RelationOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	aField := o.PrimaryKey
	if aField == "" {
		aField = relationField(b)
	}
	bField := o.ForeignKey
	if bField == "" {
		bField = relationField(a)
	}

	if err := a.addField(belongsToField(aField, b)); err != nil {
		return err
	}
	return b.addField(belongsToField(bField, a))
}

// ManyToMany returns the pivot model joining a and b. Both models remember
// the pivot under the other model's name.
func ManyToMany(a, b *Model, opts ...RelationOptions) (*Model, error) {
	var o RelationOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	aField := o.PrimaryKey
	if aField == "" {
		aField = relationField(a)
	}
	bField := o.ForeignKey
	if bField == "" {
		bField = relationField(b)
	}
	if aField == bField {
		return nil, fmt.Errorf("%w: pivot %s_%s needs distinct key names", ErrDuplicateField, a.Table, b.Table)
	}

	table := a.Table + "_" + b.Table
	pivot, err := Define(table, []Field{
		NewField("id", Integer().AutoIncrement()),
		belongsToField(aField, a),
		belongsToField(bField, b),
	}, Table(table))
	if err != nil {
		return nil, err
	}

	a.pivots[b.Name] = pivot
	b.pivots[a.Name] = pivot
	return pivot, nil
}
