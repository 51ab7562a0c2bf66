package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/satishbabariya/ormkit/internal/core/naming"
)

var (
	// ErrMultiplePrimaryKeys is returned when a model marks more than one
	// field as primary key.
	ErrMultiplePrimaryKeys = errors.New("schema: more than one primary key")

	// ErrDuplicateField is returned when two fields share a client name.
	ErrDuplicateField = errors.New("schema: duplicate field")

	// ErrUnknownField is returned when a name is not a field of the model.
	ErrUnknownField = errors.New("schema: unknown field")
)

// Timestamp field names added to models defined WithTimestamps.
const (
	CreatedAt = "createdAt"
	UpdatedAt = "updatedAt"
)

// Reference points a field at the primary key of another table.
type Reference struct {
	Table string
	Field string
}

// Field is a named model column.
type Field struct {
	Name       string
	Type       Type
	ColumnName string
	Ref        *Reference
}

// NewField returns a field named name.
func NewField(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// As overrides the storage column name.
func (f Field) As(column string) Field {
	f.ColumnName = column
	return f
}

// References makes the field refer to table.field.
func (f Field) References(table, field string) Field {
	f.Ref = &Reference{Table: table, Field: field}
	return f
}

// Column returns the storage column name.
func (f Field) Column() string {
	if f.ColumnName != "" {
		return f.ColumnName
	}
	return naming.ToDatabase(f.Name)
}

// Model is a table schema.
type Model struct {
	Name       string
	Table      string
	Timestamps bool
	Defaults   map[string]any

	fields []Field
	index  map[string]int
	pivots map[string]*Model
}

// Option configures a Model.
type Option func(*Model)

// Table overrides the default snake_case table name.
func Table(name string) Option {
	return func(m *Model) {
		m.Table = name
	}
}

// WithTimestamps adds createdAt and updatedAt columns.
func WithTimestamps() Option {
	return func(m *Model) {
		m.Timestamps = true
	}
}

// WithDefaults sets values merged into every created record.
func WithDefaults(defaults map[string]any) Option {
	return func(m *Model) {
		for k, v := range defaults {
			m.Defaults[k] = v
		}
	}
}

// Define builds a model. Field order is preserved.
func Define(name string, fields []Field, opts ...Option) (*Model, error) {
	m := &Model{
		Name:     name,
		Table:    naming.ToDatabase(name),
		Defaults: map[string]any{},
		index:    map[string]int{},
		pivots:   map[string]*Model{},
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, f := range fields {
		if err := m.addField(f); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(name string, fields []Field, opts ...Option) *Model {
	m, err := Define(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) addField(f Field) error {
	if _, ok := m.index[f.Name]; ok {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, m.Name, f.Name)
	}
	if f.Type.IsPrimary {
		if pk, ok := m.PrimaryKey(); ok {
			return fmt.Errorf("%w: %s has %s and %s", ErrMultiplePrimaryKeys, m.Name, pk.Name, f.Name)
		}
	}

	f.Type = f.Type.clone()
	m.index[f.Name] = len(m.fields)
	m.fields = append(m.fields, f)
	return nil
}

// Fields returns a copy of the model's fields in declaration order.
func (m *Model) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field looks up a field by client name.
func (m *Model) Field(name string) (Field, bool) {
	i, ok := m.index[name]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}

// HasField reports whether name is a field or, on timestamped models, one of
// the timestamp fields.
func (m *Model) HasField(name string) bool {
	if _, ok := m.index[name]; ok {
		return true
	}
	return m.Timestamps && (name == CreatedAt || name == UpdatedAt)
}

// PrimaryKey returns the primary key field, if any.
func (m *Model) PrimaryKey() (Field, bool) {
	for _, f := range m.fields {
		if f.Type.IsPrimary {
			return f, true
		}
	}
	return Field{}, false
}

// Column maps a client field name to its storage column. Unknown names are
// converted with the default naming convention.
func (m *Model) Column(name string) string {
	if f, ok := m.Field(name); ok {
		return f.Column()
	}
	return naming.ToDatabase(name)
}

// Qualified returns the field reference prefixed with the model's table.
func (m *Model) Qualified(name string) string {
	return m.Table + "." + name
}

// ClientNames maps overridden storage columns, as returned by a backend, back
// to field names. toClient converts a column the way the backend reports it;
// nil means the default camelCase convention.
func (m *Model) ClientNames(toClient func(string) string) map[string]string {
	if toClient == nil {
		toClient = naming.ToClient
	}
	out := map[string]string{}
	for _, f := range m.fields {
		if f.ColumnName != "" {
			out[toClient(f.ColumnName)] = f.Name
		}
	}
	return out
}

// Pivot returns the many-to-many pivot model linking m to the named model.
func (m *Model) Pivot(name string) (*Model, bool) {
	p, ok := m.pivots[name]
	return p, ok
}

// Pivots returns the pivot models created by ManyToMany, ordered by table.
func (m *Model) Pivots() []*Model {
	out := make([]*Model, 0, len(m.pivots))
	for _, p := range m.pivots {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// dependencies lists the tables m references.
func (m *Model) dependencies() []string {
	var deps []string
	for _, f := range m.fields {
		if f.Ref != nil && f.Ref.Table != m.Table {
			deps = append(deps, f.Ref.Table)
		}
	}
	return deps
}
