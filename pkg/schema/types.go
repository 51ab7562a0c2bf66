// Package schema describes models: their portable field types, modifiers,
// relationships and the registry the database layer resolves them from.
package schema

// Kind is a portable field type.
type Kind string

const (
	KindInteger    Kind = "integer"
	KindBigInteger Kind = "bigInteger"
	KindDecimal    Kind = "decimal"
	KindFloat      Kind = "float"
	KindUUID       Kind = "uuid"
	KindBoolean    Kind = "boolean"
	KindBinary     Kind = "binary"
	KindEnum       Kind = "enum"
	KindString     Kind = "string"
	KindText       Kind = "text"
	KindDate       Kind = "date"
	KindDateTime   Kind = "datetime"
	KindTime       Kind = "time"
	KindTimestamp  Kind = "timestamp"
	KindJSON       Kind = "json"
	KindJSONB      Kind = "jsonb"
)

// DefaultStringLength is used by String when no positive length is given.
const DefaultStringLength = 255

// Type is a field type together with its modifiers. Modifier methods return
// a modified copy so types can be declared inline:
//
//	schema.Integer().Primary().AutoIncrement()
type Type struct {
	Kind      Kind
	Length    int
	Precision int
	Scale     int
	Values    []string

	IsPrimary       bool
	IsUnique        bool
	IsAutoIncrement bool
	IsNotNull       bool

	DefaultValue any
	HasDefault   bool
}

func Integer() Type    { return Type{Kind: KindInteger} }
func BigInteger() Type { return Type{Kind: KindBigInteger} }
func Float() Type      { return Type{Kind: KindFloat} }
func UUID() Type       { return Type{Kind: KindUUID} }
func Boolean() Type    { return Type{Kind: KindBoolean} }
func Binary() Type     { return Type{Kind: KindBinary} }
func Text() Type       { return Type{Kind: KindText} }
func Date() Type       { return Type{Kind: KindDate} }
func DateTime() Type   { return Type{Kind: KindDateTime} }
func Time() Type       { return Type{Kind: KindTime} }
func Timestamp() Type  { return Type{Kind: KindTimestamp} }
func JSON() Type       { return Type{Kind: KindJSON} }
func JSONB() Type      { return Type{Kind: KindJSONB} }

// Decimal returns a fixed-point type.
func Decimal(precision, scale int) Type {
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}
}

// Enum returns a type restricted to values.
func Enum(values ...string) Type {
	return Type{Kind: KindEnum, Values: append([]string(nil), values...)}
}

// String returns a variable length string type. A non-positive length falls
// back to DefaultStringLength.
func String(length int) Type {
	if length <= 0 {
		length = DefaultStringLength
	}
	return Type{Kind: KindString, Length: length}
}

// Primary marks the field as the primary key. Primary keys are never null.
func (t Type) Primary() Type {
	t.IsPrimary = true
	t.IsNotNull = true
	return t
}

func (t Type) Unique() Type {
	t.IsUnique = true
	return t
}

// AutoIncrement implies Primary.
func (t Type) AutoIncrement() Type {
	t.IsAutoIncrement = true
	return t.Primary()
}

func (t Type) Nullable() Type {
	t.IsNotNull = false
	return t
}

func (t Type) NotNullable() Type {
	t.IsNotNull = true
	return t
}

// Default sets the value used when a record omits the field.
func (t Type) Default(v any) Type {
	t.DefaultValue = v
	t.HasDefault = true
	return t
}

// clone deep-copies slice members so Types can be shared between models.
func (t Type) clone() Type {
	t.Values = append([]string(nil), t.Values...)
	return t
}
