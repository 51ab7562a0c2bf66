package sqlgen

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
	"github.com/satishbabariya/ormkit/pkg/schema"
)

func (t *Translator) create(desc *domain.Description, op domain.CreateOp) *Statement {
	var sb strings.Builder

	sb.WriteString("CREATE TABLE ")
	if !op.Strict {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(t.quote(desc.Table))
	sb.WriteString(" (")

	defs := make([]string, 0, len(op.Fields)+2)
	for _, f := range op.Fields {
		def := f.Type.DefaultValue
		hasDef := f.Type.HasDefault
		if v, ok := op.Defaults[f.Name]; ok {
			def, hasDef = v, true
		}
		defs = append(defs, t.columnDefinition(f, def, hasDef))
	}

	if op.Timestamps {
		for _, name := range []string{schema.CreatedAt, schema.UpdatedAt} {
			defs = append(defs, fmt.Sprintf("%s %s NOT NULL DEFAULT CURRENT_TIMESTAMP",
				t.column(name), t.columnType(schema.Timestamp(), "")))
		}
	}

	sb.WriteString(strings.Join(defs, ", "))
	sb.WriteString(")")

	return &Statement{SQL: sb.String(), Type: domain.Create}
}

func (t *Translator) drop(desc *domain.Description, op domain.DropOp) *Statement {
	verb := "DROP TABLE "
	if op.IfExists {
		verb += "IF EXISTS "
	}
	return &Statement{SQL: verb + t.quote(desc.Table), Type: domain.Drop}
}

func (t *Translator) columnDefinition(f schema.Field, def any, hasDef bool) string {
	col := t.quote(f.Column())
	typ := f.Type

	if typ.IsAutoIncrement {
		switch t.dialect {
		case domain.Postgres:
			serial := "SERIAL"
			if typ.Kind == schema.KindBigInteger {
				serial = "BIGSERIAL"
			}
			return col + " " + serial + " PRIMARY KEY"
		case domain.MySQL:
			return col + " " + t.columnType(typ, col) + " NOT NULL AUTO_INCREMENT PRIMARY KEY"
		case domain.SQLite:
			return col + " INTEGER PRIMARY KEY AUTOINCREMENT"
		}
	}

	parts := []string{col, t.columnType(typ, col)}
	if typ.IsNotNull {
		parts = append(parts, "NOT NULL")
	}
	if typ.IsPrimary {
		parts = append(parts, "PRIMARY KEY")
	}
	if typ.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	if hasDef {
		parts = append(parts, "DEFAULT "+t.literal(def))
	}
	if f.Ref != nil {
		parts = append(parts, fmt.Sprintf("REFERENCES %s (%s)", t.quote(f.Ref.Table), t.quote(f.Ref.Field)))
	}
	return strings.Join(parts, " ")
}

// columnType maps a portable type to the dialect's column type. col is the
// quoted column, needed by the CHECK constraint that emulates enums.
func (t *Translator) columnType(typ schema.Type, col string) string {
	switch typ.Kind {
	case schema.KindInteger:
		if t.dialect == domain.MySQL {
			return "INT"
		}
		return "INTEGER"
	case schema.KindBigInteger:
		return "BIGINT"
	case schema.KindDecimal:
		if typ.Precision > 0 {
			return fmt.Sprintf("DECIMAL(%d, %d)", typ.Precision, typ.Scale)
		}
		return "DECIMAL"
	case schema.KindFloat:
		switch t.dialect {
		case domain.Postgres:
			return "DOUBLE PRECISION"
		case domain.MySQL:
			return "DOUBLE"
		}
		return "REAL"
	case schema.KindUUID:
		if t.dialect == domain.Postgres {
			return "UUID"
		}
		return "CHAR(36)"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindBinary:
		if t.dialect == domain.Postgres {
			return "BYTEA"
		}
		return "BLOB"
	case schema.KindEnum:
		values := make([]string, len(typ.Values))
		for i, v := range typ.Values {
			values[i] = t.literal(v)
		}
		if t.dialect == domain.MySQL {
			return "ENUM(" + strings.Join(values, ", ") + ")"
		}
		return fmt.Sprintf("TEXT CHECK (%s IN (%s))", col, strings.Join(values, ", "))
	case schema.KindString:
		length := typ.Length
		if length <= 0 {
			length = schema.DefaultStringLength
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	case schema.KindText:
		return "TEXT"
	case schema.KindDate:
		return "DATE"
	case schema.KindDateTime:
		if t.dialect == domain.Postgres {
			return "TIMESTAMP"
		}
		return "DATETIME"
	case schema.KindTime:
		return "TIME"
	case schema.KindTimestamp:
		if t.dialect == domain.Postgres {
			return "TIMESTAMPTZ"
		}
		return "TIMESTAMP"
	case schema.KindJSON:
		if t.dialect == domain.SQLite {
			return "TEXT"
		}
		return "JSON"
	case schema.KindJSONB:
		switch t.dialect {
		case domain.Postgres:
			return "JSONB"
		case domain.MySQL:
			return "JSON"
		}
		return "TEXT"
	}
	return "TEXT"
}

// literal renders a default value inline. DDL cannot take bind parameters.
func (t *Translator) literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if t.dialect == domain.SQLite {
			if x {
				return "1"
			}
			return "0"
		}
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32, int16, int8, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return "'" + x.UTC().Format("2006-01-02 15:04:05") + "'"
	}

	data, err := json.Marshal(v)
	if err != nil {
		return t.literal(fmt.Sprint(v))
	}
	return t.literal(string(data))
}
