package sqlconn

import (
	"database/sql"
	"strings"

	"github.com/satishbabariya/ormkit/internal/core/query/domain"
)

var binaryTypes = map[string]bool{
	"BLOB":       true,
	"BYTEA":      true,
	"BINARY":     true,
	"VARBINARY":  true,
	"TINYBLOB":   true,
	"MEDIUMBLOB": true,
	"LONGBLOB":   true,
}

// scan reads every row into records keyed by client-cased column names.
// Byte slices become strings unless the column is binary.
func (c *Connector) scan(rows *sql.Rows) ([]domain.Record, error) {
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(types))
	binary := make([]bool, len(types))
	for i, ct := range types {
		keys[i] = c.opts.Translator.FormatFieldNameToClient(ct.Name())
		binary[i] = binaryTypes[strings.ToUpper(ct.DatabaseTypeName())]
	}

	records := []domain.Record{}
	for rows.Next() {
		values := make([]any, len(keys))
		ptrs := make([]any, len(keys))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(domain.Record, len(keys))
		for i, k := range keys {
			v := values[i]
			if b, ok := v.([]byte); ok {
				if binary[i] {
					v = append([]byte(nil), b...)
				} else {
					v = string(b)
				}
			}
			rec[k] = v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
