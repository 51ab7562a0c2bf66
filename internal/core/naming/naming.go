// Package naming converts field names between the client (camelCase) and
// storage (snake_case) conventions.
package naming

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// ToDatabase converts a client field name to its storage form.
//
// Wildcards, placeholders and names starting with an underscore are returned
// untouched. For a qualified "table.field" reference only the part after the
// first period is converted.
func ToDatabase(name string) string {
	return convert(name, strcase.ToSnake)
}

// ToClient converts a storage column name to its client form.
func ToClient(name string) string {
	return convert(name, strcase.ToLowerCamel)
}

func convert(name string, fn func(string) string) string {
	if verbatim(name) {
		return name
	}

	if table, field, ok := strings.Cut(name, "."); ok {
		if verbatim(field) {
			return name
		}
		return table + "." + fn(field)
	}

	return fn(name)
}

func verbatim(name string) bool {
	switch {
	case name == "", name == "*", name == "?":
		return true
	case strings.HasPrefix(name, "_"):
		return true
	case strings.HasPrefix(name, "$"):
		return true
	}
	return false
}
