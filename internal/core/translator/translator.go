// Package translator defines what every dialect translator provides.
package translator

import "github.com/satishbabariya/ormkit/internal/core/query/domain"

// Translator turns descriptors into commands for one dialect. Translators
// hold no per-query state and are safe for concurrent use.
type Translator interface {
	// Dialect returns the dialect the translator renders for.
	Dialect() domain.Dialect

	// FormatFieldNameToDatabase converts a client field name to storage case.
	FormatFieldNameToDatabase(name string) string

	// FormatFieldNameToClient converts a storage column name to client case.
	FormatFieldNameToClient(name string) string
}
