package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

var keywords = []string{
	"select", "from", "where", "and", "or", "order", "group", "by", "asc", "desc",
	"limit", "offset", "join", "on", "as", "in", "is", "not", "null", "true", "false",
	"count", "min", "max", "sum", "avg",
	"insert", "into", "values", "set", "update", "delete", "drop", "table", "if", "exists",
}

// Lexer tokenizes statements. Keywords match case-insensitively and cannot be
// used as bare identifiers.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(?:` + strings.Join(keywords, "|") + `)\b`},
	{Name: "String", Pattern: `'(?:''|[^'])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Operator", Pattern: `>=|<=|=|>|<`},
	{Name: "Punct", Pattern: `[(),.*;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})
