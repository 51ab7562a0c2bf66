// Package dsl parses the small statement language of the ormkit shell and
// translate commands into query descriptions.
//
//	select title, viewCount from articles where viewCount > 10 order by title limit 5
//	count from articles where title = 'hola mundo!'
//	insert into articles set title = 'hola', viewCount = 0
//	update articles set title = 'adios' where id = 1
//	delete from articles where id in (1, 2)
//	drop table if exists articles
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/ormkit/internal/runtime"
)

var parser = participle.MustBuild[Statement](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.Map(unquote, "String"),
	participle.UseLookahead(4),
)

func unquote(tok lexer.Token) (lexer.Token, error) {
	v := tok.Value
	if strings.HasPrefix(v, "'") {
		tok.Value = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
		return tok, nil
	}
	s, err := strconv.Unquote(v)
	if err != nil {
		return tok, fmt.Errorf("%s: invalid string %s", tok.Pos, v)
	}
	tok.Value = s
	return tok, nil
}

// Parse parses one statement. A trailing semicolon is allowed.
func Parse(input string) (*Statement, error) {
	stmt, err := parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", runtime.ErrInvalidQuery, err)
	}
	return stmt, nil
}

// Grammar returns the EBNF of the language.
func Grammar() string {
	return parser.String()
}
