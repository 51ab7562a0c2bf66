package dsl

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Statement is one parsed statement. Exactly one branch is set.
type Statement struct {
	Pos lexer.Position

	Select    *Select    `(  @@`
	Aggregate *Aggregate ` | @@`
	Insert    *Insert    ` | @@`
	Update    *Update    ` | @@`
	Delete    *Delete    ` | @@`
	Drop      *Drop      ` | @@ ) ";"?`
}

type Select struct {
	Star    bool         `"select" ( @"*"`
	Fields  []*Selection `         | @@ ( "," @@ )* )`
	Table   string       `"from" @Ident`
	Joins   []*Join      `@@*`
	Where   *Where       `@@?`
	GroupBy []string     `( "group" "by" @Ident ( "," @Ident )* )?`
	OrderBy []*Order     `( "order" "by" @@ ( "," @@ )* )?`
	Limit   *uint64      `( "limit" @Number )?`
	Offset  *uint64      `( "offset" @Number )?`
}

type Selection struct {
	Field *Ref   `@@`
	Alias string `( "as" @Ident )?`
}

// Ref is a field, optionally qualified by its table.
type Ref struct {
	Table string `( @Ident "." )?`
	Field string `@Ident`
}

func (r *Ref) String() string {
	if r.Table == "" {
		return r.Field
	}
	return r.Table + "." + r.Field
}

type Join struct {
	Table  string `"join" @Ident`
	Origin *Ref   `"on" @@`
	Target *Ref   `"=" @@`
}

type Where struct {
	And []*Condition `"where" @@ ( "and" @@ )*`
	Or  []*Condition `( "or" @@ )*`
}

type Condition struct {
	Field *Ref      `@@`
	In    []*Value  `( "in" "(" @@ ( "," @@ )* ")"`
	Null  *NullTest ` | "is" @@`
	Op    string    ` | @Operator`
	Value *Value    `   @@ )`
}

type NullTest struct {
	Not bool `@"not"? "null"`
}

type Order struct {
	Field *Ref   `@@`
	Dir   string `@( "asc" | "desc" )?`
}

type Aggregate struct {
	Func    string   `@( "count" | "min" | "max" | "sum" | "avg" )`
	Field   *Ref     `( "(" ( "*" | @@ ) ")" | @@ )?`
	Table   string   `"from" @Ident`
	Where   *Where   `@@?`
	GroupBy []string `( "group" "by" @Ident ( "," @Ident )* )?`
}

type Insert struct {
	Table   string        `"insert" "into" @Ident`
	Set     []*Assignment `( "set" @@ ( "," @@ )*`
	Columns []string      ` | "(" @Ident ( "," @Ident )* ")"`
	Rows    []*Row        `   "values" @@ ( "," @@ )* )`
}

type Row struct {
	Values []*Value `"(" @@ ( "," @@ )* ")"`
}

type Update struct {
	Table string        `"update" @Ident`
	Set   []*Assignment `"set" @@ ( "," @@ )*`
	Where *Where        `@@?`
}

type Delete struct {
	Table string `"delete" "from" @Ident`
	Where *Where `@@?`
}

type Drop struct {
	IfExists bool   `"drop" "table" @( "if" "exists" )?`
	Table    string `@Ident`
}

type Assignment struct {
	Field string `@Ident "="`
	Value *Value `@@`
}

// Value is a literal.
type Value struct {
	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "true" | "false" )`
	Null   bool    `| @"null"`
}

// Go returns the literal as a Go value: string, int64, float64, bool or nil.
func (v *Value) Go() any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		if n, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Bool != nil:
		return strings.EqualFold(*v.Bool, "true")
	}
	return nil
}
