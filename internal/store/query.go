package store

import "strings"

type Op string

const (
	OpEq Op = "eq"
	OpIn Op = "in"
)

// Filter is a single predicate. Filters on a Query are ANDed together.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In matches rows whose column is a member of values.
func In(column string, values any) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Pattern is a case-insensitive substring match ORed across Columns. The
// Term is treated literally; pattern metacharacters in it are escaped
// before the LIKE pattern is built.
type Pattern struct {
	Columns []string
	Term    string
}

type Order struct {
	Column string
	Desc   bool
}

// Range is an inclusive row range, [From, To]. From is zero-based.
type Range struct {
	From int
	To   int
}

// Query is the specification consumed by Client.Select and Client.Count.
// It is a plain value: build it anywhere, execute it once.
type Query struct {
	Table   string
	Columns []string // empty means all columns
	Filters []Filter
	Pattern *Pattern
	Orders  []Order
	Range   *Range
	Limit   int // 0 means no limit
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapePattern neutralizes LIKE metacharacters in user input so a search
// term can never widen the match.
func EscapePattern(term string) string {
	return patternEscaper.Replace(term)
}
