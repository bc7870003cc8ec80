// Package sparql assembles SPARQL query strings with a fluent builder and
// sends them to SPARQL HTTP endpoints.
package sparql

import (
	"strconv"
	"strings"
)

// QueryBuilder accumulates SPARQL fragments through chained calls and
// serializes them with Build.
//
// Tokens are written verbatim. Callers are responsible for supplying
// well-formed IRIs, variables and literals.
type QueryBuilder struct {
	prefixes  []string
	distinct  bool
	variables []string
	froms     []string
	wheres    []string
	groups    []string
	orders    []string

	limit     int
	hasLimit  bool
	offset    int
	hasOffset bool

	selectGraph string
	insertGraph string
	deleteGraph string
	deleteCond  string

	// union branches are referenced, not copied
	unions []*QueryBuilder
}

// New returns an empty QueryBuilder. Built as-is it yields "SELECT * WHERE".
func New() *QueryBuilder {
	return &QueryBuilder{}
}

// AddPrefix declares a namespace prefix.
func (q *QueryBuilder) AddPrefix(alias, uri string) *QueryBuilder {
	q.prefixes = append(q.prefixes, "PREFIX "+alias+": <"+uri+">")
	return q
}

func (q *QueryBuilder) SetDistinct(distinct bool) *QueryBuilder {
	q.distinct = distinct
	return q
}

// SelectGraph restricts the WHERE block of the query to a named graph.
func (q *QueryBuilder) SelectGraph(graph string) *QueryBuilder {
	q.selectGraph = graph
	return q
}

// InsertIntoGraph switches the query to INSERT mode targeting graph.
// INSERT takes precedence over DELETE when both are set.
func (q *QueryBuilder) InsertIntoGraph(graph string) *QueryBuilder {
	q.insertGraph = graph
	return q
}

// DeleteFromGraph switches the query to DELETE mode. The condition is
// rendered verbatim as the body of the DELETE clause.
func (q *QueryBuilder) DeleteFromGraph(graph, condition string) *QueryBuilder {
	q.deleteGraph = graph
	q.deleteCond = condition
	return q
}

// AddVariable appends a projected variable, e.g. "?x".
func (q *QueryBuilder) AddVariable(name string) *QueryBuilder {
	q.variables = append(q.variables, name)
	return q
}

// AddFrom appends a FROM dataset clause to a SELECT query.
func (q *QueryBuilder) AddFrom(graph string) *QueryBuilder {
	q.froms = append(q.froms, graph)
	return q
}

// AddWhere appends the triple pattern "subject predicate object".
func (q *QueryBuilder) AddWhere(subject, predicate, object string) *QueryBuilder {
	q.wheres = append(q.wheres, subject+" "+predicate+" "+object)
	return q
}

func (q *QueryBuilder) AddOptionalWhere(subject, predicate, object string) *QueryBuilder {
	q.wheres = append(q.wheres, "OPTIONAL { "+subject+" "+predicate+" "+object+" }")
	return q
}

// AddOptionalWhereFrom appends other's WHERE block as an OPTIONAL group.
// The block is captured at call time.
func (q *QueryBuilder) AddOptionalWhereFrom(other *QueryBuilder) *QueryBuilder {
	q.wheres = append(q.wheres, "OPTIONAL "+other.WhereBlock())
	return q
}

func (q *QueryBuilder) AddFilter(expression string) *QueryBuilder {
	q.wheres = append(q.wheres, "FILTER ("+expression+")")
	return q
}

// AddUnion registers other as a UNION branch. The branch is read when the
// query is built, so later changes to it are reflected.
func (q *QueryBuilder) AddUnion(other *QueryBuilder) *QueryBuilder {
	q.unions = append(q.unions, other)
	return q
}

func (q *QueryBuilder) AddGroupBy(expression string) *QueryBuilder {
	q.groups = append(q.groups, expression)
	return q
}

func (q *QueryBuilder) AddOrderBy(expression string) *QueryBuilder {
	q.orders = append(q.orders, expression)
	return q
}

func (q *QueryBuilder) SetLimit(n int) *QueryBuilder {
	q.limit = n
	q.hasLimit = true
	return q
}

func (q *QueryBuilder) SetOffset(n int) *QueryBuilder {
	q.offset = n
	q.hasOffset = true
	return q
}

// IsUpdate reports whether the builder is in INSERT or DELETE mode.
func (q *QueryBuilder) IsUpdate() bool {
	return q.insertGraph != "" || q.deleteGraph != ""
}

// String is an alias for Build.
func (q *QueryBuilder) String() string {
	return q.Build()
}

// Build serializes the query. It has no side effects.
func (q *QueryBuilder) Build() string {
	var sb strings.Builder

	for _, p := range q.prefixes {
		sb.WriteString(p)
		sb.WriteString(" ")
	}

	switch {
	case q.insertGraph != "":
		sb.WriteString("INSERT IN GRAPH <")
		sb.WriteString(q.insertGraph)
		sb.WriteString("> ")
	case q.deleteGraph != "":
		sb.WriteString("DELETE FROM <")
		sb.WriteString(q.deleteGraph)
		sb.WriteString("> { ")
		sb.WriteString(q.deleteCond)
		sb.WriteString(" }")
	default:
		sb.WriteString("SELECT ")
		if q.distinct {
			sb.WriteString("DISTINCT ")
		}
		if len(q.variables) > 0 {
			sb.WriteString(strings.Join(q.variables, " "))
		} else {
			sb.WriteString("*")
		}
		for _, g := range q.froms {
			sb.WriteString(" FROM <")
			sb.WriteString(g)
			sb.WriteString(">")
		}
	}

	if q.insertGraph == "" {
		sb.WriteString(" WHERE")
	}
	if q.selectGraph != "" {
		sb.WriteString(" { GRAPH <")
		sb.WriteString(q.selectGraph)
		sb.WriteString(">")
	}
	if len(q.unions) > 0 {
		sb.WriteString(" {")
	}

	own := q.WhereBlock()
	sb.WriteString(own)

	// UNION is left out before the first non-empty branch only when the
	// builder's own block is empty.
	first := true
	for _, u := range q.unions {
		block := u.WhereBlock()
		if block == "" {
			continue
		}
		if !first || own != "" {
			sb.WriteString("UNION")
		}
		first = false
		sb.WriteString(block)
	}

	if len(q.unions) > 0 {
		sb.WriteString(" } ")
	}
	if q.selectGraph != "" {
		sb.WriteString(" } ")
	}

	if len(q.groups) > 0 {
		sb.WriteString("GROUP BY ")
		sb.WriteString(strings.Join(q.groups, " "))
	}
	if len(q.orders) > 0 {
		if len(q.groups) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("ORDER BY ")
		sb.WriteString(strings.Join(q.orders, " "))
	}
	if q.hasLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(q.limit))
	}
	if q.hasOffset {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.Itoa(q.offset))
	}

	return sb.String()
}

// WhereBlock returns " { f1 . f2 }" for the recorded fragments, or an empty
// string when there are none.
func (q *QueryBuilder) WhereBlock() string {
	if len(q.wheres) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(" { ")
	sb.WriteString(strings.Join(q.wheres, " . "))
	sb.WriteString(" }")
	return sb.String()
}
