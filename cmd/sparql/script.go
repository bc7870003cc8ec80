package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/islandora/sparql/pkg/sparql"
)

// block is an open "union {" or "optional {" section of a script.
type block struct {
	kind string
	q    *sparql.QueryBuilder
	line int
}

// ApplyScript reads builder calls from r, one per line, and records them on
// q. Words are split with shell quoting rules and # starts a comment:
//
//	prefix rdfs http://www.w3.org/2000/01/rdf-schema#
//	var ?label
//	where ?s rdfs:label ?label
//	filter 'lang(?label) = "en"'
//	union {
//	  where ?s rdfs:comment ?label
//	}
//	limit 10
//
// Only the WHERE block of a union or optional section is used.
func ApplyScript(q *sparql.QueryBuilder, r io.Reader) error {
	stack := []block{{kind: "root", q: q}}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		words, err := shlex.Split(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(words) == 0 {
			continue
		}

		current := stack[len(stack)-1]
		cmd, args := strings.ToLower(words[0]), words[1:]

		switch {
		case cmd == "}":
			if len(stack) == 1 {
				return fmt.Errorf("line %d: unexpected }", lineNo)
			}
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1].q
			if current.kind == "union" {
				parent.AddUnion(current.q)
			} else {
				parent.AddOptionalWhereFrom(current.q)
			}
		case (cmd == "union" || cmd == "optional") && len(args) == 1 && args[0] == "{":
			stack = append(stack, block{kind: cmd, q: sparql.New(), line: lineNo})
		default:
			if err := applyCall(current.q, cmd, args); err != nil {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading script: %w", err)
	}

	if len(stack) > 1 {
		open := stack[len(stack)-1]
		return fmt.Errorf("line %d: %s block is never closed", open.line, open.kind)
	}
	return nil
}

func applyCall(q *sparql.QueryBuilder, cmd string, args []string) error {
	switch cmd {
	case "prefix":
		if len(args) != 2 {
			return fmt.Errorf("prefix takes an alias and a URI")
		}
		q.AddPrefix(args[0], args[1])
	case "distinct":
		q.SetDistinct(true)
	case "var":
		if len(args) == 0 {
			return fmt.Errorf("var takes at least one variable")
		}
		for _, v := range args {
			q.AddVariable(v)
		}
	case "from":
		if len(args) != 1 {
			return fmt.Errorf("from takes one graph")
		}
		q.AddFrom(args[0])
	case "graph":
		if len(args) != 1 {
			return fmt.Errorf("graph takes one graph")
		}
		q.SelectGraph(args[0])
	case "insert":
		if len(args) != 1 {
			return fmt.Errorf("insert takes one graph")
		}
		q.InsertIntoGraph(args[0])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("delete takes a graph and a condition")
		}
		q.DeleteFromGraph(args[0], strings.Join(args[1:], " "))
	case "where", "optional":
		if len(args) != 3 {
			return fmt.Errorf("%s takes a subject, a predicate and an object, got %d words", cmd, len(args))
		}
		if cmd == "where" {
			q.AddWhere(args[0], args[1], args[2])
		} else {
			q.AddOptionalWhere(args[0], args[1], args[2])
		}
	case "filter":
		if len(args) == 0 {
			return fmt.Errorf("filter takes an expression")
		}
		q.AddFilter(strings.Join(args, " "))
	case "group-by":
		for _, e := range args {
			q.AddGroupBy(e)
		}
	case "order-by":
		for _, e := range args {
			q.AddOrderBy(e)
		}
	case "limit", "offset":
		if len(args) != 1 {
			return fmt.Errorf("%s takes one number", cmd)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", cmd, args[0], err)
		}
		if cmd == "limit" {
			q.SetLimit(n)
		} else {
			q.SetOffset(n)
		}
	default:
		return fmt.Errorf("unknown call %q", cmd)
	}
	return nil
}
