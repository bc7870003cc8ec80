package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/islandora/sparql/pkg/sparql"
	yaml "gopkg.in/yaml.v3"
)

// QueryRequest is a declarative description of a SPARQL query. It can be
// written as YAML or JSON and turned into a builder with Builder.
//
// swagger:model QueryRequest
type QueryRequest struct {
	Prefixes        []Prefix       `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	Distinct        bool           `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	Variables       []string       `json:"variables,omitempty" yaml:"variables,omitempty"`
	From            []string       `json:"from,omitempty" yaml:"from,omitempty"`
	Graph           string         `json:"graph,omitempty" yaml:"graph,omitempty"`
	InsertGraph     string         `json:"insertGraph,omitempty" yaml:"insertGraph,omitempty"`
	DeleteGraph     string         `json:"deleteGraph,omitempty" yaml:"deleteGraph,omitempty"`
	DeleteCondition string         `json:"deleteCondition,omitempty" yaml:"deleteCondition,omitempty"`
	Where           []Clause       `json:"where,omitempty" yaml:"where,omitempty"`
	Unions          []QueryRequest `json:"unions,omitempty" yaml:"unions,omitempty"`
	GroupBy         []string       `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
	OrderBy         []string       `json:"orderBy,omitempty" yaml:"orderBy,omitempty"`
	Limit           *int           `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset          *int           `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Prefix is a namespace declaration.
//
// swagger:model Prefix
type Prefix struct {
	Alias string `json:"alias" yaml:"alias"`
	URI   string `json:"uri" yaml:"uri"`
}

// Triple is a subject, predicate and object written verbatim.
//
// swagger:model Triple
type Triple struct {
	Subject   string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Predicate string `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	Object    string `json:"object,omitempty" yaml:"object,omitempty"`
}

func (t Triple) empty() bool {
	return t.Subject == "" && t.Predicate == "" && t.Object == ""
}

// Clause is one entry of a WHERE block. Exactly one of the triple fields,
// Optional, Filter or OptionalGroup must be set.
//
// swagger:model Clause
type Clause struct {
	Triple        `yaml:",inline"`
	Optional      *Triple       `json:"optional,omitempty" yaml:"optional,omitempty"`
	Filter        string        `json:"filter,omitempty" yaml:"filter,omitempty"`
	OptionalGroup *QueryRequest `json:"optionalGroup,omitempty" yaml:"optionalGroup,omitempty"`
}

// ParseQueryRequest decodes a YAML or JSON query document.
func ParseQueryRequest(doc []byte) (*QueryRequest, error) {
	var qr QueryRequest
	if trimmed := bytes.TrimSpace(doc); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &qr); err != nil {
			return nil, fmt.Errorf("error parsing query document: %w", err)
		}
		return &qr, nil
	}
	if err := yaml.Unmarshal(doc, &qr); err != nil {
		return nil, fmt.Errorf("error parsing query document: %w", err)
	}
	return &qr, nil
}

// Builder materialises the request as a QueryBuilder.
func (qr *QueryRequest) Builder() (*sparql.QueryBuilder, error) {
	q := sparql.New()
	if err := qr.ApplyTo(q); err != nil {
		return nil, err
	}
	return q, nil
}

// ApplyTo records the request on an existing builder, after whatever the
// builder already holds.
func (qr *QueryRequest) ApplyTo(q *sparql.QueryBuilder) error {
	for _, p := range qr.Prefixes {
		q.AddPrefix(p.Alias, p.URI)
	}
	if qr.Distinct {
		q.SetDistinct(true)
	}
	for _, v := range qr.Variables {
		q.AddVariable(v)
	}
	for _, f := range qr.From {
		q.AddFrom(f)
	}
	if qr.Graph != "" {
		q.SelectGraph(qr.Graph)
	}
	if qr.InsertGraph != "" {
		q.InsertIntoGraph(qr.InsertGraph)
	}
	if qr.DeleteGraph != "" {
		q.DeleteFromGraph(qr.DeleteGraph, qr.DeleteCondition)
	}

	for i, c := range qr.Where {
		if err := c.apply(q); err != nil {
			return fmt.Errorf("where[%d]: %w", i, err)
		}
	}

	for i := range qr.Unions {
		u, err := qr.Unions[i].Builder()
		if err != nil {
			return fmt.Errorf("unions[%d]: %w", i, err)
		}
		q.AddUnion(u)
	}

	for _, g := range qr.GroupBy {
		q.AddGroupBy(g)
	}
	for _, o := range qr.OrderBy {
		q.AddOrderBy(o)
	}
	if qr.Limit != nil {
		q.SetLimit(*qr.Limit)
	}
	if qr.Offset != nil {
		q.SetOffset(*qr.Offset)
	}

	return nil
}

func (c Clause) apply(q *sparql.QueryBuilder) error {
	kinds := 0
	if !c.Triple.empty() {
		kinds++
	}
	if c.Optional != nil {
		kinds++
	}
	if c.Filter != "" {
		kinds++
	}
	if c.OptionalGroup != nil {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("clause must set exactly one of triple, optional, filter or optionalGroup, got %d", kinds)
	}

	switch {
	case c.Optional != nil:
		q.AddOptionalWhere(c.Optional.Subject, c.Optional.Predicate, c.Optional.Object)
	case c.Filter != "":
		q.AddFilter(c.Filter)
	case c.OptionalGroup != nil:
		sub, err := c.OptionalGroup.Builder()
		if err != nil {
			return fmt.Errorf("optionalGroup: %w", err)
		}
		q.AddOptionalWhereFrom(sub)
	default:
		q.AddWhere(c.Subject, c.Predicate, c.Object)
	}
	return nil
}
