package main

import (
	"github.com/islandora/sparql/pkg/sparql"
)

// DeleteSubject builds the update removing every triple about subject from graph.
func DeleteSubject(subject, graph string) *sparql.QueryBuilder {
	s := "<" + subject + ">"
	return sparql.New().
		DeleteFromGraph(graph, s+" ?p ?o").
		SelectGraph(graph).
		AddWhere(s, "?p", "?o")
}

// InsertTriples builds an INSERT of triples into graph.
func InsertTriples(triples []Triple, graph string) *sparql.QueryBuilder {
	q := sparql.New().InsertIntoGraph(graph)
	for _, t := range triples {
		q.AddWhere(t[0], t[1], t[2])
	}
	return q
}

// BuildUpdateQuery creates a combined DELETE + INSERT update for subject.
// Only the DELETE is sent when there are no triples.
func BuildUpdateQuery(subject string, triples []Triple, graph string) string {
	del := DeleteSubject(subject, graph).Build()
	if len(triples) == 0 {
		return del
	}
	return del + ";\n" + InsertTriples(triples, graph).Build()
}
