package sparql

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

const nin = "<http://dbpedia.org/resource/Nine_Inch_Nails>"

func clean(q string) string {
	return strings.TrimSpace(strings.ReplaceAll(q, "\n", " "))
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		query    *QueryBuilder
		expected string
	}{
		{
			name:     "empty",
			query:    New(),
			expected: "SELECT * WHERE",
		},
		{
			name:     "one where",
			query:    New().AddWhere(nin, "?x", "?y"),
			expected: "SELECT * WHERE { " + nin + " ?x ?y }",
		},
		{
			name:     "limit",
			query:    New().AddWhere(nin, "?x", "?y").SetLimit(10),
			expected: "SELECT * WHERE { " + nin + " ?x ?y } LIMIT 10",
		},
		{
			name:     "limit and offset",
			query:    New().AddWhere(nin, "?x", "?y").SetLimit(10).SetOffset(10),
			expected: "SELECT * WHERE { " + nin + " ?x ?y } LIMIT 10 OFFSET 10",
		},
		{
			name:     "zero limit is rendered once set",
			query:    New().AddWhere(nin, "?x", "?y").SetLimit(0),
			expected: "SELECT * WHERE { " + nin + " ?x ?y } LIMIT 0",
		},
		{
			name:     "variable",
			query:    New().AddVariable("?y").AddWhere(nin, "?x", "?y"),
			expected: "SELECT ?y WHERE { " + nin + " ?x ?y }",
		},
		{
			name:     "distinct variable",
			query:    New().SetDistinct(true).AddVariable("?y").AddWhere(nin, "?x", "?y"),
			expected: "SELECT DISTINCT ?y WHERE { " + nin + " ?x ?y }",
		},
		{
			name:     "variables keep insertion order",
			query:    New().AddVariable("?x").AddVariable("?y").AddWhere(nin, "?x", "?y"),
			expected: "SELECT ?x ?y WHERE { " + nin + " ?x ?y }",
		},
		{
			name:     "filter",
			query:    New().AddWhere(nin, "?x", "?y").AddFilter("?x = rdfs:comment"),
			expected: "SELECT * WHERE { " + nin + " ?x ?y . FILTER (?x = rdfs:comment) }",
		},
		{
			name: "multiple wheres",
			query: New().AddVariable("?label").
				AddWhere(nin, "<http://dbpedia.org/ontology/associatedBand>", "?y").
				AddWhere("?y", "rdfs:label", "?label"),
			expected: "SELECT ?label WHERE { " + nin + " <http://dbpedia.org/ontology/associatedBand> ?y . ?y rdfs:label ?label }",
		},
		{
			name:     "froms",
			query:    New().AddFrom("http://graph1").AddFrom("http://graph2").AddWhere(nin, "?x", "?y"),
			expected: "SELECT * FROM <http://graph1> FROM <http://graph2> WHERE { " + nin + " ?x ?y }",
		},
		{
			name:     "delete",
			query:    New().DeleteFromGraph("http://graph", "<http://element/id> ?x ?y").AddWhere("<http://element/id>", "?x", "?y"),
			expected: "DELETE FROM <http://graph> { <http://element/id> ?x ?y } WHERE { <http://element/id> ?x ?y }",
		},
		{
			name:     "delete ignores variables and distinct",
			query:    New().SetDistinct(true).AddVariable("?x").DeleteFromGraph("http://graph", "?s ?p ?o").AddWhere("?s", "?p", "?o"),
			expected: "DELETE FROM <http://graph> { ?s ?p ?o } WHERE { ?s ?p ?o }",
		},
		{
			name:     "insert",
			query:    New().InsertIntoGraph("http://graph").AddWhere("<http://element/id>", "<http://schema.org/name>", `"x"`),
			expected: `INSERT IN GRAPH <http://graph>  { <http://element/id> <http://schema.org/name> "x" }`,
		},
		{
			name:     "insert wins over delete",
			query:    New().DeleteFromGraph("http://old", "?s ?p ?o").InsertIntoGraph("http://new").AddWhere("?s", "?p", "?o"),
			expected: "INSERT IN GRAPH <http://new>  { ?s ?p ?o }",
		},
		{
			name:     "select in graph",
			query:    New().SelectGraph("http://graph").AddWhere("<http://element/id>", "?x", "?y"),
			expected: "SELECT * WHERE { GRAPH <http://graph> { <http://element/id> ?x ?y } }",
		},
		{
			name:     "select in graph with group by",
			query:    New().SelectGraph("http://graph").AddWhere("<http://element/id>", "?x", "?y").AddGroupBy("?x"),
			expected: "SELECT * WHERE { GRAPH <http://graph> { <http://element/id> ?x ?y } } GROUP BY ?x",
		},
		{
			name:     "prefixes",
			query:    New().AddPrefix("foaf", "http://xmlns.com/foaf/0.1/").SelectGraph("http://graph").AddWhere("<http://element/id>", "?x", "?y").AddGroupBy("?x"),
			expected: "PREFIX foaf: <http://xmlns.com/foaf/0.1/> SELECT * WHERE { GRAPH <http://graph> { <http://element/id> ?x ?y } } GROUP BY ?x",
		},
		{
			name:     "order by follows block directly",
			query:    New().AddWhere("?s", "?p", "?o").AddOrderBy("?s").AddOrderBy("DESC(?o)"),
			expected: "SELECT * WHERE { ?s ?p ?o }ORDER BY ?s DESC(?o)",
		},
		{
			name:     "group by then order by",
			query:    New().SelectGraph("http://g").AddWhere("?s", "?p", "?o").AddGroupBy("?s").AddOrderBy("?s").SetLimit(5),
			expected: "SELECT * WHERE { GRAPH <http://g> { ?s ?p ?o } } GROUP BY ?s ORDER BY ?s LIMIT 5",
		},
		{
			name:     "optional where",
			query:    New().AddWhere("?s", "a", "foaf:Person").AddOptionalWhere("?s", "foaf:mbox", "?mbox"),
			expected: "SELECT * WHERE { ?s a foaf:Person . OPTIONAL { ?s foaf:mbox ?mbox } }",
		},
		{
			name: "optional where from builder",
			query: New().AddWhere("?s", "a", "foaf:Person").
				AddOptionalWhereFrom(New().AddWhere("?s", "foaf:name", "?name").AddFilter(`lang(?name) = "en"`)),
			expected: `SELECT * WHERE { ?s a foaf:Person . OPTIONAL  { ?s foaf:name ?name . FILTER (lang(?name) = "en") } }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clean(tt.query.Build()))
		})
	}
}

func TestBuild_Union(t *testing.T) {
	branch := New().
		AddWhere("?uri", "rdf:label", "?label").
		AddFilter(`lang(?label) = "en" && regex(?label, "Nine Inch Nails")`)

	q := New().
		AddVariable("?uri").
		AddWhere("?uri", "rdf:label", "?label").
		AddFilter(`lang(?label) = "en" && regex(?label, "Metallica")`).
		AddUnion(branch)

	expected := `SELECT ?uri WHERE { { ?uri rdf:label ?label . FILTER (lang(?label) = "en" && regex(?label, "Metallica")) }UNION { ?uri rdf:label ?label . FILTER (lang(?label) = "en" && regex(?label, "Nine Inch Nails")) } }`
	assert.Equal(t, expected, clean(q.Build()))
}

func TestBuild_UnionBranchIsReferenced(t *testing.T) {
	branch := New()
	q := New().AddWhere("?s", "?p", "?o").AddUnion(branch)

	assert.Equal(t, "SELECT * WHERE { { ?s ?p ?o } }", clean(q.Build()))

	branch.AddWhere("?s", "?q", "?o")
	assert.Equal(t, "SELECT * WHERE { { ?s ?p ?o }UNION { ?s ?q ?o } }", clean(q.Build()))
}

func TestBuild_UnionSkipsEmptyBranches(t *testing.T) {
	q := New().
		AddWhere("?s", "a", "?t").
		AddUnion(New()).
		AddUnion(New().AddWhere("?s", "b", "?t"))

	assert.Equal(t, "SELECT * WHERE { { ?s a ?t }UNION { ?s b ?t } }", clean(q.Build()))
}

// When the parent block is empty the first branch gets no UNION keyword but
// every later branch still does.
func TestBuild_UnionWithEmptyParentBlockQuirk(t *testing.T) {
	q := New().
		AddUnion(New().AddWhere("?s", "a", "?t")).
		AddUnion(New().AddWhere("?s", "b", "?t")).
		AddUnion(New().AddWhere("?s", "c", "?t"))

	assert.Equal(t, "SELECT * WHERE { { ?s a ?t }UNION { ?s b ?t }UNION { ?s c ?t } }", clean(q.Build()))
}

func TestBuild_Idempotent(t *testing.T) {
	q := New().
		AddPrefix("rdfs", "http://www.w3.org/2000/01/rdf-schema#").
		AddVariable("?label").
		AddWhere("?s", "rdfs:label", "?label").
		AddUnion(New().AddWhere("?s", "rdfs:comment", "?label")).
		SetLimit(3)

	first := q.Build()
	assert.Equal(t, first, q.Build())
	assert.Equal(t, first, q.String())
}

func TestWhereBlock(t *testing.T) {
	assert.Equal(t, "", New().WhereBlock())
	assert.Equal(t, " { a b c }", New().AddWhere("a", "b", "c").WhereBlock())
	assert.Equal(t, " { a b c . d e f }", New().AddWhere("a", "b", "c").AddWhere("d", "e", "f").WhereBlock())
}

func TestIsUpdate(t *testing.T) {
	assert.False(t, New().IsUpdate())
	assert.False(t, New().SelectGraph("http://g").IsUpdate())
	assert.True(t, New().InsertIntoGraph("http://g").IsUpdate())
	assert.True(t, New().DeleteFromGraph("http://g", "?s ?p ?o").IsUpdate())
}

func TestBuild_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := map[string]*QueryBuilder{
		"dbpedia_bands": New().
			AddPrefix("dbo", "http://dbpedia.org/ontology/").
			AddPrefix("rdfs", "http://www.w3.org/2000/01/rdf-schema#").
			SetDistinct(true).
			AddVariable("?band").
			AddVariable("?label").
			AddWhere(nin, "dbo:associatedBand", "?band").
			AddWhere("?band", "rdfs:label", "?label").
			AddFilter(`lang(?label) = "en"`).
			AddOrderBy("?label").
			SetLimit(20).
			SetOffset(40),
		"graph_delete": New().
			DeleteFromGraph("urn:islandora:graph:default", "<http://example.com/node/1> ?p ?o").
			SelectGraph("urn:islandora:graph:default").
			AddWhere("<http://example.com/node/1>", "?p", "?o"),
	}

	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			g.Assert(t, name, []byte(q.Build()))
		})
	}
}
