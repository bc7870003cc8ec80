package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// Triple holds the subject, predicate and object of an N-Triple, each in
// N-Triples term syntax.
type Triple [3]string

// JsonldToTriples expands a JSON-LD document to RDF with json-gold and
// returns its statements as triples. Graph names are dropped.
func JsonldToTriples(jsonldBytes []byte) ([]Triple, error) {
	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.Format = "application/n-quads"

	doc, err := ld.DocumentFromReader(bytes.NewReader(jsonldBytes))
	if err != nil {
		return nil, fmt.Errorf("error parsing JSON-LD: %w", err)
	}

	rdf, err := proc.ToRDF(doc, options)
	if err != nil {
		return nil, fmt.Errorf("error converting JSON-LD to RDF: %w", err)
	}

	// with Format set ToRDF returns serialized N-Quads
	var nquads string
	switch v := rdf.(type) {
	case string:
		nquads = v
	case *ld.RDFDataset:
		serializer := ld.NQuadRDFSerializer{}
		var buf bytes.Buffer
		if err := serializer.SerializeTo(&buf, v); err != nil {
			return nil, fmt.Errorf("error serializing RDF dataset: %w", err)
		}
		nquads = buf.String()
	default:
		return nil, fmt.Errorf("unexpected RDF result type: %T", rdf)
	}

	return parseNQuads(nquads)
}

// parseNQuads reads N-Quads or N-Triples, one statement per line.
func parseNQuads(nquads string) ([]Triple, error) {
	var triples []Triple
	for i, line := range strings.Split(nquads, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasSuffix(line, ".") {
			return nil, fmt.Errorf("line %d is not terminated: %s", i+1, line)
		}

		content := strings.TrimSpace(strings.TrimSuffix(line, "."))
		parts := splitNQuadLine(content)
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("line %d has %d terms: %s", i+1, len(parts), line)
		}
		triples = append(triples, Triple{parts[0], parts[1], parts[2]})
	}
	return triples, nil
}

// splitNQuadLine splits a statement into its terms, keeping quoted literals
// (with any language tag or datatype) and IRIs whole.
func splitNQuadLine(line string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	inIRI := false
	escaped := false

	for _, ch := range line {
		switch {
		case inQuote && escaped:
			escaped = false
			current.WriteRune(ch)
		case inQuote && ch == '\\':
			escaped = true
			current.WriteRune(ch)
		case ch == '"' && !inIRI:
			inQuote = !inQuote
			current.WriteRune(ch)
		case ch == '<' && !inQuote:
			inIRI = true
			current.WriteRune(ch)
		case ch == '>' && !inQuote:
			inIRI = false
			current.WriteRune(ch)
		case ch == ' ' && !inQuote && !inIRI:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
