package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/islandora/sparql/internal/config"
	"github.com/islandora/sparql/pkg/api"
	"github.com/islandora/sparql/pkg/sparql"
	"github.com/spf13/cobra"
)

// QueryOptions holds the flags that describe a query.
type QueryOptions struct {
	File      string
	Script    string
	Prefixes  []string
	Variables []string
	Froms     []string
	Wheres    []string
	Optionals []string
	Filters   []string
	GroupBy   []string
	OrderBy   []string
	Graph     string
	Distinct  bool
	Limit     int
	Offset    int

	InsertGraph     string
	DeleteGraph     string
	DeleteCondition string
}

// addQueryFlags registers the query flags on cmd.
func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.File, "file", "f", "", "YAML or JSON query document")
	f.StringVar(&opts.Script, "script", "", "builder script, one call per line")
	f.StringArrayVar(&opts.Prefixes, "prefix", nil, "prefix declaration alias=uri (repeatable)")
	f.StringArrayVar(&opts.Variables, "var", nil, "projected variable (repeatable)")
	f.StringArrayVar(&opts.Froms, "from", nil, "FROM dataset graph (repeatable)")
	f.StringArrayVar(&opts.Wheres, "where", nil, `triple pattern "s p o" (repeatable)`)
	f.StringArrayVar(&opts.Optionals, "optional", nil, `optional triple pattern "s p o" (repeatable)`)
	f.StringArrayVar(&opts.Filters, "filter", nil, "FILTER expression (repeatable)")
	f.StringArrayVar(&opts.GroupBy, "group-by", nil, "GROUP BY expression (repeatable)")
	f.StringArrayVar(&opts.OrderBy, "order-by", nil, "ORDER BY expression (repeatable)")
	f.StringVar(&opts.Graph, "graph", "", "restrict the WHERE block to a named graph")
	f.StringVar(&opts.InsertGraph, "insert", "", "INSERT the WHERE block into a named graph")
	f.StringVar(&opts.DeleteGraph, "delete", "", "DELETE from a named graph")
	f.StringVar(&opts.DeleteCondition, "delete-condition", "", "triples removed by --delete")
	f.BoolVar(&opts.Distinct, "distinct", false, "SELECT DISTINCT")
	f.IntVar(&opts.Limit, "limit", 0, "LIMIT")
	f.IntVar(&opts.Offset, "offset", 0, "OFFSET")
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Print a SPARQL query",
		Long: `Assemble a SPARQL query and print it.

The configured prefixes are declared first, then the query document (-f),
then the script (--script), then the flags.

Example:
  sparql build --var ?label --where "?s rdfs:label ?label" --limit 10
  sparql build -f query.yml
  sparql build --script bands.sparqlb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			q, err := opts.builder(cmd, cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), q.Build())
			return err
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

// builder assembles the query from the configuration, the document, the
// script and the flags, in that order.
func (o *QueryOptions) builder(cmd *cobra.Command, cfg *config.ServerConfig) (*sparql.QueryBuilder, error) {
	q := cfg.NewQuery()

	if o.File != "" {
		doc, err := os.ReadFile(o.File)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", o.File, err)
		}
		qr, err := api.ParseQueryRequest(doc)
		if err != nil {
			return nil, err
		}
		if err := qr.ApplyTo(q); err != nil {
			return nil, fmt.Errorf("%s: %w", o.File, err)
		}
	}

	if o.Script != "" {
		f, err := os.Open(o.Script)
		if err != nil {
			return nil, fmt.Errorf("error opening %s: %w", o.Script, err)
		}
		defer f.Close()
		if err := ApplyScript(q, f); err != nil {
			return nil, fmt.Errorf("%s: %w", o.Script, err)
		}
	}

	for _, p := range o.Prefixes {
		alias, uri, ok := strings.Cut(p, "=")
		if !ok || alias == "" || uri == "" {
			return nil, fmt.Errorf("invalid --prefix %q: want alias=uri", p)
		}
		q.AddPrefix(alias, uri)
	}
	if o.Distinct {
		q.SetDistinct(true)
	}
	for _, v := range o.Variables {
		q.AddVariable(v)
	}
	for _, g := range o.Froms {
		q.AddFrom(g)
	}
	if o.Graph != "" {
		q.SelectGraph(o.Graph)
	}
	if o.InsertGraph != "" {
		q.InsertIntoGraph(o.InsertGraph)
	}
	if o.DeleteGraph != "" {
		q.DeleteFromGraph(o.DeleteGraph, o.DeleteCondition)
	}
	for _, w := range o.Wheres {
		s, p, obj, err := splitTriple(w)
		if err != nil {
			return nil, fmt.Errorf("invalid --where: %w", err)
		}
		q.AddWhere(s, p, obj)
	}
	for _, w := range o.Optionals {
		s, p, obj, err := splitTriple(w)
		if err != nil {
			return nil, fmt.Errorf("invalid --optional: %w", err)
		}
		q.AddOptionalWhere(s, p, obj)
	}
	for _, e := range o.Filters {
		q.AddFilter(e)
	}
	for _, g := range o.GroupBy {
		q.AddGroupBy(g)
	}
	for _, e := range o.OrderBy {
		q.AddOrderBy(e)
	}
	if cmd.Flags().Changed("limit") {
		q.SetLimit(o.Limit)
	}
	if cmd.Flags().Changed("offset") {
		q.SetOffset(o.Offset)
	}

	return q, nil
}

// splitTriple splits "s p o" into its terms. The object keeps any inner
// spacing so literals like "Nine Inch Nails"@en survive.
func splitTriple(pattern string) (string, string, string, error) {
	fields := strings.Fields(pattern)
	if len(fields) < 3 {
		return "", "", "", fmt.Errorf("%q is not a subject predicate object triple", pattern)
	}

	rest := strings.TrimSpace(pattern)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
	rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))

	return fields[0], fields[1], rest, nil
}
