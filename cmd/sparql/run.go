package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/islandora/sparql/pkg/sparql"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a query and send it to the endpoint",
		Long: `Build a query the same way as "sparql build" and send it to the
configured endpoint. INSERT and DELETE queries are posted as updates.

JSON results are printed indented; other formats are printed as returned.

Example:
  sparql run -e https://dbpedia.org/sparql --var ?label \
    --where "<http://dbpedia.org/resource/Nine_Inch_Nails> rdfs:label ?label" --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.client()
			if err != nil {
				return err
			}
			q, err := opts.builder(cmd, cfg)
			if err != nil {
				return err
			}

			client := cfg.Client()
			var resp *sparql.Response
			if q.IsUpdate() {
				resp, err = client.Update(cmd.Context(), q.Build())
			} else {
				resp, err = client.Launch(cmd.Context(), q)
			}
			if err != nil {
				return err
			}

			return printResponse(cmd, resp)
		},
	}

	addQueryFlags(cmd, opts)
	return cmd
}

func printResponse(cmd *cobra.Command, resp *sparql.Response) error {
	slog.Debug("Endpoint responded", "status", resp.StatusCode, "contentType", resp.ContentType)

	out := cmd.OutOrStdout()
	if resp.Data != nil {
		b, err := json.MarshalIndent(resp.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding results: %w", err)
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	if len(resp.Body) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(out, resp.String())
	return err
}
