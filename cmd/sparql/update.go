package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update [update]",
		Short: "Post a SPARQL Update to the endpoint",
		Long: `Post a SPARQL Update, given as an argument or read from a file
("-" reads standard input).

Example:
  sparql update 'CLEAR GRAPH <urn:islandora:graph:default>'
  sparql update -f reindex.ru`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := readUpdate(cmd, file, args)
			if err != nil {
				return err
			}

			cfg, err := rootOpts.client()
			if err != nil {
				return err
			}

			resp, err := cfg.Client().Update(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `file holding the update ("-" for stdin)`)
	return cmd
}

func readUpdate(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("give the update as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("error reading stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("error reading %s: %w", file, err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("no update given")
	}
}
