package main

import (
	"fmt"
	"os"

	"github.com/islandora/sparql/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Endpoint   string
	Method     string
	Format     string
	LogLevel   string
}

// NewRootCommand creates the root command for the sparql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sparql",
		Short: "Build SPARQL queries and send them to an endpoint",
		Long: `Build SPARQL queries from flags, query documents or scripts, and run
them against a SPARQL HTTP endpoint.

The endpoint comes from --endpoint, the file given with --config, or the
sparql.yml named by SPARQL_YML / SPARQL_YML_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.SetupLogger(opts.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a sparql.yml")
	cmd.PersistentFlags().StringVarP(&opts.Endpoint, "endpoint", "e", "", "SPARQL endpoint URL")
	cmd.PersistentFlags().StringVar(&opts.Method, "method", "", "HTTP method used for queries (GET|POST)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "", "result format requested from the endpoint")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides SPARQL_LOG_LEVEL")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))

	return cmd
}

// loadConfig resolves the configuration and applies flag overrides.
func (o *RootOptions) loadConfig() (*config.ServerConfig, error) {
	var (
		cfg *config.ServerConfig
		err error
	)
	switch {
	case o.ConfigPath != "":
		y, readErr := os.ReadFile(o.ConfigPath)
		if readErr != nil {
			return nil, fmt.Errorf("error reading %s: %w", o.ConfigPath, readErr)
		}
		cfg, err = config.ParseConfig(y)
	case os.Getenv("SPARQL_YML") != "" || os.Getenv("SPARQL_YML_PATH") != "":
		cfg, err = config.ReadConfig()
	default:
		cfg = config.Default(os.Getenv("SPARQL_ENDPOINT"))
	}
	if err != nil {
		return nil, err
	}

	if o.Endpoint != "" {
		cfg.Endpoint.BaseURL = o.Endpoint
	}
	if o.Method != "" {
		cfg.Endpoint.Method = o.Method
	}
	if o.Format != "" {
		cfg.Endpoint.Format = o.Format
	}
	cfg.Endpoint = cfg.Endpoint.WithDefaults()

	return cfg, nil
}

// client returns the configuration, failing when no endpoint is known.
func (o *RootOptions) client() (*config.ServerConfig, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Endpoint.BaseURL == "" {
		return nil, fmt.Errorf("no endpoint configured: use --endpoint, --config or SPARQL_ENDPOINT")
	}
	return cfg, nil
}
