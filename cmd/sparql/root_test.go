package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SPARQL_YML", "")
	t.Setenv("SPARQL_YML_PATH", "")
	t.Setenv("SPARQL_ENDPOINT", "")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sparql", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"build", "run", "update"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"config", "endpoint", "method", "format", "log-level"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
	assert.Equal(t, "e", cmd.PersistentFlags().Lookup("endpoint").Shorthand)
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestQueryFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, sub := range []string{"build", "run"} {
		c, _, err := cmd.Find([]string{sub})
		require.NoError(t, err)
		for _, name := range []string{"file", "script", "prefix", "var", "from", "where", "optional", "filter", "group-by", "order-by", "graph", "insert", "delete", "distinct", "limit", "offset"} {
			assert.NotNil(t, c.Flags().Lookup(name), "%s --%s", sub, name)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SPARQL_YML", `
endpoint:
  baseUrl: http://localhost:8080/bigdata/sparql
  method: post
prefixes:
  rdfs: http://www.w3.org/2000/01/rdf-schema#
`)

	opts := &RootOptions{Format: "xml"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/bigdata/sparql", cfg.Endpoint.BaseURL)
	assert.Equal(t, "POST", cfg.Endpoint.Method)
	assert.Equal(t, "xml", cfg.Endpoint.Format)

	opts = &RootOptions{Endpoint: "http://other/sparql", Method: "get"}
	cfg, err = opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://other/sparql", cfg.Endpoint.BaseURL)
	assert.Equal(t, "GET", cfg.Endpoint.Method)
	assert.Equal(t, "json", cfg.Endpoint.Format)
}

func TestClientRequiresEndpoint(t *testing.T) {
	t.Setenv("SPARQL_YML", "")
	t.Setenv("SPARQL_YML_PATH", "")
	t.Setenv("SPARQL_ENDPOINT", "")

	_, err := (&RootOptions{}).client()
	assert.ErrorContains(t, err, "no endpoint configured")
}
