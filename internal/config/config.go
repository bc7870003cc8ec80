package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/islandora/sparql/pkg/api"
	"github.com/islandora/sparql/pkg/sparql"
	yaml "gopkg.in/yaml.v3"
)

// ServerConfig defines the endpoint, query defaults and service settings.
//
// swagger:model ServerConfig
type ServerConfig struct {
	// SPARQL endpoint queries and updates are sent to.
	//
	// required: true
	Endpoint sparql.Endpoint `yaml:"endpoint"`

	// Prefixes declared on every query created with NewQuery, keyed by alias.
	//
	// required: false
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Named graph updates are written to.
	//
	// required: false
	NamedGraph string `yaml:"namedGraph,omitempty"`

	// Indicates whether the authentication header should be forwarded.
	//
	// required: false
	// default: true
	ForwardAuth *bool `yaml:"forwardAuth,omitempty"`

	// JWKS URI used to verify JWTs. Verification is skipped when empty.
	//
	// required: false
	JwksUri string `yaml:"jwksUri,omitempty"`

	// CustomHandler receives decoded events. Set in code, never from YAML.
	CustomHandler api.MessageHandler `yaml:"-"`
}

// ReadConfig loads the YAML configuration from SPARQL_YML, or from the file
// named by SPARQL_YML_PATH. Environment variables in the document are expanded.
func ReadConfig() (*ServerConfig, error) {
	var (
		y   []byte
		err error
	)
	yml := os.Getenv("SPARQL_YML")
	if yml != "" {
		y = []byte(yml)
	} else {
		yp := os.Getenv("SPARQL_YML_PATH")
		if yp == "" {
			return nil, errors.New("need to specify the path to sparql.yml with the environment variable SPARQL_YML_PATH")
		}
		y, err = os.ReadFile(yp)
		if err != nil {
			return nil, err
		}
	}

	return ParseConfig(y)
}

// ParseConfig decodes a YAML document and applies defaults.
func ParseConfig(y []byte) (*ServerConfig, error) {
	expanded := os.ExpandEnv(string(y))

	var c ServerConfig
	err := yaml.Unmarshal([]byte(expanded), &c)
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	c.applyDefaults()
	return &c, nil
}

// Default returns a configuration for baseURL with every default applied.
func Default(baseURL string) *ServerConfig {
	c := &ServerConfig{Endpoint: sparql.Endpoint{BaseURL: baseURL}}
	c.applyDefaults()
	return c
}

func (c *ServerConfig) applyDefaults() {
	if c.ForwardAuth == nil {
		fa := true
		c.ForwardAuth = &fa
	}
	c.Endpoint = c.Endpoint.WithDefaults()
}

// Client returns a SPARQL client for the configured endpoint.
func (c *ServerConfig) Client() *sparql.Client {
	return sparql.NewClient(c.Endpoint)
}

// NewQuery returns a builder with the configured prefixes declared in alias order.
func (c *ServerConfig) NewQuery() *sparql.QueryBuilder {
	aliases := make([]string, 0, len(c.Prefixes))
	for alias := range c.Prefixes {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	q := sparql.New()
	for _, alias := range aliases {
		q.AddPrefix(alias, c.Prefixes[alias])
	}
	return q
}
