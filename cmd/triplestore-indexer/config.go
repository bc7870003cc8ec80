package main

import (
	"fmt"
	"os"
	"time"

	"github.com/islandora/sparql/internal/config"
)

const defaultNamedGraph = "urn:islandora:graph:default"

// LoadIndexerConfig builds the service configuration. A sparql.yml (via
// SPARQL_YML or SPARQL_YML_PATH) is used when present; otherwise the endpoint
// comes from TRIPLESTORE_URL. TRIPLESTORE_NAMED_GRAPH and SPARQL_JWKS_URI
// override the file.
func LoadIndexerConfig() (*config.ServerConfig, error) {
	var cfg *config.ServerConfig
	if os.Getenv("SPARQL_YML") != "" || os.Getenv("SPARQL_YML_PATH") != "" {
		c, err := config.ReadConfig()
		if err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		cfg = c
	} else {
		cfg = config.Default(config.EnvOrDefault("TRIPLESTORE_URL", "http://triplestore:8890/sparql"))
	}

	if g := os.Getenv("TRIPLESTORE_NAMED_GRAPH"); g != "" {
		cfg.NamedGraph = g
	}
	if cfg.NamedGraph == "" {
		cfg.NamedGraph = defaultNamedGraph
	}
	if jwks := os.Getenv("SPARQL_JWKS_URI"); jwks != "" {
		cfg.JwksUri = jwks
	}

	return cfg, nil
}

// requestTimeout bounds a single triplestore update.
func requestTimeout() time.Duration {
	d, err := time.ParseDuration(config.EnvOrDefault("TRIPLESTORE_TIMEOUT", "30s"))
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
