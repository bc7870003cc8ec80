package main

import (
	"log/slog"
	"os"

	"github.com/islandora/sparql/internal/config"
	"github.com/islandora/sparql/internal/server"
)

func main() {
	config.SetupLogger("")

	cfg, err := LoadIndexerConfig()
	if err != nil {
		slog.Error("Could not load configuration", "err", err)
		os.Exit(1)
	}

	cfg.CustomHandler = &IndexerHandler{
		Client:     cfg.Client(),
		NamedGraph: cfg.NamedGraph,
		Timeout:    requestTimeout(),
	}

	s := &server.Server{
		Config: cfg,
	}

	slog.Info("Starting triplestore-indexer",
		"triplestoreURL", cfg.Endpoint.BaseURL,
		"namedGraph", cfg.NamedGraph,
	)

	server.RunHTTPServer(s)
}
