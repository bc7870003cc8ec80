package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/islandora/sparql/internal/config"
	"github.com/islandora/sparql/pkg/api"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Server struct {
	Config  *config.ServerConfig
	KeySets *lru.LRU[string, jwk.Set]
}

// RunHTTPServer starts the HTTP server and listens on the configured port.
// The port is determined by the SPARQL_PORT environment variable, defaulting to 8080.
// This function blocks and will panic if the server fails to start.
func RunHTTPServer(server *Server) {
	r := server.SetupRouter()

	port := config.EnvOrDefault("SPARQL_PORT", "8080")

	slog.Info("Server listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		panic(err)
	}
}

func (server *Server) SetupRouter() *mux.Router {
	if server.Config.JwksUri == "" {
		slog.Info("No JWKS URI configured, skipping JWT verification")
	}

	server.KeySets = lru.NewLRU[string, jwk.Set](25, nil, time.Minute*15)

	r := mux.NewRouter()
	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	}).Methods("GET")

	// create the main route with logging and JWT auth middleware
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(server.LoggingMiddleware, server.JWTAuthMiddleware)
	authRouter.HandleFunc("/", server.MessageHandler).Methods("GET", "POST")

	// make sure 404s get logged
	notFoundHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		http.Error(w, "404 Not Found", http.StatusNotFound)
	})
	authRouter.NotFoundHandler = server.LoggingMiddleware(notFoundHandler)

	return r
}

func (s *Server) MessageHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	message, ok := r.Context().Value(msgKey).(api.Payload)
	if !ok {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if s.Config.CustomHandler == nil {
		slog.Error("No message handler configured")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	auth := ""
	if *s.Config.ForwardAuth {
		auth = r.Header.Get("Authorization")
	}

	status, body, contentType, err := s.Config.CustomHandler.Handle(message, auth)
	if err != nil {
		slog.Error("Error handling message", "msgId", message.Object.ID, "status", status, "err", err)
		if status < 400 {
			status = http.StatusInternalServerError
		}
		http.Error(w, cases.Title(language.English).String(err.Error()), status)
		return
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("Error writing response", "err", err)
		return
	}
	slog.Debug("Message handled", "msgId", message.Object.ID, "status", status)
}
