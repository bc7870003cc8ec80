package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/islandora/sparql/pkg/api"
	"github.com/islandora/sparql/pkg/sparql"
)

// IndexerHandler implements api.MessageHandler for the triplestore indexer service.
type IndexerHandler struct {
	Client     *sparql.Client
	NamedGraph string
	Timeout    time.Duration
}

// Handle processes an incoming event and indexes/deletes from the triplestore.
func (h *IndexerHandler) Handle(payload api.Payload, auth string) (int, []byte, string, error) {
	token := auth
	if token == "" {
		token = payload.Authorization
	}

	// Extract subject URL: prefer rel="describes", fall back to rel="canonical"
	subjectURL := payload.Object.FindURLByRel("describes")
	if subjectURL == "" {
		subjectURL = payload.Object.FindURLByRel("canonical")
	}
	if subjectURL == "" {
		return http.StatusBadRequest, nil, "", fmt.Errorf("no subject URL (describes or canonical) found in event")
	}

	eventType := strings.ToLower(payload.Type)
	summary := strings.ToLower(payload.Summary)

	slog.Info("Processing triplestore event",
		"type", eventType,
		"summary", summary,
		"subject", subjectURL,
	)

	if strings.Contains(eventType, "delete") || strings.Contains(summary, "delete") {
		return h.handleDelete(subjectURL)
	}

	return h.handleIndex(payload, subjectURL, token)
}

func (h *IndexerHandler) handleDelete(subjectURL string) (int, []byte, string, error) {
	query := DeleteSubject(subjectURL, h.NamedGraph).Build()

	status, err := h.update(query)
	if err != nil {
		return status, nil, "", err
	}

	slog.Info("Deleted from triplestore", "subject", subjectURL)
	return http.StatusOK, []byte("deleted"), "text/plain", nil
}

func (h *IndexerHandler) handleIndex(payload api.Payload, subjectURL, token string) (int, []byte, string, error) {
	jsonldURL := payload.Object.FindURLByMediaType("application/ld+json")
	if jsonldURL == "" {
		return http.StatusBadRequest, nil, "", fmt.Errorf("no JSON-LD URL found in event")
	}

	jsonldBytes, err := fetchContent(jsonldURL, token)
	if err != nil {
		return http.StatusBadGateway, nil, "", fmt.Errorf("error fetching JSON-LD from %s: %w", jsonldURL, err)
	}

	triples, err := JsonldToTriples(jsonldBytes)
	if err != nil {
		return http.StatusInternalServerError, nil, "", fmt.Errorf("error converting JSON-LD to triples: %w", err)
	}

	query := BuildUpdateQuery(subjectURL, triples, h.NamedGraph)

	status, err := h.update(query)
	if err != nil {
		return status, nil, "", err
	}

	slog.Info("Indexed in triplestore", "subject", subjectURL)
	return http.StatusOK, []byte("indexed"), "text/plain", nil
}

func (h *IndexerHandler) update(query string) (int, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	slog.Debug("Sending triplestore update", "query", query)
	resp, err := h.Client.Update(ctx, query)
	if err != nil {
		var statusErr *sparql.StatusError
		if errors.As(err, &statusErr) {
			return statusErr.StatusCode, fmt.Errorf("triplestore returned %d: %s", statusErr.StatusCode, statusErr.Body)
		}
		return http.StatusBadGateway, fmt.Errorf("error posting to triplestore: %w", err)
	}

	return resp.StatusCode, nil
}

func fetchContent(url, token string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", url, err)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %d", url, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
