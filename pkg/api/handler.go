package api

// MessageHandler handles a decoded event. Services such as the
// triplestore-indexer implement it and hand it to the HTTP server.
type MessageHandler interface {
	Handle(payload Payload, auth string) (statusCode int, body []byte, contentType string, err error)
}
