package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNoEvent is returned when a request carries neither an event header nor a body.
var ErrNoEvent = errors.New("no event in request")

// Payload defines the structure of the JSON event received by the server.
//
// swagger:model Payload
type Payload struct {
	Actor      Actor      `json:"actor" description:"Details of the actor performing the action"`
	Object     Object     `json:"object" description:"Contains details about the object of the action"`
	Attachment Attachment `json:"attachment" description:"Holds additional data related to the action"`
	Type       string     `json:"type" description:"Type of the payload"`
	Summary    string     `json:"summary" description:"Summary of the payload"`
	Target     string     `json:"target,omitempty" description:"Target of the action"`

	// Authorization is the header the event arrived with. It is never decoded
	// from the event body.
	Authorization string `json:"-"`
}

// Actor represents an entity performing an action.
//
// swagger:model Actor
type Actor struct {
	ID string `json:"id" description:"Unique identifier for the actor"`
}

// Object contains details about the object of the action.
//
// swagger:model Object
type Object struct {
	ID           string `json:"id" description:"Unique identifier for the object"`
	URL          []Link `json:"url" description:"List of hyperlinks related to the object"`
	IsNewVersion bool   `json:"isNewVersion" description:"Indicates if this is a new version of the object"`
}

// Link describes a hyperlink related to the object.
//
// swagger:model Link
type Link struct {
	Name      string `json:"name" description:"Name of the link"`
	Type      string `json:"type" description:"Type of the link"`
	Href      string `json:"href" description:"Hyperlink reference URL"`
	MediaType string `json:"mediaType" description:"Media type of the linked resource"`
	Rel       string `json:"rel" description:"Relationship type of the link"`
}

// Attachment holds additional data related to the action.
//
// swagger:model Attachment
type Attachment struct {
	Type      string  `json:"type" description:"Type of the attachment"`
	Content   Content `json:"content" description:"Content details within the attachment"`
	MediaType string  `json:"mediaType" description:"Media type of the attachment"`
}

// Content describes specific content details in an attachment.
//
// swagger:model Content
type Content struct {
	SourceURI string `json:"source_uri" description:"Source URI from which the content is fetched"`
	Args      string `json:"args" description:"Arguments used or applicable to the content"`
}

// FindURLByRel returns the href of the first link with the given rel.
func (o Object) FindURLByRel(rel string) string {
	for _, u := range o.URL {
		if u.Rel == rel {
			return u.Href
		}
	}
	return ""
}

// FindURLByMediaType returns the href of the first link with the given media type.
func (o Object) FindURLByMediaType(mediaType string) string {
	for _, u := range o.URL {
		if u.MediaType == mediaType {
			return u.Href
		}
	}
	return ""
}

func DecodeEventMessage(msg []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(msg, &p); err != nil {
		return Payload{}, fmt.Errorf("error decoding event: %w", err)
	}
	return p, nil
}

// DecodeEventRequest reads an event from the base64 X-Islandora-Event header,
// falling back to a JSON request body.
func DecodeEventRequest(r *http.Request, auth string) (Payload, error) {
	var msg []byte
	if h := r.Header.Get("X-Islandora-Event"); h != "" {
		b, err := base64.StdEncoding.DecodeString(h)
		if err != nil {
			return Payload{}, fmt.Errorf("error decoding X-Islandora-Event header: %w", err)
		}
		msg = b
	} else if r.Method == http.MethodPost && r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return Payload{}, fmt.Errorf("error reading request body: %w", err)
		}
		msg = b
	}

	if len(msg) == 0 {
		return Payload{}, ErrNoEvent
	}

	p, err := DecodeEventMessage(msg)
	if err != nil {
		return Payload{}, err
	}
	p.Authorization = auth

	return p, nil
}
