// Package event models verified webhook payloads and routes them to
// registered handlers.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload marks a request body that is not valid JSON. The
// request is dead at that point: no authentication or dispatch happens.
var ErrMalformedPayload = errors.New("malformed payload")

// Payload is the parsed webhook body. Created once per request from the raw
// bytes and read-only thereafter; signature verification always runs on the
// raw bytes, never on a re-serialization of this struct.
type Payload struct {
	Action       string        `json:"action"`
	Repository   Repository    `json:"repository"`
	Issue        *Issue        `json:"issue,omitempty"`
	Installation *Installation `json:"installation,omitempty"`
	Sender       Account       `json:"sender"`
}

// Repository identifies the repository the event concerns.
type Repository struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	FullName string  `json:"full_name"`
	Owner    Account `json:"owner"`
}

// Issue identifies the issue/resource the event concerns.
type Issue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// Installation carries the app installation the event belongs to.
type Installation struct {
	ID int64 `json:"id"`
}

// Account is a user or organization reference.
type Account struct {
	Login string `json:"login"`
}

// ParsePayload decodes the raw body into a Payload.
func ParsePayload(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

// InstallationID returns the installation the event is scoped to, if any.
func (p *Payload) InstallationID() (int64, bool) {
	if p.Installation == nil || p.Installation.ID == 0 {
		return 0, false
	}
	return p.Installation.ID, true
}
