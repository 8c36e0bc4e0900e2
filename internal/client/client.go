// Package client talks to the contacts API over HTTP and keeps an in-memory contact list in step
// with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/pkg/envelope"
)

// Error is a failure answered by the API.
type Error struct {
	Status   int
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("contacts api: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("contacts api: %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// Client is an HTTP client of the contacts API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API at baseURL, e.g. "http://localhost:5000". A nil httpClient
// selects http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// List returns all contacts in the order the server sent them.
func (c *Client) List(ctx context.Context) ([]model.Contact, error) {
	status, body, err := c.sendRequest(ctx, http.MethodGet, "/contacts", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, failure(status, body)
	}
	var contacts []model.Contact
	if err := json.Unmarshal(body, &contacts); err != nil {
		return nil, fmt.Errorf("could not unmarshal contacts: %w", err)
	}
	return contacts, nil
}

// Get returns the contact with the given id.
func (c *Client) Get(ctx context.Context, id string) (model.Contact, error) {
	return c.contactRequest(ctx, http.MethodGet, contactPath(id), nil)
}

// Create stores a new contact and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, draft model.Draft) (model.Contact, error) {
	return c.contactRequest(ctx, http.MethodPost, "/contacts", draft)
}

// Update replaces all fields of the contact with the given id.
func (c *Client) Update(ctx context.Context, id string, patch model.Draft) (model.Contact, error) {
	return c.contactRequest(ctx, http.MethodPut, contactPath(id), patch)
}

// Delete removes the contact with the given id and returns the server's confirmation.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	status, body, err := c.sendRequest(ctx, http.MethodDelete, contactPath(id), nil)
	if err != nil {
		return "", err
	}
	response, err := decodeResponse(status, body)
	if err != nil {
		return "", err
	}
	return response.Message, nil
}

// Health returns nil if the API reports that its store is reachable.
func (c *Client) Health(ctx context.Context) error {
	status, body, err := c.sendRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		var health struct {
			Status string `json:"status"`
		}
		if json.Unmarshal(body, &health) == nil && health.Status != "" {
			return &Error{Status: status, Messages: []string{health.Status}}
		}
		return &Error{Status: status}
	}
	return nil
}

func (c *Client) contactRequest(ctx context.Context, method string, path string, payload any) (model.Contact, error) {
	var contact model.Contact
	status, body, err := c.sendRequest(ctx, method, path, payload)
	if err != nil {
		return contact, err
	}
	response, err := decodeResponse(status, body)
	if err != nil {
		return contact, err
	}
	if err := response.DecodeData(&contact); err != nil {
		return contact, fmt.Errorf("could not unmarshal contact: %w", err)
	}
	return contact, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, path string, payload any) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("could not marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("could not create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("error making http request: %w", err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("could not read response body: %w", err)
	}
	return res.StatusCode, resBody, nil
}

// decodeResponse unmarshals an envelope and turns a failure envelope into an *Error.
func decodeResponse(status int, body []byte) (envelope.Response, error) {
	var response envelope.Response
	if err := json.Unmarshal(body, &response); err != nil {
		return response, &Error{Status: status}
	}
	if status >= http.StatusBadRequest || !response.Success {
		return response, &Error{Status: status, Messages: response.Errors()}
	}
	return response, nil
}

func failure(status int, body []byte) error {
	var response envelope.Response
	if json.Unmarshal(body, &response) == nil {
		return &Error{Status: status, Messages: response.Errors()}
	}
	return &Error{Status: status}
}

func contactPath(id string) string {
	return "/contacts/" + url.PathEscape(id)
}
