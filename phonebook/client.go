package phonebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Entry is the name and number being edited before it is submitted.
type Entry struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Service is the remote contact resource.
type Service interface {
	ListAll(ctx context.Context) ([]Contact, error)
	Create(ctx context.Context, entry Entry) (Contact, error)
	Update(ctx context.Context, id string, contact Contact) (Contact, error)
	DeleteByID(ctx context.Context, id string) error
}

// ErrNotFound matches errors for contacts that no longer exist on the server.
var ErrNotFound = errors.New("phonebook: contact not found")

// ServiceError is a non-2xx response of the contact resource.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("phonebook: %d %s", e.Status, e.Message)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client implements [Service] over HTTP.
type Client struct {
	base    string
	client  *http.Client
	timeout time.Duration
}

var _ Service = (*Client)(nil)

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.client = client }
}

// WithTimeout bounds every request. Zero, the default, means no timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// NewClient returns a client for the collection at baseURL, e.g. http://localhost:8888/api/persons/.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimSuffix(baseURL, "/"),
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListAll(ctx context.Context) ([]Contact, error) {
	var contacts []Contact
	if err := c.do(ctx, http.MethodGet, c.collection(), nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (c *Client) Create(ctx context.Context, entry Entry) (Contact, error) {
	var created Contact
	err := c.do(ctx, http.MethodPost, c.collection(), entry, &created)
	return created, err
}

func (c *Client) Update(ctx context.Context, id string, contact Contact) (Contact, error) {
	var updated Contact
	err := c.do(ctx, http.MethodPut, c.item(id), contact, &updated)
	return updated, err
}

func (c *Client) DeleteByID(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.item(id), nil, nil)
}

func (c *Client) collection() string   { return c.base + "/" }
func (c *Client) item(id string) string { return c.base + "/" + url.PathEscape(id) }

// do sends in as JSON and decodes a 2xx body into out when out is not nil.
func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("phonebook: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("phonebook: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("phonebook: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 { //nolint: mnd // 2XX HTTP Status Codes
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("phonebook: decode %s %s: %w", method, target, err)
	}
	return nil
}

// responseError reads the {"error": "..."} body of a failed response.
func responseError(resp *http.Response) *ServiceError {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body) //nolint: mnd // arbitrary
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return &ServiceError{Status: resp.StatusCode, Message: body.Error}
}
