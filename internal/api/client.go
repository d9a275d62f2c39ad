// Package api talks to the todo backend over its REST surface:
//
//	GET    /todos
//	POST   /todos
//	PATCH  /todos/{id}
//	DELETE /todos/{id}
//	DELETE /todos/{id}/notes/{noteId}
package api

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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Makepad-fr/tada-client/internal/model"
)

const (
	collectionPath = "todos"
	notesPath      = "notes"

	// how much of an error body we keep for logs
	errBodyLimit = 512
)

// Options configure a Client.
type Options struct {
	BaseURL string
	Token   string        // bearer token, optional
	Timeout time.Duration // 0 leaves the transport default

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *log.Logger

	// ValidateResponses checks GET /todos bodies against the bundled schema
	// and logs violations as warnings.
	ValidateResponses bool
}

// Client is a thin HTTP client for the todo backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	log    *log.Logger
	schema *jsonschema.Schema
}

// New validates the options and returns a ready client.
func New(opt Options) (*Client, error) {
	raw := strings.TrimSpace(opt.BaseURL)
	if raw == "" {
		return nil, errors.New("api: empty base url")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", base.Scheme)
	}

	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opt.Timeout}
	}
	logger := opt.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Client{
		base:  base,
		http:  hc,
		token: strings.TrimSpace(opt.Token),
		log:   logger.WithPrefix("api"),
	}
	if opt.ValidateResponses {
		s, err := compileTodosSchema()
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		c.schema = s
	}
	return c, nil
}

// List fetches the whole collection.
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	body, err := c.do(ctx, http.MethodGet, c.todosURL(), nil)
	if err != nil {
		return nil, err
	}
	if c.schema != nil {
		for _, v := range contractViolations(c.schema, body) {
			c.log.Warn("response violates todo contract", "violation", v)
		}
	}
	var todos []model.Todo
	if err := json.Unmarshal(body, &todos); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	return todos, nil
}

// Create posts a new todo. The response body is not used.
func (c *Client) Create(ctx context.Context, in model.CreateTodo) error {
	_, err := c.do(ctx, http.MethodPost, c.todosURL(), in)
	return err
}

// Update sends a partial update for one todo.
func (c *Client) Update(ctx context.Context, id model.ID, in model.UpdateTodo) error {
	u, err := c.todoURL(id)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPatch, u, in)
	return err
}

// Delete removes one todo.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	u, err := c.todoURL(id)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, u, nil)
	return err
}

// DeleteNote removes one note of a todo.
func (c *Client) DeleteNote(ctx context.Context, todoID, noteID model.ID) error {
	u, err := c.todoURL(todoID)
	if err != nil {
		return err
	}
	if err := checkID(noteID); err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, u.JoinPath(notesPath, url.PathEscape(noteID.String())), nil)
	return err
}

func (c *Client) todosURL() *url.URL { return c.base.JoinPath(collectionPath) }

func (c *Client) todoURL(id model.ID) (*url.URL, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return c.base.JoinPath(collectionPath, url.PathEscape(id.String())), nil
}

// checkID rejects ids that JoinPath would clean into another resource.
func checkID(id model.ID) error {
	s := id.String()
	if s == "" || s == "." || s == ".." || strings.Contains(s, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return nil
}

// do sends one request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method string, u *url.URL, payload any) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", method, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		"method", method,
		"path", u.Path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"took", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return nil, &StatusError{
			Method: method,
			Path:   u.Path,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, u.Path, err)
	}
	return body, nil
}
