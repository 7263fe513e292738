package hirelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

const defaultFallback = "Request failed"

// Client is the Hireline HTTP API client. It is safe for concurrent use once
// configured.
type Client struct {
	BaseURL      string
	BearerToken  string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       *slog.Logger
	Metrics      *Metrics
	DefaultActor string

	Jobs                 *Collection[Job]
	Candidates           *Collection[Candidate]
	Applications         *Applications
	Users                *Collection[User]
	Roles                *Collection[Role]
	Tasks                *Collection[Task]
	Templates            *Collection[AssignmentTemplate]
	CandidateAssignments *Collection[CandidateAssignment]
	Interviews           *Collection[Interview]
	Departments          *Collection[Department]
	RoleTypes            *Collection[RoleType]
	WorkSetups           *Collection[WorkSetup]
}

// New creates a client for the API rooted at baseURL. DefaultActor starts as
// LegacyDefaultActor.
func New(baseURL string) *Client {
	c := &Client{BaseURL: baseURL, DefaultActor: LegacyDefaultActor}
	c.Jobs = newCollection[Job](c, "jobs", "job")
	c.Candidates = newCollection[Candidate](c, "candidates", "candidate")
	c.Applications = &Applications{Collection: newCollection[Application](c, "applications", "application")}
	c.Users = newCollection[User](c, "users", "user")
	c.Roles = newCollection[Role](c, "roles", "role")
	c.Tasks = newCollection[Task](c, "tasks", "task")
	c.Templates = newCollection[AssignmentTemplate](c, "assignment-templates", "template")
	c.CandidateAssignments = newCollection[CandidateAssignment](c, "candidate-assignments", "assignment")
	c.Interviews = newCollection[Interview](c, "interviews", "interview")
	c.Departments = newCollection[Department](c, "departments", "department")
	c.RoleTypes = newCollection[RoleType](c, "role-types", "role type")
	c.WorkSetups = newCollection[WorkSetup](c, "work-setups", "work setup")
	return c
}

// Envelope is the wrapper every JSON response shares.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode unmarshals the envelope's data into out. Missing data leaves out untouched.
func (e Envelope) Decode(out any) error {
	if out == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// APIError wraps non-2xx responses.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status=%d)", e.Op, e.Message, e.StatusCode)
}

// call describes one request. Op names the operation for logs and metrics.
type call struct {
	Op          string
	Method      string
	Endpoint    string
	Body        any
	Fallback    string
	Anonymous   bool
	ContentType string
	Raw         io.Reader
}

// send issues exactly one request and returns the parsed envelope.
func (c *Client) send(ctx context.Context, cl call) (Envelope, error) {
	requestID := uuid.NewString()
	start := time.Now()
	status, env, err := c.roundTrip(ctx, cl, requestID)
	c.Metrics.observe(cl.Op, cl.Method, status, time.Since(start))
	if err != nil {
		c.logFailure(ctx, cl, requestID, err)
		return Envelope{}, err
	}
	return env, nil
}

// fetch sends cl and decodes the envelope data into out.
func (c *Client) fetch(ctx context.Context, cl call, out any) (Envelope, error) {
	env, err := c.send(ctx, cl)
	if err != nil {
		return Envelope{}, err
	}
	if err := env.Decode(out); err != nil {
		err = fmt.Errorf("%s: decode data: %w", cl.Op, err)
		c.logFailure(ctx, cl, "", err)
		return Envelope{}, err
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, cl call, requestID string) (int, Envelope, error) {
	reader := cl.Raw
	if reader == nil {
		var buf bytes.Buffer
		if cl.Body != nil {
			if err := json.NewEncoder(&buf).Encode(cl.Body); err != nil {
				return 0, Envelope{}, fmt.Errorf("%s: encode body: %w", cl.Op, err)
			}
		}
		reader = &buf
	}
	req, err := http.NewRequestWithContext(ctx, cl.Method, c.url(cl.Endpoint), reader)
	if err != nil {
		return 0, Envelope{}, fmt.Errorf("%s: %w", cl.Op, err)
	}
	contentType := cl.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.BearerToken != "" && !cl.Anonymous {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, Envelope{}, fmt.Errorf("%s: %w", cl.Op, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, Envelope{}, fmt.Errorf("%s: decode response (status=%d): %w", cl.Op, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = cl.Fallback
		}
		if msg == "" {
			msg = defaultFallback
		}
		return resp.StatusCode, Envelope{}, &APIError{
			Op:         cl.Op,
			StatusCode: resp.StatusCode,
			Message:    msg,
			RequestID:  requestID,
		}
	}
	return resp.StatusCode, env, nil
}

func (c *Client) logFailure(ctx context.Context, cl call, requestID string, err error) {
	c.logger().LogAttrs(ctx, slog.LevelError, "api request failed",
		slog.String("op", cl.Op),
		slog.String("method", cl.Method),
		slog.String("endpoint", cl.Endpoint),
		slog.String("request_id", requestID),
		slog.String("error", err.Error()),
	)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	if c.Timeout > 0 {
		return &http.Client{Timeout: c.Timeout}
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Client) url(endpoint string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}
