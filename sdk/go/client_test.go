package hirelinesdk_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "hireline/sdk/go"
)

type recorded struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// recorder is a fake backend that remembers every request and answers with
// the status and body configured for it.
type recorder struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	body     string
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.requests = append(r.requests, recorded{Method: req.Method, Path: req.URL.RequestURI(), Header: req.Header.Clone(), Body: b})
	status, body := r.status, r.body
	r.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (r *recorder) last(t *testing.T) recorded {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests, "no request reached the backend")
	return r.requests[len(r.requests)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func newClient(t *testing.T, rec *recorder) (*sdk.Client, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	logs := &bytes.Buffer{}
	c := sdk.New(srv.URL + "/api/")
	c.HTTPClient = srv.Client()
	c.Logger = slog.New(slog.NewJSONHandler(logs, nil))
	return c, logs
}

func decodeBody(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestListUnwrapsEnvelope(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":[{"id":"j1","title":"Backend Engineer","isActive":true}]}`}
	c, _ := newClient(t, rec)
	c.BearerToken = "tok"

	jobs, err := c.Jobs.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)

	req := rec.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/jobs", req.Path)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get(sdk.RequestIDHeader))
}

func TestErrorUsesEnvelopeMessage(t *testing.T) {
	rec := &recorder{status: http.StatusNotFound, body: `{"success":false,"error":"job not found"}`}
	c, logs := newClient(t, rec)

	_, err := c.Jobs.Get(context.Background(), "missing")
	var apiErr *sdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "job not found", apiErr.Message)
	assert.Equal(t, "jobs.get", apiErr.Op)
	assert.Equal(t, 1, rec.count(), "requests are never retried")

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "api request failed", line["msg"])
	assert.Equal(t, apiErr.RequestID, line["request_id"])
	assert.Equal(t, rec.last(t).Header.Get(sdk.RequestIDHeader), apiErr.RequestID)
}

func TestErrorFallsBackToOperationMessage(t *testing.T) {
	rec := &recorder{status: http.StatusInternalServerError}
	c, _ := newClient(t, rec)

	_, err := c.Candidates.Create(context.Background(), sdk.Candidate{FirstName: "Ada", Email: "ada@example.com"})
	var apiErr *sdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Failed to create candidate", apiErr.Message)
}

func TestItemIDIsPathEscaped(t *testing.T) {
	rec := &recorder{body: `{"success":true}`}
	c, _ := newClient(t, rec)

	require.NoError(t, c.Interviews.Delete(context.Background(), "a/b"))
	assert.Equal(t, "/api/interviews/a%2Fb", rec.last(t).Path)
}

func TestRejectRequiresReasonAndActor(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":{"id":"a1","status":"rejected"}}`}
	c, _ := newClient(t, rec)
	ctx := context.Background()

	_, err := c.Applications.Reject(ctx, "a1", "  ", sdk.RejectOptions{RejectedBy: "kim"})
	assert.ErrorIs(t, err, sdk.ErrReasonRequired)

	c.DefaultActor = ""
	_, err = c.Applications.Reject(ctx, "a1", "not a fit", sdk.RejectOptions{})
	assert.ErrorIs(t, err, sdk.ErrActorRequired)
	assert.Zero(t, rec.count())

	app, err := c.Applications.Reject(sdk.WithActor(ctx, "kim"), "a1", "not a fit", sdk.RejectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "rejected", app.Status)

	req := rec.last(t)
	assert.Equal(t, "/api/applications/a1/reject", req.Path)
	body := decodeBody(t, req.Body)
	assert.Equal(t, "not a fit", body["reason"])
	assert.Equal(t, "kim", body["rejectedBy"])
}

func TestBareClientRejectsAsAdmin(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":{"id":"a1","status":"rejected"}}`}
	c, _ := newClient(t, rec)
	assert.Equal(t, "Admin", c.DefaultActor)

	_, err := c.Applications.Reject(context.Background(), "a1", "not a fit", sdk.RejectOptions{})
	require.NoError(t, err)
	body := decodeBody(t, rec.last(t).Body)
	assert.Equal(t, "Admin", body["rejectedBy"])
	assert.Equal(t, "not a fit", body["reason"])

	_, err = c.Applications.Reject(sdk.WithActor(context.Background(), "kim"), "a1", "not a fit", sdk.RejectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "kim", decodeBody(t, rec.last(t).Body)["rejectedBy"], "session actor wins over the default")
}

func TestMoveToStageDefaults(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":{"id":"a1","stage":"interview"}}`}
	c, _ := newClient(t, rec)

	_, err := c.Applications.MoveToStage(context.Background(), "a1", "interview", sdk.MoveOptions{})
	require.NoError(t, err)

	req := rec.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/applications/a1/move-to-stage", req.Path)
	body := decodeBody(t, req.Body)
	assert.Equal(t, "interview", body["stage"])
	assert.Equal(t, "Admin", body["movedBy"])
	assert.Equal(t, sdk.ActionStageChange, body["action"])
}

func TestExplicitActorWinsOverContext(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":{"id":"a1"}}`}
	c, _ := newClient(t, rec)
	ctx := sdk.WithActor(context.Background(), "ctx-user")

	_, err := c.Applications.MoveToStage(ctx, "a1", "offer", sdk.MoveOptions{MovedBy: "lee", Action: "fast_track", Notes: "strong loop"})
	require.NoError(t, err)
	body := decodeBody(t, rec.last(t).Body)
	assert.Equal(t, "lee", body["movedBy"])
	assert.Equal(t, "fast_track", body["action"])
	assert.Equal(t, "strong loop", body["notes"])
}

func TestAddCommentReturnsServerLog(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":[{"id":"c1","text":"great","author":"kim","timestamp":"2024-03-01T10:00:00Z"}]}`}
	c, _ := newClient(t, rec)

	_, err := c.Applications.AddComment(context.Background(), "a1", sdk.NewComment{Text: " "})
	assert.ErrorIs(t, err, sdk.ErrTextRequired)

	comments, err := c.Applications.AddComment(sdk.WithActor(context.Background(), "kim"), "a1", sdk.NewComment{Text: "great"})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "c1", comments[0].ID)

	body := decodeBody(t, rec.last(t).Body)
	assert.Equal(t, "kim", body["author"])
	assert.NotContains(t, body, "id")
}

func TestPublicApplySendsNoCredentials(t *testing.T) {
	rec := &recorder{status: http.StatusCreated, body: `{"success":true,"message":"Application submitted","data":{"applicationId":"a9"}}`}
	c, _ := newClient(t, rec)
	c.BearerToken = "secret-token"

	env, err := c.Applications.PublicApply(context.Background(), sdk.PublicApplication{JobID: "j1", FirstName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "Application submitted", env.Message)
	assert.Empty(t, rec.last(t).Header.Get("Authorization"))
	assert.Equal(t, "/api/applications/public-apply", rec.last(t).Path)
}

func TestSignedURLKeepsKeySlashes(t *testing.T) {
	rec := &recorder{body: `{"success":true,"data":{"url":"http://files/x","expiresAt":"2024-01-01T00:00:00Z"}}`}
	c, _ := newClient(t, rec)

	link, err := c.SignedURL(context.Background(), "/resumes/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://files/x", link.URL)
	assert.Equal(t, "/api/upload/signed-url/resumes/abc.pdf", rec.last(t).Path)
}

func TestUploadResumeIsMultipart(t *testing.T) {
	var gotName, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, h, err := r.FormFile("file")
		if err == nil {
			b, _ := io.ReadAll(f)
			gotName, gotContent = h.Filename, string(b)
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"key":"resumes/1.pdf","filename":"cv.pdf"}}`)
	}))
	t.Cleanup(srv.Close)
	c := sdk.New(srv.URL)
	c.HTTPClient = srv.Client()

	res, err := c.UploadResume(context.Background(), "cv.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "resumes/1.pdf", res.Key)
	assert.Equal(t, "cv.pdf", gotName)
	assert.Equal(t, "%PDF-1.4", gotContent)
}

func TestEmptyBodyIsEmptyEnvelope(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	c, _ := newClient(t, rec)
	assert.NoError(t, c.Tasks.Delete(context.Background(), "t1"))
}

func TestMalformedBodyIsAnError(t *testing.T) {
	rec := &recorder{body: `<html>`}
	c, _ := newClient(t, rec)
	_, err := c.Roles.List(context.Background(), nil)
	require.Error(t, err)
	var apiErr *sdk.APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "decode response")
}

func TestMetricsCountRequests(t *testing.T) {
	rec := &recorder{status: http.StatusBadRequest, body: `{"success":false,"error":"bad"}`}
	c, _ := newClient(t, rec)
	reg := prometheus.NewRegistry()
	m, err := sdk.NewMetrics(reg)
	require.NoError(t, err)
	c.Metrics = m

	_, _ = c.Applications.UpdateStatus(context.Background(), "a1", "active")
	_, _ = c.Applications.UpdateStatus(context.Background(), "a1", "active")

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != "hireline_client_requests_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			assert.Equal(t, "applications.update_status", labels["op"])
			assert.Equal(t, "400", labels["code"])
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), total)

	_, err = sdk.NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}
