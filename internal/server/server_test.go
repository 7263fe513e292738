package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hireline/internal/db"
	"hireline/internal/engine"
	"hireline/internal/migrate"
	"hireline/internal/session"
	sdk "hireline/sdk/go"
)

type testServer struct {
	URL    string
	client *http.Client
	logs   *bytes.Buffer
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func (s *testServer) SDK() *sdk.Client {
	c := sdk.New(s.URL + "/api")
	c.HTTPClient = s.client
	c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return c
}

func newTestServer(t *testing.T, secret string) (*testServer, func()) {
	t.Helper()
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	e := engine.New(conn, logger)
	handler, err := New(Config{Engine: e, BasePath: "/api", JWTSecret: secret, Logger: logger})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{Timeout: 10 * time.Second},
		logs:   logs,
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type seeded struct {
	job       sdk.Job
	candidate sdk.Candidate
	app       sdk.Application
}

func seed(t *testing.T, c *sdk.Client) seeded {
	t.Helper()
	ctx := context.Background()
	dept, err := c.Departments.Create(ctx, sdk.Department{Name: "Engineering"})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	job, err := c.Jobs.Create(ctx, sdk.Job{Title: "Backend Engineer", DepartmentID: dept.ID, IsActive: true})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	cand, err := c.Candidates.Create(ctx, sdk.Candidate{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	app, err := c.Applications.Create(ctx, sdk.Application{JobID: job.ID, CandidateID: cand.ID})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	return seeded{job: job, candidate: cand, app: app}
}

func TestApplicationExpandsJobAndCandidate(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()
	c := srv.SDK()
	s := seed(t, c)

	if s.app.Stage != engine.InitialStage || s.app.Status != engine.InitialStatus {
		t.Fatalf("unexpected defaults stage=%q status=%q", s.app.Stage, s.app.Status)
	}
	got, err := c.Applications.Get(context.Background(), s.app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Job == nil || got.Job.Department == nil || got.Job.Department.Name != "Engineering" {
		t.Fatalf("job not expanded: %+v", got.Job)
	}
	if got.Candidate == nil || got.Candidate.Email != "ada@example.com" {
		t.Fatalf("candidate not expanded: %+v", got.Candidate)
	}
	if len(got.History) != 1 || got.History[0].Action != "applied" {
		t.Fatalf("expected applied entry, got %+v", got.History)
	}

	byJob, err := c.Applications.ListByJob(context.Background(), s.job.ID)
	if err != nil {
		t.Fatalf("list by job: %v", err)
	}
	if len(byJob) != 1 {
		t.Fatalf("expected 1 application for job, got %d", len(byJob))
	}
	none, err := c.Applications.ListByJob(context.Background(), "other-job")
	if err != nil {
		t.Fatalf("list by other job: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no applications, got %d", len(none))
	}
}

func TestLifecycleWritesJourney(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()
	c := srv.SDK()
	s := seed(t, c)
	ctx := sdk.WithActor(context.Background(), "Grace")

	moved, err := c.Applications.MoveToStage(ctx, s.app.ID, "interview", sdk.MoveOptions{Notes: "strong portfolio"})
	if err != nil {
		t.Fatalf("move to stage: %v", err)
	}
	if moved.Stage != "interview" {
		t.Fatalf("expected interview stage, got %q", moved.Stage)
	}
	if _, err := c.Applications.ScheduleScreening(ctx, s.app.ID, sdk.Screening{Date: "2026-11-02T10:00:00Z", Platform: "meet"}); err != nil {
		t.Fatalf("schedule screening: %v", err)
	}
	rejected, err := c.Applications.Reject(ctx, s.app.ID, "position filled", sdk.RejectOptions{})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != engine.RejectedStatus || rejected.RejectionReason != "position filled" || rejected.RejectedBy != "Grace" {
		t.Fatalf("unexpected rejection fields: %+v", rejected)
	}

	journey, err := c.Applications.Journey(ctx, s.app.ID)
	if err != nil {
		t.Fatalf("journey: %v", err)
	}
	var actions []string
	for _, h := range journey {
		actions = append(actions, h.Action)
	}
	want := "applied,stage_change,screening_scheduled,rejected"
	if strings.Join(actions, ",") != want {
		t.Fatalf("journey actions = %v, want %s", actions, want)
	}
	if journey[1].FromStage != "shortlisting" || journey[1].ToStage != "interview" || journey[1].MovedBy != "Grace" {
		t.Fatalf("unexpected move entry: %+v", journey[1])
	}
	if !strings.Contains(srv.logs.String(), "screening email queued") {
		t.Fatalf("expected screening email log, got %s", srv.logs.String())
	}
}

func TestRejectWithoutReasonIsRefused(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()
	s := seed(t, srv.SDK())

	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/applications/"+s.app.ID+"/reject", map[string]any{
		"reason":     "  ",
		"rejectedBy": "Grace",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(body))
	}
	var env sdk.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Success || env.Error != "rejection reason is required" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestCommentsGetServerIDs(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()
	c := srv.SDK()
	s := seed(t, c)
	ctx := context.Background()

	if _, err := c.Applications.AddComment(ctx, s.app.ID, sdk.NewComment{Text: "first", Author: "Grace"}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	comments, err := c.Applications.AddComment(ctx, s.app.ID, sdk.NewComment{Text: "second", Author: "Alan", Stage: "interview"})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	for _, cm := range comments {
		if cm.ID == "" || cm.Timestamp == "" {
			t.Fatalf("comment missing id or timestamp: %+v", cm)
		}
	}
	if comments[0].ID == comments[1].ID {
		t.Fatalf("comment ids collide: %s", comments[0].ID)
	}
	if comments[0].Text != "first" || comments[1].Text != "second" {
		t.Fatalf("comment order not kept: %q, %q", comments[0].Text, comments[1].Text)
	}
}

func TestNotFoundUsesEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()

	_, err := srv.SDK().Jobs.Get(context.Background(), "missing")
	var apiErr *sdk.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || !strings.Contains(apiErr.Message, "not found") {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if apiErr.RequestID == "" {
		t.Fatalf("expected request id on error")
	}
}

func TestPublicApplyWithoutToken(t *testing.T) {
	srv, cleanup := newTestServer(t, "sandbox-secret")
	defer cleanup()
	c := srv.SDK()
	ctx := context.Background()

	token, err := session.Issue("sandbox-secret", session.IssueOptions{Subject: "u-1", Name: "Grace"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	c.BearerToken = token
	job, err := c.Jobs.Create(ctx, sdk.Job{Title: "Designer", IsActive: true})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	anon := srv.SDK()
	env, err := anon.Applications.PublicApply(ctx, sdk.PublicApplication{
		JobID:     job.ID,
		FirstName: "Linus",
		Email:     "linus@example.com",
	})
	if err != nil {
		t.Fatalf("public apply: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success envelope: %+v", env)
	}
	if _, err := anon.Jobs.List(ctx, nil); err == nil {
		t.Fatalf("expected anonymous list to be refused")
	}

	_, err = anon.Applications.PublicApply(ctx, sdk.PublicApplication{JobID: job.ID, FirstName: "Linus", Email: "LINUS@example.com"})
	var apiErr *sdk.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected duplicate application to be refused, got %v", err)
	}

	apps, err := c.Applications.ListByJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if len(apps) != 1 || apps[0].Candidate == nil || apps[0].Candidate.Email != "linus@example.com" {
		t.Fatalf("unexpected applications: %+v", apps)
	}
}

func TestUploadAndSignedURL(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()
	c := srv.SDK()
	ctx := context.Background()

	up, err := c.UploadResume(ctx, "cv.pdf", strings.NewReader("%PDF-1.4 resume"))
	if err != nil {
		t.Fatalf("upload resume: %v", err)
	}
	if !strings.HasPrefix(up.Key, "resumes/") || !strings.HasSuffix(up.Key, ".pdf") {
		t.Fatalf("unexpected key %q", up.Key)
	}
	signed, err := c.SignedURL(ctx, up.Key)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	res, body := doJSON(t, srv.Client(), http.MethodGet, signed.URL, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("download status %d: %s", res.StatusCode, string(body))
	}
	if string(body) != "%PDF-1.4 resume" {
		t.Fatalf("unexpected download body %q", string(body))
	}

	bad, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/files/"+up.Key+"?token=forged", nil, nil)
	if bad.StatusCode != http.StatusForbidden {
		t.Fatalf("expected forged link to be refused, got %d", bad.StatusCode)
	}

	if _, err := c.UploadResume(ctx, "cv.exe", strings.NewReader("MZ")); err == nil {
		t.Fatalf("expected unsupported resume type to fail")
	}
}

func TestOversizeUploadIsTooLarge(t *testing.T) {
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler, err := New(Config{Engine: engine.New(conn, logger), BasePath: "/api", Logger: logger})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "cv.pdf")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), maxUploadBytes+1)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload/resume", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error != "Failed to upload resume" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t, "")
	defer cleanup()

	doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/metrics", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", res.StatusCode)
	}
	if !strings.Contains(string(body), "hireline_sandbox_requests_total") {
		t.Fatalf("metrics missing request counter: %s", string(body))
	}
}
