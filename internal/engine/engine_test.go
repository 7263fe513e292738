package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"hireline/internal/db"
	"hireline/internal/migrate"
	"hireline/internal/repo"
	sdk "hireline/sdk/go"
)

func newTestEngine(t *testing.T) (Engine, *bytes.Buffer) {
	t.Helper()
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logs := &bytes.Buffer{}
	e := New(conn, slog.New(slog.NewTextHandler(logs, nil)))
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return e, logs
}

func mustCreate(t *testing.T, e Engine, kind string, v any) string {
	t.Helper()
	doc, err := repo.Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	created, err := e.Store().CreateDocument(context.Background(), kind, doc)
	if err != nil {
		t.Fatalf("create %s: %v", kind, err)
	}
	return created["id"].(string)
}

func seed(t *testing.T, e Engine) (jobID, candidateID string) {
	t.Helper()
	jobID = mustCreate(t, e, repo.KindJobs, sdk.Job{Title: "Platform Engineer", IsActive: true})
	candidateID = mustCreate(t, e, repo.KindCandidates, sdk.Candidate{FirstName: "Ada", Email: "ada@example.com"})
	return jobID, candidateID
}

func TestCreateApplicationDefaults(t *testing.T) {
	e, _ := newTestEngine(t)
	jobID, candID := seed(t, e)

	app, err := e.CreateApplication(context.Background(), sdk.Application{JobID: jobID, CandidateID: candID}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if app.Stage != InitialStage || app.Status != InitialStatus || app.AppliedAt == "" {
		t.Fatalf("defaults not applied: %+v", app)
	}
	if len(app.History) != 1 || app.History[0].Action != "applied" || app.History[0].MovedBy != "system" {
		t.Fatalf("history = %+v", app.History)
	}
	if app.Job == nil || app.Candidate == nil {
		t.Fatal("job and candidate should be expanded")
	}
}

func TestCreateApplicationUnknownJob(t *testing.T) {
	e, _ := newTestEngine(t)
	_, candID := seed(t, e)
	_, err := e.CreateApplication(context.Background(), sdk.Application{JobID: "nope", CandidateID: candID}, "kim")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUpdateStageLogsOnlyWithActor(t *testing.T) {
	e, _ := newTestEngine(t)
	jobID, candID := seed(t, e)
	ctx := context.Background()
	app, err := e.CreateApplication(ctx, sdk.Application{JobID: jobID, CandidateID: candID}, "kim")
	if err != nil {
		t.Fatal(err)
	}

	app, err = e.UpdateStage(ctx, app.ID, "screening", "")
	if err != nil {
		t.Fatal(err)
	}
	if app.Stage != "screening" || len(app.History) != 1 {
		t.Fatalf("anonymous stage update should not log: %+v", app.History)
	}

	app, err = e.UpdateStage(ctx, app.ID, "interview", "kim")
	if err != nil {
		t.Fatal(err)
	}
	last := app.History[len(app.History)-1]
	if last.Action != "stage_update" || last.FromStage != "screening" || last.ToStage != "interview" {
		t.Fatalf("last entry = %+v", last)
	}
}

func TestUpdateStatusRefusesRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.UpdateStatus(context.Background(), "any", RejectedStatus)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
}

func TestRejectStampsApplication(t *testing.T) {
	e, _ := newTestEngine(t)
	jobID, candID := seed(t, e)
	ctx := context.Background()
	app, err := e.CreateApplication(ctx, sdk.Application{JobID: jobID, CandidateID: candID}, "kim")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Reject(ctx, app.ID, "", "kim"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing reason: err = %v", err)
	}
	app, err = e.Reject(ctx, app.ID, "salary mismatch", "kim")
	if err != nil {
		t.Fatal(err)
	}
	if app.Status != RejectedStatus || app.RejectionReason != "salary mismatch" || app.RejectedBy != "kim" || app.RejectedAt == "" {
		t.Fatalf("reject fields: %+v", app)
	}
	last := app.History[len(app.History)-1]
	if last.Action != "rejected" || last.Notes != "salary mismatch" {
		t.Fatalf("last entry = %+v", last)
	}
}

func TestReplaceKeepsJourney(t *testing.T) {
	e, _ := newTestEngine(t)
	jobID, candID := seed(t, e)
	ctx := context.Background()
	app, err := e.CreateApplication(ctx, sdk.Application{JobID: jobID, CandidateID: candID}, "kim")
	if err != nil {
		t.Fatal(err)
	}
	replaced, err := e.ReplaceApplication(ctx, app.ID, sdk.Application{JobID: jobID, CandidateID: candID, CoverLetter: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if replaced.CoverLetter != "hello" || replaced.Stage != InitialStage || len(replaced.History) != 1 {
		t.Fatalf("replace: %+v", replaced)
	}
	if replaced.CreatedAt != app.CreatedAt {
		t.Fatalf("createdAt changed: %q -> %q", app.CreatedAt, replaced.CreatedAt)
	}
	_, err = e.ReplaceApplication(ctx, app.ID, sdk.Application{Status: RejectedStatus})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("rejected without reason: err = %v", err)
	}
}

func TestScheduleScreeningLogsEmail(t *testing.T) {
	e, logs := newTestEngine(t)
	jobID, candID := seed(t, e)
	ctx := context.Background()
	app, err := e.CreateApplication(ctx, sdk.Application{JobID: jobID, CandidateID: candID}, "kim")
	if err != nil {
		t.Fatal(err)
	}
	app, err = e.ScheduleScreening(ctx, app.ID, sdk.Screening{Date: "2024-03-05T10:00:00Z", Interviewer: "lee", Platform: "meet"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if app.ScreeningInterviewer != "lee" || app.ScreeningPlatform != "meet" {
		t.Fatalf("screening fields: %+v", app)
	}
	last := app.History[len(app.History)-1]
	if last.Action != "screening_scheduled" || last.MovedBy != "lee" {
		t.Fatalf("last entry = %+v", last)
	}
	if !strings.Contains(logs.String(), "screening email queued") || !strings.Contains(logs.String(), "ada@example.com") {
		t.Fatalf("email not logged: %s", logs.String())
	}
}

func TestAddCommentValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.AddComment(context.Background(), "a1", sdk.NewComment{Text: "hi"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	if _, err := e.AddComment(context.Background(), "missing", sdk.NewComment{Text: "hi", Author: "kim"}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPublicApplyReusesCandidateByEmail(t *testing.T) {
	e, _ := newTestEngine(t)
	jobID, candID := seed(t, e)
	otherJob := mustCreate(t, e, repo.KindJobs, sdk.Job{Title: "SRE", IsActive: true})
	ctx := context.Background()

	res, err := e.PublicApply(ctx, sdk.PublicApplication{JobID: jobID, FirstName: "Ada", Email: "ADA@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CandidateID != candID {
		t.Fatalf("candidate = %s, want existing %s", res.CandidateID, candID)
	}
	if _, err := e.PublicApply(ctx, sdk.PublicApplication{JobID: jobID, FirstName: "Ada", Email: "ada@example.com"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate: err = %v", err)
	}
	res2, err := e.PublicApply(ctx, sdk.PublicApplication{JobID: otherJob, FirstName: "Grace", Email: "grace@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if res2.CandidateID == "" || res2.CandidateID == candID {
		t.Fatalf("expected a new candidate, got %q", res2.CandidateID)
	}
	journey, err := e.Journey(ctx, res2.ApplicationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(journey) != 1 || journey[0].MovedBy != "public-apply" {
		t.Fatalf("journey = %+v", journey)
	}
}

func TestPublicApplyInactiveJob(t *testing.T) {
	e, _ := newTestEngine(t)
	closed := mustCreate(t, e, repo.KindJobs, sdk.Job{Title: "Closed", IsActive: false})
	_, err := e.PublicApply(context.Background(), sdk.PublicApplication{JobID: closed, FirstName: "Ada", Email: "ada@example.com"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
}
