// Package engine applies the sandbox's application lifecycle rules on top of
// the record store. Every transition runs in one transaction and records its
// journey entry in that same transaction.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hireline/internal/events"
	"hireline/internal/repo"
	sdk "hireline/sdk/go"
)

// Pipeline defaults for new applications.
const (
	InitialStage   = "shortlisting"
	InitialStatus  = "active"
	RejectedStatus = "rejected"
)

// ErrInvalid marks input the engine refuses; the server maps it to 400.
var ErrInvalid = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Logger *slog.Logger
	Now    func() time.Time
}

func New(db *sql.DB, logger *slog.Logger) Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Logger: logger,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Store is the record store stamped with the engine clock.
func (e Engine) Store() repo.Repo {
	r := e.Repo
	if r.DB == nil {
		r.DB = e.DB
	}
	r.Now = e.now
	return r
}

// update loads one application, lets fn change it and saves the result. fn may
// append journey entries through the same tx.
func (e Engine) update(ctx context.Context, id string, fn func(tx *sql.Tx, app *sdk.Application) error) (sdk.Application, error) {
	r := e.Store()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return sdk.Application{}, err
	}
	defer tx.Rollback()

	app, err := r.GetApplicationTx(ctx, tx, id)
	if err != nil {
		return sdk.Application{}, err
	}
	if err := fn(tx, &app); err != nil {
		return sdk.Application{}, err
	}
	if err := r.SaveApplicationTx(ctx, tx, app); err != nil {
		return sdk.Application{}, err
	}
	out, err := r.GetApplicationTx(ctx, tx, id)
	if err != nil {
		return sdk.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return sdk.Application{}, err
	}
	return out, nil
}

// CreateApplication stores an application for an existing job and candidate
// and opens its journey.
func (e Engine) CreateApplication(ctx context.Context, app sdk.Application, actor string) (sdk.Application, error) {
	if app.JobID == "" || app.CandidateID == "" {
		return sdk.Application{}, invalid("jobId and candidateId are required")
	}
	if actor == "" {
		actor = "system"
	}
	r := e.Store()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return sdk.Application{}, err
	}
	defer tx.Rollback()
	if _, err := r.GetDocumentTx(ctx, tx, repo.KindJobs, app.JobID); err != nil {
		return sdk.Application{}, err
	}
	if _, err := r.GetDocumentTx(ctx, tx, repo.KindCandidates, app.CandidateID); err != nil {
		return sdk.Application{}, err
	}
	created, err := e.createApplicationTx(ctx, tx, app, actor)
	if err != nil {
		return sdk.Application{}, err
	}
	if err := tx.Commit(); err != nil {
		return sdk.Application{}, err
	}
	return created, nil
}

func (e Engine) createApplicationTx(ctx context.Context, tx *sql.Tx, app sdk.Application, actor string) (sdk.Application, error) {
	r := e.Store()
	if app.Stage == "" {
		app.Stage = InitialStage
	}
	if app.Status == "" {
		app.Status = InitialStatus
	}
	if app.Status == RejectedStatus && strings.TrimSpace(app.RejectionReason) == "" {
		return sdk.Application{}, invalid("rejected applications need a rejection reason")
	}
	if app.AppliedAt == "" {
		app.AppliedAt = repo.Timestamp(e.now())
	}
	created, err := r.CreateApplicationTx(ctx, tx, app)
	if err != nil {
		return sdk.Application{}, err
	}
	if _, err := r.AppendHistoryTx(ctx, tx, events.Entry{
		ApplicationID: created.ID,
		Action:        events.ActionApplied,
		ToStage:       created.Stage,
		Actor:         actor,
	}); err != nil {
		return sdk.Application{}, err
	}
	return r.GetApplicationTx(ctx, tx, created.ID)
}

// ReplaceApplication is the PUT of the applications collection. Journey and
// comments cannot be overwritten this way.
func (e Engine) ReplaceApplication(ctx context.Context, id string, in sdk.Application) (sdk.Application, error) {
	return e.update(ctx, id, func(_ *sql.Tx, app *sdk.Application) error {
		in.ID = app.ID
		in.CreatedAt = app.CreatedAt
		if in.Stage == "" {
			in.Stage = app.Stage
		}
		if in.Status == "" {
			in.Status = app.Status
		}
		if in.Status == RejectedStatus && strings.TrimSpace(in.RejectionReason) == "" {
			return invalid("rejected applications need a rejection reason")
		}
		*app = in
		return nil
	})
}

func (e Engine) UpdateStage(ctx context.Context, id, stage, actor string) (sdk.Application, error) {
	if strings.TrimSpace(stage) == "" {
		return sdk.Application{}, invalid("stage is required")
	}
	return e.update(ctx, id, func(tx *sql.Tx, app *sdk.Application) error {
		from := app.Stage
		app.Stage = stage
		if actor == "" {
			return nil
		}
		_, err := e.Store().AppendHistoryTx(ctx, tx, events.Entry{
			ApplicationID: app.ID,
			Action:        events.ActionStageUpdate,
			FromStage:     from,
			ToStage:       stage,
			Actor:         actor,
		})
		return err
	})
}

func (e Engine) UpdateStatus(ctx context.Context, id, status string) (sdk.Application, error) {
	if strings.TrimSpace(status) == "" {
		return sdk.Application{}, invalid("status is required")
	}
	if status == RejectedStatus {
		return sdk.Application{}, invalid("use the reject endpoint to reject an application")
	}
	return e.update(ctx, id, func(_ *sql.Tx, app *sdk.Application) error {
		app.Status = status
		return nil
	})
}

func (e Engine) Reject(ctx context.Context, id, reason, rejectedBy string) (sdk.Application, error) {
	if strings.TrimSpace(reason) == "" {
		return sdk.Application{}, invalid("rejection reason is required")
	}
	if strings.TrimSpace(rejectedBy) == "" {
		return sdk.Application{}, invalid("rejectedBy is required")
	}
	return e.update(ctx, id, func(tx *sql.Tx, app *sdk.Application) error {
		app.Status = RejectedStatus
		app.RejectionReason = reason
		app.RejectedBy = rejectedBy
		app.RejectedAt = repo.Timestamp(e.now())
		_, err := e.Store().AppendHistoryTx(ctx, tx, events.Entry{
			ApplicationID: app.ID,
			Action:        events.ActionRejected,
			FromStage:     app.Stage,
			Actor:         rejectedBy,
			Notes:         reason,
		})
		return err
	})
}

type MoveOptions struct {
	Stage   string
	MovedBy string
	Notes   string
	Action  string
}

func (e Engine) MoveToStage(ctx context.Context, id string, opts MoveOptions) (sdk.Application, error) {
	if strings.TrimSpace(opts.Stage) == "" {
		return sdk.Application{}, invalid("stage is required")
	}
	if strings.TrimSpace(opts.MovedBy) == "" {
		return sdk.Application{}, invalid("movedBy is required")
	}
	if opts.Action == "" {
		opts.Action = events.ActionStageChange
	}
	return e.update(ctx, id, func(tx *sql.Tx, app *sdk.Application) error {
		from := app.Stage
		app.Stage = opts.Stage
		_, err := e.Store().AppendHistoryTx(ctx, tx, events.Entry{
			ApplicationID: app.ID,
			Action:        opts.Action,
			FromStage:     from,
			ToStage:       opts.Stage,
			Actor:         opts.MovedBy,
			Notes:         opts.Notes,
		})
		return err
	})
}

func (e Engine) SetHotApplicant(ctx context.Context, id string, hot bool) (sdk.Application, error) {
	return e.update(ctx, id, func(_ *sql.Tx, app *sdk.Application) error {
		app.IsHotApplicant = hot
		return nil
	})
}

func (e Engine) SetNeedsAttention(ctx context.Context, id string, flag bool) (sdk.Application, error) {
	return e.update(ctx, id, func(_ *sql.Tx, app *sdk.Application) error {
		app.NeedsAttention = flag
		return nil
	})
}

// ScheduleScreening stores the screening details and records the scheduling
// in the journey. The invitation email is only logged.
func (e Engine) ScheduleScreening(ctx context.Context, id string, s sdk.Screening, actor string) (sdk.Application, error) {
	if strings.TrimSpace(s.Date) == "" {
		return sdk.Application{}, invalid("screeningDate is required")
	}
	if actor == "" {
		actor = s.Interviewer
	}
	if actor == "" {
		actor = "system"
	}
	app, err := e.update(ctx, id, func(tx *sql.Tx, app *sdk.Application) error {
		app.ScreeningDate = s.Date
		app.ScreeningNotes = s.Notes
		app.ScreeningInterviewer = s.Interviewer
		app.ScreeningPlatform = s.Platform
		app.ScreeningLink = s.Link
		app.ScreeningDuration = s.Duration
		_, err := e.Store().AppendHistoryTx(ctx, tx, events.Entry{
			ApplicationID: app.ID,
			Action:        events.ActionScreeningScheduled,
			FromStage:     app.Stage,
			ToStage:       app.Stage,
			Actor:         actor,
			Notes:         s.Notes,
		})
		return err
	})
	if err != nil {
		return sdk.Application{}, err
	}
	to := ""
	if app.Candidate != nil {
		to = app.Candidate.Email
	}
	e.Logger.Info("screening email queued",
		slog.String("application_id", app.ID),
		slog.String("to", to),
		slog.String("screening_date", s.Date),
		slog.String("platform", s.Platform))
	return app, nil
}

// AddComment appends a comment and returns the full list.
func (e Engine) AddComment(ctx context.Context, id string, c sdk.NewComment) ([]sdk.Comment, error) {
	if strings.TrimSpace(c.Text) == "" {
		return nil, invalid("comment text is required")
	}
	if strings.TrimSpace(c.Author) == "" {
		return nil, invalid("comment author is required")
	}
	r := e.Store()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	comments, err := r.AddCommentTx(ctx, tx, id, sdk.Comment{Text: c.Text, Author: c.Author, Stage: c.Stage})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return comments, nil
}

func (e Engine) Journey(ctx context.Context, id string) ([]sdk.HistoryEntry, error) {
	r := e.Store()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return r.JourneyTx(ctx, tx, id)
}

// PublicApplyResult is what an anonymous applicant gets back.
type PublicApplyResult struct {
	ApplicationID string `json:"applicationId"`
	CandidateID   string `json:"candidateId"`
	JobID         string `json:"jobId"`
}

// PublicApply finds or creates the candidate by email and files an application
// for an active job. Applying twice to the same job is refused.
func (e Engine) PublicApply(ctx context.Context, in sdk.PublicApplication) (PublicApplyResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.JobID == "" || email == "" || strings.TrimSpace(in.FirstName) == "" {
		return PublicApplyResult{}, invalid("jobId, firstName and email are required")
	}
	r := e.Store()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return PublicApplyResult{}, err
	}
	defer tx.Rollback()

	jobDoc, err := r.GetDocumentTx(ctx, tx, repo.KindJobs, in.JobID)
	if err != nil {
		return PublicApplyResult{}, err
	}
	var job sdk.Job
	if err := repo.Decode(jobDoc, &job); err != nil {
		return PublicApplyResult{}, err
	}
	if !job.IsActive {
		return PublicApplyResult{}, invalid("job %s is not accepting applications", job.ID)
	}

	candidateID, err := e.candidateByEmailTx(ctx, tx, email)
	if err != nil {
		return PublicApplyResult{}, err
	}
	if candidateID == "" {
		doc, err := repo.Encode(sdk.Candidate{
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			Email:        email,
			Phone:        in.Phone,
			LinkedInURL:  in.LinkedInURL,
			PortfolioURL: in.PortfolioURL,
			ResumeKey:    in.ResumeKey,
		})
		if err != nil {
			return PublicApplyResult{}, err
		}
		created, err := r.CreateDocumentTx(ctx, tx, repo.KindCandidates, doc)
		if err != nil {
			return PublicApplyResult{}, err
		}
		candidateID, _ = created["id"].(string)
	} else {
		existing, err := r.ListDocumentsTx(ctx, tx, repo.KindApplications, map[string]string{"jobId": in.JobID, "candidateId": candidateID})
		if err != nil {
			return PublicApplyResult{}, err
		}
		if len(existing) > 0 {
			return PublicApplyResult{}, invalid("%s has already applied to this job", email)
		}
	}

	app, err := e.createApplicationTx(ctx, tx, sdk.Application{
		JobID:       in.JobID,
		CandidateID: candidateID,
		CoverLetter: in.CoverLetter,
	}, "public-apply")
	if err != nil {
		return PublicApplyResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return PublicApplyResult{}, err
	}
	return PublicApplyResult{ApplicationID: app.ID, CandidateID: candidateID, JobID: in.JobID}, nil
}

func (e Engine) candidateByEmailTx(ctx context.Context, tx *sql.Tx, email string) (string, error) {
	docs, err := e.Store().ListDocumentsTx(ctx, tx, repo.KindCandidates, nil)
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if got, _ := d["email"].(string); strings.EqualFold(got, email) {
			id, _ := d["id"].(string)
			return id, nil
		}
	}
	return "", nil
}
