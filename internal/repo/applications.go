package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hireline/internal/events"
	sdk "hireline/sdk/go"
)

func (r Repo) journal() events.Writer {
	return events.Writer{Now: r.Now}
}

// AppendHistoryTx records one journey entry for an application.
func (r Repo) AppendHistoryTx(ctx context.Context, tx *sql.Tx, e events.Entry) (sdk.HistoryEntry, error) {
	return r.journal().Append(ctx, tx, e)
}

// GetApplicationTx loads an application with its journey, comments and
// expanded job and candidate.
func (r Repo) GetApplicationTx(ctx context.Context, tx *sql.Tx, id string) (sdk.Application, error) {
	doc, err := r.GetDocumentTx(ctx, tx, KindApplications, id)
	if err != nil {
		return sdk.Application{}, err
	}
	return r.hydrate(ctx, tx, doc)
}

func (r Repo) GetApplication(ctx context.Context, id string) (sdk.Application, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return sdk.Application{}, err
	}
	defer tx.Rollback()
	return r.GetApplicationTx(ctx, tx, id)
}

// ListApplications returns hydrated applications, optionally for one job.
func (r Repo) ListApplications(ctx context.Context, jobID string) ([]sdk.Application, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	docs, err := r.ListDocumentsTx(ctx, tx, KindApplications, map[string]string{"jobId": jobID})
	if err != nil {
		return nil, err
	}
	res := make([]sdk.Application, 0, len(docs))
	for _, doc := range docs {
		app, err := r.hydrate(ctx, tx, doc)
		if err != nil {
			return nil, err
		}
		res = append(res, app)
	}
	return res, nil
}

// CreateApplicationTx stores a new application. Journey and comments on the
// input are ignored; they live in their own tables.
func (r Repo) CreateApplicationTx(ctx context.Context, tx *sql.Tx, app sdk.Application) (sdk.Application, error) {
	doc, err := Encode(stored(app))
	if err != nil {
		return sdk.Application{}, err
	}
	created, err := r.CreateDocumentTx(ctx, tx, KindApplications, doc)
	if err != nil {
		return sdk.Application{}, err
	}
	var out sdk.Application
	if err := Decode(created, &out); err != nil {
		return sdk.Application{}, err
	}
	return out, nil
}

// SaveApplicationTx replaces the stored application body.
func (r Repo) SaveApplicationTx(ctx context.Context, tx *sql.Tx, app sdk.Application) error {
	if app.ID == "" {
		return errors.New("save application: id required")
	}
	doc, err := Encode(stored(app))
	if err != nil {
		return err
	}
	_, err = r.ReplaceDocumentTx(ctx, tx, KindApplications, app.ID, doc)
	return err
}

// AddCommentTx appends a comment with a server-assigned id and returns the
// application's full comment list.
func (r Repo) AddCommentTx(ctx context.Context, tx *sql.Tx, applicationID string, c sdk.Comment) ([]sdk.Comment, error) {
	if _, err := r.GetDocumentTx(ctx, tx, KindApplications, applicationID); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.Timestamp = r.now()
	_, err := tx.ExecContext(ctx, `INSERT INTO application_comments(id,application_id,ts,author,stage,body) VALUES (?,?,?,?,?,?)`,
		c.ID, applicationID, c.Timestamp, c.Author, nullString(c.Stage), c.Text)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return r.CommentsTx(ctx, tx, applicationID)
}

func (r Repo) CommentsTx(ctx context.Context, tx *sql.Tx, applicationID string) ([]sdk.Comment, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id,ts,author,COALESCE(stage,''),body FROM application_comments WHERE application_id=? ORDER BY seq`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []sdk.Comment{}
	for rows.Next() {
		var c sdk.Comment
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.Author, &c.Stage, &c.Text); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// JourneyTx lists the journey of one application, oldest first.
func (r Repo) JourneyTx(ctx context.Context, tx *sql.Tx, applicationID string) ([]sdk.HistoryEntry, error) {
	if _, err := r.GetDocumentTx(ctx, tx, KindApplications, applicationID); err != nil {
		return nil, err
	}
	return r.journal().Journey(ctx, tx, applicationID)
}

// ExpandJobTx fills the department, role type and work setup of a job from
// their lookup tables. Dangling references are left unexpanded.
func (r Repo) ExpandJobTx(ctx context.Context, tx *sql.Tx, doc Document) (Document, error) {
	out := clone(doc)
	for field, kind := range map[string]string{
		"department": KindDepartments,
		"roleType":   KindRoleTypes,
		"workSetup":  KindWorkSetups,
	} {
		id, _ := out[field+"Id"].(string)
		if id == "" {
			continue
		}
		ref, err := r.GetDocumentTx(ctx, tx, kind, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[field] = ref
	}
	return out, nil
}

func (r Repo) hydrate(ctx context.Context, tx *sql.Tx, doc Document) (sdk.Application, error) {
	var app sdk.Application
	if err := Decode(doc, &app); err != nil {
		return sdk.Application{}, fmt.Errorf("decode application: %w", err)
	}
	var err error
	if app.History, err = r.journal().Journey(ctx, tx, app.ID); err != nil {
		return sdk.Application{}, err
	}
	if app.Comments, err = r.CommentsTx(ctx, tx, app.ID); err != nil {
		return sdk.Application{}, err
	}
	if app.JobID != "" {
		jobDoc, err := r.GetDocumentTx(ctx, tx, KindJobs, app.JobID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return sdk.Application{}, err
		default:
			if jobDoc, err = r.ExpandJobTx(ctx, tx, jobDoc); err != nil {
				return sdk.Application{}, err
			}
			var job sdk.Job
			if err := Decode(jobDoc, &job); err != nil {
				return sdk.Application{}, fmt.Errorf("decode job: %w", err)
			}
			app.Job = &job
		}
	}
	if app.CandidateID != "" {
		candDoc, err := r.GetDocumentTx(ctx, tx, KindCandidates, app.CandidateID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return sdk.Application{}, err
		default:
			var cand sdk.Candidate
			if err := Decode(candDoc, &cand); err != nil {
				return sdk.Application{}, fmt.Errorf("decode candidate: %w", err)
			}
			app.Candidate = &cand
		}
	}
	return app, nil
}

// stored drops the parts of an application that are derived on read.
func stored(app sdk.Application) sdk.Application {
	app.History = nil
	app.Comments = nil
	app.Job = nil
	app.Candidate = nil
	return app
}

// Timestamp formats t the way stored records carry times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
