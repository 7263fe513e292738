package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repo struct {
	DB  *sql.DB
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

// Document is a stored record in its JSON form.
type Document = map[string]any

// Kinds served by the generic record endpoints.
const (
	KindJobs                 = "jobs"
	KindCandidates           = "candidates"
	KindApplications         = "applications"
	KindUsers                = "users"
	KindRoles                = "roles"
	KindTasks                = "tasks"
	KindTemplates            = "assignment-templates"
	KindCandidateAssignments = "candidate-assignments"
	KindInterviews           = "interviews"
	KindDepartments          = "departments"
	KindRoleTypes            = "role-types"
	KindWorkSetups           = "work-setups"
)

// Kinds lists every record kind in registration order.
var Kinds = []string{
	KindJobs, KindCandidates, KindApplications, KindUsers, KindRoles, KindTasks,
	KindTemplates, KindCandidateAssignments, KindInterviews,
	KindDepartments, KindRoleTypes, KindWorkSetups,
}

func (r Repo) now() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return Timestamp(now())
}

// ListDocuments returns the records of kind in creation order. Filter keeps
// only documents whose field equals the given value.
func (r Repo) ListDocuments(ctx context.Context, kind string, filter map[string]string) ([]Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return r.ListDocumentsTx(ctx, tx, kind, filter)
}

func (r Repo) ListDocumentsTx(ctx context.Context, tx *sql.Tx, kind string, filter map[string]string) ([]Document, error) {
	rows, err := tx.QueryContext(ctx, `SELECT body_json FROM records WHERE kind=? ORDER BY created_at, id`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc := Document{}
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", kind, err)
		}
		if matches(doc, filter) {
			res = append(res, doc)
		}
	}
	return res, rows.Err()
}

func (r Repo) GetDocument(ctx context.Context, kind, id string) (Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return r.GetDocumentTx(ctx, tx, kind, id)
}

func (r Repo) GetDocumentTx(ctx context.Context, tx *sql.Tx, kind, id string) (Document, error) {
	var body string
	err := tx.QueryRowContext(ctx, `SELECT body_json FROM records WHERE kind=? AND id=?`, kind, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", kind, err)
	}
	return doc, nil
}

// CreateDocument stores doc under a fresh id unless it already carries one.
func (r Repo) CreateDocument(ctx context.Context, kind string, doc Document) (Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	created, err := r.CreateDocumentTx(ctx, tx, kind, doc)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (r Repo) CreateDocumentTx(ctx context.Context, tx *sql.Tx, kind string, doc Document) (Document, error) {
	now := r.now()
	out := clone(doc)
	id, _ := out["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	out["id"] = id
	out["createdAt"] = now
	out["updatedAt"] = now
	body, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO records(kind,id,body_json,created_at,updated_at) VALUES (?,?,?,?,?)`,
		kind, id, string(body), now, now); err != nil {
		return nil, fmt.Errorf("insert %s: %w", kind, err)
	}
	return out, nil
}

// ReplaceDocument overwrites the stored body, keeping id and createdAt.
func (r Repo) ReplaceDocument(ctx context.Context, kind, id string, doc Document) (Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	updated, err := r.ReplaceDocumentTx(ctx, tx, kind, id, doc)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r Repo) ReplaceDocumentTx(ctx context.Context, tx *sql.Tx, kind, id string, doc Document) (Document, error) {
	existing, err := r.GetDocumentTx(ctx, tx, kind, id)
	if err != nil {
		return nil, err
	}
	now := r.now()
	out := clone(doc)
	out["id"] = id
	out["createdAt"] = existing["createdAt"]
	out["updatedAt"] = now
	body, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE records SET body_json=?, updated_at=? WHERE kind=? AND id=?`, string(body), now, kind, id)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return out, nil
}

func (r Repo) DeleteDocument(ctx context.Context, kind, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM records WHERE kind=? AND id=?`, kind, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Decode converts a document into a typed record.
func Decode(doc Document, out any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Encode converts a typed record into a document.
func Encode(v any) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func matches(doc Document, filter map[string]string) bool {
	for k, want := range filter {
		if want == "" {
			continue
		}
		switch got := doc[k].(type) {
		case string:
			if got != want {
				return false
			}
		case bool:
			if fmt.Sprint(got) != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

