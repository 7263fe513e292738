package hirelinesdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// LegacyDefaultActor is what New puts in Client.DefaultActor. Writes made
// without an explicit actor or a session are attributed to it; clear
// DefaultActor to make the actor mandatory instead.
const LegacyDefaultActor = "Admin"

// ActionStageChange is the journey action recorded by MoveToStage unless overridden.
const ActionStageChange = "stage_change"

var (
	ErrActorRequired  = errors.New("acting user required: pass one explicitly or attach a session")
	ErrReasonRequired = errors.New("rejection reason required")
	ErrTextRequired   = errors.New("comment text required")
)

type actorKey struct{}

// WithActor attaches the acting user to ctx. Lifecycle writes made with the
// returned context are attributed to actor unless an explicit one is given.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor attached by WithActor.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && strings.TrimSpace(actor) != ""
}

// Applications exposes application CRUD plus the named lifecycle transitions.
type Applications struct {
	*Collection[Application]
}

type RejectOptions struct {
	RejectedBy string
}

type MoveOptions struct {
	MovedBy string
	Notes   string
	Action  string
}

// NewComment is the payload for AddComment. The backend assigns id and timestamp.
type NewComment struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Stage  string `json:"stage,omitempty"`
}

// Screening holds the fields set when a screening call is scheduled.
type Screening struct {
	Date        string `json:"screeningDate"`
	Notes       string `json:"screeningNotes,omitempty"`
	Interviewer string `json:"screeningInterviewer,omitempty"`
	Platform    string `json:"screeningPlatform,omitempty"`
	Link        string `json:"screeningLink,omitempty"`
	Duration    int    `json:"screeningDuration,omitempty"`
}

// PublicApplication is submitted by an unauthenticated applicant.
type PublicApplication struct {
	JobID        string `json:"jobId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	LinkedInURL  string `json:"linkedinUrl,omitempty"`
	PortfolioURL string `json:"portfolioUrl,omitempty"`
	ResumeKey    string `json:"resumeKey,omitempty"`
	CoverLetter  string `json:"coverLetter,omitempty"`
}

// UpdateStage sets the current stage. The backend decides whether to log it.
func (a *Applications) UpdateStage(ctx context.Context, id, stage string) (Application, error) {
	var out Application
	err := a.exec(ctx, "update_stage", http.MethodPatch, a.item(id, "stage"),
		map[string]any{"stage": stage}, "Failed to update stage", &out)
	return out, err
}

// UpdateStatus sets the status field directly.
func (a *Applications) UpdateStatus(ctx context.Context, id, status string) (Application, error) {
	var out Application
	err := a.exec(ctx, "update_status", http.MethodPatch, a.item(id, "status"),
		map[string]any{"status": status}, "Failed to update status", &out)
	return out, err
}

// Reject moves the application to its terminal rejected status.
func (a *Applications) Reject(ctx context.Context, id, reason string, opts RejectOptions) (Application, error) {
	var out Application
	if strings.TrimSpace(reason) == "" {
		return out, ErrReasonRequired
	}
	actor, err := a.actor(ctx, opts.RejectedBy)
	if err != nil {
		return out, err
	}
	err = a.exec(ctx, "reject", http.MethodPost, a.item(id, "reject"),
		map[string]any{"reason": reason, "rejectedBy": actor}, "Failed to reject application", &out)
	return out, err
}

// MoveToStage changes stage and appends an entry to the journey.
func (a *Applications) MoveToStage(ctx context.Context, id, stage string, opts MoveOptions) (Application, error) {
	var out Application
	actor, err := a.actor(ctx, opts.MovedBy)
	if err != nil {
		return out, err
	}
	action := opts.Action
	if action == "" {
		action = ActionStageChange
	}
	body := map[string]any{
		"stage":   stage,
		"movedBy": actor,
		"notes":   opts.Notes,
		"action":  action,
	}
	err = a.exec(ctx, "move_to_stage", http.MethodPost, a.item(id, "move-to-stage"), body, "Failed to move application", &out)
	return out, err
}

// AddComment appends a comment and returns the application's comment log.
func (a *Applications) AddComment(ctx context.Context, id string, c NewComment) ([]Comment, error) {
	if strings.TrimSpace(c.Text) == "" {
		return nil, ErrTextRequired
	}
	if c.Author == "" {
		actor, err := a.actor(ctx, "")
		if err != nil {
			return nil, err
		}
		c.Author = actor
	}
	var out []Comment
	err := a.exec(ctx, "add_comment", http.MethodPost, a.item(id, "comments"), c, "Failed to add comment", &out)
	return out, err
}

// SetHotApplicant sets or clears the hot-applicant flag.
func (a *Applications) SetHotApplicant(ctx context.Context, id string, hot bool) (Application, error) {
	var out Application
	err := a.exec(ctx, "hot_applicant", http.MethodPatch, a.item(id, "hot-applicant"),
		map[string]any{"isHotApplicant": hot}, "Failed to update hot applicant", &out)
	return out, err
}

// SetNeedsAttention sets or clears the needs-attention flag.
func (a *Applications) SetNeedsAttention(ctx context.Context, id string, needs bool) (Application, error) {
	var out Application
	err := a.exec(ctx, "needs_attention", http.MethodPatch, a.item(id, "needs-attention"),
		map[string]any{"needsAttention": needs}, "Failed to update needs attention", &out)
	return out, err
}

// ScheduleScreening stores the screening details; the backend emails the candidate.
func (a *Applications) ScheduleScreening(ctx context.Context, id string, s Screening) (Application, error) {
	var out Application
	err := a.exec(ctx, "schedule_screening", http.MethodPost, a.item(id, "schedule-screening"), s, "Failed to schedule screening", &out)
	return out, err
}

// Journey returns the ordered transition history.
func (a *Applications) Journey(ctx context.Context, id string) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := a.exec(ctx, "journey", http.MethodGet, a.item(id, "journey"), nil, "Failed to fetch journey", &out)
	return out, err
}

// ListByJob lists the applications submitted to one job.
func (a *Applications) ListByJob(ctx context.Context, jobID string) ([]Application, error) {
	return a.List(ctx, url.Values{"jobId": {jobID}})
}

// PublicApply submits an application without credentials. The whole envelope
// is returned so callers can branch on Success.
func (a *Applications) PublicApply(ctx context.Context, in PublicApplication) (Envelope, error) {
	return a.c.send(ctx, call{
		Op:        a.path + ".public_apply",
		Method:    http.MethodPost,
		Endpoint:  a.path + "/public-apply",
		Body:      in,
		Fallback:  "Failed to submit application",
		Anonymous: true,
	})
}

func (a *Applications) actor(ctx context.Context, explicit string) (string, error) {
	if s := strings.TrimSpace(explicit); s != "" {
		return s, nil
	}
	if actor, ok := ActorFromContext(ctx); ok {
		return actor, nil
	}
	if a.c.DefaultActor != "" {
		return a.c.DefaultActor, nil
	}
	return "", ErrActorRequired
}
