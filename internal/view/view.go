// Package view flattens backend records into display shapes.
package view

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	sdk "hireline/sdk/go"
)

const (
	DefaultDepartment = "Unknown"
	DefaultRoleType   = "Full-time"
	DefaultWorkSetup  = "Remote"
	DefaultStatus     = "new"
	DefaultStage      = "shortlisting"
	PendingAIReason   = "AI analysis pending"

	rejectionDateLayout = "Jan 2, 2006"
)

// ErrCommentWithoutID marks a comment the backend returned without an id.
var ErrCommentWithoutID = errors.New("comment has no server-assigned id")

// JobView is the flat job shape used by lists and detail screens.
type JobView struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Department          string   `json:"department"`
	RoleType            string   `json:"roleType"`
	WorkSetup           string   `json:"workSetup"`
	Location            string   `json:"location"`
	SalaryMin           string   `json:"salaryMin"`
	SalaryMax           string   `json:"salaryMax"`
	ExperienceMin       string   `json:"experienceMin"`
	ExperienceMax       string   `json:"experienceMax"`
	Overview            string   `json:"overview"`
	Responsibilities    string   `json:"responsibilities"`
	Qualifications      string   `json:"qualifications"`
	Benefits            string   `json:"benefits"`
	IsActive            bool     `json:"isActive"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	Original            *sdk.Job `json:"-"`
}

// CommentView is one entry of the display comment log.
type CommentView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Stage     string `json:"stage"`
}

// InterviewRound is merged in by callers after loading interviews separately.
type InterviewRound struct {
	ID          string   `json:"id"`
	Round       int      `json:"round"`
	Title       string   `json:"title"`
	ScheduledAt string   `json:"scheduledAt"`
	Status      string   `json:"status"`
	Interviewer string   `json:"interviewer"`
	Feedback    string   `json:"feedback"`
	Rating      *float64 `json:"rating,omitempty"`
}

// CandidateView merges an application with its candidate and job.
type CandidateView struct {
	ID                   string             `json:"id"`
	CandidateID          string             `json:"candidateId"`
	Name                 string             `json:"name"`
	Email                string             `json:"email"`
	Phone                string             `json:"phone"`
	Location             string             `json:"location"`
	LinkedInURL          string             `json:"linkedinUrl"`
	PortfolioURL         string             `json:"portfolioUrl"`
	ResumeURL            string             `json:"resumeUrl"`
	JobID                string             `json:"jobId"`
	JobTitle             string             `json:"jobTitle"`
	Department           string             `json:"department"`
	Status               string             `json:"status"`
	Stage                string             `json:"stage"`
	StageLabel           string             `json:"stageLabel"`
	AIScore              *float64           `json:"aiScore"`
	AIReason             string             `json:"aiReason"`
	IsHotApplicant       bool               `json:"isHotApplicant"`
	NeedsAttention       bool               `json:"needsAttention"`
	AppliedDate          string             `json:"appliedDate"`
	CoverLetter          string             `json:"coverLetter"`
	RejectionReason      string             `json:"rejectionReason"`
	RejectionDate        string             `json:"rejectionDate"`
	ScreeningDate        string             `json:"screeningDate"`
	ScreeningNotes       string             `json:"screeningNotes"`
	ScreeningInterviewer string             `json:"screeningInterviewer"`
	ScreeningPlatform    string             `json:"screeningPlatform"`
	ScreeningLink        string             `json:"screeningLink"`
	ScreeningDuration    int                `json:"screeningDuration"`
	Comments             []CommentView      `json:"comments"`
	History              []sdk.HistoryEntry `json:"history"`
	InterviewRounds      []InterviewRound   `json:"interviewRounds"`
	// MissingCommentIDs holds the input positions of comments that arrived
	// without an id. Their CommentView.ID is left empty.
	MissingCommentIDs []int            `json:"missingCommentIds,omitempty"`
	Original          *sdk.Application `json:"-"`
}

// NewJobView flattens j. Missing lookups fall back to fixed defaults.
func NewJobView(j *sdk.Job) JobView {
	v := JobView{
		ID:                  j.ID,
		Title:               j.Title,
		Department:          DefaultDepartment,
		RoleType:            DefaultRoleType,
		WorkSetup:           DefaultWorkSetup,
		Location:            j.Location,
		SalaryMin:           number(j.SalaryMin),
		SalaryMax:           number(j.SalaryMax),
		ExperienceMin:       number(j.ExperienceMin),
		ExperienceMax:       number(j.ExperienceMax),
		Overview:            j.Overview,
		Responsibilities:    j.Responsibilities,
		Qualifications:      j.Qualifications,
		Benefits:            j.Benefits,
		IsActive:            j.IsActive,
		ApplicationDeadline: datePart(j.ApplicationDeadline),
		Original:            j,
	}
	if j.Department != nil && j.Department.Name != "" {
		v.Department = j.Department.Name
	}
	if j.RoleType != nil && j.RoleType.Name != "" {
		v.RoleType = j.RoleType.Name
	}
	if j.WorkSetup != nil && j.WorkSetup.Name != "" {
		v.WorkSetup = j.WorkSetup.Name
	}
	return v
}

// NewCandidateView flattens a. Comments without an id are kept and recorded in
// MissingCommentIDs; see Err.
func NewCandidateView(a *sdk.Application) CandidateView {
	v := CandidateView{
		ID:                   a.ID,
		CandidateID:          a.CandidateID,
		JobID:                a.JobID,
		Status:               orDefault(a.Status, DefaultStatus),
		Stage:                orDefault(a.Stage, DefaultStage),
		AIScore:              a.AIScore,
		AIReason:             PendingAIReason,
		IsHotApplicant:       a.IsHotApplicant,
		NeedsAttention:       a.NeedsAttention,
		AppliedDate:          datePart(a.AppliedAt),
		CoverLetter:          a.CoverLetter,
		RejectionReason:      a.RejectionReason,
		RejectionDate:        shortDate(a.RejectedAt),
		ScreeningDate:        a.ScreeningDate,
		ScreeningNotes:       a.ScreeningNotes,
		ScreeningInterviewer: a.ScreeningInterviewer,
		ScreeningPlatform:    a.ScreeningPlatform,
		ScreeningLink:        a.ScreeningLink,
		ScreeningDuration:    a.ScreeningDuration,
		History:              make([]sdk.HistoryEntry, len(a.History)),
		InterviewRounds:      []InterviewRound{},
		Original:             a,
	}
	copy(v.History, a.History)
	v.StageLabel = StageLabel(v.Stage)
	if a.AIAnalysis != nil && a.AIAnalysis.Summary != "" {
		v.AIReason = a.AIAnalysis.Summary
	}
	if c := a.Candidate; c != nil {
		if v.CandidateID == "" {
			v.CandidateID = c.ID
		}
		v.Name = strings.TrimSpace(c.FirstName + " " + c.LastName)
		v.Email = c.Email
		v.Phone = c.Phone
		v.Location = c.Location
		v.LinkedInURL = c.LinkedInURL
		v.PortfolioURL = c.PortfolioURL
		v.ResumeURL = c.ResumeURL
	}
	if j := a.Job; j != nil {
		if v.JobID == "" {
			v.JobID = j.ID
		}
		v.JobTitle = j.Title
		v.Department = DefaultDepartment
		if j.Department != nil && j.Department.Name != "" {
			v.Department = j.Department.Name
		}
	}
	v.Comments, v.MissingCommentIDs = commentViews(a.Comments)
	return v
}

// Err reports the first comment that lacks an id, wrapping ErrCommentWithoutID.
func (v *CandidateView) Err() error {
	if len(v.MissingCommentIDs) == 0 {
		return nil
	}
	return fmt.Errorf("application %s: comment %d: %w", v.ID, v.MissingCommentIDs[0], ErrCommentWithoutID)
}

// MergeInterviews attaches the interviews belonging to v, ordered by round.
func (v *CandidateView) MergeInterviews(interviews []sdk.Interview) {
	rounds := make([]InterviewRound, 0, len(interviews))
	for _, iv := range interviews {
		if iv.ApplicationID != v.ID {
			continue
		}
		rounds = append(rounds, InterviewRound{
			ID:          iv.ID,
			Round:       iv.Round,
			Title:       iv.Title,
			ScheduledAt: iv.ScheduledAt,
			Status:      iv.Status,
			Interviewer: iv.Interviewer,
			Feedback:    iv.Feedback,
			Rating:      iv.Rating,
		})
	}
	sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].Round < rounds[j].Round })
	v.InterviewRounds = rounds
}

// StageLabel renders a stage id for display, e.g. "phone_screen" -> "Phone Screen".
func StageLabel(stage string) string {
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(stage))
}

func commentViews(in []sdk.Comment) ([]CommentView, []int) {
	out := make([]CommentView, 0, len(in))
	var missing []int
	for i, c := range in {
		if c.ID == "" {
			missing = append(missing, i)
		}
		out = append(out, CommentView{
			ID:        c.ID,
			Text:      c.Text,
			Author:    c.Author,
			Timestamp: c.Timestamp,
			Stage:     c.Stage,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return timestampBefore(out[i].Timestamp, out[j].Timestamp)
	})
	return out, missing
}

// timestampBefore orders RFC 3339 instants; unparseable values compare as text.
func timestampBefore(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return ta.Before(tb)
	}
	return a < b
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// datePart keeps the UTC calendar date of an ISO timestamp.
func datePart(ts string) string {
	if ts == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	if date, _, ok := strings.Cut(ts, "T"); ok {
		return date
	}
	return ts
}

func shortDate(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t, err = time.Parse(time.DateOnly, ts)
		if err != nil {
			return ""
		}
	}
	return t.UTC().Format(rejectionDateLayout)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
