package hirelinesdk

// Lookup is the shape shared by departments, role types and work setups.
type Lookup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type (
	Department Lookup
	RoleType   Lookup
	WorkSetup  Lookup
)

// Job is a job posting as the backend returns it, with lookups expanded when present.
type Job struct {
	ID                  string      `json:"id,omitempty"`
	Title               string      `json:"title"`
	DepartmentID        string      `json:"departmentId,omitempty"`
	Department          *Department `json:"department,omitempty"`
	RoleTypeID          string      `json:"roleTypeId,omitempty"`
	RoleType            *RoleType   `json:"roleType,omitempty"`
	WorkSetupID         string      `json:"workSetupId,omitempty"`
	WorkSetup           *WorkSetup  `json:"workSetup,omitempty"`
	Location            string      `json:"location,omitempty"`
	SalaryMin           *float64    `json:"salaryMin,omitempty"`
	SalaryMax           *float64    `json:"salaryMax,omitempty"`
	ExperienceMin       *float64    `json:"experienceMin,omitempty"`
	ExperienceMax       *float64    `json:"experienceMax,omitempty"`
	Overview            string      `json:"overview,omitempty"`
	Responsibilities    string      `json:"responsibilities,omitempty"`
	Qualifications      string      `json:"qualifications,omitempty"`
	Benefits            string      `json:"benefits,omitempty"`
	IsActive            bool        `json:"isActive"`
	ApplicationDeadline string      `json:"applicationDeadline,omitempty"`
	CreatedAt           string      `json:"createdAt,omitempty"`
	UpdatedAt           string      `json:"updatedAt,omitempty"`
}

type Candidate struct {
	ID           string `json:"id,omitempty"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Location     string `json:"location,omitempty"`
	LinkedInURL  string `json:"linkedinUrl,omitempty"`
	PortfolioURL string `json:"portfolioUrl,omitempty"`
	ResumeURL    string `json:"resumeUrl,omitempty"`
	ResumeKey    string `json:"resumeKey,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// AIAnalysis is the scoring summary attached by the backend.
type AIAnalysis struct {
	Summary    string   `json:"summary,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// HistoryEntry is one append-only journey record.
type HistoryEntry struct {
	ID        string `json:"id,omitempty"`
	Action    string `json:"action"`
	FromStage string `json:"fromStage,omitempty"`
	ToStage   string `json:"toStage,omitempty"`
	MovedBy   string `json:"movedBy"`
	Notes     string `json:"notes,omitempty"`
	Timestamp string `json:"timestamp"`
}

type Comment struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	Stage     string `json:"stage,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Application links one candidate to one job and carries its pipeline state.
type Application struct {
	ID                   string         `json:"id,omitempty"`
	JobID                string         `json:"jobId,omitempty"`
	CandidateID          string         `json:"candidateId,omitempty"`
	Job                  *Job           `json:"job,omitempty"`
	Candidate            *Candidate     `json:"candidate,omitempty"`
	Stage                string         `json:"stage,omitempty"`
	Status               string         `json:"status,omitempty"`
	AIScore              *float64       `json:"aiScore"`
	AIAnalysis           *AIAnalysis    `json:"aiAnalysis,omitempty"`
	IsHotApplicant       bool           `json:"isHotApplicant"`
	NeedsAttention       bool           `json:"needsAttention"`
	AppliedAt            string         `json:"appliedAt,omitempty"`
	CoverLetter          string         `json:"coverLetter,omitempty"`
	History              []HistoryEntry `json:"history,omitempty"`
	Comments             []Comment      `json:"comments,omitempty"`
	RejectionReason      string         `json:"rejectionReason,omitempty"`
	RejectedBy           string         `json:"rejectedBy,omitempty"`
	RejectedAt           string         `json:"rejectedAt,omitempty"`
	ScreeningDate        string         `json:"screeningDate,omitempty"`
	ScreeningNotes       string         `json:"screeningNotes,omitempty"`
	ScreeningInterviewer string         `json:"screeningInterviewer,omitempty"`
	ScreeningPlatform    string         `json:"screeningPlatform,omitempty"`
	ScreeningLink        string         `json:"screeningLink,omitempty"`
	ScreeningDuration    int            `json:"screeningDuration,omitempty"`
	CreatedAt            string         `json:"createdAt,omitempty"`
	UpdatedAt            string         `json:"updatedAt,omitempty"`
}

type Task struct {
	ID            string `json:"id,omitempty"`
	ApplicationID string `json:"applicationId"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status,omitempty"`
	Priority      string `json:"priority,omitempty"`
	Assignee      string `json:"assignee,omitempty"`
	DueDate       string `json:"dueDate,omitempty"`
}

type AssignmentTemplate struct {
	ID              string `json:"id,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Instructions    string `json:"instructions,omitempty"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

type CandidateAssignment struct {
	ID            string      `json:"id,omitempty"`
	ApplicationID string      `json:"applicationId"`
	TemplateID    string      `json:"templateId"`
	Status        string      `json:"status,omitempty"`
	SubmissionURL string      `json:"submissionUrl,omitempty"`
	SubmittedAt   string      `json:"submittedAt,omitempty"`
	AIAnalysis    *AIAnalysis `json:"aiAnalysis,omitempty"`
}

type Interview struct {
	ID            string   `json:"id,omitempty"`
	ApplicationID string   `json:"applicationId"`
	Round         int      `json:"round,omitempty"`
	Title         string   `json:"title,omitempty"`
	ScheduledAt   string   `json:"scheduledAt,omitempty"`
	Status        string   `json:"status,omitempty"`
	Interviewer   string   `json:"interviewer,omitempty"`
	Feedback      string   `json:"feedback,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
}

type Role struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

type User struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID string `json:"roleId,omitempty"`
}
