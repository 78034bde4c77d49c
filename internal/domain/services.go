package domain

import "context"

// Pipeline is the hiring-pipeline system as the orchestrator sees it.
type Pipeline interface {
	GetAllQualifiedCandidates(ctx context.Context) ([]Candidate, error)
	GetCandidateByID(ctx context.Context, id int64) (*Candidate, error)
	GetCandidateTasks(ctx context.Context, candidateID int64) ([]Task, error)
	GetTaskDetails(ctx context.Context, taskID int64) (*TaskDetails, error)
	CreateCandidateTask(ctx context.Context, candidate *Candidate, title string, adminID string) (*TaskDetails, error)
	CompleteTask(ctx context.Context, taskID int64) error
	AddNoteToCandidate(ctx context.Context, candidateID int64, message string) error
	NoteExists(ctx context.Context, candidateID int64, message string) (bool, error)
	AddTagToCandidate(ctx context.Context, candidateID int64, tag string) error
	UpdateProfileField(ctx context.Context, candidate *Candidate, field *CandidateField, content []string) error
	ClearProfileField(ctx context.Context, candidate *Candidate, field *CandidateField) error
	GetCandidateSalutation(candidate *Candidate) string
	GetSignature(candidate *Candidate, references []Reference) string
	ShouldSendMail(candidate *Candidate) bool
	ProceedCandidateToStage(ctx context.Context, candidate *Candidate, stageName string) error
	GetStageByName(ctx context.Context, stageName string, offerID int64) (*Stage, error)
	SendMailToCandidate(ctx context.Context, candidateID int64, to string, cc []string, values MailValues) error
}

// RepositoryHost is the code-hosting system as the orchestrator sees it.
type RepositoryHost interface {
	GetTemplateProject(ctx context.Context, name string) (*Project, error)
	GetHomeworkProject(ctx context.Context, name string) (*Project, error)
	ForkHomework(ctx context.Context, templateProjectID int64, forkName string) (*Project, error)
	DeleteProject(ctx context.Context, projectID int64) error
	AddMaintainerToProject(ctx context.Context, projectID, userID int64, expiresAt Date) error
	GetUser(ctx context.Context, username string) (*User, error)
	GetOwnUserInfo(ctx context.Context) (*User, error)
	CreateHomeworkIssue(ctx context.Context, projectID, assigneeID int64, dueDate Date, values IssueValues) (*Issue, error)
	GetProjectIssues(ctx context.Context, projectID int64, state IssueState, author *User) ([]Issue, error)
	UpdateIssueDueDate(ctx context.Context, projectID, issueIID int64, dueDate Date) error
}

// MailValues feeds the homework notification mail template.
type MailValues struct {
	ApplicantName   string
	Signature       string
	ProjectURL      string
	IssueURL        string
	HomeworkDueDate Date
}

// IssueValues feeds the instructional issue template.
type IssueValues struct {
	Title         string
	ApplicantName string
}

// Monitorer receives one success signal per completed poll cycle.
type Monitorer interface {
	SignalSuccess(ctx context.Context) error
}
