package domain

// Project is a repository on the code host, either a homework template or a
// per-candidate fork.
type Project struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"web_url"`
}

type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	Default   bool   `json:"default"`
}

// ImportStatus is the asynchronous fork-provisioning lifecycle.
type ImportStatus string

const (
	ImportStatusNone     ImportStatus = "none"
	ImportStatusQueued   ImportStatus = "queued"
	ImportStatusStarted  ImportStatus = "started"
	ImportStatusFinished ImportStatus = "finished"
	ImportStatusFailed   ImportStatus = "failed"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type IssueState string

const (
	IssueStateAll    IssueState = "all"
	IssueStateOpened IssueState = "opened"
	IssueStateClosed IssueState = "closed"
)

// Issue is a tracked item inside a project: created by the bot to instruct
// the candidate, and watched for closure as the submission signal.
type Issue struct {
	ID       int64      `json:"id"`
	IID      int64      `json:"iid"`
	Title    string     `json:"title"`
	State    IssueState `json:"state"`
	WebURL   string     `json:"web_url"`
	Author   User       `json:"author"`
	Assignee User       `json:"assignee"`
	DueDate  *Date      `json:"due_date"`
}
