package domain

// Visual markers prefixing candidate-facing error notes, one per error
// class, so a recruiter can tell the failure mode at a glance.
const (
	MarkerUnexpectedHTTP   = "☄️"
	MarkerUnexpected       = "🤷"
	MarkerUserNotFound     = "🤔"
	MarkerProjectNotFound  = "📂"
	MarkerForkFailed       = "🍴"
	MarkerMissingField     = "⚠️"
	MarkerStageNotFound    = "🔎"
	MarkerOfferTagNotFound = "🏷️"
)

// PipelineError is an expected, named failure mode of the hiring-pipeline
// system. Its message is German and candidate-note ready.
type PipelineError struct {
	Message string
}

func (e *PipelineError) Error() string {
	return "[Recruitee] " + e.Message
}

// NoteMessage is the text posted verbatim as a candidate note.
func (e *PipelineError) NoteMessage() string {
	return e.Message
}

func NewPipelineError(message string) *PipelineError {
	return &PipelineError{Message: message}
}

// RepoHostError is an expected, named failure mode of the repository host.
type RepoHostError struct {
	Message string
}

func (e *RepoHostError) Error() string {
	return "[GitLab] " + e.Message
}

func (e *RepoHostError) NoteMessage() string {
	return e.Message
}

func NewRepoHostError(message string) *RepoHostError {
	return &RepoHostError{Message: message}
}
