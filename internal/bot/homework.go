package bot

import (
	"context"
	"fmt"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/logger"
)

// sendHomeworkForCandidate runs the homework-send state machine for one
// candidate. Every step is a hard precondition for the next; recoverable
// failures surface as domain errors and are reported per candidate.
func (b *Bot) sendHomeworkForCandidate(ctx context.Context, candidate *domain.Candidate) error {
	homeworkTask, err := b.openTaskByTitle(ctx, candidate, homeworkTaskTitle)
	if err != nil {
		return err
	}
	if homeworkTask == nil {
		// Already sent, or not yet due.
		return nil
	}

	logger.Log.Info("[Bot] processing candidate", "candidate_id", candidate.ID, "task_id", homeworkTask.ID)

	if b.dryRun {
		logger.Log.Info("[Bot] dry run, homework not sent", "candidate_id", candidate.ID, "name", candidate.Name)
		return nil
	}

	email, ok := candidate.PrimaryEmail()
	if !ok {
		logger.Log.Info("[Bot] e-mail address could not be found, no homework sent", "candidate_id", candidate.ID)
		return domain.NewPipelineError(fmt.Sprintf("%s Keine Mailadresse gefunden.", domain.MarkerMissingField))
	}

	homework, err := homeworkToSend(candidate)
	if err != nil {
		return err
	}

	username, err := gitlabUsername(candidate)
	if err != nil {
		return err
	}

	user, err := b.repoHost.GetUser(ctx, username)
	if err != nil {
		return err
	}

	fork, issue, dueDate, err := b.createHomeworkFork(ctx, candidate, user, homework, homeworkTask)
	if err != nil {
		return err
	}

	taskDetails, err := b.pipeline.GetTaskDetails(ctx, homeworkTask.ID)
	if err != nil {
		return err
	}

	// A mail failure must not leave the task open or the stage behind: it
	// is reported, and finalization continues.
	if b.pipeline.ShouldSendMail(candidate) {
		if err := b.notifyCandidate(ctx, candidate, email, taskDetails.References, issue, fork, dueDate.AddDays(-1)); err != nil {
			b.handleError(ctx, err, candidate)
		}
	} else {
		logger.Log.Info("[Bot] mail sending disabled for candidate", "candidate_id", candidate.ID)
	}

	if err := b.finalizeCandidate(ctx, candidate, homeworkTask, homework, dueDate); err != nil {
		return err
	}

	if b.deleteProjectAtEnd {
		return b.deleteProjectAndClearRepoField(ctx, candidate.ID, fork.ID)
	}
	return nil
}

// createHomeworkFork provisions the candidate's repository: fork the
// template, grant time-boxed access, file the instructional issue and
// persist the fork URL into the candidate's profile.
func (b *Bot) createHomeworkFork(ctx context.Context, candidate *domain.Candidate, user *domain.User, homework string, homeworkTask *domain.Task) (*domain.Project, *domain.Issue, domain.Date, error) {
	template, err := b.repoHost.GetTemplateProject(ctx, homework)
	if err != nil {
		return nil, nil, domain.Date{}, err
	}

	fork, err := b.repoHost.ForkHomework(ctx, template.ID, forkName(user.Username))
	if err != nil {
		return nil, nil, domain.Date{}, err
	}

	dueDate := homeworkDueDate(homeworkTask)

	if err := b.repoHost.AddMaintainerToProject(ctx, fork.ID, user.ID, dueDate); err != nil {
		return nil, nil, domain.Date{}, err
	}

	issue, err := b.repoHost.CreateHomeworkIssue(ctx, fork.ID, user.ID, dueDate, domain.IssueValues{
		Title:         homeworkIssueName,
		ApplicantName: candidate.Name,
	})
	if err != nil {
		return nil, nil, domain.Date{}, err
	}

	if err := b.setGitlabRepoField(ctx, candidate, fork.WebURL); err != nil {
		return nil, nil, domain.Date{}, err
	}

	return fork, issue, dueDate, nil
}

func (b *Bot) notifyCandidate(ctx context.Context, candidate *domain.Candidate, email string, references []domain.Reference, issue *domain.Issue, fork *domain.Project, dueDate domain.Date) error {
	return b.pipeline.SendMailToCandidate(ctx, candidate.ID, email, candidate.CCEmails(), domain.MailValues{
		ApplicantName:   b.pipeline.GetCandidateSalutation(candidate),
		Signature:       b.pipeline.GetSignature(candidate, references),
		ProjectURL:      fork.WebURL,
		IssueURL:        issue.WebURL,
		HomeworkDueDate: dueDate,
	})
}

// finalizeCandidate completes the homework task, advances the stage and
// records what was sent.
func (b *Bot) finalizeCandidate(ctx context.Context, candidate *domain.Candidate, homeworkTask *domain.Task, homework string, dueDate domain.Date) error {
	if err := b.pipeline.CompleteTask(ctx, homeworkTask.ID); err != nil {
		return err
	}
	if err := b.pipeline.ProceedCandidateToStage(ctx, candidate, homeworkSentStageTitle); err != nil {
		return err
	}
	return b.pipeline.AddNoteToCandidate(ctx, candidate.ID,
		fmt.Sprintf("📤 Hausaufgabe \"%s\" versendet. Fällig am %s.", homework, dueDate.Localized()))
}

// deleteProjectAndClearRepoField is the ephemeral-run cleanup: the fork is
// removed again and the repository field cleared. The candidate is
// re-fetched first so the field carries its persisted id.
func (b *Bot) deleteProjectAndClearRepoField(ctx context.Context, candidateID, forkID int64) error {
	candidate, err := b.pipeline.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return err
	}
	if err := b.repoHost.DeleteProject(ctx, forkID); err != nil {
		return err
	}
	if repoField := candidate.FieldByName(gitlabRepoFieldName); repoField != nil {
		return b.pipeline.ClearProfileField(ctx, candidate, repoField)
	}
	return nil
}

func (b *Bot) setGitlabRepoField(ctx context.Context, candidate *domain.Candidate, projectURL string) error {
	repoField := candidate.FieldByName(gitlabRepoFieldName)
	if repoField == nil || repoField.Kind != domain.FieldKindSingleLine {
		return fmt.Errorf("%q field is not configured correctly, check the profile fields template for candidates", gitlabRepoFieldName)
	}
	return b.pipeline.UpdateProfileField(ctx, candidate, repoField, []string{projectURL})
}

// homeworkToSend resolves the selected assignment from the homework
// dropdown.
func homeworkToSend(candidate *domain.Candidate) (string, error) {
	field := candidate.FieldByName(homeworkFieldName)
	values, ok := field.DropdownValues()
	if !ok {
		return "", fmt.Errorf("%q field is missing or not of kind 'dropdown', check the profile fields template for candidates", homeworkFieldName)
	}
	if len(values) == 0 || values[0] == "" {
		return "", domain.NewPipelineError(
			fmt.Sprintf("%s Es wurde keine Hausaufgabe ausgewählt.", domain.MarkerMissingField))
	}
	return values[0], nil
}

// gitlabUsername resolves the candidate's repository-host account name,
// with any stray whitespace stripped.
func gitlabUsername(candidate *domain.Candidate) (string, error) {
	field := candidate.FieldByName(gitlabUsernameFieldName)
	values, ok := field.SingleLineValues()
	if !ok {
		return "", fmt.Errorf("%q field is missing or not of kind 'single_line', check the profile fields template for candidates", gitlabUsernameFieldName)
	}
	if len(values) == 0 || stripWhitespace(values[0]) == "" {
		return "", domain.NewPipelineError(
			fmt.Sprintf("%s Es wurde kein GitLab-Benutzername angegeben.", domain.MarkerMissingField))
	}
	return stripWhitespace(values[0]), nil
}
