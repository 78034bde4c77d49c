package bot

import (
	"context"
	"fmt"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/logger"
)

// extendDueDateForCandidate is the extend-due-dates phase for one
// candidate: an open extension task moves the due date of the homework
// issue. The new date follows the same rule as the original assignment: the
// task's explicit due date, else its creation day plus the default
// duration.
func (b *Bot) extendDueDateForCandidate(ctx context.Context, candidate *domain.Candidate) error {
	extensionTask, err := b.openTaskByTitle(ctx, candidate, extensionTaskTitle)
	if err != nil {
		return err
	}
	if extensionTask == nil {
		return nil
	}

	logger.Log.Info("[Bot] extending homework due date", "candidate_id", candidate.ID, "task_id", extensionTask.ID)

	if b.dryRun {
		logger.Log.Info("[Bot] dry run, due date not extended", "candidate_id", candidate.ID)
		return nil
	}

	project, err := b.projectByCandidate(ctx, candidate)
	if err != nil {
		return err
	}

	issue, err := b.openHomeworkIssue(ctx, project)
	if err != nil {
		return err
	}

	newDueDate := homeworkDueDate(extensionTask)

	if err := b.repoHost.UpdateIssueDueDate(ctx, project.ID, issue.IID, newDueDate); err != nil {
		return err
	}
	if err := b.pipeline.CompleteTask(ctx, extensionTask.ID); err != nil {
		return err
	}
	return b.pipeline.AddNoteToCandidate(ctx, candidate.ID,
		fmt.Sprintf("⏳ Frist verlängert, Hausaufgabe nun fällig am %s.", newDueDate.Localized()))
}

// openHomeworkIssue returns the bot's open assignment issue in the fork: by
// convention the first-created issue, i.e. the one with the lowest iid.
func (b *Bot) openHomeworkIssue(ctx context.Context, project *domain.Project) (*domain.Issue, error) {
	botUser, err := b.repoHost.GetOwnUserInfo(ctx)
	if err != nil {
		return nil, err
	}

	issues, err := b.repoHost.GetProjectIssues(ctx, project.ID, domain.IssueStateOpened, botUser)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, domain.NewRepoHostError(
			fmt.Sprintf("%s Kein offenes Bot-Issue im Projekt %d gefunden.", domain.MarkerMissingField, project.ID))
	}

	first := &issues[0]
	for i := range issues {
		if issues[i].IID < first.IID {
			first = &issues[i]
		}
	}
	return first, nil
}
