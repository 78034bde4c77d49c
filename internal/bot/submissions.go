package bot

import (
	"context"
	"fmt"
	"strings"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/logger"
)

// handleClosedIssuesForCandidate is the detect-closed-submissions phase for
// one candidate: when the candidate sits in the "homework sent" stage and
// their fork carries exactly one closed bot-authored issue, the homework is
// considered submitted.
func (b *Bot) handleClosedIssuesForCandidate(ctx context.Context, candidate *domain.Candidate) error {
	inStage, err := b.isInHomeworkSentStage(ctx, candidate)
	if err != nil {
		return err
	}
	if !inStage {
		return nil
	}

	logger.Log.Info("[Bot] checking issues for candidate", "candidate_id", candidate.ID, "name", candidate.Name)

	project, err := b.projectByCandidate(ctx, candidate)
	if err != nil {
		// Without a repository field there is nothing to check; this is
		// not worth an error task.
		logger.Log.Warn("[Bot] no project URL field found in candidate profile", "candidate_id", candidate.ID)
		return nil
	}

	botUser, err := b.repoHost.GetOwnUserInfo(ctx)
	if err != nil {
		return err
	}

	closedIssues, err := b.repoHost.GetProjectIssues(ctx, project.ID, domain.IssueStateClosed, botUser)
	if err != nil {
		return err
	}

	if len(closedIssues) == 0 {
		return nil
	}
	if len(closedIssues) > 1 {
		// A data integrity problem in the external system, not a
		// recoverable bot error.
		return domain.NewRepoHostError(
			fmt.Sprintf("%s Es gibt mehrere vom Bot erstellte, geschlossene Issues im Projekt %d. Bitte manuell prüfen.",
				domain.MarkerMissingField, project.ID))
	}

	if b.dryRun {
		logger.Log.Info("[Bot] dry run, submission not recorded", "candidate_id", candidate.ID)
		return nil
	}

	if err := b.pipeline.ProceedCandidateToStage(ctx, candidate, homeworkReceivedStageTitle); err != nil {
		return err
	}
	if _, err := b.pipeline.CreateCandidateTask(ctx, candidate, reviewTaskTitle, b.hrAdminID); err != nil {
		return err
	}
	return b.pipeline.AddNoteToCandidate(ctx, candidate.ID,
		"📥 Hausaufgabe erhalten. Das Bot-Issue wurde geschlossen.")
}

// isInHomeworkSentStage resolves each placement's "homework sent" stage and
// compares ids; the stage is configured per offer, so the lookup runs per
// placement.
func (b *Bot) isInHomeworkSentStage(ctx context.Context, candidate *domain.Candidate) (bool, error) {
	for _, placement := range candidate.Placements {
		if placement.StageID == 0 {
			continue
		}
		stage, err := b.pipeline.GetStageByName(ctx, homeworkSentStageTitle, placement.OfferID)
		if err != nil {
			return false, err
		}
		if placement.StageID == stage.ID {
			return true, nil
		}
	}
	return false, nil
}

// projectByCandidate resolves the candidate's fork from the repository-URL
// profile field: the URL's last path segment is the project name in the
// homework namespace.
func (b *Bot) projectByCandidate(ctx context.Context, candidate *domain.Candidate) (*domain.Project, error) {
	repoField := candidate.FieldByName(gitlabRepoFieldName)
	projectURL, ok := repoField.FirstSingleLineValue()
	if !ok {
		return nil, fmt.Errorf("no project candidate field found")
	}

	projectPath := strings.TrimPrefix(projectURL, gitlabBaseURL)
	segments := strings.Split(projectPath, "/")
	return b.repoHost.GetHomeworkProject(ctx, segments[len(segments)-1])
}
