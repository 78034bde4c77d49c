// Package bot contains the orchestrator: the poll cycle and the
// per-candidate state machine tying homework assignment, submission
// detection and due-date extension together.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/httpclient"
	"go-homework-bot/pkg/logger"
)

const (
	homeworkTaskTitle  = "hausaufgabe"
	errorTaskTitle     = "Fehler fixen"
	extensionTaskTitle = "Frist verlängern"

	homeworkSentStageTitle     = "Hausaufgabe versendet"
	homeworkReceivedStageTitle = "Hausaufgabe erhalten"

	homeworkFieldName       = "Hausaufgabe"
	gitlabUsernameFieldName = "GitLab Account"
	gitlabRepoFieldName     = "GitLab Repo"

	reviewTaskTitle   = "🚔 MK bilden und zuordnen 🚔"
	homeworkIssueName = "Hausaufgabe abschließen"

	// ErrorTag flags candidates whose processing failed; poll skips them
	// until a human clears the error task.
	ErrorTag = "Bot-Fehler"

	gitlabBaseURL = "https://gitlab.com/"

	defaultHomeworkDurationInDays = 8
)

type Bot struct {
	pipeline  domain.Pipeline
	repoHost  domain.RepositoryHost
	monitorer domain.Monitorer

	requiredTag        string
	hrAdminID          string
	dryRun             bool
	deleteProjectAtEnd bool
}

type Options struct {
	RequiredTag        string
	HRAdminID          string
	DryRun             bool
	DeleteProjectAtEnd bool
}

func New(pipeline domain.Pipeline, repoHost domain.RepositoryHost, monitorer domain.Monitorer, opts Options) *Bot {
	return &Bot{
		pipeline:           pipeline,
		repoHost:           repoHost,
		monitorer:          monitorer,
		requiredTag:        opts.RequiredTag,
		hrAdminID:          opts.HRAdminID,
		dryRun:             opts.DryRun,
		deleteProjectAtEnd: opts.DeleteProjectAtEnd,
	}
}

// Poll runs one full cycle: fetch and filter candidates, then the three
// phases, each isolating failures per candidate. A heartbeat goes out once
// the cycle completes, regardless of individual candidate failures.
func (b *Bot) Poll(ctx context.Context) error {
	candidates, err := b.pipeline.GetAllQualifiedCandidates(ctx)
	if err != nil {
		return err
	}

	if b.requiredTag != "" {
		var tagged []domain.Candidate
		for _, candidate := range candidates {
			if candidate.HasTag(b.requiredTag) {
				tagged = append(tagged, candidate)
			}
		}
		candidates = tagged
	}

	// Candidates flagged with a prior unrecoverable error are excluded for
	// the whole cycle, not re-checked per phase.
	active := b.filterErroredCandidates(ctx, candidates)

	b.forEachCandidate(ctx, active, b.sendHomeworkForCandidate)
	b.forEachCandidate(ctx, active, b.handleClosedIssuesForCandidate)
	b.forEachCandidate(ctx, active, b.extendDueDateForCandidate)

	if b.monitorer != nil {
		if err := b.monitorer.SignalSuccess(ctx); err != nil {
			logger.Log.Warn("[Bot] heartbeat failed", "error", err)
		}
	}
	return nil
}

// filterErroredCandidates drops everyone holding an unfinished error task.
// A failure during the check itself is routed through the error handler and
// excludes the candidate as well.
func (b *Bot) filterErroredCandidates(ctx context.Context, candidates []domain.Candidate) []domain.Candidate {
	var (
		mu     sync.Mutex
		active []domain.Candidate
		wg     sync.WaitGroup
	)
	for i := range candidates {
		candidate := &candidates[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			task, err := b.openTaskByTitle(ctx, candidate, errorTaskTitle)
			if err != nil {
				b.handleError(ctx, err, candidate)
				return
			}
			if task != nil {
				logger.Log.Warn("[Bot] skipping candidate with unfinished error task",
					"candidate_id", candidate.ID, "name", candidate.Name)
				return
			}
			mu.Lock()
			active = append(active, *candidate)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return active
}

// forEachCandidate fans the operation out across all candidates and joins.
// Every failure lands in the shared error handler; nothing short-circuits
// the batch.
func (b *Bot) forEachCandidate(ctx context.Context, candidates []domain.Candidate, fn func(context.Context, *domain.Candidate) error) {
	var wg sync.WaitGroup
	for i := range candidates {
		candidate := &candidates[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, candidate); err != nil {
				b.handleError(ctx, err, candidate)
			}
		}()
	}
	wg.Wait()
}

// handleError translates a per-candidate failure into a human-readable
// note, an error marker tag and an open remediation task. Stack traces stay
// in the logs; the note carries only the classified summary.
func (b *Bot) handleError(ctx context.Context, err error, candidate *domain.Candidate) {
	var (
		pipelineErr *domain.PipelineError
		repoHostErr *domain.RepoHostError
		httpErr     *httpclient.Error
	)

	var note string
	switch {
	case errors.As(err, &pipelineErr):
		note = pipelineErr.NoteMessage()
	case errors.As(err, &repoHostErr):
		note = repoHostErr.NoteMessage()
	case errors.As(err, &httpErr):
		note = fmt.Sprintf("%s Unerwarteter HTTP-Fehler mit Code %d. Für mehr Infos bitte in die Logs schauen.",
			domain.MarkerUnexpectedHTTP, httpErr.StatusCode)
	default:
		note = fmt.Sprintf("%s Unerwarteter Fehler. Bitte in die Logs schauen.", domain.MarkerUnexpected)
	}

	logger.Log.Warn("[Bot] candidate processing failed",
		"candidate_id", candidate.ID, "name", candidate.Name, "error", err)

	b.notifyAboutError(ctx, candidate, note)

	if err := b.pipeline.AddTagToCandidate(ctx, candidate.ID, ErrorTag); err != nil {
		logger.Log.Error("[Bot] failed to tag candidate with error marker", "candidate_id", candidate.ID, "error", err)
	}
	if _, err := b.pipeline.CreateCandidateTask(ctx, candidate, errorTaskTitle, ""); err != nil {
		logger.Log.Error("[Bot] failed to create error task", "candidate_id", candidate.ID, "error", err)
	}
}

// notifyAboutError posts the note unless an identical one already exists,
// so a persistent external inconsistency does not spam the candidate record
// across cycles.
func (b *Bot) notifyAboutError(ctx context.Context, candidate *domain.Candidate, note string) {
	exists, err := b.pipeline.NoteExists(ctx, candidate.ID, note)
	if err != nil {
		logger.Log.Error("[Bot] failed to check existing notes", "candidate_id", candidate.ID, "error", err)
	}
	if exists {
		return
	}
	if err := b.pipeline.AddNoteToCandidate(ctx, candidate.ID, note); err != nil {
		logger.Log.Error("[Bot] failed to add error note", "candidate_id", candidate.ID, "error", err)
	}
}

// openTaskByTitle finds the single open task with the given title
// (case-insensitive). More than one open match is an inconsistency in the
// external system that needs a human.
func (b *Bot) openTaskByTitle(ctx context.Context, candidate *domain.Candidate, title string) (*domain.Task, error) {
	allTasks, err := b.pipeline.GetCandidateTasks(ctx, candidate.ID)
	if err != nil {
		return nil, err
	}

	var matches []domain.Task
	for _, task := range allTasks {
		if !task.Completed && strings.EqualFold(task.Title, title) {
			matches = append(matches, task)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		return nil, domain.NewPipelineError(
			fmt.Sprintf("%s Es scheinen mehrere Aufgaben mit Titel '%s' vorhanden zu sein, bitte eines davon löschen.",
				domain.MarkerMissingField, title))
	}
	return &matches[0], nil
}

// homeworkDueDate is the task's explicit due date, else its creation day
// plus the default duration.
func homeworkDueDate(task *domain.Task) domain.Date {
	if task.DueDate != nil {
		return *task.DueDate
	}
	return domain.DateOf(task.CreatedAt).AddDays(defaultHomeworkDurationInDays)
}

// forkName generates the per-candidate repository name.
func forkName(username string) string {
	return fmt.Sprintf("homework-%s-%d", username, rand.Int63n(1_000_000_000_000))
}

// stripWhitespace removes all whitespace, including inner runs; usernames
// are pasted into the profile field by hand.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
