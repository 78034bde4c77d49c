// Package recruitee implements the typed client for the hiring-pipeline API.
package recruitee

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/httpclient"
	"go-homework-bot/pkg/logger"
)

const (
	// OfferBotTag marks the offers whose candidates the bot manages.
	OfferBotTag = "HT-Bot Target"

	// Concurrent per-candidate detail fetches during hydration.
	hydrationConcurrency = 8
)

type Client struct {
	http *httpclient.Client
}

// NewClient builds a client for one company's pipeline, e.g.
// https://api.recruitee.com/c/{companyID}.
func NewClient(baseURL, companyID, apiToken string) *Client {
	return &Client{
		http: httpclient.New(fmt.Sprintf("%s/%s", strings.TrimRight(baseURL, "/"), companyID), apiToken),
	}
}

// GetOffersWithTag fetches all offers and keeps those carrying the tag. The
// bot cannot function without at least one managed offer, so an empty result
// is an error.
func (c *Client) GetOffersWithTag(ctx context.Context, tag string) ([]domain.Offer, error) {
	var response struct {
		Offers []domain.Offer `json:"offers"`
	}
	if err := c.http.Request(ctx, "/offers", nil, &response); err != nil {
		return nil, err
	}

	var offers []domain.Offer
	for _, offer := range response.Offers {
		if offer.HasTag(tag) {
			offers = append(offers, offer)
		}
	}
	if len(offers) == 0 {
		return nil, domain.NewPipelineError(
			fmt.Sprintf("%s Keine Jobangebote mit dem Tag \"%s\" gefunden.", domain.MarkerOfferTagNotFound, tag))
	}
	return offers, nil
}

// GetAllCandidatesForOffers fetches the minimal candidate identities
// qualified against the given offers in one batched call.
func (c *Client) GetAllCandidatesForOffers(ctx context.Context, offers []domain.Offer) ([]domain.MinimalCandidate, error) {
	ids := make([]string, 0, len(offers))
	for _, offer := range offers {
		ids = append(ids, fmt.Sprintf("%d", offer.ID))
	}

	query := url.Values{}
	query.Set("qualified", "true")
	query.Set("offers", "["+strings.Join(ids, ",")+"]")

	var response struct {
		Candidates []domain.MinimalCandidate `json:"candidates"`
	}
	if err := c.http.Request(ctx, "/candidates", &httpclient.Options{Query: query}, &response); err != nil {
		return nil, err
	}
	return response.Candidates, nil
}

// GetAllQualifiedCandidates is the orchestrator's entry point: managed
// offers, their qualified candidates, hydrated concurrently.
func (c *Client) GetAllQualifiedCandidates(ctx context.Context) ([]domain.Candidate, error) {
	offers, err := c.GetOffersWithTag(ctx, OfferBotTag)
	if err != nil {
		return nil, err
	}

	minimal, err := c.GetAllCandidatesForOffers(ctx, offers)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, len(minimal))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(hydrationConcurrency)
	for i, m := range minimal {
		i, m := i, m
		group.Go(func() error {
			candidate, err := c.GetCandidateByID(groupCtx, m.ID)
			if err != nil {
				return err
			}
			candidates[i] = *candidate
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (c *Client) GetCandidateByID(ctx context.Context, id int64) (*domain.Candidate, error) {
	var response struct {
		Candidate domain.Candidate `json:"candidate"`
	}
	if err := c.http.Request(ctx, fmt.Sprintf("/candidates/%d", id), nil, &response); err != nil {
		return nil, err
	}
	return &response.Candidate, nil
}

func (c *Client) GetCandidateTasks(ctx context.Context, candidateID int64) ([]domain.Task, error) {
	var response struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if err := c.http.Request(ctx, fmt.Sprintf("/candidates/%d/tasks", candidateID), nil, &response); err != nil {
		return nil, err
	}
	return response.Tasks, nil
}

func (c *Client) GetTaskDetails(ctx context.Context, taskID int64) (*domain.TaskDetails, error) {
	var details domain.TaskDetails
	if err := c.http.Request(ctx, fmt.Sprintf("/tasks/%d", taskID), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// CreateCandidateTask creates an open task on the candidate, optionally
// assigned to one pipeline admin.
func (c *Client) CreateCandidateTask(ctx context.Context, candidate *domain.Candidate, title string, adminID string) (*domain.TaskDetails, error) {
	task := map[string]interface{}{
		"title":        title,
		"candidate_id": candidate.ID,
	}
	if adminID != "" {
		task["admin_ids"] = []string{adminID}
	}

	var details domain.TaskDetails
	err := c.http.Request(ctx, "/tasks", &httpclient.Options{
		Method: http.MethodPost,
		Body:   map[string]interface{}{"task": task},
	}, &details)
	if err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) CompleteTask(ctx context.Context, taskID int64) error {
	err := c.http.Request(ctx, fmt.Sprintf("/tasks/%d", taskID), &httpclient.Options{
		Method: http.MethodPut,
		Body: map[string]interface{}{
			"task": map[string]interface{}{"completed": true},
		},
	}, nil)
	if err != nil {
		return err
	}
	logger.Log.Info("[Recruitee] completed candidate task", "task_id", taskID)
	return nil
}

func (c *Client) AddNoteToCandidate(ctx context.Context, candidateID int64, message string) error {
	return c.http.Request(ctx, fmt.Sprintf("/candidates/%d/notes", candidateID), &httpclient.Options{
		Method: http.MethodPost,
		Body: map[string]interface{}{
			"note": map[string]interface{}{
				"id":   nil,
				"body": message,
			},
		},
	}, nil)
}

// NoteExists reports whether the candidate already carries a note with the
// given text, to avoid posting the same warning on every cycle.
func (c *Client) NoteExists(ctx context.Context, candidateID int64, message string) (bool, error) {
	var response struct {
		Notes []struct {
			Body string `json:"body"`
		} `json:"notes"`
	}
	if err := c.http.Request(ctx, fmt.Sprintf("/candidates/%d/notes", candidateID), nil, &response); err != nil {
		return false, err
	}
	for _, note := range response.Notes {
		if strings.Contains(note.Body, message) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) AddTagToCandidate(ctx context.Context, candidateID int64, tag string) error {
	return c.http.Request(ctx, fmt.Sprintf("/candidates/%d/tags", candidateID), &httpclient.Options{
		Method: http.MethodPost,
		Body:   map[string]interface{}{"tag": tag},
	}, nil)
}

// ProceedCandidateToStage moves the candidate's first placement forward to
// the named stage.
func (c *Client) ProceedCandidateToStage(ctx context.Context, candidate *domain.Candidate, stageName string) error {
	if len(candidate.Placements) == 0 {
		return domain.NewPipelineError(
			fmt.Sprintf("%s Kandidat:in hat keine Platzierung in einer Pipeline.", domain.MarkerMissingField))
	}
	placement := candidate.Placements[0]

	stage, err := c.GetStageByName(ctx, stageName, placement.OfferID)
	if err != nil {
		return err
	}

	query := url.Values{}
	query.Set("stage_id", fmt.Sprintf("%d", stage.ID))
	query.Set("proceed", "true")

	return c.http.Request(ctx, fmt.Sprintf("/placements/%d/change_stage", placement.ID), &httpclient.Options{
		Method: http.MethodPatch,
		Query:  query,
	}, nil)
}

// GetStageByName resolves a stage within one offer. Both sides are
// lowercased and space-stripped, and containment counts as a match, so
// "Homework sent" finds "Hausaufgabe Versendet"-style names configured in
// the external system.
func (c *Client) GetStageByName(ctx context.Context, stageName string, offerID int64) (*domain.Stage, error) {
	query := url.Values{}
	query.Set("scope", "not_archived")
	query.Set("view_mode", "default")

	var response struct {
		Offers []domain.Offer `json:"offers"`
	}
	if err := c.http.Request(ctx, "/offers", &httpclient.Options{Query: query}, &response); err != nil {
		return nil, err
	}

	var offer *domain.Offer
	for i := range response.Offers {
		if response.Offers[i].ID == offerID {
			offer = &response.Offers[i]
			break
		}
	}
	if offer == nil {
		return nil, domain.NewPipelineError(
			fmt.Sprintf("%s Jobangebot mit der ID %d nicht gefunden.", domain.MarkerStageNotFound, offerID))
	}

	searched := normalizeStageName(stageName)
	for _, stage := range offer.PipelineTemplate.Stages {
		if strings.Contains(normalizeStageName(stage.Name), searched) {
			return &stage, nil
		}
	}
	return nil, domain.NewPipelineError(
		fmt.Sprintf("%s Pipeline-Schritt \"%s\" nicht gefunden.", domain.MarkerStageNotFound, stageName))
}

func normalizeStageName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// SendMailToCandidate renders the homework notification and dispatches it
// through the pipeline's mailbox. The first address is the recipient, any
// further ones go to cc.
func (c *Client) SendMailToCandidate(ctx context.Context, candidateID int64, to string, cc []string, values domain.MailValues) error {
	content, err := renderHomeworkMail(values)
	if err != nil {
		return err
	}

	recipients := []map[string]interface{}{
		{"candidate_id": candidateID, "candidate_email": to},
	}
	ccRecipients := make([]map[string]interface{}, 0, len(cc))
	for _, address := range cc {
		ccRecipients = append(ccRecipients, map[string]interface{}{
			"candidate_id":    candidateID,
			"candidate_email": address,
		})
	}

	body := map[string]interface{}{
		"body_html": content,
		"subject":   homeworkMailSubject,
		"to":        recipients,
	}
	if len(ccRecipients) > 0 {
		body["cc"] = ccRecipients
	}

	return c.http.Request(ctx, "/mailbox/send", &httpclient.Options{
		Method: http.MethodPost,
		Body:   body,
	}, nil)
}
