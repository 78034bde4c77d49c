// Package gitlab implements the typed client for the code-hosting API
// (GitLab API v4), encapsulating the fork-and-prepare protocol.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"go-homework-bot/internal/domain"
	"go-homework-bot/pkg/httpclient"
	"go-homework-bot/pkg/logger"
)

const (
	// Developer access: enough to push, not enough to change settings.
	accessLevelDeveloper = 30

	solutionBranchName = "solution"

	// Hard ceiling on import-status polls; together with the pause this
	// covers several minutes of fork provisioning.
	forkWaitMaxAttempts = 100
)

type Client struct {
	http *httpclient.Client

	templateNamespace string
	homeworkNamespace string

	// Pause between import-status polls. Overridable for tests.
	forkRetryPause time.Duration
}

func NewClient(baseURL, apiToken, templateNamespace, homeworkNamespace string, forkRetryPause time.Duration) *Client {
	return &Client{
		http:              httpclient.New(baseURL, apiToken),
		templateNamespace: templateNamespace,
		homeworkNamespace: homeworkNamespace,
		forkRetryPause:    forkRetryPause,
	}
}

func (c *Client) searchProjectsByName(ctx context.Context, name, namespaceID string) ([]domain.Project, error) {
	query := url.Values{}
	query.Set("search", name)

	var projects []domain.Project
	err := c.http.Request(ctx, fmt.Sprintf("/groups/%s/projects", namespaceID),
		&httpclient.Options{Query: query}, &projects)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) getProject(ctx context.Context, name, namespaceID string) (*domain.Project, error) {
	projects, err := c.searchProjectsByName(ctx, name, namespaceID)
	if err != nil {
		return nil, err
	}
	for _, project := range projects {
		if strings.EqualFold(project.Name, name) {
			return &project, nil
		}
	}
	return nil, domain.NewRepoHostError(
		fmt.Sprintf("%s Die Hausaufgabe \"%s\" konnte nicht gefunden werden.", domain.MarkerProjectNotFound, name))
}

// GetTemplateProject looks up a homework template by name in the templates
// namespace (case-insensitive exact match).
func (c *Client) GetTemplateProject(ctx context.Context, name string) (*domain.Project, error) {
	return c.getProject(ctx, name, c.templateNamespace)
}

// GetHomeworkProject looks up an already-forked homework by name in the
// homework namespace.
func (c *Client) GetHomeworkProject(ctx context.Context, name string) (*domain.Project, error) {
	return c.getProject(ctx, name, c.homeworkNamespace)
}

// ForkProject requests a fork of the template into the homework namespace.
// Provisioning continues asynchronously; see WaitForForkFinish.
func (c *Client) ForkProject(ctx context.Context, templateProjectID int64, forkName string) (*domain.Project, error) {
	var fork domain.Project
	err := c.http.Request(ctx, fmt.Sprintf("/projects/%d/fork", templateProjectID), &httpclient.Options{
		Method: http.MethodPost,
		Body: map[string]interface{}{
			"namespace_id": c.homeworkNamespace,
			"name":         forkName,
			"path":         forkName,
		},
	}, &fork)
	if err != nil {
		return nil, err
	}
	return &fork, nil
}

// WaitForForkFinish polls the fork's import status until it is finished,
// bridging the host's asynchronous provisioning into a synchronous call.
// It fails immediately when the import reports "failed" and after the retry
// budget is exhausted.
func (c *Client) WaitForForkFinish(ctx context.Context, forkID int64) error {
	logger.Log.Info("[GitLab] waiting for fork to finish importing", "fork_id", forkID)

	var status domain.ImportStatus
	for attempt := 0; attempt < forkWaitMaxAttempts; attempt++ {
		if attempt > 0 && c.forkRetryPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.forkRetryPause):
			}
		}

		var response struct {
			ImportStatus domain.ImportStatus `json:"import_status"`
		}
		if err := c.http.Request(ctx, fmt.Sprintf("/projects/%d/import", forkID), nil, &response); err != nil {
			return err
		}
		status = response.ImportStatus

		if status == domain.ImportStatusFinished {
			logger.Log.Info("[GitLab] project successfully forked", "fork_id", forkID)
			return nil
		}
		if status == domain.ImportStatusFailed {
			break
		}
	}

	return domain.NewRepoHostError(
		fmt.Sprintf("%s Das Repository konnte nicht geforkt werden. Status: \"%s\"", domain.MarkerForkFailed, status))
}

// ForkHomework composes the whole fork-and-prepare protocol: fork, wait for
// the import, drop a template solution branch if one exists, unprotect all
// branches. A failure after the fork exists propagates without rolling the
// fork back; the flagged state is left for manual remediation.
func (c *Client) ForkHomework(ctx context.Context, templateProjectID int64, forkName string) (*domain.Project, error) {
	fork, err := c.ForkProject(ctx, templateProjectID, forkName)
	if err != nil {
		return nil, err
	}

	if err := c.WaitForForkFinish(ctx, fork.ID); err != nil {
		return nil, err
	}
	if err := c.deleteSolutionBranch(ctx, fork); err != nil {
		return nil, err
	}
	if err := c.UnprotectAllBranches(ctx, fork); err != nil {
		return nil, err
	}

	logger.Log.Info("[GitLab] forked repository", "template_id", templateProjectID, "fork", forkName)
	return fork, nil
}

func (c *Client) GetBranches(ctx context.Context, project *domain.Project) ([]domain.Branch, error) {
	var branches []domain.Branch
	err := c.http.Request(ctx, fmt.Sprintf("/projects/%d/repository/branches", project.ID), nil, &branches)
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (c *Client) DeleteBranch(ctx context.Context, project *domain.Project, branchName string) error {
	path := fmt.Sprintf("/projects/%d/repository/branches/%s", project.ID, url.PathEscape(branchName))
	if err := c.http.Request(ctx, path, &httpclient.Options{Method: http.MethodDelete}, nil); err != nil {
		return err
	}
	logger.Log.Info("[GitLab] deleted branch", "project_id", project.ID, "branch", branchName)
	return nil
}

func (c *Client) unprotectBranch(ctx context.Context, project *domain.Project, branch domain.Branch) error {
	path := fmt.Sprintf("/projects/%d/protected_branches/%s", project.ID, url.PathEscape(branch.Name))
	if err := c.http.Request(ctx, path, &httpclient.Options{Method: http.MethodDelete}, nil); err != nil {
		return err
	}
	logger.Log.Info("[GitLab] unprotected branch", "project_id", project.ID, "branch", branch.Name)
	return nil
}

func (c *Client) deleteSolutionBranch(ctx context.Context, project *domain.Project) error {
	branches, err := c.GetBranches(ctx, project)
	if err != nil {
		return err
	}
	for _, branch := range branches {
		if branch.Name == solutionBranchName {
			return c.DeleteBranch(ctx, project, solutionBranchName)
		}
	}
	return nil
}

// UnprotectAllBranches removes protection from every protected branch of the
// fork, concurrently. Candidates cannot push to protected branches.
func (c *Client) UnprotectAllBranches(ctx context.Context, project *domain.Project) error {
	branches, err := c.GetBranches(ctx, project)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, branch := range branches {
		if !branch.Protected {
			continue
		}
		branch := branch
		group.Go(func() error {
			return c.unprotectBranch(groupCtx, project, branch)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	logger.Log.Info("[GitLab] successfully unprotected branches", "project_id", project.ID)
	return nil
}

func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	if err := c.http.Request(ctx, fmt.Sprintf("/projects/%d", projectID), &httpclient.Options{Method: http.MethodDelete}, nil); err != nil {
		return err
	}
	logger.Log.Info("[GitLab] deleted project", "project_id", projectID)
	return nil
}

// AddMaintainerToProject grants the candidate Developer access that expires
// at the due date, so access self-revokes without bot intervention.
func (c *Client) AddMaintainerToProject(ctx context.Context, projectID, userID int64, expiresAt domain.Date) error {
	err := c.http.Request(ctx, fmt.Sprintf("/projects/%d/members", projectID), &httpclient.Options{
		Method: http.MethodPost,
		Body: map[string]interface{}{
			"id":           projectID,
			"user_id":      userID,
			"access_level": accessLevelDeveloper,
			"expires_at":   expiresAt.String(),
		},
	}, nil)
	if err != nil {
		return err
	}
	logger.Log.Info("[GitLab] added user to repository", "user_id", userID, "project_id", projectID)
	return nil
}

// GetUser resolves a username case-insensitively.
func (c *Client) GetUser(ctx context.Context, username string) (*domain.User, error) {
	query := url.Values{}
	query.Set("username", username)

	var users []domain.User
	if err := c.http.Request(ctx, "/users", &httpclient.Options{Query: query}, &users); err != nil {
		return nil, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			logger.Log.Info("[GitLab] found user", "username", user.Username, "user_id", user.ID)
			return &user, nil
		}
	}
	return nil, domain.NewRepoHostError(
		fmt.Sprintf("%s GitLab-User \"%s\" nicht gefunden.", domain.MarkerUserNotFound, username))
}

// GetOwnUserInfo returns the bot's own account, used as the author filter
// when detecting closed homework issues.
func (c *Client) GetOwnUserInfo(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.http.Request(ctx, "/user", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, domain.NewRepoHostError(
			fmt.Sprintf("%s Eigene GitLab Profilinformationen nicht gefunden.", domain.MarkerUserNotFound))
	}
	return &user, nil
}

// CreateHomeworkIssue files the instructional issue in the fork, assigned to
// the candidate, due at the homework deadline.
func (c *Client) CreateHomeworkIssue(ctx context.Context, projectID, assigneeID int64, dueDate domain.Date, values domain.IssueValues) (*domain.Issue, error) {
	description, err := renderHomeworkIssue(values)
	if err != nil {
		return nil, err
	}

	var issue domain.Issue
	err = c.http.Request(ctx, fmt.Sprintf("/projects/%d/issues", projectID), &httpclient.Options{
		Method: http.MethodPost,
		Body: map[string]interface{}{
			"title":        values.Title,
			"description":  description,
			"assignee_ids": []int64{assigneeID},
			"due_date":     dueDate.String(),
		},
	}, &issue)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("[GitLab] created issue", "title", issue.Title, "assignee", issue.Assignee.Username)
	return &issue, nil
}

// GetProjectIssues lists issues, optionally filtered by state and author.
func (c *Client) GetProjectIssues(ctx context.Context, projectID int64, state domain.IssueState, author *domain.User) ([]domain.Issue, error) {
	query := url.Values{}
	query.Set("state", string(state))
	if author != nil {
		query.Set("author_id", fmt.Sprintf("%d", author.ID))
	}

	var issues []domain.Issue
	err := c.http.Request(ctx, fmt.Sprintf("/projects/%d/issues", projectID),
		&httpclient.Options{Query: query}, &issues)
	if err != nil {
		return nil, err
	}

	if len(issues) > 0 {
		logger.Log.Info("[GitLab] found issues", "count", len(issues), "state", state, "project_id", projectID)
	}
	return issues, nil
}

// UpdateIssueDueDate moves an issue's due date, used when a deadline
// extension is granted.
func (c *Client) UpdateIssueDueDate(ctx context.Context, projectID, issueIID int64, dueDate domain.Date) error {
	err := c.http.Request(ctx, fmt.Sprintf("/projects/%d/issues/%d", projectID, issueIID), &httpclient.Options{
		Method: http.MethodPut,
		Body: map[string]interface{}{
			"due_date": dueDate.String(),
		},
	}, nil)
	if err != nil {
		return err
	}
	logger.Log.Info("[GitLab] updated issue due date", "project_id", projectID, "issue_iid", issueIID, "due_date", dueDate.String())
	return nil
}
