package gitlab_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-homework-bot/internal/domain"
	"go-homework-bot/internal/gitlab"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// newTestClient spins up a code-host API double answering from the routes map
// (keyed "METHOD /path"). Handlers override routes for paths that need to
// change their answer between calls. The fork-retry pause is zero so polling
// loops run instantly.
func newTestClient(t *testing.T, routes map[string]string, handlers map[string]http.HandlerFunc) (*gitlab.Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(raw),
		})

		key := r.Method + " " + r.URL.Path
		if handler, ok := handlers[key]; ok {
			handler(w, r)
			return
		}
		if body, ok := routes[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return gitlab.NewClient(server.URL, "token", "101", "202", 0), &requests
}

func TestGetTemplateProject(t *testing.T) {
	t.Run("Should match the project name case-insensitively", func(t *testing.T) {
		client, requests := newTestClient(t, map[string]string{
			"GET /groups/101/projects": `[
				{"id":1,"name":"todoapi-extended","web_url":"https://gitlab.com/tpl/todoapi-extended"},
				{"id":2,"name":"TodoApi","web_url":"https://gitlab.com/tpl/TodoApi"}
			]`,
		}, nil)

		project, err := client.GetTemplateProject(context.Background(), "todoapi")

		require.NoError(t, err)
		assert.Equal(t, int64(2), project.ID)
		assert.Contains(t, (*requests)[0].Query, "search=todoapi")
	})

	t.Run("Should fail when only partial matches exist", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			"GET /groups/101/projects": `[{"id":1,"name":"todoapi-extended"}]`,
		}, nil)

		_, err := client.GetTemplateProject(context.Background(), "todoapi")

		var hostErr *domain.RepoHostError
		require.ErrorAs(t, err, &hostErr)
		assert.Contains(t, hostErr.NoteMessage(), "todoapi")
	})
}

func TestWaitForForkFinish(t *testing.T) {
	t.Run("Should poll until the import finishes", func(t *testing.T) {
		statuses := []string{"queued", "started", "finished"}
		calls := 0
		client, _ := newTestClient(t, nil, map[string]http.HandlerFunc{
			"GET /projects/9/import": func(w http.ResponseWriter, r *http.Request) {
				status := statuses[calls]
				calls++
				_, _ = w.Write([]byte(`{"import_status":"` + status + `"}`))
			},
		})

		err := client.WaitForForkFinish(context.Background(), 9)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Should stop polling once the import fails", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, nil, map[string]http.HandlerFunc{
			"GET /projects/9/import": func(w http.ResponseWriter, r *http.Request) {
				calls++
				_, _ = w.Write([]byte(`{"import_status":"failed"}`))
			},
		})

		err := client.WaitForForkFinish(context.Background(), 9)

		var hostErr *domain.RepoHostError
		require.ErrorAs(t, err, &hostErr)
		assert.Contains(t, hostErr.NoteMessage(), "failed")
		assert.Equal(t, 1, calls)
	})

	t.Run("Should give up after the retry budget", func(t *testing.T) {
		calls := 0
		client, _ := newTestClient(t, nil, map[string]http.HandlerFunc{
			"GET /projects/9/import": func(w http.ResponseWriter, r *http.Request) {
				calls++
				_, _ = w.Write([]byte(`{"import_status":"started"}`))
			},
		})

		err := client.WaitForForkFinish(context.Background(), 9)

		var hostErr *domain.RepoHostError
		require.ErrorAs(t, err, &hostErr)
		assert.Equal(t, 100, calls)
	})
}

func TestForkHomework(t *testing.T) {
	t.Run("Should fork, drop the solution branch and unprotect", func(t *testing.T) {
		client, requests := newTestClient(t, map[string]string{
			"POST /projects/1/fork":  `{"id":9,"name":"homework-anna-42","web_url":"https://gitlab.com/hw/homework-anna-42"}`,
			"GET /projects/9/import": `{"import_status":"finished"}`,
			"GET /projects/9/repository/branches": `[
				{"name":"main","protected":true},
				{"name":"solution","protected":false}
			]`,
		}, nil)

		fork, err := client.ForkHomework(context.Background(), 1, "homework-anna-42")

		require.NoError(t, err)
		assert.Equal(t, int64(9), fork.ID)

		var methods []string
		for _, req := range *requests {
			methods = append(methods, req.Method+" "+req.Path)
		}
		assert.Contains(t, methods, "DELETE /projects/9/repository/branches/solution")
		assert.Contains(t, methods, "DELETE /projects/9/protected_branches/main")
		assert.NotContains(t, methods, "DELETE /projects/9/protected_branches/solution")

		var forkBody map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte((*requests)[0].Body), &forkBody))
		assert.Equal(t, "202", forkBody["namespace_id"])
		assert.Equal(t, "homework-anna-42", forkBody["name"])
		assert.Equal(t, "homework-anna-42", forkBody["path"])
	})

	t.Run("Should not touch branches when the import fails", func(t *testing.T) {
		client, requests := newTestClient(t, map[string]string{
			"POST /projects/1/fork":  `{"id":9,"name":"homework-anna-42"}`,
			"GET /projects/9/import": `{"import_status":"failed"}`,
		}, nil)

		_, err := client.ForkHomework(context.Background(), 1, "homework-anna-42")

		require.Error(t, err)
		for _, req := range *requests {
			assert.NotEqual(t, "/projects/9/repository/branches", req.Path)
		}
	})
}

func TestAddMaintainerToProject(t *testing.T) {
	client, requests := newTestClient(t, nil, nil)

	err := client.AddMaintainerToProject(context.Background(), 9, 55, domain.NewDate(2024, 2, 2))

	require.NoError(t, err)
	last := (*requests)[0]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/projects/9/members", last.Path)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(last.Body), &body))
	assert.Equal(t, float64(30), body["access_level"])
	assert.Equal(t, float64(55), body["user_id"])
	assert.Equal(t, "2024-02-02", body["expires_at"])
}

func TestGetUser(t *testing.T) {
	t.Run("Should resolve the username case-insensitively", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			"GET /users": `[{"id":55,"username":"AnnaM","name":"Anna Muster"}]`,
		}, nil)

		user, err := client.GetUser(context.Background(), "annam")

		require.NoError(t, err)
		assert.Equal(t, int64(55), user.ID)
	})

	t.Run("Should fail on an unknown username", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{"GET /users": `[]`}, nil)

		_, err := client.GetUser(context.Background(), "nobody")

		var hostErr *domain.RepoHostError
		require.ErrorAs(t, err, &hostErr)
		assert.Contains(t, hostErr.NoteMessage(), "nobody")
	})
}

func TestGetOwnUserInfo(t *testing.T) {
	t.Run("Should return the bot account", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{
			"GET /user": `{"id":7,"username":"ht-bot"}`,
		}, nil)

		user, err := client.GetOwnUserInfo(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "ht-bot", user.Username)
	})

	t.Run("Should fail on an empty account record", func(t *testing.T) {
		client, _ := newTestClient(t, map[string]string{"GET /user": `{}`}, nil)

		_, err := client.GetOwnUserInfo(context.Background())

		var hostErr *domain.RepoHostError
		require.ErrorAs(t, err, &hostErr)
	})
}

func TestCreateHomeworkIssue(t *testing.T) {
	client, requests := newTestClient(t, map[string]string{
		"POST /projects/9/issues": `{"id":300,"iid":1,"title":"Hausaufgabe abschließen","web_url":"https://gitlab.com/hw/homework-anna-42/-/issues/1"}`,
	}, nil)

	issue, err := client.CreateHomeworkIssue(context.Background(), 9, 55, domain.NewDate(2024, 2, 1), domain.IssueValues{
		Title:         "Hausaufgabe abschließen",
		ApplicantName: "Anna",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), issue.IID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte((*requests)[0].Body), &body))
	assert.Equal(t, "Hausaufgabe abschließen", body["title"])
	assert.Equal(t, []interface{}{float64(55)}, body["assignee_ids"])
	assert.Equal(t, "2024-02-01", body["due_date"])
	assert.Contains(t, body["description"], "Hallo Anna")
}

func TestGetProjectIssues(t *testing.T) {
	client, requests := newTestClient(t, map[string]string{
		"GET /projects/9/issues": `[{"id":300,"iid":1,"state":"closed"}]`,
	}, nil)

	author := &domain.User{ID: 7, Username: "ht-bot"}
	issues, err := client.GetProjectIssues(context.Background(), 9, domain.IssueStateClosed, author)

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueStateClosed, issues[0].State)
	query := (*requests)[0].Query
	assert.Contains(t, query, "state=closed")
	assert.Contains(t, query, "author_id=7")
}

func TestUpdateIssueDueDate(t *testing.T) {
	client, requests := newTestClient(t, nil, nil)

	err := client.UpdateIssueDueDate(context.Background(), 9, 1, domain.NewDate(2024, 2, 15))

	require.NoError(t, err)
	last := (*requests)[0]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/projects/9/issues/1", last.Path)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(last.Body), &body))
	assert.Equal(t, "2024-02-15", body["due_date"])
}
