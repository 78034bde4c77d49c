package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-homework-bot/pkg/httpclient"
)

func TestRequest(t *testing.T) {
	t.Run("Should attach bearer token and query parameters", func(t *testing.T) {
		var gotAuth, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		client := httpclient.New(server.URL, "secret-token")
		query := url.Values{}
		query.Set("search", "todo api")

		var out map[string]bool
		err := client.Request(context.Background(), "/projects", &httpclient.Options{Query: query}, &out)

		require.NoError(t, err)
		assert.Equal(t, "Bearer secret-token", gotAuth)
		assert.Equal(t, "search=todo+api", gotQuery)
		assert.True(t, out["ok"])
	})

	t.Run("Should serialize the body as JSON", func(t *testing.T) {
		var gotBody string
		var gotContentType string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
			gotContentType = r.Header.Get("Content-Type")
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := httpclient.New(server.URL, "token")
		err := client.Request(context.Background(), "/tasks", &httpclient.Options{
			Method: http.MethodPost,
			Body:   map[string]string{"title": "hausaufgabe"},
		}, nil)

		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"hausaufgabe"}`, gotBody)
		assert.Equal(t, "application/json", gotContentType)
	})

	t.Run("Should leave out untouched on empty successful body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := httpclient.New(server.URL, "token")
		out := map[string]string{"left": "alone"}
		err := client.Request(context.Background(), "/tasks/1", nil, &out)

		require.NoError(t, err)
		assert.Equal(t, map[string]string{"left": "alone"}, out)
	})

	t.Run("Should return a typed error with decoded JSON body on failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"tag missing"}`))
		}))
		defer server.Close()

		client := httpclient.New(server.URL, "token")
		err := client.Request(context.Background(), "/candidates", nil, nil)

		var httpErr *httpclient.Error
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
		assert.Equal(t, map[string]interface{}{"error": "tag missing"}, httpErr.Body)
	})

	t.Run("Should keep a non-JSON error body as raw text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream unavailable"))
		}))
		defer server.Close()

		client := httpclient.New(server.URL, "token")
		err := client.Request(context.Background(), "/user", nil, nil)

		var httpErr *httpclient.Error
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
		assert.Equal(t, "upstream unavailable", httpErr.Body)
	})
}
