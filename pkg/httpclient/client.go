// Package httpclient is the single point of network I/O for both API
// clients: bearer-token auth, JSON bodies and uniform error translation.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-homework-bot/pkg/logger"
)

type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
}

// Options describes a single request. A nil Options means a plain GET.
type Options struct {
	Method string
	Query  url.Values
	Body   interface{}
}

func New(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Request executes one API call and decodes the JSON response into out.
// A successful response with an empty body leaves out untouched. Any non-2xx
// status is translated into *Error carrying the status code and the decoded
// response payload.
func (c *Client) Request(ctx context.Context, path string, opts *Options, out interface{}) error {
	method := http.MethodGet
	if opts != nil && opts.Method != "" {
		method = opts.Method
	}

	reqURL := c.baseURL + path
	if opts != nil && len(opts.Query) > 0 {
		reqURL += "?" + opts.Query.Encode()
	}

	var reqBody io.Reader
	if opts != nil && opts.Body != nil {
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := decodeErrorBody(resp)
		logger.Log.Warn("network request failed",
			"status", resp.StatusCode,
			"method", method,
			"url", reqURL,
			"body", body)
		return &Error{StatusCode: resp.StatusCode, Body: body}
	}

	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", reqURL, err)
	}
	return nil
}

// decodeErrorBody keeps whatever diagnostic payload the server sent: JSON
// when the content type says so, raw text otherwise.
func decodeErrorBody(resp *http.Response) interface{} {
	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return nil
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			return decoded
		}
	}
	return string(raw)
}
