package httpclient

import (
	"encoding/json"
	"fmt"
)

// Error is returned for every non-2xx response. The decoded response body is
// carried along so callers can log the full payload; candidate-facing
// reporting only ever uses the status code.
type Error struct {
	StatusCode int
	Body       interface{}
}

func (e *Error) Error() string {
	if e.Body == nil {
		return fmt.Sprintf("HTTP request failed with status code %d.", e.StatusCode)
	}
	body, err := json.Marshal(e.Body)
	if err != nil {
		return fmt.Sprintf("HTTP request failed with status code %d: %v", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP request failed with status code %d: %s", e.StatusCode, body)
}
