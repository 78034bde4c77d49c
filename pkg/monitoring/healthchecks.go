// Package monitoring signals cycle heartbeats to healthchecks.io.
package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HealthchecksIO pings a healthchecks.io check once per successful poll
// cycle; a missed ping raises an alert on their side.
type HealthchecksIO struct {
	baseURL string
	uuid    string
	http    *http.Client
}

func NewHealthchecksIO(baseURL, uuid string) *HealthchecksIO {
	return &HealthchecksIO{
		baseURL: baseURL,
		uuid:    uuid,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HealthchecksIO) SignalSuccess(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/"+h.uuid, nil)
	if err != nil {
		return err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("heartbeat ping returned status %d", resp.StatusCode)
	}
	return nil
}
