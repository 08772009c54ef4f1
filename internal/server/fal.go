package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sketch-relay/internal/game"
)

// artifactPrefix is the host the image service delivers files from. Submitted
// artifact references must point there so players cannot smuggle in arbitrary
// URLs.
const artifactPrefix = "https://v3b.fal.media/files/"

// ValidateArtifactRef rejects artifact references that do not come from the
// image delivery host.
func ValidateArtifactRef(ref string) error {
	if !strings.HasPrefix(ref, artifactPrefix) {
		return fmt.Errorf("artifact reference must start with %s", artifactPrefix)
	}
	return nil
}

// FalClient talks to the fal.ai queue API: submit a prompt, poll its status,
// fetch the resulting image URL.
type FalClient struct {
	apiKey   string
	endpoint string
	queueURL string
	client   *http.Client
}

func NewFalClient(apiKey, endpoint, queueURL string) *FalClient {
	return &FalClient{
		apiKey:   apiKey,
		endpoint: endpoint,
		queueURL: strings.TrimRight(queueURL, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type falQueueStatus struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// Submit enqueues an image generation request and returns its request id.
func (c *FalClient) Submit(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"prompt": prompt,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", game.ErrExternal, err)
	}
	url := fmt.Sprintf("%s/%s", c.queueURL, c.endpoint)
	var status falQueueStatus
	if err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body), &status); err != nil {
		return "", err
	}
	if status.RequestID == "" {
		return "", fmt.Errorf("%w: queue returned no request id", game.ErrExternal)
	}
	return status.RequestID, nil
}

// Status reports whether the request has completed.
func (c *FalClient) Status(ctx context.Context, requestID string) (string, error) {
	url := fmt.Sprintf("%s/%s/requests/%s/status", c.queueURL, c.endpoint, requestID)
	var status falQueueStatus
	if err := c.do(ctx, http.MethodGet, url, nil, &status); err != nil {
		return "", err
	}
	return status.Status, nil
}

// Result fetches the delivered image URL for a completed request. It returns
// ("", nil) while the request is still in the queue.
func (c *FalClient) Result(ctx context.Context, requestID string) (string, error) {
	status, err := c.Status(ctx, requestID)
	if err != nil {
		return "", err
	}
	if status != "COMPLETED" {
		return "", nil
	}
	url := fmt.Sprintf("%s/%s/requests/%s", c.queueURL, c.endpoint, requestID)
	var result struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &result); err != nil {
		return "", err
	}
	if len(result.Images) == 0 {
		return "", fmt.Errorf("%w: completed request has no images", game.ErrExternal)
	}
	return result.Images[0].URL, nil
}

func (c *FalClient) do(ctx context.Context, method, url string, body *bytes.Reader, dest any) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrExternal, err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", game.ErrExternal, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: queue responded with %s", game.ErrExternal, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", game.ErrExternal, err)
	}
	return nil
}
