package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"caseflow/internal/platform/config"
	"caseflow/pkg/platform/sentinel"
)

// HTTPPlatform talks to the upstream case platform over its REST API.
type HTTPPlatform struct {
	baseURL     string
	bearerToken string
	client      *http.Client
}

func NewHTTPPlatform(cfg config.PlatformConfig) *HTTPPlatform {
	return &HTTPPlatform{
		baseURL:     cfg.BaseURL,
		bearerToken: cfg.BearerToken,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

type searchResponse struct {
	References []int64 `json:"references"`
}

// Search returns the references of cases of the given type currently in the
// given workflow state.
func (p *HTTPPlatform) Search(ctx context.Context, caseTypeID, state string) ([]int64, error) {
	url := fmt.Sprintf("%s/cases?case_type_id=%s&state=%s", p.baseURL, caseTypeID, state)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s: %w", resp.Status, sentinel.ErrUnavailable)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result.References, nil
}

// SubmitEvent pushes one event submission. A 409 from the platform means
// write contention and maps to sentinel.ErrRemoteConflict so the retry layer
// can classify it.
func (p *HTTPPlatform) SubmitEvent(ctx context.Context, sub EventSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission for case %d: %w", sub.CaseReference, err)
	}

	url := fmt.Sprintf("%s/cases/%d/events", p.baseURL, sub.CaseReference)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit request for case %d: %w", sub.CaseReference, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("case %d: %w", sub.CaseReference, sentinel.ErrRemoteConflict)
	default:
		return fmt.Errorf("submit for case %d returned %s", sub.CaseReference, resp.Status)
	}
}

func (p *HTTPPlatform) authorize(req *http.Request) {
	if p.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.bearerToken)
	}
}
