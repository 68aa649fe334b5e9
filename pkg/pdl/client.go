// Package pdl implements a minimal People Data Labs company search client.
package pdl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/resilience"
)

const defaultBaseURL = "https://api.peopledatalabs.com"

// ErrUnauthorized marks a 401/402 response. Callers treat it as a
// configuration problem, not a verification failure.
var ErrUnauthorized = eris.New("pdl: unauthorized or payment required")

// Company is a raw company record as returned by the API.
type Company map[string]any

// Client performs People Data Labs operations.
type Client interface {
	// SearchCompany runs a SQL-dialect search and returns matching records.
	SearchCompany(ctx context.Context, sqlQuery string, size int) ([]Company, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a People Data Labs client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Status int       `json:"status"`
	Data   []Company `json:"data"`
}

func (c *httpClient) SearchCompany(ctx context.Context, sqlQuery string, size int) ([]Company, error) {
	if size <= 0 {
		size = 1
	}

	params := url.Values{
		"sql":  {sqlQuery},
		"size": {strconv.Itoa(size)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v5/company/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		// No matching records is a normal outcome for the SQL endpoint.
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusPaymentRequired:
		return nil, ErrUnauthorized
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("pdl: unexpected status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)
	default:
		return nil, eris.Errorf("pdl: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "pdl: unmarshal response")
	}
	return result.Data, nil
}
