// Package duckduckgo implements a client for the DuckDuckGo HTML search
// endpoint. The endpoint has no API contract, so the client parses result
// markup defensively and paces itself to avoid being blocked.
package duckduckgo

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/resilience"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// userAgents is rotated per request so consecutive queries do not present
// an identical fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:126.0) Gecko/20100101 Firefox/126.0",
}

// Result is a single parsed search result.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Client performs web searches.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default search endpoint.
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

// WithRetry overrides the retry schedule. Attempts must be at least 1.
func WithRetry(attempts int, baseDelay, increment time.Duration) Option {
	return func(c *httpClient) {
		c.retry.MaxAttempts = attempts
		c.retry.InitialBackoff = baseDelay
		c.retry.LinearIncrement = increment
	}
}

// WithRateLimit overrides the request rate limit (requests per second).
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a DuckDuckGo search client. The default schedule is
// three attempts with a randomized base delay plus a linear increment per
// attempt, matching what the endpoint tolerates in practice.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
		retry: resilience.RetryConfig{
			MaxAttempts:     3,
			InitialBackoff:  2 * time.Second,
			LinearIncrement: 1500 * time.Millisecond,
			JitterFraction:  0.5,
			OnRetry:         resilience.RetryLogger("duckduckgo", "search"),
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]Result, error) {
		return c.searchOnce(ctx, query, maxResults)
	})
}

func (c *httpClient) searchOnce(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "duckduckgo: rate limit wait")
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("duckduckgo: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "duckduckgo: parse response")
	}

	results := parseResults(doc, maxResults)
	if len(results) == 0 {
		// An empty page with a 200 usually means a block or captcha
		// interstitial, which a later attempt may get past.
		return nil, resilience.NewTransientError(eris.New("duckduckgo: no results parsed"), 0)
	}
	return results, nil
}

func parseResults(doc *goquery.Document, maxResults int) []Result {
	var results []Result
	doc.Find("div.result__body").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		anchor := s.Find("a.result__a").First()
		link, _ := anchor.Attr("href")
		r := Result{
			Title:   strings.TrimSpace(anchor.Text()),
			Link:    cleanLink(link),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").First().Text()),
		}
		if r.Title == "" || r.Link == "" {
			return true
		}
		results = append(results, r)
		return len(results) < maxResults
	})
	if len(results) > 0 {
		return results
	}

	// Fallback for the stripped-down markup variant that omits result
	// bodies and only carries bare anchors.
	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link, _ := s.Attr("href")
		r := Result{
			Title: strings.TrimSpace(s.Text()),
			Link:  cleanLink(link),
		}
		if r.Title == "" || r.Link == "" {
			return true
		}
		results = append(results, r)
		return len(results) < maxResults
	})
	return results
}

// cleanLink unwraps DuckDuckGo's redirect links (//duckduckgo.com/l/?uddg=...)
// to the destination URL.
func cleanLink(link string) string {
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if dest := u.Query().Get("uddg"); dest != "" {
			return dest
		}
	}
	return link
}
