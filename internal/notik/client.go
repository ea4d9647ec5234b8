package notik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stevuth/rewardspeak-sub000/internal/offers"
)

// ErrMissingCredentials is returned before any network call when the API
// credentials are incomplete.
var ErrMissingCredentials = errors.New("notik: missing api credentials")

// Credentials identify the publisher app against the aggregator API.
type Credentials struct {
	APIKey string
	PubID  string
	AppID  string
}

func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.PubID != "" && c.AppID != ""
}

type Client struct {
	BaseURL string
	Creds   Credentials
	HTTP    *http.Client
}

func New(baseURL string, creds Credentials) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Creds:   creds,
		HTTP: &http.Client{
			Timeout: 2 * time.Minute, // per request
		},
	}
}

// pageResponse is the upstream envelope: {status, offers: {data, next_page_url}}.
// next_page_url is null on the last page; data can be absent on an empty page.
type pageResponse struct {
	Status string `json:"status"`
	Offers struct {
		Data        []offers.RawOffer `json:"data"`
		NextPageURL string            `json:"next_page_url"`
	} `json:"offers"`
}

// FetchAll pages through the offer catalog until the upstream stops returning
// a next-page cursor. logf receives one human-readable line per notable step;
// the pipeline routes it into the run log.
//
// There are no retries: the first failing page stops the loop and whatever was
// accumulated so far is returned alongside the error, so callers can still
// process the partial catalog.
func (c *Client) FetchAll(ctx context.Context, maxPages int, logf func(format string, args ...any)) ([]offers.RawOffer, int, error) {
	if !c.Creds.Valid() {
		logf("CRITICAL ERROR: missing Notik API credentials (api_key/pub_id/app_id), aborting before fetch")
		return nil, 0, ErrMissingCredentials
	}

	var all []offers.RawOffer
	next := c.firstPageURL()

	page := 0
	for next != "" {
		if maxPages > 0 && page >= maxPages {
			logf("stopping at page cap %d with a next cursor still pending", maxPages)
			break
		}
		page++

		resp, err := c.fetchPage(ctx, next)
		if err != nil {
			logf("ERROR fetching page %d: %v", page, err)
			return all, page - 1, fmt.Errorf("notik: page %d: %w", page, err)
		}

		all = append(all, resp.Offers.Data...)
		logf("page %d: %d offers (total %d)", page, len(resp.Offers.Data), len(all))

		next = resp.Offers.NextPageURL
		if next != "" {
			// Upstream cursors come back without credentials.
			withCreds, err := c.appendCredentials(next)
			if err != nil {
				logf("ERROR on page %d: unusable next_page_url %q: %v", page, next, err)
				return all, page, fmt.Errorf("notik: next cursor after page %d: %w", page, err)
			}
			next = withCreds
		}
	}

	logf("fetch complete: %d offers across %d pages", len(all), page)
	return all, page, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) (*pageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, snippet(body))
	}

	var out pageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("json parse: %w body=%s", err, snippet(body))
	}
	if !strings.EqualFold(out.Status, "success") {
		return nil, fmt.Errorf("upstream status=%q body=%s", out.Status, snippet(body))
	}
	return &out, nil
}

func (c *Client) firstPageURL() string {
	q := url.Values{}
	q.Set("api_key", c.Creds.APIKey)
	q.Set("pub_id", c.Creds.PubID)
	q.Set("app_id", c.Creds.AppID)
	return c.BaseURL + "?" + q.Encode()
}

func (c *Client) appendCredentials(cursor string) (string, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("api_key", c.Creds.APIKey)
	q.Set("pub_id", c.Creds.PubID)
	q.Set("app_id", c.Creds.AppID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
