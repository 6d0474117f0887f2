package metasync

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const (
	vehiclesEndpoint = "RecuperarCambiosVehiculosCanal"
	partsEndpoint    = "RecuperarCambiosCanal"

	// The remote API hard-caps a page at 1000 records.
	MaxPageSize = 1000
)

// Client talks to the MetaSync inventory change feed. Request parameters
// travel in headers, not the query string, and the "since" date uses the
// feed's dd/mm/yyyy HH:MM:SS format.
type Client struct {
	baseURL   string
	apiKey    string
	channel   string
	companyID int64

	httpClient *http.Client
	retry      RetryPolicy
}

func NewClient(baseURL, apiKey, channel string, companyID int64) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		channel:    channel,
		companyID:  companyID,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		retry:      DefaultRetryPolicy(),
	}
}

// SetRetryPolicy overrides the default retry behavior (used by tests).
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}

// FetchVehicles returns one page of vehicle changes since the given date,
// starting after lastID.
func (c *Client) FetchVehicles(ctx context.Context, since time.Time, lastID int64, pageSize int) (*Page, error) {
	return c.fetchPage(ctx, vehiclesEndpoint, since, lastID, pageSize)
}

// FetchParts returns one page of part changes. The parts endpoint also
// carries a vehicles array with the vehicles referenced by the page.
func (c *Client) FetchParts(ctx context.Context, since time.Time, lastID int64, pageSize int) (*Page, error) {
	return c.fetchPage(ctx, partsEndpoint, since, lastID, pageSize)
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, since time.Time, lastID int64, pageSize int) (*Page, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", ErrAuth)
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var page *Page
	err := c.retry.Do(ctx, func() error {
		p, err := c.doFetch(ctx, endpoint, since, lastID, pageSize)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	return page, err
}

func (c *Client) doFetch(ctx context.Context, endpoint string, since time.Time, lastID int64, pageSize int) (*Page, error) {
	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("fecha", FormatDate(since))
	req.Header.Set("lastid", strconv.FormatInt(lastID, 10))
	req.Header.Set("offset", strconv.Itoa(pageSize))
	if c.channel != "" {
		req.Header.Set("canal", c.channel)
	}
	if c.companyID != 0 {
		req.Header.Set("idempresa", strconv.FormatInt(c.companyID, 10))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (HTTP %d)", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &TransientError{Err: fmt.Errorf("HTTP %d from %s", resp.StatusCode, endpoint)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("metasync: HTTP %d from %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	page, err := ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("metasync: decoding %s response: %w", endpoint, err)
	}

	log.Printf("[Metasync] %s: %d vehicles, %d parts (lastId=%d)", endpoint, len(page.Vehicles), len(page.Parts), lastID)
	return page, nil
}

// FormatDate renders a timestamp the way the feed expects it.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006 15:04:05")
}
