// Package yclients is a thin read-only client for the YClients booking API.
// Transport and auth failures surface as errors alongside empty results; the
// caller logs them and treats the cycle as having no data.
package yclients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.yclients.com/api/v1"

// UpcomingWindow is how far ahead records are fetched each cycle.
const UpcomingWindow = 7 * 24 * time.Hour

type Client struct {
	baseURL      string
	partnerToken string
	userToken    string
	companyID    string
	http         *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func New(partnerToken, userToken, companyID string, opts ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		partnerToken: partnerToken,
		userToken:    userToken,
		companyID:    companyID,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpcomingRecords fetches all appointments from today through the upcoming
// window. The result is bounded (count=500) and re-fetched in full each cycle.
func (c *Client) UpcomingRecords(ctx context.Context, now time.Time) ([]Record, error) {
	from := now.Format("2006-01-02")
	to := now.Add(UpcomingWindow).Format("2006-01-02")
	return c.Records(ctx, from, to)
}

func (c *Client) Records(ctx context.Context, dateFrom, dateTo string) ([]Record, error) {
	q := url.Values{}
	q.Set("start_date", dateFrom)
	q.Set("end_date", dateTo)
	q.Set("count", "500")

	var out struct {
		Data []Record `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/records/%s", c.companyID), q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// StaffList fetches the company roster, used for staff registration and for
// routing arrival notifications.
func (c *Client) StaffList(ctx context.Context) ([]StaffMember, error) {
	var out struct {
		Data []StaffMember `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/company/%s/staff", c.companyID), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.yclients.v2+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s, User %s", c.partnerToken, c.userToken))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("yclients: %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
