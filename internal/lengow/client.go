// Package lengow reads orders from the Lengow V2 order feed.
package lengow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
)

const (
	DateLayout = "2006-01-02"

	// maxBodySize caps a feed response at 32MB.
	maxBodySize = 32 << 20
)

type Config struct {
	BaseURL    string
	RatePerSec float64
	Timeout    time.Duration
}

// Query scopes a feed request to a date window and routing identifiers.
type Query struct {
	Start     time.Time
	End       time.Time
	AccountID int
	GroupID   int
	FluxID    string
	Status    string
	Format    string
}

// Path renders the feed path below the base url:
// {start}/{end}/{account}/{group}/{flux}/commands/{status}/{format}/
func (q Query) Path() string {
	status := q.Status
	if status == "" {
		status = "all"
	}
	format := q.Format
	if format == "" {
		format = "json"
	}
	return strings.Join([]string{
		q.Start.Format(DateLayout),
		q.End.Format(DateLayout),
		strconv.Itoa(q.AccountID),
		strconv.Itoa(q.GroupID),
		q.FluxID,
		"commands",
		status,
		format,
	}, "/") + "/"
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchOrders returns the orders of the query window as the feed sent them.
func (c *Client) FetchOrders(ctx context.Context, q Query) (*domain.FeedResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	url := c.baseURL + "/" + q.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("fetching lengow orders", "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFeedUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrFeedUnavailable, resp.StatusCode)
	}

	return decodeFeed(body)
}

func decodeFeed(body []byte) (*domain.FeedResponse, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedFormat, err)
	}
	for _, key := range []string{"orders", "orders_count"} {
		if _, ok := top[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", domain.ErrFeedFormat, key)
		}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(top["orders"], &records); err != nil {
		return nil, fmt.Errorf("%w: orders: %v", domain.ErrFeedFormat, err)
	}
	var feed domain.FeedResponse
	feed.Orders = make([]domain.Order, 0, len(records))
	for i, raw := range records {
		var o domain.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			feed.Rejected = append(feed.Rejected, domain.RejectedOrder{
				Index: i,
				Raw:   raw,
				Err:   fmt.Errorf("%w: record %d: %v", domain.ErrMalformedOrder, i, err),
			})
			continue
		}
		feed.Orders = append(feed.Orders, o)
	}
	var count domain.FlexString
	if err := json.Unmarshal(top["orders_count"], &count); err != nil {
		return nil, fmt.Errorf("%w: orders_count: %v", domain.ErrFeedFormat, err)
	}
	n, err := strconv.Atoi(count.String())
	if err != nil {
		return nil, fmt.Errorf("%w: orders_count %q", domain.ErrFeedFormat, count)
	}
	feed.OrdersCount = n
	return &feed, nil
}
