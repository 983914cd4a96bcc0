// Package mws submits Fulfillment Outbound Shipment requests to Amazon MWS.
package mws

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
	"github.com/RaikyD/lengow-mws-connector/internal/flatten"
	"github.com/RaikyD/lengow-mws-connector/internal/logger"
)

const (
	apiVersion = "2010-10-01"
	apiPath    = "/FulfillmentOutboundShipment/" + apiVersion

	maxBodySize = 4 << 20
)

type Credentials struct {
	AccessKey  string
	SecretKey  string
	MerchantID string
	Region     string
	// Endpoint overrides the region's host, e.g. for a sandbox.
	Endpoint string
}

// Request is a typed fulfillment request that knows its action name.
type Request interface {
	Action() string
	Tree() map[string]any
}

type Response struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// APIError is a non-success answer from MWS. It unwraps to
// domain.ErrFulfillmentAuth or domain.ErrFulfillmentRequest.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	Body       []byte

	kind error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d code %q: %s", e.kind, e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// Temporary reports server-side failures and throttling, which may succeed
// if sent again later.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.Code == "RequestThrottled"
}

var authCodes = map[string]struct{}{
	"InvalidAccessKeyId":    {},
	"SignatureDoesNotMatch": {},
	"AccessDenied":          {},
	"InvalidClientTokenId":  {},
}

type Client struct {
	endpoint *url.URL
	creds    Credentials
	signer   Signer
	http     *http.Client
	now      func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithSigner(s Signer) Option {
	return func(cl *Client) { cl.signer = s }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	raw := creds.Endpoint
	if raw == "" {
		ep, err := EndpointForRegion(creds.Region)
		if err != nil {
			return nil, err
		}
		raw = ep
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("mws: endpoint %q: %w", raw, err)
	}

	c := &Client{
		endpoint: u,
		creds:    creds,
		signer:   SignatureV2{SecretKey: creds.SecretKey},
		http:     &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Send flattens a typed request and submits it.
func (c *Client) Send(ctx context.Context, r Request) (*Response, error) {
	params, err := flatten.Flatten(r.Tree(), "")
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, r.Action(), params)
}

// Submit signs action plus params and POSTs them. It never retries.
func (c *Client) Submit(ctx context.Context, action string, params flatten.Params) (*Response, error) {
	form := params.Values()
	form.Set("Action", action)
	form.Set("AWSAccessKeyId", c.creds.AccessKey)
	form.Set("SellerId", c.creds.MerchantID)
	form.Set("Timestamp", c.now().UTC().Format(time.RFC3339))
	form.Set("Version", apiVersion)

	path := c.endpoint.Path + apiPath
	c.signer.Sign(http.MethodPost, c.endpoint.Host, path, form)

	target := c.endpoint.Scheme + "://" + c.endpoint.Host + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrFulfillmentUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	logger.Debug("mws request", "action", action, "params", len(params))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFulfillmentUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFulfillmentUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return &Response{
			StatusCode: resp.StatusCode,
			Body:       body,
			RequestID:  requestID(body, resp.Header),
		}, nil
	}
	return nil, newAPIError(resp.StatusCode, body, resp.Header)
}

type errorResponse struct {
	XMLName xml.Name `xml:"ErrorResponse"`
	Error   struct {
		Type    string `xml:"Type"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Error"`
	RequestID string `xml:"RequestID"`
	RequestId string `xml:"RequestId"`
}

type successMetadata struct {
	ResponseMetadata struct {
		RequestID string `xml:"RequestId"`
	} `xml:"ResponseMetadata"`
}

func newAPIError(status int, body []byte, h http.Header) *APIError {
	e := &APIError{StatusCode: status, Body: body, kind: domain.ErrFulfillmentRequest}

	var er errorResponse
	if err := xml.Unmarshal(body, &er); err == nil {
		e.Code = er.Error.Code
		e.Message = er.Error.Message
		e.RequestID = er.RequestID
		if e.RequestID == "" {
			e.RequestID = er.RequestId
		}
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.RequestID == "" {
		e.RequestID = h.Get("x-mws-request-id")
	}

	_, authCode := authCodes[e.Code]
	if status == http.StatusUnauthorized || status == http.StatusForbidden || authCode {
		e.kind = domain.ErrFulfillmentAuth
	}
	return e
}

func requestID(body []byte, h http.Header) string {
	var md successMetadata
	if err := xml.Unmarshal(body, &md); err == nil && md.ResponseMetadata.RequestID != "" {
		return md.ResponseMetadata.RequestID
	}
	return h.Get("x-mws-request-id")
}

// IsTemporary reports whether err is an APIError worth sending again.
func IsTemporary(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return errors.Is(err, domain.ErrFulfillmentUnavailable)
}

func (c *Client) PreviewShipment(ctx context.Context, r domain.PreviewRequest) (*Response, error) {
	return c.Send(ctx, r)
}

func (c *Client) CreateFulfillmentOrder(ctx context.Context, r domain.CreateOrderRequest) (*Response, error) {
	return c.Send(ctx, r)
}

func (c *Client) CancelFulfillmentOrder(ctx context.Context, r domain.CancelRequest) (*Response, error) {
	return c.Send(ctx, r)
}
