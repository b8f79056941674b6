package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/patio/internal/diff"
	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/vehicle"
)

// Service is the remote inventory API. It is implemented by *Client and
// faked in tests.
type Service interface {
	FetchVehicles(ctx context.Context) ([]vehicle.Vehicle, error)
	CreateVehicle(ctx context.Context, payload diff.Payload) (vehicle.Vehicle, error)
	UpdateVehicle(ctx context.Context, payload diff.Payload) (vehicle.Partial, error)
	DeleteVehicle(ctx context.Context, req DeleteRequest) error
	BulkDeleteVehicles(ctx context.Context, reqs []DeleteRequest) error
}

// Ensure Client implements Service at compile time.
var _ Service = (*Client)(nil)

// Endpoint names relative to the base URL.
const (
	EndpointVehicles   = "vehicles"
	EndpointCreate     = "create-vehicle"
	EndpointUpdate     = "update-vehicle"
	EndpointDelete     = "delete-vehicle"
	EndpointBulkDelete = "bulk-delete-vehicle"
)

const (
	// DefaultBaseURL is the production webhook used when none is configured.
	DefaultBaseURL        = "https://webhooksintese.gruposintesedigital.com/webhook/as"
	defaultUserAgent      = "patio/0.1"
	defaultRequestTimeout = 30 * time.Second
	maxErrorBody          = 512
)

// DeleteRequest names one vehicle and the storage paths of its photos.
type DeleteRequest struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`
}

type bulkDeleteRequest struct {
	Vehicles []DeleteRequest `json:"vehicles"`
}

// TransportError reports a failed webhook call: either the request never
// completed (Status 0) or the server answered with an error status.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		if e.Err != nil {
			return fmt.Sprintf("webhook %s returned status %d: %v", e.Op, e.Status, e.Err)
		}
		return fmt.Sprintf("webhook %s returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("webhook %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Locator imagecodec.Locator
}

// Client talks to the inventory webhook over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
	locator   imagecodec.Locator
}

// NewClient builds a Client. An empty BaseURL uses the production webhook and
// a non-positive Timeout falls back to 30 seconds.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	locator := opts.Locator
	if locator.Origin() == "" {
		locator = imagecodec.NewLocator("", "")
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		token:     strings.TrimSpace(opts.Token),
		userAgent: defaultUserAgent,
		locator:   locator,
	}, nil
}

// FetchVehicles retrieves the full inventory.
func (c *Client) FetchVehicles(ctx context.Context) ([]vehicle.Vehicle, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var body any
	if err := c.do(ctx, http.MethodGet, EndpointVehicles, nil, &body); err != nil {
		return nil, err
	}
	items, ok := listItems(body)
	if !ok {
		return nil, &TransportError{Op: EndpointVehicles, Err: fmt.Errorf("unexpected response shape %T", body)}
	}
	out := make([]vehicle.Vehicle, 0, len(items))
	for _, item := range items {
		out = append(out, decodeVehicle(item, c.locator))
	}
	return out, nil
}

// CreateVehicle submits a creation payload and returns the stored record.
func (c *Client) CreateVehicle(ctx context.Context, payload diff.Payload) (vehicle.Vehicle, error) {
	if c == nil {
		return vehicle.Vehicle{}, fmt.Errorf("client is nil")
	}
	var body any
	if err := c.do(ctx, http.MethodPost, EndpointCreate, payload, &body); err != nil {
		return vehicle.Vehicle{}, err
	}
	created := decodeVehicle(unwrapVehicle(body), c.locator)
	if created.ID == "" {
		return vehicle.Vehicle{}, &TransportError{Op: EndpointCreate, Err: errors.New("response carries no vehicle id")}
	}
	return created, nil
}

// UpdateVehicle submits a diff and returns only the fields the server echoed
// back. Fields absent from the result are unchanged.
func (c *Client) UpdateVehicle(ctx context.Context, payload diff.Payload) (vehicle.Partial, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var body any
	if err := c.do(ctx, http.MethodPost, EndpointUpdate, payload, &body); err != nil {
		return nil, err
	}
	return decodePartial(unwrapVehicle(body), c.locator), nil
}

// DeleteVehicle removes one vehicle and its photos.
func (c *Client) DeleteVehicle(ctx context.Context, req DeleteRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodPost, EndpointDelete, withImages(req), nil)
}

// BulkDeleteVehicles removes several vehicles in a single call.
func (c *Client) BulkDeleteVehicles(ctx context.Context, reqs []DeleteRequest) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	body := bulkDeleteRequest{Vehicles: make([]DeleteRequest, len(reqs))}
	for i, r := range reqs {
		body.Vehicles[i] = withImages(r)
	}
	return c.do(ctx, http.MethodPost, EndpointBulkDelete, body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, dest any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := c.baseURL.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var detail error
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			detail = errors.New(msg)
		}
		return &TransportError{Op: endpoint, Status: resp.StatusCode, Err: detail}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransportError{Op: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func withImages(r DeleteRequest) DeleteRequest {
	if r.Images == nil {
		r.Images = []string{}
	}
	return r
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
