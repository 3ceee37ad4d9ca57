package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NgigiN/walletsync/internal/expense"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Client talks to the expenses collection of a single owner.
type Client struct {
	baseURL string
	owner   string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func New(baseURL, owner string, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid remote base url %q: %w", baseURL, err)
	}
	if owner == "" {
		return nil, fmt.Errorf("owner is not set")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Owner() string {
	return c.owner
}

// wireExpense is the JSON shape used by the service. Some deployments report
// the identity as "_id".
type wireExpense struct {
	ID          string    `json:"id,omitempty"`
	MongoID     string    `json:"_id,omitempty"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OccurredAt  time.Time `json:"occurredAt"`
	Owner       string    `json:"owner,omitempty"`
}

func (w wireExpense) record() expense.Record {
	id := w.ID
	if id == "" {
		id = w.MongoID
	}
	r := expense.Record{
		RemoteID:    id,
		Amount:      w.Amount,
		Description: w.Description,
		Category:    w.Category,
		OccurredAt:  w.OccurredAt.UTC(),
		State:       expense.Synced,
	}
	if id == "" {
		r.State = expense.Pending
	}
	return r
}

// ListAll returns every expense the service holds for the owner.
func (c *Client) ListAll(ctx context.Context) ([]expense.Record, error) {
	const op = "list expenses"

	resp, err := c.do(ctx, op, http.MethodGet, "/expenses/"+url.PathEscape(c.owner), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, resp, false)
	}

	var items []wireExpense
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, &Error{Op: op, Kind: ErrServerError, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode body: %w", err)}
	}

	records := make([]expense.Record, 0, len(items))
	for _, item := range items {
		records = append(records, item.record())
	}
	c.logger.Debug("listed remote expenses", zap.String("owner", c.owner), zap.Int("count", len(records)))
	return records, nil
}

// Create submits r and returns the server's copy, identity included.
func (c *Client) Create(ctx context.Context, r expense.Record) (expense.Record, error) {
	const op = "create expense"

	occurred := r.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	body, err := json.Marshal(wireExpense{
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		OccurredAt:  occurred,
		Owner:       c.owner,
	})
	if err != nil {
		return expense.Record{}, fmt.Errorf("failed to encode expense: %w", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/expenses", body)
	if err != nil {
		return expense.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return expense.Record{}, statusError(op, resp, true)
	}

	var created wireExpense
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return expense.Record{}, &Error{Op: op, Kind: ErrServerError, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode body: %w", err)}
	}
	confirmed := created.record()
	if confirmed.RemoteID == "" {
		return expense.Record{}, &Error{Op: op, Kind: ErrServerError, Status: resp.StatusCode, Err: fmt.Errorf("response carries no id")}
	}
	confirmed.LocalID = r.LocalID
	return confirmed, nil
}

// Delete removes the expense with the given server identity.
func (c *Client) Delete(ctx context.Context, remoteID string) error {
	const op = "delete expense"

	resp, err := c.do(ctx, op, http.MethodDelete, "/expenses/"+url.PathEscape(remoteID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp, false)
	}
	return nil
}

// Ping reports whether the service answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.do(ctx, "ping", http.MethodHead, "/expenses/"+url.PathEscape(c.owner), nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrUnreachable, Err: err}
	}
	return resp, nil
}

// statusError classifies a non-success response. Only create distinguishes
// a refusal of the payload from a server failure.
func statusError(op string, resp *http.Response, payload bool) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var detail error
	if msg := strings.TrimSpace(string(snippet)); msg != "" {
		detail = fmt.Errorf("%s", msg)
	}

	kind := ErrServerError
	code := resp.StatusCode
	if payload && code >= 400 && code < 500 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests {
		kind = ErrRejected
	}
	return &Error{Op: op, Kind: kind, Status: code, Err: detail}
}
