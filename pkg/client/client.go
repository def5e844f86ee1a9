// Package client is a Go client for the synonym node HTTP API. Nodes use it
// to replicate to each other; the admin and load tools use it as well.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-synonyms/pkg/cluster"
	"github.com/dd0wney/cluso-synonyms/pkg/synonyms"
)

// DefaultTimeout bounds a single call when no http.Client is supplied.
const DefaultTimeout = 5 * time.Second

// Client talks to one node.
type Client struct {
	baseURL    string
	httpClient *http.Client
	compress   bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Replication shares one
// client across all peers so connections are pooled.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCompression makes Import send snappy-compressed bodies.
func WithCompression(enabled bool) Option {
	return func(c *Client) {
		c.compress = enabled
	}
}

// New creates a client for addr, either "host:port" or a full base URL.
func New(addr string, opts ...Option) *Client {
	c := &Client{
		baseURL:    BaseURL(addr),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL turns a member address into a base URL.
func BaseURL(addr string) string {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}

// AddSynonyms posts a synonym list for word. With distribute false the
// receiving node stores the write without forwarding it.
func (c *Client) AddSynonyms(ctx context.Context, word string, syns []string, distribute bool) error {
	q := url.Values{}
	q.Set("word", word)
	q.Set("distribute", strconv.FormatBool(distribute))
	return c.do(ctx, http.MethodPost, "/api/synonyms", q, syns, nil)
}

// GetSynonyms queries up to limit synonyms of word.
func (c *Client) GetSynonyms(ctx context.Context, word string, limit int) (synonyms.Page, error) {
	q := url.Values{}
	q.Set("word", word)
	q.Set("limit", strconv.Itoa(limit))

	var page synonyms.Page
	err := c.do(ctx, http.MethodGet, "/api/synonyms", q, nil, &page)
	return page, err
}

// DefineCluster sets the membership of the node. self is the address the
// node should recognise as its own.
func (c *Client) DefineCluster(ctx context.Context, self string, all []string) error {
	q := url.Values{}
	q.Set("thisInstance", self)
	return c.do(ctx, http.MethodPost, "/api/cluster", q, all, nil)
}

// Cluster returns the member addresses known to the node.
func (c *Client) Cluster(ctx context.Context) ([]string, error) {
	var members []string
	err := c.do(ctx, http.MethodGet, "/api/cluster", nil, nil, &members)
	return members, err
}

// Import sends a bulk set of entries. The node applies them locally only.
func (c *Client) Import(ctx context.Context, entries []synonyms.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if c.compress {
		data = snappy.Encode(nil, data)
		header.Set("Content-Encoding", "snappy")
	}
	return c.send(ctx, http.MethodPost, "/api/synchronization", nil, bytes.NewReader(data), header, nil)
}

// NodeStatus is the node's view of itself.
type NodeStatus struct {
	Self           string         `json:"self"`
	Ready          bool           `json:"ready"`
	Store          synonyms.Stats `json:"store"`
	Peers          []cluster.Peer `json:"peers"`
	PendingBatches int            `json:"pending_batches"`
	Locale         string         `json:"locale"`
}

// Status fetches store, membership and replication state.
func (c *Client) Status(ctx context.Context) (NodeStatus, error) {
	var st NodeStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &st)
	return st, err
}

// TriggerSync asks the node to run a replication cycle now.
func (c *Client) TriggerSync(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/synchronization/run", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	var reader io.Reader
	header := http.Header{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, method, path, q, reader, header, out)
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body io.Reader, header http.Header, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		msg = body.Message
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}
