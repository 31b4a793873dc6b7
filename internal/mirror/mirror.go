// Package mirror talks to the remote document store used for best-effort
// backup and sharing. The remote side's replication and consistency model is
// none of our business; callers treat every operation as fallible and degrade
// to the local store.
package mirror

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
)

// Client is the minimal surface the sync layer needs from the remote store.
type Client interface {
	// Get reads the document under key into out; false means absent.
	Get(ctx context.Context, key string, out any) (bool, error)
	// Set writes doc under key, replacing any previous value.
	Set(ctx context.Context, key string, doc any) error
	// Append adds doc to a collection and returns the assigned id.
	Append(ctx context.Context, collection string, doc any) (string, error)
	// Query reads up to limit documents from a collection into out,
	// ordered by the given field spec (e.g. "createdAt desc").
	Query(ctx context.Context, collection, orderBy string, limit int, out any) error
}

// HTTPClient is the Client implementation over the document store's HTTP API.
type HTTPClient struct {
	base   string
	token  string
	client *http.Client
}

// NewHTTP builds a client for the given base URL. token may be empty.
func NewHTTP(baseURL, token string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		base:   strings.TrimRight(baseURL, "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Get(ctx context.Context, key string, out any) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, c.base+"/documents/"+escapePath(key), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode document %q: %w", key, err)
		}
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("get %q: unexpected status %s", key, resp.Status)
	}
}

func (c *HTTPClient) Set(ctx context.Context, key string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %q: %w", key, err)
	}
	resp, err := c.do(ctx, http.MethodPut, c.base+"/documents/"+escapePath(key), body)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("set %q: unexpected status %s", key, resp.Status)
	}
	return nil
}

func (c *HTTPClient) Append(ctx context.Context, collection string, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, c.base+"/collections/"+escapePath(collection), body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("append to %q: unexpected status %s", collection, resp.Status)
	}
	var ack struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("decode append ack: %w", err)
	}
	if ack.ID == "" {
		return "", fmt.Errorf("append to %q: empty id in ack", collection)
	}
	return ack.ID, nil
}

func (c *HTTPClient) Query(ctx context.Context, collection, orderBy string, limit int, out any) error {
	q := url.Values{}
	if orderBy != "" {
		q.Set("order", orderBy)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	endpoint := c.base + "/collections/" + escapePath(collection)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query %q: unexpected status %s", collection, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode query result: %w", err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	return resp, nil
}

// escapePath escapes each segment of a slash-separated key so collection
// item keys like "shared-schedules/<id>" keep their path shape.
func escapePath(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
