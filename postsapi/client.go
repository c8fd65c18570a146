// Package postsapi binds the front-end to the /posts resource of the backend.
package postsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"miniblog/blog"
)

// DefaultBaseURL is where json-server style backends listen by default.
const DefaultBaseURL = "http://localhost:3500"

type Client struct {
	baseURL string
	http    *http.Client
}

// New binds a client to baseURL. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) postURL(id int) string {
	return c.baseURL + "/posts/" + strconv.Itoa(id)
}

// do sends the request and decodes a 2xx body into out when out is not nil.
// Anything else comes back as *blog.TransportError or *blog.RemoteError.
func (c *Client) do(ctx context.Context, op string, method string, url string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &blog.TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &blog.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &blog.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &blog.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &blog.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       raw,
			Header:     resp.Header.Clone(),
		}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &blog.TransportError{Op: op, Err: err}
	}
	return nil
}

// ListAll returns every post, oldest first as the store keeps them.
func (c *Client) ListAll(ctx context.Context) ([]blog.Post, error) {
	var posts []blog.Post
	if err := c.do(ctx, "list posts", http.MethodGet, c.baseURL+"/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) Create(ctx context.Context, post blog.Post) (blog.Post, error) {
	var created blog.Post
	if err := c.do(ctx, "create post", http.MethodPost, c.baseURL+"/posts", post, &created); err != nil {
		return blog.Post{}, err
	}
	return created, nil
}

// Update replaces the whole post stored under id.
func (c *Client) Update(ctx context.Context, id int, post blog.Post) (blog.Post, error) {
	var updated blog.Post
	if err := c.do(ctx, "update post", http.MethodPut, c.postURL(id), post, &updated); err != nil {
		return blog.Post{}, err
	}
	return updated, nil
}

func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, "delete post", http.MethodDelete, c.postURL(id), nil, nil)
}
