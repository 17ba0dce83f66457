// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpx provides a simpler http.Client abstraction and derivative uses.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mcmod-info-mirror/mcim-sync/internal/ratex"
	"github.com/pkg/errors"
)

// UserAgent is sent on every upstream request.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36 Edg/116.0.1938.54"

// BasicClient is a simpler http.Client that only requires a Do method.
type BasicClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ BasicClient = http.DefaultClient

// WithUserAgent is a basic HTTP client that adds a User-Agent header.
type WithUserAgent struct {
	BasicClient
	UserAgent string
}

var _ BasicClient = &WithUserAgent{}

// Do adds the User-Agent header and sends the request.
func (c *WithUserAgent) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.UserAgent)
	return c.BasicClient.Do(req)
}

// WithHeaders is a basic HTTP client that adds a fixed set of headers, such
// as an API key.
type WithHeaders struct {
	BasicClient
	Headers http.Header
}

var _ BasicClient = &WithHeaders{}

// Do adds the configured headers and sends the request.
func (c *WithHeaders) Do(req *http.Request) (*http.Response, error) {
	for k, vs := range c.Headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	return c.BasicClient.Do(req)
}

// RateLimitedClient consults a per-host token bucket before each request.
type RateLimitedClient struct {
	BasicClient
	Limiter *ratex.Limiter
}

var _ BasicClient = &RateLimitedClient{}

// Do blocks until the request's host grants a token, then sends the request.
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.Limiter.Acquire(req.Context(), req.URL.String(), 1); err != nil {
		return nil, err
	}
	return c.BasicClient.Do(req)
}

// RetryClient retries transport errors, 5xx and 429 responses a fixed number
// of times with a fixed delay. Deterministic 4xx responses are not retried.
type RetryClient struct {
	BasicClient
	Attempts int
	Delay    time.Duration
}

var _ BasicClient = &RetryClient{}

func retryable(resp *http.Response) bool {
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Do sends the request, replaying the body between attempts.
func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, errors.Wrap(err, "buffering request body")
		}
	}
	var resp *http.Response
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(c.Delay):
			}
		}
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err = c.BasicClient.Do(req)
		if err != nil {
			continue
		}
		if !retryable(resp) {
			return resp, nil
		}
		if resp.Body != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ResponseError is a non-200 upstream response.
type ResponseError struct {
	Status int
	URL    string
	Body   string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Status, e.URL)
}

// TooManyRequestsError is an upstream 429, tagged with the offending host.
type TooManyRequestsError struct {
	Host string
	URL  string
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("upstream rate limited requests to %s", e.Host)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var re *ResponseError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// DoJSON performs req and decodes a 200 response body into v. Other statuses
// map to the error taxonomy: 429 to TooManyRequestsError, anything else to
// ResponseError.
func DoJSON(client BasicClient, req *http.Request, v any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		if v == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		return errors.Wrap(json.NewDecoder(resp.Body).Decode(v), "decoding response")
	case resp.StatusCode == http.StatusTooManyRequests:
		return &TooManyRequestsError{Host: req.URL.Hostname(), URL: req.URL.String()}
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ResponseError{Status: resp.StatusCode, URL: req.URL.String(), Body: string(b)}
	}
}

// GetJSON issues a GET for url and decodes the JSON response into v.
func GetJSON(ctx context.Context, client BasicClient, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return DoJSON(client, req, v)
}

// PostJSON issues a POST with a JSON-encoded body and decodes the JSON
// response into v.
func PostJSON(ctx context.Context, client BasicClient, url string, payload, v any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return DoJSON(client, req, v)
}
