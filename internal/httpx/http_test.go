// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package httpx

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

type fakeClient struct {
	responses []*http.Response
	errs      []error
	requests  []*http.Request
	bodies    []string
}

func (c *fakeClient) Do(req *http.Request) (*http.Response, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		c.bodies = append(c.bodies, string(b))
	} else {
		c.bodies = append(c.bodies, "")
	}
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	return c.responses[i], nil
}

func resp(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestRetryClientRetriesServerErrors(t *testing.T) {
	inner := &fakeClient{responses: []*http.Response{
		resp(500, ""),
		resp(502, ""),
		resp(200, "ok"),
	}}
	client := &RetryClient{BasicClient: inner, Attempts: 3}
	r, err := client.Do(mustRequest(t, http.MethodGet, "https://example.com/x", ""))
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	if r.StatusCode != 200 {
		t.Errorf("Do() status = %d, want 200", r.StatusCode)
	}
	if len(inner.requests) != 3 {
		t.Errorf("inner client saw %d requests, want 3", len(inner.requests))
	}
}

func TestRetryClientDoesNotRetryNotFound(t *testing.T) {
	inner := &fakeClient{responses: []*http.Response{resp(404, "")}}
	client := &RetryClient{BasicClient: inner, Attempts: 3}
	r, err := client.Do(mustRequest(t, http.MethodGet, "https://example.com/x", ""))
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	if r.StatusCode != 404 {
		t.Errorf("Do() status = %d, want 404", r.StatusCode)
	}
	if len(inner.requests) != 1 {
		t.Errorf("inner client saw %d requests, want 1", len(inner.requests))
	}
}

func TestRetryClientReplaysBody(t *testing.T) {
	inner := &fakeClient{responses: []*http.Response{
		resp(500, ""),
		resp(200, ""),
	}}
	client := &RetryClient{BasicClient: inner, Attempts: 2}
	if _, err := client.Do(mustRequest(t, http.MethodPost, "https://example.com/x", `{"a":1}`)); err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	for i, body := range inner.bodies {
		if body != `{"a":1}` {
			t.Errorf("attempt %d body = %q, want %q", i, body, `{"a":1}`)
		}
	}
}

func TestRetryClientExhaustsTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	inner := &fakeClient{
		responses: []*http.Response{nil, nil, nil},
		errs:      []error{boom, boom, boom},
	}
	client := &RetryClient{BasicClient: inner, Attempts: 3}
	if _, err := client.Do(mustRequest(t, http.MethodGet, "https://example.com/x", "")); err == nil {
		t.Fatal("Do() returned nil error after exhausted retries")
	}
	if len(inner.requests) != 3 {
		t.Errorf("inner client saw %d requests, want 3", len(inner.requests))
	}
}

func TestWithHeaders(t *testing.T) {
	inner := &fakeClient{responses: []*http.Response{resp(200, "")}}
	client := &WithHeaders{BasicClient: inner, Headers: http.Header{"X-Api-Key": []string{"secret"}}}
	if _, err := client.Do(mustRequest(t, http.MethodGet, "https://example.com/x", "")); err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	if got := inner.requests[0].Header.Get("x-api-key"); got != "secret" {
		t.Errorf("x-api-key = %q, want %q", got, "secret")
	}
}

func TestWithUserAgent(t *testing.T) {
	inner := &fakeClient{responses: []*http.Response{resp(200, "")}}
	client := &WithUserAgent{BasicClient: inner, UserAgent: UserAgent}
	if _, err := client.Do(mustRequest(t, http.MethodGet, "https://example.com/x", "")); err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	if got := inner.requests[0].Header.Get("User-Agent"); got != UserAgent {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestDoJSONTaxonomy(t *testing.T) {
	t.Run("too many requests", func(t *testing.T) {
		inner := &fakeClient{responses: []*http.Response{resp(429, "")}}
		err := GetJSON(context.Background(), inner, "https://api.example.com/x", nil)
		var tmr *TooManyRequestsError
		if !errors.As(err, &tmr) {
			t.Fatalf("GetJSON() error = %v, want TooManyRequestsError", err)
		}
		if tmr.Host != "api.example.com" {
			t.Errorf("Host = %q, want api.example.com", tmr.Host)
		}
	})
	t.Run("server error carries body", func(t *testing.T) {
		inner := &fakeClient{responses: []*http.Response{resp(500, "boom")}}
		err := GetJSON(context.Background(), inner, "https://api.example.com/x", nil)
		var re *ResponseError
		if !errors.As(err, &re) {
			t.Fatalf("GetJSON() error = %v, want ResponseError", err)
		}
		if re.Status != 500 || re.Body != "boom" {
			t.Errorf("ResponseError = %+v", re)
		}
	})
	t.Run("decodes success", func(t *testing.T) {
		inner := &fakeClient{responses: []*http.Response{resp(200, `{"n":7}`)}}
		var out struct {
			N int `json:"n"`
		}
		if err := GetJSON(context.Background(), inner, "https://api.example.com/x", &out); err != nil {
			t.Fatalf("GetJSON() returned error: %v", err)
		}
		if out.N != 7 {
			t.Errorf("decoded n = %d, want 7", out.N)
		}
	})
}

func mustRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	return req
}
