// Package http is the fluent client used for every outbound API call.
//
//	var out searchResponse
//	resp, err := http.Get(base + "/buy/browse/v1/item_summary/search").
//	    WithContext(ctx).
//	    Bearer(token).
//	    Query("q", "jesmonite tray").
//	    Send()
//	if err == nil && resp.OK() {
//	    err = resp.JSON(&out)
//	}
//
// Tests swap DefaultClient.Transport (see pkg/testkit.MockTransport).
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"
)

var defaultTransport gohttp.RoundTripper = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is shared by every outbound request, including the
// golang.org/x/oauth2 token exchanges.
var DefaultClient = &gohttp.Client{Transport: defaultTransport}

// ResetTransport restores the production transport.
func ResetTransport() { DefaultClient.Transport = defaultTransport }

// maxResponseBytes bounds how much of an upstream body is buffered.
const maxResponseBytes = 8 << 20

type Request struct {
	ctx       context.Context
	method    string
	url       string
	query     url.Values
	headers   gohttp.Header
	body      interface{}
	timeout time.Duration
}

func Get(u string) *Request    { return newRequest(gohttp.MethodGet, u) }
func Post(u string) *Request   { return newRequest(gohttp.MethodPost, u) }
func Put(u string) *Request    { return newRequest(gohttp.MethodPut, u) }
func Delete(u string) *Request { return newRequest(gohttp.MethodDelete, u) }

func newRequest(method, u string) *Request {
	h := gohttp.Header{}
	h.Set("Accept", "application/json")
	return &Request{
		ctx:     context.Background(),
		method:  method,
		url:     u,
		query:   url.Values{},
		headers: h,
		timeout: 30 * time.Second,
	}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) Header(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Query appends a query-string parameter; empty values are skipped.
func (r *Request) Query(key, value string) *Request {
	if value != "" {
		r.query.Add(key, value)
	}
	return r
}

// Body sets a JSON body. url.Values is sent form-encoded instead.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// URL renders the final request URL, query included.
func (r *Request) URL() string {
	if len(r.query) == 0 {
		return r.url
	}
	sep := "?"
	if strings.Contains(r.url, "?") {
		sep = "&"
	}
	return r.url + sep + r.query.Encode()
}

// Send performs the request once. A non-nil error means no response was
// received; callers inspect Response.OK for upstream status.
func (r *Request) Send() (*Response, error) {
	resp, err := r.do()
	if err != nil {
		return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, err)
	}
	return resp, nil
}

func (r *Request) do() (*Response, error) {
	body, contentType, err := r.encodeBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = r.headers.Clone()
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func (r *Request) encodeBody() (io.Reader, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case url.Values:
		return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

func (r *Response) Text() string { return string(r.Raw) }
