package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	allyhttp "github.com/artisansally/ally/pkg/http"
)

// Call is one request seen by MockTransport. Body is buffered so tests can
// inspect it after the fact.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded request body into dest.
func (c Call) JSON(dest interface{}) error { return json.Unmarshal(c.Body, dest) }

// Responder builds the reply for a matched request.
type Responder func(req *http.Request, body []byte) *http.Response

type route struct {
	method string
	prefix string
	reply  Responder
	hits   int
}

// MockTransport implements http.RoundTripper. Requests are matched against
// registered routes (method plus URL prefix, first match wins); anything
// unmatched fails the request so tests never reach the network.
//
//	mt := testkit.Mock(t)
//	mt.On("POST", "https://api.ebay.com/identity/v1/oauth2/token").
//	    JSON(200, map[string]any{"access_token": "t", "expires_in": 7200})
type MockTransport struct {
	mu     sync.Mutex
	routes []*route
	calls  []Call
}

// Mock installs a fresh MockTransport on the shared outbound client and
// restores the real transport when the test ends.
func Mock(t testing.TB) *MockTransport {
	t.Helper()
	mt := &MockTransport{}
	allyhttp.DefaultClient.Transport = mt
	t.Cleanup(allyhttp.ResetTransport)
	return mt
}

// Expectation is returned by On; finish it with Reply, JSON or Status.
type Expectation struct {
	mt *MockTransport
	r  *route
}

// On registers a route. An empty method matches any method.
func (mt *MockTransport) On(method, urlPrefix string) *Expectation {
	r := &route{method: strings.ToUpper(method), prefix: urlPrefix}
	mt.mu.Lock()
	mt.routes = append(mt.routes, r)
	mt.mu.Unlock()
	return &Expectation{mt: mt, r: r}
}

func (e *Expectation) Reply(fn Responder) *MockTransport {
	e.r.reply = fn
	return e.mt
}

// JSON replies with status and v marshalled as JSON.
func (e *Expectation) JSON(status int, v interface{}) *MockTransport {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testkit: marshal mock body: %v", err))
	}
	return e.Reply(func(req *http.Request, _ []byte) *http.Response {
		return NewResponse(req, status, b)
	})
}

// Status replies with an empty body.
func (e *Expectation) Status(status int) *MockTransport {
	return e.Reply(func(req *http.Request, _ []byte) *http.Response {
		return NewResponse(req, status, nil)
	})
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}

	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})

	for _, r := range mt.routes {
		if r.method != "" && r.method != req.Method {
			continue
		}
		if !strings.HasPrefix(req.URL.String(), r.prefix) {
			continue
		}
		r.hits++
		if r.reply == nil {
			return NewResponse(req, http.StatusOK, nil), nil
		}
		return r.reply(req, body), nil
	}
	return nil, fmt.Errorf("testkit: unexpected outgoing %s %s", req.Method, req.URL)
}

// Calls returns every request seen so far, in order.
func (mt *MockTransport) Calls() []Call {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]Call(nil), mt.calls...)
}

// CallsTo returns the recorded requests whose URL starts with prefix.
func (mt *MockTransport) CallsTo(method, prefix string) []Call {
	var out []Call
	for _, c := range mt.Calls() {
		if (method == "" || c.Method == method) && strings.HasPrefix(c.URL, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// AssertAllCalled fails the test for every route that was never hit.
func (mt *MockTransport) AssertAllCalled(t testing.TB) {
	t.Helper()
	mt.mu.Lock()
	defer mt.mu.Unlock()
	for _, r := range mt.routes {
		if r.hits == 0 {
			t.Errorf("testkit: mock %s %s was never called", r.method, r.prefix)
		}
	}
}

// NewResponse builds a synthetic JSON response.
func NewResponse(req *http.Request, status int, body []byte) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     h,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}
}
