package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/trace"
)

func TestDoJSONPropagatesTraceHeaders(t *testing.T) {
	var gotReqID, gotSpan, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get(trace.HeaderRequestID)
		gotSpan = r.Header.Get(trace.HeaderSpanID)
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	c := NewBaseClientWithClient(nil, srv.URL+"/v1")
	ctx := trace.WithRequestAndSpan(context.Background(), "req-42", 0)
	req, err := c.NewRequest(ctx, http.MethodPost, "accounts:signInWithPassword", url.Values{"key": {"secret"}}, nil)
	require.NoError(t, err)

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.DoJSON(req, &out))
	assert.Equal(t, "ok", out.Name)
	assert.Equal(t, "req-42", gotReqID)
	assert.Equal(t, "1", gotSpan)
	assert.Equal(t, "/v1/accounts:signInWithPassword", gotPath)
}

func TestDoJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"bad"}`))
	}))
	defer srv.Close()

	c := NewBaseClientWithClient(nil, srv.URL)
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)

	err = c.DoJSON(req, nil)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.JSONEq(t, `{"error":"bad"}`, string(se.Body))
}

func TestNewRequestRejectsQueryInPath(t *testing.T) {
	c := NewBaseClientWithClient(nil, "http://example.com")
	_, err := c.NewRequest(context.Background(), http.MethodGet, "/a?b=c", nil, nil)
	assert.Error(t, err)
}

func TestRedactQuery(t *testing.T) {
	q := url.Values{"key": {"secret"}, "page": {"2"}}
	assert.Equal(t, "key=REDACTED&page=2", RedactQuery(q))
	assert.Empty(t, RedactQuery(nil))
}
