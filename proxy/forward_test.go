package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerValue(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodGet, ParseMethod("GET"))
	assert.Equal(t, MethodPost, ParseMethod("POST"))
	assert.Equal(t, MethodUnsupported, ParseMethod("DELETE"))
	assert.Equal(t, MethodUnsupported, ParseMethod("get"))
}

func TestBuildOutboundGet(t *testing.T) {
	in := httptest.NewRequest(http.MethodGet, "http://localhost:8080/api/data?x=1", nil)
	in.Header.Set("Accept", "application/json")

	out, headers, err := BuildOutbound(context.Background(), in, nil, "example.test", 80)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, out.Method)
	assert.Equal(t, "http://example.test:80/api/data?x=1", out.URL.String())
	assert.Equal(t, "example.test", out.Host)
	assert.Equal(t, "application/json", out.Header.Get("Accept"))
	assert.Nil(t, out.Body)

	host, ok := headerValue(headers, "Host")
	require.True(t, ok)
	assert.Equal(t, "example.test", host)
}

func TestBuildOutboundPost(t *testing.T) {
	in := httptest.NewRequest(http.MethodPost, "http://localhost:8080/submit", strings.NewReader("payload=1"))
	in.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	in.Header.Set("Content-Length", "9")

	out, headers, err := BuildOutbound(context.Background(), in, []byte("payload=1"), "example.test", 80)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, out.Method)
	body, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload=1", string(body))

	assert.Empty(t, out.Header.Get("Content-Length"))
	_, ok := headerValue(headers, "Content-Length")
	assert.False(t, ok)
	ct, _ := headerValue(headers, "Content-Type")
	assert.Equal(t, "application/x-www-form-urlencoded", ct)
}

func TestBuildOutboundHostAlwaysUpstream(t *testing.T) {
	for _, inboundHost := range []string{"localhost:8080", "evil.test", ""} {
		in := httptest.NewRequest(http.MethodGet, "/", nil)
		in.Host = inboundHost

		out, headers, err := BuildOutbound(context.Background(), in, nil, "upstream.test", 9000)
		require.NoError(t, err)
		assert.Equal(t, "upstream.test", out.Host, inboundHost)
		if host, ok := headerValue(headers, "Host"); ok {
			assert.Equal(t, "upstream.test", host)
		}
	}
}

func TestBuildOutboundKeepsRepeatedHeaders(t *testing.T) {
	in := httptest.NewRequest(http.MethodGet, "/", nil)
	in.Header.Add("X-Trace", "a")
	in.Header.Add("X-Trace", "b")

	out, headers, err := BuildOutbound(context.Background(), in, nil, "upstream.test", 80)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Header.Values("X-Trace"))

	var traces []string
	for _, h := range headers {
		if h.Name == "X-Trace" {
			traces = append(traces, h.Value)
		}
	}
	assert.Equal(t, []string{"a", "b"}, traces)
}

func TestBuildOutboundUnsupportedMethod(t *testing.T) {
	in := httptest.NewRequest(http.MethodDelete, "/resource/1", nil)

	out, headers, err := BuildOutbound(context.Background(), in, nil, "example.test", 80)
	assert.Nil(t, out)
	assert.Nil(t, headers)
	assert.True(t, errors.Is(err, ErrUnsupportedMethod))
	assert.Contains(t, err.Error(), "DELETE")
}

func TestTargetURI(t *testing.T) {
	in := httptest.NewRequest(http.MethodGet, "/a/b?c=d", nil)
	assert.Equal(t, "example.test:80/a/b?c=d", TargetURI(in, "example.test", 80))
}
