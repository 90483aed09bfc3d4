package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strconv"
)

var ErrUnsupportedMethod = errors.New("unsupported method")

func ParseMethod(m string) Method {
	switch m {
	case http.MethodGet:
		return MethodGet
	case http.MethodPost:
		return MethodPost
	default:
		return MethodUnsupported
	}
}

// TargetURI rebases the inbound path and query onto the upstream host:port.
func TargetURI(r *http.Request, upstreamHost string, upstreamPort int) string {
	return net.JoinHostPort(upstreamHost, strconv.Itoa(upstreamPort)) + r.URL.RequestURI()
}

// BuildOutbound turns an inbound request into the request sent upstream.
// It returns the outbound request together with the headers copied onto it,
// in the order they are written to the request headers file. No network I/O
// happens here.
func BuildOutbound(ctx context.Context, r *http.Request, body []byte, upstreamHost string, upstreamPort int) (*http.Request, []Header, error) {
	method := ParseMethod(r.Method)
	if method == MethodUnsupported {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, r.Method)
	}

	url := "http://" + TargetURI(r, upstreamHost, upstreamPort)

	var reqBody io.Reader
	if method == MethodPost {
		reqBody = bytes.NewReader(body)
	}
	out, err := http.NewRequestWithContext(ctx, method.String(), url, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("build outbound request: %w", err)
	}

	// net/http keeps the inbound Host outside the header map
	inbound := r.Header.Clone()
	if inbound == nil {
		inbound = http.Header{}
	}
	if r.Host != "" {
		inbound.Set("Host", r.Host)
	}

	names := make([]string, 0, len(inbound))
	for name := range inbound {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]Header, 0, len(names))
	for _, name := range names {
		switch http.CanonicalHeaderKey(name) {
		case "Content-Length":
			continue
		case "Host":
			headers = append(headers, Header{Name: name, Value: upstreamHost})
			continue
		}
		for _, v := range inbound[name] {
			out.Header.Add(name, v)
			headers = append(headers, Header{Name: name, Value: v})
		}
	}
	// Host is forced even when the client sent none
	out.Host = upstreamHost

	return out, headers, nil
}
