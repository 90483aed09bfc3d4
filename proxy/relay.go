package proxy

import (
	"net/http"
	"sort"
)

// FilterResponseHeaders flattens upstream headers into file order, dropping
// Content-Length and Transfer-Encoding.
func FilterResponseHeaders(h http.Header) []Header {
	names := make([]string, 0, len(h))
	for name := range h {
		switch http.CanonicalHeaderKey(name) {
		case "Content-Length", "Transfer-Encoding":
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]Header, 0, len(names))
	for _, name := range names {
		for _, v := range h[name] {
			headers = append(headers, Header{Name: name, Value: v})
		}
	}
	return headers
}

// Relay writes the upstream status, headers and body to the caller.
func Relay(w http.ResponseWriter, status int, headers []Header, body []byte) error {
	dst := w.Header()
	for _, h := range headers {
		dst.Add(h.Name, h.Value)
	}
	w.WriteHeader(status)

	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return err
		}
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
