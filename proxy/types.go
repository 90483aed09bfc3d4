package proxy

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Method is the closed set of inbound methods the proxy forwards.
type Method int

const (
	MethodUnsupported Method = iota
	MethodGet
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	default:
		return "UNSUPPORTED"
	}
}

// Header is a single name=value line as written to a headers file.
type Header struct {
	Name  string
	Value string
}

// Transaction is one inbound request, its upstream execution and the
// response relayed back.
type Transaction struct {
	Timestamp time.Time
	Method    Method
	// TargetURI is upstreamHost:upstreamPort followed by the inbound path and query.
	TargetURI string

	RequestHeaders []Header
	RequestBody    []byte

	ResponseStatus  int
	ResponseHeaders []Header
	ResponseBody    []byte
}

// Config carries everything a Proxy needs to bind and forward.
type Config struct {
	Port         int
	UpstreamHost string
	UpstreamPort int
	OutputFolder string
	// MaxConns caps concurrent upstream connections.
	MaxConns int
}

type Proxy struct {
	Logger *zap.Logger

	cfg      Config
	client   *http.Client
	recorder *Recorder
	now      func() time.Time
}
