package proxy

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mohamedbeat/gyxy-recorder/logger"
	"go.uber.org/zap"
)

type stage string

const (
	stageReceived       stage = "received"
	stageBuilt          stage = "built"
	stageLoggedRequest  stage = "logged_request"
	stageExecuted       stage = "executed"
	stageLoggedResponse stage = "logged_response"
	stageRelayed        stage = "relayed"
)

// New creates a Proxy with its shared upstream client and recorder.
func New(cfg Config, log *zap.Logger) *Proxy {
	return &Proxy{
		Logger:   log,
		cfg:      cfg,
		client:   newClient(cfg.MaxConns),
		recorder: NewRecorder(cfg),
		now:      time.Now,
	}
}

// newClient returns the client shared by every transaction. At most maxConns
// upstream connections are open at once; further requests wait for one.
func newClient(maxConns int) *http.Client {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:     maxConns,
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns,
		IdleConnTimeout:     90 * time.Second,
		// relay the upstream's bytes, not a decompressed copy
		DisableCompression: true,
	}
	return &http.Client{
		Transport: tr,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Bind creates the output directory and serves until ctx is cancelled.
func (p *Proxy) Bind(ctx context.Context) error {
	if err := p.recorder.Prepare(); err != nil {
		return err
	}

	abs, err := filepath.Abs(p.recorder.Dir())
	if err != nil {
		abs = p.recorder.Dir()
	}
	p.Logger.Info("Binding proxy",
		zap.Int("port", p.cfg.Port),
		zap.String("upstreamHost", p.cfg.UpstreamHost),
		zap.Int("upstreamPort", p.cfg.UpstreamPort))
	p.Logger.Info("Writing transactions", zap.String("outputPath", abs))

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(p.cfg.Port))
	if err != nil {
		return err
	}
	return p.Serve(ctx, listener)
}

// Serve handles requests from listener until ctx is cancelled, then lets
// in-flight transactions finish.
func (p *Proxy) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           p,
		ReadHeaderTimeout: 30 * time.Second,
		ErrorLog:          zap.NewStdLog(p.Logger),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	p.Logger.Info("Proxy server started", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	p.Logger.Info("Shutting down proxy server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP forwards one transaction: log the request, execute it upstream,
// log the response, relay it.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := p.now()
	tx := &Transaction{
		Timestamp: start,
		Method:    ParseMethod(r.Method),
		TargetURI: TargetURI(r, p.cfg.UpstreamHost, p.cfg.UpstreamPort),
	}
	log := p.Logger.With(
		zap.String("ts", FormatTimestamp(start)),
		zap.String("method", r.Method),
		zap.String("uri", tx.TargetURI))
	log.Debug("Transaction state", zap.String("state", string(stageReceived)))

	fail := func(st stage, status int, err error) {
		log.Error("Transaction failed", zap.String("stage", string(st)), zap.Error(err))
		http.Error(w, http.StatusText(status), status)
	}

	if tx.Method == MethodUnsupported {
		p.rejectMethod(w, r.Method)
		log.Warn("Rejected unsupported method")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(stageReceived, http.StatusBadRequest, fmt.Errorf("read request body: %w", err))
		return
	}
	tx.RequestBody = body

	// a client hangup does not cancel the upstream call
	out, headers, err := BuildOutbound(context.WithoutCancel(r.Context()), r, body, p.cfg.UpstreamHost, p.cfg.UpstreamPort)
	if err != nil {
		fail(stageReceived, http.StatusInternalServerError, err)
		return
	}
	tx.RequestHeaders = headers
	log.Debug("Transaction state", zap.String("state", string(stageBuilt)))

	log.Info("Handling request", zap.String("size", logger.HumanizeBytes(len(body))))
	if err := p.recorder.LogRequest(tx); err != nil {
		fail(stageBuilt, http.StatusInternalServerError, fmt.Errorf("log request: %w", err))
		return
	}
	log.Debug("Transaction state", zap.String("state", string(stageLoggedRequest)))

	resp, err := p.client.Do(out)
	if err != nil {
		fail(stageLoggedRequest, http.StatusBadGateway, fmt.Errorf("execute: %w", err))
		return
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		fail(stageLoggedRequest, http.StatusBadGateway, fmt.Errorf("read response body: %w", err))
		return
	}
	tx.ResponseStatus = resp.StatusCode
	tx.ResponseHeaders = FilterResponseHeaders(resp.Header)
	tx.ResponseBody = respBody
	log.Debug("Transaction state", zap.String("state", string(stageExecuted)))

	if err := p.recorder.LogResponse(tx); err != nil {
		fail(stageExecuted, http.StatusInternalServerError, fmt.Errorf("log response: %w", err))
		return
	}
	log.Debug("Transaction state", zap.String("state", string(stageLoggedResponse)))

	if err := Relay(w, tx.ResponseStatus, tx.ResponseHeaders, tx.ResponseBody); err != nil {
		// status is already on the wire
		log.Error("Transaction failed", zap.String("stage", string(stageLoggedResponse)), zap.Error(err))
		return
	}
	log.Debug("Transaction state", zap.String("state", string(stageRelayed)))

	log.Info("Relayed response",
		zap.Int("status", tx.ResponseStatus),
		zap.String("size", logger.HumanizeBytes(len(respBody))),
		zap.Duration("duration", p.now().Sub(start)))
}

func (p *Proxy) rejectMethod(w http.ResponseWriter, method string) {
	w.Header().Set("Allow", allowedMethods)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	if _, err := fmt.Fprintf(w, methodNotAllowedHTMLTemplate, html.EscapeString(method), allowedMethods); err != nil {
		p.Logger.Error("Failed to send 405 response", zap.Error(err))
	}
}
