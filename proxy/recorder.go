package proxy

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Recorder persists transactions as flat files under one directory per
// proxy instance.
type Recorder struct {
	dir string
}

// NewRecorder returns a Recorder writing to
// <outputFolder>/<port>_<upstreamHost>_<upstreamPort>.
func NewRecorder(cfg Config) *Recorder {
	name := strconv.Itoa(cfg.Port) + "_" + cfg.UpstreamHost + "_" + strconv.Itoa(cfg.UpstreamPort)
	return &Recorder{dir: filepath.Join(cfg.OutputFolder, name)}
}

func (rec *Recorder) Dir() string { return rec.dir }

// Prepare creates the output directory. It runs once, before serving.
func (rec *Recorder) Prepare() error {
	if err := os.MkdirAll(rec.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// LogRequest writes <key>.requestBody and <key>.requestHeaders.
func (rec *Recorder) LogRequest(tx *Transaction) error {
	key := RequestKey(tx.Timestamp, tx.Method, tx.TargetURI)
	lines := append([]string{"Url=http://" + tx.TargetURI, "Headers:"}, headerLines(tx.RequestHeaders)...)

	return multierr.Append(
		rec.write(key+".requestBody", tx.RequestBody),
		rec.write(key+".requestHeaders", []byte(strings.Join(lines, lineSeparator))),
	)
}

// LogResponse writes <key>--<status>.responseBody and
// <key>--<status>.responseHeaders.
func (rec *Recorder) LogResponse(tx *Transaction) error {
	key := ResponseKey(tx.Timestamp, tx.Method, tx.TargetURI, tx.ResponseStatus)
	lines := append([]string{"Headers:"}, headerLines(tx.ResponseHeaders)...)

	return multierr.Append(
		rec.write(key+".responseBody", tx.ResponseBody),
		rec.write(key+".responseHeaders", []byte(strings.Join(lines, lineSeparator))),
	)
}

func headerLines(headers []Header) []string {
	lines := make([]string, 0, len(headers))
	for _, h := range headers {
		lines = append(lines, h.Name+"="+h.Value)
	}
	return lines
}

func (rec *Recorder) write(name string, data []byte) (err error) {
	path := filepath.Join(rec.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", name, cerr))
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
