package provider

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ReplayTransport records successful POST exchanges on disk and replays
// them for identical requests. It lets imports be re-run against fixed
// model answers. Cache failures fall through to the inner transport.
type ReplayTransport struct {
	inner  http.RoundTripper
	dir    string
	logger *slog.Logger
}

// NewReplayTransport caches exchanges under dir. A nil inner uses
// http.DefaultTransport.
func NewReplayTransport(dir string, inner http.RoundTripper, logger *slog.Logger) (*ReplayTransport, error) {
	if inner == nil {
		inner = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ReplayTransport{inner: inner, dir: dir, logger: logger}, nil
}

type recording struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// RoundTrip implements http.RoundTripper.
func (t *ReplayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || req.Body == nil {
		return t.inner.RoundTrip(req)
	}
	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))

	path := filepath.Join(t.dir, recordingKey(req, body)+".json")
	if rec, ok := t.load(path); ok {
		return &http.Response{
			StatusCode:    rec.Status,
			Status:        http.StatusText(rec.Status),
			Header:        rec.Header,
			Body:          io.NopCloser(bytes.NewReader(rec.Body)),
			ContentLength: int64(len(rec.Body)),
			Request:       req,
		}, nil
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil || resp.StatusCode/100 != 2 {
		return resp, err
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	t.store(path, recording{Status: resp.StatusCode, Header: resp.Header, Body: respBody})
	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

func recordingKey(req *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(req.Method + " " + req.URL.String() + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (t *ReplayTransport) load(path string) (recording, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return recording{}, false
	}
	var rec recording
	if err := json.Unmarshal(data, &rec); err != nil {
		t.logger.Warn("ignoring unreadable recording", slog.String("path", path), slog.Any("error", err))
		return recording{}, false
	}
	return rec, true
}

func (t *ReplayTransport) store(path string, rec recording) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		t.logger.Warn("failed to write recording", slog.String("path", path), slog.Any("error", err))
	}
}
