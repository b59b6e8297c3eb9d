package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apimiddleware "github.com/emberline/guildhall/infrastructure/api/middleware"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestServer_CorrelationHeader(t *testing.T) {
	server := NewServer(":0", quietLogger(&bytes.Buffer{}))
	router := server.Router()

	var seen string
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		seen = apimiddleware.GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(apimiddleware.CorrelationIDHeader, "corr-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v", w.Code, http.StatusOK)
	}
	if seen != "corr-7" {
		t.Errorf("correlation id = %q, want corr-7", seen)
	}
	if got := w.Header().Get(apimiddleware.CorrelationIDHeader); got != "corr-7" {
		t.Errorf("response header = %q, want corr-7", got)
	}
}

func TestServer_RecoversPanics(t *testing.T) {
	var logs bytes.Buffer
	server := NewServer(":0", quietLogger(&logs))
	server.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(logs.String(), "request completed") {
		t.Errorf("request was not logged: %s", logs.String())
	}
}

func TestServer_RunStopsWithContext(t *testing.T) {
	server := NewServer("127.0.0.1:0", quietLogger(&bytes.Buffer{}))
	if server.Addr() != "127.0.0.1:0" {
		t.Fatalf("Addr() = %q", server.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServer_RunReportsListenErrors(t *testing.T) {
	server := NewServer("not-an-address", quietLogger(&bytes.Buffer{}))

	err := server.Run(context.Background(), time.Second)
	if err == nil {
		t.Fatal("Run() error = nil, want listen error")
	}
}
