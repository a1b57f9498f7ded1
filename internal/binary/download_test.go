package binary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestDownloader(cfg DownloaderConfig) *Downloader {
	d := NewDownloader(cfg)
	d.backoff = func(int) time.Duration { return time.Millisecond }
	return d
}

func TestDownloaderDownloadToFile(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
	}{
		{
			name:       "successful_download",
			statusCode: http.StatusOK,
			body:       "test binary content",
			wantErr:    false,
		},
		{
			name:       "404_not_found",
			statusCode: http.StatusNotFound,
			body:       "not found",
			wantErr:    true,
		},
		{
			name:       "500_server_error",
			statusCode: http.StatusInternalServerError,
			body:       "server error",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}
				if r.Header.Get("Accept") != "application/octet-stream" {
					t.Errorf("unexpected Accept: %s", r.Header.Get("Accept"))
				}
				if r.Header.Get("Authorization") != "" {
					t.Errorf("anonymous download sent Authorization %q", r.Header.Get("Authorization"))
				}

				w.WriteHeader(tt.statusCode)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("failed to write response: %v", err)
				}
			}))
			defer server.Close()

			downloader := newTestDownloader(DownloaderConfig{Retries: 1})

			destPath := filepath.Join(t.TempDir(), "test-file")
			err := downloader.DownloadToFile(context.Background(), server.URL, destPath)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				if fileExists(destPath + ".tmp") {
					t.Error("temp file left behind")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(destPath)
			if err != nil {
				t.Fatalf("failed to read downloaded file: %v", err)
			}

			if string(content) != tt.body {
				t.Errorf("content mismatch:\ngot:  %q\nwant: %q", string(content), tt.body)
			}
		})
	}
}

func TestDownloaderHeaders(t *testing.T) {
	var auth, agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		agent = r.Header.Get("User-Agent")
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	downloader := newTestDownloader(DownloaderConfig{Token: "abc123", UserAgent: "binstall/1.2.3"})
	if err := downloader.DownloadToFile(context.Background(), server.URL, filepath.Join(t.TempDir(), "f")); err != nil {
		t.Fatal(err)
	}

	if auth != "token abc123" {
		t.Errorf("Authorization = %q, want %q", auth, "token abc123")
	}
	if agent != "binstall/1.2.3" {
		t.Errorf("User-Agent = %q, want binstall/1.2.3", agent)
	}
}

func TestDownloaderRetryLogic(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			// Fail first two attempts
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	downloader := newTestDownloader(DownloaderConfig{Retries: 3})

	destPath := filepath.Join(t.TempDir(), "test-file")
	if err := downloader.DownloadToFile(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("expected success after retries, got error: %v", err)
	}

	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}

	content, _ := os.ReadFile(destPath)
	if string(content) != "success" {
		t.Errorf("unexpected content: %s", string(content))
	}
}

func TestDownloaderClientErrorsNotRetried(t *testing.T) {
	tests := []struct {
		status       int
		wantAttempts int32
	}{
		{http.StatusNotFound, 1},
		{http.StatusUnauthorized, 1},
		{http.StatusForbidden, 1},
		{http.StatusRequestTimeout, 3},
		{http.StatusTooManyRequests, 3},
		{http.StatusBadGateway, 3},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			downloader := newTestDownloader(DownloaderConfig{Retries: 2})
			err := downloader.DownloadToFile(context.Background(), server.URL, filepath.Join(t.TempDir(), "f"))

			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Fatalf("error = %v, want StatusError %d", err, tt.status)
			}
			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestDownloaderContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate slow response
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("too late")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	downloader := NewDownloader(DownloaderConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	destPath := filepath.Join(t.TempDir(), "test-file")
	err := downloader.DownloadToFile(ctx, server.URL, destPath)

	if err == nil {
		t.Fatal("expected context cancellation error")
	}

	if !strings.Contains(err.Error(), "context") {
		t.Errorf("expected context error, got: %v", err)
	}
}

func TestDownloaderProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
		w.Write(payload)
	}))
	defer server.Close()

	var progress bytes.Buffer
	downloader := newTestDownloader(DownloaderConfig{Progress: &progress})

	destPath := filepath.Join(t.TempDir(), "tool.tar.gz")
	if err := downloader.DownloadToFile(context.Background(), server.URL, destPath); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(destPath)
	if err != nil || info.Size() != int64(len(payload)) {
		t.Fatalf("downloaded size = %v, %v; want %d", info, err, len(payload))
	}
	if progress.Len() == 0 {
		t.Error("expected progress output")
	}
}

func TestDownloaderCreatesNestedDirectories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nested"))
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "a", "b", "c", "file")
	if err := NewDownloader(DownloaderConfig{}).DownloadToFile(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if !fileExists(destPath) {
		t.Error("file not created in nested directory")
	}
}

func TestDownloaderRedirectHandling(t *testing.T) {
	redirectCount := 0
	finalContent := "final content after redirects"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if redirectCount < 3 {
			redirectCount++
			http.Redirect(w, r, fmt.Sprintf("/redirect-%d", redirectCount), http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(finalContent)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "redirected-file")
	if err := NewDownloader(DownloaderConfig{}).DownloadToFile(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("download with redirects failed: %v", err)
	}

	content, _ := os.ReadFile(destPath)
	if string(content) != finalContent {
		t.Errorf("unexpected content after redirects: %s", string(content))
	}

	if redirectCount != 3 {
		t.Errorf("expected 3 redirects, got %d", redirectCount)
	}
}

func TestExponentialBackoff(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := exponentialBackoff(i + 1); got != w {
			t.Errorf("exponentialBackoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}
