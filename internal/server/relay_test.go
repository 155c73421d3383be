package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

func TestRelayHandler(t *testing.T) {
	t.Run("Streams body and mirrors media headers", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ua := r.Header.Get("User-Agent"); ua != shared.DesktopUserAgent {
				t.Errorf("expected desktop user agent, got %q", ua)
			}
			if ref := r.Header.Get("Referer"); ref != "https://www.bilibili.com/" {
				t.Errorf("expected referer forwarded, got %q", ref)
			}
			w.Header().Set("Content-Type", "audio/mp4")
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("X-Internal", "secret")
			w.Write([]byte("media-bytes"))
		}))
		defer upstream.Close()

		h := NewRelayHandler(http.DefaultClient, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/proxy?url="+upstream.URL+"&referer=https%3A%2F%2Fwww.bilibili.com%2F", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body, _ := io.ReadAll(rec.Body)
		if string(body) != "media-bytes" {
			t.Errorf("body not relayed: %q", body)
		}
		if rec.Header().Get("Content-Type") != "audio/mp4" {
			t.Error("content-type not mirrored")
		}
		if rec.Header().Get("Accept-Ranges") != "bytes" {
			t.Error("accept-ranges not mirrored")
		}
		if rec.Header().Get("X-Internal") != "" {
			t.Error("unexpected upstream header leaked")
		}
	})

	t.Run("Forwards Range and mirrors 206", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rng := r.Header.Get("Range"); rng != "bytes=100-" {
				t.Errorf("expected range forwarded, got %q", rng)
			}
			w.Header().Set("Content-Range", "bytes 100-199/200")
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte("partial"))
		}))
		defer upstream.Close()

		h := NewRelayHandler(http.DefaultClient, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/proxy?url="+upstream.URL, nil)
		req.Header.Set("Range", "bytes=100-")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Range") != "bytes 100-199/200" {
			t.Error("content-range not mirrored")
		}
	})

	t.Run("Upstream error maps to 502", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer upstream.Close()

		h := NewRelayHandler(http.DefaultClient, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/proxy?url="+upstream.URL, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("Missing or invalid url is 400", func(t *testing.T) {
		h := NewRelayHandler(http.DefaultClient, nil)
		for _, target := range []string{"/api/proxy", "/api/proxy?url=%20not-a-url"} {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", target, rec.Code)
			}
		}
	})
}

func TestRelayURL(t *testing.T) {
	got := RelayURL("localhost:3001", "https://cdn/a.m4s?q=1", "https://www.bilibili.com/")
	want := "http://localhost:3001/api/proxy?url=https%3A%2F%2Fcdn%2Fa.m4s%3Fq%3D1&referer=https%3A%2F%2Fwww.bilibili.com%2F"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := RelayURL("h", "https://cdn/a", ""); got != "http://h/api/proxy?url=https%3A%2F%2Fcdn%2Fa" {
		t.Errorf("unexpected referer-less url %q", got)
	}
}
