package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
)

func TestBackendClient(t *testing.T) {
	t.Run("SearchSongs", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" || r.URL.Query().Get("q") != "test query" {
				t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			w.Write([]byte(`{"songs":[{"id":"1","title":"t","source":"YOUTUBE"}]}`))
		}))
		defer srv.Close()

		b := NewBackendClient(srv.URL, srv.Client())
		songs, err := b.SearchSongs(context.Background(), "test query")
		if err != nil {
			t.Fatalf("SearchSongs failed: %v", err)
		}
		if len(songs) != 1 || songs[0].ID != "1" {
			t.Errorf("bad songs: %+v", songs)
		}
	})

	t.Run("ResolveURL", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("id") != "BV1" || q.Get("source") != "BILIBILI" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"url":"https://backend/relay?url=x"}`))
		}))
		defer srv.Close()

		b := NewBackendClient(srv.URL, srv.Client())
		u, err := b.ResolveURL(context.Background(), "BV1", models.SourceBilibili)
		if err != nil {
			t.Fatalf("ResolveURL failed: %v", err)
		}
		if u != "https://backend/relay?url=x" {
			t.Errorf("bad url: %q", u)
		}
	})

	t.Run("ResolveURL empty body is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		b := NewBackendClient(srv.URL, srv.Client())
		if _, err := b.ResolveURL(context.Background(), "x", models.SourceYouTube); err == nil {
			t.Error("expected error for missing url")
		}
	})

	t.Run("Non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		b := NewBackendClient(srv.URL, srv.Client())
		if _, err := b.SearchSongs(context.Background(), "q"); err == nil {
			t.Error("expected error for 500")
		}
	})

	t.Run("RelayURL escapes target and referer", func(t *testing.T) {
		b := NewBackendClient("https://backend.example/", nil)
		got := b.RelayURL("https://cdn/a.m4s?x=1&y=2", "https://www.bilibili.com/")
		want := "https://backend.example/relay?url=https%3A%2F%2Fcdn%2Fa.m4s%3Fx%3D1%26y%3D2&referer=https%3A%2F%2Fwww.bilibili.com%2F"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
