package shared

import (
	"strings"
	"testing"
)

func TestCredentials(t *testing.T) {
	t.Run("Guest cookie shape", func(t *testing.T) {
		c := NewCredentials()
		cookie := c.GuestHeaders()["Cookie"]

		for _, marker := range []string{"os=pc", "appver=", "NMTID=", "DeviceId="} {
			if !strings.Contains(cookie, marker) {
				t.Errorf("guest cookie missing %q: %s", marker, cookie)
			}
		}
	})

	t.Run("Guest identity is stable per process", func(t *testing.T) {
		c := NewCredentials()
		if c.GuestHeaders()["Cookie"] != c.GuestHeaders()["Cookie"] {
			t.Error("guest cookie changed between calls")
		}
	})

	t.Run("Base headers present", func(t *testing.T) {
		c := NewCredentials()
		h := c.GuestHeaders()
		if h["Referer"] != "https://music.163.com/" {
			t.Errorf("bad referer: %q", h["Referer"])
		}
		if h["User-Agent"] != DesktopUserAgent {
			t.Errorf("bad user agent: %q", h["User-Agent"])
		}
		if h["X-Real-IP"] == "" || h["X-Forwarded-For"] == "" {
			t.Error("expected forwarded-ip headers")
		}
	})

	t.Run("ResolveHeaders", func(t *testing.T) {
		c := NewCredentials()

		t.Run("Full cookie used as-is", func(t *testing.T) {
			stored := "os=pc; appver=2.9.7; MUSIC_U=00abc123;"
			if got := c.ResolveHeaders(stored)["Cookie"]; got != stored {
				t.Errorf("expected passthrough, got %q", got)
			}
		})

		t.Run("Session marker without desktop prefix gets one", func(t *testing.T) {
			got := c.ResolveHeaders("MUSIC_U=00abc123;")["Cookie"]
			if !strings.HasPrefix(got, "os=pc;") || !strings.Contains(got, "MUSIC_U=00abc123") {
				t.Errorf("expected prefixed cookie, got %q", got)
			}
		})

		t.Run("Bare token wrapped", func(t *testing.T) {
			token := strings.Repeat("ab12", 20)
			got := c.ResolveHeaders(token)["Cookie"]
			if !strings.Contains(got, "MUSIC_U="+token) {
				t.Errorf("expected wrapped token, got %q", got)
			}
		})

		t.Run("Garbage falls back to guest", func(t *testing.T) {
			guest := c.GuestHeaders()["Cookie"]
			if got := c.ResolveHeaders("definitely not a cookie")["Cookie"]; got != guest {
				t.Errorf("expected guest fallback, got %q", got)
			}
		})

		t.Run("Empty falls back to guest", func(t *testing.T) {
			guest := c.GuestHeaders()["Cookie"]
			if got := c.ResolveHeaders("")["Cookie"]; got != guest {
				t.Errorf("expected guest fallback, got %q", got)
			}
		})
	})
}

func TestExtractSessionToken(t *testing.T) {
	t.Run("From cookie string", func(t *testing.T) {
		token, ok := ExtractSessionToken("os=pc; MUSIC_U=00abcDEF123; NMTID=x")
		if !ok || token != "00abcDEF123" {
			t.Errorf("got %q/%v", token, ok)
		}
	})

	t.Run("From header block", func(t *testing.T) {
		raw := "GET / HTTP/1.1\nCookie: MUSIC_U=deadbeef42\nAccept: */*"
		token, ok := ExtractSessionToken(raw)
		if !ok || token != "deadbeef42" {
			t.Errorf("got %q/%v", token, ok)
		}
	})

	t.Run("Bare token", func(t *testing.T) {
		bare := strings.Repeat("f00d", 16)
		token, ok := ExtractSessionToken("  " + bare + "  ")
		if !ok || token != bare {
			t.Errorf("got %q/%v", token, ok)
		}
	})

	t.Run("Short or delimited input rejected", func(t *testing.T) {
		for _, input := range []string{"", "short", "has spaces but is otherwise quite long indeed yes truly", "a=b"} {
			if _, ok := ExtractSessionToken(input); ok {
				t.Errorf("expected rejection for %q", input)
			}
		}
	})
}
