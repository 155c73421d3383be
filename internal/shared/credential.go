// Utilities for deriving the outbound NetEase request identity from
// stored credentials.
//
// The login capture step accepts free-form paste input: a full cookie
// string, a copied header block, or a bare MUSIC_U token. Parsing here
// is deliberately tolerant so users never have to extract the token by
// hand.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	neteaseAppVersion = "2.9.7"

	// DesktopUserAgent is the fixed browser identity attached to every
	// outbound source request, including relayed media fetches.
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// HeaderSet is the outbound header shape for source requests.
type HeaderSet map[string]string

// Credentials derives the outbound identity used against NetEase. The
// guest cookie is synthesized once per process start and immutable
// afterwards; the service rejects requests lacking session-shaped
// cookies even for anonymous browsing.
type Credentials struct {
	guestCookie string
}

// NewCredentials generates a fresh guest identity: a random device id
// plus synthetic session markers shaped like the desktop client's.
func NewCredentials() *Credentials {
	nmtid := RandomHex(32)
	deviceID := RandomHex(16)
	return &Credentials{
		guestCookie: fmt.Sprintf("os=pc; appver=%s; NMTID=%s; DeviceId=%s;", neteaseAppVersion, nmtid, deviceID),
	}
}

func baseHeaders() HeaderSet {
	return HeaderSet{
		"Referer":         "https://music.163.com/",
		"User-Agent":      DesktopUserAgent,
		"Content-Type":    "application/x-www-form-urlencoded",
		"X-Real-IP":       "115.239.211.112",
		"X-Forwarded-For": "115.239.211.112",
	}
}

// GuestHeaders returns the anonymous desktop-client header set.
func (c *Credentials) GuestHeaders() HeaderSet {
	h := baseHeaders()
	h["Cookie"] = c.guestCookie
	return h
}

// ResolveHeaders builds the header set for a stored credential. A value
// carrying the MUSIC_U session marker is used as-is (prefixed with the
// desktop markers when missing); a bare token is wrapped into the
// expected marker format; anything else falls back to guest headers.
func (c *Credentials) ResolveHeaders(stored string) HeaderSet {
	h := baseHeaders()
	h["Cookie"] = c.resolveCookie(stored)
	return h
}

func (c *Credentials) resolveCookie(stored string) string {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return c.guestCookie
	}

	if strings.Contains(stored, "MUSIC_U=") {
		if strings.Contains(stored, "os=pc") {
			return stored
		}
		return fmt.Sprintf("os=pc; appver=%s; %s", neteaseAppVersion, stored)
	}

	if token, ok := ExtractSessionToken(stored); ok {
		return fmt.Sprintf("os=pc; appver=%s; MUSIC_U=%s;", neteaseAppVersion, token)
	}

	return c.guestCookie
}

var musicTokenRe = regexp.MustCompile(`MUSIC_U=([0-9a-zA-Z]+)`)

// ExtractSessionToken pulls the MUSIC_U session token out of arbitrary
// pasted text. Accepts full header blocks, cookie strings, or a bare
// token (a long alphanumeric string with no delimiters).
func ExtractSessionToken(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if m := musicTokenRe.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if len(raw) > 50 && !strings.ContainsAny(raw, "=;, \t\n") {
		return raw, true
	}
	return "", false
}
