package services

import (
	"context"
	"errors"
	"testing"
)

var errFailed = errors.New("step failed")

func TestParseDuration(t *testing.T) {
	t.Run("Minutes and seconds", func(t *testing.T) {
		if got := ParseDuration("1:05"); got != 65 {
			t.Errorf("expected 65, got %d", got)
		}
	})

	t.Run("Hours", func(t *testing.T) {
		if got := ParseDuration("1:02:03"); got != 3723 {
			t.Errorf("expected 3723, got %d", got)
		}
	})

	t.Run("Invalid input", func(t *testing.T) {
		for _, input := range []string{"", "90", "1:2:3:4", "a:b", "-1:30"} {
			if got := ParseDuration(input); got != 0 {
				t.Errorf("ParseDuration(%q) = %d, expected 0", input, got)
			}
		}
	})
}

func TestMillisToSeconds(t *testing.T) {
	if got := MillisToSeconds(272000); got != 272 {
		t.Errorf("expected 272, got %d", got)
	}
	if got := MillisToSeconds(-5); got != 0 {
		t.Errorf("expected 0 for negative input, got %d", got)
	}
	if got := MillisToSeconds(999); got != 0 {
		t.Errorf("expected sub-second to truncate to 0, got %d", got)
	}
}

func TestNormalizeCoverURL(t *testing.T) {
	cases := map[string]string{
		"http://p1.music.126.net/cover.jpg": "https://p1.music.126.net/cover.jpg",
		"//i0.hdslb.com/cover.jpg":          "https://i0.hdslb.com/cover.jpg",
		"https://already.example/ok.jpg":    "https://already.example/ok.jpg",
		"":                                  "",
	}
	for input, expected := range cases {
		if got := NormalizeCoverURL(input); got != expected {
			t.Errorf("NormalizeCoverURL(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestUpgradeScheme(t *testing.T) {
	cases := map[string]string{
		"http://m701.music.126.net/a.mp3": "https://m701.music.126.net/a.mp3",
		"https://already.example/a.mp3":   "https://already.example/a.mp3",
		"//no-scheme.example/a.mp3":       "//no-scheme.example/a.mp3",
		"":                                "",
	}
	for input, expected := range cases {
		if got := upgradeScheme(input); got != expected {
			t.Errorf("upgradeScheme(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags(`<em class="keyword">周杰伦</em>稻香`); got != "周杰伦稻香" {
		t.Errorf("expected markup removed, got %q", got)
	}
	if got := StripTags("plain title"); got != "plain title" {
		t.Errorf("expected passthrough, got %q", got)
	}
}

func TestRunFallbackChain(t *testing.T) {
	t.Run("First success wins", func(t *testing.T) {
		rotated := 0
		url, step, err := runFallbackChain(context.Background(), []fallbackStep{
			{name: "a", run: func(ctx context.Context) (string, error) { return "", errFailed }, onFailure: func() { rotated++ }},
			{name: "b", run: func(ctx context.Context) (string, error) { return "https://b.example/x", nil }},
			{name: "c", run: func(ctx context.Context) (string, error) { t.Fatal("step c should not run"); return "", nil }},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if url != "https://b.example/x" || step != "b" {
			t.Errorf("expected step b to win, got %q from %q", url, step)
		}
		if rotated != 1 {
			t.Errorf("expected one rotation, got %d", rotated)
		}
	})

	t.Run("All failures return last error", func(t *testing.T) {
		_, _, err := runFallbackChain(context.Background(), []fallbackStep{
			{name: "a", run: func(ctx context.Context) (string, error) { return "", errFailed }},
		})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
