package shared

import (
	"bytes"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid format, got %q", a)
	}
}

func TestRandomHex(t *testing.T) {
	for _, n := range []int{1, 16, 32, 33} {
		got := RandomHex(n)
		if len(got) != n {
			t.Errorf("RandomHex(%d) returned %d chars", n, len(got))
		}
		for _, c := range got {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				t.Errorf("non-hex char %q in %q", c, got)
			}
		}
	}
	if RandomHex(32) == RandomHex(32) {
		t.Error("expected different values")
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		0:    "0:00",
		65:   "1:05",
		225:  "3:45",
		3723: "1:02:03",
		-5:   "0:00",
	}
	for input, expected := range cases {
		if got := FormatDuration(input); got != expected {
			t.Errorf("FormatDuration(%d) = %q, expected %q", input, got, expected)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info("hello", "k", "v")

	if buf.Len() == 0 {
		t.Error("expected log output")
	}
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("missing message in output: %s", buf.String())
	}
}
