package sysutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"  DeBuG  ", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, false)
	l.Info().Str("welder", "Ivanov").Msg("hello")
	out := buf.String()
	if !strings.Contains(out, `"welder":"Ivanov"`) || !strings.Contains(out, `"time"`) {
		t.Fatalf("json log line unexpected: %s", out)
	}

	buf.Reset()
	p := NewLogger(&buf, true)
	p.Info().Msg("pretty")
	if strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("pretty logger wrote JSON: %s", buf.String())
	}
}

func TestIsAffirmative(t *testing.T) {
	for _, v := range []string{"y", "YES", " Да ", "д"} {
		if !IsAffirmative(v) {
			t.Fatalf("IsAffirmative(%q) = false", v)
		}
	}
	for _, v := range []string{"", "n", "нет", "sure", "1"} {
		if IsAffirmative(v) {
			t.Fatalf("IsAffirmative(%q) = true", v)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q", got)
	}
	if got := FirstNonEmpty(" ", "\t"); got != "" {
		t.Fatalf("FirstNonEmpty(blanks) = %q", got)
	}
	if got := FirstNonEmpty("", "flag.db", "env.db"); got != "flag.db" {
		t.Fatalf("FirstNonEmpty = %q", got)
	}
}
