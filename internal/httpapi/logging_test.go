package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"INFO":  LevelInfo,
		"debug": LevelDebug,
		"loud":  LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%d want %d", in, got, want)
		}
	}
}

func TestRequestLogLevelOverrides(t *testing.T) {
	defer SetDefaultLogLevel("")
	SetDefaultLogLevel("error")

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("default level %d", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/status?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("log=1 level %d", got)
	}
	r = httptest.NewRequest(http.MethodGet, "/status", nil)
	r.Header.Set("X-Log-Level", "info")
	if got := requestLogLevel(r); got != LevelInfo {
		t.Fatalf("header level %d", got)
	}
}

func TestRequestLoggerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())
	defer SetDefaultLogLevel("")
	SetDefaultLogLevel("error")

	h, _ := newStack(t)
	do(t, h, http.MethodGet, "/status", nil)
	if buf.Len() != 0 {
		t.Fatalf("successful request logged at error level: %s", buf.String())
	}
	do(t, h, http.MethodGet, "/cameras/DEV_MISSING", nil)
	line := buf.String()
	if !strings.Contains(line, `"status":404`) || !strings.Contains(line, `"path":"/cameras/{id}"`) {
		t.Fatalf("unexpected log line: %s", line)
	}

	buf.Reset()
	do(t, h, http.MethodGet, "/interfaces?log=debug", nil)
	if !strings.Contains(buf.String(), `"query":"log=debug"`) {
		t.Fatalf("debug line missing query: %s", buf.String())
	}

	buf.Reset()
	do(t, h, http.MethodGet, "/interfaces?log=off", nil)
	if buf.Len() != 0 {
		t.Fatalf("log=off still logged: %s", buf.String())
	}
}
