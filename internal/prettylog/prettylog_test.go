package prettylog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/coruntime/co/internal/prettylog"
)

func format(t *testing.T, lines ...string) string {
	t.Helper()
	var buf bytes.Buffer
	w := prettylog.NewWriter(&buf)
	for _, line := range lines {
		w.Write([]byte(line + "\n"))
	}
	return buf.String()
}

func TestPrettyLogBasicFields(t *testing.T) {
	out := format(t, `{"time":"2024-01-01T00:00:00Z","level":"INFO","msg":"scheduler started","scheduler":0,"coroutine":1}`)
	if !strings.Contains(out, "scheduler started") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "sched0/co1") {
		t.Fatalf("expected scheduler/coroutine tag in output, got %q", out)
	}
}

func TestPrettyLogErrorFieldFirst(t *testing.T) {
	out := format(t, `{"time":"2024-01-01T00:00:00Z","level":"ERROR","msg":"resume failed","scheduler":2,"coroutine":9,"err":"timeout","fd":7}`)
	errIdx := strings.Index(out, "err=")
	fdIdx := strings.Index(out, "fd=")
	if errIdx == -1 || fdIdx == -1 || errIdx > fdIdx {
		t.Fatalf("expected err= field before fd= field, got %q", out)
	}
}

func TestPrettyLogInvalidJSONPassesThrough(t *testing.T) {
	out := format(t, "not json at all")
	if !strings.Contains(out, "not json at all") {
		t.Fatalf("expected raw passthrough, got %q", out)
	}
}
