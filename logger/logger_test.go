package logger

import (
	"bytes"
	"errors"
	stdlog "log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetWriter(&buf)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		SetConsoleWriter()
	})
	return &buf
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestFields(t *testing.T) {
	buf := capture(t)
	Info("addr", "127.0.0.1:11301", "count", 3, "elapsed", time.Second, "served")
	line := buf.String()
	for path, want := range map[string]string{
		"severity": "INFO",
		"message":  "served",
		"addr":     "127.0.0.1:11301",
		"count":    "3",
		"elapsed":  "1s",
	} {
		if got := gjson.Get(line, path).String(); got != want {
			t.Fatalf("%s: expected %q, got %q in %s", path, want, got, line)
		}
	}
	if !gjson.Get(line, "caller").Exists() {
		t.Fatalf("missing caller in %s", line)
	}
}

func TestFormat(t *testing.T) {
	buf := capture(t)
	Error(errors.New("boom"), "failed after %d tries", 7)
	Notice("ready")
	ls := lines(buf)
	if len(ls) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(ls))
	}
	if v := gjson.Get(ls[0], "error").String(); v != "boom" {
		t.Fatalf("expected error field, got %q", v)
	}
	if v := gjson.Get(ls[0], "message").String(); v != "failed after 7 tries" {
		t.Fatalf("unexpected message %q", v)
	}
	if v := gjson.Get(ls[0], "severity").String(); v != "ERROR" {
		t.Fatalf("unexpected severity %q", v)
	}
	if v := gjson.Get(ls[1], "severity").String(); v != "NOTICE" {
		t.Fatalf("unexpected severity %q", v)
	}
}

func TestSetLevel(t *testing.T) {
	buf := capture(t)
	if err := SetLevel("warn"); err != nil {
		t.Fatal(err)
	}
	Info("hidden")
	Debug("hidden")
	Warn("shown")
	ls := lines(buf)
	if len(ls) != 1 || gjson.Get(ls[0], "message").String() != "shown" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if err := SetLevel("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
	for _, name := range []string{"debug", "verb", "info", "notice", "warning", "silent"} {
		if err := SetLevel(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestParseStdLine(t *testing.T) {
	level, args := parseStdLine("[W] listener closed addr=127.0.0.1:1 reason=\"eof\"\n")
	if level != zerolog.WarnLevel {
		t.Fatalf("expected warn, got %v", level)
	}
	want := []interface{}{"addr", "127.0.0.1:1", "reason", "eof", "listener closed"}
	if len(args) != len(want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, args)
		}
	}

	level, args = parseStdLine("plain 100% message")
	if level != zerolog.InfoLevel || len(args) != 1 || args[0] != "plain 100%% message" {
		t.Fatalf("unexpected parse %v %v", level, args)
	}
}

func TestStdWriter(t *testing.T) {
	buf := capture(t)
	l := stdlog.New(StdWriter, "", 0)
	l.Printf("[E] sync failed code=%d", 7)
	line := buf.String()
	if v := gjson.Get(line, "severity").String(); v != "ERROR" {
		t.Fatalf("unexpected severity %q in %s", v, line)
	}
	if v := gjson.Get(line, "message").String(); v != "sync failed" {
		t.Fatalf("unexpected message %q", v)
	}
	if v := gjson.Get(line, "code").String(); v != "7" {
		t.Fatalf("unexpected code %q", v)
	}
}
