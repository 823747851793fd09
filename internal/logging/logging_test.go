package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)
	SetLevel("warn")
	defer SetLevel("info")

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	Errorf("also shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Errorf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] also shown") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestPercentInArgumentKept(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(io.Discard)

	Infof("target %s: %s", "1.1.1.1", "loss 50%")
	if !strings.Contains(buf.String(), "[INFO] target 1.1.1.1: loss 50%") || strings.Contains(buf.String(), "MISSING") {
		t.Errorf("message mangled: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{" WARNING ", LevelWarn, true},
		{"trace", LevelTrace, true},
		{"verbose", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOpenFileAppends(t *testing.T) {
	path := t.TempDir() + "/pingdash.log"
	if err := OpenFile(path); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	Infof("written to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] written to file") {
		t.Errorf("log file content = %q", data)
	}
	if Enabled(LevelTrace) {
		t.Errorf("trace should be disabled at default level")
	}
}
