package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"webInspector/internal/config"
	"webInspector/internal/output"
	"webInspector/internal/probe"
)

func TestReadURLs(t *testing.T) {
	input := "https://a.example\n\n# comment\n  http://b.example  \n"
	urls, err := readURLs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readURLs() error = %v", err)
	}
	want := []string{"https://a.example", "http://b.example"}
	if len(urls) != len(want) {
		t.Fatalf("got %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestCollectURLs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "urls.txt")
	if err := os.WriteFile(path, []byte("https://file.example\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	stdin := strings.NewReader("https://stdin.example\n")

	tests := []struct {
		name      string
		args      []string
		inputFile string
		want      string
	}{
		{"arguments win", []string{"https://arg.example"}, path, "https://arg.example"},
		{"input file", nil, path, "https://file.example"},
		{"stdin fallback", nil, "", "https://stdin.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			urls, err := collectURLs(tt.args, tt.inputFile, stdin)
			if err != nil {
				t.Fatalf("collectURLs() error = %v", err)
			}
			if len(urls) != 1 || urls[0] != tt.want {
				t.Errorf("urls = %v, want [%s]", urls, tt.want)
			}
		})
	}

	if _, err := collectURLs(nil, filepath.Join(dir, "missing.txt"), stdin); err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestRunScan_JSONLines(t *testing.T) {
	cfg := config.New()
	cfg.Logger = zaptest.NewLogger(t)
	inspector := probe.NewInspector(cfg, nil)

	var out bytes.Buffer
	// scheme-less and malformed inputs are rejected before any network I/O
	urls := []string{"example.com", "ftp://example.com"}
	if err := runScan(context.Background(), inspector, urls, &out, false, cfg.Logger); err != nil {
		t.Fatalf("runScan() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
	for i, line := range lines {
		var report output.Report
		if err := json.Unmarshal([]byte(line), &report); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if report.URL != urls[i] {
			t.Errorf("line %d URL = %q, want %q", i, report.URL, urls[i])
		}
		if report.Error != "URL must start with http:// or https://" {
			t.Errorf("line %d error = %q", i, report.Error)
		}
	}
}

func TestScanHelp_GroupsFlags(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"scan", "--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"INPUT:", "OUTPUT:", "PROBES:", "TIMEOUTS:", "DEBUG:", "--tls-timeout", "-i, --input"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output missing %q:\n%s", want, out.String())
		}
	}
}
