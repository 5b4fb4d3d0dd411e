package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func loadWithFlags(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	fs := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	formatter := RegisterScanFlags(fs)
	debug := RegisterGlobalFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	v, err := NewViper("")
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	if err := Bind(v, fs, append(formatter.Groups, debug)...); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	cfg, err := Load(v)
	if cfg != nil {
		t.Cleanup(func() { _ = cfg.Close() })
	}
	return cfg, err
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWithFlags(t)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TLSTimeout != 10*time.Second || cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("timeouts = %s/%s, want 10s/10s", cfg.TLSTimeout, cfg.HTTPTimeout)
	}
	if cfg.MaxBodySize != 100*1024 {
		t.Errorf("MaxBodySize = %d, want %d", cfg.MaxBodySize, 100*1024)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if !cfg.TechDetect || !cfg.GeoLookup || cfg.VerifyHTTP3 {
		t.Errorf("feature defaults = tech %v geo %v h3 %v", cfg.TechDetect, cfg.GeoLookup, cfg.VerifyHTTP3)
	}
	if cfg.Logger == nil {
		t.Error("Logger not initialised")
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("WEBINSPECTOR_PROBE_TLS_TIMEOUT", "3s")
	t.Setenv("WEBINSPECTOR_PROBE_HTTP_TIMEOUT", "4s")
	t.Setenv("WEBINSPECTOR_PROBE_TECH_DETECT", "false")

	cfg, err := loadWithFlags(t, "--http-timeout", "2s", "--max-body-size", "2048", "-d")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TLSTimeout != 3*time.Second {
		t.Errorf("TLSTimeout = %s, want 3s from env", cfg.TLSTimeout)
	}
	if cfg.HTTPTimeout != 2*time.Second {
		t.Errorf("HTTPTimeout = %s, want 2s: flags beat env", cfg.HTTPTimeout)
	}
	if cfg.MaxBodySize != 2048 {
		t.Errorf("MaxBodySize = %d, want 2048", cfg.MaxBodySize)
	}
	if cfg.TechDetect {
		t.Error("TechDetect = true, want false from env")
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestNewViper_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspector.yaml")
	content := "probe:\n  user_agent: file-agent\n  geo: false\nserver:\n  rate_window: 30s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer cfg.Close()

	if cfg.UserAgent != "file-agent" {
		t.Errorf("UserAgent = %q, want file-agent", cfg.UserAgent)
	}
	if cfg.GeoLookup {
		t.Error("GeoLookup = true, want false")
	}
	if cfg.RateWindow != 30*time.Second {
		t.Errorf("RateWindow = %s, want 30s", cfg.RateWindow)
	}
}

func TestNewViper_MissingFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"debug and silent", func(c *Config) { c.Debug, c.Silent = true, true }, "mutually exclusive"},
		{"zero body size", func(c *Config) { c.MaxBodySize = 0 }, "max body size"},
		{"negative tls timeout", func(c *Config) { c.TLSTimeout = -time.Second }, "tls timeout"},
		{"zero rate window", func(c *Config) { c.RateWindow = 0 }, "rate window"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_DebugLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	cfg, err := loadWithFlags(t, "--debug-log", logPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.Logger.Debug("probe detail")
	if err := cfg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read debug log: %v", err)
	}
	if !strings.Contains(string(data), "probe detail") {
		t.Errorf("debug log missing entry:\n%s", data)
	}
}

func TestPrintUsage(t *testing.T) {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	formatter := RegisterServeFlags(fs)
	debug := RegisterGlobalFlags(fs)

	var buf bytes.Buffer
	formatter.PrintUsage(&buf, debug)
	got := buf.String()

	for _, want := range []string{
		"webinspector serve - serve the inspection API",
		"SERVER:",
		"-l, --listen string",
		`(default ":8080")`,
		"--rate-window duration",
		"(default 10s)",
		"TIMEOUTS:",
		"DEBUG:",
		"-d, --debug",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("usage missing %q:\n%s", want, got)
		}
	}
}

func TestBind_UnknownFlag(t *testing.T) {
	fs := pflag.NewFlagSet("x", pflag.ContinueOnError)
	group := &FlagGroup{Name: "X", Flags: []FlagDef{{Long: "nope", Key: "nope"}}}
	if err := Bind(viper.New(), fs, group); err == nil {
		t.Error("Bind() expected error for unregistered flag")
	}
}
