package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultUserAgent identifies the inspector to scanned sites
const DefaultUserAgent = "Mozilla/5.0 (compatible; WebSecurityInspector/1.0)"

// EnvPrefix is the prefix for environment overrides, e.g. WEBINSPECTOR_PROBE_TLS_TIMEOUT
const EnvPrefix = "WEBINSPECTOR"

// Config holds the inspector configuration
type Config struct {
	// Probe phases
	TLSTimeout   time.Duration
	HTTPTimeout  time.Duration
	CNAMETimeout time.Duration
	GeoTimeout   time.Duration
	H3Timeout    time.Duration
	MaxBodySize  int64
	UserAgent    string
	VerifyHTTP3  bool
	TechDetect   bool
	GeoLookup    bool

	// Geolocation
	GeoEndpoint string
	GeoDatabase string // optional MaxMind database; replaces the HTTP service when set

	// Server
	Listen     string
	RateWindow time.Duration

	// CLI input/output
	InputFile  string
	OutputFile string
	JSON       bool

	// Logging
	Debug        bool
	Silent       bool
	DebugLogFile string

	Logger          *zap.Logger
	debugFileHandle *os.File
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		TLSTimeout:   10 * time.Second,
		HTTPTimeout:  10 * time.Second,
		CNAMETimeout: 3 * time.Second,
		GeoTimeout:   5 * time.Second,
		H3Timeout:    5 * time.Second,
		MaxBodySize:  100 * 1024,
		UserAgent:    DefaultUserAgent,
		VerifyHTTP3:  false,
		TechDetect:   true,
		GeoLookup:    true,
		GeoEndpoint:  "http://ip-api.com",
		Listen:       ":8080",
		RateWindow:   10 * time.Second,
		Logger:       zap.NewNop(),
	}
}

// NewViper returns a viper instance wired for env overrides and the
// optional YAML config file. An empty path looks for $HOME/.webinspector.yaml.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return v, nil
	}

	v.AddConfigPath("$HOME")
	v.SetConfigName(".webinspector")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load overlays values from v (file, env, bound flags) onto the defaults
// and builds the logger.
func Load(v *viper.Viper) (*Config, error) {
	cfg := New()

	durations := map[string]*time.Duration{
		KeyTLSTimeout:   &cfg.TLSTimeout,
		KeyHTTPTimeout:  &cfg.HTTPTimeout,
		KeyCNAMETimeout: &cfg.CNAMETimeout,
		KeyGeoTimeout:   &cfg.GeoTimeout,
		KeyH3Timeout:    &cfg.H3Timeout,
		KeyRateWindow:   &cfg.RateWindow,
	}
	for key, dst := range durations {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}

	strs := map[string]*string{
		KeyUserAgent:    &cfg.UserAgent,
		KeyGeoEndpoint:  &cfg.GeoEndpoint,
		KeyGeoDatabase:  &cfg.GeoDatabase,
		KeyListen:       &cfg.Listen,
		KeyInputFile:    &cfg.InputFile,
		KeyOutputFile:   &cfg.OutputFile,
		KeyDebugLogFile: &cfg.DebugLogFile,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	bools := map[string]*bool{
		KeyVerifyHTTP3: &cfg.VerifyHTTP3,
		KeyTechDetect:  &cfg.TechDetect,
		KeyGeoLookup:   &cfg.GeoLookup,
		KeyJSON:        &cfg.JSON,
		KeyDebug:       &cfg.Debug,
		KeySilent:      &cfg.Silent,
	}
	for key, dst := range bools {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	if v.IsSet(KeyMaxBodySize) {
		cfg.MaxBodySize = v.GetInt64(KeyMaxBodySize)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.initLogger(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the probe cannot run with
func (c *Config) Validate() error {
	if c.Debug && c.Silent {
		return fmt.Errorf("--debug and --silent are mutually exclusive")
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("max body size must be positive, got %d", c.MaxBodySize)
	}
	for name, d := range map[string]time.Duration{
		"tls timeout":  c.TLSTimeout,
		"http timeout": c.HTTPTimeout,
		"rate window":  c.RateWindow,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

// initLogger builds the structured logger: JSON on stderr, plus an optional
// debug-level file sink.
func (c *Config) initLogger() error {
	level := zapcore.InfoLevel
	if c.Debug {
		level = zapcore.DebugLevel
	}
	if c.Silent {
		level = zapcore.ErrorLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if c.DebugLogFile != "" {
		f, err := os.Create(c.DebugLogFile)
		if err != nil {
			return fmt.Errorf("failed to create debug log file: %w", err)
		}
		c.debugFileHandle = f
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel))
	}

	c.Logger = zap.New(zapcore.NewTee(cores...))
	if c.debugFileHandle != nil {
		c.Logger.Info("debug logging enabled", zap.String("file", c.DebugLogFile))
	}
	return nil
}

// Close flushes the logger and releases the debug log file
func (c *Config) Close() error {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	if c.debugFileHandle != nil {
		return c.debugFileHandle.Close()
	}
	return nil
}

// HasPipedData checks if there is data being piped to stdin
func HasPipedData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
