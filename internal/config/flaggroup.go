package config

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys shared by flags, env vars and the config file
const (
	KeyTLSTimeout   = "probe.tls_timeout"
	KeyHTTPTimeout  = "probe.http_timeout"
	KeyCNAMETimeout = "probe.cname_timeout"
	KeyGeoTimeout   = "probe.geo_timeout"
	KeyH3Timeout    = "probe.h3_timeout"
	KeyMaxBodySize  = "probe.max_body_size"
	KeyUserAgent    = "probe.user_agent"
	KeyVerifyHTTP3  = "probe.verify_http3"
	KeyTechDetect   = "probe.tech_detect"
	KeyGeoLookup    = "probe.geo"
	KeyGeoEndpoint  = "geo.endpoint"
	KeyGeoDatabase  = "geo.database"
	KeyListen       = "server.listen"
	KeyRateWindow   = "server.rate_window"
	KeyInputFile    = "input"
	KeyOutputFile   = "output"
	KeyJSON         = "json"
	KeyDebug        = "debug"
	KeySilent       = "silent"
	KeyDebugLogFile = "debug_log"
)

// FlagType represents the type of a flag value
type FlagType int

const (
	BoolType FlagType = iota
	StringType
	Int64Type
	DurationType
)

// FlagDef holds metadata for a single flag: names, config key, type, default, description
type FlagDef struct {
	Short       string
	Long        string
	Key         string
	Type        FlagType
	Default     interface{}
	Description string
}

// FlagGroup is a named category containing related flags
type FlagGroup struct {
	Name  string
	Flags []FlagDef
}

// HelpFormatter holds the tool info and ordered flag groups for custom help rendering
type HelpFormatter struct {
	ToolName    string
	Description string
	Usage       string
	Groups      []*FlagGroup
}

func (g *FlagGroup) add(def FlagDef) {
	g.Flags = append(g.Flags, def)
}

func addBoolFlag(fs *pflag.FlagSet, group *FlagGroup, key, short, long string, value bool, usage string) {
	fs.BoolP(long, short, value, usage)
	group.add(FlagDef{Short: short, Long: long, Key: key, Type: BoolType, Default: value, Description: usage})
}

func addStringFlag(fs *pflag.FlagSet, group *FlagGroup, key, short, long string, value string, usage string) {
	fs.StringP(long, short, value, usage)
	group.add(FlagDef{Short: short, Long: long, Key: key, Type: StringType, Default: value, Description: usage})
}

func addInt64Flag(fs *pflag.FlagSet, group *FlagGroup, key, short, long string, value int64, usage string) {
	fs.Int64P(long, short, value, usage)
	group.add(FlagDef{Short: short, Long: long, Key: key, Type: Int64Type, Default: value, Description: usage})
}

func addDurationFlag(fs *pflag.FlagSet, group *FlagGroup, key, short, long string, value time.Duration, usage string) {
	fs.DurationP(long, short, value, usage)
	group.add(FlagDef{Short: short, Long: long, Key: key, Type: DurationType, Default: value, Description: usage})
}

// probeGroups registers the flags every inspection honours
func probeGroups(fs *pflag.FlagSet, d *Config) []*FlagGroup {
	probes := &FlagGroup{Name: "PROBES"}
	addStringFlag(fs, probes, KeyUserAgent, "", "user-agent", d.UserAgent, "User-Agent sent with the HTTP request")
	addInt64Flag(fs, probes, KeyMaxBodySize, "", "max-body-size", d.MaxBodySize, "Bytes of body buffered for metadata extraction")
	addBoolFlag(fs, probes, KeyVerifyHTTP3, "", "verify-http3", d.VerifyHTTP3, "Confirm advertised HTTP/3 with a QUIC handshake")
	addBoolFlag(fs, probes, KeyTechDetect, "", "tech-detect", d.TechDetect, "Fingerprint technologies with wappalyzer")
	addBoolFlag(fs, probes, KeyGeoLookup, "", "geo", d.GeoLookup, "Look up geolocation of the remote IP")
	addStringFlag(fs, probes, KeyGeoEndpoint, "", "geo-endpoint", d.GeoEndpoint, "Base URL of the ip-api compatible geolocation service")
	addStringFlag(fs, probes, KeyGeoDatabase, "", "geo-db", d.GeoDatabase, "MaxMind database used instead of the geolocation service")

	timeouts := &FlagGroup{Name: "TIMEOUTS"}
	addDurationFlag(fs, timeouts, KeyTLSTimeout, "", "tls-timeout", d.TLSTimeout, "TLS handshake deadline")
	addDurationFlag(fs, timeouts, KeyHTTPTimeout, "t", "http-timeout", d.HTTPTimeout, "HTTP request deadline, body included")
	addDurationFlag(fs, timeouts, KeyCNAMETimeout, "", "cname-timeout", d.CNAMETimeout, "CNAME lookup deadline")
	addDurationFlag(fs, timeouts, KeyGeoTimeout, "", "geo-timeout", d.GeoTimeout, "Geolocation lookup deadline")
	addDurationFlag(fs, timeouts, KeyH3Timeout, "", "h3-timeout", d.H3Timeout, "QUIC handshake deadline for --verify-http3")

	return []*FlagGroup{probes, timeouts}
}

// RegisterScanFlags registers the scan command's flags on fs and returns
// the grouped help formatter.
func RegisterScanFlags(fs *pflag.FlagSet) *HelpFormatter {
	d := New()
	formatter := &HelpFormatter{
		ToolName:    "webinspector scan",
		Description: "inspect DNS, TLS, HTTP protocol support and page metadata of URLs",
		Usage:       "webinspector scan [flags] <url>...",
	}

	input := &FlagGroup{Name: "INPUT"}
	addStringFlag(fs, input, KeyInputFile, "i", "input", "", "File with one URL per line (default: arguments, then stdin)")
	formatter.Groups = append(formatter.Groups, input)

	output := &FlagGroup{Name: "OUTPUT"}
	addStringFlag(fs, output, KeyOutputFile, "o", "output", "", "Output file (default: stdout)")
	addBoolFlag(fs, output, KeyJSON, "j", "json", false, "Print JSON lines even on a terminal")
	formatter.Groups = append(formatter.Groups, output)

	formatter.Groups = append(formatter.Groups, probeGroups(fs, d)...)
	return formatter
}

// RegisterServeFlags registers the serve command's flags on fs
func RegisterServeFlags(fs *pflag.FlagSet) *HelpFormatter {
	d := New()
	formatter := &HelpFormatter{
		ToolName:    "webinspector serve",
		Description: "serve the inspection API",
		Usage:       "webinspector serve [flags]",
	}

	server := &FlagGroup{Name: "SERVER"}
	addStringFlag(fs, server, KeyListen, "l", "listen", d.Listen, "Listen address")
	addDurationFlag(fs, server, KeyRateWindow, "", "rate-window", d.RateWindow, "Minimum interval between scans from one client")
	formatter.Groups = append(formatter.Groups, server)

	formatter.Groups = append(formatter.Groups, probeGroups(fs, d)...)
	return formatter
}

// RegisterGlobalFlags registers the persistent DEBUG flags
func RegisterGlobalFlags(fs *pflag.FlagSet) *FlagGroup {
	debug := &FlagGroup{Name: "DEBUG"}
	addBoolFlag(fs, debug, KeyDebug, "d", "debug", false, "Debug logging")
	addBoolFlag(fs, debug, KeySilent, "", "silent", false, "Only log errors")
	addStringFlag(fs, debug, KeyDebugLogFile, "", "debug-log", "", "Write detailed debug logs to file")
	return debug
}

// Bind maps every flag of the groups to its config key in v
func Bind(v *viper.Viper, fs *pflag.FlagSet, groups ...*FlagGroup) error {
	for _, group := range groups {
		for _, f := range group.Flags {
			flag := fs.Lookup(f.Long)
			if flag == nil {
				return fmt.Errorf("flag --%s not registered", f.Long)
			}
			if err := v.BindPFlag(f.Key, flag); err != nil {
				return fmt.Errorf("bind --%s: %w", f.Long, err)
			}
		}
	}
	return nil
}

// PrintUsage writes the grouped help output to w
func (h *HelpFormatter) PrintUsage(w io.Writer, extra ...*FlagGroup) {
	fmt.Fprintf(w, "%s - %s\n\n", h.ToolName, h.Description)
	fmt.Fprintf(w, "Usage:\n  %s\n\nFlags:\n", h.Usage)

	groups := append(append([]*FlagGroup{}, h.Groups...), extra...)
	for _, group := range groups {
		fmt.Fprintf(w, "\n%s:\n", group.Name)

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, f := range group.Flags {
			desc := f.Description
			if def := formatFlagDefault(f); def != "" {
				desc += " " + def
			}
			fmt.Fprintf(tw, "   %s%s\t%s\n", formatFlagName(f), formatFlagType(f), desc)
		}
		tw.Flush()
	}
}

// formatFlagName builds the "-s, --long" or "    --long" name string
func formatFlagName(f FlagDef) string {
	if f.Short != "" {
		return fmt.Sprintf("-%s, --%s", f.Short, f.Long)
	}
	return fmt.Sprintf("    --%s", f.Long)
}

// formatFlagType returns the type suffix for non-bool flags
func formatFlagType(f FlagDef) string {
	switch f.Type {
	case StringType:
		return " string"
	case Int64Type:
		return " int"
	case DurationType:
		return " duration"
	default:
		return ""
	}
}

// formatFlagDefault returns a parenthesized default value string for non-zero defaults
func formatFlagDefault(f FlagDef) string {
	switch f.Type {
	case BoolType:
		if v, ok := f.Default.(bool); ok && v {
			return "(default true)"
		}
	case Int64Type:
		if v, ok := f.Default.(int64); ok && v != 0 {
			return fmt.Sprintf("(default %d)", v)
		}
	case DurationType:
		if v, ok := f.Default.(time.Duration); ok && v != 0 {
			return fmt.Sprintf("(default %s)", v)
		}
	case StringType:
		if v, ok := f.Default.(string); ok && v != "" {
			return fmt.Sprintf("(default %q)", v)
		}
	}
	return ""
}
