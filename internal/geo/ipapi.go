package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"webInspector/internal/output"
)

// DefaultEndpoint is the public ip-api.com service
const DefaultEndpoint = "http://ip-api.com"

// locateFields limits the ip-api response to what the report carries
const locateFields = "status,country,regionName,city,isp"

// maxResponseSize bounds how much of an ip-api response is decoded
const maxResponseSize = 64 * 1024

// IPAPI queries an ip-api.com compatible service
type IPAPI struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *zap.Logger
}

// NewIPAPI creates a client for the service at baseURL
func NewIPAPI(baseURL string, timeout time.Duration, userAgent string, logger *zap.Logger) *IPAPI {
	if baseURL == "" {
		baseURL = DefaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IPAPI{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		Timeout:   timeout,
		UserAgent: userAgent,
		Client:    &http.Client{},
		Logger:    logger,
	}
}

type locateResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
	ISP        string `json:"isp"`
}

// Locate looks up ip. Any failure, including a "fail" status from the
// service, yields an IPInfo carrying only the IP.
func (g *IPAPI) Locate(ctx context.Context, ip string) *output.IPInfo {
	info := &output.IPInfo{IP: ip}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", g.BaseURL, url.PathEscape(ip), locateFields)
	var resp locateResponse
	if err := g.getJSON(ctx, endpoint, &resp); err != nil {
		g.Logger.Debug("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))
		return info
	}
	if resp.Status != "success" {
		g.Logger.Debug("geolocation lookup rejected",
			zap.String("ip", ip),
			zap.String("status", resp.Status),
			zap.String("message", resp.Message),
		)
		return info
	}

	info.Country = resp.Country
	info.Region = resp.RegionName
	info.City = resp.City
	info.ISP = resp.ISP
	return info
}

// ProbeLocation is the service's view of the machine running the inspector
type ProbeLocation struct {
	Status      string  `json:"status"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty"`
	Region      string  `json:"region,omitempty"`
	RegionName  string  `json:"regionName,omitempty"`
	City        string  `json:"city,omitempty"`
	Zip         string  `json:"zip,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	ISP         string  `json:"isp,omitempty"`
	Org         string  `json:"org,omitempty"`
	AS          string  `json:"as,omitempty"`
	Query       string  `json:"query,omitempty"`
}

// Self reports where the inspector itself is located. Unlike Locate it
// returns errors, since the caller has nothing to fall back on.
func (g *IPAPI) Self(ctx context.Context) (*ProbeLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	var loc ProbeLocation
	if err := g.getJSON(ctx, g.BaseURL+"/json", &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (g *IPAPI) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("IP API responded with %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
