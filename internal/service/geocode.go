package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// GeocodeService reverse-geocodes caller-supplied GPS coordinates into a
// street address that enriches the extraction prompt. It is strictly
// best-effort: any failure degrades to "no address" and never fails a scan.
type GeocodeService struct {
	client   *resty.Client
	endpoint string
	enabled  bool
}

// GeocodeConfig holds configuration for the geocode service.
type GeocodeConfig struct {
	Enabled   bool
	BaseURL   string
	UserAgent string
}

// NewGeocodeService creates a reverse geocoder against a Nominatim-compatible
// endpoint. A nil or disabled config yields a no-op service.
func NewGeocodeService(cfg *GeocodeConfig) *GeocodeService {
	if cfg == nil || !cfg.Enabled {
		return &GeocodeService{enabled: false}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "labelscan/1.0"
	}

	client := resty.New()
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(5 * time.Second)

	return &GeocodeService{
		client:   client,
		endpoint: baseURL + "/reverse",
		enabled:  true,
	}
}

// IsEnabled reports whether reverse geocoding is active.
func (s *GeocodeService) IsEnabled() bool {
	return s.enabled
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}

// Reverse resolves coordinates to a display address. Returns an empty string
// when geocoding is disabled or the lookup fails for any reason.
func (s *GeocodeService) Reverse(ctx context.Context, latitude, longitude float64) (string, error) {
	if !s.enabled {
		return "", nil
	}

	var resp nominatimResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "jsonv2",
			"lat":    strconv.FormatFloat(latitude, 'f', -1, 64),
			"lon":    strconv.FormatFloat(longitude, 'f', -1, 64),
		}).
		SetResult(&resp).
		Get(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return "", fmt.Errorf("reverse geocoding returned HTTP %d", httpResp.StatusCode())
	}
	if resp.Error != "" {
		return "", fmt.Errorf("reverse geocoding error: %s", resp.Error)
	}

	return resp.DisplayName, nil
}
