package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Geocoder talks to a Nominatim-style JSON endpoint. It is only consulted at
// order placement/display time; callers treat failures as non-critical.
type Geocoder struct {
	baseURL string
	client  *http.Client
}

func NewGeocoder(baseURL string) *Geocoder {
	return &Geocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type geocodeResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Forward resolves free-text into coordinates.
func (g *Geocoder) Forward(ctx context.Context, text string) (float64, float64, error) {
	endpoint := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", g.baseURL, url.QueryEscape(text))

	var results []geocodeResult
	if err := g.get(ctx, endpoint, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no geocode result for %q", text)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// Reverse resolves coordinates into a display address.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?format=json&lat=%f&lon=%f", g.baseURL, lat, lon)

	var result geocodeResult
	if err := g.get(ctx, endpoint, &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("no address for %f,%f", lat, lon)
	}
	return result.DisplayName, nil
}

func (g *Geocoder) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "quickbite-backend")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
