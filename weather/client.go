// Package weather talks to the Open-Meteo geocoding and forecast APIs and
// maps numeric weather codes onto a small human-readable vocabulary.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"
)

// ErrLocationNotFound is returned when geocoding yields no result for a city.
var ErrLocationNotFound = errors.New("location not found")

// Location is a geocoded place.
type Location struct {
	Name        string
	CountryCode string
	Latitude    float64
	Longitude   float64
}

// Current is the current-conditions snapshot for a coordinate.
type Current struct {
	TemperatureC float64
	HumidityPct  float64
	WeatherCode  int
	WindSpeedKmh float64
}

// Client calls the Open-Meteo endpoints. The zero-value defaults suit
// production; tests point the URLs at an httptest server.
type Client struct {
	HTTPClient  *http.Client
	GeocodeURL  string
	ForecastURL string
}

// NewClient returns a client with production endpoints and a request timeout.
func NewClient() *Client {
	return &Client{
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		GeocodeURL:  defaultGeocodeURL,
		ForecastURL: defaultForecastURL,
	}
}

type geocodeResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CountryCode string  `json:"country_code"`
	} `json:"results"`
}

type forecastResponse struct {
	Current *struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Geocode resolves a free-text city name to a coordinate. Returns
// ErrLocationNotFound when the API has no match.
func (c *Client) Geocode(ctx context.Context, city string) (*Location, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var resp geocodeResponse
	if err := c.getJSON(ctx, c.geocodeURL()+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, ErrLocationNotFound
	}

	r := resp.Results[0]
	return &Location{
		Name:        r.Name,
		CountryCode: r.CountryCode,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
	}, nil
}

// CurrentConditions fetches current weather for a coordinate.
func (c *Client) CurrentConditions(ctx context.Context, latitude, longitude float64) (*Current, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
	q.Set("timezone", "auto")

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL()+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	if resp.Current == nil {
		return nil, fmt.Errorf("forecast response missing current conditions")
	}

	return &Current{
		TemperatureC: resp.Current.Temperature,
		HumidityPct:  resp.Current.Humidity,
		WeatherCode:  resp.Current.WeatherCode,
		WindSpeedKmh: resp.Current.WindSpeed,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) geocodeURL() string {
	if c.GeocodeURL != "" {
		return c.GeocodeURL
	}
	return defaultGeocodeURL
}

func (c *Client) forecastURL() string {
	if c.ForecastURL != "" {
		return c.ForecastURL
	}
	return defaultForecastURL
}

// CodeDescription maps an Open-Meteo weather code to the fixed condition
// vocabulary.
func CodeDescription(code int) string {
	switch code {
	case 0:
		return "Clear"
	case 1, 2:
		return "Mostly clear"
	case 3:
		return "Overcast"
	case 45, 48:
		return "Fog"
	case 51, 53, 55:
		return "Drizzle"
	case 56, 57:
		return "Freezing drizzle"
	case 61, 63, 65:
		return "Rain"
	case 66, 67:
		return "Freezing rain"
	case 71, 73, 75:
		return "Snow"
	case 77:
		return "Snow grains"
	case 80, 81, 82:
		return "Rain showers"
	case 85, 86:
		return "Snow showers"
	case 95:
		return "Thunderstorm"
	case 96, 99:
		return "Thunderstorm with hail"
	default:
		return "Unspecified"
	}
}
