package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "Oslo" {
			t.Errorf("expected name=Oslo, got %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "1" {
			t.Errorf("expected count=1, got %q", got)
		}
		w.Write([]byte(`{"results":[{"name":"Oslo","latitude":59.91,"longitude":10.75,"country_code":"NO"}]}`))
	}))
	defer server.Close()

	client := &Client{GeocodeURL: server.URL}

	loc, err := client.Geocode(context.Background(), "Oslo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Name != "Oslo" || loc.CountryCode != "NO" {
		t.Errorf("unexpected location: %+v", loc)
	}
	if loc.Latitude != 59.91 || loc.Longitude != 10.75 {
		t.Errorf("unexpected coordinates: %+v", loc)
	}
}

func TestGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := &Client{GeocodeURL: server.URL}

	_, err := client.Geocode(context.Background(), "Nowhereville")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestCurrentConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current":{"temperature_2m":18.4,"relative_humidity_2m":62,"weather_code":3,"wind_speed_10m":12.5}}`))
	}))
	defer server.Close()

	client := &Client{ForecastURL: server.URL}

	current, err := client.CurrentConditions(context.Background(), 59.91, 10.75)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.TemperatureC != 18.4 || current.HumidityPct != 62 || current.WeatherCode != 3 || current.WindSpeedKmh != 12.5 {
		t.Errorf("unexpected conditions: %+v", current)
	}
}

func TestCurrentConditionsMissingBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := &Client{ForecastURL: server.URL}

	if _, err := client.CurrentConditions(context.Background(), 0, 0); err == nil {
		t.Fatal("expected error for missing current block")
	}
}

func TestGetJSONBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &Client{GeocodeURL: server.URL}

	if _, err := client.Geocode(context.Background(), "Oslo"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestCodeDescription(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear"},
		{1, "Mostly clear"},
		{2, "Mostly clear"},
		{3, "Overcast"},
		{45, "Fog"},
		{55, "Drizzle"},
		{57, "Freezing drizzle"},
		{63, "Rain"},
		{67, "Freezing rain"},
		{75, "Snow"},
		{77, "Snow grains"},
		{82, "Rain showers"},
		{86, "Snow showers"},
		{95, "Thunderstorm"},
		{99, "Thunderstorm with hail"},
		{42, "Unspecified"},
		{-1, "Unspecified"},
	}

	for _, tt := range tests {
		if got := CodeDescription(tt.code); got != tt.want {
			t.Errorf("CodeDescription(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
