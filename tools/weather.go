package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"kodiak/weather"
)

// WeatherTool resolves a free-text city to coordinates and reports current
// conditions. Every failure mode comes back as a conversational string: tool
// failures are conversational, not turn-fatal.
type WeatherTool struct {
	client *weather.Client
	cache  *weather.Cache
}

// NewWeatherTool creates the weather tool. cache may be shared with other
// consumers; it is consulted before any network call.
func NewWeatherTool(client *weather.Client, cache *weather.Cache) *WeatherTool {
	return &WeatherTool{client: client, cache: cache}
}

// Definition implements Tool.
func (t *WeatherTool) Definition() mcptypes.Tool {
	return mcptypes.NewTool("getWeather",
		mcptypes.WithDescription("Retrieve the latest weather information for a city"),
		mcptypes.WithString("city",
			mcptypes.Required(),
			mcptypes.Description("The city to get weather information for"),
		),
	)
}

// Call implements Tool.
func (t *WeatherTool) Call(ctx context.Context, args map[string]any) (string, error) {
	city := strings.TrimSpace(stringArg(args, "city"))
	if city == "" {
		return "Please provide a city name.", nil
	}

	if snap, ok := t.cache.Get(city); ok {
		return fmt.Sprintf("Current weather in %s: %d°C • %s",
			snap.City, int(math.Round(snap.TemperatureC)), snap.Condition), nil
	}

	loc, err := t.client.Geocode(ctx, city)
	if err != nil {
		if errors.Is(err, weather.ErrLocationNotFound) {
			return fmt.Sprintf("I couldn't find the location for %s.", city), nil
		}
		return "Weather data unavailable right now.", nil
	}

	current, err := t.client.CurrentConditions(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return "Weather data unavailable right now.", nil
	}

	condition := weather.CodeDescription(current.WeatherCode)
	name := loc.Name
	if loc.CountryCode != "" {
		name = loc.Name + ", " + loc.CountryCode
	}

	t.cache.SetAliases([]string{city, loc.Name}, current.TemperatureC, condition)

	return fmt.Sprintf("Current weather in %s: %d°C • %s (humidity %d%%, wind %d km/h)",
		name,
		int(math.Round(current.TemperatureC)),
		condition,
		int(math.Round(current.HumidityPct)),
		int(math.Round(current.WindSpeedKmh)),
	), nil
}
