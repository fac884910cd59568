package provider

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func weatherToolFixture() mcptypes.Tool {
	return mcptypes.NewTool("getWeather",
		mcptypes.WithDescription("Retrieve the latest weather information for a city"),
		mcptypes.WithString("city",
			mcptypes.Required(),
			mcptypes.Description("The city to get weather information for"),
		),
	)
}

func TestConvertToolsToOllama(t *testing.T) {
	got := ConvertToolsToOllama([]mcptypes.Tool{weatherToolFixture()})
	if len(got) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(got))
	}

	tool := got[0]
	if tool.Type != "function" {
		t.Errorf("expected type function, got %q", tool.Type)
	}
	if tool.Function.Name != "getWeather" {
		t.Errorf("unexpected name: %q", tool.Function.Name)
	}
	if len(tool.Function.Parameters.Required) != 1 || tool.Function.Parameters.Required[0] != "city" {
		t.Errorf("required list mismatch: %v", tool.Function.Parameters.Required)
	}

	prop, ok := tool.Function.Parameters.Properties["city"]
	if !ok {
		t.Fatal("city property missing")
	}
	if len(prop.Type) != 1 || prop.Type[0] != "string" {
		t.Errorf("unexpected property type: %v", prop.Type)
	}
	if prop.Description != "The city to get weather information for" {
		t.Errorf("unexpected description: %q", prop.Description)
	}
}

func TestConvertToolsToOpenAI(t *testing.T) {
	if got := ConvertToolsToOpenAI(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}

	got := ConvertToolsToOpenAI([]mcptypes.Tool{weatherToolFixture()})
	if len(got) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(got))
	}
	fn := got[0].OfFunction
	if fn == nil {
		t.Fatal("expected function tool")
	}
	if fn.Function.Name != "getWeather" {
		t.Errorf("unexpected name: %q", fn.Function.Name)
	}
	required, _ := fn.Function.Parameters["required"].([]string)
	if len(required) != 1 || required[0] != "city" {
		t.Errorf("required list mismatch: %v", fn.Function.Parameters["required"])
	}
}

func TestConvertToolsToAnthropic(t *testing.T) {
	if got := ConvertToolsToAnthropic(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}

	got := ConvertToolsToAnthropic([]mcptypes.Tool{weatherToolFixture()})
	if len(got) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(got))
	}
	tool := got[0].OfTool
	if tool == nil {
		t.Fatal("expected tool variant")
	}
	if tool.Name != "getWeather" {
		t.Errorf("unexpected name: %q", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "city" {
		t.Errorf("required list mismatch: %v", tool.InputSchema.Required)
	}
}
