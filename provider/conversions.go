package provider

import (
	"encoding/json"

	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"kodiak/model"
)

// toOllamaMessages maps transcript messages onto Ollama api.Message. Both
// types carry role and content; timestamps stay at the app layer.
func toOllamaMessages(messages []model.TranscriptMessage) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// fromOllamaToolCalls converts Ollama tool calls to the provider-agnostic
// form. Nil in, nil out.
func fromOllamaToolCalls(calls []api.ToolCall) []model.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(calls))
	for i, call := range calls {
		result[i] = model.ToolCall{
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

// toOpenAIMessages maps transcript messages onto OpenAI chat params. Tool
// results are sent as user messages; the OpenAI tool role requires a call ID
// the transcript does not carry.
func toOpenAIMessages(messages []model.TranscriptMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, len(messages))

	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openai.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openai.AssistantMessage(msg.Content)
		default:
			result[i] = openai.UserMessage(msg.Content)
		}
	}

	return result
}

// ParseToolArguments parses a JSON arguments string into a map. Unparseable
// input yields an empty map rather than an error; the tool sees no arguments
// and responds accordingly.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return make(map[string]any)
	}
	return args
}
