// Package chat holds the conversation core: the model session that runs the
// streaming tool-dispatch loop, the turn controller that orchestrates
// persistence and events around it, and the title generator.
package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"kodiak/model"
	"kodiak/tools"
)

// Session owns the transcript history for one conversation and drives the
// provider's streaming loop. Providers emit text deltas; the session
// accumulates them and hands cumulative snapshots to the caller, so every
// snapshot supersedes the previous one and a dropped snapshot loses nothing.
//
// Tool dispatch runs inside the session: when a stream yields tool calls,
// the session executes them, appends the results as tool-role transcript
// messages, and re-sends the request. The number of rounds is bounded by
// maxToolRounds.
type Session struct {
	provider      model.Provider
	registry      *tools.Registry
	logger        *zap.Logger
	systemPrompt  string
	maxToolRounds int

	mu      sync.Mutex
	history []model.TranscriptMessage
}

// NewSession creates a session. registry may be nil when no tools are
// enabled; maxToolRounds values below 1 are clamped to 1.
func NewSession(provider model.Provider, registry *tools.Registry, systemPrompt string, maxToolRounds int, logger *zap.Logger) *Session {
	if maxToolRounds < 1 {
		maxToolRounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		provider:      provider,
		registry:      registry,
		logger:        logger,
		systemPrompt:  systemPrompt,
		maxToolRounds: maxToolRounds,
	}
	s.resetLocked(nil)
	return s
}

// Reset replaces the session history with the given prior transcript. The
// system prompt is re-applied in front of it.
func (s *Session) Reset(prior []model.TranscriptMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(prior)
}

func (s *Session) resetLocked(prior []model.TranscriptMessage) {
	s.history = s.history[:0]
	if s.systemPrompt != "" {
		s.history = append(s.history, model.TranscriptMessage{
			Role:    model.RoleSystem,
			Content: s.systemPrompt,
		})
	}
	s.history = append(s.history, prior...)
}

// History returns a copy of the current transcript.
func (s *Session) History() []model.TranscriptMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TranscriptMessage, len(s.history))
	copy(out, s.history)
	return out
}

// StreamResponse appends the prompt as a user message, streams the response,
// and returns the final text. emit receives cumulative snapshots of the
// response so far; it may be nil. The returned text is always the full
// accumulated response, including text produced before tool rounds; on error
// it holds whatever partial text was streamed, so callers can finalize a
// partial response.
func (s *Session) StreamResponse(ctx context.Context, prompt string, emit func(cumulative string) error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, model.TranscriptMessage{
		Role:    model.RoleUser,
		Content: prompt,
	})

	final, err := s.runLocked(ctx, emit)

	// The response joins the history even when partial, keeping the
	// transcript consistent with what was persisted.
	if final != "" {
		s.history = append(s.history, model.TranscriptMessage{
			Role:    model.RoleAssistant,
			Content: final,
		})
	}

	return final, err
}

// Respond produces a one-shot, non-streaming completion outside the
// conversation history. Used for title generation, welcome suggestions, and
// document analysis prompts.
func (s *Session) Respond(ctx context.Context, prompt string) (string, error) {
	transcript := make([]model.TranscriptMessage, 0, 2)
	if s.systemPrompt != "" {
		transcript = append(transcript, model.TranscriptMessage{
			Role:    model.RoleSystem,
			Content: s.systemPrompt,
		})
	}
	transcript = append(transcript, model.TranscriptMessage{
		Role:    model.RoleUser,
		Content: prompt,
	})

	var b strings.Builder
	err := s.provider.Chat(ctx, transcript, func(chunk string, _ []model.ToolCall) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return strings.TrimSpace(b.String()), nil
}

// runLocked drives the stream/dispatch/re-send loop. Caller holds s.mu.
func (s *Session) runLocked(ctx context.Context, emit func(cumulative string) error) (string, error) {
	var accumulated strings.Builder

	toolDefs := s.toolDefs()

	for round := 0; round < s.maxToolRounds; round++ {
		var pending []model.ToolCall
		var roundText strings.Builder

		// Tool calls are collected before emitting so that a chunk arriving
		// alongside calls in the same invocation never loses them.
		callback := func(chunk string, calls []model.ToolCall) error {
			if len(calls) > 0 {
				pending = append(pending, calls...)
			}
			if chunk != "" {
				accumulated.WriteString(chunk)
				roundText.WriteString(chunk)
				if emit != nil {
					return emit(accumulated.String())
				}
			}
			return nil
		}

		var err error
		if len(toolDefs) > 0 {
			err = s.provider.ChatWithTools(ctx, s.history, toolDefs, callback)
		} else {
			err = s.provider.Chat(ctx, s.history, callback)
		}
		if err != nil {
			return finalizeText(accumulated.String()), err
		}

		if len(pending) == 0 {
			return finalizeText(accumulated.String()), nil
		}

		// Record what the model said before calling tools, then the tool
		// results, so the continuation request sees both.
		if text := strings.TrimSpace(roundText.String()); text != "" {
			s.history = append(s.history, model.TranscriptMessage{
				Role:    model.RoleAssistant,
				Content: text,
			})
		}
		for _, call := range pending {
			result := s.dispatch(ctx, call)
			s.history = append(s.history, model.TranscriptMessage{
				Role:    model.RoleTool,
				Content: result,
			})
		}
	}

	s.logger.Warn("tool round limit reached", zap.Int("max_rounds", s.maxToolRounds))
	return finalizeText(accumulated.String()), nil
}

// dispatch runs one tool call. Errors become text results at this boundary;
// a failing tool never aborts the stream.
func (s *Session) dispatch(ctx context.Context, call model.ToolCall) string {
	if s.registry == nil {
		return fmt.Sprintf("Tool %s is not available.", call.Name)
	}

	s.logger.Debug("dispatching tool call", zap.String("tool", call.Name))

	result, err := s.registry.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", zap.String("tool", call.Name), zap.Error(err))
		return fmt.Sprintf("The %s tool failed: %v", call.Name, err)
	}
	return result
}

func (s *Session) toolDefs() []mcptypes.Tool {
	if s.registry == nil || s.registry.Len() == 0 {
		return nil
	}
	return s.registry.Definitions()
}

// finalizeText strips leaked tool-call markup some models emit as plain text
// instead of structured calls.
func finalizeText(content string) string {
	content = jsonArrayToolCallRegex.ReplaceAllString(content, "")
	content = jsonObjToolCallRegex.ReplaceAllString(content, "")
	content = xmlToolCallRegex.ReplaceAllString(content, "")
	content = qwenXMLToolCallRegex.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

var (
	jsonArrayToolCallRegex = regexp.MustCompile(`\[\s*\{\s*"name"\s*:\s*"[^"]+"\s*,\s*"(?:arguments|param|parameters|input)"\s*:\s*\{[^}]*\}\s*\}\s*\]`)
	jsonObjToolCallRegex   = regexp.MustCompile(`\{\s*"name"\s*:\s*"[^"]+"\s*,\s*"(?:arguments|param|parameters|input)"\s*:\s*\{[^}]*\}\s*\}`)
	xmlToolCallRegex       = regexp.MustCompile(`<(?:tool_call|function_call)>\s*<name>[^<]+</name>\s*<arguments>[^<]*</arguments>\s*</(?:tool_call|function_call)>`)
	qwenXMLToolCallRegex   = regexp.MustCompile(`(?s)<function=[^>]+><parameter=[^>]+>.*?</parameter></function>(?:</tool_call>)?`)
)
