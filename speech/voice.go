// Package speech implements the hands-free voice loop: listen, send, speak,
// resume listening. Platform speech services are injected behind small
// interfaces; this package only owns the loop.
package speech

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrNoSpeech is returned by a Transcriber when listening timed out without
// capturing speech. The loop treats it as a skip, not a failure.
var ErrNoSpeech = errors.New("no speech detected")

// Transcriber captures one utterance and returns its text.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Speaker reads a response aloud, blocking until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SendFunc submits one user utterance and returns the assistant's final
// response text.
type SendFunc func(ctx context.Context, content string) (string, error)

// HandsFree runs the continuous voice conversation loop.
type HandsFree struct {
	transcriber Transcriber
	speaker     Speaker
	send        SendFunc
	logger      *zap.Logger
}

// NewHandsFree creates a hands-free loop.
func NewHandsFree(transcriber Transcriber, speaker Speaker, send SendFunc, logger *zap.Logger) *HandsFree {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandsFree{
		transcriber: transcriber,
		speaker:     speaker,
		send:        send,
		logger:      logger,
	}
}

// Run listens, sends, and speaks until the context is canceled. Empty
// captures and per-turn failures resume listening; only context
// cancellation or a transcriber failure ends the loop.
func (h *HandsFree) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		utterance, err := h.transcriber.Transcribe(ctx)
		if err != nil {
			if errors.Is(err, ErrNoSpeech) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		utterance = strings.TrimSpace(utterance)
		if utterance == "" {
			continue
		}

		response, err := h.send(ctx, utterance)
		if err != nil {
			h.logger.Warn("voice turn failed", zap.Error(err))
			continue
		}

		if response == "" {
			continue
		}

		if err := h.speaker.Speak(ctx, response); err != nil {
			h.logger.Warn("speech playback failed", zap.Error(err))
		}
	}
}
