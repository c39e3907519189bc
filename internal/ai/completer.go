// Package ai wraps the completion backend behind a prompt-to-text contract and
// maps its failures onto user-visible replies.
package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Completer is the external AI collaborator: an opaque prompt→text service
// that is expected to be able to fail.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Replies substituted for backend failures. Backend errors never escape to
// the poll loop; they degrade to one of these strings.
const (
	replyNotConfigured = "Error: AI client not configured (missing API key)."
	replyRateLimited   = "Lo siento, he alcanzado mi límite de mensajes por ahora. Por favor, inténtalo de nuevo en unos segundos."
	replyEmpty         = "No response from AI."
)

// Answer resolves a free-form query into a reply. A nil completer yields the
// fixed configuration-error string; rate-limit failures get their own apology
// while anything else becomes a generic error reply.
func Answer(ctx context.Context, c Completer, query string, log *zap.Logger) string {
	if c == nil {
		return replyNotConfigured
	}

	log.Info("querying AI backend", zap.Int("prompt_length", len(query)))
	text, err := c.Complete(ctx, query)
	if err != nil {
		if rateLimited(err) {
			log.Error("AI quota exceeded", zap.Error(err))
			return replyRateLimited
		}
		log.Error("AI completion failed", zap.Error(err))
		return "Sorry, I encountered an error processing that: " + err.Error()
	}
	if strings.TrimSpace(text) == "" {
		return replyEmpty
	}
	return text
}

// rateLimited inspects the failure text for a rate-limit indicator. The
// backend does not type its errors, so string matching is all there is.
func rateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
