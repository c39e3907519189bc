package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/selectors"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

// Reader extracts the most recent message from the active conversation.
type Reader struct {
	surf surface.Surface
	sel  *selectors.Store
	log  *zap.Logger

	containerProbe time.Duration
	bubbleProbe    time.Duration
	textProbe      time.Duration
}

// NewReader creates a Reader with short per-probe budgets; the whole read is
// best-effort and must stay cheap within a poll cycle.
func NewReader(surf surface.Surface, sel *selectors.Store, log *zap.Logger) *Reader {
	return &Reader{
		surf:           surf,
		sel:            sel,
		log:            log,
		containerProbe: 500 * time.Millisecond,
		bubbleProbe:    time.Second,
		textProbe:      250 * time.Millisecond,
	}
}

// ReadLastMessage returns the last message of the active conversation, or
// ok=false when nothing readable is there. Any internal fault degrades to
// ok=false; it never propagates.
//
// "Last" means the bubble at the highest index: DOM order is assumed to be
// chronological, which holds for the current markup but is an assumption, not
// a guarantee.
func (r *Reader) ReadLastMessage(ctx context.Context) (InboundMessage, bool) {
	m := r.sel.Current()

	container, ok := r.resolveContainer(ctx, m)
	if !ok {
		return InboundMessage{}, false
	}

	// Nudge the list to its end so the newest bubble is rendered.
	r.scrollToEnd(ctx, m)

	bubbles, err := container.Locate(ctx, m.Bubble, r.bubbleProbe)
	if err != nil || len(bubbles) == 0 {
		r.log.Debug("no message bubbles in conversation")
		return InboundMessage{}, false
	}
	last := bubbles[len(bubbles)-1]

	class, err := last.ReadAttribute(ctx, "class")
	if err != nil {
		r.log.Debug("bubble class read failed", zap.Error(err))
		return InboundMessage{}, false
	}
	fromMe := strings.Contains(class, m.OutboundClass)

	text, ok := r.extractText(ctx, last, m)
	if !ok {
		return InboundMessage{}, false
	}

	return InboundMessage{
		Text:   text,
		Sender: r.extractSender(ctx, last),
		FromMe: fromMe,
	}, true
}

// extractSender pulls the sender name out of the bubble's pre-plain-text
// attribute, which renders as "[12:34, 1/2/2026] Name: ". Best effort; an
// empty result just means the markup did not expose it.
func (r *Reader) extractSender(ctx context.Context, bubble surface.Element) string {
	raw, err := bubble.ReadAttribute(ctx, "data-pre-plain-text")
	if err != nil || raw == "" {
		return ""
	}
	if i := strings.Index(raw, "] "); i >= 0 {
		raw = raw[i+2:]
	}
	return strings.TrimSuffix(strings.TrimSpace(raw), ":")
}

// resolveContainer walks the ordered fallback chain of conversation region
// selectors and returns the first that resolves.
func (r *Reader) resolveContainer(ctx context.Context, m *selectors.Mapping) (surface.Element, bool) {
	for _, sel := range m.ConversationContainers {
		els, err := r.surf.Locate(ctx, sel, r.containerProbe)
		if err == nil && len(els) > 0 {
			return els[0], true
		}
	}
	r.log.Debug("conversation container not found")
	return nil, false
}

func (r *Reader) scrollToEnd(ctx context.Context, m *selectors.Mapping) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (el) { el.scrollTop = el.scrollHeight; }
	})()`, m.ScrollRegion)
	if err := r.surf.EvaluateScript(ctx, js); err != nil {
		r.log.Debug("scroll to end failed", zap.Error(err))
	}
}

// extractText tries each text-node selector variant in order and returns the
// first candidate longer than one character. Single-character hits are almost
// always bare timestamp glyphs, so they are rejected.
func (r *Reader) extractText(ctx context.Context, bubble surface.Element, m *selectors.Mapping) (string, bool) {
	for _, variant := range m.TextVariants {
		els, err := bubble.Locate(ctx, variant, r.textProbe)
		if err != nil || len(els) == 0 {
			continue
		}
		text, err := els[0].ReadInnerText(ctx)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if len([]rune(text)) > 1 {
			return text, true
		}
	}
	r.log.Debug("no readable text in last bubble")
	return "", false
}
