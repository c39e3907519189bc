package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/selectors"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

// Scanner enumerates unread chats and composes the per-cycle collection of
// new inbound messages.
type Scanner struct {
	surf   surface.Surface
	sel    *selectors.Store
	reader *Reader
	dedup  *Deduplicator
	log    *zap.Logger

	unreadProbe time.Duration
	settleDelay time.Duration
	bubbleWait  time.Duration
}

// NewScanner wires the scan cycle together.
func NewScanner(surf surface.Surface, sel *selectors.Store, reader *Reader, dedup *Deduplicator, log *zap.Logger) *Scanner {
	return &Scanner{
		surf:        surf,
		sel:         sel,
		reader:      reader,
		dedup:       dedup,
		log:         log,
		unreadProbe: 2 * time.Second,
		settleDelay: time.Second,
		bubbleWait:  5 * time.Second,
	}
}

// WithTimings overrides the scan wait budgets; tests use near-zero values.
func (s *Scanner) WithTimings(unreadProbe, settleDelay, bubbleWait time.Duration) *Scanner {
	s.unreadProbe = unreadProbe
	s.settleDelay = settleDelay
	s.bubbleWait = bubbleWait
	return s
}

// ListUnreadChats probes once, with a bounded timeout, for chat rows carrying
// an unread badge in any supported locale. A timeout is a normal empty
// result, not an error.
func (s *Scanner) ListUnreadChats(ctx context.Context) ([]surface.Element, error) {
	rows, err := s.surf.Locate(ctx, s.sel.Current().UnreadRowSelector(), s.unreadProbe)
	if err != nil {
		if errors.Is(err, surface.ErrNotFound) {
			s.log.Debug("no unread chats")
			return nil, nil
		}
		return nil, err
	}
	s.log.Info("unread chats found", zap.Int("count", len(rows)))
	return rows, nil
}

// Collect runs one scan cycle: visit every unread chat in discovery order,
// read its last message, deduplicate, then do one extra read of the active
// chat so self-sent messages without an unread badge are still picked up.
//
// Faults are contained at the chat boundary: a failing chat is logged and
// skipped, never aborting the rest of the cycle.
func (s *Scanner) Collect(ctx context.Context) []InboundMessage {
	var out []InboundMessage

	rows, err := s.ListUnreadChats(ctx)
	if err != nil {
		s.log.Warn("unread scan failed", zap.Error(err))
	}

	for i, row := range rows {
		if ctx.Err() != nil {
			return out
		}
		if msg, ok := s.visitChat(ctx, i, len(rows), row); ok {
			out = s.pushIfNew(out, msg)
		}
	}

	// The active chat may hold a message that carries no unread marker at
	// all, e.g. one we sent ourselves from another device.
	if msg, ok := s.reader.ReadLastMessage(ctx); ok {
		out = s.pushIfNew(out, msg)
	}

	return out
}

func (s *Scanner) visitChat(ctx context.Context, idx, total int, row surface.Element) (InboundMessage, bool) {
	log := s.log.With(zap.Int("chat", idx+1), zap.Int("of", total))

	if err := row.Click(ctx); err != nil {
		log.Warn("chat activation failed, skipping", zap.Error(err))
		return InboundMessage{}, false
	}

	// Let the conversation view render before probing it.
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case <-time.After(s.settleDelay):
	}

	// Best effort: a bubble-wait timeout does not abort the chat, the read
	// below still runs against whatever is there.
	if _, err := s.surf.Locate(ctx, s.sel.Current().BubbleReady, s.bubbleWait); err != nil {
		log.Debug("no bubbles detected after wait, attempting read anyway")
	}

	msg, ok := s.reader.ReadLastMessage(ctx)
	if !ok {
		log.Debug("could not read message text, skipping chat")
		return InboundMessage{}, false
	}
	// The row title doubles as the chat name; losing it is not worth a skip.
	if name, err := row.ReadInnerText(ctx); err == nil {
		msg.ChatName = firstLine(name)
	}
	return msg, true
}

// firstLine trims a chat row's inner text down to its title line.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func (s *Scanner) pushIfNew(bucket []InboundMessage, msg InboundMessage) []InboundMessage {
	if !s.dedup.Observe(msg.Text) {
		s.log.Debug("skipping duplicate message")
		return bucket
	}
	return append(bucket, msg)
}
