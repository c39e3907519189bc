package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/selectors"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

// Sender types and submits outbound replies into the currently open chat.
type Sender struct {
	surf     surface.Surface
	sel      *selectors.Store
	log      *zap.Logger
	simulate bool

	inputWait  time.Duration
	buttonWait time.Duration
}

// NewSender creates a Sender. With simulate set it logs intent instead of
// touching the surface.
func NewSender(surf surface.Surface, sel *selectors.Store, simulate bool, log *zap.Logger) *Sender {
	return &Sender{
		surf:       surf,
		sel:        sel,
		log:        log,
		simulate:   simulate,
		inputWait:  5 * time.Second,
		buttonWait: 2 * time.Second,
	}
}

// SendMessage submits text into the open conversation. It reports whether a
// submission was actually attempted; unavailability of the input or a dry run
// comes back as false, never as an error.
func (s *Sender) SendMessage(ctx context.Context, text string) bool {
	if s.simulate {
		s.log.Info("[simulation] would send", zap.String("text", text))
		return false
	}

	m := s.sel.Current()
	inputs, err := s.surf.Locate(ctx, m.InputBox, s.inputWait)
	if err != nil || len(inputs) == 0 {
		s.log.Warn("message input not found")
		return false
	}
	input := inputs[0]

	if err := input.Type(ctx, text); err != nil {
		s.log.Warn("typing reply failed", zap.Error(err))
		return false
	}

	// Prefer the send control; fall back to Enter when the markup hides it.
	buttons, err := s.surf.Locate(ctx, m.SendButton, s.buttonWait)
	if err == nil && len(buttons) > 0 {
		if err := buttons[0].Click(ctx); err != nil {
			s.log.Warn("send button click failed", zap.Error(err))
			return false
		}
	} else {
		s.log.Debug("send button not found, using Enter key")
		if err := input.PressEnter(ctx); err != nil {
			s.log.Warn("enter submit failed", zap.Error(err))
			return false
		}
	}

	s.log.Info("message sent", zap.Int("length", len(text)))
	return true
}
