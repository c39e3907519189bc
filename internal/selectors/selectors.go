// Package selectors holds all knowledge of the WhatsApp Web markup in one
// replaceable mapping. The selectors here are tuned against the live DOM and
// rot whenever the app ships a redesign, so they can be overridden with a YAML
// file and hot-reloaded without touching the pipeline code.
package selectors

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping is the full selector vocabulary the bot needs.
type Mapping struct {
	// UnreadRow lists locale-equivalent predicates for a chat row carrying an
	// unread badge. They are alternatives, not a chain: a match on any of
	// them marks the row unread.
	UnreadRow []string `yaml:"unread_row"`

	// ChatListReady marks the authenticated UI.
	ChatListReady string `yaml:"chat_list_ready"`

	// QRCode marks the visible login challenge.
	QRCode string `yaml:"qr_code"`

	// ConversationContainers is an ordered fallback chain for the active
	// conversation region.
	ConversationContainers []string `yaml:"conversation_containers"`

	// ScrollRegion is the element whose scrollTop is pushed to the end before
	// reading.
	ScrollRegion string `yaml:"scroll_region"`

	// Bubble matches a single rendered message unit.
	Bubble string `yaml:"bubble"`

	// BubbleReady is the wait predicate for "at least one message rendered".
	BubbleReady string `yaml:"bubble_ready"`

	// OutboundClass is the class-name fragment marking a bubble as sent by us.
	// This containment check is a heuristic the surface layer owns; the rest
	// of the pipeline only sees the resulting boolean.
	OutboundClass string `yaml:"outbound_class"`

	// TextVariants is an ordered chain of per-bubble text node selectors.
	TextVariants []string `yaml:"text_variants"`

	// InputBox is the editable outbound message region.
	InputBox string `yaml:"input_box"`

	// SendButton matches the send control, any locale.
	SendButton string `yaml:"send_button"`
}

// Default returns the built-in mapping, tuned against the WhatsApp Web DOM.
func Default() *Mapping {
	return &Mapping{
		UnreadRow: []string{
			`div[role='row']:has(span[aria-label*='mensaje no leído'])`,
			`div[role='row']:has(span[aria-label*='unread message'])`,
		},
		ChatListReady: `div[id='pane-side']`,
		QRCode:        `canvas[aria-label*='Scan']`,
		ConversationContainers: []string{
			`main#main`,
			`#main`,
			`[role='main']`,
			`main`,
		},
		ScrollRegion:  `div[role='region'][aria-label*='mensaje'], div[role='region'][aria-label*='message'], div.copyable-area`,
		Bubble:        `div.message-in, div.message-out, div[data-testid='msg-container']`,
		BubbleReady:   `div.message-in span.selectable-text, div.message-out span.selectable-text, span[data-lexical-text]`,
		OutboundClass: `message-out`,
		TextVariants: []string{
			`span.selectable-text`,
			`span[data-testid='selectable-text']`,
			`span.copyable-text`,
			`span[data-lexical-text]`,
		},
		InputBox:   `div[contenteditable='true'][data-tab='10']`,
		SendButton: `button[aria-label*='Enviar'], button[aria-label*='Send'], span[data-testid='send']`,
	}
}

// UnreadRowSelector joins the unread predicates into one CSS alternative list.
func (m *Mapping) UnreadRowSelector() string {
	return strings.Join(m.UnreadRow, ", ")
}

// Load reads a YAML override file on top of the defaults. Fields left empty in
// the file keep their built-in values.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read selector mapping: %w", err)
	}

	var override Mapping
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse selector mapping %s: %w", path, err)
	}

	m := Default()
	m.merge(&override)
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("selector mapping %s: %w", path, err)
	}
	return m, nil
}

func (m *Mapping) merge(o *Mapping) {
	if len(o.UnreadRow) > 0 {
		m.UnreadRow = o.UnreadRow
	}
	if o.ChatListReady != "" {
		m.ChatListReady = o.ChatListReady
	}
	if o.QRCode != "" {
		m.QRCode = o.QRCode
	}
	if len(o.ConversationContainers) > 0 {
		m.ConversationContainers = o.ConversationContainers
	}
	if o.ScrollRegion != "" {
		m.ScrollRegion = o.ScrollRegion
	}
	if o.Bubble != "" {
		m.Bubble = o.Bubble
	}
	if o.BubbleReady != "" {
		m.BubbleReady = o.BubbleReady
	}
	if o.OutboundClass != "" {
		m.OutboundClass = o.OutboundClass
	}
	if len(o.TextVariants) > 0 {
		m.TextVariants = o.TextVariants
	}
	if o.InputBox != "" {
		m.InputBox = o.InputBox
	}
	if o.SendButton != "" {
		m.SendButton = o.SendButton
	}
}

func (m *Mapping) validate() error {
	if len(m.UnreadRow) == 0 {
		return fmt.Errorf("unread_row must list at least one predicate")
	}
	if m.ChatListReady == "" || m.InputBox == "" || m.Bubble == "" {
		return fmt.Errorf("chat_list_ready, input_box and bubble are required")
	}
	if len(m.ConversationContainers) == 0 {
		return fmt.Errorf("conversation_containers must list at least one selector")
	}
	if len(m.TextVariants) == 0 {
		return fmt.Errorf("text_variants must list at least one selector")
	}
	return nil
}
