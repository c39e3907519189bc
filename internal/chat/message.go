// Package chat reads incoming messages from the conversation surface and
// sends replies back into it.
package chat

// InboundMessage is one message lifted off the surface. Immutable once built.
type InboundMessage struct {
	Text     string
	ChatName string
	Sender   string
	FromMe   bool
}
