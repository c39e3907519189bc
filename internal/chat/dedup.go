package chat

// Deduplicator suppresses re-delivery of the most recently emitted text.
//
// The cache is a single value shared across every scanned chat, not keyed per
// chat: two different chats emitting the same exact text back to back will
// collide and the second is dropped. Anything longer-lived than one value
// would need a real history store. Never persisted across restarts.
type Deduplicator struct {
	last string
	seen bool
}

// NewDeduplicator returns an empty cache.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Observe reports whether text is new, recording it as the latest seen value
// when it is.
func (d *Deduplicator) Observe(text string) bool {
	if d.seen && d.last == text {
		return false
	}
	d.last = text
	d.seen = true
	return true
}
