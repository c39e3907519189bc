package chat

import "testing"

func TestDeduplicator_SuppressesRepeat(t *testing.T) {
	d := NewDeduplicator()

	if !d.Observe("hello") {
		t.Fatal("first observation should be new")
	}
	if d.Observe("hello") {
		t.Fatal("identical text in sequence should be suppressed")
	}
	if !d.Observe("world") {
		t.Fatal("different text should be new again")
	}
}

func TestDeduplicator_AllowsReappearanceAfterOtherText(t *testing.T) {
	d := NewDeduplicator()

	d.Observe("a")
	d.Observe("b")
	// The cache only holds the most recent value, so "a" is new again.
	if !d.Observe("a") {
		t.Fatal("text should be new once another text displaced it")
	}
}

func TestDeduplicator_EmptyTextIsObservable(t *testing.T) {
	d := NewDeduplicator()

	if !d.Observe("") {
		t.Fatal("first empty text should be new")
	}
	if d.Observe("") {
		t.Fatal("repeated empty text should be suppressed")
	}
}
