package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/selectors"
	"github.com/Krlos02E/whatsapp-web-poc-bot/internal/surface"
)

func newTestScanner(fake *surface.Fake, store *selectors.Store) *Scanner {
	log := zap.NewNop()
	reader := NewReader(fake, store, log)
	return NewScanner(fake, store, reader, NewDeduplicator(), log).WithTimings(0, 0, 0)
}

// stepConversation scripts one ReadLastMessage outcome: the container resolves
// to a view whose last bubble carries the given text.
func stepConversation(fake *surface.Fake, m *selectors.Mapping, text string) {
	container := surface.NewFakeElement("").WithChildren(m.Bubble, bubble(m, text, "message-in"))
	fake.Step(m.ConversationContainers[0], container)
}

func TestListUnreadChats_TimeoutIsEmptyNotError(t *testing.T) {
	store := testStore(t)
	fake := surface.NewFake()

	s := newTestScanner(fake, store)
	rows, err := s.ListUnreadChats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCollect_VisitsUnreadChatsInOrder(t *testing.T) {
	store := testStore(t)
	m := store.Current()
	fake := surface.NewFake()

	row1 := surface.NewFakeElement("chat one")
	row2 := surface.NewFakeElement("chat two")
	fake.Set(m.UnreadRowSelector(), row1, row2)

	stepConversation(fake, m, "first message")  // read after visiting row1
	stepConversation(fake, m, "second message") // read after visiting row2
	stepConversation(fake, m, "second message") // trailing active-chat read

	s := newTestScanner(fake, store)
	msgs := s.Collect(context.Background())

	require.Len(t, msgs, 2)
	assert.Equal(t, "first message", msgs[0].Text)
	assert.Equal(t, "chat one", msgs[0].ChatName)
	assert.Equal(t, "second message", msgs[1].Text)
	assert.Equal(t, "chat two", msgs[1].ChatName)
	assert.Equal(t, 1, row1.Clicks)
	assert.Equal(t, 1, row2.Clicks)
}

func TestCollect_DeduplicatesAcrossChats(t *testing.T) {
	store := testStore(t)
	m := store.Current()
	fake := surface.NewFake()

	fake.Set(m.UnreadRowSelector(), surface.NewFakeElement(""), surface.NewFakeElement(""))

	// Both chats and the trailing read all surface the same text.
	stepConversation(fake, m, "same text")
	stepConversation(fake, m, "same text")
	stepConversation(fake, m, "same text")

	s := newTestScanner(fake, store)
	msgs := s.Collect(context.Background())
	require.Len(t, msgs, 1)
}

func TestCollect_NoUnreadStillReadsActiveChat(t *testing.T) {
	store := testStore(t)
	m := store.Current()
	fake := surface.NewFake()

	// No unread rows at all, but the focused chat holds a self-sent command.
	stepConversation(fake, m, "/bot -ping")

	s := newTestScanner(fake, store)
	msgs := s.Collect(context.Background())
	require.Len(t, msgs, 1)
	assert.Equal(t, "/bot -ping", msgs[0].Text)
}

func TestCollect_UnreadableChatIsSkippedNotFatal(t *testing.T) {
	store := testStore(t)
	m := store.Current()
	fake := surface.NewFake()

	fake.Set(m.UnreadRowSelector(), surface.NewFakeElement(""), surface.NewFakeElement(""))

	// First chat's view never renders a readable message; second one does.
	fake.Step(m.ConversationContainers[0]) // timeout
	stepConversation(fake, m, "still works")
	stepConversation(fake, m, "still works") // trailing read, deduplicated

	s := newTestScanner(fake, store)
	msgs := s.Collect(context.Background())
	require.Len(t, msgs, 1)
	assert.Equal(t, "still works", msgs[0].Text)
}

func TestCollect_RepeatCyclesStaySilent(t *testing.T) {
	store := testStore(t)
	m := store.Current()
	fake := surface.NewFake()

	container := surface.NewFakeElement("").WithChildren(m.Bubble, bubble(m, "hello", "message-in"))
	fake.Set(m.ConversationContainers[0], container)

	s := newTestScanner(fake, store)
	require.Len(t, s.Collect(context.Background()), 1)
	// Nothing new arrived, so later cycles emit nothing.
	assert.Empty(t, s.Collect(context.Background()))
	assert.Empty(t, s.Collect(context.Background()))
}
