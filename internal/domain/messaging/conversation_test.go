package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(id, sender, receiver, listing, content string, at time.Time) *Message {
	return &Message{
		ID:         MessageID(id),
		SenderID:   sender,
		ReceiverID: receiver,
		ListingID:  listing,
		Content:    content,
		CreatedAt:  at,
	}
}

func TestConversationKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationKey("alice", "bob", "42"), ConversationKey("bob", "alice", "42"))
	assert.Equal(t, "alice_bob_42", ConversationKey("bob", "alice", "42"))
	assert.Equal(t, "alice_bob_null", ConversationKey("alice", "bob", ""))
	assert.NotEqual(t, ConversationKey("alice", "bob", "42"), ConversationKey("alice", "bob", "43"))
}

func TestBuildConversationsGroupsByPairAndListing(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	messages := []*Message{
		testMessage("m1", "alice", "bob", "42", "is this available?", base),
		testMessage("m2", "bob", "alice", "42", "yes", base.Add(time.Minute)),
		testMessage("m3", "alice", "carol", "42", "and yours?", base.Add(2*time.Minute)),
		testMessage("m4", "alice", "bob", "7", "other listing", base.Add(3*time.Minute)),
	}

	conversations := BuildConversations("alice", messages)
	require.Len(t, conversations, 3)

	// Newest activity first.
	assert.Equal(t, "alice_bob_7", conversations[0].ID)
	assert.Equal(t, "alice_carol_42", conversations[1].ID)
	assert.Equal(t, "alice_bob_42", conversations[2].ID)

	thread := conversations[2]
	assert.Equal(t, "yes", thread.LastMessage)
	assert.Equal(t, base.Add(time.Minute), thread.LastMessageTime)
	require.Len(t, thread.Messages, 2)
	assert.Equal(t, MessageID("m1"), thread.Messages[0].ID)
	assert.Equal(t, MessageID("m2"), thread.Messages[1].ID)
}

func TestBuildConversationsBothSidesSeeSameThread(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	messages := []*Message{
		testMessage("m1", "alice", "bob", "42", "is this available?", base),
		testMessage("m2", "bob", "alice", "42", "yes", base.Add(time.Minute)),
	}

	forAlice := BuildConversations("alice", messages)
	forBob := BuildConversations("bob", messages)
	require.Len(t, forAlice, 1)
	require.Len(t, forBob, 1)
	assert.Equal(t, forAlice[0].ID, forBob[0].ID)
	assert.Equal(t, "yes", forAlice[0].LastMessage)
	assert.Equal(t, "yes", forBob[0].LastMessage)
}

func TestBuildConversationsArchivedIsPerSide(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m1 := testMessage("m1", "alice", "bob", "42", "hello", base)
	m2 := testMessage("m2", "bob", "alice", "42", "hi", base.Add(time.Minute))
	// Alice archived her side of the whole thread.
	m1.ArchivedBySender = true
	m2.ArchivedByReceiver = true
	messages := []*Message{m1, m2}

	forAlice := BuildConversations("alice", messages)
	forBob := BuildConversations("bob", messages)
	require.Len(t, forAlice, 1)
	require.Len(t, forBob, 1)
	assert.True(t, forAlice[0].Archived)
	assert.False(t, forBob[0].Archived)
}

func TestBuildConversationsNewMessageUnhidesThread(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m1 := testMessage("m1", "alice", "bob", "42", "hello", base)
	m1.ArchivedBySender = true
	// Bob replies after alice archived; the fresh row carries no archive
	// flags, and the most recent row governs visibility.
	m2 := testMessage("m2", "bob", "alice", "42", "still there?", base.Add(time.Hour))

	forAlice := BuildConversations("alice", []*Message{m1, m2})
	require.Len(t, forAlice, 1)
	assert.False(t, forAlice[0].Archived)
}

func TestBuildConversationsEmpty(t *testing.T) {
	assert.Empty(t, BuildConversations("alice", nil))
}
