package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainmessaging "clozet/internal/domain/messaging"
	"clozet/internal/infra/storage/memory"
)

// recordingNotifier captures every event for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	created  []domainmessaging.MessageID
	updated  []domainmessaging.MessageID
	read     []domainmessaging.MessageID
	deleted  []domainmessaging.MessageID
	archived []string
}

func (n *recordingNotifier) MessageCreated(ctx context.Context, m *domainmessaging.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, m.ID)
}

func (n *recordingNotifier) MessageUpdated(ctx context.Context, m *domainmessaging.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, m.ID)
}

func (n *recordingNotifier) MessageRead(ctx context.Context, m *domainmessaging.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.read = append(n.read, m.ID)
}

func (n *recordingNotifier) MessageDeleted(ctx context.Context, id domainmessaging.MessageID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
}

func (n *recordingNotifier) ConversationArchived(ctx context.Context, conversationID, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.archived = append(n.archived, conversationID+"|"+userID)
}

// failingRepo rejects every write so the persist-before-broadcast ordering
// can be observed.
type failingRepo struct {
	domainmessaging.Repository
}

var errStorage = errors.New("storage down")

func (failingRepo) Create(ctx context.Context, m *domainmessaging.Message) error {
	return errStorage
}

func newTestService() (*Service, *recordingNotifier) {
	notifier := &recordingNotifier{}
	service := &Service{
		Repo:     memory.NewMessageRepository(),
		Notifier: notifier,
	}
	return service, notifier
}

func send(t *testing.T, s *Service, sender, receiver, listing, content string) *domainmessaging.Message {
	t.Helper()
	message, err := s.CreateMessage(context.Background(), CreateMessageParams{
		SenderID:   sender,
		ReceiverID: receiver,
		ListingID:  listing,
		Content:    content,
	})
	require.NoError(t, err)
	return message
}

func TestCreateMessagePersistsThenNotifies(t *testing.T) {
	service, notifier := newTestService()

	message := send(t, service, "alice", "bob", "42", "is this available?")

	stored, err := service.GetMessage(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, "is this available?", stored.Content)
	assert.Equal(t, []domainmessaging.MessageID{message.ID}, notifier.created)
}

func TestCreateMessageEmptyContentStoresNothing(t *testing.T) {
	service, notifier := newTestService()

	_, err := service.CreateMessage(context.Background(), CreateMessageParams{
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "  ",
	})
	assert.ErrorIs(t, err, domainmessaging.ErrEmptyContent)

	all, err := service.ListMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, notifier.created)
}

func TestCreateMessageNoBroadcastWhenPersistenceFails(t *testing.T) {
	notifier := &recordingNotifier{}
	service := &Service{
		Repo:     failingRepo{memory.NewMessageRepository()},
		Notifier: notifier,
	}

	_, err := service.CreateMessage(context.Background(), CreateMessageParams{
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "hello",
	})
	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, notifier.created)
}

func TestMarkReadOnlyFlipsOnce(t *testing.T) {
	service, notifier := newTestService()
	message := send(t, service, "alice", "bob", "42", "hello")

	first, err := service.MarkRead(context.Background(), message.ID)
	require.NoError(t, err)
	assert.True(t, first.IsRead)

	second, err := service.MarkRead(context.Background(), message.ID)
	require.NoError(t, err)
	assert.True(t, second.IsRead)

	// The read notification fires only on the actual transition.
	assert.Equal(t, []domainmessaging.MessageID{message.ID}, notifier.read)
}

func TestUpdateMessagePartial(t *testing.T) {
	service, _ := newTestService()
	message := send(t, service, "alice", "bob", "42", "hello")

	read := true
	updated, err := service.UpdateMessage(context.Background(), message.ID, UpdateMessageParams{IsRead: &read})
	require.NoError(t, err)
	assert.True(t, updated.IsRead)
	assert.Equal(t, "hello", updated.Content)

	blank := "  "
	_, err = service.UpdateMessage(context.Background(), message.ID, UpdateMessageParams{Content: &blank})
	assert.ErrorIs(t, err, domainmessaging.ErrEmptyContent)
}

func TestDeleteMessage(t *testing.T) {
	service, notifier := newTestService()
	message := send(t, service, "alice", "bob", "42", "hello")

	require.NoError(t, service.DeleteMessage(context.Background(), message.ID))
	assert.Equal(t, []domainmessaging.MessageID{message.ID}, notifier.deleted)

	err := service.DeleteMessage(context.Background(), message.ID)
	assert.ErrorIs(t, err, domainmessaging.ErrNotFound)
}

func TestUserConversationsScenario(t *testing.T) {
	service, _ := newTestService()
	service.Now = stubClock()

	send(t, service, "alice", "bob", "42", "is this available?")
	send(t, service, "bob", "alice", "42", "yes")

	forAlice, err := service.UserConversations(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.Equal(t, "yes", forAlice[0].LastMessage)

	forBob, err := service.UserConversations(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, forAlice[0].ID, forBob[0].ID)
	assert.Equal(t, "yes", forBob[0].LastMessage)
}

func TestUserConversationsRequiresUser(t *testing.T) {
	service, _ := newTestService()
	_, err := service.UserConversations(context.Background(), "  ")
	assert.ErrorIs(t, err, domainmessaging.ErrUserRequired)
}

func TestArchiveConversationIsPerSide(t *testing.T) {
	service, notifier := newTestService()
	service.Now = stubClock()

	send(t, service, "alice", "bob", "42", "is this available?")
	send(t, service, "bob", "alice", "42", "yes")
	conversationID := domainmessaging.ConversationKey("alice", "bob", "42")

	require.NoError(t, service.ArchiveConversation(context.Background(), conversationID, "alice"))
	assert.Equal(t, []string{conversationID + "|alice"}, notifier.archived)

	forAlice, err := service.UserConversations(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.True(t, forAlice[0].Archived)

	forBob, err := service.UserConversations(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.False(t, forBob[0].Archived)
}

func TestArchiveConversationIdempotent(t *testing.T) {
	service, _ := newTestService()
	service.Now = stubClock()

	send(t, service, "alice", "bob", "42", "hello")
	send(t, service, "bob", "alice", "42", "hi")
	conversationID := domainmessaging.ConversationKey("alice", "bob", "42")

	for i := 0; i < 3; i++ {
		require.NoError(t, service.ArchiveConversation(context.Background(), conversationID, "alice"))
	}

	all, err := service.ListMessages(context.Background())
	require.NoError(t, err)
	for _, message := range all {
		assert.True(t, message.ArchivedFor("alice"))
		assert.False(t, message.ArchivedFor("bob"))
	}
}

func TestUnarchiveConversationRestoresThread(t *testing.T) {
	service, _ := newTestService()
	service.Now = stubClock()

	send(t, service, "alice", "bob", "42", "hello")
	conversationID := domainmessaging.ConversationKey("alice", "bob", "42")

	require.NoError(t, service.ArchiveConversation(context.Background(), conversationID, "alice"))
	require.NoError(t, service.UnarchiveConversation(context.Background(), conversationID, "alice"))

	forAlice, err := service.UserConversations(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.False(t, forAlice[0].Archived)
}

func TestArchiveConversationErrors(t *testing.T) {
	service, _ := newTestService()

	err := service.ArchiveConversation(context.Background(), "alice_bob_42", " ")
	assert.ErrorIs(t, err, domainmessaging.ErrUserRequired)

	err = service.ArchiveConversation(context.Background(), "alice_bob_42", "alice")
	assert.ErrorIs(t, err, domainmessaging.ErrConversationMissing)
}

// stubClock hands out strictly increasing timestamps so ordering is stable.
func stubClock() func() time.Time {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	step := 0
	return func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
}
