package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clozet/internal/app/policies"
	domainmessaging "clozet/internal/domain/messaging"
)

// Service implements message persistence, conversation aggregation and
// per-side archival. Persistence always happens before any notification;
// notification failures are the notifier's problem, never the caller's.
type Service struct {
	Repo     domainmessaging.Repository
	Notifier policies.MessageNotifier
	Logger   *slog.Logger
	Now      func() time.Time
}

type CreateMessageParams struct {
	SenderID   string
	ReceiverID string
	ListingID  string
	Content    string
}

type UpdateMessageParams struct {
	Content *string
	IsRead  *bool
}

func (s *Service) CreateMessage(ctx context.Context, params CreateMessageParams) (*domainmessaging.Message, error) {
	message, err := domainmessaging.NewMessage(domainmessaging.CreateParams{
		ID:         domainmessaging.MessageID(uuid.NewString()),
		SenderID:   params.SenderID,
		ReceiverID: params.ReceiverID,
		ListingID:  params.ListingID,
		Content:    params.Content,
		Now:        s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, message); err != nil {
		return nil, err
	}
	s.log().Info("message created", "message_id", message.ID, "sender_id", message.SenderID, "receiver_id", message.ReceiverID, "listing_id", message.ListingID)
	if s.Notifier != nil {
		s.Notifier.MessageCreated(ctx, message)
	}
	return message, nil
}

func (s *Service) GetMessage(ctx context.Context, id domainmessaging.MessageID) (*domainmessaging.Message, error) {
	return s.Repo.ByID(ctx, id)
}

func (s *Service) ListMessages(ctx context.Context) ([]*domainmessaging.Message, error) {
	return s.Repo.All(ctx)
}

func (s *Service) UpdateMessage(ctx context.Context, id domainmessaging.MessageID, params UpdateMessageParams) (*domainmessaging.Message, error) {
	message, err := s.Repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Content != nil {
		if strings.TrimSpace(*params.Content) == "" {
			return nil, domainmessaging.ErrEmptyContent
		}
		message.Content = *params.Content
	}
	if params.IsRead != nil {
		message.IsRead = *params.IsRead
	}
	if err := s.Repo.Update(ctx, message); err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.MessageUpdated(ctx, message)
	}
	return message, nil
}

// MarkRead flips the read flag once. Callers treating this as
// fire-and-forget (the websocket channel) discard the return values.
func (s *Service) MarkRead(ctx context.Context, id domainmessaging.MessageID) (*domainmessaging.Message, error) {
	message, err := s.Repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if message.IsRead {
		return message, nil
	}
	message.IsRead = true
	if err := s.Repo.Update(ctx, message); err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.MessageRead(ctx, message)
	}
	return message, nil
}

// DeleteMessage is an administrative hard delete, independent of archival.
func (s *Service) DeleteMessage(ctx context.Context, id domainmessaging.MessageID) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log().Info("message deleted", "message_id", id)
	if s.Notifier != nil {
		s.Notifier.MessageDeleted(ctx, id)
	}
	return nil
}

// UserConversations projects the user's messages into conversation threads,
// newest activity first. Always computed fresh from the store.
func (s *Service) UserConversations(ctx context.Context, userID string) ([]domainmessaging.Conversation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainmessaging.ErrUserRequired
	}
	messages, err := s.Repo.ByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domainmessaging.BuildConversations(userID, messages), nil
}

// ArchiveConversation hides a thread from one side without touching the
// counterpart's flags. Idempotent.
func (s *Service) ArchiveConversation(ctx context.Context, conversationID, userID string) error {
	if err := s.setArchived(ctx, conversationID, userID, true); err != nil {
		return err
	}
	if s.Notifier != nil {
		s.Notifier.ConversationArchived(ctx, conversationID, userID)
	}
	return nil
}

// UnarchiveConversation restores a thread for one side. The flags are
// symmetric, so this is the exact inverse of ArchiveConversation.
func (s *Service) UnarchiveConversation(ctx context.Context, conversationID, userID string) error {
	return s.setArchived(ctx, conversationID, userID, false)
}

func (s *Service) setArchived(ctx context.Context, conversationID, userID string, archived bool) error {
	if strings.TrimSpace(userID) == "" {
		return domainmessaging.ErrUserRequired
	}
	messages, err := s.Repo.ByParticipant(ctx, userID)
	if err != nil {
		return err
	}
	matched := false
	for _, message := range messages {
		if message.Key() != conversationID {
			continue
		}
		matched = true
		if !message.SetArchivedFor(userID, archived) {
			continue
		}
		if err := s.Repo.Update(ctx, message); err != nil {
			return err
		}
	}
	if !matched {
		return domainmessaging.ErrConversationMissing
	}
	s.log().Info("conversation archive updated", "conversation_id", conversationID, "user_id", userID, "archived", archived)
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
