package messaging

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a query-time projection over messages sharing the same
// unordered participant pair and listing. It has no stored lifecycle.
type Conversation struct {
	ID              string
	SenderID        string
	ReceiverID      string
	ListingID       string
	LastMessage     string
	LastMessageTime time.Time
	Archived        bool
	Messages        []*Message
}

// ConversationKey builds the stable identifier for a thread: the two
// participant identifiers in lexicographic order joined with the listing id.
// An absent listing is rendered as "null" so direct threads still group.
func ConversationKey(a, b, listingID string) string {
	if b < a {
		a, b = b, a
	}
	listing := strings.TrimSpace(listingID)
	if listing == "" {
		listing = "null"
	}
	return a + "_" + b + "_" + listing
}

// Key returns the conversation key this message belongs to.
func (m *Message) Key() string {
	return ConversationKey(m.SenderID, m.ReceiverID, m.ListingID)
}

// BuildConversations folds a user's flat message list into conversations.
// Messages inside a group are ordered ascending by creation time and the
// groups are returned newest-activity first.
//
// The Archived flag is read from the most recent row in the group: a
// thread-level archive rewrites every row for that side, so all rows agree
// right after archiving, and any newer inbound message un-hides the thread.
func BuildConversations(userID string, messages []*Message) []Conversation {
	groups := make(map[string][]*Message)
	for _, m := range messages {
		key := m.Key()
		groups[key] = append(groups[key], m)
	}

	conversations := make([]Conversation, 0, len(groups))
	for key, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})
		first := group[0]
		latest := group[len(group)-1]
		conversations = append(conversations, Conversation{
			ID:              key,
			SenderID:        first.SenderID,
			ReceiverID:      first.ReceiverID,
			ListingID:       first.ListingID,
			LastMessage:     latest.Content,
			LastMessageTime: latest.CreatedAt,
			Archived:        latest.ArchivedFor(userID),
			Messages:        group,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageTime.After(conversations[j].LastMessageTime)
	})
	return conversations
}
