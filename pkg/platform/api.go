package platform

import (
	"context"

	"github.com/tinyland-inc/obridge/pkg/event"
)

// UserAPI resolves identities through the client core. Both lookups may
// fail; callers decide per call site whether a failure drops the event or
// degrades to a zero identifier.
type UserAPI interface {
	// GetUserInfo resolves an opaque uid to the user's detail record.
	GetUserInfo(ctx context.Context, uid string) (*UserInfo, error)
	// GetGroupMember resolves a uid within a group. Returns (nil, nil)
	// when the account is not a member.
	GetGroupMember(ctx context.Context, groupCode, uid string) (*GroupMember, error)
}

// ContactAPI looks up the local contact list.
type ContactAPI interface {
	// GetFriend returns (nil, nil) when the uid is not a contact.
	GetFriend(ctx context.Context, uid string) (*FriendRecord, error)
}

// MessageStore assigns and resolves stable short numeric identifiers for
// long-form platform message IDs.
type MessageStore interface {
	// AssignShortID indexes a message and returns its short id. Indexing
	// the same long id twice returns the same short id.
	AssignShortID(ctx context.Context, msg *RawMessage) (int32, error)
	// LookupByLongID returns (nil, nil) when the message was never indexed.
	LookupByLongID(ctx context.Context, longID string) (*StoredMessage, error)
}

// MessageFormatter converts raw messages into outbound events. The heavy
// per-element conversion lives in the client core sidecar, not here.
type MessageFormatter interface {
	// Message builds the message event for a raw message. A (nil, nil)
	// return means the message produced no reportable event.
	Message(ctx context.Context, msg *RawMessage, shortID int32) (*event.Message, error)
	// FriendAdd probes a raw message for a new-friendship gray tip and
	// returns the corresponding notice, or (nil, nil).
	FriendAdd(ctx context.Context, msg *RawMessage) (*event.FriendAddNotice, error)
	// GroupEvent probes a raw message for an embedded group notice
	// (member increase, ban, poke) and returns it, or (nil, nil).
	GroupEvent(ctx context.Context, msg *RawMessage) (*event.GroupNotice, error)
}

// Listener receives the client core's batched notification channels.
// Implementations must not assume any ordering across batch elements.
type Listener interface {
	HandleMessages(ctx context.Context, msgs []*RawMessage)
	HandleSelfSentMessage(ctx context.Context, msg *RawMessage)
	HandleMessageUpdates(ctx context.Context, msgs []*RawMessage)
	HandleGroupNotifies(ctx context.Context, notifies []*GroupNotify)
	HandleFriendRequests(ctx context.Context, reqs []*FriendRequest)
}
