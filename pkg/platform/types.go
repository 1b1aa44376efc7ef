// Package platform defines the raw entities delivered by the NT client core
// and the collaborator interfaces the pipeline consumes. The client core
// itself is an external process; Client speaks to it over a local socket.
package platform

import "encoding/json"

// ChatType marks the scope of a message.
type ChatType int

const (
	ChatTypeFriend ChatType = 1
	ChatTypeGroup  ChatType = 2
)

// RawMessage is an inbound or self-sent message as the client core delivers
// it. RecallTime is zero for messages that have not been recalled. PeerUID
// is the group code for group chats and the peer's opaque uid for direct
// chats.
type RawMessage struct {
	MsgID      string    `json:"msg_id"`
	MsgTime    int64     `json:"msg_time"` // seconds
	ChatType   ChatType  `json:"chat_type"`
	SenderUID  string    `json:"sender_uid"`
	SenderUin  int64     `json:"sender_uin"`
	PeerUID    string    `json:"peer_uid"`
	PeerUin    int64     `json:"peer_uin"`
	RecallTime int64     `json:"recall_time"`
	Elements   []Element `json:"elements,omitempty"`
}

// Element is one content element of a raw message. The pipeline only
// inspects gray-tip metadata; everything else is opaque payload owned by
// the message formatter.
type Element struct {
	Type    string          `json:"type,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	GrayTip *GrayTipElement `json:"gray_tip,omitempty"`
}

// GrayTipElement carries system metadata attached to a message.
type GrayTipElement struct {
	Revoke *RevokeElement `json:"revoke,omitempty"`
}

// RevokeElement names the account that triggered a recall.
type RevokeElement struct {
	OperatorUID string `json:"operator_uid"`
}

// GroupNotifyType enumerates the group notification kinds the core emits.
type GroupNotifyType int

const (
	NotifyJoinRequest     GroupNotifyType = 7
	NotifyAdminSet        GroupNotifyType = 8
	NotifyKickMember      GroupNotifyType = 9
	NotifyMemberExit      GroupNotifyType = 11
	NotifyAdminUnset      GroupNotifyType = 12
	NotifyAdminUnsetOther GroupNotifyType = 13
	NotifyInviteMe        GroupNotifyType = 22
)

// GroupNotify is a group-scoped system notification. Seq is opaque but
// time-correlated: dividing it down recovers the notification's timestamp
// in seconds.
type GroupNotify struct {
	Seq        int64           `json:"seq"`
	Type       GroupNotifyType `json:"type"`
	Group      GroupRef        `json:"group"`
	User1      NotifyUser      `json:"user1"`
	User2      NotifyUser      `json:"user2"`
	Postscript string          `json:"postscript,omitempty"`
}

// GroupRef identifies the group a notification belongs to.
type GroupRef struct {
	GroupCode string `json:"group_code"`
	GroupName string `json:"group_name,omitempty"`
}

// NotifyUser is a subject identity on a notification. Whether it is the
// actor or the target depends on the notification kind.
type NotifyUser struct {
	UID      string `json:"uid"`
	Nickname string `json:"nickname,omitempty"`
}

// FriendRequest is an incoming friend request.
type FriendRequest struct {
	FriendUID string `json:"friend_uid"`
	ReqTime   int64  `json:"req_time"` // seconds
	ExtWords  string `json:"ext_words,omitempty"`
}

// UserInfo is the result of a user detail lookup.
type UserInfo struct {
	UID  string `json:"uid"`
	Uin  int64  `json:"uin"`
	Nick string `json:"nick,omitempty"`
}

// GroupMember is a membership-scoped identity record.
type GroupMember struct {
	UID  string `json:"uid"`
	Uin  int64  `json:"uin"`
	Role string `json:"role,omitempty"`
}

// FriendRecord is an entry in the contact list.
type FriendRecord struct {
	UID  string `json:"uid"`
	Uin  int64  `json:"uin"`
	Nick string `json:"nick,omitempty"`
}

// StoredMessage is a message record previously indexed by the message
// store. ShortID is the stable numeric identifier consumers see.
type StoredMessage struct {
	ShortID   int32    `json:"short_id"`
	LongID    string   `json:"long_id"`
	ChatType  ChatType `json:"chat_type"`
	PeerUin   int64    `json:"peer_uin"`
	SenderUin int64    `json:"sender_uin"`
	MsgTime   int64    `json:"msg_time"`
}
