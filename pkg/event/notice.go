package event

// Notice types.
const (
	NoticeGroupAdmin    = "group_admin"
	NoticeGroupDecrease = "group_decrease"
	NoticeGroupRecall   = "group_recall"
	NoticeFriendRecall  = "friend_recall"
	NoticeFriendAdd     = "friend_add"
	NoticeGroupIncrease = "group_increase"
	NoticeGroupBan      = "group_ban"
)

// Admin change sub-types.
const (
	AdminSet   = "set"
	AdminUnset = "unset"
)

// Group decrease sub-types.
const (
	DecreaseLeave = "leave"
	DecreaseKick  = "kick"
)

type noticeBase struct {
	Base

	NoticeType string `json:"notice_type"`
}

func newNoticeBase(noticeType string) noticeBase {
	return noticeBase{Base: newBase(PostTypeNotice), NoticeType: noticeType}
}

func (n *noticeBase) EventName() string { return PostTypeNotice + "." + n.NoticeType }

// GroupAdminNotice reports an administrator being granted or revoked.
type GroupAdminNotice struct {
	noticeBase

	SubType string `json:"sub_type"`
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
}

func NewGroupAdminNotice(groupID, userID int64, subType string) *GroupAdminNotice {
	return &GroupAdminNotice{
		noticeBase: newNoticeBase(NoticeGroupAdmin),
		SubType:    subType,
		GroupID:    groupID,
		UserID:     userID,
	}
}

// GroupDecreaseNotice reports a member leaving or being kicked. OperatorID
// equals UserID for a voluntary leave.
type GroupDecreaseNotice struct {
	noticeBase

	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	OperatorID int64  `json:"operator_id"`
	UserID     int64  `json:"user_id"`
}

func NewGroupDecreaseNotice(groupID, userID, operatorID int64, subType string) *GroupDecreaseNotice {
	return &GroupDecreaseNotice{
		noticeBase: newNoticeBase(NoticeGroupDecrease),
		SubType:    subType,
		GroupID:    groupID,
		OperatorID: operatorID,
		UserID:     userID,
	}
}

// GroupRecallNotice reports a recalled group message. OperatorID is the
// account that triggered the recall, which may differ from the sender.
type GroupRecallNotice struct {
	noticeBase

	GroupID    int64 `json:"group_id"`
	UserID     int64 `json:"user_id"`
	OperatorID int64 `json:"operator_id"`
	MessageID  int32 `json:"message_id"`
}

func NewGroupRecallNotice(groupID, userID, operatorID int64, messageID int32) *GroupRecallNotice {
	return &GroupRecallNotice{
		noticeBase: newNoticeBase(NoticeGroupRecall),
		GroupID:    groupID,
		UserID:     userID,
		OperatorID: operatorID,
		MessageID:  messageID,
	}
}

// FriendRecallNotice reports a recalled direct-chat message.
type FriendRecallNotice struct {
	noticeBase

	UserID    int64 `json:"user_id"`
	MessageID int32 `json:"message_id"`
}

func NewFriendRecallNotice(userID int64, messageID int32) *FriendRecallNotice {
	return &FriendRecallNotice{
		noticeBase: newNoticeBase(NoticeFriendRecall),
		UserID:     userID,
		MessageID:  messageID,
	}
}

// GroupNotice is a group notice derived from a received message's system
// elements (member increase, ban, poke and the like). The message formatter
// owns construction and chooses the notice type; fields not meaningful for
// a given type stay zero and are omitted from the wire form.
type GroupNotice struct {
	noticeBase

	SubType    string `json:"sub_type,omitempty"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	OperatorID int64  `json:"operator_id,omitempty"`
	TargetID   int64  `json:"target_id,omitempty"`
	Duration   int64  `json:"duration,omitempty"`
}

func NewGroupNotice(noticeType string) *GroupNotice {
	return &GroupNotice{noticeBase: newNoticeBase(noticeType)}
}

// FriendAddNotice reports a newly established friendship.
type FriendAddNotice struct {
	noticeBase

	UserID int64 `json:"user_id"`
}

func NewFriendAddNotice(userID int64) *FriendAddNotice {
	return &FriendAddNotice{
		noticeBase: newNoticeBase(NoticeFriendAdd),
		UserID:     userID,
	}
}
