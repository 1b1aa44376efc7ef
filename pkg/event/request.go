package event

// Request types.
const (
	RequestFriend = "friend"
	RequestGroup  = "group"
)

// Group request sub-types.
const (
	GroupRequestAdd    = "add"
	GroupRequestInvite = "invite"
)

type requestBase struct {
	Base

	RequestType string `json:"request_type"`
}

func newRequestBase(requestType string) requestBase {
	return requestBase{Base: newBase(PostTypeRequest), RequestType: requestType}
}

func (r *requestBase) EventName() string { return PostTypeRequest + "." + r.RequestType }

// FriendRequest asks the consumer to accept or reject a new friend.
// Flag is the opaque token to hand back with the decision.
type FriendRequest struct {
	requestBase

	UserID  int64  `json:"user_id"`
	Comment string `json:"comment"`
	Flag    string `json:"flag"`
}

func NewFriendRequest(userID int64, comment, flag string) *FriendRequest {
	return &FriendRequest{
		requestBase: newRequestBase(RequestFriend),
		UserID:      userID,
		Comment:     comment,
		Flag:        flag,
	}
}

// GroupRequest covers both join requests ("add") and invitations received
// by the bot account ("invite").
type GroupRequest struct {
	requestBase

	SubType string `json:"sub_type"`
	GroupID int64  `json:"group_id"`
	UserID  int64  `json:"user_id"`
	Comment string `json:"comment,omitempty"`
	Flag    string `json:"flag"`
}

func NewGroupRequest(groupID, userID int64, subType, comment, flag string) *GroupRequest {
	return &GroupRequest{
		requestBase: newRequestBase(RequestGroup),
		SubType:     subType,
		GroupID:     groupID,
		UserID:      userID,
		Comment:     comment,
		Flag:        flag,
	}
}
