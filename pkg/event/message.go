package event

// Message types.
const (
	MessageTypePrivate = "private"
	MessageTypeGroup   = "group"
)

// Segment is one element of a structured message ("text", "image", "at", ...).
type Segment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Sender describes the account a message originated from.
type Sender struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Message is a normalized chat message. Construction is owned by the
// message formatter collaborator; the pipeline only fills TargetID for
// self-sent messages and attaches Raw in debug mode.
type Message struct {
	Base

	MessageType string    `json:"message_type"`
	SubType     string    `json:"sub_type,omitempty"`
	MessageID   int32     `json:"message_id"`
	UserID      int64     `json:"user_id"`
	GroupID     int64     `json:"group_id,omitempty"`
	TargetID    int64     `json:"target_id,omitempty"`
	Message     []Segment `json:"message"`
	RawMessage  string    `json:"raw_message"`
	Font        int       `json:"font"`
	Sender      Sender    `json:"sender"`
	Raw         any       `json:"raw,omitempty"`
}

func (m *Message) EventName() string { return PostTypeMessage + "." + m.MessageType }

// NewMessage returns a message event shell with the base fields stamped.
// The formatter fills in everything else.
func NewMessage(messageType string) *Message {
	return &Message{Base: newBase(PostTypeMessage), MessageType: messageType}
}
