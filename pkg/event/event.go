// Package event defines the closed set of outbound OneBot 11 events the
// bridge emits. Every identifier on these types is the stable numeric form;
// opaque platform identities never appear here.
package event

import "time"

// Post types.
const (
	PostTypeMessage   = "message"
	PostTypeNotice    = "notice"
	PostTypeRequest   = "request"
	PostTypeMetaEvent = "meta_event"
)

// Event is implemented by all outbound variants. The dispatcher stamps the
// originating account just before delivery.
type Event interface {
	EventName() string
	SetSelfID(id int64)
}

// Base carries the fields shared by every outbound event.
type Base struct {
	Time     int64  `json:"time"`
	SelfID   int64  `json:"self_id"`
	PostType string `json:"post_type"`
}

func (b *Base) SetSelfID(id int64) { b.SelfID = id }

func newBase(postType string) Base {
	return Base{Time: time.Now().Unix(), PostType: postType}
}
