package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/platform"
)

// fakeUsers serves identity lookups from in-memory maps. Uids absent from
// users produce an error; member keys absent from members resolve to
// (nil, nil), matching a non-member.
type fakeUsers struct {
	mu      sync.Mutex
	users   map[string]*platform.UserInfo
	members map[string]*platform.GroupMember

	userCalls   int
	memberCalls int
}

func memberKey(groupCode, uid string) string { return groupCode + "/" + uid }

func (f *fakeUsers) GetUserInfo(_ context.Context, uid string) (*platform.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if info, ok := f.users[uid]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("no such user %s", uid)
}

func (f *fakeUsers) GetGroupMember(_ context.Context, groupCode, uid string) (*platform.GroupMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls++
	return f.members[memberKey(groupCode, uid)], nil
}

func (f *fakeUsers) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userCalls, f.memberCalls
}

type fakeContacts struct {
	mu      sync.Mutex
	friends map[string]*platform.FriendRecord
}

func (f *fakeContacts) GetFriend(_ context.Context, uid string) (*platform.FriendRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.friends[uid], nil
}

// fakeStore assigns sequential short ids keyed by long id.
type fakeStore struct {
	mu     sync.Mutex
	next   int32
	byLong map[string]*platform.StoredMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{byLong: make(map[string]*platform.StoredMessage)}
}

func (f *fakeStore) AssignShortID(_ context.Context, msg *platform.RawMessage) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.byLong[msg.MsgID]; ok {
		return stored.ShortID, nil
	}
	f.next++
	f.byLong[msg.MsgID] = &platform.StoredMessage{
		ShortID:   f.next,
		LongID:    msg.MsgID,
		ChatType:  msg.ChatType,
		PeerUin:   msg.PeerUin,
		SenderUin: msg.SenderUin,
		MsgTime:   msg.MsgTime,
	}
	return f.next, nil
}

func (f *fakeStore) LookupByLongID(_ context.Context, longID string) (*platform.StoredMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byLong[longID], nil
}

// fakeFormatter emits a one-segment text message attributed to the sender.
// Uids listed in empty produce a message with no segments.
type fakeFormatter struct {
	mu         sync.Mutex
	empty      map[string]bool
	friendAdd  map[string]int64              // long id -> new friend uin
	groupEvent map[string]*event.GroupNotice // long id -> embedded notice

	messageCalls int
}

func (f *fakeFormatter) Message(_ context.Context, msg *platform.RawMessage, shortID int32) (*event.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCalls++

	messageType := event.MessageTypePrivate
	if msg.ChatType == platform.ChatTypeGroup {
		messageType = event.MessageTypeGroup
	}
	ev := event.NewMessage(messageType)
	ev.MessageID = shortID
	ev.UserID = msg.SenderUin
	if msg.ChatType == platform.ChatTypeGroup {
		ev.GroupID = msg.PeerUin
	}
	if !f.empty[msg.MsgID] {
		ev.Message = []event.Segment{{Type: "text", Data: map[string]any{"text": "hi"}}}
		ev.RawMessage = "hi"
	}
	return ev, nil
}

func (f *fakeFormatter) FriendAdd(_ context.Context, msg *platform.RawMessage) (*event.FriendAddNotice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if uin, ok := f.friendAdd[msg.MsgID]; ok {
		return event.NewFriendAddNotice(uin), nil
	}
	return nil, nil
}

func (f *fakeFormatter) GroupEvent(_ context.Context, msg *platform.RawMessage) (*event.GroupNotice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groupEvent[msg.MsgID], nil
}

func (f *fakeFormatter) messageCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messageCalls
}

type emitted struct {
	ev             event.Event
	groupTemporary bool
}

type captureEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (c *captureEmitter) Emit(ev event.Event, groupTemporary bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{ev: ev, groupTemporary: groupTemporary})
}

func (c *captureEmitter) all() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]emitted, len(c.events))
	copy(out, c.events)
	return out
}

type testEnv struct {
	users     *fakeUsers
	contacts  *fakeContacts
	store     *fakeStore
	formatter *fakeFormatter
	emitter   *captureEmitter
	pipeline  *Pipeline
}

func newTestEnv(opts Options) *testEnv {
	env := &testEnv{
		users: &fakeUsers{
			users:   make(map[string]*platform.UserInfo),
			members: make(map[string]*platform.GroupMember),
		},
		contacts:  &fakeContacts{friends: make(map[string]*platform.FriendRecord)},
		store:     newFakeStore(),
		formatter: &fakeFormatter{
			empty:      make(map[string]bool),
			friendAdd:  make(map[string]int64),
			groupEvent: make(map[string]*event.GroupNotice),
		},
		emitter:   &captureEmitter{},
	}
	env.pipeline = New(Deps{
		Users:     env.users,
		Contacts:  env.contacts,
		Store:     env.store,
		Formatter: env.formatter,
		Emitter:   env.emitter,
	}, opts)
	return env
}

func bootAt(sec int64) time.Time { return time.Unix(sec, 0) }
