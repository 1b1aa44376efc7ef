package pipeline

import (
	"context"
	"testing"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/platform"
)

func groupMsg(id string, sender int64) *platform.RawMessage {
	return &platform.RawMessage{
		MsgID:     id,
		MsgTime:   1700000100,
		ChatType:  platform.ChatTypeGroup,
		SenderUin: sender,
		PeerUID:   "123",
		PeerUin:   123,
	}
}

func TestMessages_Reported(t *testing.T) {
	env := newTestEnv(Options{SelfID: 10001, BootTime: bootAt(1700000000)})

	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-a", 555),
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	msg, ok := events[0].ev.(*event.Message)
	if !ok {
		t.Fatalf("expected Message, got %T", events[0].ev)
	}
	if msg.MessageID != 1 {
		t.Errorf("expected short id 1, got %d", msg.MessageID)
	}
	if msg.UserID != 555 || msg.GroupID != 123 {
		t.Errorf("unexpected ids: user %d group %d", msg.UserID, msg.GroupID)
	}
	if msg.Raw != nil {
		t.Error("raw payload should only be attached in debug mode")
	}
}

func TestMessages_PreBootDropped(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})

	m := groupMsg("long-old", 555)
	m.MsgTime = 1699999999
	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{m})
	env.pipeline.Wait()

	if events := env.emitter.all(); len(events) != 0 {
		t.Errorf("pre-boot message should be dropped, got %d events", len(events))
	}
	if stored, _ := env.store.LookupByLongID(context.Background(), "long-old"); stored != nil {
		t.Error("pre-boot message must not be indexed")
	}
}

func TestMessages_SelfSuppressedByDefault(t *testing.T) {
	env := newTestEnv(Options{SelfID: 10001, BootTime: bootAt(1700000000)})

	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-self", 10001),
	})
	env.pipeline.Wait()

	if events := env.emitter.all(); len(events) != 0 {
		t.Errorf("own message should be suppressed, got %d events", len(events))
	}
	// Suppression skips the report, not the index.
	if stored, _ := env.store.LookupByLongID(context.Background(), "long-self"); stored == nil {
		t.Error("suppressed self message should still be indexed")
	}
}

func TestMessages_SelfReportedWithTarget(t *testing.T) {
	env := newTestEnv(Options{SelfID: 10001, BootTime: bootAt(1700000000), ReportSelfMessage: true})

	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-self", 10001),
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	msg := events[0].ev.(*event.Message)
	if msg.TargetID != 123 {
		t.Errorf("self message should carry the peer as target, got %d", msg.TargetID)
	}
}

func TestMessages_EmptySuppressedUnlessDebug(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})
	env.formatter.empty["long-empty"] = true

	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-empty", 555),
	})
	env.pipeline.Wait()
	if events := env.emitter.all(); len(events) != 0 {
		t.Fatalf("empty message should be suppressed, got %d events", len(events))
	}

	env = newTestEnv(Options{BootTime: bootAt(1700000000), Debug: true})
	env.formatter.empty["long-empty"] = true
	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-empty", 555),
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 1 {
		t.Fatalf("debug mode should report the empty message, got %d events", len(events))
	}
	if events[0].ev.(*event.Message).Raw == nil {
		t.Error("debug mode should attach the raw payload")
	}
}

func TestMessages_FriendAddProbe(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})
	env.formatter.friendAdd["long-a"] = 42

	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-a", 555),
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 2 {
		t.Fatalf("expected message plus friend-add notice, got %d events", len(events))
	}
	var found bool
	for _, e := range events {
		if added, ok := e.ev.(*event.FriendAddNotice); ok {
			found = true
			if added.UserID != 42 {
				t.Errorf("expected friend 42, got %d", added.UserID)
			}
		}
	}
	if !found {
		t.Error("friend-add notice not emitted")
	}
}

func TestSelfSentMessage_OffByDefault(t *testing.T) {
	env := newTestEnv(Options{SelfID: 10001, BootTime: bootAt(1700000000)})

	env.pipeline.HandleSelfSentMessage(context.Background(), groupMsg("long-self", 10001))
	env.pipeline.Wait()

	if events := env.emitter.all(); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
	if stored, _ := env.store.LookupByLongID(context.Background(), "long-self"); stored != nil {
		t.Error("disabled self-sent path should not touch the store")
	}
	// The message is still formatted for the log even when not reported.
	if calls := env.formatter.messageCallCount(); calls != 1 {
		t.Errorf("expected 1 formatter call, got %d", calls)
	}
}

func TestMessages_GroupEventProbe(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})
	notice := event.NewGroupNotice(event.NoticeGroupBan)
	notice.SubType = "ban"
	notice.GroupID = 123
	notice.UserID = 555
	notice.OperatorID = 500
	notice.Duration = 600
	env.formatter.groupEvent["long-a"] = notice

	env.pipeline.HandleMessages(context.Background(), []*platform.RawMessage{
		groupMsg("long-a", 555),
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 2 {
		t.Fatalf("expected message plus group notice, got %d events", len(events))
	}
	var found bool
	for _, e := range events {
		if got, ok := e.ev.(*event.GroupNotice); ok {
			found = true
			if got.NoticeType != event.NoticeGroupBan || got.UserID != 555 || got.Duration != 600 {
				t.Errorf("unexpected notice: %+v", got)
			}
		}
	}
	if !found {
		t.Error("embedded group notice not emitted")
	}
}

func TestSelfSentMessage_Reported(t *testing.T) {
	env := newTestEnv(Options{SelfID: 10001, BootTime: bootAt(1700000000), ReportSelfMessage: true})

	env.pipeline.HandleSelfSentMessage(context.Background(), groupMsg("long-self", 10001))
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	msg := events[0].ev.(*event.Message)
	if msg.TargetID != 123 {
		t.Errorf("expected target 123, got %d", msg.TargetID)
	}
}

func TestFriendRequests_Reported(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})
	env.users.users["u_friend"] = &platform.UserInfo{UID: "u_friend", Uin: 77}

	env.pipeline.HandleFriendRequests(context.Background(), []*platform.FriendRequest{
		{FriendUID: "u_friend", ReqTime: 1700000100, ExtWords: "hello"},
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	req, ok := events[0].ev.(*event.FriendRequest)
	if !ok {
		t.Fatalf("expected FriendRequest, got %T", events[0].ev)
	}
	if req.UserID != 77 || req.Comment != "hello" {
		t.Errorf("unexpected request: user %d comment %q", req.UserID, req.Comment)
	}
	if req.Flag != "u_friend|1700000100" {
		t.Errorf("unexpected flag %q", req.Flag)
	}
}

func TestFriendRequests_PreBootDropped(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})
	env.users.users["u_friend"] = &platform.UserInfo{UID: "u_friend", Uin: 77}

	env.pipeline.HandleFriendRequests(context.Background(), []*platform.FriendRequest{
		{FriendUID: "u_friend", ReqTime: 1699999990},
	})
	env.pipeline.Wait()

	if events := env.emitter.all(); len(events) != 0 {
		t.Errorf("pre-boot friend request should be dropped, got %d events", len(events))
	}
}

func TestFriendRequests_DuplicateReportedOnce(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})
	env.users.users["u_friend"] = &platform.UserInfo{UID: "u_friend", Uin: 77}

	req := &platform.FriendRequest{FriendUID: "u_friend", ReqTime: 1700000100}
	env.pipeline.HandleFriendRequests(context.Background(), []*platform.FriendRequest{req})
	env.pipeline.Wait()
	env.pipeline.HandleFriendRequests(context.Background(), []*platform.FriendRequest{req})
	env.pipeline.Wait()

	if events := env.emitter.all(); len(events) != 1 {
		t.Errorf("redelivered request should report once, got %d events", len(events))
	}
}

func TestFriendRequests_LookupFailureDegradesToZero(t *testing.T) {
	env := newTestEnv(Options{BootTime: bootAt(1700000000)})

	env.pipeline.HandleFriendRequests(context.Background(), []*platform.FriendRequest{
		{FriendUID: "u_ghost", ReqTime: 1700000100},
	})
	env.pipeline.Wait()

	events := env.emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	req := events[0].ev.(*event.FriendRequest)
	if req.UserID != 0 {
		t.Errorf("expected user_id 0, got %d", req.UserID)
	}
	if req.Flag != "u_ghost|1700000100" {
		t.Errorf("unexpected flag %q", req.Flag)
	}
}
