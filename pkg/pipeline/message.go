package pipeline

import (
	"context"
	"strconv"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/logger"
	"github.com/tinyland-inc/obridge/pkg/platform"
)

// HandleMessages indexes and reports a batch of received messages.
// Elements are processed concurrently; ordering is not guaranteed.
func (p *Pipeline) HandleMessages(ctx context.Context, msgs []*platform.RawMessage) {
	for _, msg := range msgs {
		m := msg
		p.spawn("message", func() {
			if !p.gate.AdmitTime(m.MsgTime) {
				logger.DebugCF(component, "message predates boot", map[string]any{
					"msg_id": m.MsgID, "msg_time": m.MsgTime, "boot_time": p.gate.BootTime(),
				})
				return
			}
			shortID, err := p.store.AssignShortID(ctx, m)
			if err != nil {
				logger.ErrorCF(component, "message indexing failed", map[string]any{
					"msg_id": m.MsgID, "error": err.Error(),
				})
				return
			}
			p.postMessage(ctx, m, shortID)
		})
	}
}

// HandleSelfSentMessage handles a message sent from this account on
// another device or by an API consumer. The message is always formatted
// and logged; indexing and reporting happen only when report_self_message
// is on.
func (p *Pipeline) HandleSelfSentMessage(ctx context.Context, msg *platform.RawMessage) {
	p.spawn("self message", func() {
		if p.reportSelf.Load() {
			shortID, err := p.store.AssignShortID(ctx, msg)
			if err != nil {
				logger.ErrorCF(component, "self message indexing failed", map[string]any{
					"msg_id": msg.MsgID, "error": err.Error(),
				})
				return
			}
			p.postMessage(ctx, msg, shortID)
			return
		}

		ev, err := p.formatter.Message(ctx, msg, 0)
		if err != nil {
			logger.ErrorCF(component, "self message formatting failed", map[string]any{
				"msg_id": msg.MsgID, "error": err.Error(),
			})
			return
		}
		if ev == nil {
			return
		}
		ev.TargetID = msg.PeerUin
		logger.DebugCF(component, "self message not reported", map[string]any{
			"msg_id": msg.MsgID, "target_id": ev.TargetID,
		})
	})
}

// postMessage runs the formatter and emits the message event plus any
// derived friend-add notice.
func (p *Pipeline) postMessage(ctx context.Context, m *platform.RawMessage, shortID int32) {
	debug := p.debug.Load()

	ev, err := p.formatter.Message(ctx, m, shortID)
	if err != nil {
		logger.ErrorCF(component, "message formatting failed", map[string]any{
			"msg_id": m.MsgID, "error": err.Error(),
		})
	} else if ev != nil {
		if debug {
			ev.Raw = m
		}
		if debug || len(ev.Message) > 0 {
			isSelf := ev.UserID == p.selfID
			switch {
			case isSelf && !p.reportSelf.Load():
				// suppressed; the message is still indexed above
			default:
				if isSelf {
					ev.TargetID = m.PeerUin
				}
				p.emit(ev, false)
			}
		}
	}

	if added, err := p.formatter.FriendAdd(ctx, m); err != nil {
		logger.ErrorCF(component, "friend add probe failed", map[string]any{
			"msg_id": m.MsgID, "error": err.Error(),
		})
	} else if added != nil {
		p.emit(added, false)
	}

	if notice, err := p.formatter.GroupEvent(ctx, m); err != nil {
		logger.ErrorCF(component, "group event probe failed", map[string]any{
			"msg_id": m.MsgID, "error": err.Error(),
		})
	} else if notice != nil {
		p.emit(notice, false)
	}
}

// HandleFriendRequests gates, dedups, and reports a batch of friend
// requests. A failed requester lookup degrades to user_id 0; the request
// is still actionable through its flag.
func (p *Pipeline) HandleFriendRequests(ctx context.Context, reqs []*platform.FriendRequest) {
	for _, req := range reqs {
		r := req
		p.spawn("friend request", func() {
			if !p.gate.AdmitTime(r.ReqTime) {
				logger.DebugCF(component, "friend request predates boot", map[string]any{
					"uid": r.FriendUID, "req_time": r.ReqTime, "boot_time": p.gate.BootTime(),
				})
				return
			}
			flag := r.FriendUID + "|" + strconv.FormatInt(r.ReqTime, 10)
			if !p.dedup.AdmitOnce(flag) {
				return
			}

			var userID int64
			info, err := p.users.GetUserInfo(ctx, r.FriendUID)
			if err != nil {
				logger.DebugCF(component, "friend request uin lookup failed", map[string]any{
					"uid": r.FriendUID, "error": err.Error(),
				})
			} else {
				userID = info.Uin
			}
			p.emit(event.NewFriendRequest(userID, r.ExtWords, flag), false)
		})
	}
}
