package pipeline

import (
	"context"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/logger"
	"github.com/tinyland-inc/obridge/pkg/platform"
)

// HandleMessageUpdates scans a status-update batch for recalls and reports
// them. Elements are processed concurrently; ordering is not guaranteed.
func (p *Pipeline) HandleMessageUpdates(ctx context.Context, msgs []*platform.RawMessage) {
	for _, msg := range msgs {
		m := msg
		p.spawn("message update", func() {
			p.processRecall(ctx, m)
		})
	}
}

func (p *Pipeline) processRecall(ctx context.Context, m *platform.RawMessage) {
	if m.RecallTime == 0 {
		return
	}

	original, err := p.store.LookupByLongID(ctx, m.MsgID)
	if err != nil {
		logger.ErrorCF(component, "recall store lookup failed", map[string]any{
			"msg_id": m.MsgID, "error": err.Error(),
		})
		return
	}
	if original == nil {
		// Never indexed, nothing to report.
		return
	}

	switch m.ChatType {
	case platform.ChatTypeFriend:
		p.emit(event.NewFriendRecallNotice(m.SenderUin, original.ShortID), false)
	case platform.ChatTypeGroup:
		operator := p.recallOperator(ctx, m)
		p.emit(event.NewGroupRecallNotice(m.PeerUin, m.SenderUin, operator, original.ShortID), false)
	}
}

// recallOperator determines who triggered a group recall: the account
// named by the message's revoke metadata when it resolves to a member,
// the sender otherwise.
func (p *Pipeline) recallOperator(ctx context.Context, m *platform.RawMessage) int64 {
	operator := m.SenderUin
	for _, el := range m.Elements {
		if el.GrayTip == nil || el.GrayTip.Revoke == nil {
			continue
		}
		member, err := p.users.GetGroupMember(ctx, m.PeerUID, el.GrayTip.Revoke.OperatorUID)
		if err != nil {
			logger.DebugCF(component, "recall operator lookup failed", map[string]any{
				"uid": el.GrayTip.Revoke.OperatorUID, "error": err.Error(),
			})
			continue
		}
		if member != nil {
			operator = member.Uin
		}
	}
	return operator
}
