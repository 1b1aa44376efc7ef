package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/logger"
	"github.com/tinyland-inc/obridge/pkg/platform"
)

// notifyFlag builds the dedup key for a group notify. The same string is
// surfaced to consumers as the request "flag", the token they hand back
// with a later accept/reject call.
func notifyFlag(groupCode string, seq int64) string {
	return groupCode + "|" + strconv.FormatInt(seq, 10)
}

// HandleGroupNotifies classifies a batch of group notifications. Elements
// are processed concurrently; ordering across them is not guaranteed.
func (p *Pipeline) HandleGroupNotifies(ctx context.Context, notifies []*platform.GroupNotify) {
	for _, notify := range notifies {
		n := notify
		p.spawn("group notify", func() {
			if err := p.processNotify(ctx, n); err != nil {
				logger.ErrorCF(component, "group notify dropped", map[string]any{
					"group": n.Group.GroupCode,
					"seq":   n.Seq,
					"type":  int(n.Type),
					"error": err.Error(),
				})
			}
		})
	}
}

func (p *Pipeline) processNotify(ctx context.Context, n *platform.GroupNotify) error {
	p.warmIdentities(ctx, n)

	// Gate before the dedup check so replayed pre-boot notifies never
	// pollute the store.
	if !p.gate.AdmitSeq(n.Seq) {
		logger.DebugCF(component, "group notify predates boot", map[string]any{
			"seq": n.Seq, "boot_time": p.gate.BootTime(),
		})
		return nil
	}

	flag := notifyFlag(n.Group.GroupCode, n.Seq)
	if !p.dedup.AdmitOnce(flag) {
		return nil
	}

	groupID := parseUin(n.Group.GroupCode)

	switch n.Type {
	case platform.NotifyAdminSet, platform.NotifyAdminUnset, platform.NotifyAdminUnsetOther:
		return p.notifyAdminChange(ctx, n, groupID)
	case platform.NotifyMemberExit, platform.NotifyKickMember:
		return p.notifyMemberDecrease(ctx, n, groupID)
	case platform.NotifyJoinRequest:
		return p.notifyJoinRequest(ctx, n, groupID, flag)
	case platform.NotifyInviteMe:
		return p.notifyInvite(ctx, n, groupID, flag)
	default:
		logger.DebugCF(component, "unhandled group notify type", map[string]any{
			"type": int(n.Type), "group": n.Group.GroupCode,
		})
		return nil
	}
}

// warmIdentities pre-resolves the notify's opaque subjects into the
// identity cache, best-effort. Classification below still uses the lookup
// path each kind calls for.
func (p *Pipeline) warmIdentities(ctx context.Context, n *platform.GroupNotify) {
	for _, uid := range []string{n.User1.UID, n.User2.UID} {
		if uid == "" || !strings.HasPrefix(uid, opaquePrefix) {
			continue
		}
		if _, err := p.identities.Resolve(ctx, uid); err != nil {
			logger.DebugCF(component, "identity warm failed", map[string]any{
				"uid": uid, "error": err.Error(),
			})
		}
	}
}

func (p *Pipeline) notifyAdminChange(ctx context.Context, n *platform.GroupNotify, groupID int64) error {
	member, err := p.users.GetGroupMember(ctx, n.Group.GroupCode, n.User1.UID)
	if err != nil {
		return fmt.Errorf("admin change member lookup: %w", err)
	}
	if member == nil {
		return fmt.Errorf("admin change: %s not found in group %s", n.User1.UID, n.Group.GroupCode)
	}

	subType := event.AdminSet
	if n.Type == platform.NotifyAdminUnset || n.Type == platform.NotifyAdminUnsetOther {
		subType = event.AdminUnset
	}
	p.emit(event.NewGroupAdminNotice(groupID, member.Uin, subType), true)
	return nil
}

func (p *Pipeline) notifyMemberDecrease(ctx context.Context, n *platform.GroupNotify, groupID int64) error {
	// The departing member goes through the plain identity lookup, not the
	// membership-scoped one: they may already be gone from the roster.
	info, err := p.users.GetUserInfo(ctx, n.User1.UID)
	if err != nil {
		return fmt.Errorf("member decrease lookup: %w", err)
	}

	operatorID := info.Uin
	subType := event.DecreaseLeave
	if n.User2.UID != "" {
		// A second subject means a kick; it names the operator.
		subType = event.DecreaseKick
		member, err := p.users.GetGroupMember(ctx, n.Group.GroupCode, n.User2.UID)
		if err == nil && member != nil {
			operatorID = member.Uin
		}
	}
	p.emit(event.NewGroupDecreaseNotice(groupID, info.Uin, operatorID, subType), true)
	return nil
}

func (p *Pipeline) notifyJoinRequest(ctx context.Context, n *platform.GroupNotify, groupID int64, flag string) error {
	var userID int64
	info, err := p.users.GetUserInfo(ctx, n.User1.UID)
	if err != nil {
		// Best-effort: the request is still actionable without the
		// requester's stable id.
		logger.WarnCF(component, "join request uin lookup failed", map[string]any{
			"uid": n.User1.UID, "error": err.Error(),
		})
	} else {
		userID = info.Uin
	}
	p.emit(event.NewGroupRequest(groupID, userID, event.GroupRequestAdd, n.Postscript, flag), false)
	return nil
}

func (p *Pipeline) notifyInvite(ctx context.Context, n *platform.GroupNotify, groupID int64, flag string) error {
	// Prefer the contact list over a fresh lookup for the inviter.
	var userID int64
	if friend, err := p.contacts.GetFriend(ctx, n.User2.UID); err == nil && friend != nil {
		userID = friend.Uin
	}
	if userID == 0 {
		info, err := p.users.GetUserInfo(ctx, n.User2.UID)
		if err != nil {
			return fmt.Errorf("invite uin lookup: %w", err)
		}
		userID = info.Uin
	}
	p.emit(event.NewGroupRequest(groupID, userID, event.GroupRequestInvite, "", flag), false)
	return nil
}

// parseUin converts a decimal identifier, yielding zero for anything
// malformed rather than failing the event.
func parseUin(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
