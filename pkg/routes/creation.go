// Package routes holds the non-conversation routes the gateway registers
// statically: group state seeding, audio transcription, and bridge session
// recovery.
package routes

import (
	"context"

	"github.com/tinyland-inc/waclaw/pkg/events"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

// GroupCreationRoute seeds a fresh chat state when the bot is added to a
// group. Once the record exists the dispatcher rediscovers it as a
// conversation handler on the next event.
type GroupCreationRoute struct {
	store    *store.Store
	defaults map[string]store.SettingValue
}

func NewGroupCreationRoute(st *store.Store, defaults map[string]store.SettingValue) *GroupCreationRoute {
	return &GroupCreationRoute{store: st, defaults: defaults}
}

// IsApplicable matches a direct group join, or a group update with the
// "create" subtype (a group created inside a community).
func (r *GroupCreationRoute) IsApplicable(ev *events.InboundEvent) (bool, error) {
	switch ev.Kind {
	case events.KindGroupJoin:
		return true, nil
	case events.KindGroupUpdate:
		return ev.Subtype == "create", nil
	default:
		return false, nil
	}
}

func (r *GroupCreationRoute) Process(ctx context.Context, ev *events.InboundEvent) error {
	if ev.Remote == "" {
		return &events.MalformedEventError{Reason: "group event has no group id"}
	}

	state := store.NewChatState(r.defaults)
	if err := r.store.Save(ev.Remote, state); err != nil {
		return err
	}
	logger.InfoCF("routes", "Created group state", map[string]any{"chat_id": ev.Remote})
	return nil
}
