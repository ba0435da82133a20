// Package chat implements the per-group conversation handler: transcript
// accumulation, typed settings, context building, and reply generation.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tinyland-inc/waclaw/pkg/bridge"
	"github.com/tinyland-inc/waclaw/pkg/events"
	"github.com/tinyland-inc/waclaw/pkg/llm"
	"github.com/tinyland-inc/waclaw/pkg/logger"
	"github.com/tinyland-inc/waclaw/pkg/store"
)

const (
	helpToken     = "/help"
	settingsToken = "/settings"
)

// Backend is the slice of the bridge API the handler needs.
type Backend interface {
	GroupInfo(ctx context.Context, chatID string) (*bridge.GroupMetadata, error)
	SendMessage(ctx context.Context, chatID, content string) error
}

// GroupHandler processes every event addressed to one group chat. Two
// handlers are interchangeable iff they share a chat id, which is what lets
// the dispatcher rediscover handlers from persisted state idempotently.
type GroupHandler struct {
	chatID   string
	store    *store.Store
	backend  Backend
	provider llm.Provider
	meter    *llm.MeterStore
}

func NewGroupHandler(
	chatID string,
	st *store.Store,
	backend Backend,
	provider llm.Provider,
	meter *llm.MeterStore,
) *GroupHandler {
	return &GroupHandler{
		chatID:   chatID,
		store:    st,
		backend:  backend,
		provider: provider,
		meter:    meter,
	}
}

// ChatID identifies the handler for registry deduplication.
func (h *GroupHandler) ChatID() string { return h.chatID }

// IsApplicable reports whether the event is addressed to this handler's
// chat. Events without a group id cannot be matched and surface a
// malformed-event error for the dispatcher to log and skip.
func (h *GroupHandler) IsApplicable(ev *events.InboundEvent) (bool, error) {
	if ev.Remote == "" {
		return false, &events.MalformedEventError{Reason: "event has no group id"}
	}
	return ev.Remote == h.chatID, nil
}

// Process runs the handler's state machine for one event under the chat's
// exclusive update scope, so two concurrent events for the same chat cannot
// lose a transcript append. Metadata is always refreshed first; message
// events are then classified as config or conversation; the full state is
// persisted at the end of either branch.
func (h *GroupHandler) Process(ctx context.Context, ev *events.InboundEvent) error {
	return h.store.Update(ctx, h.chatID, func(state *store.ChatState) error {
		h.refreshMetadata(ctx, state)

		if ev.Kind != events.KindMessage {
			return nil
		}

		body, err := ev.Text()
		if err != nil {
			return err
		}

		if isConfigMessage(body) {
			h.processConfig(ctx, state, body)
			return nil
		}
		return h.processConversation(ctx, state, ev, body)
	})
}

// refreshMetadata pulls the group's name and description from the bridge.
// The description doubles as the generation instructions, so this always
// runs before a message is classified. A bridge failure is logged and the
// handler proceeds with whatever metadata it last saw.
func (h *GroupHandler) refreshMetadata(ctx context.Context, state *store.ChatState) {
	md, err := h.backend.GroupInfo(ctx, h.chatID)
	if err != nil {
		logger.ErrorCF("chat", "Group metadata refresh failed", map[string]any{
			"chat_id": h.chatID,
			"error":   err.Error(),
		})
		return
	}
	state.GroupName = &md.Subject
	state.GroupDescription = md.Description
}

func isConfigMessage(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, settingsToken) || strings.Contains(lower, helpToken)
}

// processConfig handles /help and /settings messages. Config messages are
// never appended to the transcript.
func (h *GroupHandler) processConfig(ctx context.Context, state *store.ChatState, body string) {
	lower := strings.ToLower(body)

	var reply string
	switch {
	case strings.Contains(lower, helpToken):
		reply = settingsToken + "\n" + FormatSettings(state.Settings)
	case strings.Contains(lower, settingsToken):
		changed := ReconcileSettings(state.Settings, body)
		reply = "Updated settings: " + strings.Join(changed, ", ")
	default:
		return
	}

	h.send(ctx, reply)
}

func (h *GroupHandler) processConversation(
	ctx context.Context,
	state *store.ChatState,
	ev *events.InboundEvent,
	body string,
) error {
	state.Append(ev.Sender, body, ev.ReceivedAt.Format(time.RFC3339))

	instructions := ""
	if state.GroupDescription != nil {
		instructions = *state.GroupDescription
	}
	prompt := BuildContext(instructions, state.Conversation, MaxContexts(state.Settings))

	resp, err := h.provider.Generate(ctx, prompt, CallOptions(state.Settings))
	if err != nil {
		return fmt.Errorf("generate reply for chat %s: %w", h.chatID, err)
	}
	if h.meter != nil {
		h.meter.Record(h.chatID, resp.Usage)
	}

	state.Append(store.AssistantAuthor, resp.Text, time.Now().Format(time.RFC3339))
	h.send(ctx, resp.Text)
	return nil
}

// send delivers an outbound reply. Bridge failures are logged, never
// retried, and never abort processing; the user just sees no reply.
func (h *GroupHandler) send(ctx context.Context, content string) {
	if err := h.backend.SendMessage(ctx, h.chatID, content); err != nil {
		logger.ErrorCF("chat", "Reply send failed", map[string]any{
			"chat_id": h.chatID,
			"error":   err.Error(),
		})
	}
}
