// Package events normalizes the nested webhook payloads emitted by the
// WhatsApp bridge into a flat InboundEvent that routes can inspect without
// defensive field lookups.
package events

import "time"

// Kind discriminates the event variants the bridge emits.
type Kind string

const (
	KindMessage     Kind = "message"
	KindMedia       Kind = "media"
	KindGroupJoin   Kind = "group_join"
	KindGroupUpdate Kind = "group_update"
	KindQR          Kind = "qr"
)

// InboundEvent is the normalized view of one webhook delivery. It is
// constructed by Parse and immutable afterwards.
type InboundEvent struct {
	Kind Kind

	// Subtype carries the message-level "type" field, e.g. "audio" for
	// media events or "create" for group updates.
	Subtype string

	// ChatID is the conversation the event belongs to (the "from" field).
	ChatID string

	// Remote is the group JID ("id.remote"), used to address group state.
	// Empty for events that carry no message id, such as QR notifications.
	Remote string

	// Sender is the author when present, otherwise the from field.
	Sender string

	MessageID string

	ReceivedAt time.Time

	body    string
	hasBody bool

	media    string
	hasMedia bool

	// HasQR reports whether the payload carried QR data.
	HasQR bool
}

// Text returns the message body. It fails on events that do not carry a
// literal message node, mirroring the bridge's envelope contract.
func (e *InboundEvent) Text() (string, error) {
	if !e.hasBody {
		return "", &MalformedEventError{Reason: "no message body on " + string(e.Kind) + " event"}
	}
	return e.body, nil
}

// Media returns the base64-encoded media payload.
func (e *InboundEvent) Media() (string, error) {
	if !e.hasMedia {
		return "", &MediaAbsentError{Kind: e.Kind}
	}
	return e.media, nil
}
