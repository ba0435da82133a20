package events

import (
	"encoding/json"
	"time"
)

// envelope is the raw shape of a bridge webhook delivery.
type envelope struct {
	DataType string                     `json:"dataType"`
	Data     map[string]json.RawMessage `json:"data"`
}

// messageInfo is the message node carried inside the envelope. Depending on
// the event kind the bridge either names it "message" or wraps it as the
// single entry of an otherwise unnamed map (e.g. "ack").
type messageInfo struct {
	Type   string `json:"type"`
	From   string `json:"from"`
	Author string `json:"author"`
	Body   string `json:"body"`
	ID     struct {
		ID     string `json:"id"`
		Remote string `json:"remote"`
	} `json:"id"`
}

type mediaInfo struct {
	Data string `json:"data"`
}

// Parse validates a raw webhook payload and produces an InboundEvent.
// receivedAt is stamped on the event as the receipt time.
func Parse(raw []byte, receivedAt time.Time) (*InboundEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &MalformedEventError{Reason: "invalid envelope: " + err.Error()}
	}
	if env.DataType == "" {
		return nil, &MalformedEventError{Reason: "missing dataType"}
	}

	info, hasMessageNode, err := extractMessageInfo(env.Data)
	if err != nil {
		return nil, err
	}

	ev := &InboundEvent{
		Kind:       Kind(env.DataType),
		Subtype:    info.Type,
		ChatID:     info.From,
		Remote:     info.ID.Remote,
		Sender:     info.From,
		MessageID:  info.ID.ID,
		ReceivedAt: receivedAt,
	}
	if info.Author != "" {
		ev.Sender = info.Author
	}
	if hasMessageNode {
		ev.body = info.Body
		ev.hasBody = true
	}

	if rawMedia, ok := env.Data["messageMedia"]; ok {
		var m mediaInfo
		if err := json.Unmarshal(rawMedia, &m); err != nil {
			return nil, &MalformedEventError{Reason: "invalid messageMedia node: " + err.Error()}
		}
		ev.media = m.Data
		ev.hasMedia = true
	}

	if _, ok := env.Data["qr"]; ok {
		ev.HasQR = true
	}

	return ev, nil
}

// extractMessageInfo picks the message node out of the data map. If a node
// literally named "message" exists it wins; otherwise the data map must hold
// exactly one remaining entry (after media is set aside) and that entry is
// used. The second return value reports whether the literal "message" node
// was present, which is what entitles callers to read the text body.
func extractMessageInfo(data map[string]json.RawMessage) (*messageInfo, bool, error) {
	if raw, ok := data["message"]; ok {
		info, err := decodeMessageInfo(raw)
		return info, true, err
	}

	var candidate json.RawMessage
	count := 0
	for key, raw := range data {
		if key == "messageMedia" {
			continue
		}
		candidate = raw
		count++
	}
	if count != 1 {
		return nil, false, &MalformedEventError{Reason: "no message node and no single-key alternative"}
	}

	info, err := decodeMessageInfo(candidate)
	return info, false, err
}

func decodeMessageInfo(raw json.RawMessage) (*messageInfo, error) {
	var info messageInfo
	if !isJSONObject(raw) {
		// Some notification payloads (e.g. QR codes) wrap a bare scalar;
		// there is no message node to pull fields from.
		return &info, nil
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, &MalformedEventError{Reason: "invalid message node: " + err.Error()}
	}
	return &info, nil
}

func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b == '{'
		}
	}
	return false
}
