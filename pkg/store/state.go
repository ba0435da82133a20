// Package store persists per-chat conversation state as one JSON record per
// chat id and provides the per-chat exclusive update scope the handlers run
// under.
package store

// AssistantAuthor is the reserved author id for generated turns.
const AssistantAuthor = "assistant"

// Turn is one transcript entry. Turns are append-only: once appended they
// are never edited, reordered, or deleted.
type Turn struct {
	Author    string `json:"author"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// ChatState is the full persisted record for one chat id.
type ChatState struct {
	GroupName        *string                 `json:"group_name"`
	GroupDescription *string                 `json:"group_description"`
	Conversation     []Turn                  `json:"conversation"`
	Settings         map[string]SettingValue `json:"settings"`
}

// NewChatState builds the record seeded on group creation: empty transcript,
// null metadata, and a copy of the default settings table. The copy fixes
// each key's value kind for the lifetime of the chat.
func NewChatState(defaults map[string]SettingValue) *ChatState {
	settings := make(map[string]SettingValue, len(defaults))
	for k, v := range defaults {
		settings[k] = v
	}
	return &ChatState{
		Conversation: []Turn{},
		Settings:     settings,
	}
}

// Append adds a turn to the transcript.
func (s *ChatState) Append(author, body, timestamp string) {
	s.Conversation = append(s.Conversation, Turn{
		Author:    author,
		Body:      body,
		Timestamp: timestamp,
	})
}
