package llm

import (
	"maps"
	"sync"
	"time"
)

// MeterStore aggregates token usage per chat id. The gateway records every
// generation call here so operators can see which chats burn tokens.
type MeterStore struct {
	mu     sync.RWMutex
	meters map[string]*ChatMeter
}

// ChatMeter tracks cumulative usage for one chat.
type ChatMeter struct {
	ChatID       string
	Calls        int64
	PromptTokens int64
	OutputTokens int64
	TotalTokens  int64
	LastActivity time.Time
}

func NewMeterStore() *MeterStore {
	return &MeterStore{meters: make(map[string]*ChatMeter)}
}

// Record adds one generation call's usage to the chat's meter.
func (s *MeterStore) Record(chatID string, usage Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meter, ok := s.meters[chatID]
	if !ok {
		meter = &ChatMeter{ChatID: chatID}
		s.meters[chatID] = meter
	}
	meter.Calls++
	meter.PromptTokens += int64(usage.PromptTokens)
	meter.OutputTokens += int64(usage.CompletionTokens)
	meter.TotalTokens += int64(usage.TotalTokens)
	meter.LastActivity = time.Now()
}

// Get returns the meter for one chat.
func (s *MeterStore) Get(chatID string) (*ChatMeter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meters[chatID]
	return m, ok
}

// Snapshot returns a copy of all meters.
func (s *MeterStore) Snapshot() map[string]*ChatMeter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]*ChatMeter, len(s.meters))
	maps.Copy(result, s.meters)
	return result
}
