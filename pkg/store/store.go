package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when no state record exists for a chat id.
var ErrNotFound = errors.New("chat state not found")

// Store keeps one JSON file per chat id under a root directory. Writes are
// atomic (temp file + rename); Update serializes load-mutate-store per chat
// id so concurrent events for the same chat cannot lose transcript appends.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", root, err)
	}
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Load reads the state record for chatID. Returns ErrNotFound if the chat
// has never been seen.
func (s *Store) Load(chatID string) (*ChatState, error) {
	path, err := s.path(chatID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
		}
		return nil, fmt.Errorf("read chat state %s: %w", chatID, err)
	}
	var state ChatState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode chat state %s: %w", chatID, err)
	}
	if state.Settings == nil {
		state.Settings = make(map[string]SettingValue)
	}
	return &state, nil
}

// Save writes the full state record for chatID. The write is all-or-nothing
// for one call; callers must not assume any finer-grained atomicity.
func (s *Store) Save(chatID string, state *ChatState) error {
	path, err := s.path(chatID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat state %s: %w", chatID, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.root, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("write chat state %s: %w", chatID, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write chat state %s: %w", chatID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write chat state %s: %w", chatID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("write chat state %s: %w", chatID, err)
	}
	return nil
}

// Exists reports whether a state record is present for chatID.
func (s *Store) Exists(chatID string) bool {
	path, err := s.path(chatID)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// List enumerates all known chat ids, sorted. This is what the dispatcher
// uses to rediscover handlers after a restart.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list chat states: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.Contains(entry.Name(), ".tmp.") {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Update runs fn under the chat's exclusive scope: load, mutate, store,
// with no other Update for the same chat id interleaving. If the chat has
// no record yet, fn receives nil and may not create one. If fn returns an
// error the record is not written.
func (s *Store) Update(ctx context.Context, chatID string, fn func(*ChatState) error) error {
	lock := s.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	state, err := s.Load(chatID)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.Save(chatID, state)
}

func (s *Store) chatLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[chatID] = lock
	}
	return lock
}

// path validates chatID as a safe file name and joins it under root. Chat
// ids become file names directly, so path separators and ".." are rejected.
func (s *Store) path(chatID string) (string, error) {
	trimmed := strings.TrimSpace(chatID)
	if trimmed == "" {
		return "", errors.New("chat id must be a non-empty string")
	}
	if strings.ContainsAny(trimmed, "/\\") || strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("chat id %q must not contain path separators or '..'", chatID)
	}
	return filepath.Join(s.root, trimmed), nil
}
