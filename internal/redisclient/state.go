package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mall-bot/internal/dialog"
)

const (
	stateKeyPrefix = "conversation:"
	turnLockTTL    = 30 * time.Second
)

// ConversationStore keeps dialog state per conversation in Redis.
// Entries expire after ttl of inactivity.
type ConversationStore struct {
	client *Client
	ttl    time.Duration
}

func NewConversationStore(client *Client, ttl time.Duration) *ConversationStore {
	return &ConversationStore{client: client, ttl: ttl}
}

func stateKey(conversationID string) string {
	return stateKeyPrefix + conversationID
}

func encodeState(state dialog.State) ([]byte, error) {
	return json.Marshal(state)
}

func decodeState(raw []byte) (dialog.State, error) {
	var state dialog.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return dialog.State{}, fmt.Errorf("failed to decode conversation state: %w", err)
	}
	return state, nil
}

// Load returns the stored state, or the zero state when none exists.
func (s *ConversationStore) Load(ctx context.Context, conversationID string) (dialog.State, error) {
	raw, err := s.client.GetJSON(ctx, stateKey(conversationID))
	if errors.Is(err, ErrNotFound) {
		return dialog.State{}, nil
	}
	if err != nil {
		return dialog.State{}, fmt.Errorf("failed to load conversation state: %w", err)
	}
	return decodeState(raw)
}

func (s *ConversationStore) Save(ctx context.Context, conversationID string, state dialog.State) error {
	raw, err := encodeState(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation state: %w", err)
	}
	if err := s.client.SetJSON(ctx, stateKey(conversationID), raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, conversationID string) error {
	return s.client.Delete(ctx, stateKey(conversationID))
}

// Lock takes the turn lock for a conversation. It reports false when
// another turn already holds it.
func (s *ConversationStore) Lock(ctx context.Context, conversationID string) (bool, error) {
	return s.client.AcquireLock(ctx, stateKey(conversationID), turnLockTTL)
}

func (s *ConversationStore) Unlock(ctx context.Context, conversationID string) error {
	return s.client.ReleaseLock(ctx, stateKey(conversationID))
}

func (s *ConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
