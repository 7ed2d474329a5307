package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/recipeforge/backend/internal/pipeline"
)

// ErrDraftNotFound is returned for unknown, expired or foreign drafts.
var ErrDraftNotFound = errors.New("draft not found")

// DraftTTL is how long an ask-ai preview is kept.
const DraftTTL = 24 * time.Hour

// RecipeDraft is an ask-ai preview waiting to be saved through from-json.
type RecipeDraft struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"created_at"`
	UserID    string             `json:"user_id"`
	Query     string             `json:"query"`
	Recipe    *pipeline.Document `json:"recipe"`
}

// RedisDraftStore keeps drafts under recipe:draft:<id>.
type RedisDraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{redis: client, ttl: DraftTTL}
}

func draftKey(id string) string {
	return fmt.Sprintf("recipe:draft:%s", id)
}

// SaveDraft assigns an ID when missing and stores the draft
func (s *RedisDraftStore) SaveDraft(ctx context.Context, draft *RecipeDraft) error {
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(draft.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft to Redis: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) GetDraft(ctx context.Context, id string) (*RecipeDraft, error) {
	data, err := s.redis.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft from Redis: %w", err)
	}

	var draft RecipeDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) DeleteDraft(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft from Redis: %w", err)
	}
	return nil
}

// OwnedDraft returns the draft only when userID created it.
func OwnedDraft(ctx context.Context, store DraftStore, id string, userID uuid.UUID) (*RecipeDraft, error) {
	draft, err := store.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.UserID != userID.String() {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}
