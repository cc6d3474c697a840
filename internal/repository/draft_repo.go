package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-daily-challenge/internal/models"
	"github.com/noah-isme/gema-daily-challenge/internal/observability"
)

// ErrDraftNotFound indicates no draft is stored for the submission question.
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore persists unsaved grading drafts keyed by submission question id.
type DraftStore interface {
	Get(ctx context.Context, submissionQuestionID int64) (models.Draft, error)
	Set(ctx context.Context, draft models.Draft) error
	Clear(ctx context.Context, submissionQuestionID int64) error
}

// DraftKey returns the cache key used for a submission question draft.
func DraftKey(submissionQuestionID int64) string {
	return fmt.Sprintf("draft:submission-question:%d", submissionQuestionID)
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore keeps drafts in Redis with a sliding TTL.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl}
}

func (s *redisDraftStore) Get(ctx context.Context, submissionQuestionID int64) (models.Draft, error) {
	payload, err := s.client.Get(ctx, DraftKey(submissionQuestionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			observability.DraftOperations().WithLabelValues("redis", "get", "miss").Inc()
			return models.Draft{}, ErrDraftNotFound
		}
		observability.DraftOperations().WithLabelValues("redis", "get", "error").Inc()
		return models.Draft{}, err
	}

	var draft models.Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		observability.DraftOperations().WithLabelValues("redis", "get", "error").Inc()
		return models.Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	observability.DraftOperations().WithLabelValues("redis", "get", "hit").Inc()
	return draft, nil
}

func (s *redisDraftStore) Set(ctx context.Context, draft models.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, DraftKey(draft.SubmissionQuestionID), payload, s.ttl).Err(); err != nil {
		observability.DraftOperations().WithLabelValues("redis", "set", "error").Inc()
		return err
	}
	observability.DraftOperations().WithLabelValues("redis", "set", "ok").Inc()
	return nil
}

func (s *redisDraftStore) Clear(ctx context.Context, submissionQuestionID int64) error {
	if err := s.client.Del(ctx, DraftKey(submissionQuestionID)).Err(); err != nil {
		observability.DraftOperations().WithLabelValues("redis", "clear", "error").Inc()
		return err
	}
	observability.DraftOperations().WithLabelValues("redis", "clear", "ok").Inc()
	return nil
}

type sqlDraftStore struct {
	db *gorm.DB
}

// NewSQLDraftStore keeps drafts in the grading_drafts table.
func NewSQLDraftStore(db *gorm.DB) DraftStore {
	return &sqlDraftStore{db: db}
}

func (s *sqlDraftStore) Get(ctx context.Context, submissionQuestionID int64) (models.Draft, error) {
	var record models.DraftRecord
	err := s.db.WithContext(ctx).
		Where("submission_question_id = ?", submissionQuestionID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.DraftOperations().WithLabelValues("sql", "get", "miss").Inc()
			return models.Draft{}, ErrDraftNotFound
		}
		observability.DraftOperations().WithLabelValues("sql", "get", "error").Inc()
		return models.Draft{}, err
	}
	observability.DraftOperations().WithLabelValues("sql", "get", "hit").Inc()
	return record.Draft()
}

func (s *sqlDraftStore) Set(ctx context.Context, draft models.Draft) error {
	record, err := models.NewDraftRecord(draft)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_question_id"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		observability.DraftOperations().WithLabelValues("sql", "set", "error").Inc()
		return err
	}
	observability.DraftOperations().WithLabelValues("sql", "set", "ok").Inc()
	return nil
}

func (s *sqlDraftStore) Clear(ctx context.Context, submissionQuestionID int64) error {
	err := s.db.WithContext(ctx).
		Where("submission_question_id = ?", submissionQuestionID).
		Delete(&models.DraftRecord{}).Error
	if err != nil {
		observability.DraftOperations().WithLabelValues("sql", "clear", "error").Inc()
		return err
	}
	observability.DraftOperations().WithLabelValues("sql", "clear", "ok").Inc()
	return nil
}

type memoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[int64]models.Draft
}

// NewMemoryDraftStore keeps drafts in process memory. Used when neither Redis
// nor a database is configured.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{drafts: make(map[int64]models.Draft)}
}

func (s *memoryDraftStore) Get(_ context.Context, submissionQuestionID int64) (models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[submissionQuestionID]
	if !ok {
		return models.Draft{}, ErrDraftNotFound
	}
	return draft, nil
}

func (s *memoryDraftStore) Set(_ context.Context, draft models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.SubmissionQuestionID] = draft
	return nil
}

func (s *memoryDraftStore) Clear(_ context.Context, submissionQuestionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, submissionQuestionID)
	return nil
}
