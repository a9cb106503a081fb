package storage

import (
	"context"
	"sync"
	"time"

	"github.com/halverson/concierge-bot/internal/models"
)

// MemoryStorage keeps dispatch records in-process. Suitable for development
// and tests.
type MemoryStorage struct {
	mu         sync.RWMutex
	dispatches map[int64][]*models.DispatchRecord
	users      map[int64]*models.UserMetadata
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		dispatches: make(map[int64][]*models.DispatchRecord),
		users:      make(map[int64]*models.UserMetadata),
	}
}

func (s *MemoryStorage) SaveDispatch(ctx context.Context, record *models.DispatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	// Newest first, matching the postgres query order.
	s.dispatches[record.UserID] = append([]*models.DispatchRecord{record}, s.dispatches[record.UserID]...)
	return nil
}

func (s *MemoryStorage) GetUserDispatches(ctx context.Context, userID int64, limit, offset int) ([]*models.DispatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.dispatches[userID]
	if offset >= len(records) {
		return nil, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	out := make([]*models.DispatchRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStorage) AddCategory(ctx context.Context, userID int64, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		user = &models.UserMetadata{UserID: userID}
		s.users[userID] = user
	}
	for _, c := range user.Categories {
		if c == category {
			user.LastUsedAt = time.Now()
			return nil
		}
	}
	user.Categories = append(user.Categories, category)
	user.LastUsedAt = time.Now()
	return nil
}

func (s *MemoryStorage) GetUserMetadata(ctx context.Context, userID int64) (*models.UserMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, exists := s.users[userID]; exists {
		copied := *user
		copied.Categories = append([]string(nil), user.Categories...)
		return &copied, nil
	}
	return &models.UserMetadata{UserID: userID}, nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
