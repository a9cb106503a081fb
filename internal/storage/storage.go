package storage

import (
	"context"

	"github.com/halverson/concierge-bot/internal/models"
)

// Storage persists dispatch records and per-user routing metadata. Message
// content is never stored here; conversation history lives in the external
// conversation service.
type Storage interface {
	SaveDispatch(ctx context.Context, record *models.DispatchRecord) error
	GetUserDispatches(ctx context.Context, userID int64, limit, offset int) ([]*models.DispatchRecord, error)
	AddCategory(ctx context.Context, userID int64, category string) error
	GetUserMetadata(ctx context.Context, userID int64) (*models.UserMetadata, error)
	Close() error
}
