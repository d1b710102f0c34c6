package repositories

import (
	"context"

	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// APIKeyRepository provides access to API keys for the external binding
type APIKeyRepository interface {
	Create(ctx context.Context, apiKey *models.APIKey) error
	GetByKey(ctx context.Context, key string) (*models.APIKey, error)
	Update(ctx context.Context, apiKey *models.APIKey) error
}

type apiKeyRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *gorm.DB, readOnlyDB *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new API key
func (r *apiKeyRepository) Create(ctx context.Context, apiKey *models.APIKey) error {
	if err := r.db.WithContext(ctx).Create(apiKey).Error; err != nil {
		return errors.Wrap(err, "failed to create API key")
	}
	return nil
}

// GetByKey looks an API key up by its token value
func (r *apiKeyRepository) GetByKey(ctx context.Context, key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := r.readOnlyDB.WithContext(ctx).First(&apiKey, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(apperrors.ErrNotFound, "unknown API key")
		}
		return nil, errors.Wrap(err, "failed to get API key")
	}
	return &apiKey, nil
}

// Update saves API key mutations such as the last-used timestamp
func (r *apiKeyRepository) Update(ctx context.Context, apiKey *models.APIKey) error {
	if err := r.db.WithContext(ctx).Save(apiKey).Error; err != nil {
		return errors.Wrap(err, "failed to update API key")
	}
	return nil
}
